package main

import (
	"net/http"

	"appointment-caller/internal/app"
	"appointment-caller/internal/httpapi"
	"appointment-caller/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, svc *app.App, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := svc.Ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := httpapi.Handlers{
		Booking:  svc.Booking,
		Records:  svc.Records,
		Reports:  svc.Reports,
		Template: svc.Template,
	}

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		appts := v1.Group("/appointments")
		{
			appts.POST("", rbac.RequireAnyRole(rbac.RoleScheduler), h.BookAppointment)
			appts.GET("/:id", rbac.RequireAnyRole(rbac.RoleScheduler, rbac.RoleAnalyst), h.GetAppointment)
			appts.GET("/:id/calendar.ics", rbac.RequireAnyRole(rbac.RoleScheduler, rbac.RoleAnalyst), h.GetAppointmentCalendar)
		}

		reports := v1.Group("/reports")
		reports.Use(rbac.RequireAnyRole(rbac.RoleAnalyst))
		{
			reports.GET("/outcomes", h.OutcomeReport)
		}
	}
}
