package httpapi

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"appointment-caller/internal/appointments"
	"appointment-caller/internal/auth"
	"appointment-caller/internal/booking"
	"appointment-caller/internal/calendar"
	"appointment-caller/internal/calls"
	"appointment-caller/internal/failure"
	"appointment-caller/internal/reporting"
	"appointment-caller/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Booker interface {
	Run(ctx context.Context, req booking.Request) booking.Result
}

type RecordReader interface {
	Get(ctx context.Context, id string) (appointments.Record, error)
}

type OutcomeReporter interface {
	OutcomeSummary(ctx context.Context, req reporting.OutcomeSummaryRequest) (reporting.OutcomeSummary, error)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Booking  Booker
	Records  RecordReader
	Reports  OutcomeReporter
	Template calendar.Template

	// Now defaults to time.Now.
	Now func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// --- Appointments ---

type bookAppointmentRequest struct {
	CustomerName string `json:"customer_name"`
	PhoneNumber  string `json:"phone_number"`
	Voice        string `json:"voice"`
	AgentName    string `json:"agent_name"`
	Email        string `json:"email"`
}

func (r bookAppointmentRequest) contact() calls.Contact {
	voice, err := calls.ParseVoiceProfile(r.Voice)
	if err != nil {
		// Left as given; Contact.Validate reports it as a dispatch error.
		voice = calls.VoiceProfile(r.Voice)
	}
	return calls.Contact{
		CustomerName: r.CustomerName,
		PhoneNumber:  r.PhoneNumber,
		Voice:        voice,
		AgentName:    r.AgentName,
		Email:        r.Email,
	}
}

// BookAppointment runs the booking pipeline for one contact and blocks until
// the run finishes.
// RBAC: scheduler or admin.
func (h Handlers) BookAppointment(c *gin.Context) {
	if h.Booking == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "booking not configured"})
		return
	}
	var req bookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	actor, _ := auth.UserID(c.Request.Context())

	res := h.Booking.Run(c.Request.Context(), booking.Request{Contact: req.contact(), ActorUserID: actor})
	if res.OK() {
		c.JSON(http.StatusCreated, res)
		return
	}
	c.JSON(failureStatus(res.Failure), res)
}

// failureStatus maps a run failure to the HTTP status returned with it.
func failureStatus(f *booking.Failure) int {
	if f == nil {
		return http.StatusInternalServerError
	}
	switch f.Kind {
	case failure.KindUnrecognizedFormat, failure.KindExtraction:
		return http.StatusUnprocessableEntity
	case failure.KindPollTimeout:
		return http.StatusGatewayTimeout
	case failure.KindDispatch, failure.KindCallFailed, failure.KindTranscriptUnavailable, failure.KindPublish:
		return http.StatusBadGateway
	case failure.KindPersistence:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h Handlers) GetAppointment(c *gin.Context) {
	rec, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rec)
}

// GetAppointmentCalendar renders a stored record as an iCalendar file.
func (h Handlers) GetAppointmentCalendar(c *gin.Context) {
	rec, ok := h.lookup(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := calendar.WriteICS(&buf, rec, h.Template, h.now()); err != nil {
		logger.FromGin(c).Error("ics render failed", "record_id", rec.ID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calendar render failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="appointment-`+rec.ID+`.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

func (h Handlers) lookup(c *gin.Context) (appointments.Record, bool) {
	if h.Records == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "records not configured"})
		return appointments.Record{}, false
	}
	rec, err := h.Records.Get(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		return rec, true
	case errors.Is(err, appointments.ErrInvalidID):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
	case errors.Is(err, appointments.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		logger.FromGin(c).Error("record lookup failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
	}
	return appointments.Record{}, false
}

// --- Reports ---

// OutcomeReport summarizes booking runs in [from, to). Both bounds are RFC3339;
// the default window is the last 24 hours.
// RBAC: analyst or admin.
func (h Handlers) OutcomeReport(c *gin.Context) {
	if h.Reports == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reports not configured"})
		return
	}
	to := h.now()
	from := to.Add(-24 * time.Hour)
	var err error
	if v := c.Query("from"); v != "" {
		if from, err = time.Parse(time.RFC3339, v); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = time.Parse(time.RFC3339, v); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return
		}
	}

	sum, err := h.Reports.OutcomeSummary(c.Request.Context(), reporting.OutcomeSummaryRequest{
		Range: reporting.TimeRange{From: from, To: to},
	})
	if errors.Is(err, reporting.ErrInvalidRequest) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be before to"})
		return
	}
	if err != nil {
		logger.FromGin(c).Error("outcome report failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}
	c.JSON(http.StatusOK, sum)
}
