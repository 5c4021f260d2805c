// Package app assembles the booking pipeline from configuration. Both the
// API server and callctl build their services here.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"appointment-caller/internal/appointments"
	"appointment-caller/internal/audit"
	"appointment-caller/internal/booking"
	"appointment-caller/internal/calendar"
	"appointment-caller/internal/calls"
	"appointment-caller/internal/config"
	"appointment-caller/internal/eventbus"
	"appointment-caller/internal/extraction"
	"appointment-caller/internal/reporting"
	"appointment-caller/internal/telephony"
	"appointment-caller/internal/webhook"
	"appointment-caller/pkg/utils"
)

// App holds the long-lived services and the connections they share.
type App struct {
	Booking  *booking.Orchestrator
	Records  *appointments.Service
	Audit    *audit.Service
	Reports  *reporting.Service
	Template calendar.Template

	DB    *pgxpool.Pool
	Redis *redis.Client

	bus eventbus.Publisher
	log *slog.Logger
}

// New opens Postgres, Redis (when configured) and the broker (when configured)
// and wires the orchestrator. Call Close when done.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	tpl := calendar.TemplateFromConfig(cfg.Calendar)
	if err := tpl.Validate(); err != nil {
		return nil, fmt.Errorf("calendar template: %w", err)
	}

	a := &App{Template: tpl, log: log}

	db, err := utils.OpenPool(ctx, cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		return nil, fmt.Errorf("postgres init: %w", err)
	}
	a.DB = db

	var lock booking.Lock
	if addr := cfg.RedisAddr(); addr != "" {
		rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: addr})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis init: %w", err)
		}
		a.Redis = rdb
		// The lock outlives the longest possible run so it cannot expire mid-call.
		lock = booking.NewRedisLock(rdb, cfg.Poll.Timeout+5*time.Minute, log)
	} else {
		log.Warn("redis not configured; per-number call lock disabled")
	}

	bus, err := eventbus.Open(cfg.Broker.RabbitMQURL, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("broker init: %w", err)
	}
	a.bus = bus

	a.Records = appointments.NewService(appointments.NewPostgresRepo(db), log)
	a.Audit = audit.NewService(audit.NewPostgresRepo(db))
	a.Reports = reporting.NewService(a.Audit)

	provider := telephony.NewBlandProvider(cfg.Voice, log)
	llm := extraction.NewOpenAIClient(cfg.LLM, extraction.DefaultBreakerSettings(), log)

	a.Booking = booking.NewOrchestrator(booking.Deps{
		Dispatcher: calls.NewDispatcher(provider, calls.DefaultOrganization, log),
		Poller:     calls.NewPoller(provider, calls.PolicyFromConfig(cfg.Poll), log),
		Extractor:  extraction.NewExtractor(llm, log),
		Records:    a.Records,
		Webhook:    webhook.NewPublisher(cfg.Webhook, log),
		Template:   tpl,
		Lock:       lock,
		Audit:      a.Audit,
		Notifier:   eventbus.NewNotifier(bus, log),
		Log:        log,
	})
	return a, nil
}

// Ready pings Postgres and, when configured, Redis.
func (a *App) Ready(ctx context.Context) error {
	var errs []error
	if a.DB != nil {
		if err := utils.HealthCheck(ctx, a.DB, 2*time.Second); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (a *App) Close() {
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			a.log.Warn("broker close failed", "err", err)
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
