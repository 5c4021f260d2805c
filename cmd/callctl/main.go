package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"appointment-caller/internal/app"
	"appointment-caller/internal/auth"
	"appointment-caller/internal/booking"
	"appointment-caller/internal/calls"
	"appointment-caller/internal/config"
	"appointment-caller/internal/normalize"
	"appointment-caller/internal/rbac"
	"appointment-caller/pkg/logger"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		slog.Error("callctl failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "callctl",
		Usage: "Operate the appointment-calling pipeline from the command line.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info", EnvVars: []string{"LOG_LEVEL"}, Usage: "debug, info, warn or error"},
		},
		Commands: []*cli.Command{
			bookCommand(),
			normalizeCommand(),
			tokenCommand(),
		},
	}
}

func bookCommand() *cli.Command {
	return &cli.Command{
		Name:  "book",
		Usage: "Call a customer, extract the agreed appointment and publish it.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "customer", Required: true, Usage: "customer name"},
			&cli.StringFlag{Name: "phone", Required: true, Usage: "number to dial, passed to the provider as-is"},
			&cli.StringFlag{Name: "voice", Value: string(calls.VoiceIndianMale), Usage: "indian_male, american_male or american_female"},
			&cli.StringFlag{Name: "agent", Required: true, Usage: "agent display name"},
			&cli.StringFlag{Name: "email", Required: true, Usage: "customer email"},
		},
		Action: func(c *cli.Context) error {
			log := logger.NewWithLevel(os.Stderr, c.String("log-level"))

			voice, err := calls.ParseVoiceProfile(c.String("voice"))
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			svc, err := app.New(c.Context, cfg, log)
			if err != nil {
				return err
			}
			defer svc.Close()

			res := svc.Booking.Run(c.Context, booking.Request{
				Contact: calls.Contact{
					CustomerName: c.String("customer"),
					PhoneNumber:  c.String("phone"),
					Voice:        voice,
					AgentName:    c.String("agent"),
					Email:        c.String("email"),
				},
				ActorUserID: "callctl",
			})
			if err := writeJSON(c, res); err != nil {
				return err
			}
			if !res.OK() {
				return cli.Exit(fmt.Sprintf("booking failed: %s: %s", res.Failure.Kind, res.Failure.Message), 1)
			}
			return nil
		},
	}
}

func normalizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "normalize",
		Usage: "Parse a spoken date and time the way the pipeline does, without calling anyone.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Required: true},
			&cli.StringFlag{Name: "time", Required: true},
		},
		Action: func(c *cli.Context) error {
			span, err := normalize.Parse(c.String("date"), c.String("time"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return writeJSON(c, map[string]string{
				"start_date_time": span.StartText(),
				"end_date_time":   span.EndText(),
			})
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Issue an operator access token for the HTTP API.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Required: true},
			&cli.StringFlag{Name: "role", Value: rbac.RoleScheduler, Usage: "admin, scheduler or analyst"},
			&cli.StringFlag{Name: "secret", EnvVars: []string{"JWT_SECRET"}},
			&cli.StringFlag{Name: "issuer", EnvVars: []string{"JWT_ISSUER"}},
			&cli.StringFlag{Name: "audience", EnvVars: []string{"JWT_AUDIENCE"}},
			&cli.DurationFlag{Name: "ttl", Value: 12 * time.Hour, EnvVars: []string{"JWT_ACCESS_TTL"}},
		},
		Action: func(c *cli.Context) error {
			role := c.String("role")
			if !rbac.Valid(role) {
				return cli.Exit(fmt.Sprintf("unknown role %q", role), 2)
			}
			m, err := auth.NewManager(config.AuthConfig{
				JWTSecret:      c.String("secret"),
				JWTIssuer:      c.String("issuer"),
				JWTAudience:    c.String("audience"),
				AccessTokenTTL: c.Duration("ttl"),
			})
			if err != nil {
				return err
			}
			tok, err := m.IssueAccess(time.Now(), c.String("user"), role)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, tok)
			return err
		},
	}
}

func writeJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
