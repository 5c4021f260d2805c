package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
)

func TestHealthCheck(t *testing.T) {
	mock, err := pgxmock.NewPool() // pgxmock v3 always monitors pings (v4: MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectPing()
	if err := HealthCheck(context.Background(), mock, time.Second); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	if err := HealthCheck(context.Background(), mock, time.Second); err == nil {
		t.Fatalf("expected ping error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresPoolConfigDefaults(t *testing.T) {
	c := PostgresPoolConfig{MinConns: 50}.withDefaults()
	if c.MaxConns != 20 || c.MinConns != 0 {
		t.Fatalf("unexpected conns: %+v", c)
	}
	if c.PingTimeout != 5*time.Second {
		t.Fatalf("unexpected ping timeout: %s", c.PingTimeout)
	}
}

func TestOpenPool_RejectsBadDSN(t *testing.T) {
	if _, err := OpenPool(context.Background(), "host=%zz port=notaport", PostgresPoolConfig{}); err == nil {
		t.Fatalf("expected error for invalid dsn")
	}
}
