package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"appointment-caller/internal/calendar"
	"appointment-caller/internal/config"
	"appointment-caller/internal/failure"
)

func samplePayload() calendar.Payload {
	return calendar.Payload{
		Title:         "Appointment with Client",
		StartDateTime: "2024-08-15T14:00:00",
		EndDateTime:   "2024-08-15T15:00:00",
		Guests:        "asha@example.com",
		RecordID:      "r-1",
	}
}

func TestPublish_PostsJSONOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		var got calendar.Payload
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		if got.RecordID != "r-1" || got.StartDateTime != "2024-08-15T14:00:00" {
			t.Errorf("unexpected payload %+v", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewPublisher(config.WebhookConfig{URL: srv.URL, Timeout: time.Second}, nil)
	if err := p.Publish(context.Background(), samplePayload()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected exactly one delivery, got %d", hits.Load())
	}
}

func TestPublish_Non2xxIsPublishErrorWithoutRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("sink down"))
	}))
	defer srv.Close()

	p := NewPublisher(config.WebhookConfig{URL: srv.URL, Timeout: time.Second}, nil)
	err := p.Publish(context.Background(), samplePayload())
	if !failure.Is(err, failure.KindPublish) {
		t.Fatalf("expected publish error, got %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected no retry, got %d deliveries", hits.Load())
	}
}

func TestPublish_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := NewPublisher(config.WebhookConfig{URL: url, Timeout: time.Second}, nil)
	if err := p.Publish(context.Background(), samplePayload()); !failure.Is(err, failure.KindPublish) {
		t.Fatalf("expected publish error, got %v", err)
	}
}

func TestPublish_NotConfigured(t *testing.T) {
	p := NewPublisher(config.WebhookConfig{}, nil)
	if err := p.Publish(context.Background(), samplePayload()); !failure.Is(err, failure.KindPublish) {
		t.Fatalf("expected publish error, got %v", err)
	}
}
