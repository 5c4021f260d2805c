package telephony

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"appointment-caller/internal/config"
)

var ErrEmptyCallID = errors.New("telephony: call id is required")

// BlandProvider talks to a Bland-style AI voice-call REST API.
type BlandProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *slog.Logger
}

func NewBlandProvider(cfg config.VoiceConfig, log *slog.Logger) *BlandProvider {
	if log == nil {
		log = slog.Default()
	}
	return &BlandProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		log:     log.With("provider", "bland"),
	}
}

func (p *BlandProvider) Name() string { return "bland" }

type placeCallResponse struct {
	Status  any    `json:"status"`
	CallID  string `json:"call_id"`
	Message string `json:"message"`
}

func (p *BlandProvider) PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return PlaceCallResult{}, fmt.Errorf("telephony: encode call request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/call", bytes.NewReader(body))
	if err != nil {
		return PlaceCallResult{}, fmt.Errorf("telephony: build call request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("authorization", p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return PlaceCallResult{}, fmt.Errorf("telephony: place call: %w", err)
	}
	defer resp.Body.Close()

	out := PlaceCallResult{HTTPStatus: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return out, fmt.Errorf("telephony: read call response: %w", err)
	}

	var decoded placeCallResponse
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			// Non-JSON error pages are still a definitive answer from the provider.
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return out, fmt.Errorf("telephony: decode call response: %w", err)
			}
			out.Message = truncate(string(raw), 256)
			return out, nil
		}
	}
	out.Accepted = truthy(decoded.Status)
	out.CallID = strings.TrimSpace(decoded.CallID)
	out.Message = decoded.Message

	p.log.InfoContext(ctx, "call placed",
		"http_status", out.HTTPStatus,
		"accepted", out.Accepted,
		"call_id", out.CallID,
	)
	return out, nil
}

func (p *BlandProvider) CallDetails(ctx context.Context, callID string) (CallDetails, error) {
	callID = strings.TrimSpace(callID)
	if callID == "" {
		return CallDetails{}, ErrEmptyCallID
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/calls/"+url.PathEscape(callID), nil)
	if err != nil {
		return CallDetails{}, fmt.Errorf("telephony: build status request: %w", err)
	}
	httpReq.Header.Set("authorization", p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return CallDetails{}, fmt.Errorf("telephony: fetch call %s: %w", callID, err)
	}
	defer resp.Body.Close()

	out := CallDetails{HTTPStatus: resp.StatusCode, CallID: callID}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
		return out, fmt.Errorf("telephony: fetch call %s: unexpected status %d", callID, resp.StatusCode)
	}

	var decoded struct {
		CallID      string            `json:"call_id"`
		Status      string            `json:"status"`
		Completed   bool              `json:"completed"`
		Transcripts []TranscriptEntry `json:"transcripts"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&decoded); err != nil {
		return out, fmt.Errorf("telephony: decode call %s: %w", callID, err)
	}

	out.Status = NormalizeStatus(decoded.Status)
	// Ended calls report completed=true whatever the outcome; a failure status wins.
	out.Completed = (decoded.Completed || out.Status == StatusCompleted) && !IsTerminalFailure(out.Status)
	out.Transcripts = decoded.Transcripts
	return out, nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
