package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/notablehq/notesync/models"
)

// APIKeyHeader carries the caller-supplied credential on every request.
const APIKeyHeader = "X-Api-Key"

// HTTPTransportConfig configures the REST transport.
type HTTPTransportConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type httpTransport struct {
	client *resty.Client
}

// NewHTTPTransport builds the resty-backed [SyncTransport] for one server
// endpoint.
func NewHTTPTransport(cfg HTTPTransportConfig) SyncTransport {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader(APIKeyHeader, cfg.APIKey)

	return &httpTransport{client: cli}
}

func (h *httpTransport) Push(ctx context.Context, req models.PushRequest) (models.PushResponse, error) {
	req.Length = len(req.Changes)

	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/sync/push")
	if err != nil {
		return models.PushResponse{}, classifyRequestError("push", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.PushResponse{}, err
	}

	var out models.PushResponse
	if err = json.Unmarshal(resp.Body(), &out); err != nil {
		return models.PushResponse{}, fmt.Errorf("decode push response: %w", err)
	}

	return out, nil
}

func (h *httpTransport) Pull(ctx context.Context, since int64) (models.PullResponse, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetQueryParam("since", strconv.FormatInt(since, 10)).
		Get("/sync/pull")
	if err != nil {
		return models.PullResponse{}, classifyRequestError("pull", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.PullResponse{}, err
	}

	var out models.PullResponse
	if err = json.Unmarshal(resp.Body(), &out); err != nil {
		return models.PullResponse{}, fmt.Errorf("decode pull response: %w", err)
	}

	return out, nil
}

// classifyRequestError wraps failures that never produced an HTTP response.
// Everything in this class (timeouts, refused connections, DNS errors) is
// retryable on a later cycle.
func classifyRequestError(op string, err error) error {
	return fmt.Errorf("%s request: %w: %w", op, ErrNetwork, err)
}

func mapHTTPError(resp *resty.Response) error {
	code := resp.StatusCode()
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}

	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		return fmt.Errorf("http %d: %w", code, ErrUnauthorized)
	}
	if code >= http.StatusInternalServerError {
		return fmt.Errorf("http %d: %w", code, ErrServerUnavailable)
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(code)
	}
	return fmt.Errorf("http %d: %s", code, body)
}
