package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"storefront/admin/internal/metrics"
	"storefront/admin/internal/session"
)

// DefaultMessage is shown when the backend gives no usable error message.
const DefaultMessage = "An error occurred"

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not_found")
)

// APIError is a non-2xx answer from the commerce backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	default:
		return false
	}
}

// OperatorMessage is the server-provided message, or the fallback text.
func (e *APIError) OperatorMessage() string {
	if strings.TrimSpace(e.Message) == "" {
		return DefaultMessage
	}
	return e.Message
}

// MessageOf is the text an operator sees for a failed backend call.
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.OperatorMessage()
	}
	return DefaultMessage
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// Backend talks to the commerce REST API on behalf of the signed-in
// operator. The bearer token is taken from the request's session.
type Backend struct {
	http      *http.Client
	adminBase atomic.Value
	authBase  atomic.Value
	metrics   *metrics.Metrics
	log       logrus.FieldLogger
}

func New(adminBaseURL, authBaseURL string, timeout time.Duration, m *metrics.Metrics, log logrus.FieldLogger) *Backend {
	b := &Backend{
		http:    &http.Client{Timeout: timeout},
		metrics: m,
		log:     log,
	}
	b.adminBase.Store(strings.TrimRight(adminBaseURL, "/"))
	b.authBase.Store(strings.TrimRight(authBaseURL, "/"))
	return b
}

func (b *Backend) AdminBaseURL() string {
	return b.adminBase.Load().(string)
}

func (b *Backend) AuthBaseURL() string {
	return b.authBase.Load().(string)
}

// Rehost points both base URLs at a newly discovered backend instance,
// keeping their paths.
func (b *Backend) Rehost(instance string) error {
	target, err := url.Parse(instance)
	if err != nil {
		return fmt.Errorf("parse instance url: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return fmt.Errorf("instance url %q has no host", instance)
	}
	admin, err := rehost(b.AdminBaseURL(), target)
	if err != nil {
		return err
	}
	auth, err := rehost(b.AuthBaseURL(), target)
	if err != nil {
		return err
	}
	b.adminBase.Store(admin)
	b.authBase.Store(auth)
	return nil
}

func rehost(base string, target *url.URL) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	parsed.Scheme = target.Scheme
	parsed.Host = target.Host
	return parsed.String(), nil
}

func (b *Backend) Close() {
	if b == nil {
		return
	}
	b.http.CloseIdleConnections()
}

// Probe checks that the backend answers at all; any HTTP status counts.
func (b *Backend) Probe(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.AdminBaseURL()+path, nil)
	if err != nil {
		return err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (b *Backend) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	return b.doJSON(ctx, http.MethodGet, b.AdminBaseURL(), path, query, nil, out)
}

func (b *Backend) sendJSON(ctx context.Context, method, path string, in, out interface{}) error {
	return b.doJSON(ctx, method, b.AdminBaseURL(), path, nil, in, out)
}

func (b *Backend) doJSON(ctx context.Context, method, base, path string, query url.Values, in, out interface{}) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	raw, err := b.do(ctx, method, base, path, query, body, contentType)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(unwrap(raw), out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// do performs one call and returns the raw 2xx body.
func (b *Backend) do(ctx context.Context, method, base, path string, query url.Values, body io.Reader, contentType string) ([]byte, error) {
	target := base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := session.AccessToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := b.http.Do(req)
	b.metrics.BackendLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		b.metrics.BackendRequests.WithLabelValues(method, metrics.StatusClass(0)).Inc()
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	b.metrics.BackendRequests.WithLabelValues(method, metrics.StatusClass(resp.StatusCode)).Inc()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var env envelope
		_ = json.Unmarshal(raw, &env)
		b.log.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Debug("backend call rejected")
		return nil, &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	return raw, nil
}

// unwrap returns the envelope's data when present, the whole body otherwise.
func unwrap(raw []byte) []byte {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && !isNull(env.Data) {
		return env.Data
	}
	return raw
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
