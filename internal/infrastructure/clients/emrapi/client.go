package emrapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/clinicdesk/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/clinicdesk/pkg/errors"
)

const (
	defaultTimeout  = 10 * time.Second
	maxErrorBody    = 64 << 10
	maxResponseBody = 32 << 20
)

// HTTPClient is a typed client for the clinic EMR REST API. It performs no
// retries and no caching; every failure is returned as a classified *AppError.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	metrics    *observability.Metrics
}

// Option configures an HTTPClient
type Option func(*HTTPClient)

// WithToken sets the bearer token sent on every request
func WithToken(token string) Option {
	return func(c *HTTPClient) { c.token = token }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMetrics records request counts and durations
func WithMetrics(m *observability.Metrics) Option {
	return func(c *HTTPClient) { c.metrics = m }
}

// NewClient creates a client for the API rooted at baseURL (e.g. http://host:5000)
func NewClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the common shape of backend responses
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e envelope) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

func (c *HTTPClient) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, query url.Values, in any) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, apperrors.NewInternalError("encode request body", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return nil, apperrors.NewInternalError("build request", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// send issues the request and converts transport failures and non-2xx
// responses into AppErrors. On success the caller owns resp.Body.
func (c *HTTPClient) send(ctx context.Context, op, method, path string, query url.Values, in any) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, query, in)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.RecordRequestMetric(ctx, c.metrics, method, op, 0, time.Since(start))
		return nil, apperrors.NewNetworkError(fmt.Sprintf("%s %s failed", method, path), err)
	}
	observability.RecordRequestMetric(ctx, c.metrics, method, op, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var env envelope
		_ = json.Unmarshal(raw, &env)
		return nil, apperrors.FromStatus(resp.StatusCode,
			fmt.Sprintf("%s %s returned status %d", method, path, resp.StatusCode), env.text())
	}
	return resp, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	ctx, span := observability.StartSpan(ctx, "emrapi."+op)
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("http.method", method),
		attribute.String("emr.operation", op),
	)

	resp, err := c.send(ctx, op, method, path, query, in)
	if err != nil {
		observability.RecordError(span, err)
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		err = apperrors.NewNetworkError(fmt.Sprintf("read %s response", op), err)
		observability.RecordError(span, err)
		return err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Success != nil && !*env.Success {
		appErr := apperrors.FromStatus(http.StatusBadRequest, fmt.Sprintf("%s rejected", op), env.text())
		appErr.StatusCode = resp.StatusCode
		observability.RecordError(span, appErr)
		return appErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		err = apperrors.NewInternalError(fmt.Sprintf("decode %s response", op), err)
		observability.RecordError(span, err)
		return err
	}
	return nil
}

// download streams a binary response body into w
func (c *HTTPClient) download(ctx context.Context, op, path string, query url.Values, w io.Writer) (int64, error) {
	ctx, span := observability.StartSpan(ctx, "emrapi."+op)
	defer span.End()

	resp, err := c.send(ctx, op, http.MethodGet, path, query, nil)
	if err != nil {
		observability.RecordError(span, err)
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		err = apperrors.NewNetworkError(fmt.Sprintf("read %s body", op), err)
		observability.RecordError(span, err)
		return n, err
	}
	return n, nil
}

func requireID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.NewValidationError(kind + " id is required")
	}
	return nil
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func seg(s string) string {
	return url.PathEscape(s)
}
