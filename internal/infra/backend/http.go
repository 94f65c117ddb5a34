package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/vietddude/jobctl/internal/core/domain"
)

// HTTPClient implements Client against a transform REST API:
//
//	PUT    /_transform/{id}
//	GET    /_transform/{id}/_preview
//	POST   /_transform/{id}/_start
//	POST   /_transform/{id}/_stop?wait_for_completion=&force=
//	DELETE /_transform/{id}?force=
//	GET    /_cluster/health
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPClient creates a transform API client. Timeouts are the transport's
// responsibility; the controller does not impose its own deadlines.
func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c *HTTPClient) Put(ctx context.Context, id domain.JobID, spec domain.JobSpec) error {
	_, err := c.do(ctx, http.MethodPut, c.jobURL(id, ""), spec)
	return err
}

func (c *HTTPClient) Preview(ctx context.Context, id domain.JobID) (*PreviewResult, error) {
	body, err := c.do(ctx, http.MethodGet, c.jobURL(id, "/_preview"), nil)
	if err != nil {
		return nil, err
	}

	var result PreviewResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse preview response: %w", err)
	}
	return &result, nil
}

func (c *HTTPClient) Start(ctx context.Context, id domain.JobID) error {
	_, err := c.do(ctx, http.MethodPost, c.jobURL(id, "/_start"), nil)
	return err
}

func (c *HTTPClient) Stop(ctx context.Context, id domain.JobID, opts StopOptions) error {
	q := url.Values{}
	q.Set("wait_for_completion", fmt.Sprintf("%t", opts.WaitForCompletion))
	if opts.Force {
		q.Set("force", "true")
	}
	_, err := c.do(ctx, http.MethodPost, c.jobURL(id, "/_stop")+"?"+q.Encode(), nil)
	return err
}

func (c *HTTPClient) Delete(ctx context.Context, id domain.JobID, opts DeleteOptions) error {
	u := c.jobURL(id, "")
	if opts.Force {
		u += "?force=true"
	}
	_, err := c.do(ctx, http.MethodDelete, u, nil)
	return err
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, c.endpoint+"/_cluster/health", nil)
	return err
}

func (c *HTTPClient) jobURL(id domain.JobID, suffix string) string {
	return c.endpoint + "/_transform/" + url.PathEscape(string(id)) + suffix
}

// do issues the request and maps response status codes to the package's
// typed errors so the retry policy can classify them.
func (c *HTTPClient) do(ctx context.Context, method, rawURL string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport failures (refused, reset, timeout) are retryable.
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", ErrValidation, truncate(body))
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, truncate(body))
	case resp.StatusCode == http.StatusConflict:
		return nil, fmt.Errorf("%w: %s", ErrConflict, truncate(body))
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		return nil, fmt.Errorf("%w: rate limited (429), retry after: %s", ErrThrottled, retryAfter)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: http %d: %s", ErrUnavailable, resp.StatusCode, truncate(body))
	default:
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, truncate(body))
	}
}

func truncate(body []byte) string {
	const maxLen = 512
	if len(body) > maxLen {
		return string(body[:maxLen]) + "..."
	}
	return string(body)
}
