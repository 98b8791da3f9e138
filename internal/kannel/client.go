package kannel

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	units "github.com/docker/go-units"
	"github.com/pkg/errors"
)

// ErrBodyTooLarge is returned when the status page exceeds the size limit.
var ErrBodyTooLarge = errors.New("response body too large")

// Client fetches status pages from a gateway.
type Client struct {
	httpClient  *http.Client
	maxBodySize int64
}

// Response is a fetched status page.
type Response struct {
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// NewClient creates a client that gives up after timeout and refuses bodies
// larger than maxBodySize bytes.
func NewClient(timeout time.Duration, maxBodySize int64) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		maxBodySize: maxBodySize,
	}
}

// Fetch performs one GET of statusURL. A non-nil error is a transport
// failure. Any HTTP status is accepted since the gateway reports denial in
// the body; the error text never contains the URL, which carries the
// password.
func (c *Client) Fetch(ctx context.Context, statusURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, errors.Wrap(stripURL(err), "create request")
	}
	req.Header.Set("User-Agent", "check-kannel")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, stripURL(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	duration := time.Since(start)
	if err != nil {
		return nil, errors.Wrap(stripURL(err), "read response")
	}
	if int64(len(body)) > c.maxBodySize {
		return nil, errors.Wrapf(ErrBodyTooLarge, "limit is %s", units.BytesSize(float64(c.maxBodySize)))
	}

	slog.Debug("status page fetched",
		"http_status", resp.StatusCode,
		"size", units.HumanSize(float64(len(body))),
		"duration_ms", duration.Milliseconds(),
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Duration:   duration,
	}, nil
}

func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
