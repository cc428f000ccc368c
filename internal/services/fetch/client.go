package fetch

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/j-veylop/quota-watch-tui/internal/logger"
)

// Payload is one raw snapshot body with its fetch time.
type Payload struct {
	Body []byte
	At   time.Time
}

// Source produces raw snapshot bodies. Implemented by the HTTP client
// and the local file source.
type Source interface {
	Fetch(ctx context.Context) (*Payload, error)
	// Location identifies the source for error messages and the footer.
	Location() string
}

// Client fetches snapshots from the account-limits endpoint.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates an HTTP source for the given URL with a bounded
// per-request timeout.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Location returns the endpoint URL.
func (c *Client) Location() string {
	return c.url
}

// Fetch performs one GET against the endpoint and classifies failures.
// The context bounds the request in addition to the client timeout so
// shutdown does not wait for a slow endpoint.
func (c *Client) Fetch(ctx context.Context) (*Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &Error{Kind: KindUnreachable, Source: c.url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindUnreachable, Source: c.url, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindUnreachable, Source: c.url, Detail: "reading response body", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindStatus, Source: c.url, Detail: resp.Status, Body: body}
	}

	contentType := resp.Header.Get("Content-Type")
	if isJSONContentType(contentType) {
		if !json.Valid(body) {
			return nil, &Error{Kind: KindDecode, Source: c.url, Detail: "body is not valid JSON", Body: body}
		}
	} else if !json.Valid(body) {
		// Not declared JSON and not parseable as JSON: the caller is
		// probably pointed at the wrong endpoint.
		if contentType == "" {
			contentType = "no content type"
		}
		return nil, &Error{Kind: KindContentType, Source: c.url, Detail: contentType, Body: body}
	}

	return &Payload{Body: body, At: time.Now()}, nil
}

// isJSONContentType accepts application/json, the +json structured
// suffixes, and text/json.
func isJSONContentType(value string) bool {
	if value == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return false
	}
	if mediaType == "application/json" || mediaType == "text/json" {
		return true
	}
	return strings.HasSuffix(mediaType, "+json")
}
