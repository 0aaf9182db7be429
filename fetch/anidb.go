package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/poiesic/anirag/core"
)

const defaultFetchTimeout = 30 * time.Second

// AniDBClient fetches show metadata from an AniDB gateway service over
// HTTP. The gateway answers GET {base}/anime?title=... with a JSON
// document in AniDB's field layout.
type AniDBClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures an AniDBClient.
type Option func(*AniDBClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *AniDBClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout.
// Default is 30 seconds.
func WithTimeout(timeout time.Duration) Option {
	return func(c *AniDBClient) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *AniDBClient) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// NewAniDBClient creates a client for the gateway at baseURL.
func NewAniDBClient(baseURL string, opts ...Option) (*AniDBClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: empty base URL", ErrUnavailable)
	}

	c := &AniDBClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultFetchTimeout},
		logger:     slog.Default().With("component", "anidb-fetcher"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchByTitle retrieves the metadata record for a show title.
func (c *AniDBClient) FetchByTitle(ctx context.Context, title string) (*core.ShowRecord, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: empty title", ErrNotFound)
	}

	reqURL := fmt.Sprintf("%s/anime?title=%s", c.baseURL, url.QueryEscape(title))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %q", ErrNotFound, title)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	record, err := ParseAniDBResponse(body)
	if err != nil {
		return nil, err
	}

	c.logger.Info("fetched show metadata", "title", record.TitleMain, "anidb_id", record.AniDBID)
	return record, nil
}

var _ Client = (*AniDBClient)(nil)
