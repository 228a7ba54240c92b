package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/geoguess-service/internal/domain"
)

// maxDatasetBytes bounds a single dataset download.
const maxDatasetBytes = 64 << 20

// Client implements domain.DatasetFetcher over HTTP GET.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a dataset client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchDataset downloads baseURL/path. 404 and 410 map to domain.ErrDatasetNotFound.
func (c *Client) FetchDataset(ctx context.Context, path string) ([]byte, error) {
	u := c.baseURL + "/" + escapePath(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGone:
		return nil, fmt.Errorf("%s: %w", path, domain.ErrDatasetNotFound)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("dataset server error: %s: status %d: %s", path, resp.StatusCode, body)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDatasetBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) > maxDatasetBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", path, maxDatasetBytes)
	}
	c.logger.Debug("dataset fetched", "path", path, "bytes", len(data))
	return data, nil
}

func escapePath(p string) string {
	segments := strings.Split(strings.TrimLeft(p, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
