package socrata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/regain-housing-analysis/internal/domain"
)

// Client fetches a dataset from a Socrata SODA resource endpoint.
// It implements pipeline.Source.
type Client struct {
	appToken   string
	httpClient *http.Client
	resource   string
	logger     *slog.Logger
}

// NewClient creates a SODA client for a resource URL such as
// https://internal.open.piercecountywa.gov/resource/qghi-2efp.json. appToken may
// be empty; anonymous requests are throttled but allowed.
func NewClient(resource, appToken string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		appToken: appToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		resource: resource,
		logger:   logger,
	}
}

// Fetch issues one GET for the whole dataset.
func (c *Client) Fetch(ctx context.Context) ([]domain.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resource, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.appToken != "" {
		req.Header.Set("X-App-Token", c.appToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("socrata request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("socrata API error: status %d: %s", resp.StatusCode, body)
	}

	records, err := DecodeRecords(resp.Body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("socrata fetch complete", "resource", c.resource, "records", len(records))
	return records, nil
}
