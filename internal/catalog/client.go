package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/game-catalog/pkg/models"
	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"
)

// Default catalog feeds: top Android and iOS apps
var DefaultURLs = []string{
	"https://interview-marketing-eng-dev.s3.eu-west-1.amazonaws.com/android.top100.json",
	"https://interview-marketing-eng-dev.s3.eu-west-1.amazonaws.com/ios.top100.json",
}

// Record is one app entry of a remote catalog feed
type Record struct {
	AppID       *models.FlexString `json:"app_id"`
	PublisherID *models.FlexString `json:"publisher_id"`
	Name        *string            `json:"name"`
	OS          *string            `json:"os"`
	BundleID    *string            `json:"bundle_id"`
	Version     *string            `json:"version"`
	ReleaseDate *string            `json:"release_date"`
	UpdatedDate *string            `json:"updated_date"`
}

// Client downloads catalog feeds
type Client struct {
	http *resty.Client
}

// NewClient creates a catalog client. A zero timeout disables the client-side deadline.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetRetryCount(0).
			SetHeader("Accept", "application/json").
			SetHeader("User-Agent", "game-catalog/1.0"),
	}
}

// Fetch downloads one feed, buffering the whole body before decoding it
func (c *Client) Fetch(ctx context.Context, url string) ([]Record, error) {
	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("catalog error: url=%s status=%d body=%s", url, resp.StatusCode(), truncate(resp.String(), 200))
	}

	var records []Record
	if err := json.Unmarshal(resp.Body(), &records); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", url, err)
	}

	return records, nil
}

// FetchAll downloads every feed concurrently and concatenates the results in url order.
// The first failure cancels the remaining downloads and is returned.
func (c *Client) FetchAll(ctx context.Context, urls ...string) ([]Record, error) {
	results := make([][]Record, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	for i, url := range urls {
		i, url := i, url
		g.Go(func() error {
			records, err := c.Fetch(gctx, url)
			if err != nil {
				return err
			}
			results[i] = records
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}

	all := make([]Record, 0, total)
	for _, r := range results {
		all = append(all, r...)
	}

	return all, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
