package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/DIMO-Network/server-garage/pkg/richerrors"
	"github.com/rs/zerolog"
)

const (
	defaultFetchTimeout = 15 * time.Second
	// maxFeedSize bounds how much of the feed document is read.
	maxFeedSize = 1 << 20
	// maxErrorBodySize is how much of a failed response is kept for logging.
	maxErrorBodySize = 512
)

// LatestNews is the latest.json document published with each daily report.
type LatestNews struct {
	Date          string `json:"date"`
	LineContent   string `json:"line_content"`
	NotionContent string `json:"notion_content"`
	WebsiteURL    string `json:"website_url"`
}

// Client fetches the static news feed.
type Client struct {
	feedURL    string
	httpClient *http.Client
}

// New creates a new Client for feedURL. A nil httpClient gets a default with a timeout.
func New(feedURL string, httpClient *http.Client) (*Client, error) {
	parsedURL, err := url.Parse(feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse news feed URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("news feed URL must be absolute: %q", feedURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultFetchTimeout}
	}
	return &Client{
		feedURL:    parsedURL.String(),
		httpClient: httpClient,
	}, nil
}

// FetchLatestNews retrieves the current feed. Every call goes to the network.
func (c *Client) FetchLatestNews(ctx context.Context) (*LatestNews, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create news request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, richerrors.Error{
			Code: http.StatusBadGateway,
			Err:  fmt.Errorf("failed to fetch news feed: %w", err),
		}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, richerrors.Error{
			Code: http.StatusBadGateway,
			Err:  fmt.Errorf("news feed returned status code %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var latest LatestNews
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxFeedSize)).Decode(&latest); err != nil {
		return nil, fmt.Errorf("failed to decode news feed: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("date", latest.Date).
		Int("line_content_length", len(latest.LineContent)).
		Msg("Fetched latest news")

	return &latest, nil
}
