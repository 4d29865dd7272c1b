package cryptopanic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	platformhttp "github.com/tradeplusonline/accessbot/internal/platform/http"
	"github.com/tradeplusonline/accessbot/models"
)

// Client is the CryptoPanic API client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *platformhttp.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new CryptoPanic client
type ClientOptions struct {
	APIKey         string
	RequestTimeout time.Duration
}

// NewClient creates a new CryptoPanic API client
func NewClient(options ClientOptions) *Client {
	if options.RequestTimeout == 0 {
		options.RequestTimeout = 30 * time.Second
	}

	return &Client{
		apiKey:     options.APIKey,
		baseURL:    "https://cryptopanic.com/api/developer/v2",
		httpClient: platformhttp.NewClient(platformhttp.ClientOptions{Timeout: options.RequestTimeout}),
		logger:     log.With().Str("component", "cryptopanic_client").Logger(),
	}
}

// LatestNews fetches the most recent news posts, at most limit of them.
func (c *Client) LatestNews(ctx context.Context, limit int) ([]models.NewsPost, error) {
	params := url.Values{}
	params.Set("auth_token", c.apiKey)
	params.Set("public", "true")
	params.Set("kind", "news")

	reqURL := fmt.Sprintf("%s/posts/?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetching news: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading news response: %w", err)
	}

	var parsed models.CryptoPanicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing news response: %w", err)
	}

	posts := parsed.Results
	if len(posts) > limit {
		posts = posts[:limit]
	}

	c.logger.Debug().Int("count", len(posts)).Msg("Fetched news posts")
	return posts, nil
}
