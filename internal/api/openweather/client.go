package openweather

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

// Client is the OpenWeather API client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *platformhttp.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new OpenWeather client
type ClientOptions struct {
	APIKey         string
	RequestTimeout time.Duration
}

// NewClient creates a new OpenWeather API client
func NewClient(options ClientOptions) *Client {
	if options.RequestTimeout == 0 {
		options.RequestTimeout = 30 * time.Second
	}

	return &Client{
		apiKey:     options.APIKey,
		baseURL:    "https://api.openweathermap.org/data/2.5",
		httpClient: platformhttp.NewClient(platformhttp.ClientOptions{Timeout: options.RequestTimeout}),
		logger:     log.With().Str("component", "openweather_client").Logger(),
	}
}

// CurrentWeather fetches the current weather for a city.
func (c *Client) CurrentWeather(ctx context.Context, city string) (*models.WeatherReport, error) {
	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	reqURL := fmt.Sprintf("%s/weather?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetching weather: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading weather response: %w", err)
	}

	var report models.WeatherReport
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("parsing weather response: %w", err)
	}

	c.logger.Debug().Str("city", city).Msg("Fetched weather report")
	return &report, nil
}
