package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	platformhttp "github.com/tradeplusonline/accessbot/internal/platform/http"
	"github.com/tradeplusonline/accessbot/models"
)

// Client is the Binance spot market data client. The price endpoint is
// public, no API key required.
type Client struct {
	baseURL    string
	httpClient *platformhttp.Client
	logger     zerolog.Logger
}

// NewClient creates a new Binance API client
func NewClient(requestTimeout time.Duration) *Client {
	if requestTimeout == 0 {
		requestTimeout = 30 * time.Second
	}

	return &Client{
		baseURL:    "https://api.binance.com",
		httpClient: platformhttp.NewClient(platformhttp.ClientOptions{Timeout: requestTimeout}),
		logger:     log.With().Str("component", "binance_client").Logger(),
	}
}

// TickerPrice fetches the latest spot price for one symbol, e.g. "BTCUSDT".
func (c *Client) TickerPrice(ctx context.Context, symbol string) (*models.TickerPrice, error) {
	reqURL := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", c.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetching ticker price: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading ticker response: %w", err)
	}

	var price models.TickerPrice
	if err := json.Unmarshal(body, &price); err != nil {
		return nil, fmt.Errorf("parsing ticker response: %w", err)
	}

	c.logger.Debug().Str("symbol", symbol).Str("price", price.Price).Msg("Fetched ticker price")
	return &price, nil
}

// TickerPrices fetches prices for several symbols, skipping symbols that
// fail individually.
func (c *Client) TickerPrices(ctx context.Context, symbols []string) ([]models.TickerPrice, error) {
	var prices []models.TickerPrice
	for _, symbol := range symbols {
		price, err := c.TickerPrice(ctx, symbol)
		if err != nil {
			c.logger.Warn().Err(err).Str("symbol", symbol).Msg("Skipping symbol")
			continue
		}
		prices = append(prices, *price)
	}

	if len(prices) == 0 && len(symbols) > 0 {
		return nil, fmt.Errorf("no prices available")
	}
	return prices, nil
}
