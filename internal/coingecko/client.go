// Package coingecko is a small client for the public CoinGecko v3 API.
package coingecko

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mwiater/toolhost/internal/adapter"
)

// DefaultTimeout bounds each CoinGecko request.
const DefaultTimeout = 15 * time.Second

// Currencies are the quote currencies requested for every price lookup.
var Currencies = []string{"usd", "eur"}

// Coin is one search hit.
type Coin struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank *int   `json:"market_cap_rank"`
}

// Quote is the price data for one coin. Fields are nil when CoinGecko
// omits them.
type Quote struct {
	USD          *float64 `json:"usd"`
	EUR          *float64 `json:"eur"`
	USD24hChange *float64 `json:"usd_24h_change"`
	USDMarketCap *float64 `json:"usd_market_cap"`
}

// Priced reports whether the quote carries a price in at least one currency.
func (q Quote) Priced() bool {
	return q.USD != nil || q.EUR != nil
}

// Config configures a Client.
type Config struct {
	URL        string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client queries CoinGecko.
type Client struct {
	api     *adapter.Client
	timeout time.Duration
}

// New returns a client for cfg.URL.
func New(cfg Config) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	api, err := adapter.New(adapter.Config{
		Name:       "coingecko",
		BaseURL:    cfg.URL,
		Timeout:    timeout,
		UserAgent:  "toolhost",
		HTTPClient: cfg.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("coingecko: %w", err)
	}
	return &Client{api: api, timeout: timeout}, nil
}

// Search returns coins matching query, in CoinGecko's relevance order.
func (c *Client) Search(ctx context.Context, query string) ([]Coin, error) {
	var out struct {
		Coins []Coin `json:"coins"`
	}
	q := url.Values{"query": {query}}
	if err := c.api.GetJSON(ctx, "/search", q, c.timeout, &out); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return out.Coins, nil
}

// SimplePrice returns the quote for each requested coin id. Ids CoinGecko
// does not know are absent from the map.
func (c *Client) SimplePrice(ctx context.Context, ids ...string) (map[string]Quote, error) {
	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", strings.Join(Currencies, ","))
	q.Set("include_24hr_change", "true")
	q.Set("include_market_cap", "true")

	out := map[string]Quote{}
	if err := c.api.GetJSON(ctx, "/simple/price", q, c.timeout, &out); err != nil {
		return nil, fmt.Errorf("price of %s: %w", strings.Join(ids, ","), err)
	}
	return out, nil
}
