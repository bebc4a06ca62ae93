package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/mwiater/toolhost/internal/coingecko"
	"github.com/mwiater/toolhost/internal/dispatch"
)

func cryptoPriceTool(api PriceAPI) dispatch.Tool {
	return dispatch.Tool{
		Descriptor: dispatch.Descriptor{
			Name:        CryptoPriceName,
			Description: "Get the current price of any cryptocurrency, found by name or ticker through CoinGecko search.",
			InputSchema: dispatch.Object(map[string]dispatch.Property{
				"crypto": {Type: "string", Description: "Name or ticker as typed by the user, e.g. bitcoin or ETH"},
			}, "crypto"),
		},
		Handler: func(ctx context.Context, args dispatch.Arguments) ([]dispatch.Content, error) {
			return cryptoPrice(ctx, api, args)
		},
	}
}

// cryptoPrice resolves the query with a search and prices the first hit.
// The first hit is whatever CoinGecko ranks first; no local re-ranking.
func cryptoPrice(ctx context.Context, api PriceAPI, args dispatch.Arguments) ([]dispatch.Content, error) {
	query, err := requiredString(args, "crypto")
	if err != nil {
		return nil, err
	}

	coins, err := api.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(coins) == 0 {
		return nil, dispatch.NotFound("no cryptocurrency matches %q", query)
	}
	coin := coins[0]

	quotes, err := api.SimplePrice(ctx, coin.ID)
	if err != nil {
		return nil, err
	}
	quote, ok := quotes[coin.ID]
	if !ok || !quote.Priced() {
		return nil, dispatch.NotFound("no price data for %q", coin.ID)
	}

	return []dispatch.Content{dispatch.Text(formatQuote(coin, quote))}, nil
}

func formatQuote(coin coingecko.Coin, q coingecko.Quote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s (%s)**\n\n", coin.Name, strings.ToUpper(coin.Symbol))
	fmt.Fprintf(&b, "USD: %s\n", money("$", q.USD))
	fmt.Fprintf(&b, "EUR: %s\n", money("€", q.EUR))
	fmt.Fprintf(&b, "24h: %s\n", change(q.USD24hChange))
	fmt.Fprintf(&b, "Market Cap: %s\n\n", marketCap(q.USDMarketCap))
	b.WriteString("Source: CoinGecko API")
	return b.String()
}

const unavailable = "n/a"

// formatPrice groups thousands for prices of at least one unit and keeps
// full precision below that, where two decimals would erase the value.
func formatPrice(v float64) string {
	if v >= 1 || v <= -1 {
		return humanize.CommafWithDigits(v, 2)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func money(symbol string, v *float64) string {
	if v == nil {
		return unavailable
	}
	return symbol + formatPrice(*v)
}

func change(v *float64) string {
	if v == nil {
		return unavailable
	}
	if *v >= 0 {
		return fmt.Sprintf("▲ +%.2f%%", *v)
	}
	return fmt.Sprintf("▼ %.2f%%", *v)
}

func marketCap(v *float64) string {
	if v == nil {
		return unavailable
	}
	return fmt.Sprintf("$%.2fB", *v/1e9)
}
