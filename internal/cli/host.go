package toolhost

import (
	"context"
	"errors"
	"fmt"

	"github.com/mwiater/toolhost/internal/appconfig"
	"github.com/mwiater/toolhost/internal/coingecko"
	"github.com/mwiater/toolhost/internal/dispatch"
	"github.com/mwiater/toolhost/internal/n8n"
	"github.com/mwiater/toolhost/internal/telemetry"
	"github.com/mwiater/toolhost/internal/tools"
)

// host is a dispatcher plus the telemetry providers observing it.
type host struct {
	dispatcher *dispatch.Dispatcher
	telemetry  *telemetry.Providers
}

// Close flushes telemetry.
func (h *host) Close(ctx context.Context) error {
	return h.telemetry.Shutdown(ctx)
}

// buildHost wires the tools of the configured profile into a dispatcher.
// transport labels telemetry records.
func buildHost(ctx context.Context, cfg *appconfig.Config, transport string) (*host, error) {
	if cfg == nil {
		return nil, errors.New("configuration is not initialized")
	}

	workflows, err := n8n.New(n8n.Config{
		URL:     cfg.N8N.URL,
		APIKey:  cfg.N8N.APIKey,
		Timeout: cfg.N8NTimeout(),
	})
	if err != nil {
		return nil, err
	}
	prices, err := coingecko.New(coingecko.Config{
		URL:     cfg.CoinGecko.URL,
		Timeout: cfg.CoinGeckoTimeout(),
	})
	if err != nil {
		return nil, err
	}

	reg := dispatch.NewRegistry()
	if err := tools.Register(reg, cfg.ProfileName(), tools.Deps{
		Workflows: workflows,
		Prices:    prices,
		Version:   appVersion,
	}); err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}

	providers, err := telemetry.Setup(ctx, telemetry.Config{
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		Version:      appVersion,
		Transport:    transport,
	})
	if err != nil {
		return nil, err
	}

	return &host{
		dispatcher: dispatch.New(reg, dispatch.WithObserver(providers.Observer)),
		telemetry:  providers,
	}, nil
}
