package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"FeedCollector/internal/config"
	"FeedCollector/internal/infrastructure/parser"
	"FeedCollector/internal/infrastructure/quotes"
	"FeedCollector/internal/source"
)

// Source types recognized in configuration.
const (
	SourceRSS    = "rss"
	SourceArxiv  = "arxiv"
	SourceCrypto = "crypto"
	SourceStock  = "stock"
)

// NewRegistry registers every built-in source type. client may be nil, in
// which case each source uses its own default timeout.
func NewRegistry(client *http.Client) *source.Registry {
	reg := source.NewRegistry()
	reg.Register(SourceRSS, func(cfg source.Config) (source.Source, error) {
		return parser.NewNewsSource(cfg, client)
	})
	reg.Register(SourceArxiv, func(cfg source.Config) (source.Source, error) {
		return parser.NewArxivSource(cfg, client)
	})
	reg.Register(SourceCrypto, func(cfg source.Config) (source.Source, error) {
		return quotes.NewCryptoSource(cfg, client)
	})
	reg.Register(SourceStock, func(cfg source.Config) (source.Source, error) {
		return quotes.NewStockSource(cfg, client)
	})
	return reg
}

// BuildSources resolves every configured source through the registry. A
// misconfigured source fails the whole build so the run never starts.
func BuildSources(reg *source.Registry, cfgs []config.SourceConfig, logger *slog.Logger) ([]source.Source, error) {
	if reg == nil {
		return nil, fmt.Errorf("source registry is not configured")
	}

	sources := make([]source.Source, 0, len(cfgs))
	for _, sc := range cfgs {
		src, err := reg.Build(source.Config{
			Name:   sc.Name,
			Type:   sc.Type,
			URL:    sc.URL,
			Symbol: sc.Symbol,
			APIKey: sc.APIKey,
			Params: sc.Params,
		})
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", sc.Name, err)
		}
		if logger != nil {
			logger.Debug("source configured", "source", sc.Name, "type", sc.Type)
		}
		sources = append(sources, src)
	}
	return sources, nil
}
