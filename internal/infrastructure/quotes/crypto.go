package quotes

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"FeedCollector/internal/domain"
	"FeedCollector/internal/source"
)

const (
	coinGeckoURL  = "https://api.coingecko.com/api/v3/simple/price"
	defaultCoinID = "bitcoin"
)

// CryptoSource reads a single CoinGecko simple/price quote.
type CryptoSource struct {
	name   string
	url    string
	coinID string
	params url.Values
	client *http.Client
}

var _ source.Source = (*CryptoSource)(nil)

// NewCryptoSource applies CoinGecko defaults; cfg.Params override the query.
func NewCryptoSource(cfg source.Config, client *http.Client) (*CryptoSource, error) {
	endpoint := strings.TrimSpace(cfg.URL)
	if endpoint == "" {
		endpoint = coinGeckoURL
	}
	coinID := strings.TrimSpace(cfg.Symbol)
	if coinID == "" {
		coinID = defaultCoinID
	}

	params := url.Values{}
	params.Set("ids", coinID)
	params.Set("vs_currencies", "usd")
	params.Set("include_market_cap", "true")
	params.Set("include_24hr_vol", "true")
	params.Set("include_24hr_change", "true")
	for key, value := range cfg.Params {
		params.Set(key, value)
	}
	if ids := params.Get("ids"); ids != "" {
		coinID = ids
	}
	if cfg.APIKey != "" {
		params.Set("x_cg_demo_api_key", cfg.APIKey)
	}

	return &CryptoSource{
		name:   cfg.Name,
		url:    endpoint,
		coinID: coinID,
		params: params,
		client: defaultClient(client),
	}, nil
}

// Name identifies the source inside the collection envelope.
func (c *CryptoSource) Name() string {
	return c.name
}

// Fetch returns one raw quote record, or none when the coin is absent from the response.
func (c *CryptoSource) Fetch(ctx context.Context) ([]domain.RawRecord, error) {
	var payload map[string]map[string]any
	if err := getJSON(ctx, c.client, c.url, c.params, &payload); err != nil {
		return nil, fmt.Errorf("coingecko %s: %w", c.coinID, err)
	}

	quote, ok := payload[c.coinID]
	if !ok {
		return nil, nil
	}

	record := domain.RawRecord{
		"price_usd":      quote["usd"],
		"market_cap_usd": orZero(quote["usd_market_cap"]),
		"volume_24h":     orZero(quote["usd_24h_vol"]),
		"change_24h":     orZero(quote["usd_24h_change"]),
	}
	return []domain.RawRecord{record}, nil
}

// Normalize coerces every numeric field to float64; any bad field drops the record.
func (c *CryptoSource) Normalize(record domain.RawRecord, collectedAt time.Time) (domain.Item, error) {
	price, err := floatField(record, "price_usd")
	if err != nil {
		return domain.Item{}, err
	}
	marketCap, err := floatField(record, "market_cap_usd")
	if err != nil {
		return domain.Item{}, err
	}
	volume, err := floatField(record, "volume_24h")
	if err != nil {
		return domain.Item{}, err
	}
	change, err := floatField(record, "change_24h")
	if err != nil {
		return domain.Item{}, err
	}

	return domain.Item{
		Kind:   domain.KindCryptoPrice,
		Origin: c.coinID,
		Symbol: c.coinID,
		Title:  fmt.Sprintf("%s price", strings.ToUpper(c.coinID)),
		Description: fmt.Sprintf("Price %.2f USD, market cap %.0f USD, 24h volume %.0f USD, 24h change %.2f%%",
			price, marketCap, volume, change),
		CollectedAt: collectedAt,
		CryptoQuote: &domain.CryptoQuote{
			PriceUSD:  price,
			MarketCap: marketCap,
			Volume24h: volume,
			Change24h: change,
		},
	}, nil
}

func orZero(v any) any {
	if v == nil {
		return 0.0
	}
	return v
}
