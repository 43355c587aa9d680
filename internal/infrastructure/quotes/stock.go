package quotes

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"FeedCollector/internal/domain"
	"FeedCollector/internal/source"
)

const (
	alphaVantageURL = "https://www.alphavantage.co/query"
	globalQuoteKey  = "Global Quote"
)

// StockSource reads an Alpha Vantage GLOBAL_QUOTE.
type StockSource struct {
	name   string
	url    string
	symbol string
	apiKey string
	client *http.Client
}

var _ source.Source = (*StockSource)(nil)

// NewStockSource requires a ticker symbol.
func NewStockSource(cfg source.Config, client *http.Client) (*StockSource, error) {
	symbol := strings.TrimSpace(cfg.Symbol)
	if symbol == "" {
		return nil, fmt.Errorf("stock source %s: symbol is required", cfg.Name)
	}
	endpoint := strings.TrimSpace(cfg.URL)
	if endpoint == "" {
		endpoint = alphaVantageURL
	}

	return &StockSource{
		name:   cfg.Name,
		url:    endpoint,
		symbol: symbol,
		apiKey: cfg.APIKey,
		client: defaultClient(client),
	}, nil
}

// Name identifies the source inside the collection envelope.
func (s *StockSource) Name() string {
	return s.name
}

// Fetch returns the raw quote response as a single record.
func (s *StockSource) Fetch(ctx context.Context) ([]domain.RawRecord, error) {
	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", s.symbol)
	params.Set("apikey", s.apiKey)

	var payload map[string]any
	if err := getJSON(ctx, s.client, s.url, params, &payload); err != nil {
		return nil, fmt.Errorf("alphavantage %s: %w", s.symbol, err)
	}
	return []domain.RawRecord{payload}, nil
}

// Normalize reads the nested quote object. change_percent keeps its string
// form with the percent sign stripped.
func (s *StockSource) Normalize(record domain.RawRecord, collectedAt time.Time) (domain.Item, error) {
	quote, ok := record[globalQuoteKey].(map[string]any)
	if !ok {
		return domain.Item{}, fmt.Errorf("field %s is missing", globalQuoteKey)
	}

	price, err := floatField(quote, "05. price")
	if err != nil {
		return domain.Item{}, err
	}
	rawVolume, err := floatField(quote, "06. volume")
	if err != nil {
		return domain.Item{}, err
	}
	if rawVolume != math.Trunc(rawVolume) {
		return domain.Item{}, fmt.Errorf("field 06. volume: %v is not an integer", rawVolume)
	}
	change, err := stringField(quote, "10. change percent")
	if err != nil {
		return domain.Item{}, err
	}
	change = strings.TrimRight(strings.TrimSpace(change), "%")

	return domain.Item{
		Kind:        domain.KindStockPrice,
		Origin:      s.symbol,
		Symbol:      s.symbol,
		Title:       fmt.Sprintf("%s stock quote", s.symbol),
		Description: fmt.Sprintf("Price %.2f, volume %d, change %s%%", price, int64(rawVolume), change),
		CollectedAt: collectedAt,
		StockQuote: &domain.StockQuote{
			Price:         price,
			Volume:        int64(rawVolume),
			ChangePercent: change,
		},
	}, nil
}
