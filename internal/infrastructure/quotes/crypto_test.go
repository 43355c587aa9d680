package quotes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"FeedCollector/internal/domain"
	"FeedCollector/internal/source"
)

func TestCryptoSourceExecute(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{}
		for key := range r.URL.Query() {
			query[key] = r.URL.Query().Get(key)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"ethereum": map[string]any{
				"usd":            3200.5,
				"usd_market_cap": 385000000000.0,
				"usd_24h_vol":    12000000000.0,
				"usd_24h_change": -1.25,
			},
		})
	}))
	defer srv.Close()

	src, err := NewCryptoSource(source.Config{Name: "crypto", URL: srv.URL, Symbol: "ethereum"}, srv.Client())
	assert.Equal(t, nil, err)

	items := source.Execute(context.Background(), src, nil)
	assert.Equal(t, 1, len(items))

	item := items[0]
	assert.Equal(t, domain.KindCryptoPrice, item.Kind)
	assert.Equal(t, "ethereum", item.Origin)
	assert.Equal(t, 3200.5, item.PriceUSD)
	assert.Equal(t, 385000000000.0, item.MarketCap)
	assert.Equal(t, 12000000000.0, item.Volume24h)
	assert.Equal(t, -1.25, item.Change24h)
	assert.Equal(t, "ETHEREUM price", item.Title)

	assert.Equal(t, "ethereum", query["ids"])
	assert.Equal(t, "usd", query["vs_currencies"])
	assert.Equal(t, "true", query["include_24hr_change"])
}

func TestCryptoSourceMissingCoin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"dogecoin": {"usd": 0.1}}`))
	}))
	defer srv.Close()

	src, err := NewCryptoSource(source.Config{Name: "crypto", URL: srv.URL}, srv.Client())
	assert.Equal(t, nil, err)

	records, err := src.Fetch(context.Background())
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(records))
}

func TestCryptoSourceMalformedNumber(t *testing.T) {
	src, err := NewCryptoSource(source.Config{Name: "crypto"}, nil)
	assert.Equal(t, nil, err)

	_, err = src.Normalize(domain.RawRecord{
		"price_usd":      "not-a-number",
		"market_cap_usd": 1.0,
		"volume_24h":     1.0,
		"change_24h":     1.0,
	}, time.Now())
	assert.NotEqual(t, nil, err)

	_, err = src.Normalize(domain.RawRecord{"price_usd": 1.0}, time.Now())
	assert.NotEqual(t, nil, err)

	items := source.Process(src, []domain.RawRecord{{"price_usd": nil}}, time.Now(), nil)
	assert.Equal(t, 0, len(items))
}

func TestCryptoSourceStringNumbers(t *testing.T) {
	src, err := NewCryptoSource(source.Config{Name: "crypto", Symbol: "bitcoin"}, nil)
	assert.Equal(t, nil, err)

	item, err := src.Normalize(domain.RawRecord{
		"price_usd":      "64000.10",
		"market_cap_usd": 0.0,
		"volume_24h":     "100",
		"change_24h":     2,
	}, time.Now())
	assert.Equal(t, nil, err)
	assert.Equal(t, 64000.10, item.PriceUSD)
	assert.Equal(t, 100.0, item.Volume24h)
	assert.Equal(t, 2.0, item.Change24h)
}

func TestCryptoSourceHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	src, err := NewCryptoSource(source.Config{Name: "crypto", URL: srv.URL}, srv.Client())
	assert.Equal(t, nil, err)

	_, err = src.Fetch(context.Background())
	assert.NotEqual(t, nil, err)
	assert.Equal(t, 0, len(source.Execute(context.Background(), src, nil)))
}
