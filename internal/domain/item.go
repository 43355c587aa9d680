package domain

import "time"

// Kind tags the origin family of an item; downstream stages key behavior off it.
type Kind string

const (
	KindNews          Kind = "news"
	KindCryptoPrice   Kind = "crypto_price"
	KindStockPrice    Kind = "stock_price"
	KindMasterSummary Kind = "master_summary"
)

// AllSources is the origin of the synthetic master summary item.
const AllSources = "all_sources"

// RawRecord is an origin-specific record produced by a source fetch.
type RawRecord map[string]any

// Item is the normalized record shared by every source.
type Item struct {
	Kind              Kind       `json:"type"`
	Origin            string     `json:"source"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Symbol            string     `json:"symbol,omitempty"`
	Link              string     `json:"link,omitempty"`
	PubDate           string     `json:"pub_date,omitempty"`
	CollectedAt       time.Time  `json:"collected_at"`
	IndividualSummary string     `json:"individual_summary,omitempty"`
	EnrichedAt        *time.Time `json:"enriched_at,omitempty"`

	*StockQuote
	*CryptoQuote
	*SummaryStats
}

// HasSummary reports whether enrichment attached a summary.
func (i Item) HasSummary() bool {
	return i.IndividualSummary != ""
}

// StockQuote holds stock_price fields. ChangePercent stays a string with the
// percent sign stripped; it is a display value and is never re-parsed.
type StockQuote struct {
	Price         float64 `json:"price"`
	Volume        int64   `json:"volume"`
	ChangePercent string  `json:"change_percent"`
}

// CryptoQuote holds crypto_price fields.
type CryptoQuote struct {
	PriceUSD  float64 `json:"price_usd"`
	MarketCap float64 `json:"market_cap"`
	Volume24h float64 `json:"volume_24h"`
	Change24h float64 `json:"change_24h"`
}

// SummaryStats is attached to the synthetic master_summary item.
type SummaryStats struct {
	SourceCount int      `json:"source_count"`
	TotalItems  int      `json:"total_items"`
	Sources     []string `json:"sources"`
}
