package models

import "time"

// Record is one observation of one product on one scrape date.
// ScrapeDate carries no time-of-day component (UTC midnight).
type Record struct {
	ProductName string    `json:"product_name"`
	Brand       string    `json:"brand"`
	Price       float64   `json:"price"`
	ScrapeDate  time.Time `json:"scrape_date"`
}

// Table is the canonical per-session dataset. Filters and views derive new
// tables from it; the loaded table itself is never mutated.
type Table []Record

type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// TrackerSummary is the per-product view: latest price, recorded extremes
// and the full price series for charting.
type TrackerSummary struct {
	ProductName  string       `json:"product_name"`
	CurrentPrice float64      `json:"current_price"`
	MinPrice     float64      `json:"min_price"`
	MinPriceDate time.Time    `json:"min_price_date"`
	MaxPrice     float64      `json:"max_price"`
	MaxPriceDate time.Time    `json:"max_price_date"`
	Series       []PricePoint `json:"series"`
}

type AddedProduct struct {
	ProductName string    `json:"product_name"`
	FirstDate   time.Time `json:"first_date"`
	FirstPrice  float64   `json:"first_price"`
	RecentPrice float64   `json:"recent_price"`
}

type RemovedProduct struct {
	ProductName  string    `json:"product_name"`
	LastSeenDate time.Time `json:"last_seen_date"`
	LastPrice    float64   `json:"last_price"`
}

type ProductDiff struct {
	Added   []AddedProduct   `json:"added"`
	Removed []RemovedProduct `json:"removed"`
}

type PriceChange struct {
	ProductName   string  `json:"product_name"`
	StartPrice    float64 `json:"start_price"`
	EndPrice      float64 `json:"end_price"`
	PercentChange float64 `json:"percent_change"`
}

// Date truncates t to a calendar date at UTC midnight.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateString formats a calendar date for display and JSON table output.
func DateString(t time.Time) string {
	return t.Format("2006-01-02")
}
