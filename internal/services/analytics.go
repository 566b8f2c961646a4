package services

import (
	"log/slog"
	"sync"
	"time"

	"pricewatch/internal/models"
)

// Analytics holds the canonical loaded table as session-lifetime, read-only
// shared state. Every view recomputes from it; filters derive new tables and
// never touch the original.
type Analytics struct {
	mu       sync.RWMutex
	table    models.Table
	loadedAt time.Time
	logger   *slog.Logger
}

func NewAnalytics() *Analytics {
	return &Analytics{
		table:  models.Table{},
		logger: slog.Default(),
	}
}

// SetTable installs a freshly loaded table as the canonical dataset.
func (a *Analytics) SetTable(table models.Table) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.table = table
	a.loadedAt = time.Now()
}

// Table returns the canonical table. Callers must treat it as read-only.
func (a *Analytics) Table() models.Table {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.table
}

// Query narrows the canonical table for one request. Nil bounds and a nil
// brand list mean "no restriction"; an empty (non-nil) brand list matches
// nothing, per the filter contract.
type Query struct {
	MinPrice *float64
	MaxPrice *float64
	Brands   []string
}

// View applies the query's filters to the canonical table and returns the
// derived table.
func (a *Analytics) View(q Query) models.Table {
	table := a.Table()

	if q.MinPrice != nil || q.MaxPrice != nil {
		min, max := minObservable, maxObservable
		if q.MinPrice != nil {
			min = *q.MinPrice
		}
		if q.MaxPrice != nil {
			max = *q.MaxPrice
		}
		table = FilterByPriceRange(table, min, max)
	}

	if q.Brands != nil {
		table = FilterByBrands(table, q.Brands)
	}

	return table
}

// Open bounds for one-sided price queries.
const (
	minObservable float64 = 0
	maxObservable float64 = 1e18
)

// ProductNames returns unique product names in first-appearance order.
func (a *Analytics) ProductNames() []string {
	return uniqueNames(a.Table())
}

// BrandNames returns unique brands in first-appearance order.
func (a *Analytics) BrandNames() []string {
	table := a.Table()
	seen := make(map[string]bool, len(table))
	brands := make([]string, 0)
	for _, r := range table {
		if r.Brand != "" && !seen[r.Brand] {
			seen[r.Brand] = true
			brands = append(brands, r.Brand)
		}
	}
	return brands
}

// PriceBounds reports the observed min and max price. ok is false for an
// empty table.
func (a *Analytics) PriceBounds() (min, max float64, ok bool) {
	table := a.Table()
	if len(table) == 0 {
		return 0, 0, false
	}

	min, max = table[0].Price, table[0].Price
	for _, r := range table[1:] {
		if r.Price < min {
			min = r.Price
		}
		if r.Price > max {
			max = r.Price
		}
	}
	return min, max, true
}

// DateBounds reports the observed scrape date span.
func (a *Analytics) DateBounds() (start, end time.Time, ok bool) {
	table := a.Table()
	if len(table) == 0 {
		return time.Time{}, time.Time{}, false
	}

	start, end = table[0].ScrapeDate, table[0].ScrapeDate
	for _, r := range table[1:] {
		if r.ScrapeDate.Before(start) {
			start = r.ScrapeDate
		}
		if r.ScrapeDate.After(end) {
			end = r.ScrapeDate
		}
	}
	return start, end, true
}

// Stats summarizes the loaded dataset for the admin endpoint.
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	table := a.table
	loadedAt := a.loadedAt
	a.mu.RUnlock()

	stats := map[string]any{
		"record_count": len(table),
		"products":     len(uniqueNames(table)),
		"loaded_at":    loadedAt,
	}

	brands := make(map[string]bool)
	for _, r := range table {
		if r.Brand != "" {
			brands[r.Brand] = true
		}
	}
	stats["brands"] = len(brands)

	if len(table) > 0 {
		start, end := table[0].ScrapeDate, table[0].ScrapeDate
		for _, r := range table[1:] {
			if r.ScrapeDate.Before(start) {
				start = r.ScrapeDate
			}
			if r.ScrapeDate.After(end) {
				end = r.ScrapeDate
			}
		}
		stats["first_scrape"] = models.DateString(start)
		stats["last_scrape"] = models.DateString(end)
	}

	return stats
}
