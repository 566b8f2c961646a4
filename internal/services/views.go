package services

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"pricewatch/internal/errors"
	"pricewatch/internal/models"
)

// Filter functions derive new tables; the input table is never mutated.

// FilterByPriceRange keeps records with min <= price <= max. Bounds are
// user-supplied; min > max yields an empty table, not an error.
func FilterByPriceRange(table models.Table, min, max float64) models.Table {
	out := make(models.Table, 0, len(table))
	for _, r := range table {
		if r.Price >= min && r.Price <= max {
			out = append(out, r)
		}
	}
	return out
}

// FilterByBrands keeps records whose brand is in brands. An empty brand list
// yields an empty table.
func FilterByBrands(table models.Table, brands []string) models.Table {
	set := make(map[string]bool, len(brands))
	for _, b := range brands {
		set[b] = true
	}

	out := make(models.Table, 0, len(table))
	for _, r := range table {
		if set[r.Brand] {
			out = append(out, r)
		}
	}
	return out
}

// FilterByDateRange keeps records with start <= scrapeDate <= end, inclusive
// on both ends.
func FilterByDateRange(table models.Table, start, end time.Time) models.Table {
	start, end = models.Date(start), models.Date(end)

	out := make(models.Table, 0, len(table))
	for _, r := range table {
		if !r.ScrapeDate.Before(start) && !r.ScrapeDate.After(end) {
			out = append(out, r)
		}
	}
	return out
}

// Track summarizes one product: latest price, recorded extremes and the
// date-ascending price series. The extremum date is taken from the first
// record achieving it when scanning latest-date-first, matching the
// dashboard's historical behavior.
func Track(table models.Table, productName string) (models.TrackerSummary, error) {
	var recs models.Table
	for _, r := range table {
		if r.ProductName == productName {
			recs = append(recs, r)
		}
	}
	if len(recs) == 0 {
		return models.TrackerSummary{}, errors.NoData(fmt.Sprintf("no records for product %q", productName))
	}

	// Stable descending sort keeps input order among equal dates, so the
	// latest-price tie-break stays deterministic.
	desc := slices.Clone(recs)
	slices.SortStableFunc(desc, func(a, b models.Record) int {
		return b.ScrapeDate.Compare(a.ScrapeDate)
	})

	minPrice, maxPrice := desc[0].Price, desc[0].Price
	for _, r := range desc[1:] {
		if r.Price < minPrice {
			minPrice = r.Price
		}
		if r.Price > maxPrice {
			maxPrice = r.Price
		}
	}

	var minDate, maxDate time.Time
	for _, r := range desc {
		if minDate.IsZero() && r.Price == minPrice {
			minDate = r.ScrapeDate
		}
		if maxDate.IsZero() && r.Price == maxPrice {
			maxDate = r.ScrapeDate
		}
	}

	asc := slices.Clone(recs)
	slices.SortStableFunc(asc, func(a, b models.Record) int {
		return a.ScrapeDate.Compare(b.ScrapeDate)
	})
	series := make([]models.PricePoint, len(asc))
	for i, r := range asc {
		series[i] = models.PricePoint{Date: r.ScrapeDate, Price: r.Price}
	}

	return models.TrackerSummary{
		ProductName:  productName,
		CurrentPrice: desc[0].Price,
		MinPrice:     minPrice,
		MinPriceDate: minDate,
		MaxPrice:     maxPrice,
		MaxPriceDate: maxDate,
		Series:       series,
	}, nil
}

// Diff partitions the table at the cutoff date and reports products added
// after it and products gone from the latest scrape.
//
// The removed set is computed against the after-partition's product names,
// not the all-time set. That asymmetry is intentional behavior carried over
// from the production dashboard.
func Diff(table models.Table, cutoff time.Time) models.ProductDiff {
	cutoff = models.Date(cutoff)

	var before, after models.Table
	for _, r := range table {
		if r.ScrapeDate.After(cutoff) {
			after = append(after, r)
		} else {
			before = append(before, r)
		}
	}

	beforeNames := make(map[string]bool, len(before))
	for _, r := range before {
		beforeNames[r.ProductName] = true
	}

	afterNames := uniqueNames(after)

	added := make([]models.AddedProduct, 0)
	for _, name := range afterNames {
		if beforeNames[name] {
			continue
		}
		firstRec, lastRec := firstAndLastByDate(after, name)
		added = append(added, models.AddedProduct{
			ProductName: name,
			FirstDate:   firstRec.ScrapeDate,
			FirstPrice:  firstRec.Price,
			RecentPrice: lastRec.Price,
		})
	}
	slices.SortStableFunc(added, func(a, b models.AddedProduct) int {
		return b.FirstDate.Compare(a.FirstDate)
	})

	var latest time.Time
	for _, r := range table {
		if r.ScrapeDate.After(latest) {
			latest = r.ScrapeDate
		}
	}
	currentNames := make(map[string]bool)
	for _, r := range table {
		if r.ScrapeDate.Equal(latest) {
			currentNames[r.ProductName] = true
		}
	}

	removed := make([]models.RemovedProduct, 0)
	for _, name := range afterNames {
		if currentNames[name] {
			continue
		}
		_, lastRec := firstAndLastByDate(after, name)
		removed = append(removed, models.RemovedProduct{
			ProductName:  name,
			LastSeenDate: lastRec.ScrapeDate,
			LastPrice:    lastRec.Price,
		})
	}

	return models.ProductDiff{Added: added, Removed: removed}
}

// Screen reports products whose price moved by at least threshold percent
// (in either direction) across the date range. Start and end prices are the
// first and last records per product in input order within the range, not
// the chronologically earliest and latest. Products with a zero start price
// have no defined change and are excluded.
func Screen(table models.Table, thresholdPercent float64, start, end time.Time) []models.PriceChange {
	inRange := FilterByDateRange(table, start, end)

	order := make([]string, 0)
	firstPrice := make(map[string]float64)
	lastPrice := make(map[string]float64)
	for _, r := range inRange {
		if _, seen := firstPrice[r.ProductName]; !seen {
			firstPrice[r.ProductName] = r.Price
			order = append(order, r.ProductName)
		}
		lastPrice[r.ProductName] = r.Price
	}

	changes := make([]models.PriceChange, 0, len(order))
	for _, name := range order {
		startP, endP := firstPrice[name], lastPrice[name]
		if startP == 0 {
			continue
		}
		pct := (endP - startP) / startP * 100
		if pct >= thresholdPercent || pct <= -thresholdPercent {
			changes = append(changes, models.PriceChange{
				ProductName:   name,
				StartPrice:    startP,
				EndPrice:      endP,
				PercentChange: pct,
			})
		}
	}

	slices.SortStableFunc(changes, func(a, b models.PriceChange) int {
		if a.PercentChange > b.PercentChange {
			return -1
		}
		if a.PercentChange < b.PercentChange {
			return 1
		}
		return 0
	})
	return changes
}

// FormatPercent renders a percent change with two decimals for display.
// The rounding rule is part of the output contract.
func FormatPercent(pct float64) string {
	return strconv.FormatFloat(pct, 'f', 2, 64)
}

// uniqueNames returns product names in first-appearance order.
func uniqueNames(table models.Table) []string {
	seen := make(map[string]bool, len(table))
	names := make([]string, 0, len(table))
	for _, r := range table {
		if !seen[r.ProductName] {
			seen[r.ProductName] = true
			names = append(names, r.ProductName)
		}
	}
	return names
}

// firstAndLastByDate returns the records at the product's min and max dates.
// Ties on a date resolve to the first matching record in input order.
func firstAndLastByDate(table models.Table, productName string) (first, last models.Record) {
	found := false
	for _, r := range table {
		if r.ProductName != productName {
			continue
		}
		if !found {
			first, last = r, r
			found = true
			continue
		}
		if r.ScrapeDate.Before(first.ScrapeDate) {
			first = r
		}
		if r.ScrapeDate.After(last.ScrapeDate) {
			last = r
		}
	}
	return first, last
}
