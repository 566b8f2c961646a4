package services

import (
	"testing"
	"time"

	"pricewatch/internal/errors"
	"pricewatch/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func rec(name, brand string, price float64, date time.Time) models.Record {
	return models.Record{ProductName: name, Brand: brand, Price: price, ScrapeDate: date}
}

func sampleTable() models.Table {
	return models.Table{
		rec("Bocina Alpha", "b1", 100, day(2024, 1, 1)),
		rec("Bocina Beta", "b2", 50, day(2024, 1, 1)),
		rec("Bocina Alpha", "b1", 80, day(2024, 1, 15)),
		rec("Bocina Beta", "b2", 55, day(2024, 1, 15)),
		rec("Bocina Alpha", "b1", 120, day(2024, 1, 31)),
	}
}

func TestFilterByPriceRange(t *testing.T) {
	table := sampleTable()

	got := FilterByPriceRange(table, 50, 100)
	if len(got) != 4 {
		t.Fatalf("expected 4 records in [50,100], got %d", len(got))
	}

	// Bounds are inclusive on both ends.
	for _, r := range got {
		if r.Price < 50 || r.Price > 100 {
			t.Errorf("record with price %v outside [50,100]", r.Price)
		}
	}

	// Inverted bounds yield an empty table, not an error.
	if got := FilterByPriceRange(table, 100, 50); len(got) != 0 {
		t.Errorf("inverted bounds should yield empty table, got %d records", len(got))
	}
}

func TestFilterByPriceRange_Idempotent(t *testing.T) {
	table := sampleTable()

	once := FilterByPriceRange(table, 50, 100)
	twice := FilterByPriceRange(once, 50, 100)

	if len(once) != len(twice) {
		t.Fatalf("filter not idempotent: %d vs %d records", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("record %d differs after second filter", i)
		}
	}
}

func TestFilterByPriceRange_DoesNotMutateInput(t *testing.T) {
	table := sampleTable()
	before := len(table)

	_ = FilterByPriceRange(table, 60, 90)

	if len(table) != before {
		t.Error("input table length changed")
	}
	if table[0].Price != 100 {
		t.Error("input table contents changed")
	}
}

func TestFilterByPriceRange_FullRangeRoundTrip(t *testing.T) {
	table := sampleTable()

	min, max := table[0].Price, table[0].Price
	for _, r := range table[1:] {
		if r.Price < min {
			min = r.Price
		}
		if r.Price > max {
			max = r.Price
		}
	}

	got := FilterByPriceRange(table, min, max)
	if len(got) != len(table) {
		t.Fatalf("full-range filter dropped records: %d vs %d", len(got), len(table))
	}
	for i := range table {
		if got[i] != table[i] {
			t.Errorf("record %d changed by full-range filter", i)
		}
	}
}

func TestFilterByBrands(t *testing.T) {
	table := sampleTable()

	got := FilterByBrands(table, []string{"b1"})
	if len(got) != 3 {
		t.Fatalf("expected 3 b1 records, got %d", len(got))
	}

	// Empty brand set matches nothing.
	if got := FilterByBrands(table, []string{}); len(got) != 0 {
		t.Errorf("empty brand set should yield empty table, got %d records", len(got))
	}
}

func TestFilterByDateRange(t *testing.T) {
	table := sampleTable()

	got := FilterByDateRange(table, day(2024, 1, 1), day(2024, 1, 15))
	if len(got) != 4 {
		t.Fatalf("expected 4 records in range, got %d", len(got))
	}

	// Both ends inclusive.
	got = FilterByDateRange(table, day(2024, 1, 15), day(2024, 1, 15))
	if len(got) != 2 {
		t.Fatalf("expected 2 records on the boundary day, got %d", len(got))
	}
}

func TestTrack_SingleRecord(t *testing.T) {
	table := models.Table{rec("Bocina Solo", "b1", 75, day(2024, 2, 1))}

	got, err := Track(table, "Bocina Solo")
	if err != nil {
		t.Fatalf("Track() failed: %v", err)
	}

	if got.CurrentPrice != 75 || got.MinPrice != 75 || got.MaxPrice != 75 {
		t.Errorf("single record should be current, min and max; got %+v", got)
	}
	if !got.MinPriceDate.Equal(day(2024, 2, 1)) || !got.MaxPriceDate.Equal(day(2024, 2, 1)) {
		t.Errorf("extremum dates should match the only record, got %+v", got)
	}
	if len(got.Series) != 1 {
		t.Errorf("expected 1 series point, got %d", len(got.Series))
	}
}

func TestTrack_Summary(t *testing.T) {
	got, err := Track(sampleTable(), "Bocina Alpha")
	if err != nil {
		t.Fatalf("Track() failed: %v", err)
	}

	if got.CurrentPrice != 120 {
		t.Errorf("current price should come from the latest date, got %v", got.CurrentPrice)
	}
	if got.MinPrice != 80 || !got.MinPriceDate.Equal(day(2024, 1, 15)) {
		t.Errorf("min = 80 @ 2024-01-15, got %v @ %v", got.MinPrice, got.MinPriceDate)
	}
	if got.MaxPrice != 120 || !got.MaxPriceDate.Equal(day(2024, 1, 31)) {
		t.Errorf("max = 120 @ 2024-01-31, got %v @ %v", got.MaxPrice, got.MaxPriceDate)
	}

	if len(got.Series) != 3 {
		t.Fatalf("expected 3 series points, got %d", len(got.Series))
	}
	for i := 1; i < len(got.Series); i++ {
		if got.Series[i].Date.Before(got.Series[i-1].Date) {
			t.Error("series should ascend by date")
		}
	}
}

func TestTrack_UnknownProduct(t *testing.T) {
	_, err := Track(sampleTable(), "No Such Product")
	if err == nil {
		t.Fatal("Track() should fail for an unknown product")
	}
	if !errors.IsNoData(err) {
		t.Errorf("expected NO_DATA error, got %v", err)
	}
}

func TestDiff_AddedProduct(t *testing.T) {
	// Product X exists only after the cutoff.
	table := models.Table{
		rec("Bocina Old", "b1", 100, day(2024, 1, 1)),
		rec("Bocina Old", "b1", 100, day(2024, 2, 2)),
		rec("Bocina X", "b2", 30, day(2024, 2, 1)),
		rec("Bocina X", "b2", 35, day(2024, 2, 2)),
	}

	diff := Diff(table, day(2024, 1, 15))

	if len(diff.Added) != 1 {
		t.Fatalf("expected 1 added product, got %d", len(diff.Added))
	}
	added := diff.Added[0]
	if added.ProductName != "Bocina X" {
		t.Errorf("expected Bocina X added, got %q", added.ProductName)
	}
	if !added.FirstDate.Equal(day(2024, 2, 1)) {
		t.Errorf("first date should be 2024-02-01, got %v", added.FirstDate)
	}
	if added.FirstPrice != 30 || added.RecentPrice != 35 {
		t.Errorf("expected first=30 recent=35, got %+v", added)
	}

	if len(diff.Removed) != 0 {
		t.Errorf("both products appear on the latest date, removed should be empty: %+v", diff.Removed)
	}
}

func TestDiff_RemovedBaseIsAfterSet(t *testing.T) {
	// "Gone" has records only before the cutoff; the removed set is computed
	// over after-cutoff names, so it must not show up.
	table := models.Table{
		rec("Bocina Gone", "b1", 10, day(2024, 1, 1)),
		rec("Bocina Stay", "b1", 20, day(2024, 1, 1)),
		rec("Bocina Stay", "b1", 22, day(2024, 2, 1)),
		rec("Bocina Drop", "b2", 30, day(2024, 1, 20)),
	}

	diff := Diff(table, day(2024, 1, 10))

	for _, r := range diff.Removed {
		if r.ProductName == "Bocina Gone" {
			t.Error("product absent after the cutoff must not appear in removed")
		}
	}

	// Drop appears after the cutoff but not on the latest scrape date.
	if len(diff.Removed) != 1 || diff.Removed[0].ProductName != "Bocina Drop" {
		t.Fatalf("expected only Bocina Drop removed, got %+v", diff.Removed)
	}
	if !diff.Removed[0].LastSeenDate.Equal(day(2024, 1, 20)) || diff.Removed[0].LastPrice != 30 {
		t.Errorf("unexpected removed row: %+v", diff.Removed[0])
	}
}

func TestDiff_AddedSortedByFirstDateDescending(t *testing.T) {
	table := models.Table{
		rec("Bocina Base", "b1", 10, day(2024, 1, 1)),
		rec("Bocina Base", "b1", 10, day(2024, 3, 1)),
		rec("Bocina Early", "b1", 20, day(2024, 2, 1)),
		rec("Bocina Early", "b1", 20, day(2024, 3, 1)),
		rec("Bocina Late", "b2", 30, day(2024, 2, 15)),
		rec("Bocina Late", "b2", 30, day(2024, 3, 1)),
	}

	diff := Diff(table, day(2024, 1, 15))

	if len(diff.Added) != 2 {
		t.Fatalf("expected 2 added products, got %d", len(diff.Added))
	}
	if diff.Added[0].ProductName != "Bocina Late" || diff.Added[1].ProductName != "Bocina Early" {
		t.Errorf("added should sort by first date descending, got %+v", diff.Added)
	}
}

func TestScreen_Scenario(t *testing.T) {
	table := models.Table{
		rec("A", "b1", 10, day(2024, 1, 1)),
		rec("A", "b1", 12, day(2024, 1, 31)),
	}

	got := Screen(table, 10, day(2024, 1, 1), day(2024, 1, 31))

	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	row := got[0]
	if row.ProductName != "A" || row.StartPrice != 10 || row.EndPrice != 12 {
		t.Errorf("unexpected row: %+v", row)
	}
	if FormatPercent(row.PercentChange) != "20.00" {
		t.Errorf("expected 20.00%%, got %s", FormatPercent(row.PercentChange))
	}
}

func TestScreen_ZeroThresholdIncludesEveryProductOnce(t *testing.T) {
	table := sampleTable()

	got := Screen(table, 0, day(2024, 1, 1), day(2024, 1, 31))

	counts := make(map[string]int)
	for _, row := range got {
		counts[row.ProductName]++
	}
	for _, name := range []string{"Bocina Alpha", "Bocina Beta"} {
		if counts[name] != 1 {
			t.Errorf("product %q should appear exactly once, got %d", name, counts[name])
		}
	}
}

func TestScreen_ZeroStartPriceExcluded(t *testing.T) {
	table := models.Table{
		rec("Free", "b1", 0, day(2024, 1, 1)),
		rec("Free", "b1", 10, day(2024, 1, 31)),
		rec("Paid", "b1", 10, day(2024, 1, 1)),
		rec("Paid", "b1", 20, day(2024, 1, 31)),
	}

	got := Screen(table, 0, day(2024, 1, 1), day(2024, 1, 31))

	if len(got) != 1 || got[0].ProductName != "Paid" {
		t.Fatalf("zero start price should be excluded, got %+v", got)
	}
}

func TestScreen_SortedByChangeDescending(t *testing.T) {
	table := models.Table{
		rec("Up", "b1", 10, day(2024, 1, 1)),
		rec("Up", "b1", 15, day(2024, 1, 31)),
		rec("Down", "b1", 10, day(2024, 1, 1)),
		rec("Down", "b1", 5, day(2024, 1, 31)),
		rec("Flat", "b1", 10, day(2024, 1, 1)),
		rec("Flat", "b1", 10, day(2024, 1, 31)),
	}

	got := Screen(table, 0, day(2024, 1, 1), day(2024, 1, 31))

	if len(got) != 3 {
		t.Fatalf("expected 3 rows with threshold 0, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].PercentChange > got[i-1].PercentChange {
			t.Errorf("rows should sort by change descending: %+v", got)
		}
	}
	if got[0].ProductName != "Up" || got[2].ProductName != "Down" {
		t.Errorf("unexpected ordering: %+v", got)
	}
}

func TestScreen_GroupOrderIsInputOrder(t *testing.T) {
	// The 2024-01-05 record arrives first in input order even though it is
	// not the earliest date; it supplies the start price.
	table := models.Table{
		rec("A", "b1", 20, day(2024, 1, 5)),
		rec("A", "b1", 10, day(2024, 1, 1)),
		rec("A", "b1", 30, day(2024, 1, 31)),
	}

	got := Screen(table, 0, day(2024, 1, 1), day(2024, 1, 31))

	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	if got[0].StartPrice != 20 {
		t.Errorf("start price should be first row encountered (20), got %v", got[0].StartPrice)
	}
	if got[0].EndPrice != 30 {
		t.Errorf("end price should be last row encountered (30), got %v", got[0].EndPrice)
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{20, "20.00"},
		{-12.5, "-12.50"},
		{0.004, "0.00"},
		{100, "100.00"},
	}

	for _, tt := range tests {
		if got := FormatPercent(tt.in); got != tt.want {
			t.Errorf("FormatPercent(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
