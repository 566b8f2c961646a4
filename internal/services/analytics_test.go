package services

import (
	"testing"
	"time"
)

func TestNewAnalytics(t *testing.T) {
	a := NewAnalytics()
	if a == nil {
		t.Fatal("NewAnalytics() returned nil")
	}
	if a.Table() == nil {
		t.Error("table should be initialized to an empty table")
	}
}

func TestAnalytics_SetTable(t *testing.T) {
	a := NewAnalytics()
	a.SetTable(sampleTable())

	if got := len(a.Table()); got != 5 {
		t.Errorf("expected 5 records, got %d", got)
	}
}

func TestAnalytics_View(t *testing.T) {
	a := NewAnalytics()
	a.SetTable(sampleTable())

	// No restrictions: full table.
	if got := a.View(Query{}); len(got) != 5 {
		t.Errorf("unrestricted view should return all records, got %d", len(got))
	}

	min := 60.0
	if got := a.View(Query{MinPrice: &min}); len(got) != 3 {
		t.Errorf("expected 3 records with price >= 60, got %d", len(got))
	}

	max := 60.0
	if got := a.View(Query{MaxPrice: &max}); len(got) != 2 {
		t.Errorf("expected 2 records with price <= 60, got %d", len(got))
	}

	if got := a.View(Query{Brands: []string{"b2"}}); len(got) != 2 {
		t.Errorf("expected 2 b2 records, got %d", len(got))
	}

	// Non-nil empty brand list matches nothing.
	if got := a.View(Query{Brands: []string{}}); len(got) != 0 {
		t.Errorf("empty brand list should match nothing, got %d", len(got))
	}

	// Views never shrink the canonical table.
	if got := len(a.Table()); got != 5 {
		t.Errorf("canonical table mutated: %d records", got)
	}
}

func TestAnalytics_ProductNames(t *testing.T) {
	a := NewAnalytics()
	a.SetTable(sampleTable())

	names := a.ProductNames()
	want := []string{"Bocina Alpha", "Bocina Beta"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q (first-appearance order)", i, names[i], want[i])
		}
	}
}

func TestAnalytics_BrandNames(t *testing.T) {
	a := NewAnalytics()
	a.SetTable(sampleTable())

	brands := a.BrandNames()
	if len(brands) != 2 || brands[0] != "b1" || brands[1] != "b2" {
		t.Errorf("unexpected brands: %v", brands)
	}
}

func TestAnalytics_PriceBounds(t *testing.T) {
	a := NewAnalytics()

	if _, _, ok := a.PriceBounds(); ok {
		t.Error("empty table should report no bounds")
	}

	a.SetTable(sampleTable())
	min, max, ok := a.PriceBounds()
	if !ok || min != 50 || max != 120 {
		t.Errorf("expected bounds [50,120], got [%v,%v] ok=%v", min, max, ok)
	}
}

func TestAnalytics_DateBounds(t *testing.T) {
	a := NewAnalytics()
	a.SetTable(sampleTable())

	start, end, ok := a.DateBounds()
	if !ok || !start.Equal(day(2024, 1, 1)) || !end.Equal(day(2024, 1, 31)) {
		t.Errorf("expected [2024-01-01, 2024-01-31], got [%v, %v] ok=%v", start, end, ok)
	}
}

func TestAnalytics_Stats(t *testing.T) {
	a := NewAnalytics()
	a.SetTable(sampleTable())

	stats := a.Stats()
	if stats["record_count"] != 5 {
		t.Errorf("expected record_count 5, got %v", stats["record_count"])
	}
	if stats["products"] != 2 {
		t.Errorf("expected 2 products, got %v", stats["products"])
	}
	if stats["brands"] != 2 {
		t.Errorf("expected 2 brands, got %v", stats["brands"])
	}
	if stats["first_scrape"] != "2024-01-01" || stats["last_scrape"] != "2024-01-31" {
		t.Errorf("unexpected scrape span: %v .. %v", stats["first_scrape"], stats["last_scrape"])
	}
}

func TestAnalytics_ConcurrentReads(t *testing.T) {
	a := NewAnalytics()
	a.SetTable(sampleTable())

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func() {
			defer func() { done <- true }()

			_ = a.View(Query{})
			_ = a.ProductNames()
			_ = a.BrandNames()
			_, _, _ = a.PriceBounds()
			_, _ = Track(a.Table(), "Bocina Alpha")
			_ = Diff(a.Table(), day(2024, 1, 15))
			_ = Screen(a.Table(), 0, day(2024, 1, 1), day(2024, 1, 31))
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestAnalytics_EmptyTable(t *testing.T) {
	a := NewAnalytics()

	if names := a.ProductNames(); len(names) != 0 {
		t.Errorf("expected no product names, got %v", names)
	}
	if diff := Diff(a.Table(), time.Now()); len(diff.Added) != 0 || len(diff.Removed) != 0 {
		t.Errorf("diff over empty table should be empty, got %+v", diff)
	}
	if changes := Screen(a.Table(), 0, day(2024, 1, 1), day(2024, 12, 31)); len(changes) != 0 {
		t.Errorf("screen over empty table should be empty, got %+v", changes)
	}
}
