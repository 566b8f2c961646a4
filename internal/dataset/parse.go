package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pricewatch/internal/errors"
	"pricewatch/internal/models"
)

// RawItem is one flat record as returned by the scrape dataset API. Price
// arrives currency-formatted (e.g. "Ahora$1,234.50"), scrapeDate as a
// date-like string.
type RawItem struct {
	ProductName string `json:"productName"`
	Brand       string `json:"brand"`
	Price       string `json:"price"`
	ScrapeDate  string `json:"scrapeDate"`
}

// priceTokens are stripped from price strings in this order before parsing.
var priceTokens = []string{"Ahora", "$", ","}

// ParsePrice cleans a currency-formatted price string and parses it as a
// float. The result must be numeric and non-negative.
func ParsePrice(s string) (float64, error) {
	cleaned := s
	for _, token := range priceTokens {
		cleaned = strings.ReplaceAll(cleaned, token, "")
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
	if err != nil {
		return 0, errors.PriceParse(fmt.Sprintf("malformed price %q", s))
	}
	if value < 0 {
		return 0, errors.PriceParse(fmt.Sprintf("negative price %q", s))
	}
	return value, nil
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseScrapeDate parses a date-like string and strips any time-of-day
// component.
func ParseScrapeDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.Date(t), nil
		}
	}
	return time.Time{}, errors.DataSource(fmt.Sprintf("unparseable scrape date %q", s))
}

// Normalize validates a raw item and coerces it into a typed Record.
func (it RawItem) Normalize() (models.Record, error) {
	if it.ProductName == "" || it.Price == "" || it.ScrapeDate == "" {
		return models.Record{}, errors.DataSource("record missing productName, price or scrapeDate")
	}

	price, err := ParsePrice(it.Price)
	if err != nil {
		return models.Record{}, err
	}

	date, err := ParseScrapeDate(it.ScrapeDate)
	if err != nil {
		return models.Record{}, err
	}

	return models.Record{
		ProductName: it.ProductName,
		Brand:       it.Brand,
		Price:       price,
		ScrapeDate:  date,
	}, nil
}
