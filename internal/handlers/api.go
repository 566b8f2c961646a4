package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pricewatch/internal/errors"
	"pricewatch/internal/models"
	"pricewatch/internal/observability"
	"pricewatch/internal/services"
)

const cacheControl = "public, max-age=300"

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// parseQuery reads the shared table-narrowing params: min_price, max_price
// and brands (comma-separated). Absent params leave the table unrestricted.
func parseQuery(r *http.Request) (services.Query, error) {
	var q services.Query

	if raw := r.URL.Query().Get("min_price"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return q, errors.Validation(fmt.Sprintf("invalid min_price %q", raw))
		}
		q.MinPrice = &v
	}

	if raw := r.URL.Query().Get("max_price"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return q, errors.Validation(fmt.Sprintf("invalid max_price %q", raw))
		}
		q.MaxPrice = &v
	}

	if raw := r.URL.Query().Get("brands"); raw != "" {
		q.Brands = strings.Split(raw, ",")
	}

	return q, nil
}

func parseDateParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, errors.Validation(fmt.Sprintf("missing %s parameter", name))
	}

	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, errors.Validation(fmt.Sprintf("invalid %s %q, want YYYY-MM-DD", name, raw))
	}
	return models.Date(t), nil
}

func (h *APIHandlers) HandleProducts(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	q, err := parseQuery(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	table := h.analytics.View(q)
	names := make([]string, 0)
	seen := make(map[string]bool)
	for _, rec := range table {
		if !seen[rec.ProductName] {
			seen[rec.ProductName] = true
			names = append(names, rec.ProductName)
		}
	}

	errors.WriteSuccessWithHeaders(w, names, map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleBrands(w http.ResponseWriter, r *http.Request) {
	data := h.analytics.BrandNames()
	errors.WriteSuccessWithHeaders(w, data, map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleTrack(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	product := r.URL.Query().Get("product")
	if product == "" {
		errors.WriteError(w, h.logger, errors.Validation("missing product parameter"), requestID)
		return
	}

	q, err := parseQuery(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	summary, err := services.Track(h.analytics.View(q), product)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	errors.WriteSuccess(w, summary)
}

func (h *APIHandlers) HandleDiff(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	cutoff, err := parseDateParam(r, "cutoff")
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	q, err := parseQuery(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	diff := services.Diff(h.analytics.View(q), cutoff)
	errors.WriteSuccess(w, diff)
}

func (h *APIHandlers) HandleScreen(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	threshold := 0.0
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			errors.WriteError(w, h.logger, errors.Validation(fmt.Sprintf("invalid threshold %q", raw)), requestID)
			return
		}
		threshold = v
	}

	start, err := parseDateParam(r, "start")
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	end, err := parseDateParam(r, "end")
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	q, err := parseQuery(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	changes := services.Screen(h.analytics.View(q), threshold, start, end)
	errors.WriteSuccess(w, changes)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}
