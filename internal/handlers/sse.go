package handlers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"pricewatch/internal/errors"
	"pricewatch/internal/models"
	"pricewatch/internal/services"
	"github.com/starfederation/datastar-go/datastar"
)

var templateFuncs = template.FuncMap{
	"date":  models.DateString,
	"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"pct":   services.FormatPercent,
}

var trackerTemplate = template.Must(template.New("tracker").Funcs(templateFuncs).Parse(`
<div id="tracker-content">
<h3>{{.ProductName}}</h3>
<div class="metric-row">
<div class="metric"><span class="metric-label">Last Price</span><strong>${{money .CurrentPrice}}</strong></div>
<div class="metric"><span class="metric-label">Min Recorded</span><strong>${{money .MinPrice}}</strong><span class="metric-date">{{date .MinPriceDate}}</span></div>
<div class="metric"><span class="metric-label">Max Recorded</span><strong>${{money .MaxPrice}}</strong><span class="metric-date">{{date .MaxPriceDate}}</span></div>
</div>
<div id="tracker-chart"></div>
</div>`))

var diffTemplate = template.Must(template.New("diff").Funcs(templateFuncs).Parse(`
<div id="diff-content">
<h4>Products Added After Selected Date</h4>
<table class="modern-table">
<thead><tr><th>Product</th><th>Added Date</th><th>First Price</th><th>Most Recent Price</th></tr></thead>
<tbody>
{{range .Added}}<tr>
<td>{{.ProductName}}</td>
<td>{{date .FirstDate}}</td>
<td>${{money .FirstPrice}}</td>
<td>${{money .RecentPrice}}</td>
</tr>{{end}}
</tbody>
</table>
<h4>Products Removed After Selected Date</h4>
<table class="modern-table">
<thead><tr><th>Product</th><th>Last Seen</th><th>Last Price</th></tr></thead>
<tbody>
{{range .Removed}}<tr>
<td>{{.ProductName}}</td>
<td>{{date .LastSeenDate}}</td>
<td>${{money .LastPrice}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

var screenTemplate = template.Must(template.New("screen").Funcs(templateFuncs).Parse(`
<div id="screen-content">
<table class="modern-table">
<thead><tr><th>Product</th><th>Start Price</th><th>End Price</th><th>Change %</th></tr></thead>
<tbody>
{{range .}}<tr>
<td>{{.ProductName}}</td>
<td>${{money .StartPrice}}</td>
<td>${{money .EndPrice}}</td>
<td><strong>{{pct .PercentChange}}</strong></td>
</tr>{{end}}
</tbody>
</table>
</div>`))

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func renderFragment(tmpl *template.Template, data any) (string, error) {
	var buf strings.Builder
	err := tmpl.Execute(&buf, data)
	return buf.String(), err
}

// HandleTracker patches the per-product metrics fragment and pushes the
// price series as a signal for the line chart.
func (h *SSEHandlers) HandleTracker(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	product := r.URL.Query().Get("product")
	if product == "" {
		sse.PatchElements(`<div id="tracker-content">Select a product to track.</div>`)
		return
	}

	q, err := parseQuery(r)
	if err != nil {
		h.patchError(sse, err)
		return
	}

	summary, err := services.Track(h.analytics.View(q), product)
	if err != nil {
		if errors.IsNoData(err) {
			sse.PatchElements(fmt.Sprintf(`<div id="tracker-content">No records for %s in the current view.</div>`, template.HTMLEscapeString(product)))
			return
		}
		h.patchError(sse, err)
		return
	}

	html, err := renderFragment(trackerTemplate, summary)
	if err != nil {
		h.logger.Error("render tracker fragment", "error", err)
		return
	}
	sse.PatchElements(html)

	signal, err := json.Marshal(map[string]any{"trackerSeries": summary.Series})
	if err != nil {
		h.logger.Error("marshal tracker series", "error", err)
		return
	}
	sse.PatchSignals(signal)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleDiff patches the added/removed product tables for a cutoff date.
func (h *SSEHandlers) HandleDiff(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	cutoff, err := parseDateParam(r, "cutoff")
	if err != nil {
		h.patchError(sse, err)
		return
	}

	q, err := parseQuery(r)
	if err != nil {
		h.patchError(sse, err)
		return
	}

	diff := services.Diff(h.analytics.View(q), cutoff)

	html, err := renderFragment(diffTemplate, diff)
	if err != nil {
		h.logger.Error("render diff fragment", "error", err)
		return
	}
	sse.PatchElements(html)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleScreen patches the percentage-change table.
func (h *SSEHandlers) HandleScreen(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	threshold := 0.0
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%f", &threshold); err != nil || threshold < 0 {
			h.patchError(sse, errors.Validation(fmt.Sprintf("invalid threshold %q", raw)))
			return
		}
	}

	start, err := parseDateParam(r, "start")
	if err != nil {
		h.patchError(sse, err)
		return
	}

	end, err := parseDateParam(r, "end")
	if err != nil {
		h.patchError(sse, err)
		return
	}

	q, err := parseQuery(r)
	if err != nil {
		h.patchError(sse, err)
		return
	}

	changes := services.Screen(h.analytics.View(q), threshold, start, end)

	html, err := renderFragment(screenTemplate, changes)
	if err != nil {
		h.logger.Error("render screen fragment", "error", err)
		return
	}
	sse.PatchElements(html)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// patchError renders a user-facing message instead of crashing the tab.
func (h *SSEHandlers) patchError(sse *datastar.ServerSentEventGenerator, err error) {
	h.logger.Warn("sse view failed", "error", err)
	message := "Something went wrong."
	if appErr, ok := err.(*errors.AppError); ok {
		message = appErr.Message
	}
	sse.PatchElements(fmt.Sprintf(`<div id="view-error" class="error-banner">%s</div>`, template.HTMLEscapeString(message)))
}
