package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Dashboard renders the price monitoring page. Tab content is patched in by
// the /sse endpoints via datastar; this component only ships the skeleton,
// the shared filter inputs and the signal defaults.
func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, dashboardHTML)
		return err
	})
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Price Monitoring</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"></script>
<script src="https://cdn.jsdelivr.net/npm/apexcharts"></script>
<style>
body { font-family: system-ui, sans-serif; margin: 0; padding: 1.5rem; background: #f7f7f8; }
h1 { margin-top: 0; }
.filters { display: flex; gap: 1rem; margin-bottom: 1rem; }
.filters label { display: flex; flex-direction: column; font-size: 0.85rem; color: #555; }
.tabs { display: flex; gap: 0.5rem; margin-bottom: 1rem; }
.tabs button { padding: 0.5rem 1rem; border: 1px solid #ccc; background: #fff; cursor: pointer; }
.modern-table { width: 100%; border-collapse: collapse; background: #fff; }
.modern-table th, .modern-table td { padding: 0.5rem 0.75rem; border-bottom: 1px solid #eee; text-align: left; }
.metric-row { display: flex; gap: 2rem; margin: 1rem 0; }
.metric { display: flex; flex-direction: column; }
.metric-label { font-size: 0.8rem; color: #777; }
.metric-date { font-size: 0.8rem; color: #999; }
.error-banner { background: #fde8e8; color: #9b1c1c; padding: 0.75rem; margin: 0.5rem 0; }
</style>
</head>
<body data-signals="{minPrice: 1, maxPrice: 500, product: '', cutoff: '', threshold: 10, start: '', end: '', trackerSeries: []}">
<h1>Price Monitoring</h1>

<div class="filters">
<label>Min Price <input type="number" data-bind-minPrice></label>
<label>Max Price <input type="number" data-bind-maxPrice></label>
</div>

<div class="tabs">
<button data-on-click="@get('/sse/tracker?product='+$product+'&min_price='+$minPrice+'&max_price='+$maxPrice)">Product Tracker</button>
<button data-on-click="@get('/sse/diff?cutoff='+$cutoff+'&min_price='+$minPrice+'&max_price='+$maxPrice)">Added and Removed Products</button>
<button data-on-click="@get('/sse/screen?threshold='+$threshold+'&start='+$start+'&end='+$end+'&min_price='+$minPrice+'&max_price='+$maxPrice)">Change Tracker</button>
</div>

<div class="filters">
<label>Product <input type="text" data-bind-product></label>
<label>Cutoff Date <input type="date" data-bind-cutoff></label>
<label>Change % <input type="number" step="0.5" data-bind-threshold></label>
<label>From <input type="date" data-bind-start></label>
<label>To <input type="date" data-bind-end></label>
</div>

<div id="view-error"></div>
<div id="tracker-content"></div>
<div id="diff-content"></div>
<div id="screen-content"></div>
</body>
</html>`
