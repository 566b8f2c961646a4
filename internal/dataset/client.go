package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"pricewatch/internal/config"
	"pricewatch/internal/errors"
	"pricewatch/internal/models"
	"pricewatch/internal/observability"
	"golang.org/x/sync/errgroup"
)

const maxParseWorkers = 10

// Client loads the price-tracking dataset: fetch raw items from the remote
// dataset API (snapshot cache first), normalize them into typed records and
// keep only the configured product category.
type Client struct {
	cfg        config.DatasetConfig
	httpClient *http.Client
	cache      *SnapshotCache
	logger     *slog.Logger
}

// NewClient builds a loader. cache may be nil, in which case every load
// fetches remotely.
func NewClient(cfg config.DatasetConfig, cache *SnapshotCache, logger *slog.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.FetchTimeout},
		cache:      cache,
		logger:     logger,
	}
}

// Load fetches and normalizes the dataset. Any malformed record fails the
// whole load; the table is derived in one pass with no partial recovery.
func (c *Client) Load(ctx context.Context) (models.Table, error) {
	ctx, span := observability.StartSpan(ctx, "dataset.load")
	defer span.Finish()
	span.SetTag("dataset.id", c.cfg.DatasetID)

	items, err := c.fetchItems(ctx)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	table, err := c.normalize(ctx, items)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	c.logger.Info("dataset loaded",
		"items_fetched", len(items),
		"records_kept", len(table),
		"category_filter", c.cfg.CategoryFilter,
	)
	return table, nil
}

func (c *Client) fetchItems(ctx context.Context) ([]RawItem, error) {
	if c.cache != nil {
		payload, ok, err := c.cache.Fresh(ctx, c.cfg.DatasetID, c.cfg.CacheTTL)
		if err != nil {
			c.logger.Warn("snapshot cache read failed", "error", err)
		} else if ok {
			items, err := decodeItems(payload)
			if err == nil {
				c.logger.Info("dataset served from snapshot cache", "items", len(items))
				return items, nil
			}
			c.logger.Warn("cached snapshot unreadable, refetching", "error", err)
		}
	}

	payload, err := c.fetchRemote(ctx)
	if err != nil {
		return nil, err
	}

	items, err := decodeItems(payload)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Store(ctx, c.cfg.DatasetID, payload); err != nil {
			c.logger.Warn("failed to store snapshot", "error", err)
		}
	}
	return items, nil
}

func (c *Client) fetchRemote(ctx context.Context) ([]byte, error) {
	url := fmt.Sprintf("%s/v2/datasets/%s/items?clean=true&format=json",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.DatasetID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.DataSourceWrap(err, "build dataset request")
	}
	if c.cfg.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.DataSourceWrap(err, "fetch dataset items")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.DataSource(fmt.Sprintf("dataset API returned status %d", resp.StatusCode))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.DataSourceWrap(err, "read dataset response")
	}
	return payload, nil
}

func decodeItems(payload []byte) ([]RawItem, error) {
	var items []RawItem
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, errors.DataSourceWrap(err, "decode dataset payload")
	}
	return items, nil
}

// normalize coerces raw items concurrently, then applies the category filter.
// Record order follows item order; downstream tie-breaks depend on it.
func (c *Client) normalize(ctx context.Context, items []RawItem) (models.Table, error) {
	records := make([]models.Record, len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParseWorkers)

	for i, item := range items {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			record, err := item.Normalize()
			if err != nil {
				return err
			}
			records[i] = record
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	filter := strings.ToLower(c.cfg.CategoryFilter)
	table := make(models.Table, 0, len(records))
	for _, record := range records {
		if strings.Contains(strings.ToLower(record.ProductName), filter) {
			table = append(table, record)
		}
	}
	return table, nil
}
