// Package crawler implements the sequential paginated crawl engine.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"steam-market-crawler/config"
	"steam-market-crawler/models"
	"steam-market-crawler/parser"
	"steam-market-crawler/store"
)

// CheckpointStore persists the last fully merged page index outside the
// process, so a crash loses at most the in-flight page.
type CheckpointStore interface {
	Load() (int, error)
	Save(page int) error
}

// Crawler walks the paginated search results one page at a time: wait,
// fetch, normalize, merge, checkpoint. No two requests are ever in flight
// simultaneously.
type Crawler struct {
	cfg        *config.Config
	client     *Client
	normalizer *parser.Normalizer
	sink       store.Sink
	cp         CheckpointStore
	Metrics    *Metrics

	// seen caches record keys across pages. The endpoint sorts by price,
	// which drifts between requests, so a listing can straddle a page
	// boundary and show up twice; the cache drops those before the store
	// has to re-read the whole collection to find out.
	seen *lru.Cache[string, struct{}]

	randDelay func() time.Duration
}

// New builds a crawler from its collaborators.
func New(cfg *config.Config, client *Client, sink store.Sink, cp CheckpointStore) (*Crawler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	seen, err := lru.New[string, struct{}](cfg.DedupeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("dedupe cache: %w", err)
	}

	c := &Crawler{
		cfg:        cfg,
		client:     client,
		normalizer: parser.NewNormalizer(cfg.MarketBaseURL, cfg.AppID, cfg.ItemType, cfg.ItemSubtype),
		sink:       sink,
		cp:         cp,
		Metrics:    NewMetrics(),
		seen:       seen,
	}
	c.randDelay = c.defaultDelay
	return c, nil
}

// Run crawls from the stored checkpoint through the last page. It returns an
// error only when the total-count probe fails; every later failure is
// handled per page and reported in the result.
func (c *Crawler) Run(ctx context.Context) (*models.CrawlResult, error) {
	lastPage, err := c.cp.Load()
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	c.Metrics.IncRequest("probe")
	begin := time.Now()
	totalCount, err := c.client.Probe()
	c.Metrics.ObserveDuration(time.Since(begin))
	if err != nil {
		c.Metrics.IncError(errorTypeLabel(err))
		return nil, fmt.Errorf("total count probe: %w", err)
	}

	totalPages := TotalPages(totalCount, c.cfg.BatchSize)
	result := &models.CrawlResult{TotalCount: totalCount, TotalPages: totalPages}

	slog.Info("starting crawl",
		slog.Int("total_items", totalCount),
		slog.Int("total_pages", totalPages),
		slog.Int("resume_page", lastPage+1),
	)

	for page := lastPage + 1; page <= totalPages; page++ {
		if ctx.Err() != nil {
			c.interrupt(ctx, result)
			return result, nil
		}
		if err := c.wait(ctx); err != nil {
			c.interrupt(ctx, result)
			return result, nil
		}

		offset, end := PageRange(page, c.cfg.BatchSize, totalCount)
		slog.Info("fetching page",
			slog.Int("page", page),
			slog.Int("total_pages", totalPages),
			slog.Int("offset", offset),
			slog.Int("end", end),
		)

		outcome, total := c.processPage(ctx, page, offset)
		result.Pages = append(result.Pages, outcome)
		if outcome.Status == models.PageSuccess {
			result.RecordsAdded += outcome.Added
			result.StoreTotal = total
		}
	}

	slog.Info("crawl complete",
		slog.Int("pages", len(result.Pages)),
		slog.Int("skipped", result.PagesSkipped()),
		slog.Int("records_added", result.RecordsAdded),
	)
	return result, nil
}

// processPage fetches, normalizes, merges and checkpoints a single page.
// Failures never abort the run: a failed fetch or merge skips the page and
// the loop moves on.
func (c *Crawler) processPage(ctx context.Context, page, offset int) (models.PageOutcome, int) {
	c.Metrics.IncRequest("page")
	begin := time.Now()
	sp, err := c.client.FetchPage(BuildParams(c.cfg.Query, c.cfg.AppID, c.cfg.Currency, offset, c.cfg.BatchSize))
	c.Metrics.ObserveDuration(time.Since(begin))
	if err == nil && !sp.HasResults {
		err = ErrEnvelope{Err: fmt.Errorf("response missing results")}
	}
	if err != nil {
		label := errorTypeLabel(err)
		c.Metrics.IncError(label)
		c.Metrics.IncPage(models.PageSkipped)
		slog.Error("page fetch failed, skipping",
			slog.Int("page", page),
			slog.String("category", label),
			slog.Any("error", err),
		)
		return models.PageOutcome{Page: page, Status: models.PageSkipped, Reason: label}, 0
	}

	records := make([]*models.Record, 0, len(sp.Results))
	for _, raw := range sp.Results {
		record, err := c.normalizer.Normalize(raw)
		if err != nil {
			slog.Warn("skipping malformed item", slog.Int("page", page), slog.Any("error", err))
			continue
		}
		if _, dup := c.seen.Get(record.Key()); dup {
			continue
		}
		records = append(records, record)
	}
	c.Metrics.AddItems(len(records))

	added, total, err := c.sink.Merge(ctx, records)
	if err != nil {
		c.Metrics.IncPage(models.PageSkipped)
		slog.Error("merge failed, page will be retried next run",
			slog.Int("page", page),
			slog.Any("error", err),
		)
		return models.PageOutcome{Page: page, Status: models.PageSkipped, Reason: "store"}, 0
	}
	for _, r := range records {
		c.seen.Add(r.Key(), struct{}{})
	}
	c.Metrics.AddRecords(added)
	c.Metrics.SetStoreRecords(total)

	if err := c.cp.Save(page); err != nil {
		slog.Error("checkpoint write failed", slog.Int("page", page), slog.Any("error", err))
	}
	c.Metrics.IncPage(models.PageSuccess)

	slog.Info("page merged",
		slog.Int("page", page),
		slog.Int("added", added),
		slog.Int("stored", total),
	)
	return models.PageOutcome{Page: page, Status: models.PageSuccess, Added: added}, total
}

// wait suspends for a random delay before the next request. Cancellation
// interrupts the wait, never an in-flight call.
func (c *Crawler) wait(ctx context.Context) error {
	timer := time.NewTimer(c.randDelay())
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Crawler) defaultDelay() time.Duration {
	span := c.cfg.DelayMax - c.cfg.DelayMin
	if span <= 0 {
		return c.cfg.DelayMin
	}
	return c.cfg.DelayMin + time.Duration(rand.Int63n(int64(span)+1))
}

// interrupt finishes the run cleanly after an external stop request: no
// further pages are attempted, and a final no-op merge confirms the output
// target exists.
func (c *Crawler) interrupt(ctx context.Context, result *models.CrawlResult) {
	result.Interrupted = true
	if _, _, err := c.sink.Merge(context.WithoutCancel(ctx), nil); err != nil {
		slog.Error("final flush failed", slog.Any("error", err))
	}
	slog.Info("crawl interrupted, stopping cleanly",
		slog.Int("pages", len(result.Pages)),
		slog.Int("records_added", result.RecordsAdded),
	)
}
