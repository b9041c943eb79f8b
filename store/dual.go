package store

import (
	"context"
	"log/slog"

	"steam-market-crawler/models"
)

// DualSink fans one merge out to the file store and a secondary sink. The
// file store is authoritative: its counts are reported, and a secondary
// failure degrades to a warning instead of failing the page.
type DualSink struct {
	primary   *FileStore
	secondary Sink
}

// NewDualSink wraps the file store with a best-effort secondary sink.
func NewDualSink(primary *FileStore, secondary Sink) *DualSink {
	return &DualSink{primary: primary, secondary: secondary}
}

// Merge writes to the file store, then mirrors the batch to the secondary.
func (d *DualSink) Merge(ctx context.Context, records []*models.Record) (int, int, error) {
	added, total, err := d.primary.Merge(ctx, records)
	if err != nil {
		return added, total, err
	}

	if _, _, err := d.secondary.Merge(ctx, records); err != nil {
		slog.Warn("secondary sink merge failed", slog.Any("error", err))
	}
	return added, total, nil
}
