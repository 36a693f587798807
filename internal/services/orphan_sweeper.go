package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"expense-ledger/internal/blobstore"
	"expense-ledger/internal/repositories"

	"golang.org/x/time/rate"
)

const (
	defaultSweepInterval = time.Hour
	defaultGracePeriod   = 15 * time.Minute
	defaultSweepRate     = 10
)

// OrphanSweeper reclaims blobs no receipt metadata references. Orphans appear
// when a receipt delete removes the metadata but the blob delete fails, or
// when an upload stores content but the metadata write fails. Blobs younger
// than the grace period are skipped so an upload whose metadata write is
// still in flight is never reclaimed from under it.
type OrphanSweeper struct {
	receiptRepo repositories.ReceiptRepositoryInterface
	blobs       blobstore.Store
	metrics     MetricsRecorderInterface
	logger      *slog.Logger

	interval time.Duration
	grace    time.Duration
	limiter  *rate.Limiter
}

// NewOrphanSweeper creates a sweeper. Zero interval, grace, or ratePerSec
// fall back to defaults.
func NewOrphanSweeper(
	receiptRepo repositories.ReceiptRepositoryInterface,
	blobs blobstore.Store,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
	interval, grace time.Duration,
	ratePerSec float64,
) *OrphanSweeper {
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if grace <= 0 {
		grace = defaultGracePeriod
	}
	if ratePerSec <= 0 {
		ratePerSec = defaultSweepRate
	}
	return &OrphanSweeper{
		receiptRepo: receiptRepo,
		blobs:       blobs,
		metrics:     metrics,
		logger:      logger,
		interval:    interval,
		grace:       grace,
		limiter:     rate.NewLimiter(rate.Limit(ratePerSec), 1),
	}
}

// Run sweeps on a fixed interval until the context is cancelled.
func (s *OrphanSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("orphan sweeper started", "interval", s.interval, "grace_period", s.grace)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("orphan sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("orphan sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce deletes every blob outside the grace period whose handle no
// receipt metadata records. Returns the number of blobs reclaimed.
//
// The referenced set is snapshotted before deleting. A handle referenced at
// snapshot time is never touched, and a handle stored after the snapshot is
// inside the grace period, so a concurrent upload cannot lose its blob.
func (s *OrphanSweeper) SweepOnce(ctx context.Context) (int, error) {
	referenced, err := s.receiptRepo.AllBlobHandles(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list referenced blob handles: %w", err)
	}

	refSet := make(map[string]struct{}, len(referenced))
	for _, h := range referenced {
		refSet[h] = struct{}{}
	}

	blobs, err := s.blobs.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list blobs: %w", err)
	}

	cutoff := time.Now().Add(-s.grace)
	reclaimed := 0
	for _, blob := range blobs {
		if _, ok := refSet[blob.Handle]; ok {
			continue
		}
		if blob.StoredAt.After(cutoff) {
			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return reclaimed, err
		}

		if err := s.blobs.Delete(ctx, blob.Handle); err != nil {
			if errors.Is(err, blobstore.ErrBlobNotFound) {
				continue
			}
			s.logger.Warn("failed to reclaim orphaned blob", "blob_handle", blob.Handle, "error", err)
			continue
		}

		reclaimed++
		s.logger.Info("reclaimed orphaned blob", "blob_handle", blob.Handle, "size_bytes", blob.SizeBytes)
	}

	if reclaimed > 0 {
		s.metrics.RecordOrphansReclaimed(reclaimed)
	}
	return reclaimed, nil
}
