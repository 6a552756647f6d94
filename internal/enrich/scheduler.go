// Package enrich runs AI tagging in the background after an item upload.
// Enrichment is fire-and-forget: a failed analysis marks the item failed
// and never surfaces to the uploading request.
package enrich

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/shyammm53/wardrobe-backend/pkg/errors"
	"github.com/shyammm53/wardrobe-backend/pkg/logger"
	"github.com/shyammm53/wardrobe-backend/pkg/metrics"
	"github.com/shyammm53/wardrobe-backend/pkg/types"
)

const defaultJobTimeout = 2 * time.Minute

// Analyzer produces AI tags for a stored image.
type Analyzer interface {
	AnalyzeFromPath(ctx context.Context, imagePath string) (*types.AiTags, error)
}

// Store persists enrichment state transitions. Implementations treat a
// missing item as a signal that it was deleted mid-flight.
type Store interface {
	ApplyAnalysis(ctx context.Context, itemID uuid.UUID, tags *types.AiTags) error
	MarkFailed(ctx context.Context, itemID uuid.UUID, message string) error
}

// Scheduler owns the background enrichment goroutines.
type Scheduler struct {
	analyzer Analyzer
	store    Store
	logg     *logger.Logger
	metrics  *metrics.EnrichmentMetrics
	timeout  time.Duration

	wg sync.WaitGroup
}

// NewScheduler wires the analysis client to the item store.
func NewScheduler(analyzer Analyzer, store Store, logg *logger.Logger, m *metrics.EnrichmentMetrics) *Scheduler {
	return &Scheduler{
		analyzer: analyzer,
		store:    store,
		logg:     logg,
		metrics:  m,
		timeout:  defaultJobTimeout,
	}
}

// Schedule kicks off enrichment for an uploaded item. The job runs on a
// detached context so it survives the originating request.
func (s *Scheduler) Schedule(itemID uuid.UUID, imagePath string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if s.logg != nil {
			ctx = s.logg.WithItemID(ctx, itemID.String())
		}

		s.run(ctx, itemID, imagePath)
	}()
}

// Wait blocks until all in-flight enrichment jobs finish. Used during
// shutdown.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context, itemID uuid.UUID, imagePath string) {
	start := time.Now()

	tags, err := s.analyzer.AnalyzeFromPath(ctx, imagePath)
	s.metrics.ObserveDuration("analyze", time.Since(start))

	if err != nil {
		s.metrics.IncFailure("analyze")
		s.warn(ctx, "enrich.analysis_failed", err)

		if ferr := s.store.MarkFailed(ctx, itemID, err.Error()); ferr != nil && !pkgerrors.IsCode(ferr, pkgerrors.CodeNotFound) {
			s.warn(ctx, "enrich.mark_failed_errored", ferr)
		}
		return
	}

	if err := s.store.ApplyAnalysis(ctx, itemID, tags); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return
		}
		s.metrics.IncFailure("persist")
		s.warn(ctx, "enrich.persist_failed", err)
		return
	}

	s.metrics.IncSuccess("analyze")
	if s.logg != nil {
		s.logg.Info(ctx, "enrich.complete")
	}
}

func (s *Scheduler) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}
