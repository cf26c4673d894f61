package workers

import (
	"context"
	"time"

	"brand-domain-service/internal/config"
	"brand-domain-service/internal/repository"

	"github.com/rs/zerolog/log"
)

// CleanupWorker prunes old audit events
type CleanupWorker struct {
	cfg    *config.Config
	repo   *repository.DomainRepository
	stopCh chan struct{}
}

// NewCleanupWorker creates a new cleanup worker
func NewCleanupWorker(
	cfg *config.Config,
	repo *repository.DomainRepository,
) *CleanupWorker {
	return &CleanupWorker{
		cfg:    cfg,
		repo:   repo,
		stopCh: make(chan struct{}),
	}
}

// Start starts the cleanup worker
func (w *CleanupWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.cfg.Workers.CleanupInterval).Msg("Starting cleanup worker")

	ticker := time.NewTicker(w.cfg.Workers.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Cleanup worker stopping (context cancelled)")
			return
		case <-w.stopCh:
			log.Info().Msg("Cleanup worker stopped")
			return
		case <-ticker.C:
			w.run(ctx)
		}
	}
}

// Stop stops the worker
func (w *CleanupWorker) Stop() {
	close(w.stopCh)
}

func (w *CleanupWorker) run(ctx context.Context) {
	log.Debug().Msg("Running event cleanup")

	deleted, err := w.repo.CleanupOldEvents(ctx, w.cfg.Workers.EventRetention)
	if err != nil {
		log.Error().Err(err).Msg("Failed to cleanup old events")
	} else if deleted > 0 {
		log.Info().Int64("deleted", deleted).Msg("Cleaned up old domain events")
	}
}
