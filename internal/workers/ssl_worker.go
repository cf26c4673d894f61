package workers

import (
	"context"
	"time"

	"brand-domain-service/internal/config"
	"brand-domain-service/internal/models"
	"brand-domain-service/internal/repository"
	"brand-domain-service/internal/services"

	"github.com/rs/zerolog/log"
)

// SSLWorker polls certificate state for domains stuck in SSL provisioning
type SSLWorker struct {
	cfg       *config.Config
	repo      *repository.DomainRepository
	domainSvc *services.DomainService
	stopCh    chan struct{}
}

// NewSSLWorker creates a new SSL worker
func NewSSLWorker(
	cfg *config.Config,
	repo *repository.DomainRepository,
	domainSvc *services.DomainService,
) *SSLWorker {
	return &SSLWorker{
		cfg:       cfg,
		repo:      repo,
		domainSvc: domainSvc,
		stopCh:    make(chan struct{}),
	}
}

// Start starts the SSL worker
func (w *SSLWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.cfg.Workers.SSLInterval).Msg("Starting SSL worker")

	ticker := time.NewTicker(w.cfg.Workers.SSLInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("SSL worker stopping (context cancelled)")
			return
		case <-w.stopCh:
			log.Info().Msg("SSL worker stopped")
			return
		case <-ticker.C:
			w.run(ctx)
		}
	}
}

// Stop stops the worker
func (w *SSLWorker) Stop() {
	close(w.stopCh)
}

func (w *SSLWorker) run(ctx context.Context) {
	log.Debug().Msg("Running SSL provisioning sweep")

	domains, err := w.repo.GetProvisioning(ctx, 50)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get provisioning domains")
		return
	}

	if len(domains) == 0 {
		return
	}

	log.Info().Int("count", len(domains)).Msg("Polling certificate state for provisioning domains")

	for _, domain := range domains {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.pollDomain(ctx, &domain)
	}
}

func (w *SSLWorker) pollDomain(ctx context.Context, domain *models.Domain) {
	result, err := w.domainSvc.RequestSSL(ctx, domain.BrandID, domain.ID, nil)
	if err != nil {
		log.Error().Err(err).Str("hostname", domain.Hostname).Msg("SSL poll failed")
		return
	}

	if result.Status == models.DomainStatusActive {
		log.Info().Str("hostname", domain.Hostname).Msg("Domain activated")
	} else {
		log.Debug().
			Str("hostname", domain.Hostname).
			Str("ssl_status", string(result.SSLStatus)).
			Msg("Certificate still provisioning")
	}
}
