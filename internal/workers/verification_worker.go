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

// VerificationWorker re-checks ownership for domains awaiting verification
type VerificationWorker struct {
	cfg       *config.Config
	repo      *repository.DomainRepository
	domainSvc *services.DomainService
	stopCh    chan struct{}
}

// NewVerificationWorker creates a new verification worker
func NewVerificationWorker(
	cfg *config.Config,
	repo *repository.DomainRepository,
	domainSvc *services.DomainService,
) *VerificationWorker {
	return &VerificationWorker{
		cfg:       cfg,
		repo:      repo,
		domainSvc: domainSvc,
		stopCh:    make(chan struct{}),
	}
}

// Start starts the verification worker
func (w *VerificationWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.cfg.Workers.VerificationInterval).Msg("Starting verification worker")

	ticker := time.NewTicker(w.cfg.Workers.VerificationInterval)
	defer ticker.Stop()

	// Run immediately on start
	w.run(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Verification worker stopping (context cancelled)")
			return
		case <-w.stopCh:
			log.Info().Msg("Verification worker stopped")
			return
		case <-ticker.C:
			w.run(ctx)
		}
	}
}

// Stop stops the worker
func (w *VerificationWorker) Stop() {
	close(w.stopCh)
}

func (w *VerificationWorker) run(ctx context.Context) {
	log.Debug().Msg("Running ownership verification sweep")

	domains, err := w.repo.GetPendingVerification(ctx, 50)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get domains pending verification")
		return
	}

	if len(domains) == 0 {
		return
	}

	log.Info().Int("count", len(domains)).Msg("Processing domains for ownership verification")

	for _, domain := range domains {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.verifyDomain(ctx, &domain)

		// Small delay between checks to avoid resolver rate limiting
		time.Sleep(2 * time.Second)
	}
}

func (w *VerificationWorker) verifyDomain(ctx context.Context, domain *models.Domain) {
	log.Debug().Str("hostname", domain.Hostname).Msg("Checking domain ownership")

	result, err := w.domainSvc.VerifyOwnership(ctx, domain.BrandID, domain.ID, nil)
	if err != nil {
		log.Error().Err(err).Str("hostname", domain.Hostname).Msg("Ownership check failed")
		return
	}

	if result.Verified {
		log.Info().Str("hostname", domain.Hostname).Msg("Domain ownership verified")
	} else {
		log.Debug().Str("hostname", domain.Hostname).Str("message", result.Message).Msg("Domain not yet verified")
	}
}
