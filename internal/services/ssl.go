package services

import (
	"context"
	"fmt"

	"brand-domain-service/internal/clients"
	"brand-domain-service/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SSLReconciler drives a verified domain toward an issued certificate by
// asking the hosting provider and mapping its certificate state onto the
// domain lifecycle. Without provider credentials activation is simulated so
// the rest of the workflow stays exercisable in development.
type SSLReconciler struct {
	hosting *clients.HostingClient
}

// NewSSLReconciler creates a new SSL reconciler
func NewSSLReconciler(hosting *clients.HostingClient) *SSLReconciler {
	return &SSLReconciler{hosting: hosting}
}

// SSLOutcome is the result of one reconciliation pass
type SSLOutcome struct {
	SSLState      models.SSLState
	Activated     bool
	Failed        bool
	Simulated     bool
	ProviderID    string
	ProviderState string
	Message       string
}

// Reconcile asks the provider for the certificate state, issuing a
// provisioning request first if none is in flight. The outcome says where
// the domain should land; the caller owns the status write.
func (s *SSLReconciler) Reconcile(ctx context.Context, domain *models.Domain) *SSLOutcome {
	if s.hosting == nil || !s.hosting.Configured() {
		return s.simulate(domain)
	}

	var info *clients.SSLInfo
	var err error
	if domain.Status == models.DomainStatusProvisioningSSL {
		// Request already in flight, poll instead of re-issuing.
		info, err = s.hosting.GetSSLStatus(ctx)
	} else {
		info, err = s.hosting.ProvisionSSL(ctx)
	}
	if err != nil {
		log.Warn().Err(err).Str("hostname", domain.Hostname).Msg("Provider SSL call failed")
		return &SSLOutcome{
			SSLState: models.SSLStateFailed,
			Failed:   true,
			Message:  err.Error(),
		}
	}

	return s.mapState(domain, info)
}

func (s *SSLReconciler) mapState(domain *models.Domain, info *clients.SSLInfo) *SSLOutcome {
	outcome := &SSLOutcome{ProviderState: info.State}

	switch info.State {
	case "issued", "active":
		outcome.SSLState = models.SSLStateIssued
		outcome.Activated = true
		outcome.Message = "Certificate issued"
	case "pending", "pending_validation", "provisioning":
		outcome.SSLState = models.SSLStateProvisioning
		outcome.Message = fmt.Sprintf("Certificate provisioning in progress (%s)", info.State)
	case "failed", "error":
		outcome.SSLState = models.SSLStateFailed
		outcome.Failed = true
		outcome.Message = fmt.Sprintf("Certificate provisioning failed (%s)", info.State)
	default:
		// Unknown states stay in provisioning so the poller keeps watching.
		outcome.SSLState = models.SSLStateProvisioning
		outcome.Message = fmt.Sprintf("Certificate state %q, still waiting", info.State)
	}

	log.Debug().
		Str("hostname", domain.Hostname).
		Str("provider_state", info.State).
		Str("ssl_state", string(outcome.SSLState)).
		Msg("Mapped provider certificate state")
	return outcome
}

// simulate activates the domain immediately with a synthetic provider id
func (s *SSLReconciler) simulate(domain *models.Domain) *SSLOutcome {
	outcome := &SSLOutcome{
		SSLState:  models.SSLStateIssued,
		Activated: true,
		Simulated: true,
		Message:   "Certificate issuance simulated (provider not configured)",
	}
	if domain.ProviderDomainID == "" {
		outcome.ProviderID = "sim-" + uuid.New().String()
	}
	log.Info().Str("hostname", domain.Hostname).Msg("Simulating SSL activation, provider not configured")
	return outcome
}
