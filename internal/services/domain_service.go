package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"brand-domain-service/internal/clients"
	"brand-domain-service/internal/config"
	"brand-domain-service/internal/events"
	"brand-domain-service/internal/metrics"
	"brand-domain-service/internal/models"
	"brand-domain-service/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

var (
	// ErrInvalidState is returned when an operation is requested for a
	// domain whose current status does not allow it.
	ErrInvalidState = errors.New("operation not allowed in current domain state")

	// ErrInvalidHostname is returned for malformed or reserved hostnames.
	ErrInvalidHostname = errors.New("invalid hostname")
)

// DomainService orchestrates the custom domain lifecycle. Each operation is
// short-lived and idempotent: it reads the domain, talks to at most one
// external system, and lands the domain on a stable status through a guarded
// transition. Pollers re-invoke the same operations.
type DomainService struct {
	cfg         *config.Config
	repo        *repository.DomainRepository
	resolver    *RequirementResolver
	verifier    *OwnershipVerifier
	ssl         *SSLReconciler
	hosting     *clients.HostingClient
	brandClient *clients.BrandClient
	redisClient *redis.Client
	publisher   *events.Publisher
}

// NewDomainService creates a new domain service
func NewDomainService(
	cfg *config.Config,
	repo *repository.DomainRepository,
	resolver *RequirementResolver,
	verifier *OwnershipVerifier,
	ssl *SSLReconciler,
	hosting *clients.HostingClient,
	brandClient *clients.BrandClient,
	redisClient *redis.Client,
	publisher *events.Publisher,
) *DomainService {
	return &DomainService{
		cfg:         cfg,
		repo:        repo,
		resolver:    resolver,
		verifier:    verifier,
		ssl:         ssl,
		hosting:     hosting,
		brandClient: brandClient,
		redisClient: redisClient,
		publisher:   publisher,
	}
}

// GetRequirements computes the DNS records for a hostname without touching
// stored state. Safe to call before a domain exists.
func (s *DomainService) GetRequirements(ctx context.Context, hostname, token string) (*models.RequirementsResponse, error) {
	normalized := NormalizeHostname(hostname)
	if err := s.resolver.ValidateHostname(normalized); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHostname, err)
	}
	return s.resolver.Resolve(ctx, normalized, token), nil
}

// CreateDomain attaches a new custom domain to a brand in pending state
func (s *DomainService) CreateDomain(ctx context.Context, brandID uuid.UUID, req *models.CreateDomainRequest, createdBy uuid.UUID) (*models.DomainResponse, error) {
	hostname := NormalizeHostname(req.Hostname)
	if err := s.resolver.ValidateHostname(hostname); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHostname, err)
	}

	exists, err := s.repo.HostnameExists(ctx, hostname)
	if err != nil {
		return nil, fmt.Errorf("failed to check hostname: %w", err)
	}
	if exists {
		return nil, repository.ErrDomainAlreadyExists
	}

	currentCount, err := s.repo.CountByBrandID(ctx, brandID)
	if err != nil {
		return nil, fmt.Errorf("failed to count domains: %w", err)
	}

	canAdd, maxAllowed, err := s.brandClient.CanAddDomain(ctx, brandID, currentCount)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to check brand limits, using default")
		maxAllowed = s.cfg.Limits.MaxDomainsPerBrand
		canAdd = currentCount < int64(maxAllowed)
	}
	if !canAdd {
		return nil, fmt.Errorf("%w: maximum %d domains allowed", repository.ErrDomainLimitExceeded, maxAllowed)
	}

	domain := &models.Domain{
		BrandID:    brandID,
		Hostname:   hostname,
		DomainType: s.resolver.Classify(hostname),
		Status:     models.DomainStatusPending,
		CreatedBy:  createdBy,
	}

	if err := s.repo.Create(ctx, domain); err != nil {
		return nil, fmt.Errorf("failed to create domain: %w", err)
	}

	// Snapshot the required records for display. The token is only known
	// after BeforeCreate ran.
	requirements := s.resolver.Resolve(ctx, hostname, domain.VerificationToken)
	if data, err := json.Marshal(requirements.Records); err == nil {
		domain.DNSRecords = data
		if err := s.repo.Update(ctx, domain); err != nil {
			log.Warn().Err(err).Str("hostname", hostname).Msg("Failed to store dns records snapshot")
		}
	}

	if req.SetPrimary {
		if err := s.repo.SetPrimary(ctx, brandID, domain.ID); err != nil {
			log.Warn().Err(err).Msg("Failed to set domain as primary")
		} else {
			domain.IsPrimary = true
		}
	}

	metrics.StatusTransitions.WithLabelValues(string(models.EventCreated), string(domain.Status)).Inc()
	s.publishEvent(string(models.EventCreated), domain, "", "Domain created, awaiting setup")

	return s.toDomainResponse(domain), nil
}

// RegisterDomain attaches the hostname to the hosting provider's site.
// Success lands on verifying; a provider rejection lands on failed with the
// provider's message preserved verbatim.
func (s *DomainService) RegisterDomain(ctx context.Context, brandID, domainID uuid.UUID, performedBy *uuid.UUID) (*models.RegisterResponse, error) {
	domain, err := s.getOwned(ctx, brandID, domainID)
	if err != nil {
		return nil, err
	}

	switch domain.Status {
	case models.DomainStatusPending, models.DomainStatusVerifying, models.DomainStatusFailed:
	default:
		return nil, fmt.Errorf("%w: cannot register host from status %s", ErrInvalidState, domain.Status)
	}

	previous := domain.Status
	resp := &models.RegisterResponse{DomainID: domain.ID, Hostname: domain.Hostname}

	if !s.hosting.Configured() {
		// No provider: synthesize a registration so the rest of the
		// lifecycle stays exercisable.
		providerID := domain.ProviderDomainID
		if providerID == "" {
			providerID = "sim-" + uuid.New().String()
		}
		details, _ := json.Marshal(map[string]any{"provider_domain_id": providerID, "simulated": true})
		err = s.repo.Transition(ctx, domain, models.EventHostRegistered, map[string]interface{}{
			"provider_domain_id": providerID,
			"error_message":      "",
		}, details, performedBy)
		if err != nil {
			return s.registerAfterTransition(ctx, domain, resp, err)
		}
		metrics.StatusTransitions.WithLabelValues(string(models.EventHostRegistered), string(domain.Status)).Inc()
		domain.ProviderDomainID = providerID
		resp.Status = domain.Status
		resp.ProviderDomainID = providerID
		resp.Message = "Host registration simulated (provider not configured)"
		s.publishEvent(string(models.EventHostRegistered), domain, string(previous), resp.Message)
		return resp, nil
	}

	registered, provErr := s.hosting.RegisterDomain(ctx, domain.Hostname)
	if provErr != nil {
		metrics.ProviderCalls.WithLabelValues("register_domain", "error").Inc()
		return s.failRegistration(ctx, domain, resp, previous, provErr, performedBy)
	}
	metrics.ProviderCalls.WithLabelValues("register_domain", "success").Inc()

	records := providerRecords(registered.DNSRecords)
	updates := map[string]interface{}{
		"provider_domain_id": registered.ID,
		"error_message":      "",
	}
	if len(records) > 0 {
		if data, err := json.Marshal(records); err == nil {
			updates["dns_records"] = datatypes.JSON(data)
		}
	}

	details, _ := json.Marshal(map[string]any{"provider_domain_id": registered.ID})
	if err := s.repo.Transition(ctx, domain, models.EventHostRegistered, updates, details, performedBy); err != nil {
		return s.registerAfterTransition(ctx, domain, resp, err)
	}
	metrics.StatusTransitions.WithLabelValues(string(models.EventHostRegistered), string(domain.Status)).Inc()

	domain.ProviderDomainID = registered.ID
	resp.Status = domain.Status
	resp.ProviderDomainID = registered.ID
	resp.Records = records
	resp.Message = "Host registered, awaiting DNS verification"
	s.publishEvent(string(models.EventHostRegistered), domain, string(previous), resp.Message)
	return resp, nil
}

func (s *DomainService) failRegistration(ctx context.Context, domain *models.Domain, resp *models.RegisterResponse, previous models.DomainStatus, provErr error, performedBy *uuid.UUID) (*models.RegisterResponse, error) {
	message := provErr.Error()
	detailPayload := map[string]any{"error": message}
	var perr *clients.ProviderError
	if errors.As(provErr, &perr) {
		message = perr.Message
		detailPayload["provider_status"] = perr.StatusCode
		detailPayload["provider_body"] = perr.Body
	}
	details, _ := json.Marshal(detailPayload)

	err := s.repo.Transition(ctx, domain, models.EventError, map[string]interface{}{
		"error_message": truncate(message, 500),
	}, details, performedBy)
	if err != nil {
		return s.registerAfterTransition(ctx, domain, resp, err)
	}
	metrics.StatusTransitions.WithLabelValues(string(models.EventError), string(domain.Status)).Inc()

	resp.Status = domain.Status
	resp.Message = message
	s.publishEvent(string(models.EventError), domain, string(previous), message)
	return resp, nil
}

// registerAfterTransition resolves a transition error: a stale guard means a
// concurrent operation won, so the current row is returned as the outcome.
func (s *DomainService) registerAfterTransition(ctx context.Context, domain *models.Domain, resp *models.RegisterResponse, err error) (*models.RegisterResponse, error) {
	if !errors.Is(err, repository.ErrStaleTransition) {
		return nil, err
	}
	metrics.StaleTransitions.Inc()
	current, getErr := s.repo.GetByID(ctx, domain.ID)
	if getErr != nil {
		return nil, getErr
	}
	resp.Status = current.Status
	resp.ProviderDomainID = current.ProviderDomainID
	resp.Message = "Domain was updated concurrently"
	return resp, nil
}

// VerifyOwnership checks the verification TXT record. Idempotent: a domain
// at or past verified returns success without another lookup or event.
func (s *DomainService) VerifyOwnership(ctx context.Context, brandID, domainID uuid.UUID, performedBy *uuid.UUID) (*models.VerifyResponse, error) {
	domain, err := s.getOwned(ctx, brandID, domainID)
	if err != nil {
		return nil, err
	}

	resp := &models.VerifyResponse{DomainID: domain.ID, Hostname: domain.Hostname}

	switch domain.Status {
	case models.DomainStatusVerified, models.DomainStatusProvisioningSSL, models.DomainStatusActive:
		resp.Verified = true
		resp.Status = domain.Status
		resp.Message = "Domain ownership already verified"
		return resp, nil
	}

	if !domain.CanRetryVerification() {
		return nil, fmt.Errorf("%w: cannot verify from status %s", ErrInvalidState, domain.Status)
	}

	previous := domain.Status
	outcome, err := s.verifier.Check(ctx, domain)
	if err != nil {
		return nil, err
	}

	resp.Message = outcome.Message
	resp.Expected = outcome.Expected
	resp.Found = outcome.Found

	if outcome.Verified {
		metrics.VerificationChecks.WithLabelValues("verified").Inc()
		now := time.Now()
		details, _ := json.Marshal(map[string]any{"found": outcome.Found})
		err = s.repo.Transition(ctx, domain, models.EventDNSVerified, map[string]interface{}{
			"verified_at":   &now,
			"error_message": "",
		}, details, performedBy)
		if err != nil {
			if errors.Is(err, repository.ErrStaleTransition) {
				metrics.StaleTransitions.Inc()
				return s.reloadVerifyResponse(ctx, domain.ID, resp)
			}
			return nil, err
		}
		metrics.StatusTransitions.WithLabelValues(string(models.EventDNSVerified), string(domain.Status)).Inc()
		resp.Verified = true
		resp.Status = domain.Status
		s.publishEvent(string(models.EventDNSVerified), domain, string(previous), outcome.Message)
		return resp, nil
	}

	if outcome.LookupFailed {
		metrics.VerificationChecks.WithLabelValues("lookup_failed").Inc()
	} else {
		metrics.VerificationChecks.WithLabelValues("mismatch").Inc()
	}

	// A failed check parks the domain back on pending so it never sticks
	// on the transient verifying state.
	details, _ := json.Marshal(map[string]any{
		"expected":      outcome.Expected,
		"found":         outcome.Found,
		"lookup_failed": outcome.LookupFailed,
		"message":       outcome.Message,
	})
	err = s.repo.Transition(ctx, domain, models.EventVerificationAttempt, map[string]interface{}{
		"error_message": truncate(outcome.Message, 500),
	}, details, performedBy)
	if err != nil {
		if errors.Is(err, repository.ErrStaleTransition) {
			metrics.StaleTransitions.Inc()
			return s.reloadVerifyResponse(ctx, domain.ID, resp)
		}
		return nil, err
	}
	metrics.StatusTransitions.WithLabelValues(string(models.EventVerificationAttempt), string(domain.Status)).Inc()
	resp.Status = domain.Status
	return resp, nil
}

func (s *DomainService) reloadVerifyResponse(ctx context.Context, domainID uuid.UUID, resp *models.VerifyResponse) (*models.VerifyResponse, error) {
	current, err := s.repo.GetByID(ctx, domainID)
	if err != nil {
		return nil, err
	}
	resp.Status = current.Status
	resp.Verified = current.VerifiedAt != nil
	resp.Message = "Domain was updated concurrently"
	return resp, nil
}

// RequestSSL reconciles the domain toward an issued certificate. Repeat
// calls while the provider works are cheap: nothing is written unless the
// observed certificate state changed.
func (s *DomainService) RequestSSL(ctx context.Context, brandID, domainID uuid.UUID, performedBy *uuid.UUID) (*models.SSLResponse, error) {
	domain, err := s.getOwned(ctx, brandID, domainID)
	if err != nil {
		return nil, err
	}

	resp := &models.SSLResponse{DomainID: domain.ID, Hostname: domain.Hostname}

	if domain.Status == models.DomainStatusActive {
		resp.Status = domain.Status
		resp.SSLStatus = domain.SSLStatus
		resp.Message = "Domain already active"
		return resp, nil
	}

	if !domain.CanRequestSSL() {
		return nil, fmt.Errorf("%w: cannot provision SSL from status %s", ErrInvalidState, domain.Status)
	}

	previous := domain.Status
	outcome := s.ssl.Reconcile(ctx, domain)
	resp.Simulated = outcome.Simulated
	resp.Message = outcome.Message

	switch {
	case outcome.Activated:
		updates := map[string]interface{}{
			"ssl_status":    outcome.SSLState,
			"error_message": "",
		}
		if outcome.ProviderID != "" {
			updates["provider_domain_id"] = outcome.ProviderID
		}
		details, _ := json.Marshal(map[string]any{
			"ssl_state": outcome.SSLState,
			"simulated": outcome.Simulated,
		})
		err = s.repo.Transition(ctx, domain, models.EventActivated, updates, details, performedBy)
		if err == nil {
			metrics.StatusTransitions.WithLabelValues(string(models.EventActivated), string(domain.Status)).Inc()
			domain.SSLStatus = outcome.SSLState
			if outcome.ProviderID != "" {
				domain.ProviderDomainID = outcome.ProviderID
			}
			s.invalidateResolveCache(ctx, domain.Hostname)
			s.publishEvent(string(models.EventActivated), domain, string(previous), outcome.Message)
			s.brandClient.NotifyDomainStatusChange(ctx, domain.BrandID, domain.Hostname, string(domain.Status))
		}

	case outcome.Failed:
		details, _ := json.Marshal(map[string]any{"ssl_state": outcome.SSLState, "error": outcome.Message})
		err = s.repo.Transition(ctx, domain, models.EventError, map[string]interface{}{
			"ssl_status":    outcome.SSLState,
			"error_message": truncate(outcome.Message, 500),
		}, details, performedBy)
		if err == nil {
			metrics.StatusTransitions.WithLabelValues(string(models.EventError), string(domain.Status)).Inc()
			domain.SSLStatus = outcome.SSLState
			s.publishEvent(string(models.EventError), domain, string(previous), outcome.Message)
		}

	default:
		// Still provisioning. Only write when something actually changed.
		if domain.Status == models.DomainStatusProvisioningSSL && domain.SSLStatus == outcome.SSLState {
			resp.Status = domain.Status
			resp.SSLStatus = domain.SSLStatus
			return resp, nil
		}
		details, _ := json.Marshal(map[string]any{"ssl_state": outcome.SSLState, "provider_state": outcome.ProviderState})
		err = s.repo.Transition(ctx, domain, models.EventSSLProvisioning, map[string]interface{}{
			"ssl_status": outcome.SSLState,
		}, details, performedBy)
		if err == nil {
			metrics.StatusTransitions.WithLabelValues(string(models.EventSSLProvisioning), string(domain.Status)).Inc()
			domain.SSLStatus = outcome.SSLState
			s.publishEvent(string(models.EventSSLProvisioning), domain, string(previous), outcome.Message)
		}
	}

	if err != nil {
		if errors.Is(err, repository.ErrStaleTransition) {
			metrics.StaleTransitions.Inc()
			current, getErr := s.repo.GetByID(ctx, domain.ID)
			if getErr != nil {
				return nil, getErr
			}
			resp.Status = current.Status
			resp.SSLStatus = current.SSLStatus
			resp.Message = "Domain was updated concurrently"
			return resp, nil
		}
		return nil, err
	}

	resp.Status = domain.Status
	resp.SSLStatus = domain.SSLStatus
	return resp, nil
}

// RemoveDomain hard-deletes a domain. Provider deregistration is attempted
// first but never blocks the local delete; its failure is reported back to
// the caller instead.
func (s *DomainService) RemoveDomain(ctx context.Context, brandID, domainID uuid.UUID, performedBy *uuid.UUID) (*models.RemoveResponse, error) {
	domain, err := s.getOwned(ctx, brandID, domainID)
	if err != nil {
		return nil, err
	}

	resp := &models.RemoveResponse{ProviderRemoved: true}

	if domain.ProviderDomainID != "" && !isSimulatedProviderID(domain.ProviderDomainID) && s.hosting.Configured() {
		if err := s.hosting.DeleteDomain(ctx, domain.ProviderDomainID); err != nil {
			metrics.ProviderCalls.WithLabelValues("delete_domain", "error").Inc()
			log.Warn().Err(err).Str("hostname", domain.Hostname).Msg("Provider deregistration failed, deleting locally anyway")
			resp.ProviderRemoved = false
			resp.ProviderError = err.Error()
		} else {
			metrics.ProviderCalls.WithLabelValues("delete_domain", "success").Inc()
		}
	}

	details, _ := json.Marshal(map[string]any{
		"provider_removed": resp.ProviderRemoved,
		"provider_error":   resp.ProviderError,
	})
	if err := s.repo.DeleteWithEvents(ctx, domain, details, performedBy); err != nil {
		return nil, fmt.Errorf("failed to delete domain: %w", err)
	}

	s.invalidateResolveCache(ctx, domain.Hostname)
	s.publishEvent(string(models.EventDeleted), domain, string(domain.Status), "Domain removed")
	s.brandClient.NotifyDomainStatusChange(ctx, domain.BrandID, domain.Hostname, "removed")

	resp.Success = true
	return resp, nil
}

// GetDomain retrieves a domain by ID
func (s *DomainService) GetDomain(ctx context.Context, brandID, domainID uuid.UUID) (*models.DomainResponse, error) {
	domain, err := s.getOwned(ctx, brandID, domainID)
	if err != nil {
		return nil, err
	}
	return s.toDomainResponse(domain), nil
}

// ListDomains lists domains for a brand
func (s *DomainService) ListDomains(ctx context.Context, brandID uuid.UUID, limit, offset int) (*models.DomainListResponse, error) {
	domains, total, err := s.repo.GetByBrandID(ctx, brandID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}

	response := &models.DomainListResponse{
		Domains: make([]models.DomainResponse, len(domains)),
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+limit) < total,
	}
	for i, d := range domains {
		response.Domains[i] = *s.toDomainResponse(&d)
	}
	return response, nil
}

// SetPrimary marks a domain as the brand's primary
func (s *DomainService) SetPrimary(ctx context.Context, brandID, domainID uuid.UUID) error {
	if _, err := s.getOwned(ctx, brandID, domainID); err != nil {
		return err
	}
	return s.repo.SetPrimary(ctx, brandID, domainID)
}

// GetEvents returns a domain's audit log in append order
func (s *DomainService) GetEvents(ctx context.Context, brandID, domainID uuid.UUID, limit int) (*models.EventListResponse, error) {
	if _, err := s.getOwned(ctx, brandID, domainID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 100
	}

	eventsList, total, err := s.repo.GetEvents(ctx, domainID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}

	response := &models.EventListResponse{
		DomainID: domainID,
		Events:   make([]models.EventResponse, len(eventsList)),
		Total:    total,
	}
	for i, ev := range eventsList {
		item := models.EventResponse{
			ID:          ev.ID,
			EventType:   ev.EventType,
			PerformedBy: ev.PerformedBy,
			CreatedAt:   ev.CreatedAt.Format(time.RFC3339),
		}
		if len(ev.Details) > 0 {
			var details any
			if err := json.Unmarshal(ev.Details, &details); err == nil {
				item.Details = details
			}
		}
		response.Events[i] = item
	}
	return response, nil
}

// ResolveHostname resolves a hostname to its brand for internal services.
// Cached in redis for five minutes.
func (s *DomainService) ResolveHostname(ctx context.Context, hostname string) (*models.InternalResolveResponse, error) {
	hostname = NormalizeHostname(hostname)

	if cached := s.getResolveFromCache(ctx, hostname); cached != nil {
		return cached, nil
	}

	domain, err := s.repo.GetByHostname(ctx, hostname)
	if err != nil {
		return nil, err
	}

	response := &models.InternalResolveResponse{
		Hostname:  domain.Hostname,
		BrandID:   domain.BrandID,
		DomainID:  domain.ID,
		IsActive:  domain.IsActive(),
		IsPrimary: domain.IsPrimary,
	}
	s.cacheResolve(ctx, response)
	return response, nil
}

// Helper methods

func (s *DomainService) getOwned(ctx context.Context, brandID, domainID uuid.UUID) (*models.Domain, error) {
	domain, err := s.repo.GetByID(ctx, domainID)
	if err != nil {
		return nil, err
	}
	if domain.BrandID != brandID {
		return nil, repository.ErrDomainNotFound
	}
	return domain, nil
}

func (s *DomainService) toDomainResponse(domain *models.Domain) *models.DomainResponse {
	response := &models.DomainResponse{
		ID:               domain.ID,
		BrandID:          domain.BrandID,
		Hostname:         domain.Hostname,
		DomainType:       domain.DomainType,
		Status:           domain.Status,
		SSLStatus:        domain.SSLStatus,
		ProviderDomainID: domain.ProviderDomainID,
		ErrorMessage:     domain.ErrorMessage,
		IsPrimary:        domain.IsPrimary,
		CreatedAt:        domain.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        domain.UpdatedAt.Format(time.RFC3339),
	}

	if domain.VerifiedAt != nil {
		v := domain.VerifiedAt.Format(time.RFC3339)
		response.VerifiedAt = &v
	}

	if len(domain.DNSRecords) > 0 {
		var records []models.DNSRecord
		if err := json.Unmarshal(domain.DNSRecords, &records); err == nil {
			response.DNSRecords = records
		}
	}

	return response
}

func (s *DomainService) cacheResolve(ctx context.Context, resolve *models.InternalResolveResponse) {
	if s.redisClient == nil {
		return
	}

	data, err := json.Marshal(resolve)
	if err != nil {
		return
	}
	key := fmt.Sprintf("domain:resolve:%s", resolve.Hostname)
	if err := s.redisClient.Set(ctx, key, data, 5*time.Minute).Err(); err != nil {
		log.Warn().Err(err).Str("hostname", resolve.Hostname).Msg("Failed to cache hostname resolution")
	}
}

func (s *DomainService) getResolveFromCache(ctx context.Context, hostname string) *models.InternalResolveResponse {
	if s.redisClient == nil {
		return nil
	}

	key := fmt.Sprintf("domain:resolve:%s", hostname)
	data, err := s.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}

	var resolve models.InternalResolveResponse
	if err := json.Unmarshal(data, &resolve); err != nil {
		return nil
	}
	return &resolve
}

func (s *DomainService) invalidateResolveCache(ctx context.Context, hostname string) {
	if s.redisClient == nil {
		return
	}
	s.redisClient.Del(ctx, fmt.Sprintf("domain:resolve:%s", hostname))
}

// publishEvent publishes a lifecycle event to NATS, asynchronously so the
// main flow never blocks on the broker.
func (s *DomainService) publishEvent(eventType string, domain *models.Domain, previousStatus, message string) {
	if s.publisher == nil {
		return
	}

	msg := &events.DomainEventMessage{
		EventType:      eventType,
		DomainID:       domain.ID.String(),
		BrandID:        domain.BrandID.String(),
		Hostname:       domain.Hostname,
		Status:         string(domain.Status),
		PreviousStatus: previousStatus,
		SSLStatus:      string(domain.SSLStatus),
		Message:        message,
	}

	go func() {
		if err := s.publisher.Publish(msg); err != nil {
			log.Error().Err(err).
				Str("event_type", eventType).
				Str("hostname", domain.Hostname).
				Msg("Failed to publish domain event")
		}
	}()
}

func providerRecords(entries []clients.ProviderDNSEntry) []models.DNSRecord {
	records := make([]models.DNSRecord, 0, len(entries))
	for _, entry := range entries {
		ttl := entry.TTL
		if ttl == 0 {
			ttl = 3600
		}
		records = append(records, models.DNSRecord{
			RecordType: entry.Type,
			Host:       entry.Host,
			Value:      entry.Value,
			TTL:        ttl,
			Purpose:    "routing",
		})
	}
	return records
}

func isSimulatedProviderID(id string) bool {
	return len(id) > 4 && id[:4] == "sim-"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Back up to a rune boundary so a multi-byte character is never split.
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
