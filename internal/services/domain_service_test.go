package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"brand-domain-service/internal/clients"
	"brand-domain-service/internal/config"
	"brand-domain-service/internal/models"
	"brand-domain-service/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type serviceHarness struct {
	svc  *DomainService
	repo *repository.DomainRepository
	cfg  *config.Config

	mu      sync.Mutex
	txt     string
	dohDown bool
}

// setTXT controls what the fake DoH resolver answers for TXT lookups.
// Empty means NXDOMAIN.
func (h *serviceHarness) setTXT(value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.txt = value
}

// failDoH makes the fake resolver answer with a server error
func (h *serviceHarness) failDoH(down bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dohDown = down
}

func newServiceHarness(t *testing.T, cfg *config.Config) *serviceHarness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Domain{}, &models.DomainEvent{}))

	h := &serviceHarness{cfg: cfg}

	dohServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		value := h.txt
		down := h.dohDown
		h.mu.Unlock()
		if down {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		if value == "" {
			w.Write([]byte(`{"Status":3}`))
			return
		}
		w.Write([]byte(`{"Status":0,"Answer":[{"name":"` + r.URL.Query().Get("name") + `","type":16,"TTL":300,"data":"\"` + value + `\""}]}`))
	}))
	t.Cleanup(dohServer.Close)

	hosting := clients.NewHostingClient(&cfg.Provider)
	resolver := NewRequirementResolver(cfg, hosting)
	verifier := NewOwnershipVerifier(resolver, clients.NewDoHClient(dohServer.URL))
	ssl := NewSSLReconciler(hosting)
	brand := clients.NewBrandClient(cfg)

	h.repo = repository.NewDomainRepository(db)
	h.svc = NewDomainService(cfg, h.repo, resolver, verifier, ssl, hosting, brand, nil, nil)
	return h
}

func TestDomainLifecycleSimulated(t *testing.T) {
	h := newServiceHarness(t, testConfig())
	ctx := context.Background()
	brandID := uuid.New()
	userID := uuid.New()

	// Attach.
	created, err := h.svc.CreateDomain(ctx, brandID, &models.CreateDomainRequest{Hostname: "Shop.Example.Com"}, userID)
	require.NoError(t, err)
	assert.Equal(t, "shop.example.com", created.Hostname)
	assert.Equal(t, models.DomainStatusPending, created.Status)
	assert.Equal(t, models.DomainTypeSubdomain, created.DomainType)

	stored, err := h.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotEmpty(t, stored.VerificationToken)

	// The snapshot includes routing and verification records.
	require.Len(t, created.DNSRecords, 2)
	assert.Equal(t, "CNAME", created.DNSRecords[0].RecordType)
	assert.Equal(t, "TXT", created.DNSRecords[1].RecordType)
	assert.Equal(t, stored.VerificationToken, created.DNSRecords[1].Value)

	// Register (simulated, no provider credentials).
	registered, err := h.svc.RegisterDomain(ctx, brandID, created.ID, &userID)
	require.NoError(t, err)
	assert.Equal(t, models.DomainStatusVerifying, registered.Status)
	assert.True(t, strings.HasPrefix(registered.ProviderDomainID, "sim-"))

	// Verify ownership once the TXT record appears.
	h.setTXT(stored.VerificationToken)
	verified, err := h.svc.VerifyOwnership(ctx, brandID, created.ID, &userID)
	require.NoError(t, err)
	assert.True(t, verified.Verified)
	assert.Equal(t, models.DomainStatusVerified, verified.Status)

	// Repeat verification is a no-op success.
	eventsBefore, err := h.svc.GetEvents(ctx, brandID, created.ID, 100)
	require.NoError(t, err)
	again, err := h.svc.VerifyOwnership(ctx, brandID, created.ID, &userID)
	require.NoError(t, err)
	assert.True(t, again.Verified)
	assert.Equal(t, "Domain ownership already verified", again.Message)
	eventsAfter, err := h.svc.GetEvents(ctx, brandID, created.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, eventsBefore.Total, eventsAfter.Total)

	// SSL activation (simulated).
	sslResp, err := h.svc.RequestSSL(ctx, brandID, created.ID, &userID)
	require.NoError(t, err)
	assert.True(t, sslResp.Simulated)
	assert.Equal(t, models.DomainStatusActive, sslResp.Status)
	assert.Equal(t, models.SSLStateIssued, sslResp.SSLStatus)

	// Repeat SSL request on an active domain is a no-op success.
	sslAgain, err := h.svc.RequestSSL(ctx, brandID, created.ID, &userID)
	require.NoError(t, err)
	assert.Equal(t, models.DomainStatusActive, sslAgain.Status)

	// The audit log replays to the stored status.
	events, err := h.svc.GetEvents(ctx, brandID, created.ID, 100)
	require.NoError(t, err)
	types := make([]models.EventType, len(events.Events))
	for i, ev := range events.Events {
		types[i] = ev.EventType
	}
	assert.Equal(t, []models.EventType{
		models.EventCreated,
		models.EventHostRegistered,
		models.EventDNSVerified,
		models.EventActivated,
	}, types)

	// Internal resolution sees the active domain.
	resolved, err := h.svc.ResolveHostname(ctx, "shop.example.com")
	require.NoError(t, err)
	assert.True(t, resolved.IsActive)
	assert.Equal(t, brandID, resolved.BrandID)

	// Removal hard-deletes domain and log.
	removed, err := h.svc.RemoveDomain(ctx, brandID, created.ID, &userID)
	require.NoError(t, err)
	assert.True(t, removed.Success)
	assert.True(t, removed.ProviderRemoved)

	_, err = h.svc.GetDomain(ctx, brandID, created.ID)
	assert.ErrorIs(t, err, repository.ErrDomainNotFound)

	// The hostname is immediately reusable.
	_, err = h.svc.CreateDomain(ctx, brandID, &models.CreateDomainRequest{Hostname: "shop.example.com"}, userID)
	assert.NoError(t, err)
}

func TestCreateDomainRejectsInvalidAndDuplicate(t *testing.T) {
	h := newServiceHarness(t, testConfig())
	ctx := context.Background()
	brandID := uuid.New()

	_, err := h.svc.CreateDomain(ctx, brandID, &models.CreateDomainRequest{Hostname: "not_valid!"}, uuid.Nil)
	assert.ErrorIs(t, err, ErrInvalidHostname)

	_, err = h.svc.CreateDomain(ctx, brandID, &models.CreateDomainRequest{Hostname: "myshop.brandhost.app"}, uuid.Nil)
	assert.ErrorIs(t, err, ErrInvalidHostname)

	_, err = h.svc.CreateDomain(ctx, brandID, &models.CreateDomainRequest{Hostname: "shop.example.com"}, uuid.Nil)
	require.NoError(t, err)

	// Same hostname, different brand: still a conflict.
	_, err = h.svc.CreateDomain(ctx, uuid.New(), &models.CreateDomainRequest{Hostname: "shop.example.com"}, uuid.Nil)
	assert.ErrorIs(t, err, repository.ErrDomainAlreadyExists)
}

func TestCreateDomainEnforcesLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Limits.MaxDomainsPerBrand = 1
	h := newServiceHarness(t, cfg)
	ctx := context.Background()
	brandID := uuid.New()

	_, err := h.svc.CreateDomain(ctx, brandID, &models.CreateDomainRequest{Hostname: "one.example.com"}, uuid.Nil)
	require.NoError(t, err)

	_, err = h.svc.CreateDomain(ctx, brandID, &models.CreateDomainRequest{Hostname: "two.example.com"}, uuid.Nil)
	assert.ErrorIs(t, err, repository.ErrDomainLimitExceeded)
}

func TestVerifyMismatchParksOnPending(t *testing.T) {
	h := newServiceHarness(t, testConfig())
	ctx := context.Background()
	brandID := uuid.New()

	created, err := h.svc.CreateDomain(ctx, brandID, &models.CreateDomainRequest{Hostname: "shop.example.com"}, uuid.Nil)
	require.NoError(t, err)
	_, err = h.svc.RegisterDomain(ctx, brandID, created.ID, nil)
	require.NoError(t, err)

	h.setTXT("wrong-token")
	resp, err := h.svc.VerifyOwnership(ctx, brandID, created.ID, nil)
	require.NoError(t, err)
	assert.False(t, resp.Verified)
	assert.Equal(t, models.DomainStatusPending, resp.Status)
	assert.Equal(t, []string{"wrong-token"}, resp.Found)

	// Still eligible for the verification sweep, never stuck on verifying.
	pending, err := h.repo.GetPendingVerification(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, created.ID, pending[0].ID)

	// The reason lands on the domain for the UI, and a later success
	// clears it.
	stored, err := h.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.ErrorMessage, "doesn't match")

	h.setTXT(stored.VerificationToken)
	_, err = h.svc.VerifyOwnership(ctx, brandID, created.ID, nil)
	require.NoError(t, err)
	stored, err = h.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.ErrorMessage)
}

func TestVerifyLookupFailureStoresReason(t *testing.T) {
	h := newServiceHarness(t, testConfig())
	ctx := context.Background()
	brandID := uuid.New()

	created, err := h.svc.CreateDomain(ctx, brandID, &models.CreateDomainRequest{Hostname: "shop.example.com"}, uuid.Nil)
	require.NoError(t, err)

	h.failDoH(true)
	resp, err := h.svc.VerifyOwnership(ctx, brandID, created.ID, nil)
	require.NoError(t, err)
	assert.False(t, resp.Verified)
	assert.Equal(t, models.DomainStatusPending, resp.Status)

	stored, err := h.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.ErrorMessage, "DNS lookup failed")
}

func TestOperationsRejectWrongState(t *testing.T) {
	h := newServiceHarness(t, testConfig())
	ctx := context.Background()
	brandID := uuid.New()

	created, err := h.svc.CreateDomain(ctx, brandID, &models.CreateDomainRequest{Hostname: "shop.example.com"}, uuid.Nil)
	require.NoError(t, err)

	// SSL before verification.
	_, err = h.svc.RequestSSL(ctx, brandID, created.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidState)

	// Drive to active, then registration is rejected.
	stored, err := h.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	h.setTXT(stored.VerificationToken)
	_, err = h.svc.VerifyOwnership(ctx, brandID, created.ID, nil)
	require.NoError(t, err)
	_, err = h.svc.RequestSSL(ctx, brandID, created.ID, nil)
	require.NoError(t, err)

	_, err = h.svc.RegisterDomain(ctx, brandID, created.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestBrandScoping(t *testing.T) {
	h := newServiceHarness(t, testConfig())
	ctx := context.Background()
	owner := uuid.New()

	created, err := h.svc.CreateDomain(ctx, owner, &models.CreateDomainRequest{Hostname: "shop.example.com"}, uuid.Nil)
	require.NoError(t, err)

	// Another brand cannot see or act on the domain.
	_, err = h.svc.GetDomain(ctx, uuid.New(), created.ID)
	assert.ErrorIs(t, err, repository.ErrDomainNotFound)
	_, err = h.svc.RegisterDomain(ctx, uuid.New(), created.ID, nil)
	assert.ErrorIs(t, err, repository.ErrDomainNotFound)
	_, err = h.svc.RemoveDomain(ctx, uuid.New(), created.ID, nil)
	assert.ErrorIs(t, err, repository.ErrDomainNotFound)
}

func TestRegisterProviderRejection(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" && strings.HasSuffix(r.URL.Path, "/domains") {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"message":"shop.example.com is already managed by another account"}`))
			return
		}
		w.Write([]byte(`{"id":"site-123","default_domain":"brand-sites.netlify.app"}`))
	}))
	defer provider.Close()

	cfg := testConfig()
	cfg.Provider.Token = "token"
	cfg.Provider.SiteID = "site-123"
	cfg.Provider.BaseURL = provider.URL

	h := newServiceHarness(t, cfg)
	ctx := context.Background()
	brandID := uuid.New()

	created, err := h.svc.CreateDomain(ctx, brandID, &models.CreateDomainRequest{Hostname: "shop.example.com"}, uuid.Nil)
	require.NoError(t, err)

	resp, err := h.svc.RegisterDomain(ctx, brandID, created.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.DomainStatusFailed, resp.Status)
	assert.Equal(t, "shop.example.com is already managed by another account", resp.Message)

	// The provider's message is preserved on the domain.
	stored, err := h.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DomainStatusFailed, stored.Status)
	assert.Equal(t, "shop.example.com is already managed by another account", stored.ErrorMessage)

	// Failed is retryable: the next attempt can still register.
	events, err := h.svc.GetEvents(ctx, brandID, created.ID, 100)
	require.NoError(t, err)
	last := events.Events[len(events.Events)-1]
	assert.Equal(t, models.EventError, last.EventType)
}

func TestRegisterWithProviderRecords(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" && strings.HasSuffix(r.URL.Path, "/domains") {
			w.Write([]byte(`{"id":"dom-42","hostname":"shop.example.com","dns_records":[{"type":"CNAME","hostname":"shop","value":"brand-sites.netlify.app"}]}`))
			return
		}
		w.Write([]byte(`{"id":"site-123","default_domain":"brand-sites.netlify.app"}`))
	}))
	defer provider.Close()

	cfg := testConfig()
	cfg.Provider.Token = "token"
	cfg.Provider.SiteID = "site-123"
	cfg.Provider.BaseURL = provider.URL

	h := newServiceHarness(t, cfg)
	ctx := context.Background()
	brandID := uuid.New()

	created, err := h.svc.CreateDomain(ctx, brandID, &models.CreateDomainRequest{Hostname: "shop.example.com"}, uuid.Nil)
	require.NoError(t, err)

	resp, err := h.svc.RegisterDomain(ctx, brandID, created.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.DomainStatusVerifying, resp.Status)
	assert.Equal(t, "dom-42", resp.ProviderDomainID)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "brand-sites.netlify.app", resp.Records[0].Value)
	assert.Equal(t, 3600, resp.Records[0].TTL)
}

func TestRequestSSLRetryFromFailedSimulated(t *testing.T) {
	h := newServiceHarness(t, testConfig())
	ctx := context.Background()
	brandID := uuid.New()

	created, err := h.svc.CreateDomain(ctx, brandID, &models.CreateDomainRequest{Hostname: "shop.example.com"}, uuid.Nil)
	require.NoError(t, err)

	stored, err := h.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NoError(t, h.repo.Transition(ctx, stored, models.EventError, map[string]interface{}{
		"error_message": "certificate provisioning failed",
	}, nil, nil))

	// A retry in simulated mode observes immediate issuance and must
	// activate, not trip over the failed status.
	resp, err := h.svc.RequestSSL(ctx, brandID, created.ID, nil)
	require.NoError(t, err)
	assert.True(t, resp.Simulated)
	assert.Equal(t, models.DomainStatusActive, resp.Status)
	assert.Equal(t, models.SSLStateIssued, resp.SSLStatus)

	stored, err = h.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DomainStatusActive, stored.Status)
	assert.Empty(t, stored.ErrorMessage)
}

func TestRequestSSLProviderFailureThenRetry(t *testing.T) {
	sslState := "failed"
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/ssl"):
			w.Write([]byte(`{"state":"` + sslState + `"}`))
		case r.Method == "POST" && strings.HasSuffix(r.URL.Path, "/domains"):
			w.Write([]byte(`{"id":"dom-42","hostname":"shop.example.com"}`))
		default:
			w.Write([]byte(`{"id":"site-123","default_domain":"brand-sites.netlify.app"}`))
		}
	}))
	defer provider.Close()

	cfg := testConfig()
	cfg.Provider.Token = "token"
	cfg.Provider.SiteID = "site-123"
	cfg.Provider.BaseURL = provider.URL

	h := newServiceHarness(t, cfg)
	ctx := context.Background()
	brandID := uuid.New()

	created, err := h.svc.CreateDomain(ctx, brandID, &models.CreateDomainRequest{Hostname: "shop.example.com"}, uuid.Nil)
	require.NoError(t, err)

	stored, err := h.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	h.setTXT(stored.VerificationToken)
	_, err = h.svc.VerifyOwnership(ctx, brandID, created.ID, nil)
	require.NoError(t, err)

	resp, err := h.svc.RequestSSL(ctx, brandID, created.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.DomainStatusFailed, resp.Status)
	assert.Equal(t, models.SSLStateFailed, resp.SSLStatus)

	// The provider sorted itself out; the retry activates.
	sslState = "issued"
	resp, err = h.svc.RequestSSL(ctx, brandID, created.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.DomainStatusActive, resp.Status)
	assert.Equal(t, models.SSLStateIssued, resp.SSLStatus)
}

func TestRemoveDomainProviderFailureNeverBlocks(t *testing.T) {
	deleteStatus := http.StatusInternalServerError
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "DELETE":
			w.WriteHeader(deleteStatus)
			w.Write([]byte(`{"message":"upstream unavailable"}`))
		case r.Method == "POST" && strings.HasSuffix(r.URL.Path, "/domains"):
			w.Write([]byte(`{"id":"dom-42","hostname":"shop.example.com"}`))
		default:
			w.Write([]byte(`{"id":"site-123","default_domain":"brand-sites.netlify.app"}`))
		}
	}))
	defer provider.Close()

	cfg := testConfig()
	cfg.Provider.Token = "token"
	cfg.Provider.SiteID = "site-123"
	cfg.Provider.BaseURL = provider.URL

	h := newServiceHarness(t, cfg)
	ctx := context.Background()
	brandID := uuid.New()

	created, err := h.svc.CreateDomain(ctx, brandID, &models.CreateDomainRequest{Hostname: "shop.example.com"}, uuid.Nil)
	require.NoError(t, err)
	_, err = h.svc.RegisterDomain(ctx, brandID, created.ID, nil)
	require.NoError(t, err)

	// Provider deregistration fails; the local delete still happens and
	// the failure is reported, not raised.
	removed, err := h.svc.RemoveDomain(ctx, brandID, created.ID, nil)
	require.NoError(t, err)
	assert.True(t, removed.Success)
	assert.False(t, removed.ProviderRemoved)
	assert.Contains(t, removed.ProviderError, "upstream unavailable")

	_, err = h.repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, repository.ErrDomainNotFound)

	// A provider 404 counts as already removed.
	deleteStatus = http.StatusNotFound
	created, err = h.svc.CreateDomain(ctx, brandID, &models.CreateDomainRequest{Hostname: "shop2.example.com"}, uuid.Nil)
	require.NoError(t, err)
	_, err = h.svc.RegisterDomain(ctx, brandID, created.ID, nil)
	require.NoError(t, err)

	removed, err = h.svc.RemoveDomain(ctx, brandID, created.ID, nil)
	require.NoError(t, err)
	assert.True(t, removed.Success)
	assert.True(t, removed.ProviderRemoved)
}

func TestSetPrimaryAndList(t *testing.T) {
	h := newServiceHarness(t, testConfig())
	ctx := context.Background()
	brandID := uuid.New()

	first, err := h.svc.CreateDomain(ctx, brandID, &models.CreateDomainRequest{Hostname: "one.example.com"}, uuid.Nil)
	require.NoError(t, err)
	_, err = h.svc.CreateDomain(ctx, brandID, &models.CreateDomainRequest{Hostname: "two.example.com", SetPrimary: true}, uuid.Nil)
	require.NoError(t, err)

	require.NoError(t, h.svc.SetPrimary(ctx, brandID, first.ID))

	list, err := h.svc.ListDomains(ctx, brandID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)
	assert.False(t, list.HasMore)

	primaries := 0
	for _, d := range list.Domains {
		if d.IsPrimary {
			primaries++
			assert.Equal(t, first.ID, d.ID)
		}
	}
	assert.Equal(t, 1, primaries)

	page, err := h.svc.ListDomains(ctx, brandID, 1, 0)
	require.NoError(t, err)
	assert.Len(t, page.Domains, 1)
	assert.True(t, page.HasMore)
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 500))
	assert.Equal(t, "ab", truncate("abcd", 2))

	// 300 two-byte runes; cutting at 501 bytes lands mid-rune.
	long := strings.Repeat("é", 300)
	out := truncate(long, 501)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, 500, len(out))
}
