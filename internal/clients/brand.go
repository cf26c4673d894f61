package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"brand-domain-service/internal/config"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// BrandClient handles communication with the brand service
type BrandClient struct {
	cfg        *config.Config
	httpClient *http.Client
}

// NewBrandClient creates a new brand client
func NewBrandClient(cfg *config.Config) *BrandClient {
	return &BrandClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// BrandInfo represents brand information from the brand service
type BrandInfo struct {
	ID           uuid.UUID `json:"id"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	PlanFeatures struct {
		MaxCustomDomains int  `json:"max_custom_domains"`
		CustomDomains    bool `json:"custom_domains"`
	} `json:"plan_features"`
}

// GetBrand retrieves brand information by ID
func (b *BrandClient) GetBrand(ctx context.Context, brandID uuid.UUID) (*BrandInfo, error) {
	url := fmt.Sprintf("%s/api/v1/internal/brands/%s", b.cfg.Brand.ServiceURL, brandID.String())

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get brand: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("brand not found")
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to get brand: status %d, body: %s", resp.StatusCode, string(body))
	}

	var brand BrandInfo
	if err := json.NewDecoder(resp.Body).Decode(&brand); err != nil {
		return nil, fmt.Errorf("failed to decode brand response: %w", err)
	}

	return &brand, nil
}

// CanAddDomain checks whether a brand's plan allows another custom domain.
// When the brand service is unreachable the local default limit applies,
// so a brand-service outage never blocks domain creation.
func (b *BrandClient) CanAddDomain(ctx context.Context, brandID uuid.UUID, currentDomainCount int64) (bool, int, error) {
	if b.cfg.Brand.ServiceURL == "" {
		return currentDomainCount < int64(b.cfg.Limits.MaxDomainsPerBrand), b.cfg.Limits.MaxDomainsPerBrand, nil
	}

	brand, err := b.GetBrand(ctx, brandID)
	if err != nil {
		log.Warn().Err(err).Str("brand_id", brandID.String()).Msg("Failed to get brand info, using default limits")
		return currentDomainCount < int64(b.cfg.Limits.MaxDomainsPerBrand), b.cfg.Limits.MaxDomainsPerBrand, nil
	}

	if !brand.PlanFeatures.CustomDomains {
		return false, 0, nil
	}

	maxAllowed := brand.PlanFeatures.MaxCustomDomains
	if maxAllowed == 0 {
		maxAllowed = b.cfg.Limits.MaxDomainsPerBrand
	}

	return currentDomainCount < int64(maxAllowed), maxAllowed, nil
}

// NotifyDomainStatusChange notifies the brand service of a status change.
// Best-effort: failures are logged, never propagated.
func (b *BrandClient) NotifyDomainStatusChange(ctx context.Context, brandID uuid.UUID, hostname string, status string) {
	if b.cfg.Brand.ServiceURL == "" {
		return
	}

	url := fmt.Sprintf("%s/api/v1/internal/brands/%s/domain-status", b.cfg.Brand.ServiceURL, brandID.String())

	payload, err := json.Marshal(map[string]string{
		"hostname": hostname,
		"status":   status,
	})
	if err != nil {
		return
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payload))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("brand_id", brandID.String()).Msg("Failed to notify brand service")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Warn().
			Int("status", resp.StatusCode).
			Str("brand_id", brandID.String()).
			Msg("Brand service returned error on status notification")
	}
}
