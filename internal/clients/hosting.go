package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"brand-domain-service/internal/config"

	"github.com/rs/zerolog/log"
)

// HostingClient talks to the external hosting provider that serves brand
// sites. Domains are attached to a single provider "site"; the provider
// issues certificates for attached domains on request.
type HostingClient struct {
	cfg        *config.ProviderConfig
	httpClient *http.Client
}

// NewHostingClient creates a new hosting provider client
func NewHostingClient(cfg *config.ProviderConfig) *HostingClient {
	return &HostingClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Configured reports whether the client has credentials to make real calls
func (c *HostingClient) Configured() bool {
	return c.cfg.Configured()
}

// ProviderError carries the provider's own error text verbatim so it can be
// surfaced to the customer and stored in the audit log.
type ProviderError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider error (status %d)", e.StatusCode)
}

// Site represents the provider site brand domains attach to
type Site struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	DefaultDomain string `json:"default_domain"`
	SSLURL        string `json:"ssl_url,omitempty"`
}

// SiteDomain represents a domain attached to a provider site
type SiteDomain struct {
	ID         string             `json:"id"`
	Hostname   string             `json:"hostname"`
	State      string             `json:"state,omitempty"`
	DNSRecords []ProviderDNSEntry `json:"dns_records,omitempty"`
}

// ProviderDNSEntry is a DNS record the provider asks the customer to create
type ProviderDNSEntry struct {
	Type  string `json:"type"`
	Host  string `json:"hostname"`
	Value string `json:"value"`
	TTL   int    `json:"ttl,omitempty"`
}

// SSLInfo represents the provider's certificate state for the site
type SSLInfo struct {
	State     string   `json:"state"`
	Domains   []string `json:"domains,omitempty"`
	ExpiresAt string   `json:"expires_at,omitempty"`
}

// GetSite retrieves the configured provider site
func (c *HostingClient) GetSite(ctx context.Context) (*Site, error) {
	var site Site
	if err := c.do(ctx, "GET", fmt.Sprintf("/sites/%s", c.cfg.SiteID), nil, &site); err != nil {
		return nil, err
	}
	return &site, nil
}

// RegisterDomain attaches a hostname to the provider site. The provider
// response includes its domain id and the records it expects to see.
func (c *HostingClient) RegisterDomain(ctx context.Context, hostname string) (*SiteDomain, error) {
	payload := map[string]string{"hostname": hostname}

	var domain SiteDomain
	if err := c.do(ctx, "POST", fmt.Sprintf("/sites/%s/domains", c.cfg.SiteID), payload, &domain); err != nil {
		return nil, err
	}

	log.Info().
		Str("hostname", hostname).
		Str("provider_domain_id", domain.ID).
		Msg("Domain registered with hosting provider")
	return &domain, nil
}

// ProvisionSSL asks the provider to issue a certificate covering the site's
// attached domains. The call is idempotent at the provider.
func (c *HostingClient) ProvisionSSL(ctx context.Context) (*SSLInfo, error) {
	var info SSLInfo
	if err := c.do(ctx, "POST", fmt.Sprintf("/sites/%s/ssl", c.cfg.SiteID), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetSSLStatus polls the provider's certificate state
func (c *HostingClient) GetSSLStatus(ctx context.Context) (*SSLInfo, error) {
	var info SSLInfo
	if err := c.do(ctx, "GET", fmt.Sprintf("/sites/%s/ssl", c.cfg.SiteID), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// DeleteDomain detaches a domain from the provider site. A 404 means the
// provider no longer knows the domain, which counts as success.
func (c *HostingClient) DeleteDomain(ctx context.Context, providerDomainID string) error {
	err := c.do(ctx, "DELETE", fmt.Sprintf("/sites/%s/domains/%s", c.cfg.SiteID, providerDomainID), nil, nil)
	if err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) && perr.StatusCode == http.StatusNotFound {
			log.Debug().Str("provider_domain_id", providerDomainID).Msg("Domain already gone at provider")
			return nil
		}
		return err
	}
	return nil
}

func (c *HostingClient) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ProviderError{
			StatusCode: resp.StatusCode,
			Message:    extractProviderMessage(respBody),
			Body:       string(respBody),
		}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// extractProviderMessage pulls the human-readable message out of the
// provider's error payload, falling back to the raw body.
func extractProviderMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	return string(body)
}
