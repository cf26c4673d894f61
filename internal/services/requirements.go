package services

import (
	"context"
	"fmt"
	"strings"

	"brand-domain-service/internal/clients"
	"brand-domain-service/internal/config"
	"brand-domain-service/internal/models"

	"github.com/rs/zerolog/log"
)

// RequirementResolver computes the DNS records a customer must create for a
// hostname. Classification and record synthesis are pure; only the canonical
// site host lookup touches the network, and any failure there degrades to
// the fixed fallback targets. Resolve never returns an error.
type RequirementResolver struct {
	cfg     *config.Config
	hosting *clients.HostingClient
}

// NewRequirementResolver creates a new requirement resolver
func NewRequirementResolver(cfg *config.Config, hosting *clients.HostingClient) *RequirementResolver {
	return &RequirementResolver{cfg: cfg, hosting: hosting}
}

// multiLevelTLDs lists public suffixes made of two labels, where a
// three-label hostname is still an apex (example.co.uk).
var multiLevelTLDs = map[string]bool{
	"co.uk": true, "org.uk": true, "ac.uk": true, "gov.uk": true,
	"com.au": true, "net.au": true, "org.au": true,
	"co.in": true, "co.nz": true, "co.za": true, "co.jp": true,
	"com.br": true, "com.mx": true, "com.sg": true, "com.cn": true,
}

// Classify determines whether a hostname is an apex domain or a subdomain
func (r *RequirementResolver) Classify(hostname string) models.DomainType {
	parts := strings.Split(hostname, ".")
	if len(parts) <= 2 {
		return models.DomainTypeApex
	}

	lastTwo := parts[len(parts)-2] + "." + parts[len(parts)-1]
	if multiLevelTLDs[lastTwo] {
		if len(parts) == 3 {
			return models.DomainTypeApex
		}
		return models.DomainTypeSubdomain
	}
	return models.DomainTypeSubdomain
}

// NormalizeHostname lowercases and strips the trailing dot
func NormalizeHostname(hostname string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(hostname), "."))
}

// ValidateHostname validates hostname format and rejects the platform domain
func (r *RequirementResolver) ValidateHostname(hostname string) error {
	if len(hostname) == 0 {
		return fmt.Errorf("hostname cannot be empty")
	}

	if len(hostname) > 253 {
		return fmt.Errorf("hostname exceeds maximum length of 253 characters")
	}

	for i, c := range hostname {
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '.') {
			return fmt.Errorf("invalid character '%c' at position %d", c, i)
		}
	}

	parts := strings.Split(hostname, ".")
	if len(parts) < 2 {
		return fmt.Errorf("hostname must have at least two labels")
	}

	for _, part := range parts {
		if len(part) == 0 {
			return fmt.Errorf("hostname labels cannot be empty")
		}
		if len(part) > 63 {
			return fmt.Errorf("hostname label exceeds maximum length of 63 characters")
		}
		if strings.HasPrefix(part, "-") || strings.HasSuffix(part, "-") {
			return fmt.Errorf("hostname labels cannot start or end with hyphen")
		}
	}

	platform := r.cfg.DNS.PlatformDomain
	if platform != "" && (hostname == platform || strings.HasSuffix(hostname, "."+platform)) {
		return fmt.Errorf("cannot use platform domain")
	}

	return nil
}

// Resolve computes the records for a hostname. Record host names are
// relative to the zone: "@" for the apex itself, the leftmost label for a
// subdomain, and the verification prefix for the ownership TXT record.
func (r *RequirementResolver) Resolve(ctx context.Context, hostname, verificationToken string) *models.RequirementsResponse {
	hostname = NormalizeHostname(hostname)
	domainType := r.Classify(hostname)

	resp := &models.RequirementsResponse{
		Hostname:   hostname,
		DomainType: domainType,
		IsApex:     domainType == models.DomainTypeApex,
		Source:     "fallback",
	}

	var records []models.DNSRecord

	if resp.IsApex {
		records = append(records, models.DNSRecord{
			RecordType: "A",
			Host:       "@",
			Value:      r.cfg.Provider.LoadBalancerIP,
			TTL:        3600,
			Purpose:    "routing",
		})
	} else {
		target := r.cfg.Provider.FallbackSiteHost
		if live := r.canonicalSiteHost(ctx); live != "" {
			target = live
			resp.Source = "live"
		}
		records = append(records, models.DNSRecord{
			RecordType: "CNAME",
			Host:       strings.SplitN(hostname, ".", 2)[0],
			Value:      target,
			TTL:        3600,
			Purpose:    "routing",
		})
	}

	if verificationToken != "" {
		records = append(records, models.DNSRecord{
			RecordType: "TXT",
			Host:       r.cfg.DNS.VerificationPrefix,
			Value:      verificationToken,
			TTL:        300,
			Purpose:    "verification",
		})
	}

	resp.Records = records
	return resp
}

// VerificationHost returns the fully qualified name where the ownership TXT
// record is expected, e.g. _verify.shop.example.com.
func (r *RequirementResolver) VerificationHost(hostname string) string {
	return r.cfg.DNS.VerificationPrefix + "." + NormalizeHostname(hostname)
}

// canonicalSiteHost fetches the provider site's canonical domain. Empty on
// any failure so the caller falls back to the fixed target.
func (r *RequirementResolver) canonicalSiteHost(ctx context.Context) string {
	if r.hosting == nil || !r.hosting.Configured() {
		return ""
	}

	site, err := r.hosting.GetSite(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch provider site, using fallback CNAME target")
		return ""
	}
	return site.DefaultDomain
}
