package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"brand-domain-service/internal/clients"
	"brand-domain-service/internal/models"

	"github.com/rs/zerolog/log"
)

// OwnershipVerifier checks the DNS TXT record that proves a customer
// controls a hostname.
type OwnershipVerifier struct {
	resolver *RequirementResolver
	doh      *clients.DoHClient
}

// NewOwnershipVerifier creates a new ownership verifier
func NewOwnershipVerifier(resolver *RequirementResolver, doh *clients.DoHClient) *OwnershipVerifier {
	return &OwnershipVerifier{resolver: resolver, doh: doh}
}

// VerificationOutcome is the result of one ownership check
type VerificationOutcome struct {
	Verified     bool
	Message      string
	Expected     string
	Found        []string
	LookupFailed bool
	CheckedAt    time.Time
}

// Check looks up the verification TXT record for a domain. Lookup failures
// and mismatches both come back as unverified outcomes with a message the
// customer can act on; Check only errors on a nil domain.
func (v *OwnershipVerifier) Check(ctx context.Context, domain *models.Domain) (*VerificationOutcome, error) {
	if domain == nil {
		return nil, fmt.Errorf("domain is nil")
	}

	host := v.resolver.VerificationHost(domain.Hostname)
	outcome := &VerificationOutcome{
		Expected:  domain.VerificationToken,
		CheckedAt: time.Now(),
	}

	values, err := v.doh.LookupTXT(ctx, host)
	if err != nil {
		log.Warn().Err(err).Str("host", host).Msg("Ownership TXT lookup failed")
		outcome.LookupFailed = true
		outcome.Message = "DNS lookup failed. Please try again later."
		return outcome, nil
	}

	// Records like "brand-verify=<token>" count, so the token only has
	// to appear somewhere in the value.
	for _, value := range values {
		if strings.Contains(value, domain.VerificationToken) {
			outcome.Verified = true
			outcome.Message = "Domain ownership verified successfully"
			outcome.Found = []string{value}
			return outcome, nil
		}
	}

	outcome.Found = values
	if len(values) > 0 {
		outcome.Message = fmt.Sprintf("TXT record found at %s but value doesn't match. Expected: %s", host, domain.VerificationToken)
	} else {
		outcome.Message = fmt.Sprintf("TXT record not found at %s. Please add the verification record.", host)
	}
	return outcome, nil
}
