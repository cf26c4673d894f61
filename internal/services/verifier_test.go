package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"brand-domain-service/internal/clients"
	"brand-domain-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dohServer(t *testing.T, handler http.HandlerFunc) *clients.DoHClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return clients.NewDoHClient(server.URL)
}

func txtAnswer(name, value string) string {
	return fmt.Sprintf(`{"Status":0,"Answer":[{"name":"%s","type":16,"TTL":300,"data":"\"%s\""}]}`, name, value)
}

func TestCheckVerified(t *testing.T) {
	domain := &models.Domain{
		Hostname:          "shop.example.com",
		VerificationToken: "token-abc123",
	}

	doh := dohServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "_verify.shop.example.com", r.URL.Query().Get("name"))
		assert.Equal(t, "TXT", r.URL.Query().Get("type"))
		w.Write([]byte(txtAnswer("_verify.shop.example.com", "token-abc123")))
	})

	verifier := NewOwnershipVerifier(NewRequirementResolver(testConfig(), nil), doh)

	outcome, err := verifier.Check(context.Background(), domain)
	require.NoError(t, err)
	assert.True(t, outcome.Verified)
	assert.False(t, outcome.LookupFailed)
	assert.Equal(t, []string{"token-abc123"}, outcome.Found)
}

func TestCheckTokenEmbeddedInRecord(t *testing.T) {
	domain := &models.Domain{
		Hostname:          "shop.example.com",
		VerificationToken: "token-abc123",
	}

	// Providers often prefix the token, e.g. brand-verify=<token>.
	doh := dohServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(txtAnswer("_verify.shop.example.com", "brand-verify=token-abc123")))
	})

	verifier := NewOwnershipVerifier(NewRequirementResolver(testConfig(), nil), doh)

	outcome, err := verifier.Check(context.Background(), domain)
	require.NoError(t, err)
	assert.True(t, outcome.Verified)
	assert.Equal(t, []string{"brand-verify=token-abc123"}, outcome.Found)
}

func TestCheckMismatch(t *testing.T) {
	domain := &models.Domain{
		Hostname:          "shop.example.com",
		VerificationToken: "token-abc123",
	}

	doh := dohServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(txtAnswer("_verify.shop.example.com", "wrong-token")))
	})

	verifier := NewOwnershipVerifier(NewRequirementResolver(testConfig(), nil), doh)

	outcome, err := verifier.Check(context.Background(), domain)
	require.NoError(t, err)
	assert.False(t, outcome.Verified)
	assert.False(t, outcome.LookupFailed)
	assert.Equal(t, []string{"wrong-token"}, outcome.Found)
	assert.Contains(t, outcome.Message, "doesn't match")
}

func TestCheckRecordMissing(t *testing.T) {
	domain := &models.Domain{
		Hostname:          "shop.example.com",
		VerificationToken: "token-abc123",
	}

	// NXDOMAIN comes back with no Answer section.
	doh := dohServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Status":3}`))
	})

	verifier := NewOwnershipVerifier(NewRequirementResolver(testConfig(), nil), doh)

	outcome, err := verifier.Check(context.Background(), domain)
	require.NoError(t, err)
	assert.False(t, outcome.Verified)
	assert.False(t, outcome.LookupFailed)
	assert.Empty(t, outcome.Found)
	assert.Contains(t, outcome.Message, "not found")
}

func TestCheckLookupFailure(t *testing.T) {
	domain := &models.Domain{
		Hostname:          "shop.example.com",
		VerificationToken: "token-abc123",
	}

	doh := dohServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	verifier := NewOwnershipVerifier(NewRequirementResolver(testConfig(), nil), doh)

	outcome, err := verifier.Check(context.Background(), domain)
	require.NoError(t, err)
	assert.False(t, outcome.Verified)
	assert.True(t, outcome.LookupFailed)
	assert.Contains(t, outcome.Message, "try again")
}

func TestCheckNilDomain(t *testing.T) {
	verifier := NewOwnershipVerifier(NewRequirementResolver(testConfig(), nil), nil)
	_, err := verifier.Check(context.Background(), nil)
	assert.Error(t, err)
}
