package models

import "github.com/google/uuid"

// CreateDomainRequest represents a request to attach a custom domain
type CreateDomainRequest struct {
	Hostname   string `json:"hostname" binding:"required,fqdn"`
	SetPrimary bool   `json:"set_primary"`
}

// RequirementsRequest asks which DNS records a hostname needs
type RequirementsRequest struct {
	Hostname          string `json:"hostname" binding:"required"`
	VerificationToken string `json:"verification_token"`
}

// RequirementsResponse lists the records the customer must create
type RequirementsResponse struct {
	Hostname   string      `json:"hostname"`
	DomainType DomainType  `json:"domain_type"`
	IsApex     bool        `json:"is_apex"`
	Records    []DNSRecord `json:"records"`
	Source     string      `json:"source"` // live or fallback
}

// VerifyResponse reports the outcome of an ownership check
type VerifyResponse struct {
	DomainID uuid.UUID    `json:"domain_id"`
	Hostname string       `json:"hostname"`
	Verified bool         `json:"verified"`
	Status   DomainStatus `json:"status"`
	Message  string       `json:"message,omitempty"`
	Expected string       `json:"expected,omitempty"`
	Found    []string     `json:"found,omitempty"`
}

// RegisterResponse reports the outcome of host registration
type RegisterResponse struct {
	DomainID         uuid.UUID    `json:"domain_id"`
	Hostname         string       `json:"hostname"`
	Status           DomainStatus `json:"status"`
	ProviderDomainID string       `json:"provider_domain_id,omitempty"`
	Records          []DNSRecord  `json:"records,omitempty"`
	Message          string       `json:"message,omitempty"`
}

// SSLResponse reports the outcome of SSL reconciliation
type SSLResponse struct {
	DomainID  uuid.UUID    `json:"domain_id"`
	Hostname  string       `json:"hostname"`
	Status    DomainStatus `json:"status"`
	SSLStatus SSLState     `json:"ssl_status"`
	Simulated bool         `json:"simulated,omitempty"`
	Message   string       `json:"message,omitempty"`
}

// RemoveResponse reports the outcome of domain removal
type RemoveResponse struct {
	Success         bool   `json:"success"`
	ProviderRemoved bool   `json:"provider_removed"`
	ProviderError   string `json:"provider_error,omitempty"`
}

// DomainResponse represents a domain in API responses
type DomainResponse struct {
	ID               uuid.UUID    `json:"id"`
	BrandID          uuid.UUID    `json:"brand_id"`
	Hostname         string       `json:"hostname"`
	DomainType       DomainType   `json:"domain_type"`
	Status           DomainStatus `json:"status"`
	SSLStatus        SSLState     `json:"ssl_status,omitempty"`
	ProviderDomainID string       `json:"provider_domain_id,omitempty"`
	ErrorMessage     string       `json:"error_message,omitempty"`
	IsPrimary        bool         `json:"is_primary"`
	VerifiedAt       *string      `json:"verified_at,omitempty"`
	CreatedAt        string       `json:"created_at"`
	UpdatedAt        string       `json:"updated_at"`
	DNSRecords       []DNSRecord  `json:"dns_records,omitempty"`
}

// DomainListResponse represents a paginated list of domains
type DomainListResponse struct {
	Domains []DomainResponse `json:"domains"`
	Total   int64            `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
	HasMore bool             `json:"has_more"`
}

// EventResponse represents one audit log entry in API responses
type EventResponse struct {
	ID          uuid.UUID  `json:"id"`
	EventType   EventType  `json:"event_type"`
	Details     any        `json:"details,omitempty"`
	PerformedBy *uuid.UUID `json:"performed_by,omitempty"`
	CreatedAt   string     `json:"created_at"`
}

// EventListResponse represents a domain's audit log
type EventListResponse struct {
	DomainID uuid.UUID       `json:"domain_id"`
	Events   []EventResponse `json:"events"`
	Total    int64           `json:"total"`
}

// InternalResolveResponse represents hostname resolution for internal services
type InternalResolveResponse struct {
	Hostname  string    `json:"hostname"`
	BrandID   uuid.UUID `json:"brand_id"`
	DomainID  uuid.UUID `json:"domain_id"`
	IsActive  bool      `json:"is_active"`
	IsPrimary bool      `json:"is_primary"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
