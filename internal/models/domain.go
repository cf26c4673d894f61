package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DomainStatus represents the overall status of a custom domain
type DomainStatus string

const (
	DomainStatusPending         DomainStatus = "pending"
	DomainStatusVerifying       DomainStatus = "verifying"
	DomainStatusVerified        DomainStatus = "verified"
	DomainStatusProvisioningSSL DomainStatus = "provisioning_ssl"
	DomainStatusActive          DomainStatus = "active"
	DomainStatusFailed          DomainStatus = "failed"
)

// DomainType represents the type of domain
type DomainType string

const (
	DomainTypeApex      DomainType = "apex"
	DomainTypeSubdomain DomainType = "subdomain"
)

// SSLState mirrors the provider's certificate state for a domain
type SSLState string

const (
	SSLStateNone         SSLState = ""
	SSLStatePending      SSLState = "pending"
	SSLStateProvisioning SSLState = "provisioning"
	SSLStateIssued       SSLState = "issued"
	SSLStateFailed       SSLState = "failed"
)

// EventType identifies an entry in a domain's append-only audit log
type EventType string

const (
	EventCreated              EventType = "created"
	EventHostRegistered       EventType = "host_registered"
	EventVerificationAttempt  EventType = "verification_attempted"
	EventDNSVerified          EventType = "dns_verified"
	EventSSLProvisioning      EventType = "ssl_provisioning"
	EventActivated            EventType = "activated"
	EventError                EventType = "error"
	EventDeleted              EventType = "deleted"
)

// Domain represents a brand's custom domain and its lifecycle state
type Domain struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	BrandID    uuid.UUID  `json:"brand_id" gorm:"type:uuid;not null;index"`
	Hostname   string     `json:"hostname" gorm:"uniqueIndex;not null;size:255"`
	DomainType DomainType `json:"domain_type" gorm:"size:20;default:'subdomain'"`

	Status            DomainStatus `json:"status" gorm:"size:20;default:'pending';index"`
	VerificationToken string       `json:"verification_token" gorm:"size:100"`
	VerifiedAt        *time.Time   `json:"verified_at"`

	SSLStatus        SSLState `json:"ssl_status" gorm:"size:20"`
	ProviderDomainID string   `json:"provider_domain_id" gorm:"size:100"`

	// Last DNS records handed to the customer, kept for display only.
	// Status decisions never read this column.
	DNSRecords datatypes.JSON `json:"dns_records" gorm:"type:jsonb"`

	ErrorMessage string `json:"error_message" gorm:"size:500"`
	IsPrimary    bool   `json:"is_primary" gorm:"default:false"`

	CreatedBy uuid.UUID `json:"created_by" gorm:"type:uuid"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for GORM
func (Domain) TableName() string {
	return "custom_domains"
}

// BeforeCreate hook to generate UUID and verification token if not set
func (d *Domain) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.VerificationToken == "" {
		d.VerificationToken = generateVerificationToken()
	}
	return nil
}

// IsActive returns true if the domain is fully active
func (d *Domain) IsActive() bool {
	return d.Status == DomainStatusActive
}

// CanRetryVerification returns true if an ownership check may run
func (d *Domain) CanRetryVerification() bool {
	return d.Status == DomainStatusPending || d.Status == DomainStatusVerifying || d.Status == DomainStatusFailed
}

// CanRequestSSL returns true if SSL reconciliation may run
func (d *Domain) CanRequestSSL() bool {
	return d.Status == DomainStatusVerified || d.Status == DomainStatusProvisioningSSL || d.Status == DomainStatusFailed
}

// generateVerificationToken generates a token for the ownership TXT record
func generateVerificationToken() string {
	return uuid.New().String()[:32]
}

// DomainEvent is one append-only audit log entry. Rows are never updated;
// retention cleanup and domain removal are the only deletes.
type DomainEvent struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	DomainID    uuid.UUID      `json:"domain_id" gorm:"type:uuid;not null;index"`
	BrandID     uuid.UUID      `json:"brand_id" gorm:"type:uuid;not null;index"`
	EventType   EventType      `json:"event_type" gorm:"size:50;not null"`
	Details     datatypes.JSON `json:"details" gorm:"type:jsonb"`
	PerformedBy *uuid.UUID     `json:"performed_by" gorm:"type:uuid"`
	CreatedAt   time.Time      `json:"created_at" gorm:"index"`
}

// TableName returns the table name for GORM
func (DomainEvent) TableName() string {
	return "domain_events"
}

// BeforeCreate hook to generate UUID if not set
func (e *DomainEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// DNSRecord represents a DNS record the customer needs to configure
type DNSRecord struct {
	RecordType string `json:"record_type"` // A, CNAME, TXT
	Host       string `json:"host"`        // relative name: "@", leftmost label, or "_verify"
	Value      string `json:"value"`
	TTL        int    `json:"ttl"`
	Purpose    string `json:"purpose"` // routing, verification
}
