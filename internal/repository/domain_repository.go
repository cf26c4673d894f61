package repository

import (
	"context"
	"errors"
	"time"

	"brand-domain-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrDomainNotFound      = errors.New("domain not found")
	ErrDomainAlreadyExists = errors.New("domain already exists")
	ErrDomainLimitExceeded = errors.New("domain limit exceeded for brand")

	// ErrStaleTransition means the domain's status changed between read and
	// write. The competing operation already moved the domain forward, so
	// callers treat this as a no-op, not a failure.
	ErrStaleTransition = errors.New("domain status changed concurrently")
)

// DomainRepository handles database operations for custom domains
type DomainRepository struct {
	db *gorm.DB
}

// NewDomainRepository creates a new domain repository
func NewDomainRepository(db *gorm.DB) *DomainRepository {
	return &DomainRepository{db: db}
}

// Create inserts a new domain and its "created" audit event in one transaction
func (r *DomainRepository) Create(ctx context.Context, domain *models.Domain) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(domain).Error; err != nil {
			return err
		}
		event := &models.DomainEvent{
			DomainID:    domain.ID,
			BrandID:     domain.BrandID,
			EventType:   models.EventCreated,
			PerformedBy: performer(domain.CreatedBy),
		}
		return tx.Create(event).Error
	})
}

// GetByID retrieves a domain by ID
func (r *DomainRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Domain, error) {
	var domain models.Domain
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&domain).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDomainNotFound
	}
	return &domain, err
}

// GetByHostname retrieves a domain by its normalized hostname
func (r *DomainRepository) GetByHostname(ctx context.Context, hostname string) (*models.Domain, error) {
	var domain models.Domain
	err := r.db.WithContext(ctx).Where("hostname = ?", hostname).First(&domain).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDomainNotFound
	}
	return &domain, err
}

// GetByBrandID retrieves all domains for a brand
func (r *DomainRepository) GetByBrandID(ctx context.Context, brandID uuid.UUID, limit, offset int) ([]models.Domain, int64, error) {
	var domains []models.Domain
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Domain{}).Where("brand_id = ?", brandID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}

	err := query.Order("created_at DESC").Find(&domains).Error
	return domains, total, err
}

// GetPendingVerification retrieves domains awaiting an ownership check
func (r *DomainRepository) GetPendingVerification(ctx context.Context, limit int) ([]models.Domain, error) {
	var domains []models.Domain
	err := r.db.WithContext(ctx).
		Where("status IN (?, ?)", models.DomainStatusPending, models.DomainStatusVerifying).
		Order("updated_at ASC").
		Limit(limit).
		Find(&domains).Error
	return domains, err
}

// GetProvisioning retrieves domains with SSL provisioning in flight
func (r *DomainRepository) GetProvisioning(ctx context.Context, limit int) ([]models.Domain, error) {
	var domains []models.Domain
	err := r.db.WithContext(ctx).
		Where("status = ?", models.DomainStatusProvisioningSSL).
		Order("updated_at ASC").
		Limit(limit).
		Find(&domains).Error
	return domains, err
}

// Transition moves a domain to the status the event demands and appends the
// event, in one transaction. The UPDATE is guarded on the status the caller
// read, so a domain that moved concurrently is left untouched and
// ErrStaleTransition is returned.
func (r *DomainRepository) Transition(ctx context.Context, domain *models.Domain, event models.EventType, updates map[string]interface{}, details datatypes.JSON, performedBy *uuid.UUID) error {
	next, err := models.NextStatus(domain.Status, event)
	if err != nil {
		return err
	}

	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = next
	updates["updated_at"] = time.Now()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Domain{}).
			Where("id = ? AND status = ?", domain.ID, domain.Status).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleTransition
		}

		ev := &models.DomainEvent{
			DomainID:    domain.ID,
			BrandID:     domain.BrandID,
			EventType:   event,
			Details:     details,
			PerformedBy: performedBy,
		}
		return tx.Create(ev).Error
	})
	if err != nil {
		return err
	}

	domain.Status = next
	return nil
}

// AppendEvent records an audit event without touching the domain row.
// Used for observations that do not move the status (e.g. a verification
// attempt on an already pending domain).
func (r *DomainRepository) AppendEvent(ctx context.Context, event *models.DomainEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// GetEvents retrieves a domain's audit log in append order
func (r *DomainRepository) GetEvents(ctx context.Context, domainID uuid.UUID, limit int) ([]models.DomainEvent, int64, error) {
	var events []models.DomainEvent
	var total int64

	query := r.db.WithContext(ctx).Model(&models.DomainEvent{}).Where("domain_id = ?", domainID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Order("created_at ASC").Find(&events).Error
	return events, total, err
}

// Update saves the full domain row
func (r *DomainRepository) Update(ctx context.Context, domain *models.Domain) error {
	return r.db.WithContext(ctx).Save(domain).Error
}

// DeleteWithEvents hard-deletes a domain and its audit log in one
// transaction, after appending the terminal "deleted" event so the log is
// complete up to the instant of removal.
func (r *DomainRepository) DeleteWithEvents(ctx context.Context, domain *models.Domain, details datatypes.JSON, performedBy *uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ev := &models.DomainEvent{
			DomainID:    domain.ID,
			BrandID:     domain.BrandID,
			EventType:   models.EventDeleted,
			Details:     details,
			PerformedBy: performedBy,
		}
		if err := tx.Create(ev).Error; err != nil {
			return err
		}
		if err := tx.Where("domain_id = ?", domain.ID).Delete(&models.DomainEvent{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Domain{}, "id = ?", domain.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrDomainNotFound
		}
		return nil
	})
}

// CountByBrandID counts domains for a brand
func (r *DomainRepository) CountByBrandID(ctx context.Context, brandID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Domain{}).Where("brand_id = ?", brandID).Count(&count).Error
	return count, err
}

// HostnameExists checks if a hostname is already attached to any brand
func (r *DomainRepository) HostnameExists(ctx context.Context, hostname string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Domain{}).Where("hostname = ?", hostname).Count(&count).Error
	return count > 0, err
}

// SetPrimary marks a domain as primary and unsets the brand's others
func (r *DomainRepository) SetPrimary(ctx context.Context, brandID, domainID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Domain{}).
			Where("brand_id = ? AND id != ?", brandID, domainID).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		result := tx.Model(&models.Domain{}).
			Where("id = ? AND brand_id = ?", domainID, brandID).
			Update("is_primary", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrDomainNotFound
		}
		return nil
	})
}

// GetPrimary retrieves the brand's primary active domain, nil if unset
func (r *DomainRepository) GetPrimary(ctx context.Context, brandID uuid.UUID) (*models.Domain, error) {
	var domain models.Domain
	err := r.db.WithContext(ctx).
		Where("brand_id = ? AND is_primary = ? AND status = ?", brandID, true, models.DomainStatusActive).
		First(&domain).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &domain, err
}

// CleanupOldEvents removes audit events past the retention window.
// Events of live domains younger than the window are never touched.
func (r *DomainRepository) CleanupOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	threshold := time.Now().Add(-olderThan)
	result := r.db.WithContext(ctx).
		Where("created_at < ?", threshold).
		Delete(&models.DomainEvent{})
	return result.RowsAffected, result.Error
}

func performer(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
