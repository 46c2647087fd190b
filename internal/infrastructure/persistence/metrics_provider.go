package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/keepup/backend/internal/domain/listing"
	"gorm.io/gorm"
)

// GormListingMetricsProvider answers the aggregate queries the periodic
// metrics collector needs. It reads the internal store only; the public
// catalog is never queried for metrics.
type GormListingMetricsProvider struct {
	db *gorm.DB
}

// NewGormListingMetricsProvider creates a new GormListingMetricsProvider
func NewGormListingMetricsProvider(db *gorm.DB) *GormListingMetricsProvider {
	return &GormListingMetricsProvider{db: db}
}

// GetPublishedHomeCount returns the number of currently published homes for a company
func (p *GormListingMetricsProvider) GetPublishedHomeCount(ctx context.Context, companyID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Model(&listing.Home{}).
		Where("company_id = ? AND is_published = ?", companyID, true).
		Count(&count).Error
	return count, err
}

// GetUnmappedCommunityCount returns the number of communities without a catalog mapping for a company
func (p *GormListingMetricsProvider) GetUnmappedCommunityCount(ctx context.Context, companyID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Model(&listing.Community{}).
		Where("company_id = ? AND catalog_community_id IS NULL", companyID).
		Count(&count).Error
	return count, err
}

// GetActiveCompanyIDs returns the IDs of all companies in the store
func (p *GormListingMetricsProvider) GetActiveCompanyIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Model(&listing.Company{}).
		Pluck("id", &ids).Error
	return ids, err
}
