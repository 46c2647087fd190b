package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/keepup/backend/internal/domain/listing"
	"github.com/keepup/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormMarketingProfileRepository implements listing.MarketingProfileRepository using GORM
type GormMarketingProfileRepository struct {
	db *gorm.DB
}

// NewGormMarketingProfileRepository creates a new GormMarketingProfileRepository
func NewGormMarketingProfileRepository(db *gorm.DB) *GormMarketingProfileRepository {
	return &GormMarketingProfileRepository{db: db}
}

// FindByCommunity finds the marketing profile of a community. Communities
// without a profile return shared.ErrNotFound; callers treat that as
// "no enrichment data", not a failure.
func (r *GormMarketingProfileRepository) FindByCommunity(ctx context.Context, companyID, communityID uuid.UUID) (*listing.MarketingProfile, error) {
	var profile listing.MarketingProfile
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND community_id = ?", companyID, communityID).
		First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}
