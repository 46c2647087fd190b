package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/keepup/backend/internal/domain/listing"
	"github.com/keepup/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormFloorPlanRepository implements listing.FloorPlanRepository using GORM
type GormFloorPlanRepository struct {
	db *gorm.DB
}

// NewGormFloorPlanRepository creates a new GormFloorPlanRepository
func NewGormFloorPlanRepository(db *gorm.DB) *GormFloorPlanRepository {
	return &GormFloorPlanRepository{db: db}
}

// FindByIDForCompany finds a floor plan by ID within a company
func (r *GormFloorPlanRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*listing.FloorPlan, error) {
	var plan listing.FloorPlan
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}
