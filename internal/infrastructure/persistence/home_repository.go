package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/keepup/backend/internal/domain/listing"
	"github.com/keepup/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormHomeRepository implements listing.HomeRepository using GORM
type GormHomeRepository struct {
	db *gorm.DB
}

// NewGormHomeRepository creates a new GormHomeRepository
func NewGormHomeRepository(db *gorm.DB) *GormHomeRepository {
	return &GormHomeRepository{db: db}
}

// FindByIDForCompany finds a home by ID within a company
func (r *GormHomeRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*listing.Home, error) {
	var home listing.Home
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&home).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &home, nil
}

// FindByCommunity finds all homes belonging to a community
func (r *GormHomeRepository) FindByCommunity(ctx context.Context, companyID, communityID uuid.UUID) ([]listing.Home, error) {
	var homes []listing.Home
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND community_id = ?", companyID, communityID).
		Order("address ASC").
		Find(&homes).Error; err != nil {
		return nil, err
	}
	return homes, nil
}

// FindAllForCompany finds all homes for a company matching the filter
func (r *GormHomeRepository) FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]listing.Home, error) {
	var homes []listing.Home
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&listing.Home{}).Where("company_id = ?", companyID),
		filter,
	)

	if err := query.Find(&homes).Error; err != nil {
		return nil, err
	}
	return homes, nil
}

// Save creates or updates a home
func (r *GormHomeRepository) Save(ctx context.Context, home *listing.Home) error {
	home.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(home).Error
}

// UpdatePublishState replaces the home's publish bookkeeping with a
// compare-and-swap on publish_version. A lost race surfaces as
// shared.ErrConcurrentModification; the caller reloads and retries or fails
// the operation. The home row itself is never rewritten here, only the
// publish columns.
func (r *GormHomeRepository) UpdatePublishState(ctx context.Context, companyID, id uuid.UUID, expectedVersion int, state listing.PublishState) error {
	result := r.db.WithContext(ctx).
		Model(&listing.Home{}).
		Where("company_id = ? AND id = ? AND publish_version = ?", companyID, id, expectedVersion).
		Updates(map[string]interface{}{
			"is_published":          state.IsPublished,
			"is_listed":             state.IsListed,
			"published_at":          state.PublishedAt,
			"content_synced_at":     state.ContentSyncedAt,
			"publish_version":       state.PublishVersion,
			"external_id":           state.ExternalID,
			"external_community_id": state.ExternalCommunityID,
			"last_publish_status":   state.LastPublishStatus,
			"last_publish_error":    state.LastPublishError,
			"updated_at":            time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrentModification
	}
	return nil
}

// TouchContentSynced stamps content_synced_at without touching publish flags
// or the publish version
func (r *GormHomeRepository) TouchContentSynced(ctx context.Context, companyID, id uuid.UUID) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&listing.Home{}).
		Where("company_id = ? AND id = ?", companyID, id).
		Updates(map[string]interface{}{
			"content_synced_at": now,
			"updated_at":        now,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormHomeRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("address ILIKE ? OR lot_number ILIKE ? OR job_number ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "community_id":
			query = query.Where("community_id = ?", value)
		case "status":
			query = query.Where("general_status = ? OR status = ? OR building_status = ?", value, value, value)
		case "is_listed":
			query = query.Where("is_listed = ?", value)
		case "is_published":
			query = query.Where("is_published = ?", value)
		}
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	query = query.Order(homeSortColumns.orderClause(filter.OrderBy, filter.OrderDir))

	return query
}
