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

// GormCommunityRepository implements listing.CommunityRepository using GORM
type GormCommunityRepository struct {
	db *gorm.DB
}

// NewGormCommunityRepository creates a new GormCommunityRepository
func NewGormCommunityRepository(db *gorm.DB) *GormCommunityRepository {
	return &GormCommunityRepository{db: db}
}

// FindByIDForCompany finds a community by ID within a company
func (r *GormCommunityRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*listing.Community, error) {
	var community listing.Community
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&community).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &community, nil
}

// FindAllForCompany finds all communities for a company matching the filter
func (r *GormCommunityRepository) FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]listing.Community, error) {
	var communities []listing.Community
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&listing.Community{}).Where("company_id = ?", companyID),
		filter,
	)

	if err := query.Find(&communities).Error; err != nil {
		return nil, err
	}
	return communities, nil
}

// Save creates or updates a community
func (r *GormCommunityRepository) Save(ctx context.Context, community *listing.Community) error {
	community.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(community).Error
}

// applyFilter applies filter options to the query
func (r *GormCommunityRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR city ILIKE ? OR market ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "city":
			query = query.Where("city = ?", value)
		case "state":
			query = query.Where("state = ?", value)
		case "market":
			query = query.Where("market = ?", value)
		case "mapped":
			if value == true {
				query = query.Where("catalog_community_id IS NOT NULL")
			} else {
				query = query.Where("catalog_community_id IS NULL")
			}
		}
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	query = query.Order(communitySortColumns.orderClause(filter.OrderBy, filter.OrderDir))

	return query
}
