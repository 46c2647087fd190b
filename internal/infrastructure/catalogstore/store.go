package catalogstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/keepup/backend/internal/domain/catalog"
	"github.com/keepup/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements catalog.Store against the catalog database. All
// writes go through ON CONFLICT upserts on the documents' natural keys, so
// republishing converges on the existing records instead of duplicating
// them.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GormStore
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// UpsertCommunity inserts or updates the community document keyed on
// (company_id, community_id) and returns the record id.
func (s *GormStore) UpsertCommunity(ctx context.Context, doc *catalog.PublicCommunity) (uuid.UUID, error) {
	now := time.Now()
	record := PublicCommunityRecord{
		ID:          uuid.New(),
		CompanyID:   doc.CompanyID,
		CommunityID: doc.CommunityID,
		Slug:        doc.Slug,
		Doc:         *doc,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "company_id"}, {Name: "community_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"slug", "doc", "updated_at"}),
		}).
		Create(&record).Error; err != nil {
		return uuid.Nil, err
	}

	// The insert id is discarded on conflict; read the surviving record id
	// back by its natural key.
	var id uuid.UUID
	if err := s.db.WithContext(ctx).
		Model(&PublicCommunityRecord{}).
		Where("company_id = ? AND community_id = ?", doc.CompanyID, doc.CommunityID).
		Select("id").
		Row().Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// UpsertHome inserts or updates the home document keyed on
// (company_id, source_home_id) and returns the record id.
func (s *GormStore) UpsertHome(ctx context.Context, doc *catalog.PublicHome) (uuid.UUID, error) {
	now := time.Now()
	record := PublicHomeRecord{
		ID:                uuid.New(),
		CompanyID:         doc.CompanyID,
		SourceHomeID:      doc.SourceHomeID,
		CommunityID:       doc.CommunityID,
		PublicCommunityID: doc.PublicCommunityID,
		Slug:              doc.Slug,
		Published:         doc.Published,
		Doc:               *doc,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "company_id"}, {Name: "source_home_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"community_id",
				"public_community_id",
				"slug",
				"published",
				"doc",
				"updated_at",
			}),
		}).
		Create(&record).Error; err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	if err := s.db.WithContext(ctx).
		Model(&PublicHomeRecord{}).
		Where("company_id = ? AND source_home_id = ?", doc.CompanyID, doc.SourceHomeID).
		Select("id").
		Row().Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// DeleteHome removes the home document for (companyID, sourceHomeID).
// Deleting a document that is already gone succeeds, which keeps retried
// unpublish operations idempotent.
func (s *GormStore) DeleteHome(ctx context.Context, companyID, sourceHomeID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Where("company_id = ? AND source_home_id = ?", companyID, sourceHomeID).
		Delete(&PublicHomeRecord{}).Error
}

// FindHome returns the home document for (companyID, sourceHomeID)
func (s *GormStore) FindHome(ctx context.Context, companyID, sourceHomeID uuid.UUID) (*catalog.PublicHome, error) {
	var record PublicHomeRecord
	if err := s.db.WithContext(ctx).
		Where("company_id = ? AND source_home_id = ?", companyID, sourceHomeID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	doc := record.Doc
	doc.ID = record.ID
	return &doc, nil
}

// FindCommunity returns the community document for (companyID, communityID)
func (s *GormStore) FindCommunity(ctx context.Context, companyID, communityID uuid.UUID) (*catalog.PublicCommunity, error) {
	var record PublicCommunityRecord
	if err := s.db.WithContext(ctx).
		Where("company_id = ? AND community_id = ?", companyID, communityID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	doc := record.Doc
	doc.ID = record.ID
	return &doc, nil
}
