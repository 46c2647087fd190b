package catalogstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/keepup/backend/internal/domain/catalog"
)

// PublicCommunityRecord is the catalog database row for a community
// document. The natural key (company_id, community_id) carries the canonical
// catalog community id; the document body is stored as one jsonb column so
// the public website reads it without joins.
type PublicCommunityRecord struct {
	ID          uuid.UUID               `gorm:"type:uuid;primary_key"`
	CompanyID   uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_public_community_key,priority:1"`
	CommunityID uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_public_community_key,priority:2"`
	Slug        string                  `gorm:"type:varchar(250);index"`
	Doc         catalog.PublicCommunity `gorm:"type:jsonb;serializer:json"`
	CreatedAt   time.Time               `gorm:"not null"`
	UpdatedAt   time.Time               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PublicCommunityRecord) TableName() string {
	return "public_communities"
}

// PublicHomeRecord is the catalog database row for a home document, keyed on
// (company_id, source_home_id). The published flag and slug are promoted to
// columns for the website's list queries.
type PublicHomeRecord struct {
	ID                uuid.UUID          `gorm:"type:uuid;primary_key"`
	CompanyID         uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_public_home_key,priority:1"`
	SourceHomeID      uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_public_home_key,priority:2"`
	CommunityID       uuid.UUID          `gorm:"type:uuid;not null;index"`
	PublicCommunityID uuid.UUID          `gorm:"type:uuid;index"`
	Slug              string             `gorm:"type:varchar(250);index"`
	Published         bool               `gorm:"not null;default:false"`
	Doc               catalog.PublicHome `gorm:"type:jsonb;serializer:json"`
	CreatedAt         time.Time          `gorm:"not null"`
	UpdatedAt         time.Time          `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PublicHomeRecord) TableName() string {
	return "public_homes"
}
