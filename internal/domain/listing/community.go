package listing

import (
	"time"

	"github.com/google/uuid"
	"github.com/keepup/backend/internal/domain/shared"
)

// CatalogMapping is the curated link from an internal Community to a
// canonical community in the public catalog. It is written by the catalog
// admin workflow, never by the publication pipeline; publication only reads
// and validates it.
type CatalogMapping struct {
	CatalogCommunityID *uuid.UUID `gorm:"type:uuid;column:community_id"`
	CanonicalName      string     `gorm:"type:varchar(200)"`
	MappedAt           *time.Time
	MappedByUserID     *uuid.UUID `gorm:"type:uuid"`
}

// IsSet reports whether a catalog community has been assigned.
func (m CatalogMapping) IsSet() bool {
	return m.CatalogCommunityID != nil
}

// IsValid reports whether the assigned identifier is well formed.
func (m CatalogMapping) IsValid() bool {
	return m.CatalogCommunityID != nil && *m.CatalogCommunityID != uuid.Nil
}

// Community represents a builder community, the container of Homes.
// It is the aggregate root for community-related operations.
type Community struct {
	shared.CompanyAggregateRoot
	Name    string         `gorm:"type:varchar(200);not null"`
	City    string         `gorm:"type:varchar(100)"`
	State   string         `gorm:"type:varchar(50)"`
	Market  string         `gorm:"type:varchar(100)"`
	Mapping CatalogMapping `gorm:"embedded;embeddedPrefix:catalog_"`
}

// TableName returns the table name for GORM
func (Community) TableName() string {
	return "communities"
}

// NewCommunity creates a new community for a company
func NewCommunity(companyID uuid.UUID, name string) (*Community, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Community name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Community name cannot exceed 200 characters")
	}
	return &Community{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Name:                 name,
	}, nil
}

// SetLocation sets the community's market location fields
func (c *Community) SetLocation(city, state, market string) {
	c.City = city
	c.State = state
	c.Market = market
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}
