package listing

import (
	"github.com/keepup/backend/internal/domain/shared"
)

// Company is the builder company owning communities, homes, and plans. The
// publication pipeline reads it for the public builder display name/slug.
type Company struct {
	shared.BaseAggregateRoot
	Name string `gorm:"type:varchar(200);not null"`
	Slug string `gorm:"type:varchar(200);uniqueIndex"`
}

// TableName returns the table name for GORM
func (Company) TableName() string {
	return "companies"
}
