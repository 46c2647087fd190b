package shared

import "github.com/google/uuid"

// BaseAggregateRoot adds an optimistic-lock version to BaseEntity. Writers
// bump Version on every mutation; repositories include it in the UPDATE's
// WHERE clause and translate a zero-row result into
// ErrConcurrentModification.
type BaseAggregateRoot struct {
	BaseEntity
	Version int `gorm:"not null;default:1"`
}

// IncrementVersion marks one mutation for optimistic locking.
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

// CompanyAggregateRoot scopes an aggregate to one builder company. Reads
// and writes always filter by CompanyID, so cross-tenant access is
// indistinguishable from "not found".
type CompanyAggregateRoot struct {
	BaseAggregateRoot
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
}

func NewCompanyAggregateRoot(companyID uuid.UUID) CompanyAggregateRoot {
	return CompanyAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		CompanyID:         companyID,
	}
}
