// Package shared holds the building blocks common to every aggregate:
// identity, optimistic-lock versioning, tenant scoping, and the domain
// error vocabulary.
package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and lifecycle timestamps. GORM maps the
// fields by convention; aggregates embed this rather than redeclaring them.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity assigns a fresh UUID and stamps both timestamps to now.
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}
