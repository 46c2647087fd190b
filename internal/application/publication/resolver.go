package publication

import (
	"github.com/google/uuid"
	"github.com/keepup/backend/internal/domain/listing"
	"github.com/keepup/backend/internal/domain/shared"
)

// MappingError wraps a mapping precondition failure with the community it
// concerns so callers can point the operator at the curation page.
type MappingError struct {
	Err         *shared.DomainError
	CommunityID uuid.UUID
}

func (e *MappingError) Error() string { return e.Err.Error() }

func (e *MappingError) Unwrap() error { return e.Err }

// ResolveMapping validates that a community carries a usable catalog
// mapping and returns the canonical catalog community id. It performs no
// writes.
//
// priorCatalogID is the mapping recorded on the home by an earlier
// publication, if any. When it differs from the community's current
// mapping the resolution fails rather than silently republishing under
// the new canonical community.
func ResolveMapping(community *listing.Community, priorCatalogID *uuid.UUID) (uuid.UUID, error) {
	mapping := community.Mapping
	if !mapping.IsSet() {
		return uuid.Nil, &MappingError{Err: listing.ErrCommunityNotMapped, CommunityID: community.ID}
	}
	if !mapping.IsValid() {
		return uuid.Nil, &MappingError{Err: listing.ErrMappingInvalid, CommunityID: community.ID}
	}
	if priorCatalogID != nil && *priorCatalogID != uuid.Nil && *priorCatalogID != *mapping.CatalogCommunityID {
		return uuid.Nil, &MappingError{Err: listing.ErrMappingChanged, CommunityID: community.ID}
	}
	return *mapping.CatalogCommunityID, nil
}
