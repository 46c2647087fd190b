package listing

import "github.com/keepup/backend/internal/domain/shared"

// Publication precondition errors. All are raised before any write happens,
// so they are always safe to retry once the operator fixes the mapping.
var (
	// ErrHomeNotFound is returned when a home does not exist within the
	// calling company's scope. A home owned by another company is
	// indistinguishable from a missing one.
	ErrHomeNotFound = shared.NewDomainError("HOME_NOT_FOUND", "Home not found for this company")

	// ErrCommunityNotMapped is returned when the home's community has no
	// curated catalog mapping.
	ErrCommunityNotMapped = shared.NewDomainError("COMMUNITY_NOT_MAPPED", "Community is not mapped to a catalog community")

	// ErrMappingInvalid is returned when a mapping exists but its catalog
	// community identifier is not well formed.
	ErrMappingInvalid = shared.NewDomainError("COMMUNITY_MAPPING_INVALID", "Community catalog mapping is invalid")

	// ErrMappingChanged is returned when the home was previously published
	// under a different catalog community than the one currently mapped.
	// Republishing under the new mapping requires operator awareness, so the
	// pipeline fails loudly instead of silently moving the listing.
	ErrMappingChanged = shared.NewDomainError("COMMUNITY_MAPPING_CHANGED", "Community catalog mapping changed since last publish")
)
