package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Store is the public catalog persistence port. The catalog lives in its
// own database; all writes are upserts on the documents' natural keys so
// repeated publications converge on the same records.
type Store interface {
	// UpsertCommunity inserts or updates the community document keyed on
	// (CompanyID, CommunityID) and returns the record id.
	UpsertCommunity(ctx context.Context, doc *PublicCommunity) (uuid.UUID, error)

	// UpsertHome inserts or updates the home document keyed on
	// (CompanyID, SourceHomeID) and returns the record id.
	UpsertHome(ctx context.Context, doc *PublicHome) (uuid.UUID, error)

	// DeleteHome removes the home document for (companyID, sourceHomeID).
	// Deleting a document that does not exist is not an error.
	DeleteHome(ctx context.Context, companyID, sourceHomeID uuid.UUID) error

	// FindHome returns the home document for (companyID, sourceHomeID),
	// or shared.ErrNotFound when absent.
	FindHome(ctx context.Context, companyID, sourceHomeID uuid.UUID) (*PublicHome, error)

	// FindCommunity returns the community document for
	// (companyID, communityID), or shared.ErrNotFound when absent.
	FindCommunity(ctx context.Context, companyID, communityID uuid.UUID) (*PublicCommunity, error)
}
