package listing

import (
	"context"

	"github.com/google/uuid"
	"github.com/keepup/backend/internal/domain/shared"
)

// HomeRepository defines persistence operations for homes. All reads and
// writes are scoped by company in addition to the home id.
type HomeRepository interface {
	// FindByIDForCompany returns the home, or shared.ErrNotFound when it does
	// not exist within the company's scope.
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*Home, error)

	// FindByCommunity returns all homes of a community, used for model-home
	// resolution during payload building.
	FindByCommunity(ctx context.Context, companyID, communityID uuid.UUID) ([]Home, error)

	// FindAllForCompany lists homes for the dashboards.
	FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]Home, error)

	// Save creates or updates a home. CRUD edit flows go through here; the
	// publication pipeline does not.
	Save(ctx context.Context, home *Home) error

	// UpdatePublishState replaces the home's publish bookkeeping with a
	// compare-and-swap on the current publish version. It returns
	// shared.ErrConcurrentModification when expectedVersion no longer matches,
	// which serializes concurrent publication attempts on the same home.
	UpdatePublishState(ctx context.Context, companyID, id uuid.UUID, expectedVersion int, state PublishState) error

	// TouchContentSynced updates only the content_synced_at timestamp. Sync
	// never mutates publish flags, so no version check is involved.
	TouchContentSynced(ctx context.Context, companyID, id uuid.UUID) error
}
