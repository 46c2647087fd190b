package listing

import (
	"context"

	"github.com/google/uuid"
	"github.com/keepup/backend/internal/domain/shared"
)

// CommunityRepository defines persistence operations for communities.
type CommunityRepository interface {
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*Community, error)
	FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]Community, error)
	Save(ctx context.Context, community *Community) error
}

// FloorPlanRepository defines read access to floor plans.
type FloorPlanRepository interface {
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*FloorPlan, error)
}

// MarketingProfileRepository defines read access to community marketing
// profiles. A community without a profile is not an error.
type MarketingProfileRepository interface {
	FindByCommunity(ctx context.Context, companyID, communityID uuid.UUID) (*MarketingProfile, error)
}

// CompanyRepository defines read access to builder companies.
type CompanyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Company, error)
}
