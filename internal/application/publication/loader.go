package publication

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/keepup/backend/internal/domain/listing"
	"github.com/keepup/backend/internal/domain/shared"
)

// Aggregate is everything payload building needs, gathered in one pass.
// Home and FloorPlan are nil for community-only publications; Profile and
// Company are optional enrichments whose absence is never an error.
type Aggregate struct {
	Home      *listing.Home
	Community *listing.Community
	Homes     []listing.Home
	FloorPlan *listing.FloorPlan
	Profile   *listing.MarketingProfile
	Company   *listing.Company

	// CatalogCommunityID is the resolved canonical community id. It is set
	// whenever the community carries a valid mapping, and guaranteed set
	// when the load required one.
	CatalogCommunityID uuid.UUID
}

// ContextLoader gathers the source aggregate for one publication operation.
// Every read is scoped by company, so a home belonging to another company
// is indistinguishable from a missing one.
type ContextLoader struct {
	homes       listing.HomeRepository
	communities listing.CommunityRepository
	floorPlans  listing.FloorPlanRepository
	profiles    listing.MarketingProfileRepository
	companies   listing.CompanyRepository
}

// NewContextLoader creates a new ContextLoader
func NewContextLoader(
	homes listing.HomeRepository,
	communities listing.CommunityRepository,
	floorPlans listing.FloorPlanRepository,
	profiles listing.MarketingProfileRepository,
	companies listing.CompanyRepository,
) *ContextLoader {
	return &ContextLoader{
		homes:       homes,
		communities: communities,
		floorPlans:  floorPlans,
		profiles:    profiles,
		companies:   companies,
	}
}

// Load gathers the aggregate for a home. When requireMapping is true the
// community's catalog mapping is validated (including drift against the
// mapping previously recorded on the home) and its failures propagate;
// when false the mapping is resolved best-effort so unpublish still works
// after an operator removed the mapping.
func (l *ContextLoader) Load(ctx context.Context, companyID, homeID uuid.UUID, requireMapping bool) (*Aggregate, error) {
	home, err := l.homes.FindByIDForCompany(ctx, companyID, homeID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, listing.ErrHomeNotFound
		}
		return nil, err
	}

	community, err := l.communities.FindByIDForCompany(ctx, companyID, home.CommunityID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, listing.ErrHomeNotFound
		}
		return nil, err
	}

	agg := &Aggregate{Home: home, Community: community}

	if requireMapping {
		catalogID, err := ResolveMapping(community, home.Publish.ExternalCommunityID)
		if err != nil {
			return nil, err
		}
		agg.CatalogCommunityID = catalogID
	} else if community.Mapping.IsValid() {
		agg.CatalogCommunityID = *community.Mapping.CatalogCommunityID
	}

	if err := l.loadEnrichments(ctx, companyID, agg); err != nil {
		return nil, err
	}

	if home.FloorPlanID != nil {
		plan, err := l.floorPlans.FindByIDForCompany(ctx, companyID, *home.FloorPlanID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		agg.FloorPlan = plan
	}

	return agg, nil
}

// LoadCommunity gathers the aggregate for a community-only publication.
// The mapping is always required; there is no home-side drift to check.
func (l *ContextLoader) LoadCommunity(ctx context.Context, companyID, communityID uuid.UUID) (*Aggregate, error) {
	community, err := l.communities.FindByIDForCompany(ctx, companyID, communityID)
	if err != nil {
		return nil, err
	}

	catalogID, err := ResolveMapping(community, nil)
	if err != nil {
		return nil, err
	}

	agg := &Aggregate{Community: community, CatalogCommunityID: catalogID}
	if err := l.loadEnrichments(ctx, companyID, agg); err != nil {
		return nil, err
	}
	return agg, nil
}

// loadEnrichments fills the optional parts shared by both load paths: the
// community's homes (for model-address resolution), the marketing profile,
// and the owning company.
func (l *ContextLoader) loadEnrichments(ctx context.Context, companyID uuid.UUID, agg *Aggregate) error {
	homes, err := l.homes.FindByCommunity(ctx, companyID, agg.Community.ID)
	if err != nil {
		return err
	}
	agg.Homes = homes

	profile, err := l.profiles.FindByCommunity(ctx, companyID, agg.Community.ID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	agg.Profile = profile

	company, err := l.companies.FindByID(ctx, companyID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	agg.Company = company

	return nil
}
