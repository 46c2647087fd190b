package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/keepup/backend/internal/domain/listing"
	"github.com/keepup/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedCommunity(t *testing.T, db *gorm.DB, companyID uuid.UUID, name string) *listing.Community {
	community, err := listing.NewCommunity(companyID, name)
	require.NoError(t, err)
	community.SetLocation("Mansfield", "TX", "Dallas-Fort Worth")
	require.NoError(t, db.Create(community).Error)
	return community
}

func TestGormCommunityRepository_FindByIDForCompany(t *testing.T) {
	db := setupListingTestDB(t)
	repo := NewGormCommunityRepository(db)
	ctx := context.Background()

	companyID := uuid.New()
	community := seedCommunity(t, db, companyID, "Walnut Creek")

	t.Run("finds existing community", func(t *testing.T) {
		found, err := repo.FindByIDForCompany(ctx, companyID, community.ID)

		require.NoError(t, err)
		assert.Equal(t, "Walnut Creek", found.Name)
		assert.Equal(t, "Mansfield", found.City)
		assert.False(t, found.Mapping.IsSet())
	})

	t.Run("returns not found for unknown id", func(t *testing.T) {
		_, err := repo.FindByIDForCompany(ctx, companyID, uuid.New())

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("another company cannot see the community", func(t *testing.T) {
		_, err := repo.FindByIDForCompany(ctx, uuid.New(), community.ID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormCommunityRepository_Save_RoundTripsMapping(t *testing.T) {
	db := setupListingTestDB(t)
	repo := NewGormCommunityRepository(db)
	ctx := context.Background()

	companyID := uuid.New()
	community := seedCommunity(t, db, companyID, "Walnut Creek")

	catalogID := uuid.New()
	userID := uuid.New()
	now := time.Now()
	community.Mapping = listing.CatalogMapping{
		CatalogCommunityID: &catalogID,
		CanonicalName:      "Walnut Creek Estates",
		MappedAt:           &now,
		MappedByUserID:     &userID,
	}
	require.NoError(t, repo.Save(ctx, community))

	found, err := repo.FindByIDForCompany(ctx, companyID, community.ID)
	require.NoError(t, err)
	require.True(t, found.Mapping.IsValid())
	assert.Equal(t, catalogID, *found.Mapping.CatalogCommunityID)
	assert.Equal(t, "Walnut Creek Estates", found.Mapping.CanonicalName)
	require.NotNil(t, found.Mapping.MappedByUserID)
	assert.Equal(t, userID, *found.Mapping.MappedByUserID)
}

func TestGormCommunityRepository_FindAllForCompany(t *testing.T) {
	db := setupListingTestDB(t)
	repo := NewGormCommunityRepository(db)
	ctx := context.Background()

	companyID := uuid.New()
	mapped := seedCommunity(t, db, companyID, "Alpine Ridge")
	catalogID := uuid.New()
	mapped.Mapping.CatalogCommunityID = &catalogID
	require.NoError(t, repo.Save(ctx, mapped))

	seedCommunity(t, db, companyID, "Birch Hollow")
	seedCommunity(t, db, uuid.New(), "Foreign Meadows")

	t.Run("lists only the company's communities", func(t *testing.T) {
		communities, err := repo.FindAllForCompany(ctx, companyID, shared.DefaultFilter())

		require.NoError(t, err)
		require.Len(t, communities, 2)
	})

	t.Run("mapped filter narrows to mapped communities", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Filters["mapped"] = true

		communities, err := repo.FindAllForCompany(ctx, companyID, filter)

		require.NoError(t, err)
		require.Len(t, communities, 1)
		assert.Equal(t, "Alpine Ridge", communities[0].Name)
	})

	t.Run("orders by whitelisted field", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.OrderBy = "name"
		filter.OrderDir = "asc"

		communities, err := repo.FindAllForCompany(ctx, companyID, filter)

		require.NoError(t, err)
		require.Len(t, communities, 2)
		assert.Equal(t, "Alpine Ridge", communities[0].Name)
		assert.Equal(t, "Birch Hollow", communities[1].Name)
	})
}

func TestGormFloorPlanRepository_FindByIDForCompany(t *testing.T) {
	db := setupListingTestDB(t)
	repo := NewGormFloorPlanRepository(db)
	ctx := context.Background()

	companyID := uuid.New()
	beds := 4
	baths := 2.5
	plan := &listing.FloorPlan{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Name:                 "The Caldwell",
		PlanNumber:           "CW-2870",
		Specs:                listing.PlanSpecs{Beds: &beds, Baths: &baths},
		Elevations: []listing.Elevation{
			{Name: "A", Asset: listing.PlanAsset{PreviewURL: "plans/caldwell-a.jpg"}},
		},
	}
	require.NoError(t, db.Create(plan).Error)

	t.Run("round-trips nested specs and elevations", func(t *testing.T) {
		found, err := repo.FindByIDForCompany(ctx, companyID, plan.ID)

		require.NoError(t, err)
		assert.Equal(t, "The Caldwell", found.Name)
		require.NotNil(t, found.Specs.Beds)
		assert.Equal(t, 4, *found.Specs.Beds)
		require.Len(t, found.Elevations, 1)
		assert.Equal(t, "plans/caldwell-a.jpg", found.Elevations[0].Asset.PrimaryURL())
	})

	t.Run("returns not found across companies", func(t *testing.T) {
		_, err := repo.FindByIDForCompany(ctx, uuid.New(), plan.ID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormMarketingProfileRepository_FindByCommunity(t *testing.T) {
	db := setupListingTestDB(t)
	repo := NewGormMarketingProfileRepository(db)
	ctx := context.Background()

	companyID := uuid.New()
	communityID := uuid.New()
	hoa := decimal.NewFromInt(95)
	profile := &listing.MarketingProfile{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		CommunityID:          communityID,
		Fees:                 listing.CommunityFees{HOAFee: &hoa, HOAFrequency: "monthly"},
		Amenities:            []string{"pool", "trails"},
		Schools:              listing.CommunitySchools{ISD: "Mansfield ISD", Elementary: "Brown Elementary"},
		Promotion:            "Closing costs covered through September",
	}
	require.NoError(t, db.Create(profile).Error)

	t.Run("finds the community's profile", func(t *testing.T) {
		found, err := repo.FindByCommunity(ctx, companyID, communityID)

		require.NoError(t, err)
		require.NotNil(t, found.Fees.HOAFee)
		assert.True(t, found.Fees.HOAFee.Equal(hoa))
		assert.Equal(t, []string{"pool", "trails"}, found.Amenities)
		assert.Equal(t, "Mansfield ISD", found.Schools.ISD)
	})

	t.Run("community without profile returns not found", func(t *testing.T) {
		_, err := repo.FindByCommunity(ctx, companyID, uuid.New())

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormCompanyRepository_FindByID(t *testing.T) {
	db := setupListingTestDB(t)
	repo := NewGormCompanyRepository(db)
	ctx := context.Background()

	company := &listing.Company{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              "Keystone Homes",
		Slug:              "keystone-homes",
	}
	require.NoError(t, db.Create(company).Error)

	t.Run("finds existing company", func(t *testing.T) {
		found, err := repo.FindByID(ctx, company.ID)

		require.NoError(t, err)
		assert.Equal(t, "Keystone Homes", found.Name)
		assert.Equal(t, "keystone-homes", found.Slug)
	})

	t.Run("returns not found for unknown id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
