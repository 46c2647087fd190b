package catalogstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/keepup/backend/internal/domain/catalog"
	"github.com/keepup/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var _ catalog.Store = (*GormStore)(nil)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&PublicCommunityRecord{}, &PublicHomeRecord{})
	require.NoError(t, err)

	return db
}

func testCommunityDoc(companyID, communityID uuid.UUID) *catalog.PublicCommunity {
	return &catalog.PublicCommunity{
		CompanyID:   companyID,
		CommunityID: communityID,
		Name:        "Walnut Creek Estates",
		Slug:        "walnut-creek-estates",
		City:        "Mansfield",
		State:       "TX",
		Builder:     catalog.Builder{Name: "Keystone Homes", Slug: "keystone-homes"},
	}
}

func testHomeDoc(companyID, sourceHomeID, communityID uuid.UUID) *catalog.PublicHome {
	price := 450000.0
	return &catalog.PublicHome{
		CompanyID:         companyID,
		CommunityID:       communityID,
		SourceCommunityID: uuid.New(),
		SourceHomeID:      sourceHomeID,
		Title:             "1204 Redbud Lane",
		Slug:              "caldwell-42",
		Status:            "Available",
		Published:         true,
		Address:           catalog.Address{Street: "1204 Redbud Lane"},
		Price:             &price,
		Meta:              catalog.Meta{PublishVersion: 1},
	}
}

func TestGormStore_UpsertCommunity(t *testing.T) {
	db := setupCatalogTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	companyID := uuid.New()
	communityID := uuid.New()

	t.Run("creates new record", func(t *testing.T) {
		id, err := store.UpsertCommunity(ctx, testCommunityDoc(companyID, communityID))

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)

		found, err := store.FindCommunity(ctx, companyID, communityID)
		require.NoError(t, err)
		assert.Equal(t, id, found.ID)
		assert.Equal(t, "Walnut Creek Estates", found.Name)
	})

	t.Run("re-upsert keeps the record id and refreshes content", func(t *testing.T) {
		first, err := store.UpsertCommunity(ctx, testCommunityDoc(companyID, communityID))
		require.NoError(t, err)

		doc := testCommunityDoc(companyID, communityID)
		doc.Name = "Walnut Creek Estates Phase II"
		doc.Slug = "walnut-creek-estates-ii"
		second, err := store.UpsertCommunity(ctx, doc)
		require.NoError(t, err)

		assert.Equal(t, first, second)

		var count int64
		require.NoError(t, db.Model(&PublicCommunityRecord{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		found, err := store.FindCommunity(ctx, companyID, communityID)
		require.NoError(t, err)
		assert.Equal(t, "Walnut Creek Estates Phase II", found.Name)
	})

	t.Run("same catalog community under two companies stays separate", func(t *testing.T) {
		otherCompany := uuid.New()
		id, err := store.UpsertCommunity(ctx, testCommunityDoc(otherCompany, communityID))
		require.NoError(t, err)

		existing, err := store.FindCommunity(ctx, companyID, communityID)
		require.NoError(t, err)
		assert.NotEqual(t, existing.ID, id)
	})
}

func TestGormStore_UpsertHome(t *testing.T) {
	db := setupCatalogTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	companyID := uuid.New()
	sourceHomeID := uuid.New()
	communityID := uuid.New()

	t.Run("creates new record", func(t *testing.T) {
		id, err := store.UpsertHome(ctx, testHomeDoc(companyID, sourceHomeID, communityID))

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)

		found, err := store.FindHome(ctx, companyID, sourceHomeID)
		require.NoError(t, err)
		assert.Equal(t, id, found.ID)
		assert.Equal(t, "1204 Redbud Lane", found.Title)
		require.NotNil(t, found.Price)
		assert.Equal(t, 450000.0, *found.Price)
	})

	t.Run("re-upsert converges on the same record", func(t *testing.T) {
		first, err := store.UpsertHome(ctx, testHomeDoc(companyID, sourceHomeID, communityID))
		require.NoError(t, err)

		doc := testHomeDoc(companyID, sourceHomeID, communityID)
		price := 462500.0
		doc.Price = &price
		doc.Meta.PublishVersion = 2
		second, err := store.UpsertHome(ctx, doc)
		require.NoError(t, err)

		assert.Equal(t, first, second)

		var count int64
		require.NoError(t, db.Model(&PublicHomeRecord{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		found, err := store.FindHome(ctx, companyID, sourceHomeID)
		require.NoError(t, err)
		require.NotNil(t, found.Price)
		assert.Equal(t, 462500.0, *found.Price)
		assert.Equal(t, 2, found.Meta.PublishVersion)
	})
}

func TestGormStore_DeleteHome(t *testing.T) {
	db := setupCatalogTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	companyID := uuid.New()
	sourceHomeID := uuid.New()

	_, err := store.UpsertHome(ctx, testHomeDoc(companyID, sourceHomeID, uuid.New()))
	require.NoError(t, err)

	t.Run("removes the document", func(t *testing.T) {
		require.NoError(t, store.DeleteHome(ctx, companyID, sourceHomeID))

		_, err := store.FindHome(ctx, companyID, sourceHomeID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("deleting again is not an error", func(t *testing.T) {
		assert.NoError(t, store.DeleteHome(ctx, companyID, sourceHomeID))
	})

	t.Run("scoped by company", func(t *testing.T) {
		otherHome := uuid.New()
		_, err := store.UpsertHome(ctx, testHomeDoc(companyID, otherHome, uuid.New()))
		require.NoError(t, err)

		require.NoError(t, store.DeleteHome(ctx, uuid.New(), otherHome))

		_, err = store.FindHome(ctx, companyID, otherHome)
		assert.NoError(t, err)
	})
}

func TestGormStore_Find_NotFound(t *testing.T) {
	db := setupCatalogTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	_, err := store.FindHome(ctx, uuid.New(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = store.FindCommunity(ctx, uuid.New(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
