package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/keepup/backend/internal/application/publication"
	"github.com/keepup/backend/internal/domain/listing"
	"github.com/keepup/backend/internal/domain/shared"
	"github.com/keepup/backend/internal/interfaces/http/dto"
	"github.com/keepup/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMappingURL = "/settings/community-mappings"

type fakePublicationService struct {
	publishResult   *publication.PublishResult
	unpublishResult *publication.UnpublishResult
	syncResult      *publication.PublishResult
	communityResult *publication.CommunityPublishResult
	err             error

	lastCompanyID uuid.UUID
	lastID        uuid.UUID
	lastActorID   uuid.UUID
}

func (f *fakePublicationService) Publish(ctx context.Context, companyID, homeID, actorID uuid.UUID) (*publication.PublishResult, error) {
	f.lastCompanyID, f.lastID, f.lastActorID = companyID, homeID, actorID
	return f.publishResult, f.err
}

func (f *fakePublicationService) Unpublish(ctx context.Context, companyID, homeID, actorID uuid.UUID) (*publication.UnpublishResult, error) {
	f.lastCompanyID, f.lastID, f.lastActorID = companyID, homeID, actorID
	return f.unpublishResult, f.err
}

func (f *fakePublicationService) Sync(ctx context.Context, companyID, homeID, actorID uuid.UUID) (*publication.PublishResult, error) {
	f.lastCompanyID, f.lastID, f.lastActorID = companyID, homeID, actorID
	return f.syncResult, f.err
}

func (f *fakePublicationService) PublishCommunity(ctx context.Context, companyID, communityID, actorID uuid.UUID) (*publication.CommunityPublishResult, error) {
	f.lastCompanyID, f.lastID, f.lastActorID = companyID, communityID, actorID
	return f.communityResult, f.err
}

// setupPublicationRouter wires the handler behind fake auth context, the
// way the real router runs it behind the JWT and company middleware.
func setupPublicationRouter(svc PublicationService, companyID, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if companyID != uuid.Nil {
			c.Set(middleware.CompanyIDKey, companyID.String())
		}
		if userID != uuid.Nil {
			c.Set(middleware.JWTUserIDKey, userID.String())
		}
		c.Next()
	})
	h := NewPublicationHandler(svc, testMappingURL)
	api := router.Group("/api/v1")
	h.RegisterRoutes(api)
	return router
}

func TestPublicationHandler_Publish_Success(t *testing.T) {
	companyID := uuid.New()
	userID := uuid.New()
	homeID := uuid.New()
	publicHomeID := uuid.New()
	publicCommunityID := uuid.New()

	svc := &fakePublicationService{
		publishResult: &publication.PublishResult{
			Success:           true,
			PublicHomeID:      publicHomeID,
			PublicCommunityID: publicCommunityID,
		},
	}
	router := setupPublicationRouter(svc, companyID, userID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/homes/"+homeID.String()+"/publish", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, publicHomeID.String(), body["publicHomeId"])
	assert.Equal(t, publicCommunityID.String(), body["publicCommunityId"])

	assert.Equal(t, companyID, svc.lastCompanyID)
	assert.Equal(t, homeID, svc.lastID)
	assert.Equal(t, userID, svc.lastActorID)
}

func TestPublicationHandler_Publish_HomeNotFound(t *testing.T) {
	svc := &fakePublicationService{err: listing.ErrHomeNotFound}
	router := setupPublicationRouter(svc, uuid.New(), uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/homes/"+uuid.New().String()+"/publish", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "HOME_NOT_FOUND", resp.Code)
	assert.Empty(t, resp.MappingURL)
}

func TestPublicationHandler_Publish_MappingErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"not mapped", listing.ErrCommunityNotMapped, "COMMUNITY_NOT_MAPPED"},
		{"mapping invalid", listing.ErrMappingInvalid, "COMMUNITY_MAPPING_INVALID"},
		{"mapping changed", listing.ErrMappingChanged, "COMMUNITY_MAPPING_CHANGED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakePublicationService{err: tt.err}
			router := setupPublicationRouter(svc, uuid.New(), uuid.New())

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/homes/"+uuid.New().String()+"/publish", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusConflict, w.Code)

			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, testMappingURL, resp.MappingURL)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestPublicationHandler_Publish_ConcurrentModification(t *testing.T) {
	svc := &fakePublicationService{err: shared.ErrConcurrentModification}
	router := setupPublicationRouter(svc, uuid.New(), uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/homes/"+uuid.New().String()+"/publish", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "CONCURRENT_MODIFICATION", resp.Code)
	assert.Empty(t, resp.MappingURL)
}

func TestPublicationHandler_Publish_InvalidID(t *testing.T) {
	svc := &fakePublicationService{}
	router := setupPublicationRouter(svc, uuid.New(), uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/homes/not-a-uuid/publish", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid id")
}

func TestPublicationHandler_Publish_MissingCompanyScope(t *testing.T) {
	svc := &fakePublicationService{}
	router := setupPublicationRouter(svc, uuid.Nil, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/homes/"+uuid.New().String()+"/publish", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Company scope required")
}

func TestPublicationHandler_Publish_UnknownErrorIs500(t *testing.T) {
	svc := &fakePublicationService{err: errors.New("catalog connection refused")}
	router := setupPublicationRouter(svc, uuid.New(), uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/homes/"+uuid.New().String()+"/publish", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	// Infrastructure details must not leak to the dashboard
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestPublicationHandler_Publish_Timeout(t *testing.T) {
	svc := &fakePublicationService{err: context.DeadlineExceeded}
	router := setupPublicationRouter(svc, uuid.New(), uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/homes/"+uuid.New().String()+"/publish", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestPublicationHandler_Unpublish_Success(t *testing.T) {
	svc := &fakePublicationService{
		unpublishResult: &publication.UnpublishResult{Success: true},
	}
	router := setupPublicationRouter(svc, uuid.New(), uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/homes/"+uuid.New().String()+"/unpublish", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success": true}`, w.Body.String())
}

func TestPublicationHandler_Sync_Success(t *testing.T) {
	publicHomeID := uuid.New()
	publicCommunityID := uuid.New()
	svc := &fakePublicationService{
		syncResult: &publication.PublishResult{
			Success:           true,
			PublicHomeID:      publicHomeID,
			PublicCommunityID: publicCommunityID,
		},
	}
	router := setupPublicationRouter(svc, uuid.New(), uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/homes/"+uuid.New().String()+"/sync", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, publicHomeID.String(), body["publicHomeId"])
}

func TestPublicationHandler_PublishCommunity_Success(t *testing.T) {
	communityID := uuid.New()
	publicCommunityID := uuid.New()
	svc := &fakePublicationService{
		communityResult: &publication.CommunityPublishResult{
			Success:           true,
			PublicCommunityID: publicCommunityID,
		},
	}
	router := setupPublicationRouter(svc, uuid.New(), uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/communities/"+communityID.String()+"/publish-community", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, publicCommunityID.String(), body["publicCommunityId"])
	assert.NotContains(t, body, "publicHomeId")
	assert.Equal(t, communityID, svc.lastID)
}

func TestPublicationHandler_PublishCommunity_NotMapped(t *testing.T) {
	svc := &fakePublicationService{err: listing.ErrCommunityNotMapped}
	router := setupPublicationRouter(svc, uuid.New(), uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/communities/"+uuid.New().String()+"/publish-community", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "COMMUNITY_NOT_MAPPED", resp.Code)
	assert.Equal(t, testMappingURL, resp.MappingURL)
}
