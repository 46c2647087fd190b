package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/keepup/backend/internal/application/publication"
	"github.com/keepup/backend/internal/infrastructure/logger"
	"github.com/keepup/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// PublicationService is the application-layer port the handler drives.
type PublicationService interface {
	Publish(ctx context.Context, companyID, homeID, actorID uuid.UUID) (*publication.PublishResult, error)
	Unpublish(ctx context.Context, companyID, homeID, actorID uuid.UUID) (*publication.UnpublishResult, error)
	Sync(ctx context.Context, companyID, homeID, actorID uuid.UUID) (*publication.PublishResult, error)
	PublishCommunity(ctx context.Context, companyID, communityID, actorID uuid.UUID) (*publication.CommunityPublishResult, error)
}

// PublicationHandler exposes the listing publication pipeline to the
// dashboard: publish, unpublish and sync for homes, plus community-only
// republish for marketing copy updates.
type PublicationHandler struct {
	BaseHandler
	service PublicationService
}

// NewPublicationHandler creates a new PublicationHandler
func NewPublicationHandler(service PublicationService, mappingURL string) *PublicationHandler {
	return &PublicationHandler{
		BaseHandler: NewBaseHandler(mappingURL),
		service:     service,
	}
}

// RegisterRoutes registers publication routes
func (h *PublicationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	homes := rg.Group("/homes")
	{
		homes.POST("/:id/publish", h.Publish)
		homes.POST("/:id/unpublish", h.Unpublish)
		homes.POST("/:id/sync", h.Sync)
	}

	communities := rg.Group("/communities")
	{
		communities.POST("/:id/publish-community", h.PublishCommunity)
	}
}

// Publish pushes a home and its community to the public catalog
func (h *PublicationHandler) Publish(c *gin.Context) {
	companyID, homeID, actorID, ok := h.bindScope(c)
	if !ok {
		return
	}

	result, err := h.service.Publish(c.Request.Context(), companyID, homeID, actorID)
	if err != nil {
		h.logOutcome(c, "publish", homeID, err)
		h.HandleError(c, err)
		return
	}

	h.logOutcome(c, "publish", homeID, nil)
	h.Success(c, result)
}

// Unpublish withdraws a home from the public catalog
func (h *PublicationHandler) Unpublish(c *gin.Context) {
	companyID, homeID, actorID, ok := h.bindScope(c)
	if !ok {
		return
	}

	result, err := h.service.Unpublish(c.Request.Context(), companyID, homeID, actorID)
	if err != nil {
		h.logOutcome(c, "unpublish", homeID, err)
		h.HandleError(c, err)
		return
	}

	h.logOutcome(c, "unpublish", homeID, nil)
	h.Success(c, result)
}

// Sync refreshes the published content for an already-published home
func (h *PublicationHandler) Sync(c *gin.Context) {
	companyID, homeID, actorID, ok := h.bindScope(c)
	if !ok {
		return
	}

	result, err := h.service.Sync(c.Request.Context(), companyID, homeID, actorID)
	if err != nil {
		h.logOutcome(c, "sync", homeID, err)
		h.HandleError(c, err)
		return
	}

	h.logOutcome(c, "sync", homeID, nil)
	h.Success(c, result)
}

// PublishCommunity republishes only the community aggregate (marketing
// copy, fees, amenities) without touching any home bookkeeping
func (h *PublicationHandler) PublishCommunity(c *gin.Context) {
	companyID, communityID, actorID, ok := h.bindScope(c)
	if !ok {
		return
	}

	result, err := h.service.PublishCommunity(c.Request.Context(), companyID, communityID, actorID)
	if err != nil {
		h.logOutcome(c, "publish_community", communityID, err)
		h.HandleError(c, err)
		return
	}

	h.logOutcome(c, "publish_community", communityID, nil)
	h.Success(c, result)
}

// bindScope resolves the path id, company scope and acting user. Malformed
// ids and missing scope are rejected here, before any domain logic runs.
func (h *PublicationHandler) bindScope(c *gin.Context) (companyID, resourceID, actorID uuid.UUID, ok bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid id")
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	resourceID = uuid.MustParse(req.ID)

	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Company scope required")
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}

	actorID, err = getUserID(c)
	if err != nil {
		h.BadRequest(c, "Acting user required")
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}

	return companyID, resourceID, actorID, true
}

func (h *PublicationHandler) logOutcome(c *gin.Context, operation string, resourceID uuid.UUID, err error) {
	// L carries trace and principal fields from the request context into
	// every outcome entry.
	log := logger.L(c.Request.Context())
	if err != nil {
		log.Warn("Publication operation failed",
			zap.String("operation", operation),
			zap.String("resource_id", resourceID.String()),
			zap.Error(err),
		)
		return
	}
	log.Info("Publication operation completed",
		zap.String("operation", operation),
		zap.String("resource_id", resourceID.String()),
	)
}
