package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/keepup/backend/internal/application/media"
	"github.com/keepup/backend/internal/domain/listing"
	"github.com/keepup/backend/internal/interfaces/http/dto"
	"github.com/keepup/backend/internal/interfaces/http/middleware"
)

// MediaService is the application-layer port for home media uploads.
type MediaService interface {
	InitiateUpload(ctx context.Context, companyID uuid.UUID, req media.InitiateUploadRequest) (*media.InitiateUploadResponse, error)
	ConfirmUpload(ctx context.Context, companyID, homeID uuid.UUID, kind, storageKey string) (*listing.Home, error)
	RemovePhoto(ctx context.Context, companyID, homeID uuid.UUID, storageKey string) error
}

// MediaHandler exposes presigned-URL uploads for home imagery. The file
// bytes never pass through this backend; clients upload directly to
// object storage and confirm afterwards.
type MediaHandler struct {
	BaseHandler
	service MediaService
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(service MediaService, mappingURL string) *MediaHandler {
	return &MediaHandler{
		BaseHandler: NewBaseHandler(mappingURL),
		service:     service,
	}
}

// RegisterRoutes registers media routes
func (h *MediaHandler) RegisterRoutes(rg *gin.RouterGroup) {
	homes := rg.Group("/homes")
	{
		homes.POST("/:id/media/uploads", h.InitiateUpload)
		homes.POST("/:id/media/confirm", h.ConfirmUpload)
		homes.DELETE("/:id/media/photos", h.RemovePhoto)
	}
}

// InitiateUploadRequest is the body for starting an upload. The home id
// comes from the path.
type InitiateUploadRequest struct {
	Kind        string `json:"kind" binding:"required"`
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

// InitiateUpload returns a presigned URL for uploading one image
func (h *MediaHandler) InitiateUpload(c *gin.Context) {
	companyID, homeID, ok := h.bindMediaScope(c)
	if !ok {
		return
	}

	var req InitiateUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.service.InitiateUpload(c.Request.Context(), companyID, media.InitiateUploadRequest{
		HomeID:      homeID,
		Kind:        req.Kind,
		FileName:    req.FileName,
		ContentType: req.ContentType,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ConfirmUploadRequest is the body for confirming a completed upload
type ConfirmUploadRequest struct {
	Kind       string `json:"kind" binding:"required"`
	StorageKey string `json:"storageKey" binding:"required"`
}

// HomeMediaResponse is the media state of a home after a change
type HomeMediaResponse struct {
	Success            bool     `json:"success"`
	HeroImage          string   `json:"heroImage,omitempty"`
	LiveElevationPhoto string   `json:"liveElevationPhoto,omitempty"`
	ListingPhotos      []string `json:"listingPhotos,omitempty"`
}

// ConfirmUpload records a completed upload on the home
func (h *MediaHandler) ConfirmUpload(c *gin.Context) {
	companyID, homeID, ok := h.bindMediaScope(c)
	if !ok {
		return
	}

	var req ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	home, err := h.service.ConfirmUpload(c.Request.Context(), companyID, homeID, req.Kind, req.StorageKey)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, HomeMediaResponse{
		Success:            true,
		HeroImage:          home.HeroImage,
		LiveElevationPhoto: home.LiveElevationPhoto,
		ListingPhotos:      home.ListingPhotos,
	})
}

// RemovePhotoRequest is the body for removing a listing photo
type RemovePhotoRequest struct {
	StorageKey string `json:"storageKey" binding:"required"`
}

// RemovePhoto removes a listing photo from the home and storage
func (h *MediaHandler) RemovePhoto(c *gin.Context) {
	companyID, homeID, ok := h.bindMediaScope(c)
	if !ok {
		return
	}

	var req RemovePhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if err := h.service.RemovePhoto(c.Request.Context(), companyID, homeID, req.StorageKey); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"success": true})
}

func (h *MediaHandler) bindMediaScope(c *gin.Context) (companyID, homeID uuid.UUID, ok bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid id")
		return uuid.Nil, uuid.Nil, false
	}
	homeID = uuid.MustParse(req.ID)

	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Company scope required")
		return uuid.Nil, uuid.Nil, false
	}

	return companyID, homeID, true
}
