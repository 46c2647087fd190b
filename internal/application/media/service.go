package media

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/keepup/backend/internal/domain/listing"
	"github.com/keepup/backend/internal/domain/shared"
	"github.com/keepup/backend/internal/infrastructure/telemetry"
)

// Image kinds accepted for a home. Each kind lands in a different field of
// the home; only listing photos accumulate.
const (
	KindHero      = "hero"
	KindPhoto     = "photo"
	KindElevation = "elevation"
)

// AllowedContentTypes is the whitelist of content types accepted for home
// media. SVG is excluded because it can carry scripts.
var AllowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ObjectStorageService defines the interface for object storage operations.
// Implemented by the infrastructure layer (S3 or any S3-compatible backend).
type ObjectStorageService interface {
	// GenerateUploadURL generates a presigned URL for uploading a file
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)

	// GenerateDownloadURL generates a presigned URL for downloading a file
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// DeleteObject deletes an object from storage
	DeleteObject(ctx context.Context, storageKey string) error

	// ObjectExists checks if an object exists in storage
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// ServiceConfig holds configuration for the media service
type ServiceConfig struct {
	UploadURLExpiry  time.Duration
	MaxPhotosPerHome int
}

// DefaultServiceConfig returns the default configuration
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		UploadURLExpiry:  15 * time.Minute,
		MaxPhotosPerHome: 50,
	}
}

// Service handles home media uploads for the dashboard. Uploads go straight
// to object storage through presigned URLs; the backend only records the
// resulting object keys on the home.
type Service struct {
	homes   listing.HomeRepository
	storage ObjectStorageService
	config  ServiceConfig
	metrics *telemetry.PublicationMetrics
}

// NewService creates a new media Service
func NewService(homes listing.HomeRepository, storage ObjectStorageService) *Service {
	return &Service{
		homes:   homes,
		storage: storage,
		config:  DefaultServiceConfig(),
	}
}

// SetConfig sets the service configuration
func (s *Service) SetConfig(config ServiceConfig) {
	s.config = config
}

// SetMetrics sets the business metrics collector
func (s *Service) SetMetrics(pm *telemetry.PublicationMetrics) {
	s.metrics = pm
}

// InitiateUploadRequest describes one upload the dashboard wants to start
type InitiateUploadRequest struct {
	HomeID      uuid.UUID `json:"homeId" binding:"required"`
	Kind        string    `json:"kind" binding:"required"`
	FileName    string    `json:"fileName" binding:"required"`
	ContentType string    `json:"contentType" binding:"required"`
}

// InitiateUploadResponse carries the presigned URL the client uploads to
type InitiateUploadResponse struct {
	StorageKey string    `json:"storageKey"`
	UploadURL  string    `json:"uploadUrl"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// InitiateUpload validates the request and returns a presigned upload URL.
// Nothing is recorded on the home until ConfirmUpload.
func (s *Service) InitiateUpload(ctx context.Context, companyID uuid.UUID, req InitiateUploadRequest) (*InitiateUploadResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "media", "initiate_upload",
		telemetry.WithAttribute(telemetry.SpanAttrHomeID, req.HomeID),
		telemetry.WithAttribute(telemetry.SpanAttrMediaKind, req.Kind))
	defer span.End()

	home, err := s.homes.FindByIDForCompany(ctx, companyID, req.HomeID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, listing.ErrHomeNotFound
		}
		return nil, err
	}

	if !isValidKind(req.Kind) {
		return nil, shared.NewDomainError("INVALID_MEDIA_KIND",
			fmt.Sprintf("Media kind must be one of %s, %s, %s", KindHero, KindPhoto, KindElevation))
	}

	if !AllowedContentTypes[strings.ToLower(strings.TrimSpace(req.ContentType))] {
		return nil, shared.NewDomainError("DISALLOWED_CONTENT_TYPE",
			fmt.Sprintf("Content type '%s' is not allowed for home media", req.ContentType))
	}

	if req.Kind == KindPhoto && len(home.ListingPhotos) >= s.config.MaxPhotosPerHome {
		return nil, shared.NewDomainError("PHOTO_LIMIT_EXCEEDED",
			fmt.Sprintf("Maximum %d listing photos per home allowed", s.config.MaxPhotosPerHome))
	}

	storageKey := s.generateStorageKey(companyID, req.HomeID, req.Kind, req.FileName)

	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(ctx, storageKey, req.ContentType, s.config.UploadURLExpiry)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.NewDomainError("UPLOAD_URL_FAILED", "Failed to generate upload URL")
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrStorageKey, storageKey)

	return &InitiateUploadResponse{
		StorageKey: storageKey,
		UploadURL:  uploadURL,
		ExpiresAt:  expiresAt,
	}, nil
}

// ConfirmUpload verifies the object landed in storage and records its key on
// the home.
func (s *Service) ConfirmUpload(ctx context.Context, companyID, homeID uuid.UUID, kind, storageKey string) (*listing.Home, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "media", "confirm_upload",
		telemetry.WithAttribute(telemetry.SpanAttrHomeID, homeID),
		telemetry.WithAttribute(telemetry.SpanAttrMediaKind, kind))
	defer span.End()

	home, err := s.homes.FindByIDForCompany(ctx, companyID, homeID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, listing.ErrHomeNotFound
		}
		return nil, err
	}

	if !isValidKind(kind) {
		return nil, shared.NewDomainError("INVALID_MEDIA_KIND", "Unknown media kind")
	}

	// The key must belong to this home; a confirmed key from another scope
	// would let one home reference another's media.
	if !strings.HasPrefix(storageKey, s.keyPrefix(companyID, homeID)) {
		return nil, shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key does not belong to this home")
	}

	exists, err := s.storage.ObjectExists(ctx, storageKey)
	if err != nil {
		return nil, shared.NewDomainError("STORAGE_CHECK_FAILED", "Failed to verify upload")
	}
	if !exists {
		return nil, shared.NewDomainError("UPLOAD_NOT_FOUND",
			"File not found in storage. Please upload the file first.")
	}

	switch kind {
	case KindHero:
		home.HeroImage = storageKey
	case KindElevation:
		home.LiveElevationPhoto = storageKey
	case KindPhoto:
		home.ListingPhotos = append(home.ListingPhotos, storageKey)
	}

	if err := s.homes.Save(ctx, home); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordMediaUpload(ctx, companyID, kind)
	}
	return home, nil
}

// RemovePhoto drops one listing photo key from the home and deletes the
// underlying object. A key the home does not carry is not an error.
func (s *Service) RemovePhoto(ctx context.Context, companyID, homeID uuid.UUID, storageKey string) error {
	home, err := s.homes.FindByIDForCompany(ctx, companyID, homeID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return listing.ErrHomeNotFound
		}
		return err
	}

	kept := home.ListingPhotos[:0]
	removed := false
	for _, key := range home.ListingPhotos {
		if key == storageKey {
			removed = true
			continue
		}
		kept = append(kept, key)
	}

	if removed {
		home.ListingPhotos = kept
		if err := s.homes.Save(ctx, home); err != nil {
			return err
		}
		if err := s.storage.DeleteObject(ctx, storageKey); err != nil {
			// The home no longer references the object; an orphan in the
			// bucket is tolerable, a dangling reference is not.
			return nil
		}
	}
	return nil
}

func (s *Service) generateStorageKey(companyID, homeID uuid.UUID, kind, fileName string) string {
	ext := filepath.Ext(fileName)
	return fmt.Sprintf("%s%s/%s%s", s.keyPrefix(companyID, homeID), kind, uuid.New().String(), ext)
}

func (s *Service) keyPrefix(companyID, homeID uuid.UUID) string {
	return fmt.Sprintf("companies/%s/homes/%s/", companyID.String(), homeID.String())
}

func isValidKind(kind string) bool {
	return kind == KindHero || kind == KindPhoto || kind == KindElevation
}
