package storage

import (
	"fmt"
	"strings"

	"github.com/keepup/backend/internal/application/publication"
	"github.com/keepup/backend/internal/infrastructure/config"
)

// Ensure URLResolver implements the payload builder's port
var _ publication.MediaURLResolver = (*URLResolver)(nil)

// URLResolver turns stored media object keys into the absolute URLs the
// public catalog serves. It is pure string construction so the payload
// builder stays deterministic; no network calls are made.
type URLResolver struct {
	baseURL string
}

// NewURLResolver creates a URLResolver from storage configuration. A
// configured public base URL (typically a CDN in front of the bucket) wins;
// otherwise the URL is derived from the bucket location.
func NewURLResolver(cfg *config.StorageConfig) *URLResolver {
	base := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if base == "" {
		base = bucketBaseURL(cfg)
	}
	return &URLResolver{baseURL: base}
}

// PublicURL resolves a stored media path to an absolute URL. Paths that are
// already absolute or protocol-relative pass through unchanged; legacy data
// carries both forms.
func (r *URLResolver) PublicURL(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "//") {
		return path
	}
	return r.baseURL + "/" + strings.TrimPrefix(path, "/")
}

func bucketBaseURL(cfg *config.StorageConfig) string {
	if endpoint := endpointURL(cfg); endpoint != "" {
		// S3-compatible backends serve objects path-style.
		return strings.TrimSuffix(endpoint, "/") + "/" + cfg.Bucket
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
}
