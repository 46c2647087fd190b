package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/keepup/backend/internal/infrastructure/logger"
	"github.com/keepup/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Company context keys
const (
	CompanyIDKey     = "company_id"
	CompanyHeaderKey = "X-Company-ID"
)

// CompanyValidator checks that a company exists and is active. Optional;
// when nil, the company ID is trusted as-is from the token.
type CompanyValidator interface {
	ValidateCompany(companyID string) error
}

// CompanyMiddlewareConfig holds configuration for company scope middleware
type CompanyMiddlewareConfig struct {
	// HeaderEnabled enables X-Company-ID header extraction as a fallback
	// for machine clients that authenticate with a super-admin token.
	HeaderEnabled bool
	// SkipPaths are paths that don't require company scope (e.g., health check)
	SkipPaths []string
	// Validator is an optional validator to check if the company exists
	Validator CompanyValidator
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultCompanyConfig returns default company middleware configuration
func DefaultCompanyConfig() CompanyMiddlewareConfig {
	return CompanyMiddlewareConfig{
		HeaderEnabled: true,
		SkipPaths:     []string{"/health", "/healthz", "/ready", "/api/v1/health"},
		Validator:     nil,
		Logger:        nil,
	}
}

// CompanyMiddleware binds every request to exactly one company. Extraction
// order: JWT claims, then the X-Company-ID header. Requests without a
// resolvable company scope are rejected before any domain logic runs.
func CompanyMiddleware() gin.HandlerFunc {
	return CompanyMiddlewareWithConfig(DefaultCompanyConfig())
}

// CompanyMiddlewareWithConfig returns company middleware with custom configuration
func CompanyMiddlewareWithConfig(cfg CompanyMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
				c.Next()
				return
			}
		}

		var companyID string

		// Priority 1: JWT claims (JWT middleware has already run)
		if jwtCompanyID, exists := c.Get(JWTCompanyIDKey); exists {
			if cid, ok := jwtCompanyID.(string); ok && cid != "" {
				companyID = cid
			}
		}

		// Priority 2: X-Company-ID header
		if companyID == "" && cfg.HeaderEnabled {
			companyID = c.GetHeader(CompanyHeaderKey)
		}

		if companyID == "" {
			respondBadRequest(c, "Company scope required")
			return
		}

		if _, err := uuid.Parse(companyID); err != nil {
			respondBadRequest(c, "Invalid company ID format")
			return
		}

		if cfg.Validator != nil {
			if err := cfg.Validator.ValidateCompany(companyID); err != nil {
				log := cfg.Logger
				if log == nil {
					log = logger.FromContext(c.Request.Context())
				}
				log.Warn("Company validation failed",
					zap.String("company_id", companyID),
					zap.Error(err),
				)
				respondBadRequest(c, "Invalid or inactive company")
				return
			}
		}

		c.Set(CompanyIDKey, companyID)

		// Set in request context for the service layer
		ctx := c.Request.Context()
		log := logger.FromContext(ctx)
		ctx, _ = logger.WithCompanyID(ctx, log, companyID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// respondBadRequest rejects a request before any domain logic runs
func respondBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewCodedErrorResponse("BAD_REQUEST", message))
}

// GetCompanyID retrieves the company ID from gin.Context
func GetCompanyID(c *gin.Context) string {
	if companyID, exists := c.Get(CompanyIDKey); exists {
		if cid, ok := companyID.(string); ok {
			return cid
		}
	}
	return ""
}

// GetCompanyUUID retrieves the company ID as UUID from gin.Context
func GetCompanyUUID(c *gin.Context) (uuid.UUID, error) {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(companyID)
}

// MustGetCompanyUUID retrieves the company ID as UUID or panics if missing.
// Use this only behind CompanyMiddleware, which guarantees the scope.
func MustGetCompanyUUID(c *gin.Context) uuid.UUID {
	companyUUID, err := GetCompanyUUID(c)
	if err != nil || companyUUID == uuid.Nil {
		panic("valid company_id not found in context")
	}
	return companyUUID
}
