package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/keepup/backend/internal/domain/shared"
	"github.com/keepup/backend/internal/interfaces/http/dto"
	"github.com/keepup/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities. mappingURL is the
// dashboard's community mapping screen, attached to mapping failures so
// operators can jump straight to the fix.
type BaseHandler struct {
	mappingURL string
}

// NewBaseHandler creates a BaseHandler with the mapping admin URL
func NewBaseHandler(mappingURL string) BaseHandler {
	return BaseHandler{mappingURL: mappingURL}
}

// getCompanyID extracts the company scope set by the company middleware
func getCompanyID(c *gin.Context) (uuid.UUID, error) {
	companyID, err := middleware.GetCompanyUUID(c)
	if err != nil {
		return uuid.Nil, err
	}
	if companyID == uuid.Nil {
		return uuid.Nil, errors.New("company scope not found in context")
	}
	return companyID, nil
}

// getUserID extracts the acting user from JWT claims
func getUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr := middleware.GetJWTUserID(c)
	if userIDStr == "" {
		return uuid.Nil, errors.New("user ID not found in context")
	}
	return uuid.Parse(userIDStr)
}

// Success sends a 200 response with the given body
func (h *BaseHandler) Success(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewCodedErrorResponse(dto.ErrCodeBadRequest, message))
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, dto.NewCodedErrorResponse(dto.ErrCodeInternal, message))
}

// HandleError converts domain errors to HTTP responses. Mapping errors
// carry the mappingUrl hint; unknown errors collapse to a generic 500 so
// infrastructure details never leak to the dashboard.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		status := dto.GetHTTPStatus(domainErr.Code)
		if dto.IsMappingCode(domainErr.Code) {
			c.JSON(status, dto.NewMappingErrorResponse(domainErr.Code, domainErr.Message, h.mappingURL))
			return
		}
		c.JSON(status, dto.NewCodedErrorResponse(domainErr.Code, domainErr.Message))
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusGatewayTimeout, dto.NewErrorResponse("Operation timed out"))
		return
	}

	h.InternalError(c, "An unexpected error occurred")
}
