package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/keepup/backend/internal/interfaces/http/dto"
)

// BodyLimit rejects oversized request bodies. A declared Content-Length
// over the limit fails fast with 413; chunked bodies are capped by
// MaxBytesReader so handlers hit a read error instead of buffering
// unbounded input.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewCodedErrorResponse(dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size"))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
