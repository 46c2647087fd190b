package dto

import "net/http"

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeValidation is used when request validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeRateLimited is used when the rate limit is exceeded
	ErrCodeRateLimited = "RATE_LIMITED"
	// ErrCodeRequestTooLarge is used when the request body exceeds the limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// Mapping error codes. These mean the home's community has no usable
// catalog mapping; the response carries a mappingUrl hint so the operator
// can jump straight to the curation screen.
const (
	ErrCodeCommunityNotMapped = "COMMUNITY_NOT_MAPPED"
	ErrCodeMappingInvalid     = "COMMUNITY_MAPPING_INVALID"
	ErrCodeMappingChanged     = "COMMUNITY_MAPPING_CHANGED"
)

// ErrorCodeHTTPStatus maps domain error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Auth
	"UNAUTHORIZED": http.StatusUnauthorized,
	"FORBIDDEN":    http.StatusForbidden,

	// Resources
	"NOT_FOUND":      http.StatusNotFound,
	"HOME_NOT_FOUND": http.StatusNotFound,
	"ALREADY_EXISTS": http.StatusConflict,

	// Publication preconditions -> 409 Conflict
	ErrCodeCommunityNotMapped: http.StatusConflict,
	ErrCodeMappingInvalid:     http.StatusConflict,
	ErrCodeMappingChanged:     http.StatusConflict,
	"CONCURRENT_MODIFICATION": http.StatusConflict,

	// Invalid state -> 422 Unprocessable Entity
	"INVALID_STATE":        http.StatusUnprocessableEntity,
	"PHOTO_LIMIT_EXCEEDED": http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	"INVALID_INPUT":           http.StatusBadRequest,
	"INVALID_MEDIA_KIND":      http.StatusBadRequest,
	"DISALLOWED_CONTENT_TYPE": http.StatusBadRequest,
	"INVALID_STORAGE_KEY":     http.StatusBadRequest,
	"UPLOAD_NOT_FOUND":        http.StatusNotFound,

	// Storage infrastructure -> 502/500
	"UPLOAD_URL_FAILED":    http.StatusInternalServerError,
	"STORAGE_CHECK_FAILED": http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsMappingCode reports whether the error code identifies a community
// mapping precondition failure. Responses for these codes include a
// mappingUrl so the dashboard can deep-link to the mapping screen.
func IsMappingCode(code string) bool {
	switch code {
	case ErrCodeCommunityNotMapped, ErrCodeMappingInvalid, ErrCodeMappingChanged:
		return true
	}
	return false
}
