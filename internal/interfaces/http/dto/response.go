package dto

// ErrorResponse is the uniform error body for every endpoint. The dashboard
// relies on this exact shape: code is machine-readable and mappingUrl, when
// present, links the operator to the community mapping screen.
type ErrorResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code,omitempty"`
	MappingURL string `json:"mappingUrl,omitempty"`
}

// NewErrorResponse creates an error response without a machine-readable code
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Error: message}
}

// NewCodedErrorResponse creates an error response with a code
func NewCodedErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Error: message, Code: code}
}

// NewMappingErrorResponse creates an error response carrying the mapping
// admin URL hint
func NewMappingErrorResponse(code, message, mappingURL string) ErrorResponse {
	return ErrorResponse{Error: message, Code: code, MappingURL: mappingURL}
}

// IDRequest represents a request with an ID path parameter
type IDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}
