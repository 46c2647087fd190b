package shared

// DomainError pairs a stable machine-readable code with a human message.
// Handlers map codes onto HTTP statuses without string matching.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

var (
	// ErrNotFound covers both genuinely missing rows and rows owned by
	// another company.
	ErrNotFound = NewDomainError("NOT_FOUND", "Resource not found")

	// ErrConcurrentModification reports a lost optimistic-lock race.
	ErrConcurrentModification = NewDomainError("CONCURRENT_MODIFICATION", "Resource was modified by another process")
)
