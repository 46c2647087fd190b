package publication

import (
	"context"

	"github.com/google/uuid"
)

// MediaURLResolver turns a stored media path into an absolute public URL.
// Implementations must be pure string construction so payload building
// stays free of I/O.
type MediaURLResolver interface {
	PublicURL(path string) string
}

// Notifier alerts operators when an operation failed after local state had
// already been touched. Delivery is best-effort; failures to notify never
// affect the operation's outcome.
type Notifier interface {
	OperationFailed(ctx context.Context, companyID, subjectID uuid.UUID, operation string, cause error)
}
