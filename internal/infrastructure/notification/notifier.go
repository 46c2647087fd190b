// Package notification delivers operator alerts for failed publication
// operations. Delivery is log-based; email or paging sits behind the log
// pipeline, outside this service.
package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/keepup/backend/internal/application/publication"
	"go.uber.org/zap"
)

// Ensure LogNotifier implements the orchestrator's port
var _ publication.Notifier = (*LogNotifier)(nil)

// LogNotifier writes operation failures to the structured log at error
// level with a stable marker field so alerting can key on it.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// OperationFailed records a failed publication operation for operators
func (n *LogNotifier) OperationFailed(ctx context.Context, companyID, subjectID uuid.UUID, operation string, cause error) {
	n.logger.Error("publication operation failed",
		zap.String("alert", "publication_failure"),
		zap.String("operation", operation),
		zap.String("company_id", companyID.String()),
		zap.String("subject_id", subjectID.String()),
		zap.Error(cause),
	)
}
