package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogNotifier_OperationFailed(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	notifier := NewLogNotifier(zap.New(core))

	companyID := uuid.New()
	homeID := uuid.New()
	notifier.OperationFailed(context.Background(), companyID, homeID, "publish", errors.New("catalog unreachable"))

	entries := logs.All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "publication_failure", fields["alert"])
	assert.Equal(t, "publish", fields["operation"])
	assert.Equal(t, companyID.String(), fields["company_id"])
	assert.Equal(t, homeID.String(), fields["subject_id"])
	assert.Contains(t, fields["error"], "catalog unreachable")
}
