// Package notify provides notification delivery for disbursement
// status changes.
package notify

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	grantapp "github.com/grantflow/backend/internal/application/grant"
)

// Ensure LogNotifier implements the application port
var _ grantapp.Notifier = (*LogNotifier)(nil)

// LogNotifier records notifications in the structured log. It stands in for
// an external delivery channel (email, push) and is the default in
// development deployments. Delivery never blocks or fails the caller.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the notification that would be delivered to the user
func (n *LogNotifier) Notify(ctx context.Context, userID uuid.UUID, templateKey string, data map[string]any) {
	n.logger.Info("notification dispatched",
		zap.String("user_id", userID.String()),
		zap.String("template", templateKey),
		zap.Any("data", data),
	)
}
