package service

import (
	"context"
	"log/slog"
)

// logPublish records a failed event publish. The state change it announces is
// already committed, so the operation itself still succeeds.
func logPublish(ctx context.Context, event string, err error) {
	if err != nil {
		slog.WarnContext(ctx, "Failed to publish event", "event", event, "error", err)
	}
}
