package observability

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// FlushTelemetry syncs the logger and closes the rotating log file, if any.
// Prometheus scrapes metrics, so there is nothing to push.
func FlushTelemetry(ctx context.Context, logger *zap.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if logger != nil {
		// Sync on a terminal stderr reports EINVAL on some platforms.
		_ = logger.Sync()
	}
	if logFile == nil {
		return nil
	}
	f := logFile
	logFile = nil
	if err := f.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}
