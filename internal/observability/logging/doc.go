// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for the patterns used by the bot.
//
// Key features:
//   - Text (default) and JSON output formats on stdout
//   - Cycle ID propagation through context
//   - Configurable log levels
//
// Example usage:
//
//	import "bloop/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewFromEnv()
//	    logger.Info("Starting Bloop Bot...")
//	}
//
//	func runCycle(ctx context.Context) {
//	    ctx = logging.WithCycleID(ctx, uuid.NewString())
//	    logging.FromContext(ctx).Info("cycle started")
//	}
package logging
