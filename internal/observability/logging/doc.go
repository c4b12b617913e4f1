// Package logging provides structured logging utilities with context propagation.
//
// Key features:
//   - JSON and text output formats
//   - Request ID and trace ID propagation
//   - Configurable log levels
//
// Example usage:
//
//	logger := logging.New(os.Stdout, logging.Options{Level: "info", Format: "json"})
//	logger.Info("application started", slog.String("version", "1.0"))
//
//	func handle(ctx context.Context) {
//	    logger := logging.WithRequestID(ctx, slog.Default())
//	    logger.Info("processing request")
//	}
package logging
