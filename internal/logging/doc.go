// Package logging provides structured logging utilities for kubecall.
//
// This package centralizes logging patterns to ensure consistent, structured
// logging throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - Consistent attribute naming across the codebase
//   - Host/URL sanitization so API server addresses never leak into logs
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "invoke")
//	logger.Info("resolved action",
//	    logging.Kind("Pod"),
//	    logging.Action("get"),
//	    logging.Version("v1"))
//
// Sanitize sensitive data before logging:
//
//	logger.Warn("schema fetch failed",
//	    logging.Host(cfg.Host),
//	    logging.SanitizedErr(err))
package logging
