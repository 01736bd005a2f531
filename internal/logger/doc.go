// Package logger provides a simple, thread-safe logging facility.
//
// The logger supports four levels: Debug, Info, Warn, and Error.
// Each log entry includes a timestamp, level, optional component tag, and message.
//
// # Basic Usage
//
// Using the default logger:
//
//	logger.Info("", "Application started")
//	logger.Info("pool", "started %d workers", n)
//	logger.Error("worker-3", "Failed: %v", err)
//
// Creating a custom logger:
//
//	l := logger.New(os.Stderr, logger.LevelDebug)
//	l.Debug("worker-1", "Debug message")
//
// Levels can be parsed from configuration:
//
//	level, err := logger.ParseLevel("warn")
//
// # Log Levels
//
// Messages below the configured level are filtered:
//   - LevelDebug: all messages
//   - LevelInfo: Info, Warn, Error
//   - LevelWarn: Warn, Error
//   - LevelError: Error only
//
// # Thread Safety
//
// All logging operations are protected by a mutex and safe for concurrent use.
package logger
