// Package logging provides structured logging for taskgraph.
//
// It wraps Go's log/slog to write JSON lines, one per event, so a store's
// mutation history can be filtered after the fact.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger(".taskgraph/logs", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.WithOperation("set_dependencies").WithTask("3").
//	    Warn("dependency change rejected", "error", err.Error())
//
// Output:
//
//	{"time":"...","level":"WARN","msg":"dependency change rejected","operation":"set_dependencies","task_id":"3","error":"circular dependency: 3 -> 1 -> 3"}
//
// # Log Rotation
//
//	logger, err := logging.NewLoggerWithRotation(dir, "INFO", logging.RotationConfig{
//	    MaxSizeMB:  10,
//	    MaxBackups: 3,
//	    Compress:   true,
//	})
//
// Rotated files are named taskgraph.log.1 (newest) through taskgraph.log.N,
// with a .gz suffix when compression is enabled.
//
// # Reading History
//
// [ReadEntries] parses the log file back; [FilterEntries] narrows it by
// level, task (including subtasks), operation and time.
//
// # Testing
//
// Use [NopLogger] to discard output, or [NewWriterLogger] with a
// bytes.Buffer to assert on it.
package logging
