// Package logger provides the structured logging interface used across the
// tracker. It wraps zerolog: console output by default, console plus an
// append-only file when a log file is configured.
//
//	logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("component", "pipeline")
//	log.InfoWithFields("profile tracked", map[string]interface{}{
//	    "username": "natgeo",
//	    "posts":    5,
//	})
//
// Tests use NewTestLogger to capture messages or NewNopLogger to discard them.
package logger
