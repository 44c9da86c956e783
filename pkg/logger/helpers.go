package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogPipelineStage logs the outcome of one stage of a tracking run
func LogPipelineStage(l Logger, stage, username string, duration time.Duration, err error) {
	fields := map[string]interface{}{
		"stage":       stage,
		"username":    username,
		"duration_ms": duration.Milliseconds(),
	}
	if err != nil {
		l.WithError(err).ErrorWithFields("pipeline stage failed", fields)
		return
	}
	l.DebugWithFields("pipeline stage completed", fields)
}

// LogInference logs an enrichment call. Failures are warnings because the
// pipeline continues without the field.
func LogInference(l Logger, kind, subject string, duration time.Duration, err error) {
	fields := map[string]interface{}{
		"inference":   kind,
		"subject":     subject,
		"duration_ms": duration.Milliseconds(),
	}
	if err != nil {
		l.WithError(err).WarnWithFields("inference call failed", fields)
		return
	}
	l.DebugWithFields("inference call completed", fields)
}

// LogRateLimit logs rate limiting events
func LogRateLimit(l Logger, endpoint string, wait time.Duration) {
	l.WarnWithFields("rate limit reached, backing off", map[string]interface{}{
		"endpoint": endpoint,
		"wait_ms":  wait.Milliseconds(),
		"action":   "rate_limited",
	})
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, config map[string]interface{}) {
	cl := l.WithField("component", component)
	if len(config) > 0 {
		cl = cl.WithFields(config)
	}
	cl.Info("component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(l Logger, component string, reason string) {
	l.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("component stopped")
}

// OrNop returns l, or a no-op logger when l is nil
func OrNop(l Logger) Logger {
	if l == nil {
		return NewNopLogger()
	}
	return l
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
