// Package retry re-runs operations that fail with transient errors.
//
// It is used by callers outside the tracking pipeline (the scheduled
// refresher); the pipeline itself never retries. Which errors are transient
// is decided by the innermost typed error (see errors.Root), and when no
// Backoff is configured the pause is picked per error type: rate limits
// back off far longer than network blips.
//
//	err := retry.Do(func() error {
//	    _, err := pipeline.Run(ctx, username, ownerID)
//	    return err
//	}, &retry.Config{MaxAttempts: 3, Context: ctx, Logger: log})
package retry
