// Package tracker runs the end-to-end tracking pipeline for one profile:
// fetch, normalize, enrich, persist, then compute analytics.
//
// Source and store failures abort the run and are reported with one of three
// error types:
//
//	errors.ErrorTypeProfileNotFound   // the source has no such profile, or its data was unusable
//	errors.ErrorTypeSourceUnavailable // network, auth, rate limit or server failures
//	errors.ErrorTypeStoreUnavailable  // the snapshot could not be saved or read back
//
// The underlying source error stays in the chain, so callers can still tell an
// expired session apart from a network failure with errors.IsType.
//
// Enrichment failures never abort a run; they surface as nil fields on the
// returned snapshot.
package tracker
