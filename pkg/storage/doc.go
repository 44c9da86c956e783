// Package storage persists tracked profiles, posts and their stats
// histories in SQLite.
//
// Profiles are unique per (owner, username) and posts are unique per
// shortcode across the whole store. Stats histories are append-only: the
// schema rejects UPDATE and DELETE on the history tables with triggers.
//
// Usage:
//
//	store, err := storage.Open(ctx, cfg.Storage, log)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	result, err := store.Persist(ctx, snapshot, ownerID)
//	profile, err := store.FindProfile(ctx, ownerID, "natgeo")
package storage
