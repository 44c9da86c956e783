package storage

import (
	"context"
	"database/sql"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	errs "igtracker/pkg/errors"
	"igtracker/pkg/instagram"
	"igtracker/pkg/metrics"
	"igtracker/pkg/models"
)

// PersistResult summarizes one Persist call
type PersistResult struct {
	ProfileID    string
	PostsSaved   int
	PostsSkipped int
}

const upsertProfileSQL = `
INSERT INTO tracked_profiles (
    id, owner_id, username, platform_user_id, full_name, profile_picture_url,
    bio, is_verified, demographics, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (owner_id, username) DO UPDATE SET
    platform_user_id    = excluded.platform_user_id,
    full_name           = excluded.full_name,
    profile_picture_url = excluded.profile_picture_url,
    bio                 = excluded.bio,
    is_verified         = excluded.is_verified,
    demographics        = excluded.demographics,
    updated_at          = excluded.updated_at
RETURNING id`

const upsertPostSQL = `
INSERT INTO posts (
    id, shortcode, profile_id, post_url, author_username, caption, media_type,
    display_url, video_url, carousel_media, posted_at, ai_analysis, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (shortcode) DO UPDATE SET
    profile_id      = excluded.profile_id,
    post_url        = excluded.post_url,
    author_username = excluded.author_username,
    caption         = excluded.caption,
    media_type      = excluded.media_type,
    display_url     = excluded.display_url,
    video_url       = excluded.video_url,
    carousel_media  = excluded.carousel_media,
    posted_at       = excluded.posted_at,
    ai_analysis     = excluded.ai_analysis,
    updated_at      = excluded.updated_at
RETURNING id`

// Persist reconciles an enriched snapshot into the store for ownerID.
//
// The profile upsert, its history append and the owner link commit in one
// transaction. Each post then commits in its own transaction, so a failure
// part way through leaves the profile and earlier posts saved. Items whose
// URL has no shortcode are skipped.
func (s *Store) Persist(ctx context.Context, snapshot *models.ProfileSnapshot, ownerID string) (*PersistResult, error) {
	if ownerID == "" {
		return nil, errs.New(errs.ErrorTypeStoreUnavailable, "owner id is required")
	}

	capturedAt := s.now().UTC()
	username := strings.ToLower(snapshot.Username)
	log := s.logger.WithFields(map[string]interface{}{
		"owner":    ownerID,
		"username": username,
	})

	profileID, err := s.persistProfile(ctx, snapshot, ownerID, username, capturedAt.UnixNano())
	if err != nil {
		log.WithError(err).Error("failed to persist profile")
		return nil, err
	}
	metrics.HistoryAppends.WithLabelValues("profile").Inc()

	result := &PersistResult{ProfileID: profileID}
	for _, item := range uniqueByShortcode(snapshot) {
		if item.shortcode == "" {
			result.PostsSkipped++
			metrics.PostsSkipped.WithLabelValues("no_shortcode").Inc()
			log.WarnWithFields("skipping post without shortcode", map[string]interface{}{
				"post_url": item.post.PostURL,
			})
			continue
		}

		if err := s.persistPost(ctx, item.post, item.shortcode, profileID, username, capturedAt.UnixNano()); err != nil {
			log.WithError(err).ErrorWithFields("failed to persist post", map[string]interface{}{
				"shortcode":   item.shortcode,
				"posts_saved": result.PostsSaved,
			})
			return result, err
		}
		metrics.HistoryAppends.WithLabelValues("post").Inc()
		result.PostsSaved++
	}

	log.InfoWithFields("snapshot persisted", map[string]interface{}{
		"profile_id":    profileID,
		"posts_saved":   result.PostsSaved,
		"posts_skipped": result.PostsSkipped,
	})
	return result, nil
}

func (s *Store) persistProfile(ctx context.Context, snap *models.ProfileSnapshot, ownerID, username string, now int64) (string, error) {
	demographics, err := marshalNullable(snap.Demographics)
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to encode demographics", err)
	}

	var profileID string
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO owners (id, created_at) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`,
			ownerID, now); err != nil {
			return errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to upsert owner", err)
		}

		if err := tx.QueryRowContext(ctx, upsertProfileSQL,
			uuid.NewString(), ownerID, username, snap.PlatformUserID, snap.FullName,
			snap.ProfilePictureURL, snap.Bio, snap.IsVerified, demographics, now, now,
		).Scan(&profileID); err != nil {
			return errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to upsert profile", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO profile_stats_history (profile_id, follower_count, following_count, post_count, captured_at)
			 VALUES (?, ?, ?, ?, ?)`,
			profileID, snap.Followers, snap.Following, snap.PostsCount, now); err != nil {
			return errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to append profile history", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO owner_tracked_profiles (owner_id, profile_id, added_at) VALUES (?, ?, ?)
			 ON CONFLICT (owner_id, profile_id) DO NOTHING`,
			ownerID, profileID, now); err != nil {
			return errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to link profile to owner", err)
		}
		return nil
	})
	return profileID, err
}

func (s *Store) persistPost(ctx context.Context, post models.PostSnapshot, shortcode, profileID, author string, now int64) error {
	analysis, err := marshalNullable(post.AiAnalysis)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to encode ai analysis", err)
	}
	var carousel sql.NullString
	if len(post.CarouselMedia) > 0 {
		carousel, err = marshalNullable(&post.CarouselMedia)
		if err != nil {
			return errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to encode carousel media", err)
		}
	}

	var views sql.NullInt64
	if post.Views != nil {
		views = sql.NullInt64{Int64: *post.Views, Valid: true}
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var postID string
		if err := tx.QueryRowContext(ctx, upsertPostSQL,
			uuid.NewString(), shortcode, profileID, instagram.GetPostURL(shortcode), author,
			post.Caption, string(post.ContentType), post.ImageURL, post.VideoURL, carousel,
			toNanos(post.PostedAt), analysis, now, now,
		).Scan(&postID); err != nil {
			return errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to upsert post", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO post_stats_history (post_id, like_count, comment_count, view_count, captured_at)
			 VALUES (?, ?, ?, ?, ?)`,
			postID, post.Likes, post.Comments, views, now); err != nil {
			return errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to append post history", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO profile_posts (profile_id, post_id, first_seen_at) VALUES (?, ?, ?)
			 ON CONFLICT (profile_id, post_id) DO NOTHING`,
			profileID, postID, now); err != nil {
			return errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to link post to profile", err)
		}
		return nil
	})
}

type shortcodeItem struct {
	shortcode string
	post      models.PostSnapshot
}

// uniqueByShortcode returns the union of posts and reels, keeping the first
// occurrence of each shortcode. Items without a parseable shortcode are kept
// once per URL with an empty shortcode so the caller can count them.
func uniqueByShortcode(snap *models.ProfileSnapshot) []shortcodeItem {
	items := make([]shortcodeItem, 0, len(snap.Posts)+len(snap.Reels))
	seen := make(map[string]bool, len(snap.Posts))

	for _, list := range [][]models.PostSnapshot{snap.Posts, snap.Reels} {
		for _, post := range list {
			shortcode, ok := instagram.ParseShortcode(post.PostURL)
			key := shortcode
			if !ok {
				key = "url:" + post.PostURL
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			items = append(items, shortcodeItem{shortcode: shortcode, post: post})
		}
	}
	return items
}

func marshalNullable[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
