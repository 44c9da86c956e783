package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/goccy/go-json"

	errs "igtracker/pkg/errors"
	"igtracker/pkg/models"
)

const selectPostColumns = `
SELECT p.id, p.shortcode, p.profile_id, p.post_url, p.author_username, p.caption,
       p.media_type, p.display_url, p.video_url, p.carousel_media, p.posted_at,
       p.ai_analysis, p.created_at, p.updated_at
FROM posts p
JOIN profile_posts pp ON pp.post_id = p.id
WHERE pp.profile_id = ?`

// FindProfile returns the profile tracked by ownerID under username with its
// full stats history, or nil when there is none
func (s *Store) FindProfile(ctx context.Context, ownerID, username string) (*models.TrackedProfile, error) {
	var (
		p            models.TrackedProfile
		demographics sql.NullString
		createdAt    int64
		updatedAt    int64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, username, platform_user_id, full_name, profile_picture_url,
		       bio, is_verified, demographics, created_at, updated_at
		FROM tracked_profiles
		WHERE owner_id = ? AND username = ?`,
		ownerID, strings.ToLower(username),
	).Scan(&p.ID, &p.OwnerID, &p.Username, &p.PlatformUserID, &p.FullName, &p.ProfilePictureURL,
		&p.Bio, &p.IsVerified, &demographics, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to load profile", err)
	}

	p.CreatedAt = fromNanos(createdAt)
	p.UpdatedAt = fromNanos(updatedAt)
	if p.Demographics, err = unmarshalNullable[models.AudienceDemographics](demographics); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to decode demographics", err)
	}

	history, err := s.profileHistory(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.StatsHistory = models.NewAppendOnlyLog(history...)

	return &p, nil
}

func (s *Store) profileHistory(ctx context.Context, profileID string) ([]models.ProfileStatsEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT follower_count, following_count, post_count, captured_at
		FROM profile_stats_history
		WHERE profile_id = ?
		ORDER BY seq`, profileID)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to load profile history", err)
	}
	defer rows.Close()

	var history []models.ProfileStatsEntry
	for rows.Next() {
		var (
			e          models.ProfileStatsEntry
			capturedAt int64
		)
		if err := rows.Scan(&e.FollowerCount, &e.FollowingCount, &e.PostCount, &capturedAt); err != nil {
			return nil, errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to scan profile history", err)
		}
		e.CapturedAt = fromNanos(capturedAt)
		history = append(history, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to read profile history", err)
	}
	return history, nil
}

// ListProfilePosts returns every post linked to the profile, oldest record
// first, each with its full stats history
func (s *Store) ListProfilePosts(ctx context.Context, profileID string) ([]models.Post, error) {
	return s.listPosts(ctx, selectPostColumns+`
		ORDER BY p.created_at, p.rowid`, profileID)
}

// ListRecentPosts returns the limit most recently created posts linked to
// the profile, newest first
func (s *Store) ListRecentPosts(ctx context.Context, profileID string, limit int) ([]models.Post, error) {
	if limit <= 0 {
		return []models.Post{}, nil
	}
	return s.listPosts(ctx, selectPostColumns+`
		ORDER BY p.created_at DESC, p.rowid DESC
		LIMIT ?`, profileID, limit)
}

func (s *Store) listPosts(ctx context.Context, query string, args ...interface{}) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to load posts", err)
	}

	posts := []models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to read posts", err)
	}
	rows.Close()

	// rows are closed before the next query; the pool holds one connection
	for i := range posts {
		history, err := s.postHistory(ctx, posts[i].ID)
		if err != nil {
			return nil, err
		}
		posts[i].StatsHistory = models.NewAppendOnlyLog(history...)
	}
	return posts, nil
}

func scanPost(rows *sql.Rows) (models.Post, error) {
	var (
		p         models.Post
		mediaType string
		carousel  sql.NullString
		analysis  sql.NullString
		postedAt  int64
		createdAt int64
		updatedAt int64
	)
	if err := rows.Scan(&p.ID, &p.Shortcode, &p.ProfileID, &p.PostURL, &p.AuthorUsername, &p.Caption,
		&mediaType, &p.DisplayURL, &p.VideoURL, &carousel, &postedAt,
		&analysis, &createdAt, &updatedAt); err != nil {
		return p, errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to scan post", err)
	}

	p.MediaType = models.ContentType(mediaType)
	p.PostedAt = fromNanos(postedAt)
	p.CreatedAt = fromNanos(createdAt)
	p.UpdatedAt = fromNanos(updatedAt)

	var err error
	if p.AiAnalysis, err = unmarshalNullable[models.AiAnalysis](analysis); err != nil {
		return p, errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to decode ai analysis", err)
	}
	if carousel.Valid {
		if err := json.Unmarshal([]byte(carousel.String), &p.CarouselMedia); err != nil {
			return p, errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to decode carousel media", err)
		}
	}
	return p, nil
}

func (s *Store) postHistory(ctx context.Context, postID string) ([]models.PostStatsEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT like_count, comment_count, view_count, captured_at
		FROM post_stats_history
		WHERE post_id = ?
		ORDER BY seq`, postID)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to load post history", err)
	}
	defer rows.Close()

	var history []models.PostStatsEntry
	for rows.Next() {
		var (
			e          models.PostStatsEntry
			views      sql.NullInt64
			capturedAt int64
		)
		if err := rows.Scan(&e.LikeCount, &e.CommentCount, &views, &capturedAt); err != nil {
			return nil, errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to scan post history", err)
		}
		if views.Valid {
			v := views.Int64
			e.ViewCount = &v
		}
		e.CapturedAt = fromNanos(capturedAt)
		history = append(history, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to read post history", err)
	}
	return history, nil
}

// ListTracked returns every (owner, username) pair under tracking, ordered
// by owner then username
func (s *Store) ListTracked(ctx context.Context) ([]models.TrackedRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT otp.owner_id, tp.username
		FROM owner_tracked_profiles otp
		JOIN tracked_profiles tp ON tp.id = otp.profile_id
		ORDER BY otp.owner_id, tp.username`)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to list tracked profiles", err)
	}
	defer rows.Close()

	refs := []models.TrackedRef{}
	for rows.Next() {
		var ref models.TrackedRef
		if err := rows.Scan(&ref.OwnerID, &ref.Username); err != nil {
			return nil, errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to scan tracked profile", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to read tracked profiles", err)
	}
	return refs, nil
}

func unmarshalNullable[T any](s sql.NullString) (*T, error) {
	if !s.Valid || s.String == "" || s.String == "null" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal([]byte(s.String), &v); err != nil {
		return nil, err
	}
	return &v, nil
}
