// Package analytics derives read-only statistics from a profile's stored
// history.
package analytics

import (
	"context"
	"math"

	"igtracker/pkg/logger"
	"igtracker/pkg/models"
)

const (
	// PerformanceLimit is the number of posts reported by PostPerformance
	PerformanceLimit = 10

	dateLayout = "2006-01-02"
)

// Reader is the read side of the snapshot store
type Reader interface {
	FindProfile(ctx context.Context, ownerID, username string) (*models.TrackedProfile, error)
	ListProfilePosts(ctx context.Context, profileID string) ([]models.Post, error)
	ListRecentPosts(ctx context.Context, profileID string, limit int) ([]models.Post, error)
}

// Engine answers the analytics queries for a tracked profile. A profile that
// is not tracked by the owner yields empty results, not an error.
type Engine struct {
	reader Reader
	logger logger.Logger
}

// NewEngine creates an Engine over reader
func NewEngine(reader Reader, log logger.Logger) *Engine {
	return &Engine{
		reader: reader,
		logger: logger.OrNop(log).WithField("component", "analytics"),
	}
}

// ProfileStats computes averages, engagement and the best post from the
// latest history entry of each of the profile's posts
func (e *Engine) ProfileStats(ctx context.Context, ownerID, username string) (models.ProfileStats, error) {
	profile, err := e.reader.FindProfile(ctx, ownerID, username)
	if err != nil || profile == nil {
		return models.ProfileStats{}, err
	}

	posts, err := e.reader.ListProfilePosts(ctx, profile.ID)
	if err != nil {
		return models.ProfileStats{}, err
	}
	return ComputeProfileStats(profile, posts), nil
}

// GrowthSeries returns one point per stored profile history entry
func (e *Engine) GrowthSeries(ctx context.Context, ownerID, username string) ([]models.GrowthPoint, error) {
	profile, err := e.reader.FindProfile(ctx, ownerID, username)
	if err != nil {
		return nil, err
	}
	return ComputeGrowthSeries(profile), nil
}

// PostPerformance reports the latest counters of the most recently created
// posts
func (e *Engine) PostPerformance(ctx context.Context, ownerID, username string) ([]models.PostPerformance, error) {
	profile, err := e.reader.FindProfile(ctx, ownerID, username)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return []models.PostPerformance{}, nil
	}

	posts, err := e.reader.ListRecentPosts(ctx, profile.ID, PerformanceLimit)
	if err != nil {
		return nil, err
	}
	return ComputePostPerformance(posts), nil
}

// Compute runs all three queries
func (e *Engine) Compute(ctx context.Context, ownerID, username string) (*models.Analytics, error) {
	stats, err := e.ProfileStats(ctx, ownerID, username)
	if err != nil {
		return nil, err
	}
	growth, err := e.GrowthSeries(ctx, ownerID, username)
	if err != nil {
		return nil, err
	}
	performance, err := e.PostPerformance(ctx, ownerID, username)
	if err != nil {
		return nil, err
	}

	e.logger.DebugWithFields("analytics computed", map[string]interface{}{
		"owner":        ownerID,
		"username":     username,
		"total_posts":  stats.TotalPosts,
		"growth_len":   len(growth),
		"perf_entries": len(performance),
	})

	return &models.Analytics{
		Stats:           stats,
		GrowthSeries:    growth,
		PostPerformance: performance,
	}, nil
}

// ComputeProfileStats derives ProfileStats from a profile and its posts.
// Averages round to the nearest integer; the engagement rate rounds to two
// decimals and treats a missing or zero follower count as 1.
func ComputeProfileStats(profile *models.TrackedProfile, posts []models.Post) models.ProfileStats {
	if profile == nil || len(posts) == 0 {
		return models.ProfileStats{}
	}

	var (
		totalLikes, totalComments, totalViews int64
		bestEngagement                        int64
		best                                  = &posts[0]
	)
	for i := range posts {
		latest, ok := posts[i].StatsHistory.Latest()
		if !ok {
			continue
		}
		totalLikes += latest.LikeCount
		totalComments += latest.CommentCount
		if latest.ViewCount != nil {
			totalViews += *latest.ViewCount
		}

		// strict comparison keeps the first post on ties
		if engagement := latest.LikeCount + latest.CommentCount; engagement > bestEngagement {
			bestEngagement = engagement
			best = &posts[i]
		}
	}

	n := float64(len(posts))
	followers := int64(1)
	if latest, ok := profile.StatsHistory.Latest(); ok && latest.FollowerCount > 0 {
		followers = latest.FollowerCount
	}
	engagement := float64(totalLikes+totalComments) / n / float64(followers) * 100

	bestPost := &models.BestPost{Shortcode: best.Shortcode, URL: best.PostURL}
	if latest, ok := best.StatsHistory.Latest(); ok {
		bestPost.Likes = latest.LikeCount
		bestPost.Comments = latest.CommentCount
	}

	return models.ProfileStats{
		AverageLikes:       int64(math.Round(float64(totalLikes) / n)),
		AverageComments:    int64(math.Round(float64(totalComments) / n)),
		AverageViews:       int64(math.Round(float64(totalViews) / n)),
		EngagementRate:     math.Round(engagement*100) / 100,
		TotalPosts:         len(posts),
		BestPerformingPost: bestPost,
	}
}

// ComputeGrowthSeries maps every profile history entry to a GrowthPoint in
// append order
func ComputeGrowthSeries(profile *models.TrackedProfile) []models.GrowthPoint {
	if profile == nil {
		return []models.GrowthPoint{}
	}

	entries := profile.StatsHistory.Entries()
	series := make([]models.GrowthPoint, 0, len(entries))
	for _, e := range entries {
		series = append(series, models.GrowthPoint{
			Date:      e.CapturedAt.UTC().Format(dateLayout),
			Followers: e.FollowerCount,
			Following: e.FollowingCount,
			Posts:     e.PostCount,
		})
	}
	return series
}

// ComputePostPerformance reduces posts to their latest counters, keeping the
// input order. Posts without history are left out.
func ComputePostPerformance(posts []models.Post) []models.PostPerformance {
	performance := make([]models.PostPerformance, 0, len(posts))
	for _, p := range posts {
		latest, ok := p.StatsHistory.Latest()
		if !ok {
			continue
		}
		var views int64
		if latest.ViewCount != nil {
			views = *latest.ViewCount
		}
		performance = append(performance, models.PostPerformance{
			Date:     latest.CapturedAt.UTC().Format(dateLayout),
			Likes:    latest.LikeCount,
			Comments: latest.CommentCount,
			Views:    views,
			PostURL:  p.PostURL,
		})
	}
	return performance
}
