package models

import "time"

// TrackedProfile is a profile as tracked by one owner. (OwnerID, Username)
// is unique.
type TrackedProfile struct {
	ID                string                           `json:"id"`
	OwnerID           string                           `json:"ownerId"`
	PlatformUserID    string                           `json:"instagramUserId"`
	Username          string                           `json:"username"`
	FullName          string                           `json:"fullName"`
	ProfilePictureURL string                           `json:"profilePictureUrl"`
	Bio               string                           `json:"bio"`
	IsVerified        bool                             `json:"isVerified"`
	Demographics      *AudienceDemographics            `json:"audienceDemographics"`
	StatsHistory      AppendOnlyLog[ProfileStatsEntry] `json:"statsHistory"`
	CreatedAt         time.Time                        `json:"createdAt"`
	UpdatedAt         time.Time                        `json:"updatedAt"`
}

// Post is a single Instagram post. Shortcode is unique across the store, so
// profiles of different owners that see the same post share one Post.
type Post struct {
	ID             string                        `json:"id"`
	Shortcode      string                        `json:"shortcode"`
	ProfileID      string                        `json:"profileId"`
	PostURL        string                        `json:"postUrl"`
	AuthorUsername string                        `json:"authorUsername"`
	Caption        string                        `json:"caption"`
	MediaType      ContentType                   `json:"mediaType"`
	DisplayURL     string                        `json:"displayUrl"`
	VideoURL       string                        `json:"videoUrl,omitempty"`
	CarouselMedia  []CarouselItem                `json:"carouselMedia,omitempty"`
	PostedAt       time.Time                     `json:"postedAt"`
	AiAnalysis     *AiAnalysis                   `json:"aiAnalysis"`
	StatsHistory   AppendOnlyLog[PostStatsEntry] `json:"statsHistory"`
	CreatedAt      time.Time                     `json:"createdAt"`
	UpdatedAt      time.Time                     `json:"updatedAt"`
}

// TrackedRef identifies one (owner, username) pair under tracking
type TrackedRef struct {
	OwnerID  string `json:"ownerId"`
	Username string `json:"username"`
}
