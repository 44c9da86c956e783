package models

import "time"

// ProfileSnapshot is a point-in-time capture of a profile and its most
// recent feed items
type ProfileSnapshot struct {
	PlatformUserID    string                `json:"instagramUserId" validate:"required"`
	Username          string                `json:"username" validate:"required"`
	FullName          string                `json:"fullName"`
	Bio               string                `json:"bio"`
	IsVerified        bool                  `json:"isVerified"`
	ProfilePictureURL string                `json:"profilePictureUrl"`
	Followers         int64                 `json:"followers" validate:"gte=0"`
	Following         int64                 `json:"following" validate:"gte=0"`
	PostsCount        int64                 `json:"postsCount" validate:"gte=0"`
	Posts             []PostSnapshot        `json:"recentPosts" validate:"dive"`
	Reels             []PostSnapshot        `json:"recentReels"`
	Demographics      *AudienceDemographics `json:"audienceDemographics"`
	FetchedAt         time.Time             `json:"fetchedAt"`
}

// PostSnapshot is a point-in-time capture of one feed item
type PostSnapshot struct {
	ID            string         `json:"id" validate:"required"`
	PostURL       string         `json:"postUrl" validate:"required"`
	ImageURL      string         `json:"imageUrl"`
	VideoURL      string         `json:"videoUrl,omitempty"`
	Caption       string         `json:"caption"`
	ContentType   ContentType    `json:"contentType" validate:"oneof=Image Video Carousel Reel Unknown"`
	Likes         int64          `json:"likes" validate:"gte=0"`
	Comments      int64          `json:"comments" validate:"gte=0"`
	Views         *int64         `json:"views,omitempty"`
	PostedAt      time.Time      `json:"postedAt"`
	CarouselMedia []CarouselItem `json:"carouselMedia,omitempty"`
	AiAnalysis    *AiAnalysis    `json:"aiAnalysis"`
}

// CarouselItem is one slide of a carousel post
type CarouselItem struct {
	Type ContentType `json:"type"`
	URL  string      `json:"url"`
}

// AiAnalysis is the image inference result attached to a post
type AiAnalysis struct {
	Tags     []string `json:"tags"`
	Vibe     string   `json:"vibe"`
	Lighting string   `json:"lighting"`
}

// NamedValue is one bucket of a demographic breakdown; Value is a percentage
type NamedValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// AudienceDemographics is the profile-level inference result
type AudienceDemographics struct {
	GenderSplit    []NamedValue `json:"genderSplit"`
	AgeGroups      []NamedValue `json:"ageGroups"`
	TopGeographies []NamedValue `json:"topGeographies"`
}

// SplitReels recomputes Reels as the subset of Posts classified as Reel.
// Reels holds copies, so it must be recomputed whenever Posts change.
func (s *ProfileSnapshot) SplitReels() {
	s.Reels = make([]PostSnapshot, 0, len(s.Posts))
	for _, p := range s.Posts {
		if p.ContentType == ContentReel {
			s.Reels = append(s.Reels, p)
		}
	}
}

// Captions returns the non-empty captions of the snapshot's posts in feed order
func (s *ProfileSnapshot) Captions() []string {
	captions := make([]string, 0, len(s.Posts))
	for _, p := range s.Posts {
		if p.Caption != "" {
			captions = append(captions, p.Caption)
		}
	}
	return captions
}
