package instagram

import "time"

// RawProfilePayload is the unnormalized result of one profile fetch: the
// web_profile_info user plus a bounded batch of feed items
type RawProfilePayload struct {
	User      *User      `json:"user"`
	Items     []FeedItem `json:"items"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// ProfileResponse represents the web_profile_info response
type ProfileResponse struct {
	RequiresToLogin bool   `json:"requires_to_login"`
	Data            Data   `json:"data"`
	Status          string `json:"status"`
	Message         string `json:"message"`
}

// Data wraps the user information in the response
type Data struct {
	User *User `json:"user"`
}

// User represents an Instagram user profile
type User struct {
	ID                       string `json:"id"`
	Username                 string `json:"username"`
	FullName                 string `json:"full_name"`
	Biography                string `json:"biography"`
	IsVerified               bool   `json:"is_verified"`
	IsPrivate                bool   `json:"is_private"`
	ProfilePicURL            string `json:"profile_pic_url"`
	ProfilePicURLHD          string `json:"profile_pic_url_hd"`
	EdgeFollowedBy           Count  `json:"edge_followed_by"`
	EdgeFollow               Count  `json:"edge_follow"`
	EdgeOwnerToTimelineMedia Count  `json:"edge_owner_to_timeline_media"`
}

// Count is the edge wrapper Instagram uses for counters
type Count struct {
	Count int64 `json:"count"`
}

// FeedResponse represents the feed/user response
type FeedResponse struct {
	Items         []FeedItem `json:"items"`
	NumResults    int        `json:"num_results"`
	MoreAvailable bool       `json:"more_available"`
	Status        string     `json:"status"`
}

// FeedItem is one media item from the user feed
type FeedItem struct {
	ID             string          `json:"id"`
	Code           string          `json:"code"`
	TakenAt        int64           `json:"taken_at"`
	MediaType      int             `json:"media_type"`
	ProductType    string          `json:"product_type"`
	Caption        *Caption        `json:"caption"`
	LikeCount      int64           `json:"like_count"`
	CommentCount   int64           `json:"comment_count"`
	PlayCount      *int64          `json:"play_count"`
	ViewCount      *int64          `json:"view_count"`
	ImageVersions2 *ImageVersions  `json:"image_versions2"`
	VideoVersions  []VideoVersion  `json:"video_versions"`
	CarouselMedia  []CarouselMedia `json:"carousel_media"`
}

// Caption holds the caption text of a feed item
type Caption struct {
	Text string `json:"text"`
}

// ImageVersions lists image renditions, largest first
type ImageVersions struct {
	Candidates []ImageCandidate `json:"candidates"`
}

// ImageCandidate is a single image rendition
type ImageCandidate struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

// VideoVersion is a single video rendition
type VideoVersion struct {
	Type   int    `json:"type"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

// CarouselMedia is one slide of a carousel item
type CarouselMedia struct {
	MediaType      int            `json:"media_type"`
	ImageVersions2 *ImageVersions `json:"image_versions2"`
	VideoVersions  []VideoVersion `json:"video_versions"`
}

// FirstImageURL returns the URL of the first image candidate, or ""
func (v *ImageVersions) FirstImageURL() string {
	if v == nil || len(v.Candidates) == 0 {
		return ""
	}
	return v.Candidates[0].URL
}
