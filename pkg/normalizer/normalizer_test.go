package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "igtracker/pkg/errors"
	"igtracker/pkg/instagram"
	"igtracker/pkg/logger"
	"igtracker/pkg/models"
)

func int64Ptr(v int64) *int64 { return &v }

func images(url string) *instagram.ImageVersions {
	return &instagram.ImageVersions{Candidates: []instagram.ImageCandidate{{URL: url}}}
}

func testPayload() *instagram.RawProfilePayload {
	return &instagram.RawProfilePayload{
		User: &instagram.User{
			ID:                       "123",
			Username:                 "natgeo",
			FullName:                 "National Geographic",
			Biography:                "bio",
			IsVerified:               true,
			ProfilePicURL:            "https://cdn/sd.jpg",
			ProfilePicURLHD:          "https://cdn/hd.jpg",
			EdgeFollowedBy:           instagram.Count{Count: 1000},
			EdgeFollow:               instagram.Count{Count: 10},
			EdgeOwnerToTimelineMedia: instagram.Count{Count: 99},
		},
		Items: []instagram.FeedItem{
			{ID: "1", Code: "IMG", MediaType: 1, LikeCount: 10, CommentCount: 2,
				Caption: &instagram.Caption{Text: "sunset"}, TakenAt: 1700000000, ImageVersions2: images("https://cdn/1.jpg")},
			{ID: "2", Code: "REEL", MediaType: 2, ProductType: "clips", LikeCount: 50, CommentCount: 5,
				PlayCount: int64Ptr(900), ImageVersions2: images("https://cdn/2.jpg"),
				VideoVersions: []instagram.VideoVersion{{URL: "https://cdn/2.mp4"}}},
			{ID: "3", Code: "CAR", MediaType: 8, LikeCount: 1, CarouselMedia: []instagram.CarouselMedia{
				{MediaType: 1, ImageVersions2: images("https://cdn/3a.jpg")},
				{MediaType: 2, ImageVersions2: images("https://cdn/3b.jpg"), VideoVersions: []instagram.VideoVersion{{URL: "https://cdn/3b.mp4"}}},
			}},
			{ID: "4", Code: "VID", MediaType: 2, ViewCount: int64Ptr(7)},
			{ID: "5", Code: "ODD", MediaType: 42},
		},
		FetchedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNormalize(t *testing.T) {
	n := New(logger.NewTestLogger())

	snap, err := n.Normalize(testPayload())
	require.NoError(t, err)

	assert.Equal(t, "123", snap.PlatformUserID)
	assert.Equal(t, "natgeo", snap.Username)
	assert.Equal(t, "https://cdn/hd.jpg", snap.ProfilePictureURL)
	assert.Equal(t, int64(1000), snap.Followers)
	assert.Equal(t, int64(10), snap.Following)
	assert.Equal(t, int64(99), snap.PostsCount)
	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), snap.FetchedAt)

	require.Len(t, snap.Posts, 5)

	img := snap.Posts[0]
	assert.Equal(t, models.ContentImage, img.ContentType)
	assert.Equal(t, "https://www.instagram.com/p/IMG/", img.PostURL)
	assert.Equal(t, "https://cdn/1.jpg", img.ImageURL)
	assert.Equal(t, "sunset", img.Caption)
	assert.Nil(t, img.Views)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), img.PostedAt)

	reel := snap.Posts[1]
	assert.Equal(t, models.ContentReel, reel.ContentType)
	require.NotNil(t, reel.Views)
	assert.Equal(t, int64(900), *reel.Views)
	assert.Equal(t, "https://cdn/2.mp4", reel.VideoURL)

	carousel := snap.Posts[2]
	assert.Equal(t, models.ContentCarousel, carousel.ContentType)
	assert.Equal(t, "https://cdn/3a.jpg", carousel.ImageURL)
	assert.Equal(t, []models.CarouselItem{
		{Type: models.ContentImage, URL: "https://cdn/3a.jpg"},
		{Type: models.ContentVideo, URL: "https://cdn/3b.mp4"},
	}, carousel.CarouselMedia)

	video := snap.Posts[3]
	assert.Equal(t, models.ContentVideo, video.ContentType)
	require.NotNil(t, video.Views)
	assert.Equal(t, int64(7), *video.Views)

	assert.Equal(t, models.ContentUnknown, snap.Posts[4].ContentType)

	require.Len(t, snap.Reels, 1)
	assert.Equal(t, "2", snap.Reels[0].ID)
}

func TestNormalizeReelsAreExactlyReelSubset(t *testing.T) {
	n := New(nil)
	snap, err := n.Normalize(testPayload())
	require.NoError(t, err)

	var reels int
	for _, p := range snap.Posts {
		assert.True(t, p.ContentType.Valid())
		if p.ContentType == models.ContentReel {
			reels++
		}
	}
	assert.Len(t, snap.Reels, reels)
	for _, r := range snap.Reels {
		assert.Equal(t, models.ContentReel, r.ContentType)
	}
}

func TestNormalizeViewsDefaultToZero(t *testing.T) {
	raw := testPayload()
	raw.Items = []instagram.FeedItem{{ID: "1", Code: "R", MediaType: 2, ProductType: "clips"}}

	snap, err := New(nil).Normalize(raw)
	require.NoError(t, err)
	require.NotNil(t, snap.Posts[0].Views)
	assert.Equal(t, int64(0), *snap.Posts[0].Views)
}

func TestNormalizeMissingIdentity(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*instagram.RawProfilePayload) *instagram.RawProfilePayload
	}{
		{"nil payload", func(*instagram.RawProfilePayload) *instagram.RawProfilePayload { return nil }},
		{"nil user", func(p *instagram.RawProfilePayload) *instagram.RawProfilePayload { p.User = nil; return p }},
		{"missing id", func(p *instagram.RawProfilePayload) *instagram.RawProfilePayload { p.User.ID = ""; return p }},
		{"blank username", func(p *instagram.RawProfilePayload) *instagram.RawProfilePayload { p.User.Username = "  "; return p }},
		{"negative followers", func(p *instagram.RawProfilePayload) *instagram.RawProfilePayload {
			p.User.EdgeFollowedBy.Count = -1
			return p
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := New(nil).Normalize(tt.mutate(testPayload()))
			require.Error(t, err)
			assert.Nil(t, snap)
			assert.True(t, errs.IsType(err, errs.ErrorTypeMalformedSourceData))
		})
	}
}

func TestNormalizeDropsMalformedItems(t *testing.T) {
	log := logger.NewTestLogger()
	raw := testPayload()
	raw.Items = append(raw.Items,
		instagram.FeedItem{ID: "", Code: "NOID", MediaType: 1},
		instagram.FeedItem{ID: "7", Code: "", MediaType: 1},
		instagram.FeedItem{ID: "8", Code: "NEG", MediaType: 1, LikeCount: -5},
	)

	snap, err := New(log).Normalize(raw)
	require.NoError(t, err)
	assert.Len(t, snap.Posts, 5)
	assert.Len(t, log.GetMessagesByLevel("WARN"), 3)
	assert.True(t, log.HasMessage("dropping malformed feed item"))
}

func TestNormalizeFallsBackToStandardPicture(t *testing.T) {
	raw := testPayload()
	raw.User.ProfilePicURLHD = ""
	raw.FetchedAt = time.Time{}

	n := New(nil)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return fixed }

	snap, err := n.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/sd.jpg", snap.ProfilePictureURL)
	assert.Equal(t, fixed, snap.FetchedAt)
}
