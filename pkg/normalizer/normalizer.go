// Package normalizer converts raw Instagram fetch results into profile
// snapshots.
package normalizer

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	errs "igtracker/pkg/errors"
	"igtracker/pkg/instagram"
	"igtracker/pkg/logger"
	"igtracker/pkg/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Normalizer maps RawProfilePayload values onto models.ProfileSnapshot
type Normalizer struct {
	logger logger.Logger
	now    func() time.Time
}

// New creates a Normalizer
func New(log logger.Logger) *Normalizer {
	return &Normalizer{
		logger: logger.OrNop(log),
		now:    time.Now,
	}
}

// Normalize builds a snapshot from a raw fetch result. It fails with
// ErrorTypeMalformedSourceData when the profile identity is missing or a
// profile counter is invalid. Individual feed items that cannot be mapped
// are dropped with a warning.
func (n *Normalizer) Normalize(raw *instagram.RawProfilePayload) (*models.ProfileSnapshot, error) {
	if raw == nil || raw.User == nil {
		return nil, errs.New(errs.ErrorTypeMalformedSourceData, "payload has no user")
	}

	user := raw.User
	fetchedAt := raw.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = n.now().UTC()
	}

	picture := user.ProfilePicURLHD
	if picture == "" {
		picture = user.ProfilePicURL
	}

	snapshot := &models.ProfileSnapshot{
		PlatformUserID:    strings.TrimSpace(user.ID),
		Username:          strings.TrimSpace(user.Username),
		FullName:          user.FullName,
		Bio:               user.Biography,
		IsVerified:        user.IsVerified,
		ProfilePictureURL: picture,
		Followers:         user.EdgeFollowedBy.Count,
		Following:         user.EdgeFollow.Count,
		PostsCount:        user.EdgeOwnerToTimelineMedia.Count,
		Posts:             make([]models.PostSnapshot, 0, len(raw.Items)),
		FetchedAt:         fetchedAt,
	}

	v := getValidator()
	for i, item := range raw.Items {
		post := normalizeItem(item)
		if err := v.Struct(post); err != nil {
			n.logger.WarnWithFields("dropping malformed feed item", map[string]interface{}{
				"username": snapshot.Username,
				"index":    i,
				"id":       item.ID,
				"error":    describe(err),
			})
			continue
		}
		snapshot.Posts = append(snapshot.Posts, post)
	}

	if err := v.Struct(snapshot); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeMalformedSourceData, describe(err), err)
	}

	snapshot.SplitReels()
	return snapshot, nil
}

func normalizeItem(item instagram.FeedItem) models.PostSnapshot {
	contentType := models.ClassifyContent(item.ProductType, item.MediaType)

	imageURL := item.ImageVersions2.FirstImageURL()
	if imageURL == "" && len(item.CarouselMedia) > 0 {
		imageURL = item.CarouselMedia[0].ImageVersions2.FirstImageURL()
	}

	post := models.PostSnapshot{
		ID:          item.ID,
		PostURL:     instagram.GetPostURL(item.Code),
		ImageURL:    imageURL,
		ContentType: contentType,
		Likes:       item.LikeCount,
		Comments:    item.CommentCount,
	}
	if item.Caption != nil {
		post.Caption = item.Caption.Text
	}
	if item.TakenAt > 0 {
		post.PostedAt = time.Unix(item.TakenAt, 0).UTC()
	}
	if len(item.VideoVersions) > 0 {
		post.VideoURL = item.VideoVersions[0].URL
	}
	if contentType.HasViews() {
		var views int64
		switch {
		case item.PlayCount != nil:
			views = *item.PlayCount
		case item.ViewCount != nil:
			views = *item.ViewCount
		}
		post.Views = &views
	}

	for _, slide := range item.CarouselMedia {
		url := slide.ImageVersions2.FirstImageURL()
		slideType := models.ClassifyContent("", slide.MediaType)
		if slideType == models.ContentVideo && len(slide.VideoVersions) > 0 {
			url = slide.VideoVersions[0].URL
		}
		if url == "" {
			continue
		}
		post.CarouselMedia = append(post.CarouselMedia, models.CarouselItem{Type: slideType, URL: url})
	}

	return post
}

func describe(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err.Error()
	}

	messages := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		if fe.Param() != "" {
			messages = append(messages, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			messages = append(messages, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(messages, "; ")
}
