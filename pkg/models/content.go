package models

// ContentType is the normalized kind of a feed item
type ContentType string

const (
	ContentImage    ContentType = "Image"
	ContentVideo    ContentType = "Video"
	ContentCarousel ContentType = "Carousel"
	ContentReel     ContentType = "Reel"
	ContentUnknown  ContentType = "Unknown"
)

// Instagram media_type discriminators
const (
	mediaTypeImage    = 1
	mediaTypeVideo    = 2
	mediaTypeCarousel = 8

	productTypeClips = "clips"
)

// ClassifyContent maps the source discriminators to a ContentType. The
// product type wins over the media type: reels are videos with
// product_type "clips".
func ClassifyContent(productType string, mediaType int) ContentType {
	if productType == productTypeClips {
		return ContentReel
	}
	switch mediaType {
	case mediaTypeImage:
		return ContentImage
	case mediaTypeCarousel:
		return ContentCarousel
	case mediaTypeVideo:
		return ContentVideo
	default:
		return ContentUnknown
	}
}

// HasViews reports whether the source publishes a view count for this kind
func (c ContentType) HasViews() bool {
	return c == ContentReel || c == ContentVideo
}

// Valid reports whether c is one of the known content types
func (c ContentType) Valid() bool {
	switch c {
	case ContentImage, ContentVideo, ContentCarousel, ContentReel, ContentUnknown:
		return true
	}
	return false
}
