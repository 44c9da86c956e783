package instagram

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	// BaseURL is the base URL for Instagram
	BaseURL = "https://www.instagram.com"

	// ProfileEndpoint is the endpoint for profile metadata
	ProfileEndpoint = "/api/v1/users/web_profile_info/"

	// FeedEndpoint is the endpoint pattern for a user's feed
	FeedEndpoint = "/api/v1/feed/user/%s/"

	// DefaultMaxItems is the default number of feed items kept per fetch
	DefaultMaxItems = 5

	// ASBDID is the static X-ASBD-ID value sent by the web app
	ASBDID = "129477"
)

var shortcodePattern = regexp.MustCompile(`instagram\.com/(?:[A-Za-z0-9_.]+/)?(?:p|reels?|tv)/([A-Za-z0-9_-]+)`)

// GetProfileURL constructs the URL for fetching a user's profile
func GetProfileURL(base, username string) string {
	params := url.Values{}
	params.Set("username", username)

	return fmt.Sprintf("%s%s?%s", strings.TrimRight(base, "/"), ProfileEndpoint, params.Encode())
}

// GetFeedURL constructs the URL for fetching a user's recent feed items
func GetFeedURL(base, userID string) string {
	return strings.TrimRight(base, "/") + fmt.Sprintf(FeedEndpoint, url.PathEscape(userID))
}

// GetPostURL constructs the canonical URL for a specific post
func GetPostURL(shortcode string) string {
	if shortcode == "" {
		return ""
	}
	return fmt.Sprintf("%s/p/%s/", BaseURL, shortcode)
}

// GetUserProfileURL constructs the public profile URL for a user
func GetUserProfileURL(username string) string {
	if username == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/", BaseURL, username)
}

// ParseShortcode extracts the shortcode from a post, reel or tv URL
func ParseShortcode(postURL string) (string, bool) {
	m := shortcodePattern.FindStringSubmatch(postURL)
	if len(m) < 2 || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// IsValidUsername checks if a username is valid according to Instagram rules
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}

	// Instagram usernames can only contain letters, numbers, periods, and underscores
	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}

	return true
}

// SanitizeUsername strips a leading @, a profile URL prefix and trailing
// slashes or spaces, and lowercases the result
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	if username == "" {
		return ""
	}

	for _, prefix := range []string{"https://www.instagram.com/", "http://www.instagram.com/", "https://instagram.com/", "instagram.com/"} {
		if strings.HasPrefix(strings.ToLower(username), prefix) {
			username = username[len(prefix):]
			break
		}
	}

	username = strings.TrimPrefix(username, "@")
	username = strings.TrimRight(username, "/ ")

	return strings.ToLower(username)
}
