package instagram

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetProfileURL(t *testing.T) {
	tests := []struct {
		name     string
		username string
		expected string
	}{
		{
			name:     "simple username",
			username: "testuser",
			expected: fmt.Sprintf("%s%s?username=testuser", BaseURL, ProfileEndpoint),
		},
		{
			name:     "username with underscore",
			username: "test_user",
			expected: fmt.Sprintf("%s%s?username=test_user", BaseURL, ProfileEndpoint),
		},
		{
			name:     "username with dots",
			username: "test.user",
			expected: fmt.Sprintf("%s%s?username=test.user", BaseURL, ProfileEndpoint),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetProfileURL(BaseURL, tt.username)
			assert.Equal(t, tt.expected, result)

			_, err := url.Parse(result)
			assert.NoError(t, err)
		})
	}
}

func TestGetFeedURL(t *testing.T) {
	assert.Equal(t, "https://www.instagram.com/api/v1/feed/user/123456/", GetFeedURL(BaseURL, "123456"))
	assert.Equal(t, "http://localhost:8080/api/v1/feed/user/42/", GetFeedURL("http://localhost:8080/", "42"))
}

func TestGetPostURL(t *testing.T) {
	assert.Equal(t, "https://www.instagram.com/p/ABC123/", GetPostURL("ABC123"))
	assert.Equal(t, "", GetPostURL(""))
}

func TestGetUserProfileURL(t *testing.T) {
	assert.Equal(t, "https://www.instagram.com/testuser/", GetUserProfileURL("testuser"))
	assert.Equal(t, "", GetUserProfileURL(""))
}

func TestParseShortcode(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
		ok   bool
	}{
		{"post", "https://www.instagram.com/p/CtjoC2BNsB2/", "CtjoC2BNsB2", true},
		{"post without slash", "https://www.instagram.com/p/CtjoC2BNsB2", "CtjoC2BNsB2", true},
		{"reel", "https://www.instagram.com/reel/Cx-_9aZ/", "Cx-_9aZ", true},
		{"reels", "https://instagram.com/reels/Cx1/", "Cx1", true},
		{"tv", "https://www.instagram.com/tv/B8xyz/", "B8xyz", true},
		{"username prefix", "https://www.instagram.com/someone/p/ABC/", "ABC", true},
		{"query string", "https://www.instagram.com/p/ABC/?igsh=xyz", "ABC", true},
		{"profile url", "https://www.instagram.com/someone/", "", false},
		{"empty shortcode", "https://www.instagram.com/p/", "", false},
		{"other host", "https://example.com/p/ABC/", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseShortcode(tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsValidUsername(t *testing.T) {
	tests := []struct {
		username string
		valid    bool
	}{
		{"testuser", true},
		{"test_user", true},
		{"test.user", true},
		{"TestUser123", true},
		{"", false},
		{"test-user", false},
		{"test user", false},
		{"test@user", false},
		{"abcdefghijklmnopqrstuvwxyz12345", false},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidUsername(tt.username))
		})
	}
}

func TestSanitizeUsername(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"testuser", "testuser"},
		{"@testuser", "testuser"},
		{"testuser/", "testuser"},
		{"  TestUser  ", "testuser"},
		{"https://www.instagram.com/testuser/", "testuser"},
		{"instagram.com/testuser", "testuser"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeUsername(tt.input))
		})
	}
}
