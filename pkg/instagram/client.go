package instagram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"igtracker/pkg/config"
	errs "igtracker/pkg/errors"
	"igtracker/pkg/logger"
	"igtracker/pkg/ratelimit"
)

// Client fetches profile metadata and recent feed items from Instagram's
// web API using a logged-in browser session
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	maxItems   int
	limiter    ratelimit.Limiter
	logger     logger.Logger
	now        func() time.Time
}

// NewClient creates a new Instagram API client
func NewClient(cfg config.InstagramConfig, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}
	maxItems := cfg.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	headers := map[string]string{
		"Accept":           "*/*",
		"Accept-Language":  "en-US,en;q=0.9",
		"Sec-Fetch-Dest":   "empty",
		"Sec-Fetch-Mode":   "cors",
		"Sec-Fetch-Site":   "same-origin",
		"User-Agent":       cfg.UserAgent,
		"X-ASBD-ID":        ASBDID,
		"X-IG-App-ID":      cfg.AppID,
		"X-IG-WWW-Claim":   "0",
		"X-Requested-With": "XMLHttpRequest",
	}
	if cfg.SessionID != "" {
		headers["Cookie"] = sessionCookie(cfg)
	}
	if cfg.CSRFToken != "" {
		headers["X-CSRFToken"] = cfg.CSRFToken
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		headers:    headers,
		baseURL:    baseURL,
		maxItems:   maxItems,
		limiter:    limiter,
		logger:     logger.OrNop(log),
		now:        time.Now,
	}
}

func sessionCookie(cfg config.InstagramConfig) string {
	parts := []string{"sessionid=" + cfg.SessionID}
	if cfg.CSRFToken != "" {
		parts = append(parts, "csrftoken="+cfg.CSRFToken)
	}
	if cfg.DSUserID != "" {
		parts = append(parts, "ds_user_id="+cfg.DSUserID)
	}
	return strings.Join(parts, "; ")
}

// FetchProfile fetches a profile and at most MaxItems of its recent feed
// items. Source failures are returned as typed errors: not_found when the
// profile does not exist, auth when the session is missing or expired.
func (c *Client) FetchProfile(ctx context.Context, username string) (*RawProfilePayload, error) {
	log := c.logger.WithField("username", username)

	var profile ProfileResponse
	if err := c.getJSON(ctx, GetProfileURL(c.baseURL, username), username, &profile); err != nil {
		log.WithError(err).Error("failed to fetch user profile")
		return nil, err
	}

	if profile.RequiresToLogin {
		log.Warn("authentication required for profile")
		return nil, &errs.Error{
			Type:    errs.ErrorTypeAuth,
			Message: "Instagram requires authentication to view this profile",
			Code:    http.StatusUnauthorized,
		}
	}
	if profile.Data.User == nil {
		log.Warn("profile not found or private")
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNotFound,
			Message: fmt.Sprintf("user not found or profile is private: %s", username),
			Code:    http.StatusNotFound,
		}
	}

	user := profile.Data.User
	var feed FeedResponse
	if err := c.getJSON(ctx, GetFeedURL(c.baseURL, user.ID), username, &feed); err != nil {
		log.WithError(err).Error("failed to fetch user feed")
		return nil, err
	}

	items := feed.Items
	if len(items) > c.maxItems {
		items = items[:c.maxItems]
	}

	log.DebugWithFields("fetched profile", map[string]interface{}{
		"user_id": user.ID,
		"items":   len(items),
	})

	return &RawProfilePayload{
		User:      user,
		Items:     items,
		FetchedAt: c.now().UTC(),
	}, nil
}

// getJSON performs a rate-limited GET and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, url, username string, target interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errs.Wrap(errs.ErrorTypeRateLimit, "rate limiter wait cancelled", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeUnknown, "failed to create request", err)
	}
	req.Header.Set("Referer", GetUserProfileURL(username))

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: "failed to read response body",
			Code:    resp.StatusCode,
			Err:     err,
		}
	}

	// Instagram serves its login page instead of JSON once cookies expire
	if looksLikeHTML(resp.Header.Get("Content-Type"), body) {
		c.logger.WarnWithFields("received HTML instead of JSON", map[string]interface{}{
			"url":    url,
			"status": resp.StatusCode,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeAuth,
			Message: "received HTML instead of JSON, session cookies may be invalid or expired",
			Code:    resp.StatusCode,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: "failed to parse JSON",
			Code:    resp.StatusCode,
			Err:     err,
		}
	}

	return nil
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, "network error", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// checkResponseStatus checks the HTTP response status and returns appropriate errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	fields := map[string]interface{}{
		"status": resp.StatusCode,
		"url":    resp.Request.URL.String(),
	}

	switch {
	case resp.StatusCode < 400:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", fields)
		return &errs.Error{Type: errs.ErrorTypeAuth, Message: "authentication required", Code: resp.StatusCode}
	case resp.StatusCode == http.StatusNotFound:
		c.logger.WarnWithFields("resource not found", fields)
		return &errs.Error{Type: errs.ErrorTypeNotFound, Message: "resource not found", Code: resp.StatusCode}
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", fields)
		return &errs.Error{Type: errs.ErrorTypeRateLimit, Message: "rate limit exceeded", Code: resp.StatusCode}
	case resp.StatusCode >= 500:
		c.logger.ErrorWithFields("server error", fields)
		return &errs.Error{Type: errs.ErrorTypeServerError, Message: "server error", Code: resp.StatusCode}
	default:
		c.logger.ErrorWithFields("unexpected API error", fields)
		return &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}
}

func looksLikeHTML(contentType string, body []byte) bool {
	if strings.HasPrefix(strings.ToLower(contentType), "text/html") {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	return bytes.HasPrefix(trimmed, []byte("<"))
}
