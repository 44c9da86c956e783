package inference

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	errs "igtracker/pkg/errors"
	"igtracker/pkg/models"
)

const imagePrompt = `Analyze this Instagram image and its caption. Respond ONLY with a single JSON object. Do not add markdown.
The JSON must have this structure: { "tags": ["tag1", "tag2"], "vibe": "...", "quality": { "lighting": "..." } }
- "tags": 1-5 relevant keywords extracted from both the image content and the caption. Use lowercase. Examples: 'fitness', 'travel', 'food', 'lifestyle', 'cricket', 'birthday', 'celebration'.
- "vibe": A single string from: ['casual', 'aesthetic', 'luxury', 'energetic', 'calm', 'professional', 'happy', 'moody', 'minimalist'].
- "quality": An object with a "lighting" key describing light (e.g., "Good", "Harsh", "Dim", "Natural").`

const audiencePrompt = `Analyze this influencer's data to infer their audience demographics. Respond ONLY with a single JSON object. Do not add markdown.
Influencer:
- Username: %s
- Full Name: %s
- Followers: %d
- Recent Captions Summary: %s...

The JSON object must have this structure:
{
  "genderSplit": [{ "name": "Male", "value": number }, { "name": "Female", "value": number }],
  "ageGroups": [{ "name": "18-24", "value": number }, { "name": "25-34", "value": number }, ...],
  "topGeographies": [{ "name": "USA", "value": number }, { "name": "Brazil", "value": number }, ...]
}
- Sum of values for genderSplit and ageGroups must be 100.`

// AudienceInput is the profile-level context sent for demographic inference
type AudienceInput struct {
	Username      string
	FullName      string
	Followers     int64
	CaptionSample string
}

type imageResult struct {
	Tags    []string `json:"tags"`
	Vibe    string   `json:"vibe"`
	Quality struct {
		Lighting string `json:"lighting"`
	} `json:"quality"`
}

// AnalyzeImage tags an image and classifies its vibe and lighting
func (c *Client) AnalyzeImage(ctx context.Context, imageURL, caption string) (*models.AiAnalysis, error) {
	if imageURL == "" {
		return nil, errs.New(errs.ErrorTypeInferenceFailure, "no image to analyze")
	}

	image, err := c.fetchImage(ctx, imageURL)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeInferenceFailure, "failed to download image", err)
	}

	prompt := fmt.Sprintf("Caption: %q\n%s", caption, imagePrompt)
	text, err := c.GenerateText(ctx, Part{Text: prompt}, image)
	if err != nil {
		return nil, err
	}

	var result imageResult
	if err := json.Unmarshal([]byte(stripFences(text)), &result); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeInferenceFailure, "invalid image analysis JSON", err)
	}

	return &models.AiAnalysis{
		Tags:     normalizeTags(result.Tags),
		Vibe:     strings.ToLower(strings.TrimSpace(result.Vibe)),
		Lighting: strings.TrimSpace(result.Quality.Lighting),
	}, nil
}

// AnalyzeAudience infers the audience demographics of a profile
func (c *Client) AnalyzeAudience(ctx context.Context, in AudienceInput) (*models.AudienceDemographics, error) {
	prompt := fmt.Sprintf(audiencePrompt, in.Username, in.FullName, in.Followers, in.CaptionSample)

	text, err := c.GenerateText(ctx, Part{Text: prompt})
	if err != nil {
		return nil, err
	}

	var result models.AudienceDemographics
	if err := json.Unmarshal([]byte(stripFences(text)), &result); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeInferenceFailure, "invalid demographics JSON", err)
	}
	return &result, nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
