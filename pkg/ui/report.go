package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"igtracker/pkg/models"
)

// RenderProfile renders the header panel for a fresh snapshot
func RenderProfile(s *models.ProfileSnapshot) string {
	if s == nil {
		return ""
	}

	name := "@" + s.Username
	if s.IsVerified {
		name += " ✓"
	}

	rows := []string{
		titleStyle.Render(name),
	}
	if s.FullName != "" {
		rows = append(rows, valueStyle.Render(s.FullName))
	}
	rows = append(rows,
		"",
		field("Followers", humanize.Comma(s.Followers)),
		field("Following", humanize.Comma(s.Following)),
		field("Posts", humanize.Comma(s.PostsCount)),
		field("Recent", fmt.Sprintf("%d posts, %d reels", len(s.Posts), len(s.Reels))),
	)

	if d := s.Demographics; d != nil {
		rows = append(rows, "", labelStyle.Render("Audience"))
		rows = append(rows, namedValues("gender", d.GenderSplit))
		rows = append(rows, namedValues("age", d.AgeGroups))
		rows = append(rows, namedValues("top", d.TopGeographies))
	}

	analyzed := 0
	for _, p := range s.Posts {
		if p.AiAnalysis != nil {
			analyzed++
		}
	}
	if len(s.Posts) > 0 {
		rows = append(rows, dimStyle.Render(fmt.Sprintf("%d of %d posts analyzed", analyzed, len(s.Posts))))
	}

	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// RenderAnalytics renders stats, growth and post performance panels
func RenderAnalytics(a *models.Analytics) string {
	if a == nil {
		return ""
	}

	stats := []string{
		titleStyle.Render("Stats"),
		"",
		field("Posts tracked", humanize.Comma(int64(a.Stats.TotalPosts))),
		field("Avg likes", humanize.Comma(a.Stats.AverageLikes)),
		field("Avg comments", humanize.Comma(a.Stats.AverageComments)),
		field("Avg views", humanize.Comma(a.Stats.AverageViews)),
		field("Engagement", fmt.Sprintf("%.2f%%", a.Stats.EngagementRate)),
	}
	if best := a.Stats.BestPerformingPost; best != nil {
		stats = append(stats, field("Best post", fmt.Sprintf("%s (%s likes, %s comments)",
			best.Shortcode, humanize.Comma(best.Likes), humanize.Comma(best.Comments))))
	}

	panels := []string{panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, stats...))}

	if len(a.GrowthSeries) > 0 {
		panels = append(panels, panelStyle.Render(renderGrowth(a.GrowthSeries)))
	}
	if len(a.PostPerformance) > 0 {
		panels = append(panels, panelStyle.Render(renderPerformance(a.PostPerformance)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, panels...)
}

func renderGrowth(series []models.GrowthPoint) string {
	rows := []string{titleStyle.Render("Growth"), ""}
	for i, p := range series {
		line := fmt.Sprintf("%s  %12s followers", p.Date, humanize.Comma(p.Followers))
		if i > 0 {
			delta := p.Followers - series[i-1].Followers
			line += "  " + trendStyle(delta).Render(fmt.Sprintf("%+d", delta))
		}
		rows = append(rows, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderPerformance(perf []models.PostPerformance) string {
	rows := []string{titleStyle.Render("Recent posts"), ""}
	for _, p := range perf {
		line := fmt.Sprintf("%s  %10s likes  %8s comments", p.Date, humanize.Comma(p.Likes), humanize.Comma(p.Comments))
		if p.Views > 0 {
			line += fmt.Sprintf("  %10s views", humanize.Comma(p.Views))
		}
		rows = append(rows, line, dimStyle.Render("  "+p.PostURL))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func field(label, value string) string {
	return fmt.Sprintf("%s %s", labelStyle.Render(fmt.Sprintf("%-14s", label)), valueStyle.Render(value))
}

func namedValues(label string, values []models.NamedValue) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("%s %.0f%%", v.Name, v.Value))
	}
	if len(parts) == 0 {
		parts = append(parts, "n/a")
	}
	return field("  "+label, strings.Join(parts, ", "))
}
