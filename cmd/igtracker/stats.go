package main

import (
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"igtracker/pkg/instagram"
	"igtracker/pkg/ui"
)

var (
	statsOwner string
	statsJSON  bool
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats <username>",
	Short: "Show analytics for a tracked profile without fetching it",
	Long: `Compute engagement, growth and top-post analytics from the stored
history of a profile. Nothing is fetched from Instagram.`,
	Example: `  igtracker stats natgeo
  igtracker stats natgeo --owner team-a --json`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVar(&statsOwner, "owner", defaultOwner, "owner the profile is tracked for")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print the analytics as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	username := instagram.SanitizeUsername(args[0])

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	profile, err := a.store.FindProfile(ctx, statsOwner, username)
	if err != nil {
		return err
	}
	if profile == nil {
		ui.PrintWarning("Profile not tracked", username)
		return nil
	}

	result, err := a.pipeline.Analytics().Compute(ctx, statsOwner, username)
	if err != nil {
		return err
	}

	if statsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	ui.PrintInfo("Profile", "@"+profile.Username)
	ui.PrintBlock(ui.RenderAnalytics(result))
	return nil
}
