package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	errs "igtracker/pkg/errors"
	"igtracker/pkg/ui"
)

var (
	trackOwner string
	trackJSON  bool
	trackNoAI  bool
)

// trackCmd represents the track command
var trackCmd = &cobra.Command{
	Use:   "track <username>",
	Short: "Fetch a profile, record a snapshot and show its analytics",
	Long: `Fetch an Instagram profile and its most recent posts, enrich them with
AI analysis when a Gemini API key is configured, append the counts to the
profile's history and print the updated analytics.

Tracking the same profile again adds a new history entry; earlier entries
are never changed.`,
	Example: `  # Track a profile for the default owner
  igtracker track natgeo

  # Track for a specific owner and print JSON
  igtracker track natgeo --owner team-a --json

  # Skip AI enrichment
  igtracker track natgeo --no-ai`,
	Args: cobra.ExactArgs(1),
	RunE: runTrack,
}

func init() {
	rootCmd.AddCommand(trackCmd)

	trackCmd.Flags().StringVar(&trackOwner, "owner", defaultOwner, "owner the profile is tracked for")
	trackCmd.Flags().BoolVar(&trackJSON, "json", false, "print the result as JSON")
	trackCmd.Flags().BoolVar(&trackNoAI, "no-ai", false, "skip AI enrichment")
}

const defaultOwner = "local"

func runTrack(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.pipeline.Run(ctx, args[0], trackOwner)
	if err != nil {
		return describeTrackError(err)
	}

	if trackJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	ui.PrintBlock(ui.RenderProfile(result.Profile))
	ui.PrintBlock(ui.RenderAnalytics(result.Analytics))
	if p := result.Persisted; p != nil {
		ui.PrintSuccess(fmt.Sprintf("Snapshot recorded: %d posts saved, %d skipped", p.PostsSaved, p.PostsSkipped))
	}
	return nil
}

// describeTrackError adds a hint for the failures a user can act on
func describeTrackError(err error) error {
	switch {
	case errs.IsType(err, errs.ErrorTypeAuth):
		return fmt.Errorf("%w\nRun 'igtracker auth login' to refresh your Instagram session", err)
	case errs.IsType(err, errs.ErrorTypeProfileNotFound):
		return fmt.Errorf("%w\nCheck the username; private profiles cannot be tracked", err)
	default:
		return err
	}
}
