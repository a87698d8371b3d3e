package cli

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/coursechat/internal/cli/formatter"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newAnalyticsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Inspect or clear visitor analytics",
	}
	cmd.AddCommand(newAnalyticsShowCmd(app), newAnalyticsClearCmd(app))
	return cmd
}

func newAnalyticsShowCmd(app *App) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show headline numbers and recent sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			stats, err := app.Analytics.Stats(ctx)
			if err != nil {
				return err
			}
			sessions, err := app.Analytics.Sessions(ctx, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"stats": stats, "sessions": sessions})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatAnalytics(stats, sessions, app.now()))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of sessions to list (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

var errNotConfirmed = errors.New("refusing to clear analytics without confirmation (use --yes)")

func newAnalyticsClearCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded session and search",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				if !app.interactive() {
					return errNotConfirmed
				}
				confirmed := false
				err := huh.NewConfirm().
					Title("Delete all analytics sessions?").
					Description("Sessions and their searches are removed permanently.").
					Affirmative("Delete").
					Negative("Cancel").
					Value(&confirmed).
					Run()
				if err != nil {
					return fmt.Errorf("confirmation: %w", err)
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}
			if err := app.Analytics.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.StyleGreen.Render("✔")+" Analytics cleared.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
