package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/coursechat/internal/cli/formatter"
	"github.com/alexanderramin/coursechat/internal/config"
	"github.com/alexanderramin/coursechat/internal/domain"
	"github.com/alexanderramin/coursechat/internal/intelligence"
	"github.com/alexanderramin/coursechat/internal/llm"
	"github.com/spf13/cobra"
)

// ClientTag marks analytics sessions opened from the terminal.
const ClientTag = "cli"

type askOutput struct {
	Reply                 string     `json:"reply"`
	SuggestedCourseIDs    []int      `json:"suggested_course_ids"`
	DisambiguationOptions []string   `json:"disambiguation_options"`
	Cards                 []cardJSON `json:"cards"`
}

type cardJSON struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Reference string `json:"reference"`
	Date      string `json:"date"`
	Venue     string `json:"venue"`
	Price     string `json:"price"`
	Spaces    string `json:"spaces,omitempty"`
	Link      string `json:"link,omitempty"`
}

func toCardJSON(cards []domain.CourseOffering) []cardJSON {
	out := make([]cardJSON, len(cards))
	for i, c := range cards {
		out[i] = cardJSON{
			ID:        c.ID,
			Name:      c.DisplayName(),
			Reference: c.Reference,
			Date:      c.StartDate,
			Venue:     c.Venue,
			Price:     c.Price,
			Spaces:    c.AvailableSpaces,
			Link:      c.Link,
		}
	}
	return out
}

func newAskCmd(app *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   `ask "<question>"`,
		Short: "Ask the assistant a single question",
		Long:  "Runs one exchange in a fresh conversation and prints the reply with its course cards.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			question := strings.Join(args, " ")

			conv, err := app.Chat.Start(ctx, ClientTag)
			if err != nil {
				return fmt.Errorf("starting conversation: %w", err)
			}
			defer func() {
				if err := app.Chat.End(ctx, conv); err != nil {
					app.logger().Warn("closing analytics session failed", "error", err)
				}
			}()

			stop := formatter.StartSpinner(cmd.ErrOrStderr(), app.interactive() && !asJSON, "Thinking...")
			res, err := app.Chat.Send(ctx, conv, question)
			stop()
			if err != nil {
				return presentableError(err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(askOutput{
					Reply:                 res.Reply.Reply,
					SuggestedCourseIDs:    res.Reply.SuggestedCourseIDs,
					DisambiguationOptions: res.Reply.DisambiguationOptions,
					Cards:                 toCardJSON(res.Cards),
				})
			}
			fmt.Fprint(out, formatter.FormatReply(res.Reply, res.Cards, app.now()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the structured reply as JSON")
	return cmd
}

// presentableError keeps the sentinel for exit handling but leads with the
// text a user should see.
func presentableError(err error) error {
	if errors.Is(err, llm.ErrAuth) || errors.Is(err, llm.ErrDisabled) {
		return fmt.Errorf("%s (set %s or llm.api_key): %w", intelligence.ConfigErrorMessage, config.APIKeyEnv, err)
	}
	return fmt.Errorf("%s: %w", intelligence.PresentError(err), err)
}
