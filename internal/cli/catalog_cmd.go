package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/alexanderramin/coursechat/internal/cli/formatter"
	"github.com/alexanderramin/coursechat/internal/domain"
	"github.com/alexanderramin/coursechat/internal/service"
	"github.com/spf13/cobra"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newSearchCmd(app *App) *cobra.Command {
	var (
		q      service.SearchQuery
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the catalog without the assistant",
		Example: `  coursechat search smsts --location London --expand
  coursechat search --from 2026-01-01 --to 2026-01-31 --location "Chelmsford, Online"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				q.Query = args[0]
			}
			res, err := app.Courses.Search(cmd.Context(), q)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSearchResult(res))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&q.Location, "location", "l", "", "comma-separated venues (OR)")
	f.StringVar(&q.DateStart, "from", "", "earliest start date, YYYY-MM-DD")
	f.StringVar(&q.DateEnd, "to", "", "latest start date, YYYY-MM-DD (inclusive)")
	f.BoolVar(&q.ExpandRegions, "expand", false, "expand region names such as London into their venues")
	f.BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func newDetailsCmd(app *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "details <course type>",
		Short: "Show syllabus notes for a course type",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := app.Courses.Details(cmd.Context(), strings.Join(args, " "))
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), d)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCourseDetails(d.Query, d.Key, d.Text, d.Found))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the entry as JSON")
	return cmd
}

func newCoursesCmd(app *App) *cobra.Command {
	var (
		limit   int
		asJSON  bool
		refresh bool
	)
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "List the upcoming sessions in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if refresh {
				st := app.Courses.Refresh(ctx)
				fmt.Fprintln(cmd.ErrOrStderr(), formatter.Dim(fmt.Sprintf("catalog reloaded: %d sessions", st.Courses)))
			}
			courses := app.Courses.List(ctx)
			if limit > 0 && limit < len(courses) {
				courses = courses[:limit]
			}
			if asJSON {
				out := make([]domain.CourseProjection, len(courses))
				for i, c := range courses {
					out[i] = c.Project()
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCourseTable(courses))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n sessions (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print compact projections as JSON")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "reload the feed before listing")
	return cmd
}
