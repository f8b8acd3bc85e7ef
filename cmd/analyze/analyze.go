// Package analyze implements the analyze command, which runs the full
// pipeline for a topic or a single video link and prints the report.
package analyze

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/cooper/cmd/common"
	"github.com/jonesrussell/cooper/internal/analysis"
	"github.com/jonesrussell/cooper/internal/bootstrap"
)

// exitCodes maps failure kinds to distinct exit codes.
var exitCodes = map[analysis.Kind]int{
	analysis.KindInvalidRequest: 2,
	analysis.KindNotFound:       3,
	analysis.KindGatewayTimeout: 4,
	analysis.KindBadGateway:     5,
}

// Command returns the analyze command.
func Command() *cobra.Command {
	var (
		query  string
		url    string
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze the emotional tone of videos on a topic",
		Long: `Locate videos for a topic (or one direct link), scrape their comments and
engagement, classify emotions, correlate them with engagement and generate
insights and PR hooks.

Examples:
  cooper analyze --query cooking
  cooper analyze --query cooking --limit 5 --format json
  cooper analyze --query cooking --url https://www.tiktok.com/@chef/video/123`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			if format != FormatTable && format != FormatJSON {
				return fmt.Errorf("unknown format %q (want %s or %s)", format, FormatTable, FormatJSON)
			}

			app, err := bootstrap.New(cmd.Context(), deps.Config, deps.Logger)
			if err != nil {
				return fmt.Errorf("build components: %w", err)
			}
			defer func() { _ = app.Close() }()

			report, err := app.Service.Run(cmd.Context(), analysis.Request{
				Query: query,
				Limit: limit,
				URL:   url,
			})
			if err != nil {
				return toExitError(err)
			}
			return Render(cmd.OutOrStdout(), report, format)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "topic to analyze")
	cmd.Flags().StringVarP(&url, "url", "u", "", "analyze a single video link instead of a topic")
	cmd.Flags().IntVarP(&limit, "limit", "l", analysis.DefaultLimit, "maximum number of videos (1-20)")
	cmd.Flags().StringVarP(&format, "format", "f", FormatTable, "output format: table or json")

	return cmd
}

func toExitError(err error) error {
	var se *analysis.StageError
	if !errors.As(err, &se) {
		return err
	}
	code, ok := exitCodes[se.Kind]
	if !ok {
		code = 1
	}
	return &common.ExitError{Code: code, Err: err}
}
