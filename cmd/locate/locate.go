// Package locate implements the locate command, which prints the video
// links a topic or direct link resolves to without scraping anything.
package locate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/cooper/internal/locator"
)

// Command returns the locate command.
func Command() *cobra.Command {
	var (
		url        string
		listTopics bool
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "locate [topic]",
		Short: "List the videos a topic or link resolves to",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := locator.New()
			out := cmd.OutOrStdout()

			if listTopics {
				return write(out, "Topic", l.Topics(), asJSON)
			}

			topic := ""
			if len(args) == 1 {
				topic = args[0]
			}
			if topic == "" && url == "" {
				return errors.New("a topic argument or --url is required")
			}
			return write(out, "URL", l.Locate(topic, url), asJSON)
		},
	}

	cmd.Flags().StringVarP(&url, "url", "u", "", "direct video link to validate")
	cmd.Flags().BoolVar(&listTopics, "topics", false, "list known topics")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print a JSON array")

	return cmd
}

func write(w io.Writer, header string, values []string, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(values)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", header})
	for i, v := range values {
		t.AppendRow(table.Row{i + 1, v})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d total", len(values))})
	t.Render()
	return nil
}
