package analyze

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jonesrussell/cooper/internal/domain"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Render writes report to w in format.
func Render(w io.Writer, report *domain.Report, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatTable, "":
		renderTables(w, report)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want %s or %s)", format, FormatTable, FormatJSON)
	}
}

func renderTables(w io.Writer, report *domain.Report) {
	fmt.Fprintf(w, "Run %s: %d videos\n\n", report.RunID, len(report.Videos))

	newTable := func(title string) table.Writer {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.SetTitle(title)
		return t
	}

	videos := newTable("Videos")
	videos.AppendHeader(table.Row{"#", "URL"})
	for i, u := range report.Videos {
		videos.AppendRow(table.Row{i + 1, u})
	}
	videos.Render()

	emotions := newTable("Emotions")
	emotions.AppendHeader(table.Row{"Emotion", "Text", "Audio"})
	for _, e := range domain.Emotions {
		emotions.AppendRow(table.Row{
			string(e),
			fmt.Sprintf("%.2f", report.Emotions.Text[e]),
			fmt.Sprintf("%.2f", report.Emotions.Audio[e]),
		})
	}
	emotions.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	emotions.Render()

	correlations := newTable("Correlations")
	correlations.AppendHeader(table.Row{"Metric", "Value"})
	for _, k := range report.Correlations.Keys() {
		correlations.AppendRow(table.Row{k, fmt.Sprintf("%.2f", report.Correlations[k])})
	}
	correlations.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	correlations.Render()

	fmt.Fprintln(w, "\nInsights:")
	for _, in := range report.Insights {
		fmt.Fprintf(w, "  - %s\n", strings.TrimSpace(in))
	}
	fmt.Fprintln(w, "\nPR hooks:")
	for _, h := range report.PRHooks {
		fmt.Fprintf(w, "  - %s\n", strings.TrimSpace(h))
	}
}
