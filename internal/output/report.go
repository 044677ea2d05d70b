package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/patent-rank/pkg/types"
)

// Table column headers.
var Columns = []string{"Brevetto", "Titolo", "Abstract", "Similarità"}

// ParseFormat parses a --format flag value.
func ParseFormat(s string) (types.OutputFormat, error) {
	switch f := types.OutputFormat(strings.ToLower(s)); f {
	case "":
		return types.OutputTable, nil
	case types.OutputTable, types.OutputJSON, types.OutputYAML:
		return f, nil
	default:
		return "", fmt.Errorf("invalid output format %q: must be table, json, or yaml", s)
	}
}

// Report writes rep in the given format. For the table format a warning
// goes to the diagnostic stream and no table is drawn; the structured
// formats carry the warning inside the document.
func (p *Printer) Report(rep types.SearchReport, format types.OutputFormat, excerpt int) error {
	switch format {
	case types.OutputJSON:
		return FormatJSON(rep, p.out)
	case types.OutputYAML:
		return FormatYAML(rep, p.out)
	}
	if rep.Warning != "" {
		p.Warning("%s", rep.Warning)
		return nil
	}
	return FormatTable(rep.Results, excerpt, p.out)
}

// FormatTable writes results as a four-column table. Titles and abstracts
// longer than excerpt runes are shortened; excerpt <= 0 prints them whole.
func FormatTable(results []types.RankedResult, excerpt int, w io.Writer) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.Off,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
	)

	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{
			r.Reference.String(),
			Excerpt(r.Title, excerpt),
			Excerpt(r.Abstract, excerpt),
			fmt.Sprintf("%.4f", r.Score),
		}
	}

	table.Header(Columns)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("building table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	return nil
}

// FormatJSON writes the report as indented JSON to w.
func FormatJSON(rep types.SearchReport, w io.Writer) error {
	if rep.Results == nil {
		rep.Results = []types.RankedResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// FormatYAML writes the report as YAML to w.
func FormatYAML(rep types.SearchReport, w io.Writer) error {
	if rep.Results == nil {
		rep.Results = []types.RankedResult{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

// Excerpt flattens s onto one line and cuts it to at most max runes,
// ending in "..." when cut. max <= 0 keeps the full text.
func Excerpt(s string, max int) string {
	return truncate(oneLine(s), max)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
