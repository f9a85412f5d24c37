package reporting

import (
	"strings"

	"github.com/geo-infra/geo-acceptor/types"
)

// Table renders records as an aligned monospace table: a header row, a
// separator row of dashes, then one row per record. Every cell is
// centered and padded to the widest value of its column, with a floor of
// the header width plus two surrounding spaces. Absent values render as
// "_". Zero records yield an empty slice.
func Table(records []types.Record, columns []string) []string {
	if len(records) == 0 {
		return nil
	}

	widths := make(map[string]int, len(columns))
	for _, col := range columns {
		widths[col] = len(col) + 2
	}
	for _, rec := range records {
		for _, col := range columns {
			if w := len(rec.Cell(col)) + 2; w > widths[col] {
				widths[col] = w
			}
		}
	}

	row := func(cell func(col string) string) string {
		parts := make([]string, 0, len(columns))
		for _, col := range columns {
			parts = append(parts, center(cell(col), widths[col]))
		}
		return strings.Join(parts, "|")
	}

	out := make([]string, 0, len(records)+2)
	out = append(out, row(func(col string) string { return col }))
	out = append(out, row(func(col string) string { return strings.Repeat("-", widths[col]) }))
	for _, rec := range records {
		rec := rec
		out = append(out, row(func(col string) string {
			if v := rec.Cell(col); v != "" {
				return v
			}
			return "_"
		}))
	}
	return out
}

// center pads s to width, favoring the right side on odd padding.
func center(s string, width int) string {
	gap := width - len(s)
	if gap <= 0 {
		return s
	}
	left := gap / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
}
