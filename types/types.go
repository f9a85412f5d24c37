package types

import "strconv"

// Category describes one slice of the geocoder test suite. A category
// either carries an explicit pytest selector expression, or is marked as
// the catch-all for every test no other category claims.
type Category struct {
	Name           string `yaml:"name"`
	Selector       string `yaml:"selector,omitempty"`
	RemainingTests bool   `yaml:"remaining_tests,omitempty"`
}

// ReportColumns is the column order shared by the table, JSON and CSV
// report sinks.
var ReportColumns = []string{"region", "category", "failed", "total", "ratio", "duration"}

// Record holds the outcome of one (region, category) test run.
// When no summary banner was found in the captured output, Parsed is
// false and only Region and Category are meaningful; the record is a
// detectable degraded result, not an error.
type Record struct {
	Region   string
	Category string

	Parsed   bool
	Failed   int
	Total    int
	Ratio    string
	Duration string
}

// Cell returns the report cell value for a column, or "" when the field
// is absent from this record.
func (r Record) Cell(column string) string {
	switch column {
	case "region":
		return r.Region
	case "category":
		return r.Category
	case "failed":
		if !r.Parsed {
			return ""
		}
		return strconv.Itoa(r.Failed)
	case "total":
		if !r.Parsed {
			return ""
		}
		return strconv.Itoa(r.Total)
	case "ratio":
		if !r.Parsed {
			return ""
		}
		return r.Ratio
	case "duration":
		if !r.Parsed {
			return ""
		}
		return r.Duration
	default:
		return ""
	}
}
