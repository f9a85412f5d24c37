// Package parser extracts structured results from the free-text output of
// the geocoder-tester pytest runs. pytest closes each run with a banner
// line such as:
//
//	========= 2 failed, 40 passed in 12.34 seconds =========
//	========= no tests ran in 1 seconds =========
//
// The last banner in the output is authoritative; earlier banner-shaped
// lines are progress markers.
package parser

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/geo-infra/geo-acceptor/types"
)

// bannerPattern matches a banner-shaped line: a run of three or more '='
// characters, arbitrary interior text, another run of '='.
var bannerPattern = regexp.MustCompile(`^===+.*===+`)

// summaryPattern extracts the counts from a banner line. Both count
// clauses are optional; "no tests ran" and "N deselected" summaries carry
// neither. The elapsed clause is mandatory.
var summaryPattern = regexp.MustCompile(`^===+( (?P<failed>\d+) failed)?,? ((?P<passed>\d+) passed)?.*in (?P<elapsed>.*) seconds`)

// Summary is the structured content of one banner line.
type Summary struct {
	Failed   int
	Total    int
	Ratio    string
	Duration string
}

// IsBanner reports whether line is banner-shaped. It never fails on empty
// or malformed input.
func IsBanner(line string) bool {
	return bannerPattern.MatchString(line)
}

// SummaryParser parses banner lines and scans captured pytest output.
type SummaryParser struct {
	log *slog.Logger
}

// NewSummaryParser creates a parser that reports unparseable lines on log.
func NewSummaryParser(log *slog.Logger) *SummaryParser {
	if log == nil {
		log = slog.Default()
	}
	return &SummaryParser{log: log}
}

// Parse extracts a Summary from a banner line. A line that does not match
// the summary pattern is logged as an error and yields ok=false; no error
// is ever propagated, per the contract that unparseable output degrades
// the run instead of aborting it.
func (p *SummaryParser) Parse(line string) (Summary, bool) {
	match := summaryPattern.FindStringSubmatch(line)
	if match == nil {
		p.log.Error("impossible to parse results", "line", line)
		return Summary{}, false
	}

	groups := make(map[string]string, 4)
	for i, name := range summaryPattern.SubexpNames() {
		if name != "" {
			groups[name] = match[i]
		}
	}

	failed := safeAtoi(groups["failed"])
	passed := safeAtoi(groups["passed"])
	total := failed + passed

	return Summary{
		Failed:   failed,
		Total:    total,
		Ratio:    ratio(passed, total),
		Duration: formatElapsed(groups["elapsed"]),
	}, true
}

// Extract scans captured output from the last line backward for the
// authoritative banner and merges it with the run labels. When the output
// contains no banner at all, the returned record carries only the labels.
func (p *SummaryParser) Extract(output, region, category string) types.Record {
	rec := types.Record{Region: region, Category: category}

	lines := strings.Split(output, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if !IsBanner(line) {
			continue
		}
		p.log.Info(line)
		if sum, ok := p.Parse(line); ok {
			rec.Parsed = true
			rec.Failed = sum.Failed
			rec.Total = sum.Total
			rec.Ratio = sum.Ratio
			rec.Duration = sum.Duration
		}
		return rec
	}
	return rec
}

// safeAtoi converts a captured count, treating an absent or malformed
// clause as zero.
func safeAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// ratio renders passed/total as a whole-percent string, "0%" when no
// tests ran.
func ratio(passed, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", float64(passed)/float64(total)*100)
}

// formatElapsed renders the captured seconds as H:MM:SS, rounding to the
// nearest second. A value that does not parse as a float yields "".
func formatElapsed(s string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return ""
	}
	secs := int(math.Round(f))
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}
