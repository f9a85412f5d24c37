package acceptor

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/geo-infra/geo-acceptor/runner"
)

// ConsoleResultFormatter renders a run's records as a terminal table with
// a colored verdict line.
type ConsoleResultFormatter struct {
	logger *slog.Logger
}

// NewConsoleResultFormatter creates a new ConsoleResultFormatter.
func NewConsoleResultFormatter(logger *slog.Logger) *ConsoleResultFormatter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleResultFormatter{logger: logger}
}

// FormatResults formats and displays the test results.
func (f *ConsoleResultFormatter) FormatResults(result *runner.Result) {
	f.logger.Info("printing results", "run_id", result.RunID)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Geocoder Test Results (%s)", formatDuration(result.Duration)))

	t.AppendHeader(table.Row{"Region", "Category", "Failed", "Total", "Ratio", "Duration"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Total", Align: text.AlignRight},
		{Name: "Ratio", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
	})

	var totalFailed, totalTests int
	for _, rec := range result.Records {
		if !rec.Parsed {
			t.AppendRow(table.Row{rec.Region, rec.Category, "_", "_", "_", "_"})
			continue
		}
		totalFailed += rec.Failed
		totalTests += rec.Total
		t.AppendRow(table.Row{rec.Region, rec.Category, rec.Failed, rec.Total, rec.Ratio, rec.Duration})
	}

	if totalFailed > 0 {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}

	t.AppendFooter(table.Row{"TOTAL", "", totalFailed, totalTests, overallRatio(totalFailed, totalTests), formatDuration(result.Duration)})
	t.Render()

	if totalFailed > 0 {
		color.New(color.FgRed, color.Bold).Printf("✗ %d of %d tests failed\n", totalFailed, totalTests)
	} else {
		color.New(color.FgGreen, color.Bold).Printf("✓ all %d tests passed\n", totalTests)
	}
}

func overallRatio(failed, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", float64(total-failed)/float64(total)*100)
}

// formatDuration renders a duration as seconds with one decimal place.
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
