// Package reporting renders aggregated test records as an aligned text
// table and persists the per-run report artifacts: report.log (human
// text), report.json and report.csv.
package reporting

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/geo-infra/geo-acceptor/types"
)

// RunReport is the run-level envelope serialized to report.json.
type RunReport struct {
	Name     string  `json:"name"`
	URL      string  `json:"url"`
	Version  *string `json:"version"`
	MDReport string  `json:"md_report"`
}

// FileSink writes the report artifacts for one run into its output
// directory.
type FileSink struct {
	dir string
	log *slog.Logger
}

// NewFileSink creates a sink rooted at the run's output directory.
func NewFileSink(dir string, log *slog.Logger) *FileSink {
	if log == nil {
		log = slog.Default()
	}
	return &FileSink{dir: dir, log: log}
}

// Write renders and persists report.log, report.json and report.csv for
// the given records. The markdown-style table inside the JSON report is
// the same table written to report.log.
func (s *FileSink) Write(name, url string, version *string, records []types.Record) (RunReport, error) {
	table := strings.Join(Table(records, types.ReportColumns), "\n")
	report := RunReport{
		Name:     name,
		URL:      url,
		Version:  version,
		MDReport: table,
	}

	if err := s.writeLog(report); err != nil {
		return report, err
	}
	if err := s.writeJSON(report); err != nil {
		return report, err
	}
	if err := s.writeCSV(report, records); err != nil {
		return report, err
	}
	return report, nil
}

func (s *FileSink) writeLog(report RunReport) error {
	path := filepath.Join(s.dir, "report.log")

	version := "unknown"
	if report.Version != nil {
		version = *report.Version
	}

	var b strings.Builder
	fmt.Fprintf(&b, "report on '%s'\n", report.Name)
	fmt.Fprintf(&b, "queries made on %s | version = %s\n", report.URL, version)
	b.WriteString(report.MDReport)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing text report: %w", err)
	}
	s.log.Info("wrote text report", "path", path)
	return nil
}

func (s *FileSink) writeJSON(report RunReport) error {
	path := filepath.Join(s.dir, "report.json")

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding json report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing json report: %w", err)
	}
	s.log.Info("wrote json report", "path", path)
	return nil
}

// writeCSV writes one row per record with the run-constant fields
// (directory, url, name, version) merged into every row, to ease
// comparing runs side by side.
func (s *FileSink) writeCSV(report RunReport, records []types.Record) error {
	path := filepath.Join(s.dir, "report.csv")

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv report: %w", err)
	}
	defer f.Close()

	version := ""
	if report.Version != nil {
		version = *report.Version
	}

	w := csv.NewWriter(f)
	header := append(append([]string{}, types.ReportColumns...), "directory", "url", "name", "version")
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, rec := range records {
		row := make([]string, 0, len(header))
		for _, col := range types.ReportColumns {
			row = append(row, rec.Cell(col))
		}
		row = append(row, s.dir, report.URL, report.Name, version)
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing csv report: %w", err)
	}
	s.log.Info("wrote csv report", "path", path)
	return nil
}
