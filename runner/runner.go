// Package runner drives the geocoder-tester pytest suite once per
// (region, category) pair and aggregates the parsed results.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/google/uuid"

	"github.com/geo-infra/geo-acceptor/parser"
	"github.com/geo-infra/geo-acceptor/registry"
	"github.com/geo-infra/geo-acceptor/types"
)

// DefaultPytestBinary is used when no binary is configured.
const DefaultPytestBinary = "pytest"

// Config carries everything one run needs. URL and Regions may override
// the values from the run configuration.
type Config struct {
	Run          *registry.Config
	URL          string
	Name         string
	Regions      []string
	PytestBinary string
	Log          *slog.Logger
}

// Result aggregates one full run.
type Result struct {
	RunID     string
	OutputDir string
	Version   *string
	Records   []types.Record
	Duration  time.Duration
}

// Runner executes the test categories sequentially and owns the
// run-scoped output directory and record list.
type Runner struct {
	cfg       Config
	parser    *parser.SummaryParser
	runID     string
	outputDir string

	cmdBuilder func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewRunner validates the configuration and creates a runner. A missing
// URL is fatal here, before any work starts.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Run == nil {
		return nil, errors.New("run configuration is required")
	}
	if cfg.URL == "" {
		cfg.URL = cfg.Run.URL
	}
	if cfg.URL == "" {
		return nil, errors.New("no url provided")
	}
	if cfg.Name == "" {
		cfg.Name = "geocoder-tester"
	}
	if len(cfg.Regions) == 0 {
		cfg.Regions = cfg.Run.Regions
	}
	if cfg.PytestBinary == "" {
		cfg.PytestBinary = DefaultPytestBinary
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	return &Runner{
		cfg:        cfg,
		parser:     parser.NewSummaryParser(cfg.Log),
		runID:      uuid.New().String(),
		cmdBuilder: exec.CommandContext,
	}, nil
}

// WithCommandBuilder overrides subprocess construction, for tests.
func (r *Runner) WithCommandBuilder(b func(ctx context.Context, name string, args ...string) *exec.Cmd) *Runner {
	r.cmdBuilder = b
	return r
}

// RunID identifies this run in logs and metrics.
func (r *Runner) RunID() string { return r.runID }

// RunAll executes every (region, category) pair sequentially and returns
// the aggregated records. Individual category failures are data, never
// errors; only environmental problems (such as an uncreatable output
// directory) abort the run.
func (r *Runner) RunAll(ctx context.Context) (*Result, error) {
	outputDir, err := r.ensureOutputDir()
	if err != nil {
		return nil, err
	}

	log := r.cfg.Log
	log.Info("testing geocoder", "name", r.cfg.Name, "url", r.cfg.URL, "run_id", r.runID)

	version := FetchVersion(ctx, r.cfg.URL, log)
	if version != nil {
		log.Info("testing version", "version", *version)
	}

	start := time.Now()
	records := make([]types.Record, 0, len(r.cfg.Regions)*len(r.cfg.Run.Categories))
	for _, region := range r.cfg.Regions {
		for _, category := range r.cfg.Run.Categories {
			log.Info("running tests", "region", region, "category", category.Name)
			records = append(records, r.runCategory(ctx, region, category))
		}
	}

	return &Result{
		RunID:     r.runID,
		OutputDir: outputDir,
		Version:   version,
		Records:   records,
		Duration:  time.Since(start),
	}, nil
}

// runCategory invokes pytest for one (region, category) pair, teeing the
// combined output to a per-category log file and to memory, then extracts
// the summary banner. A non-zero pytest exit is captured as data.
func (r *Runner) runCategory(ctx context.Context, region string, category types.Category) types.Record {
	log := r.cfg.Log

	selector := category.Selector
	if category.RemainingTests {
		selector = RemainingSelector(r.cfg.Run.Categories)
	}

	testName := fmt.Sprintf("%s_%s", region, category.Name)
	testDir := filepath.Join(r.cfg.Run.GeocoderSources, "geocoder_tester", "world", region)
	reportFile := filepath.Join(r.outputDir, testName+"_report.txt")
	xmlReportFile := filepath.Join(r.outputDir, testName+"_report.xml")

	args := []string{
		testDir,
		"--api-url", r.cfg.URL,
		"-k", selector,
		"--loose-compare",
		"--save-report=" + reportFile,
		"--tb=short",
	}
	args = append(args, r.cfg.Run.AdditionalPytestArgs...)
	args = append(args, "--junitxml="+xmlReportFile)

	log.Info("running pytest", "args", args)

	logPath := filepath.Join(r.outputDir, testName+".log")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Error("cannot create category log file", "path", logPath, "error", err)
		return types.Record{Region: region, Category: category.Name}
	}
	defer logFile.Close()

	var buf bytes.Buffer
	out := io.MultiWriter(logFile, &buf)

	cmd := r.cmdBuilder(ctx, r.cfg.PytestBinary, args...)
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		// Failed tests surface through the summary counts; the exit code
		// itself carries no extra information.
		log.Warn("pytest exited with error", "region", region, "category", category.Name, "error", err)
	}

	rec := r.parser.Extract(stripansi.Strip(buf.String()), region, category.Name)
	log.Info("category result",
		"region", rec.Region,
		"category", rec.Category,
		"failed", rec.Failed,
		"total", rec.Total,
		"ratio", rec.Ratio)
	return rec
}

// ensureOutputDir creates the run-scoped output directory once, naming it
// after the run and its start timestamp. Repeated calls within the same
// run reuse the directory.
func (r *Runner) ensureOutputDir() (string, error) {
	if r.outputDir != "" {
		return r.outputDir, nil
	}

	dir := filepath.Join(r.cfg.Run.BaseOutputDir,
		fmt.Sprintf("%s_%s", r.cfg.Name, time.Now().Format("2006-01-02T15:04:05")))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	r.outputDir = dir
	return dir, nil
}
