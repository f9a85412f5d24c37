// Package acceptor wires the import-and-test pipeline: compose stack
// lifecycle, dataset imports, test runs and report generation.
package acceptor

import (
	"context"
	"errors"
	"fmt"

	"github.com/geo-infra/geo-acceptor/compose"
	"github.com/geo-infra/geo-acceptor/dataload"
	"github.com/geo-infra/geo-acceptor/metrics"
	"github.com/geo-infra/geo-acceptor/reporting"
	"github.com/geo-infra/geo-acceptor/runner"
)

// Pipeline executes the geo-acceptor tasks against one configuration.
type Pipeline struct {
	cfg   *Config
	stack *compose.Client
}

// New creates a pipeline from a validated configuration.
func New(cfg *Config) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	return &Pipeline{
		cfg:   cfg,
		stack: compose.NewClient(cfg.ComposeFiles, cfg.Log),
	}, nil
}

// ComposeUp starts the geocoder stack and blocks until its search backend
// answers. Readiness exhaustion is fatal: nothing downstream can work
// without the backend.
func (p *Pipeline) ComposeUp(ctx context.Context) error {
	p.cfg.DockerCompose = true

	if err := compose.VerifyDaemon(ctx, p.cfg.Log); err != nil {
		return NewRuntimeError(err)
	}
	if err := p.stack.Up(ctx); err != nil {
		return NewRuntimeError(err)
	}

	p.cfg.Log.Info("waiting for elasticsearch", "endpoint", p.cfg.Run.Elasticsearch)
	err := compose.WaitForService(ctx, p.cfg.Log,
		compose.HTTPProbe(p.cfg.Run.Elasticsearch),
		compose.DefaultWaitInterval, compose.DefaultMaxWait)
	if err != nil {
		return NewRuntimeError(err)
	}
	return nil
}

// ComposeDown stops the geocoder stack.
func (p *Pipeline) ComposeDown(ctx context.Context) error {
	if err := p.stack.Down(ctx); err != nil {
		return NewRuntimeError(err)
	}
	return nil
}

// loader builds the dataset loader for the current mode.
func (p *Pipeline) loader() *dataload.Loader {
	stack := p.stack
	if !p.cfg.DockerCompose {
		stack = nil
	}
	return dataload.NewLoader(p.cfg.Run, stack, p.cfg.Log)
}

// GenerateCosmogony produces the cosmogony file from the OSM extract.
func (p *Pipeline) GenerateCosmogony(ctx context.Context) error {
	return p.loader().GenerateCosmogony(ctx)
}

// LoadCosmogony imports the cosmogony file into the geocoder.
func (p *Pipeline) LoadCosmogony(ctx context.Context) error {
	return p.loader().LoadCosmogony(ctx)
}

// LoadOSM imports streets (and admins when not using cosmogony).
func (p *Pipeline) LoadOSM(ctx context.Context) error {
	return p.loader().LoadOSM(ctx)
}

// LoadAddresses imports the configured address sources.
func (p *Pipeline) LoadAddresses(ctx context.Context) error {
	return p.loader().LoadAddresses(ctx)
}

// LoadPOIs imports points of interest.
func (p *Pipeline) LoadPOIs(ctx context.Context) error {
	return p.loader().LoadPOIs(ctx)
}

// LoadAll runs the complete import sequence.
func (p *Pipeline) LoadAll(ctx context.Context) error {
	return p.loader().LoadAll(ctx)
}

// Test runs every (region, category) pair against the geocoder and writes
// the run reports. It requires compose mode: the stack under test must be
// managed by this pipeline. Category failures never fail the task; they
// are recorded in the reports.
func (p *Pipeline) Test(ctx context.Context) error {
	if !p.cfg.DockerCompose {
		return NewRuntimeError(errors.New("tests can only run in docker compose mode"))
	}
	if err := compose.VerifyDaemon(ctx, p.cfg.Log); err != nil {
		return NewRuntimeError(err)
	}

	r, err := runner.NewRunner(runner.Config{
		Run:          p.cfg.Run,
		URL:          p.cfg.URL,
		Name:         p.cfg.Name,
		Regions:      p.cfg.Regions,
		PytestBinary: p.cfg.PytestBinary,
		Log:          p.cfg.Log,
	})
	if err != nil {
		return NewRuntimeError(err)
	}

	result, err := r.RunAll(ctx)
	if err != nil {
		return NewRuntimeError(err)
	}

	url := p.cfg.URL
	if url == "" {
		url = p.cfg.Run.URL
	}

	sink := reporting.NewFileSink(result.OutputDir, p.cfg.Log)
	report, err := sink.Write(p.cfg.Name, url, result.Version, result.Records)
	if err != nil {
		return NewRuntimeError(fmt.Errorf("writing reports: %w", err))
	}
	p.cfg.Log.Info("run reports written", "dir", result.OutputDir)

	formatter := NewConsoleResultFormatter(p.cfg.Log)
	formatter.FormatResults(result)
	fmt.Println(report.MDReport)

	for _, rec := range result.Records {
		metrics.RecordResult(p.cfg.Name, result.RunID, rec)
	}
	metrics.RecordRunDuration(p.cfg.Name, result.RunID, result.Duration)
	if p.cfg.MetricsPushURL != "" {
		if err := metrics.Push(p.cfg.MetricsPushURL, result.RunID, p.cfg.Log); err != nil {
			p.cfg.Log.Warn("failed to push metrics", "error", err)
			metrics.RecordErrorDetails("metrics push failed", err)
		}
	}
	return nil
}

// Check runs the whole sequence: stack up, full import, tests, stack
// down. The stack is stopped even when the import or the tests error.
func (p *Pipeline) Check(ctx context.Context) error {
	if err := p.ComposeUp(ctx); err != nil {
		return err
	}
	defer func() {
		if err := p.ComposeDown(ctx); err != nil {
			p.cfg.Log.Error("failed to stop compose stack", "error", err)
		}
	}()

	if err := p.LoadAll(ctx); err != nil {
		return err
	}
	return p.Test(ctx)
}
