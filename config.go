package acceptor

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/geo-infra/geo-acceptor/flags"
	"github.com/geo-infra/geo-acceptor/registry"
)

// Config holds the application configuration for one invocation.
type Config struct {
	Run *registry.Config // parsed run configuration file

	URL            string   // geocoder endpoint override
	Name           string   // run name, used for reports and output dirs
	Regions        []string // region override, empty means "use run config"
	PytestBinary   string
	DockerCompose  bool     // route importer binaries through compose
	ComposeFiles   []string // auxiliary compose files
	MetricsPushURL string   // optional push gateway

	Log *slog.Logger
}

// NewConfig creates a new Config from cli context. The run configuration
// file is loaded and validated here so every task starts from a checked
// state.
func NewConfig(ctx *cli.Context, log *slog.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	runCfg, err := registry.Load(ctx.String(flags.RunConfig.Name), log)
	if err != nil {
		return nil, fmt.Errorf("failed to load run config: %w", err)
	}

	var regions []string
	if raw := ctx.String(flags.Regions.Name); raw != "" {
		for _, r := range strings.Split(raw, ",") {
			if r = strings.TrimSpace(r); r != "" {
				regions = append(regions, r)
			}
		}
	}

	return &Config{
		Run:            runCfg,
		URL:            ctx.String(flags.URL.Name),
		Name:           ctx.String(flags.Name.Name),
		Regions:        regions,
		PytestBinary:   ctx.String(flags.PytestBinary.Name),
		DockerCompose:  ctx.Bool(flags.DockerCompose.Name),
		ComposeFiles:   ctx.StringSlice(flags.Files.Name),
		MetricsPushURL: ctx.String(flags.MetricsPushURL.Name),
		Log:            log,
	}, nil
}
