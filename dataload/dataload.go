// Package dataload imports the geocoder datasets by shelling out to the
// importer binaries (cosmogony, cosmogony2mimir, osm2mimir, bano2mimir,
// openaddresses2mimir, fafnir), either directly on the host or through
// docker compose run when the stack runs in compose mode.
package dataload

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/geo-infra/geo-acceptor/compose"
	"github.com/geo-infra/geo-acceptor/registry"
)

// ImporterService is the compose service hosting the importer binaries.
const ImporterService = "mimir"

// CommandRunner executes an importer binary on the host. Injected so
// tests can capture invocations. dir is the working directory, "" for
// the current one.
type CommandRunner func(ctx context.Context, dir, name string, args ...string) error

func defaultRunner(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Loader runs the dataset import tasks against one configuration.
type Loader struct {
	cfg   *registry.Config
	stack *compose.Client // nil when binaries run directly on the host
	log   *slog.Logger
	run   CommandRunner
}

// NewLoader creates a loader. A non-nil stack routes every binary through
// docker compose run instead of the host.
func NewLoader(cfg *registry.Config, stack *compose.Client, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{cfg: cfg, stack: stack, log: log, run: defaultRunner}
}

// WithRunner overrides host command execution, for tests.
func (l *Loader) WithRunner(run CommandRunner) *Loader {
	l.run = run
	return l
}

// runBinary dispatches one importer invocation to the compose service or
// the host. Binaries without a service (cosmogony, fafnir) always run on
// the host since the importer image does not ship them.
func (l *Loader) runBinary(ctx context.Context, service, dir, bin string, args ...string) error {
	if l.stack != nil && service != "" {
		return l.stack.Run(ctx, service, append([]string{bin}, args...)...)
	}
	l.log.Info("running importer", "bin", bin, "dir", dir)
	return l.run(ctx, dir, bin, args...)
}

// GenerateCosmogony produces the cosmogony file from the configured OSM
// extract and records its path for the subsequent load. The generator
// must run from its own directory to reach its geometry rules.
func (l *Loader) GenerateCosmogony(ctx context.Context) error {
	if !l.cfg.UseCosmogony() {
		return errors.New("no cosmogony section in the admin config")
	}
	cosmo := l.cfg.Admin.Cosmogony
	l.log.Info("generating cosmogony file")

	if err := os.MkdirAll(cosmo.OutputDir, 0o755); err != nil {
		return errors.Wrap(err, "creating cosmogony output dir")
	}

	outFile := filepath.Join(cosmo.OutputDir, "cosmogony.json")
	err := l.runBinary(ctx, "", cosmo.Directory, "cosmogony",
		"--input", l.cfg.OSMFile,
		"--output", outFile,
	)
	if err != nil {
		return errors.Wrap(err, "generating cosmogony")
	}
	cosmo.File = outFile
	return nil
}

// LoadCosmogony imports the generated cosmogony file.
func (l *Loader) LoadCosmogony(ctx context.Context) error {
	if !l.cfg.UseCosmogony() {
		return errors.New("no cosmogony section in the admin config")
	}
	l.log.Info("loading cosmogony")
	return errors.Wrap(l.runBinary(ctx, ImporterService, "", "cosmogony2mimir",
		"--input", l.cfg.Admin.Cosmogony.File,
		"--connection-string", l.cfg.Elasticsearch,
		"--dataset", l.cfg.Dataset,
	), "loading cosmogony")
}

// LoadOSM imports streets from the OSM extract. When admins do not come
// from cosmogony, they are imported here at the configured levels.
func (l *Loader) LoadOSM(ctx context.Context) error {
	l.log.Info("importing data from osm")

	args := []string{
		"--input", l.cfg.OSMFile,
		"--connection-string", l.cfg.Elasticsearch,
		"--dataset", l.cfg.Dataset,
		"--import-way",
	}
	if !l.cfg.UseCosmogony() && l.cfg.Admin != nil && len(l.cfg.Admin.OSMLevels) > 0 {
		args = append(args, "--import-admin")
		for _, lvl := range l.cfg.Admin.OSMLevels {
			args = append(args, "--level", strconv.Itoa(lvl))
		}
	}

	return errors.Wrap(l.runBinary(ctx, ImporterService, "", "osm2mimir", args...), "importing osm")
}

// LoadAddresses imports the configured address sources. An absent
// addresses section means there is nothing to import.
func (l *Loader) LoadAddresses(ctx context.Context) error {
	addr := l.cfg.Addresses
	if addr == nil {
		l.log.Info("no addresses to import")
		return nil
	}

	if addr.BanoFile != "" {
		l.log.Info("importing bano addresses")
		err := l.runBinary(ctx, ImporterService, "", "bano2mimir",
			"--input", addr.BanoFile,
			"--connection-string", l.cfg.Elasticsearch,
			"--dataset", l.cfg.Dataset,
		)
		if err != nil {
			return errors.Wrap(err, "importing bano addresses")
		}
	}
	if addr.OAFile != "" {
		l.log.Info("importing openaddresses addresses")
		err := l.runBinary(ctx, ImporterService, "", "openaddresses2mimir",
			"--input", addr.OAFile,
			"--connection-string", l.cfg.Elasticsearch,
			"--dataset", l.cfg.Dataset,
		)
		if err != nil {
			return errors.Wrap(err, "importing openaddresses addresses")
		}
	}
	return nil
}

// LoadPOIs imports points of interest through fafnir and/or straight from
// OSM. An absent poi section means there is nothing to import.
func (l *Loader) LoadPOIs(ctx context.Context) error {
	poi := l.cfg.POI
	if poi == nil {
		l.log.Info("no poi to import")
		return nil
	}

	if poi.Fafnir != nil {
		if poi.Fafnir.LoadDB {
			l.log.Warn("loading the fafnir postgres database is not supported yet")
		}
		l.log.Info("importing poi with fafnir")
		err := l.runBinary(ctx, "", "", "fafnir",
			"--es", l.cfg.Elasticsearch,
			"--pg", poi.Fafnir.PG,
		)
		if err != nil {
			return errors.Wrap(err, "importing fafnir pois")
		}
	}

	if poi.OSM {
		l.log.Info("importing poi from osm")
		err := l.runBinary(ctx, ImporterService, "", "osm2mimir",
			"--input", l.cfg.OSMFile,
			"--connection-string", l.cfg.Elasticsearch,
			"--dataset", l.cfg.Dataset,
			"--import-poi",
		)
		if err != nil {
			return errors.Wrap(err, "importing osm pois")
		}
	}
	return nil
}

// LoadAll runs the full import sequence: admins (generating the cosmogony
// file first when none is configured), then streets, addresses and POIs.
func (l *Loader) LoadAll(ctx context.Context) error {
	if l.cfg.UseCosmogony() {
		l.log.Info("using cosmogony")
		if l.cfg.Admin.Cosmogony.File == "" {
			if err := l.GenerateCosmogony(ctx); err != nil {
				return err
			}
		}
		if err := l.LoadCosmogony(ctx); err != nil {
			return err
		}
	}

	if err := l.LoadOSM(ctx); err != nil {
		return err
	}
	if err := l.LoadAddresses(ctx); err != nil {
		return err
	}
	return l.LoadPOIs(ctx)
}
