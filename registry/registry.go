// Package registry loads and validates the YAML run configuration: the
// geocoder under test, the regions and categories to exercise, and the
// connection parameters of each dataset importer.
package registry

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/geo-infra/geo-acceptor/types"
)

// CosmogonyConfig locates the cosmogony generator and its artifacts.
type CosmogonyConfig struct {
	Directory string `yaml:"directory"`
	OutputDir string `yaml:"output_dir"`
	File      string `yaml:"file,omitempty"`
}

// AdminConfig selects how administrative regions are imported: through a
// cosmogony file when present, or straight from OSM at the given levels.
type AdminConfig struct {
	Cosmogony *CosmogonyConfig `yaml:"cosmogony,omitempty"`
	OSMLevels []int            `yaml:"osm_levels,omitempty"`
}

// AddressesConfig lists the address source files to import. Both fields
// are optional; an absent config means no addresses are imported.
type AddressesConfig struct {
	BanoFile string `yaml:"bano_file,omitempty"`
	OAFile   string `yaml:"oa_file,omitempty"`
}

// FafnirConfig holds the POI database connection for the fafnir importer.
type FafnirConfig struct {
	PG     string `yaml:"pg"`
	LoadDB bool   `yaml:"load_db,omitempty"`
}

// POIConfig selects the POI import sources.
type POIConfig struct {
	Fafnir *FafnirConfig `yaml:"fafnir,omitempty"`
	OSM    bool          `yaml:"osm,omitempty"`
}

// Config is the structured run configuration. Optional sections are
// pointers so presence can be tested by defined-ness.
type Config struct {
	URL           string           `yaml:"url"`
	Regions       []string         `yaml:"regions"`
	Categories    []types.Category `yaml:"categories"`
	BaseOutputDir string           `yaml:"base_output_dir"`

	// Path to the geocoder-tester checkout holding the per-region test
	// directories.
	GeocoderSources      string   `yaml:"geocoder_sources"`
	AdditionalPytestArgs []string `yaml:"additional_pytest_args,omitempty"`

	// Elasticsearch connection string and target dataset for imports.
	Elasticsearch string `yaml:"es"`
	Dataset       string `yaml:"dataset"`
	OSMFile       string `yaml:"osm_file"`

	Admin     *AdminConfig     `yaml:"admin,omitempty"`
	Addresses *AddressesConfig `yaml:"addresses,omitempty"`
	POI       *POIConfig       `yaml:"poi,omitempty"`
}

// Load reads and validates the run configuration at path.
func Load(path string, log *slog.Logger) (*Config, error) {
	if log == nil {
		log = slog.Default()
	}
	log.Debug("reading run config", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.BaseOutputDir == "" {
		cfg.BaseOutputDir = "results"
	}

	log.Debug("run config loaded",
		"regions", len(cfg.Regions),
		"categories", len(cfg.Categories))
	return &cfg, nil
}

// Validate checks the structural constraints that later stages rely on.
// The URL itself is checked at run time because the CLI may override it.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Categories))
	remaining := 0
	for _, cat := range c.Categories {
		if cat.Name == "" {
			return fmt.Errorf("category without a name")
		}
		if seen[cat.Name] {
			return fmt.Errorf("duplicate category %q", cat.Name)
		}
		seen[cat.Name] = true

		if cat.RemainingTests {
			remaining++
			if cat.Selector != "" {
				return fmt.Errorf("category %q declares both a selector and remaining_tests", cat.Name)
			}
		} else if cat.Selector == "" {
			return fmt.Errorf("category %q has no selector and is not a remaining_tests category", cat.Name)
		}
	}
	if remaining > 1 {
		return fmt.Errorf("at most one remaining_tests category is allowed, found %d", remaining)
	}
	return nil
}

// UseCosmogony reports whether administrative regions come from a
// cosmogony file rather than straight from OSM.
func (c *Config) UseCosmogony() bool {
	return c.Admin != nil && c.Admin.Cosmogony != nil
}
