package runner

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geo-infra/geo-acceptor/registry"
	"github.com/geo-infra/geo-acceptor/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
}

func testRunConfig(t *testing.T) *registry.Config {
	t.Helper()
	return &registry.Config{
		URL:           "http://geo.local/search",
		Regions:       []string{"france"},
		BaseOutputDir: t.TempDir(),
		Categories: []types.Category{
			{Name: "addresses", Selector: "addr"},
			{Name: "misc", RemainingTests: true},
		},
	}
}

func TestNewRunner_RequiresURL(t *testing.T) {
	cfg := testRunConfig(t)
	cfg.URL = ""

	_, err := NewRunner(Config{Run: cfg, Log: testLogger()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no url")
}

func TestNewRunner_RequiresRunConfig(t *testing.T) {
	_, err := NewRunner(Config{Log: testLogger()})
	require.Error(t, err)
}

func TestNewRunner_Defaults(t *testing.T) {
	r, err := NewRunner(Config{Run: testRunConfig(t), Log: testLogger()})
	require.NoError(t, err)

	assert.Equal(t, "geocoder-tester", r.cfg.Name)
	assert.Equal(t, DefaultPytestBinary, r.cfg.PytestBinary)
	assert.Equal(t, []string{"france"}, r.cfg.Regions)
	assert.NotEmpty(t, r.RunID())
}

// fakePytest returns a command builder that ignores the real binary and
// prints the given script's output instead, recording every invocation.
func fakePytest(script string, calls *[][]string) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		*calls = append(*calls, append([]string{name}, args...))
		return exec.CommandContext(ctx, "sh", "-c", script)
	}
}

func TestRunner_RunAll(t *testing.T) {
	runCfg := testRunConfig(t)
	r, err := NewRunner(Config{Run: runCfg, Name: "nightly", Log: testLogger()})
	require.NoError(t, err)

	var calls [][]string
	r.WithCommandBuilder(fakePytest(`printf 'collected 3 items\n===== 1 failed, 2 passed in 3 seconds =====\n'; exit 1`, &calls))

	result, err := r.RunAll(context.Background())
	require.NoError(t, err, "category failures must not fail the run")

	require.Len(t, result.Records, 2, "one record per (region, category)")
	for _, rec := range result.Records {
		assert.Equal(t, "france", rec.Region)
		require.True(t, rec.Parsed)
		assert.Equal(t, 1, rec.Failed)
		assert.Equal(t, 3, rec.Total)
		assert.Equal(t, "67%", rec.Ratio)
		assert.Equal(t, "0:00:03", rec.Duration)
	}

	// Each category got its own pytest invocation with its selector.
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0], "addr")
	assert.Contains(t, calls[1], "not addr")

	// Combined output landed in one log file per category.
	for _, name := range []string{"france_addresses.log", "france_misc.log"} {
		data, err := os.ReadFile(filepath.Join(result.OutputDir, name))
		require.NoError(t, err)
		assert.Contains(t, string(data), "1 failed, 2 passed")
	}
}

func TestRunner_RunAll_NoBannerIsDegraded(t *testing.T) {
	r, err := NewRunner(Config{Run: testRunConfig(t), Log: testLogger()})
	require.NoError(t, err)

	var calls [][]string
	r.WithCommandBuilder(fakePytest(`printf 'boom\n'; exit 2`, &calls))

	result, err := r.RunAll(context.Background())
	require.NoError(t, err)

	for _, rec := range result.Records {
		assert.False(t, rec.Parsed)
		assert.NotEmpty(t, rec.Region)
		assert.NotEmpty(t, rec.Category)
	}
}

func TestRunner_RunAll_StripsANSI(t *testing.T) {
	r, err := NewRunner(Config{Run: testRunConfig(t), Log: testLogger()})
	require.NoError(t, err)

	var calls [][]string
	r.WithCommandBuilder(fakePytest(`printf '\033[32m===== 4 passed in 2 seconds =====\033[0m\n'`, &calls))

	result, err := r.RunAll(context.Background())
	require.NoError(t, err)

	require.True(t, result.Records[0].Parsed, "colored banner must still parse")
	assert.Equal(t, 4, result.Records[0].Total)
}

func TestRunner_PytestArgs(t *testing.T) {
	runCfg := testRunConfig(t)
	runCfg.GeocoderSources = "/opt/geocoder-tester"
	runCfg.AdditionalPytestArgs = []string{"-x"}

	r, err := NewRunner(Config{Run: runCfg, URL: "http://other/search", Log: testLogger()})
	require.NoError(t, err)

	var calls [][]string
	r.WithCommandBuilder(fakePytest(`printf '===== 1 passed in 1 seconds =====\n'`, &calls))

	_, err = r.RunAll(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, calls)

	args := calls[0]
	assert.Equal(t, DefaultPytestBinary, args[0])
	assert.Contains(t, args, filepath.Join("/opt/geocoder-tester", "geocoder_tester", "world", "france"))
	assert.Contains(t, args, "--api-url")
	assert.Contains(t, args, "http://other/search")
	assert.Contains(t, args, "--loose-compare")
	assert.Contains(t, args, "--tb=short")
	assert.Contains(t, args, "-x")

	var hasSave, hasJUnit bool
	for _, a := range args {
		if strings.HasPrefix(a, "--save-report=") && strings.HasSuffix(a, "france_addresses_report.txt") {
			hasSave = true
		}
		if strings.HasPrefix(a, "--junitxml=") && strings.HasSuffix(a, "france_addresses_report.xml") {
			hasJUnit = true
		}
	}
	assert.True(t, hasSave, "per-category text report path")
	assert.True(t, hasJUnit, "per-category junit report path")
}

func TestRunner_EnsureOutputDirIsIdempotent(t *testing.T) {
	r, err := NewRunner(Config{Run: testRunConfig(t), Name: "nightly", Log: testLogger()})
	require.NoError(t, err)

	first, err := r.ensureOutputDir()
	require.NoError(t, err)
	second, err := r.ensureOutputDir()
	require.NoError(t, err)

	assert.Equal(t, first, second, "the run directory is created once per run")
	assert.Contains(t, filepath.Base(first), "nightly_")

	info, err := os.Stat(first)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
