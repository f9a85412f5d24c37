package parser

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
}

func TestIsBanner(t *testing.T) {
	tests := []struct {
		name string
		line string
		want bool
	}{
		{name: "results banner", line: "========= 1 failed, 1 passed in 1 seconds ======", want: true},
		{name: "progress banner", line: "=== RUN something ===", want: true},
		{name: "minimal banner", line: "=== x ===", want: true},
		{name: "plain text", line: "collected 42 items", want: false},
		{name: "empty line", line: "", want: false},
		{name: "too few equals", line: "== 1 passed in 1 seconds ==", want: false},
		{name: "missing closing run", line: "===== 1 passed in 1 seconds", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBanner(tt.line))
		})
	}
}

func TestSummaryParser_Parse(t *testing.T) {
	p := NewSummaryParser(testLogger())

	tests := []struct {
		name string
		line string
		want Summary
	}{
		{
			name: "failed and passed",
			line: "========= 1 failed, 1 passed in 1 seconds ======",
			want: Summary{Failed: 1, Total: 2, Duration: "0:00:01", Ratio: "50%"},
		},
		{
			name: "only failed",
			line: "========= 1 failed in 1 seconds ======",
			want: Summary{Failed: 1, Total: 1, Duration: "0:00:01", Ratio: "0%"},
		},
		{
			name: "only passed",
			line: "========= 1 passed in 1 seconds ======",
			want: Summary{Failed: 0, Total: 1, Duration: "0:00:01", Ratio: "100%"},
		},
		{
			name: "no tests ran",
			line: "========= no tests ran in 1 seconds ======",
			want: Summary{Failed: 0, Total: 0, Duration: "0:00:01", Ratio: "0%"},
		},
		{
			name: "all deselected",
			line: "========= 1 deselected in 1 seconds ======",
			want: Summary{Failed: 0, Total: 0, Duration: "0:00:01", Ratio: "0%"},
		},
		{
			name: "large counts",
			line: "===== 3 failed, 117 passed in 3661 seconds =====",
			want: Summary{Failed: 3, Total: 120, Duration: "1:01:01", Ratio: "98%"},
		},
		{
			name: "fractional seconds round",
			line: "===== 2 passed in 0.74 seconds =====",
			want: Summary{Failed: 0, Total: 2, Duration: "0:00:01", Ratio: "100%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.Parse(tt.line)
			require.True(t, ok, "line should parse: %s", tt.line)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSummaryParser_Parse_InvariantTotal(t *testing.T) {
	p := NewSummaryParser(testLogger())

	got, ok := p.Parse("===== 7 failed, 13 passed in 42 seconds =====")
	require.True(t, ok)
	assert.Equal(t, 20, got.Total, "total must be failed + passed")
	assert.Equal(t, "65%", got.Ratio)
}

func TestSummaryParser_Parse_Unparseable(t *testing.T) {
	p := NewSummaryParser(testLogger())

	tests := []struct {
		name string
		line string
	}{
		{name: "not a banner", line: "collected 12 items"},
		{name: "banner without seconds clause", line: "===== test session starts ====="},
		{name: "empty line", line: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.Parse(tt.line)
			assert.False(t, ok)
			assert.Equal(t, Summary{}, got, "failed parse must yield an empty result")
		})
	}
}

func TestSummaryParser_Parse_UnparseableSeconds(t *testing.T) {
	p := NewSummaryParser(testLogger())

	// The counts survive even when the elapsed value is garbage.
	got, ok := p.Parse("===== 1 passed in forever seconds =====")
	require.True(t, ok)
	assert.Equal(t, 1, got.Total)
	assert.Equal(t, "100%", got.Ratio)
	assert.Empty(t, got.Duration)
}

func TestSummaryParser_Extract_LastBannerWins(t *testing.T) {
	p := NewSummaryParser(testLogger())

	output := strings.Join([]string{
		"===== test session starts =====",
		"collected 3 items",
		"===== 3 passed in 1 seconds =====",
		"some trailing rerun output",
		"===== 1 failed, 2 passed in 2 seconds =====",
		"",
	}, "\n")

	rec := p.Extract(output, "france", "addresses")
	require.True(t, rec.Parsed)
	assert.Equal(t, "france", rec.Region)
	assert.Equal(t, "addresses", rec.Category)
	assert.Equal(t, 1, rec.Failed)
	assert.Equal(t, 3, rec.Total)
	assert.Equal(t, "67%", rec.Ratio)
	assert.Equal(t, "0:00:02", rec.Duration)
}

func TestSummaryParser_Extract_NoBanner(t *testing.T) {
	p := NewSummaryParser(testLogger())

	rec := p.Extract("pytest crashed before printing anything useful\n", "germany", "pois")
	assert.False(t, rec.Parsed, "record without a banner is degraded, not an error")
	assert.Equal(t, "germany", rec.Region)
	assert.Equal(t, "pois", rec.Category)
	assert.Empty(t, rec.Cell("failed"))
	assert.Empty(t, rec.Cell("duration"))
}

func TestSummaryParser_Extract_StopsAtFirstMatchFromEnd(t *testing.T) {
	p := NewSummaryParser(testLogger())

	// The banner closest to the end is unparseable; extraction must not
	// continue scanning to the earlier, parseable one.
	output := strings.Join([]string{
		"===== 3 passed in 1 seconds =====",
		"===== warnings summary =====",
	}, "\n")

	rec := p.Extract(output, "france", "misc")
	assert.False(t, rec.Parsed)
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "0", want: "0:00:00"},
		{in: "59", want: "0:00:59"},
		{in: "60", want: "0:01:00"},
		{in: "3599.4", want: "0:59:59"},
		{in: "3600", want: "1:00:00"},
		{in: "86400", want: "24:00:00"},
		{in: "not-a-number", want: ""},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatElapsed(tt.in), "elapsed %q", tt.in)
	}
}
