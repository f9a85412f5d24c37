package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordCell(t *testing.T) {
	parsed := Record{
		Region:   "france",
		Category: "addresses",
		Parsed:   true,
		Failed:   0,
		Total:    250,
		Ratio:    "100%",
		Duration: "0:01:31",
	}

	for column, want := range map[string]string{
		"region":   "france",
		"category": "addresses",
		"failed":   "0",
		"total":    "250",
		"ratio":    "100%",
		"duration": "0:01:31",
	} {
		assert.Equal(t, want, parsed.Cell(column), column)
	}
	assert.Equal(t, "", parsed.Cell("unknown"))
}

func TestRecordCellDegraded(t *testing.T) {
	degraded := Record{Region: "germany", Category: "misc"}

	assert.Equal(t, "germany", degraded.Cell("region"))
	assert.Equal(t, "misc", degraded.Cell("category"))
	for _, column := range []string{"failed", "total", "ratio", "duration"} {
		assert.Equal(t, "", degraded.Cell(column), column)
	}
}
