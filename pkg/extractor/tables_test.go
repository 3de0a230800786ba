package extractor_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/esgx/internal/models"
	"github.com/xhad/esgx/pkg/extractor"
)

func pageWith(lines ...string) *models.Extraction {
	return &models.Extraction{
		Pages: []models.Page{{Number: 1, Lines: lines}},
	}
}

func TestExtractor_Tables(t *testing.T) {
	e := extractor.NewWithConfig(extractor.ExtractorConfig{})

	ex := pageWith(
		"Greenhouse gas emissions",
		"Category  2023  2022  2021",
		"Scope 1  1,240  1,180  1,322",
		"Scope 2 (location)  890  934  1,002",
		"Scope 2 (market)  410  488  515",
		"Targets are described in the appendix.",
	)

	tables := e.Tables(ex)
	require.Len(t, tables, 1)

	table := tables[0]
	assert.Equal(t, 1, table.Page)
	assert.Equal(t, 1, table.Index)
	assert.Equal(t, []string{"Category", "2023", "2022", "2021"}, table.Header)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []string{"Scope 1", "1,240", "1,180", "1,322"}, table.Rows[0])
}

func TestExtractor_TablesSkipsProse(t *testing.T) {
	e := extractor.NewWithConfig(extractor.ExtractorConfig{})

	// Aligned but nearly digit-free blocks are prose columns, not tables.
	ex := pageWith(
		"our mission  our people  our planet",
		"community  wellbeing  stewardship",
		"integrity  inclusion  resilience",
	)

	assert.Empty(t, e.Tables(ex))
}

func TestExtractor_TablesTooSmall(t *testing.T) {
	e := extractor.NewWithConfig(extractor.ExtractorConfig{})

	// A single aligned row is not a table.
	ex := pageWith("Scope 1  1,240  1,180  1,322")
	assert.Empty(t, e.Tables(ex))
}

func TestExtractor_TablesMultipleBlocks(t *testing.T) {
	e := extractor.NewWithConfig(extractor.ExtractorConfig{})

	ex := pageWith(
		"Energy  2023  2022",           // 3 cols
		"Electricity  120 GWh  131 GWh",
		"Gas  45 GWh  48 GWh",
		"narrative text between tables",
		"Water  2023  2022",
		"Withdrawn  1,400 ML  1,512 ML",
		"Discharged  1,100 ML  1,193 ML",
	)

	tables := e.Tables(ex)
	require.Len(t, tables, 2)
	assert.Equal(t, 1, tables[0].Index)
	assert.Equal(t, 2, tables[1].Index)
	assert.Equal(t, []string{"Water", "2023", "2022"}, tables[1].Header)
}

func TestExtractor_ExtractRejectsGarbage(t *testing.T) {
	e := extractor.NewWithConfig(extractor.ExtractorConfig{})

	tmp := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(tmp, []byte("this is not a pdf"), 0644))

	_, err := e.Extract(tmp)
	assert.Error(t, err)
}

func TestExtractor_ExtractMissingFile(t *testing.T) {
	e := extractor.NewWithConfig(extractor.ExtractorConfig{})
	_, err := e.Extract(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}
