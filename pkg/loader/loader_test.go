package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/esgx/pkg/loader"
)

func TestLoader_List(t *testing.T) {
	tmpDir := t.TempDir()

	files := []string{
		"RBC 2024 report.pdf",
		"acme-2023.PDF",
		"notes.txt",
		"zeta.pdf",
	}
	for _, name := range files {
		err := os.WriteFile(filepath.Join(tmpDir, name), []byte("%PDF-1.4"), 0644)
		require.NoError(t, err)
	}
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, "nested.pdf"), 0755))

	l := loader.NewWithConfig(loader.LoaderConfig{PDFDir: tmpDir})
	reports, err := l.List()
	require.NoError(t, err)

	// txt file and directory excluded, extension match case-insensitive
	require.Len(t, reports, 3)
	assert.Equal(t, "RBC 2024 report.pdf", reports[0].Name)
	assert.Equal(t, "acme-2023.PDF", reports[1].Name)
	assert.Equal(t, "zeta.pdf", reports[2].Name)

	assert.Equal(t, "RBC_2024_report", reports[0].Stem)
	assert.Equal(t, filepath.Join(tmpDir, "zeta.pdf"), reports[2].Path)
	assert.Equal(t, int64(8), reports[0].Size)
}

func TestLoader_ListEmpty(t *testing.T) {
	l := loader.NewWithConfig(loader.LoaderConfig{PDFDir: t.TempDir()})
	reports, err := l.List()
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestLoader_ListMissingDir(t *testing.T) {
	l := loader.NewWithConfig(loader.LoaderConfig{PDFDir: filepath.Join(t.TempDir(), "missing")})
	_, err := l.List()
	assert.Error(t, err)
}

func TestSafeStem(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"RBC-2024-sustainability-report.pdf", "RBC-2024-sustainability-report"},
		{"annual report 2023.pdf", "annual_report_2023"},
		{"q1:draft.pdf", "q1_draft"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, loader.SafeStem(tt.name))
	}
}
