package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/esgx/internal/models"
)

type fakeRecognizer struct {
	texts map[string]string
	fails map[string]bool
	calls []string
}

func (f *fakeRecognizer) TextFromFile(path string) (string, error) {
	name := filepath.Base(path)
	f.calls = append(f.calls, name)
	if f.fails[name] {
		return "", fmt.Errorf("unreadable image")
	}
	return f.texts[name], nil
}

func writeSidecarDir(t *testing.T, dir, stem string, names []string) string {
	t.Helper()
	pagesDir := filepath.Join(dir, stem+"_pages")
	require.NoError(t, os.MkdirAll(pagesDir, 0o755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(pagesDir, name), []byte("img"), 0o644))
	}
	return pagesDir
}

func TestSidecarImages(t *testing.T) {
	dir := t.TempDir()
	writeSidecarDir(t, dir, "scan", []string{"page_2.png", "page_1.jpg", "readme.md", "page_3.TIF"})

	images, err := sidecarImages(filepath.Join(dir, "scan.pdf"))
	require.NoError(t, err)

	// Non-image files skipped, result sorted by name
	assert.Equal(t, []string{
		filepath.Join(dir, "scan_pages", "page_1.jpg"),
		filepath.Join(dir, "scan_pages", "page_2.png"),
		filepath.Join(dir, "scan_pages", "page_3.TIF"),
	}, images)
}

func TestSidecarImagesMissingDir(t *testing.T) {
	dir := t.TempDir()
	_, err := sidecarImages(filepath.Join(dir, "missing.pdf"))
	assert.Error(t, err)
}

func TestRecogniseEmptyPages(t *testing.T) {
	dir := t.TempDir()
	writeSidecarDir(t, dir, "report", []string{"page_1.png", "page_2.png", "page_3.png"})

	rec := &fakeRecognizer{
		texts: map[string]string{
			"page_2.png": "Scope 1 emissions: 1,234 tCO2e\n",
		},
		fails: map[string]bool{
			"page_3.png": true,
		},
	}
	e := NewWithConfig(ExtractorConfig{OCR: rec})

	pages := []models.Page{
		{Number: 1, Text: "Introduction", Lines: []string{"Introduction"}},
		{Number: 2, Text: ""},
		{Number: 3, Text: ""},
	}

	n := e.recogniseEmptyPages(filepath.Join(dir, "report.pdf"), pages)

	// A failing image is logged and skipped, not fatal
	assert.Equal(t, 1, n)
	assert.Equal(t, "Introduction", pages[0].Text)
	assert.Equal(t, "Scope 1 emissions: 1,234 tCO2e", pages[1].Text)
	assert.Equal(t, []string{"Scope 1 emissions: 1,234 tCO2e"}, pages[1].Lines)
	assert.Equal(t, "", pages[2].Text)

	// Only the empty pages hit the recogniser, matched to images by order
	assert.Equal(t, []string{"page_2.png", "page_3.png"}, rec.calls)
}

func TestRecogniseEmptyPagesNoEmptyPages(t *testing.T) {
	rec := &fakeRecognizer{}
	e := NewWithConfig(ExtractorConfig{OCR: rec})

	pages := []models.Page{
		{Number: 1, Text: "All good", Lines: []string{"All good"}},
	}

	// No sidecar dir exists; with nothing to recognise it is never needed
	n := e.recogniseEmptyPages(filepath.Join(t.TempDir(), "report.pdf"), pages)
	assert.Equal(t, 0, n)
	assert.Empty(t, rec.calls)
}

func TestRecogniseEmptyPagesMissingImage(t *testing.T) {
	dir := t.TempDir()
	writeSidecarDir(t, dir, "short", []string{"page_1.png"})

	rec := &fakeRecognizer{texts: map[string]string{"page_1.png": "cover"}}
	e := NewWithConfig(ExtractorConfig{OCR: rec})

	pages := []models.Page{
		{Number: 1, Text: ""},
		{Number: 5, Text: ""},
	}

	// Page 5 has no matching image and is left empty
	n := e.recogniseEmptyPages(filepath.Join(dir, "short.pdf"), pages)
	assert.Equal(t, 1, n)
	assert.Equal(t, "cover", pages[0].Text)
	assert.Equal(t, "", pages[1].Text)
}
