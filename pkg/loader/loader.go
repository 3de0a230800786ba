package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xhad/esgx/internal/models"
)

type LoaderConfig struct {
	PDFDir string
}

type Loader struct {
	config LoaderConfig
}

func NewWithConfig(config LoaderConfig) Loader {
	if config.PDFDir == "" {
		config.PDFDir = filepath.Join("data", "pdfs")
	}

	return Loader{
		config: config,
	}
}

// List returns every PDF report under the configured directory, sorted by
// name. Subdirectories and non-PDF files are skipped.
func (l *Loader) List() ([]models.Report, error) {
	entries, err := os.ReadDir(l.config.PDFDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf directory %s: %w", l.config.PDFDir, err)
	}

	var reports []models.Report
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.ToLower(filepath.Ext(e.Name())) != ".pdf" {
			continue
		}

		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", e.Name(), err)
		}

		reports = append(reports, models.Report{
			Path:    filepath.Join(l.config.PDFDir, e.Name()),
			Name:    e.Name(),
			Stem:    SafeStem(e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Name < reports[j].Name
	})

	return reports, nil
}

// SafeStem strips the extension and replaces characters that are awkward in
// output filenames.
func SafeStem(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	stem = strings.ReplaceAll(stem, " ", "_")
	stem = strings.ReplaceAll(stem, ":", "_")
	return stem
}
