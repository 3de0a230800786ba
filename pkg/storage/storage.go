package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xhad/esgx/internal/models"
)

type StorageConfig struct {
	ExtractedDir string
	CleanedDir   string
	OutputDir    string
	LogsDir      string
}

// Storage writes every pipeline artifact to the data directories: raw and
// cleaned text, table CSVs, the scope summary, mapped metric documents and
// the per-run log.
type Storage struct {
	config StorageConfig
}

func NewWithConfig(config StorageConfig) (*Storage, error) {
	if config.ExtractedDir == "" {
		config.ExtractedDir = filepath.Join("data", "extracted")
	}
	if config.CleanedDir == "" {
		config.CleanedDir = filepath.Join("data", "cleaned")
	}
	if config.OutputDir == "" {
		config.OutputDir = filepath.Join("data", "output")
	}
	if config.LogsDir == "" {
		config.LogsDir = filepath.Join("data", "logs")
	}

	for _, dir := range []string{config.ExtractedDir, config.CleanedDir, config.OutputDir, config.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	return &Storage{
		config: config,
	}, nil
}

// Timestamp returns a filename-safe timestamp.
func Timestamp() string {
	return time.Now().Format("2006-01-02_15-04-05")
}

// SaveRawText writes the raw extracted text plus a metadata JSON next to
// it. A nil extraction still produces an empty placeholder JSON so later
// stages can rely on the file existing.
func (s *Storage) SaveRawText(stem, text string, ex *models.Extraction) (string, error) {
	txtPath := filepath.Join(s.config.ExtractedDir, stem+".txt")
	metaPath := filepath.Join(s.config.ExtractedDir, stem+".json")

	if err := os.WriteFile(txtPath, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("failed to write raw text: %w", err)
	}

	meta := []byte("{}")
	if ex != nil {
		b, err := json.MarshalIndent(ex, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode metadata: %w", err)
		}
		meta = b
	}
	if err := os.WriteFile(metaPath, meta, 0o644); err != nil {
		return "", fmt.Errorf("failed to write metadata: %w", err)
	}

	return txtPath, nil
}

// SaveCleanText writes the cleaned text for downstream parsing.
func (s *Storage) SaveCleanText(stem, text string) (string, error) {
	path := filepath.Join(s.config.CleanedDir, stem+".txt")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("failed to write clean text: %w", err)
	}
	return path, nil
}

// SaveTables writes one CSV per detected table under
// <output>/<stem>/tables/table_p<page>_<idx>.csv and returns the count.
func (s *Storage) SaveTables(stem string, tables []models.Table) (int, error) {
	if len(tables) == 0 {
		return 0, nil
	}

	dir := filepath.Join(s.config.OutputDir, stem, "tables")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create table dir: %w", err)
	}

	count := 0
	for _, table := range tables {
		name := fmt.Sprintf("table_p%d_%d.csv", table.Page, table.Index)
		if err := writeCSV(filepath.Join(dir, name), table); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func writeCSV(path string, table models.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if len(table.Header) > 0 {
		if err := w.Write(table.Header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for _, row := range table.Rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// SaveMetricDocument writes the validated metric document for one report.
func (s *Storage) SaveMetricDocument(stem string, doc *models.MetricDocument) (string, error) {
	path := filepath.Join(s.config.OutputDir, stem+".json")
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode metric document: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("failed to write metric document: %w", err)
	}
	return path, nil
}

// AppendScopeSummary appends one row per result to
// <output>/scope_summary.csv, writing the header only when the file is new.
// The file accumulates across runs.
func (s *Storage) AppendScopeSummary(results []models.Result) (string, error) {
	path := filepath.Join(s.config.OutputDir, "scope_summary.csv")

	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to open scope summary: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write([]string{"file", "scope1", "scope2"}); err != nil {
			return "", fmt.Errorf("failed to write summary header: %w", err)
		}
	}
	for _, r := range results {
		record := []string{r.File, deref(r.Scope1), deref(r.Scope2)}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, nil
}

// SaveRunLog writes a fresh timestamped CSV with one row per processed
// file, for traceability and quick debugging.
func (s *Storage) SaveRunLog(results []models.Result) (string, error) {
	path := filepath.Join(s.config.LogsDir, fmt.Sprintf("run_log_%s.csv", Timestamp()))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create run log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"file", "method", "pages", "chars", "clean_chars", "is_blank", "tables", "scope1", "scope2"}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("failed to write log header: %w", err)
	}

	for _, r := range results {
		record := []string{
			r.File,
			r.Method,
			strconv.Itoa(r.Pages),
			strconv.Itoa(r.Chars),
			strconv.Itoa(r.CleanChars),
			strconv.FormatBool(r.IsBlank),
			strconv.Itoa(r.Tables),
			deref(r.Scope1),
			deref(r.Scope2),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write log row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
