package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "settings.yaml")

	configData := `
paths:
  data_dir: "reports"
  schema_path: "config/schema.json"

extractor:
  fragment_threshold: 0.3
  min_table_rows: 3
  min_table_cols: 4
  min_digit_ratio: 0.2

ocr:
  enabled: true
  language: "deu"

fetcher:
  max_depth: 4
  rate_limit: 1.5
  ignore_patterns:
    - "/archive/"

llm:
  base_url: "http://localhost:11434"
  model: "llama3.2"
  max_tokens: 1000
  temperature: 0.5
  snippet_limit: 40

database:
  url: "postgres://localhost:5432/test"
  table_prefix: "test_esgx"
  vector_dim: 768
  batch_size: 50

ui:
  progress: true
  color: true
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	// Test loading config
	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	// Verify loaded values
	assert.Equal(t, "reports", config.Paths.DataDir)
	assert.Equal(t, 0.3, config.Extractor.FragmentThreshold)
	assert.Equal(t, 3, config.Extractor.MinTableRows)
	assert.True(t, config.OCR.Enabled)
	assert.Equal(t, "deu", config.OCR.Language)
	assert.Equal(t, 4, config.Fetcher.MaxDepth)
	assert.Equal(t, "llama3.2", config.LLM.Model)
	assert.Equal(t, 40, config.LLM.SnippetLimit)
	assert.Equal(t, "postgres://localhost:5432/test", config.Database.URL)
	assert.Equal(t, "test_esgx", config.Database.TablePrefix)
	assert.True(t, config.UI.Progress)

	// Derived directories default under data_dir
	assert.Equal(t, filepath.Join("reports", "pdfs"), config.Paths.PDFDir)
	assert.Equal(t, filepath.Join("reports", "logs"), config.Paths.LogsDir)
}

func TestConfigDefaults(t *testing.T) {
	config := &Config{}
	applyDefaults(config)

	assert.Equal(t, "data", config.Paths.DataDir)
	assert.Equal(t, filepath.Join("data", "pdfs"), config.Paths.PDFDir)
	assert.Equal(t, filepath.Join("data", "extracted"), config.Paths.ExtractedDir)
	assert.Equal(t, filepath.Join("data", "cleaned"), config.Paths.CleanedDir)
	assert.Equal(t, filepath.Join("data", "output"), config.Paths.OutputDir)
	assert.Equal(t, 0.25, config.Extractor.FragmentThreshold)
	assert.Equal(t, 2, config.Extractor.MinTableRows)
	assert.Equal(t, 3, config.Extractor.MinTableCols)
	assert.Equal(t, 0.15, config.Extractor.MinDigitRatio)
	assert.False(t, config.OCR.Enabled)
	assert.Equal(t, "eng", config.OCR.Language)
	assert.Equal(t, "http://localhost:11434", config.LLM.BaseURL)
	assert.Equal(t, 25, config.LLM.SnippetLimit)
	assert.Equal(t, 768, config.Database.VectorDim)
}

func TestConfigValidation(t *testing.T) {
	valid, err := getDefaultConfig()
	require.NoError(t, err)
	assert.Empty(t, valid.Validate())

	invalid, err := getDefaultConfig()
	require.NoError(t, err)
	invalid.Extractor.FragmentThreshold = 1.5
	invalid.Extractor.MinTableCols = 1
	invalid.LLM.MaxTokens = 5000
	invalid.LLM.Temperature = 3.0
	invalid.Database.BatchSize = -1

	errors := invalid.Validate()
	assert.Len(t, errors, 5)

	messages := []string{
		"extractor.fragment_threshold: fragment_threshold must be between 0 and 1",
		"extractor.min_table_cols: min_table_cols must be at least 2",
		"llm.max_tokens: max_tokens must be between 1 and 4096",
		"llm.temperature: temperature must be between 0 and 2",
		"database.batch_size: batch_size must be positive",
	}
	for i, msg := range messages {
		assert.Contains(t, errors[i].Error(), msg)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	// Set environment variables
	os.Setenv("OLLAMA_BASE_URL", "http://env-ollama:11434")
	os.Setenv("DATABASE_URL", "postgres://env-db:5432/test")
	os.Setenv("ESGX_DATA_DIR", "/srv/esgx/data")
	defer func() {
		os.Unsetenv("OLLAMA_BASE_URL")
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("ESGX_DATA_DIR")
	}()

	config := &Config{}
	mergeWithEnv(config)

	assert.Equal(t, "http://env-ollama:11434", config.LLM.BaseURL)
	assert.Equal(t, "postgres://env-db:5432/test", config.Database.URL)
	assert.Equal(t, "/srv/esgx/data", config.Paths.DataDir)
}
