package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Paths struct {
		DataDir      string `yaml:"data_dir"`
		PDFDir       string `yaml:"pdf_dir"`
		ExtractedDir string `yaml:"extracted_dir"`
		CleanedDir   string `yaml:"cleaned_dir"`
		OutputDir    string `yaml:"output_dir"`
		LogsDir      string `yaml:"logs_dir"`
		SchemaPath   string `yaml:"schema_path"`
	} `yaml:"paths"`

	Extractor struct {
		FragmentThreshold float64 `yaml:"fragment_threshold"`
		MinTableRows      int     `yaml:"min_table_rows"`
		MinTableCols      int     `yaml:"min_table_cols"`
		MinDigitRatio     float64 `yaml:"min_digit_ratio"`
	} `yaml:"extractor"`

	OCR struct {
		Enabled  bool   `yaml:"enabled"`
		Language string `yaml:"language"`
	} `yaml:"ocr"`

	Fetcher struct {
		MaxDepth       int      `yaml:"max_depth"`
		RateLimit      float64  `yaml:"rate_limit"`
		IgnorePatterns []string `yaml:"ignore_patterns"`
	} `yaml:"fetcher"`

	LLM struct {
		BaseURL      string  `yaml:"base_url"`
		Model        string  `yaml:"model"`
		EmbedModel   string  `yaml:"embed_model"`
		MaxTokens    int     `yaml:"max_tokens"`
		Temperature  float64 `yaml:"temperature"`
		SnippetLimit int     `yaml:"snippet_limit"`
	} `yaml:"llm"`

	Database struct {
		URL         string `yaml:"url"`
		TablePrefix string `yaml:"table_prefix"`
		VectorDim   int    `yaml:"vector_dim"`
		BatchSize   int    `yaml:"batch_size"`
	} `yaml:"database"`

	UI struct {
		Progress bool `yaml:"progress"`
		Color    bool `yaml:"color"`
	} `yaml:"ui"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"settings.yaml",
			"settings.yml",
			filepath.Join("config", "settings.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config/esgx/settings.yaml"),
			"/etc/esgx/settings.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	// true-by-default booleans must be set before unmarshal, since yaml
	// only overwrites keys present in the file
	config.UI.Progress = true
	config.UI.Color = true
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	config.UI.Progress = true
	config.UI.Color = true
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Paths.DataDir == "" {
		config.Paths.DataDir = "data"
	}
	if config.Paths.PDFDir == "" {
		config.Paths.PDFDir = filepath.Join(config.Paths.DataDir, "pdfs")
	}
	if config.Paths.ExtractedDir == "" {
		config.Paths.ExtractedDir = filepath.Join(config.Paths.DataDir, "extracted")
	}
	if config.Paths.CleanedDir == "" {
		config.Paths.CleanedDir = filepath.Join(config.Paths.DataDir, "cleaned")
	}
	if config.Paths.OutputDir == "" {
		config.Paths.OutputDir = filepath.Join(config.Paths.DataDir, "output")
	}
	if config.Paths.LogsDir == "" {
		config.Paths.LogsDir = filepath.Join(config.Paths.DataDir, "logs")
	}
	if config.Paths.SchemaPath == "" {
		config.Paths.SchemaPath = filepath.Join("config", "schema.json")
	}

	if config.Extractor.FragmentThreshold == 0 {
		config.Extractor.FragmentThreshold = 0.25
	}
	if config.Extractor.MinTableRows == 0 {
		config.Extractor.MinTableRows = 2
	}
	if config.Extractor.MinTableCols == 0 {
		config.Extractor.MinTableCols = 3
	}
	if config.Extractor.MinDigitRatio == 0 {
		config.Extractor.MinDigitRatio = 0.15
	}

	if config.OCR.Language == "" {
		config.OCR.Language = "eng"
	}

	if config.Fetcher.MaxDepth == 0 {
		config.Fetcher.MaxDepth = 2
	}
	if config.Fetcher.RateLimit == 0 {
		config.Fetcher.RateLimit = 2.0
	}

	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = "llama3.2"
	}
	if config.LLM.EmbedModel == "" {
		config.LLM.EmbedModel = "nomic-embed-text:latest"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.SnippetLimit == 0 {
		config.LLM.SnippetLimit = 25
	}

	if config.Database.TablePrefix == "" {
		config.Database.TablePrefix = "esgx"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 768
	}
	if config.Database.BatchSize == 0 {
		config.Database.BatchSize = 100
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if dataDir := os.Getenv("ESGX_DATA_DIR"); dataDir != "" {
		config.Paths.DataDir = dataDir
	}
}
