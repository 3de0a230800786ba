package types

import (
	"context"
	"time"

	"github.com/xhad/esgx/internal/models"
)

// Core interfaces
type Loader interface {
	List() ([]models.Report, error)
}

type Extractor interface {
	Extract(path string) (*models.Extraction, error)
	Tables(ex *models.Extraction) []models.Table
}

type Cleaner interface {
	Clean(raw string) string
}

type Validator interface {
	ValidateDocument(doc *models.MetricDocument) error
}

type Mapper interface {
	Map(ctx context.Context, ex *models.Extraction) (*models.MetricDocument, error)
}

type Archive interface {
	StoreResults(ctx context.Context, runID string, results []models.Result) error
	IndexSnippets(ctx context.Context, file string, snippets []string) error
	Close()
}

type LoaderConfig struct {
	PDFDir string
}

type FetcherConfig struct {
	IndexURL       string
	MaxDepth       int
	RateLimit      float64
	IgnorePatterns []string
	Timeout        time.Duration
	OnProgress     func(url string)
}

type ExtractorConfig struct {
	FragmentThreshold float64
	MinTableRows      int
	MinTableCols      int
	MinDigitRatio     float64
	OCREnabled        bool
	OCRLanguage       string
}

type LLMConfig struct {
	BaseURL      string
	Model        string
	MaxTokens    int
	Temperature  float64
	SnippetLimit int
}

type DatabaseConfig struct {
	URL         string
	TablePrefix string
	VectorDim   int
	BatchSize   int
}
