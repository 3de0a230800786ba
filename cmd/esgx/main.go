package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/xhad/esgx/internal/models"
	"github.com/xhad/esgx/internal/types"
	"github.com/xhad/esgx/pkg/cleaner"
	cfgPkg "github.com/xhad/esgx/pkg/config"
	"github.com/xhad/esgx/pkg/extractor"
	"github.com/xhad/esgx/pkg/fetcher"
	"github.com/xhad/esgx/pkg/llm"
	"github.com/xhad/esgx/pkg/loader"
	"github.com/xhad/esgx/pkg/metrics"
	"github.com/xhad/esgx/pkg/ocr"
	"github.com/xhad/esgx/pkg/storage"
	"github.com/xhad/esgx/pkg/store"
	"github.com/xhad/esgx/pkg/validator"
)

type Config struct {
	ConfigPath  string
	FetchURL    string
	SearchQuery string
	PDFDir      string
	SchemaPath  string
	OllamaURL   string
	Model       string
	DBUrl       string
	EnableAI    bool
	EnableDB    bool
	EnableOCR   bool
}

func main() {
	_ = godotenv.Load()

	config := parseFlags()

	if err := run(config); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() Config {
	var config Config

	flag.StringVar(&config.ConfigPath, "config", "", "Path to settings file")
	flag.StringVar(&config.FetchURL, "fetch", "", "Report index URL to download PDFs from before processing")
	flag.StringVar(&config.SearchQuery, "search", "", "Search the archived snippet index instead of processing")
	flag.StringVar(&config.PDFDir, "pdf-dir", "", "Directory containing PDF reports")
	flag.StringVar(&config.SchemaPath, "schema", "", "Path to the metric JSON schema")
	flag.StringVar(&config.OllamaURL, "ollama-url", "", "Ollama server URL")
	flag.StringVar(&config.Model, "model", "", "LLM model for metric mapping")
	flag.StringVar(&config.DBUrl, "db-url", "", "PostgreSQL connection string")
	flag.BoolVar(&config.EnableAI, "ai", false, "Map snippets to metrics with the LLM")
	flag.BoolVar(&config.EnableDB, "db", false, "Archive results to Postgres")
	flag.BoolVar(&config.EnableOCR, "ocr", false, "Enable OCR fallback for scanned reports")
	flag.Parse()

	return config
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// mergeFlags overlays non-empty command line values on the settings file.
func mergeFlags(cfg *cfgPkg.Config, config Config) {
	if config.PDFDir != "" {
		cfg.Paths.PDFDir = config.PDFDir
	}
	if config.SchemaPath != "" {
		cfg.Paths.SchemaPath = config.SchemaPath
	}
	if config.OllamaURL != "" {
		cfg.LLM.BaseURL = config.OllamaURL
	}
	if config.Model != "" {
		cfg.LLM.Model = config.Model
	}
	if config.DBUrl != "" {
		cfg.Database.URL = config.DBUrl
	}
	if config.EnableOCR {
		cfg.OCR.Enabled = true
	}
}

func run(config Config) error {
	cfg, err := cfgPkg.LoadConfig(config.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}
	mergeFlags(cfg, config)

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %s", e.Error())
		}
		return fmt.Errorf("invalid configuration")
	}

	if !cfg.UI.Color {
		color.NoColor = true
	}

	ctx := context.Background()

	if config.SearchQuery != "" {
		return searchArchive(ctx, cfg, config.SearchQuery)
	}

	runID := uuid.NewString()
	color.Cyan("\nesgx run %s started at %s\n", runID, time.Now().Format("2006-01-02 15:04:05"))

	files, err := storage.NewWithConfig(storage.StorageConfig{
		ExtractedDir: cfg.Paths.ExtractedDir,
		CleanedDir:   cfg.Paths.CleanedDir,
		OutputDir:    cfg.Paths.OutputDir,
		LogsDir:      cfg.Paths.LogsDir,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Optionally pull reports down from a disclosure index first
	if config.FetchURL != "" {
		if err := fetchReports(ctx, cfg, config.FetchURL); err != nil {
			return fmt.Errorf("failed to fetch reports: %v", err)
		}
	}

	l := loader.NewWithConfig(loader.LoaderConfig{PDFDir: cfg.Paths.PDFDir})
	var ld types.Loader = &l
	reports, err := ld.List()
	if err != nil {
		return fmt.Errorf("failed to list reports: %v", err)
	}
	if len(reports) == 0 {
		color.Yellow("No PDFs found in %s. Add sustainability reports first.", cfg.Paths.PDFDir)
		return nil
	}

	extractorCfg := extractor.ExtractorConfig{
		FragmentThreshold: cfg.Extractor.FragmentThreshold,
		MinTableRows:      cfg.Extractor.MinTableRows,
		MinTableCols:      cfg.Extractor.MinTableCols,
		MinDigitRatio:     cfg.Extractor.MinDigitRatio,
	}
	if cfg.OCR.Enabled {
		engine := ocr.NewWithConfig(ocr.EngineConfig{Language: cfg.OCR.Language})
		extractorCfg.OCR = &engine
	}
	ext := extractor.NewWithConfig(extractorCfg)
	cln := cleaner.NewWithConfig(cleaner.CleanerConfig{})

	var mapper types.Mapper
	var schemaValidator types.Validator
	if config.EnableAI {
		m, err := llm.NewWithConfig(llm.MapperConfig{
			BaseURL:      cfg.LLM.BaseURL,
			Model:        cfg.LLM.Model,
			MaxTokens:    cfg.LLM.MaxTokens,
			Temperature:  cfg.LLM.Temperature,
			SnippetLimit: cfg.LLM.SnippetLimit,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize metric mapper: %v", err)
		}
		mapper = m
		schemaValidator = validator.NewWithConfig(validator.ValidatorConfig{
			SchemaPath: cfg.Paths.SchemaPath,
		})
	}

	var archive types.Archive
	if config.EnableDB {
		embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.EmbedModel,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize embedder: %v", err)
		}
		a, err := store.NewWithConfig(store.ArchiveConfig{
			ConnString:  cfg.Database.URL,
			TablePrefix: cfg.Database.TablePrefix,
			VectorDim:   cfg.Database.VectorDim,
			BatchSize:   cfg.Database.BatchSize,
		}, embedder)
		if err != nil {
			return fmt.Errorf("failed to initialize archive: %v", err)
		}
		archive = a
		defer archive.Close()
	}

	var bar *progressbar.ProgressBar
	if cfg.UI.Progress {
		bar = getProgressBar(len(reports), "📄 Processing reports...")
	}
	startTime := time.Now()

	var results []models.Result
	for i, report := range reports {
		res, snippets, err := processOne(ctx, report, &ext, &cln, mapper, schemaValidator, files, cfg.LLM.SnippetLimit)
		if err != nil {
			color.Red("\n✗ Failed to process %s: %v", report.Name, err)
			res = models.Result{File: report.Name, Method: "error", IsBlank: true}
		}
		results = append(results, res)

		if archive != nil && len(snippets) > 0 {
			if err := archive.IndexSnippets(ctx, report.Name, snippets); err != nil {
				color.Red("\n✗ Failed to index snippets for %s: %v", report.Name, err)
			}
		}

		if bar != nil {
			bar.Add(1)
			elapsed := time.Since(startTime).Seconds()
			rate := float64(i+1) / elapsed
			bar.Describe(color.BlueString("📄 Processing reports... (%.1f files/sec)", rate))
		}
	}
	color.Green("\n✓ Processed %d reports\n", len(results))

	logPath, err := files.SaveRunLog(results)
	if err != nil {
		return fmt.Errorf("failed to save run log: %v", err)
	}
	summaryPath, err := files.AppendScopeSummary(results)
	if err != nil {
		return fmt.Errorf("failed to save scope summary: %v", err)
	}

	if archive != nil {
		spinner := getSpinner("💾 Archiving results...")
		err := archive.StoreResults(ctx, runID, results)
		spinner.Finish()
		if err != nil {
			return fmt.Errorf("failed to archive results: %v", err)
		}
		color.Green("✓ Results archived\n")
	}

	if scope1, scope2, counted := metrics.ScopeTotals(results); counted > 0 {
		color.Cyan("Parsed scope figures in %d of %d reports: Scope 1 total %.1f, Scope 2 total %.1f",
			counted, len(results), scope1, scope2)
	}

	color.Green("✓ Run log: %s", logPath)
	color.Green("✓ Scope summary: %s", summaryPath)
	return nil
}

// searchArchive embeds the query and prints the closest snippets from the
// Postgres index built by earlier -db runs.
func searchArchive(ctx context.Context, cfg *cfgPkg.Config, query string) error {
	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.EmbedModel,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %v", err)
	}
	archive, err := store.NewWithConfig(store.ArchiveConfig{
		ConnString:  cfg.Database.URL,
		TablePrefix: cfg.Database.TablePrefix,
		VectorDim:   cfg.Database.VectorDim,
		BatchSize:   cfg.Database.BatchSize,
	}, embedder)
	if err != nil {
		return fmt.Errorf("failed to initialize archive: %v", err)
	}
	defer archive.Close()

	vec, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to embed query: %v", err)
	}

	hits, err := archive.SearchSnippets(ctx, vec, 5)
	if err != nil {
		return fmt.Errorf("failed to search snippets: %v", err)
	}
	if len(hits) == 0 {
		color.Yellow("No matching snippets in the archive.")
		return nil
	}

	for _, h := range hits {
		color.Cyan("%s", h.File)
		fmt.Printf("  %s\n", h.Snippet)
	}
	return nil
}

func fetchReports(ctx context.Context, cfg *cfgPkg.Config, indexURL string) error {
	var fetched int32
	f, err := fetcher.NewWithConfig(fetcher.FetcherConfig{
		IndexURL:       indexURL,
		DestDir:        cfg.Paths.PDFDir,
		MaxDepth:       cfg.Fetcher.MaxDepth,
		RateLimit:      cfg.Fetcher.RateLimit,
		IgnorePatterns: cfg.Fetcher.IgnorePatterns,
		OnProgress: func(url string) {
			atomic.AddInt32(&fetched, 1)
		},
	})
	if err != nil {
		return err
	}

	color.Blue("\nFetching reports from %s\n", indexURL)
	spinner := getSpinner("🌐 Crawling report index...")

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				spinner.Describe(color.CyanString(
					"🌐 Crawling report index... (%d urls)", atomic.LoadInt32(&fetched)))
				time.Sleep(100 * time.Millisecond)
			}
		}
	}()

	downloaded, err := f.Fetch(ctx)
	close(done)
	spinner.Finish()
	if err != nil {
		return err
	}
	color.Green("\n✓ Downloaded %d new reports\n", len(downloaded))
	return nil
}

// processOne runs the full extraction for a single report: text, cleaning,
// persisted artifacts, tables and Scope 1/2 metrics, plus the optional AI
// mapping.
func processOne(
	ctx context.Context,
	report models.Report,
	ext types.Extractor,
	cln types.Cleaner,
	mapper types.Mapper,
	schemaValidator types.Validator,
	files *storage.Storage,
	snippetLimit int,
) (models.Result, []string, error) {
	extraction, err := ext.Extract(report.Path)
	if err != nil {
		return models.Result{}, nil, err
	}

	cleaned := cln.Clean(extraction.Text)

	if _, err := files.SaveRawText(report.Stem, extraction.Text, extraction); err != nil {
		return models.Result{}, nil, err
	}
	if _, err := files.SaveCleanText(report.Stem, cleaned); err != nil {
		return models.Result{}, nil, err
	}

	tables := ext.Tables(extraction)
	tableCount, err := files.SaveTables(report.Stem, tables)
	if err != nil {
		return models.Result{}, nil, err
	}

	scope := metrics.ExtractScopeMetrics(cleaned)

	snippets := llm.ShortlistSnippets(extraction, snippetLimit)

	if mapper != nil {
		doc, err := mapper.Map(ctx, extraction)
		if err != nil {
			color.Red("\n✗ Metric mapping failed for %s: %v", report.Name, err)
		} else {
			validator.AddProvenance(doc, report.Name, extraction.Count)
			if verr := schemaValidator.ValidateDocument(doc); verr != nil {
				color.Yellow("\n! Mapped metrics for %s failed validation: %v", report.Name, verr)
			} else if _, err := files.SaveMetricDocument(report.Stem, doc); err != nil {
				return models.Result{}, nil, err
			}
		}
	}

	return models.Result{
		File:       report.Name,
		Method:     extraction.Method,
		Pages:      extraction.Count,
		Chars:      extraction.Chars,
		CleanChars: len(cleaned),
		IsBlank:    len(cleaned) == 0,
		Tables:     tableCount,
		Scope1:     scope.Scope1,
		Scope2:     scope.Scope2,
	}, snippets, nil
}
