package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"
	"github.com/xhad/esgx/internal/models"
)

// MapperConfig represents the configuration for the metric mapper.
type MapperConfig struct {
	BaseURL      string // Ollama server URL
	Model        string
	MaxTokens    int
	Temperature  float64
	SnippetLimit int
}

// Mapper turns shortlisted report snippets into schema'd emissions metrics
// via a local LLM.
type Mapper struct {
	config MapperConfig
	llm    llms.Model
}

const systemPrompt = "You are an expert ESG analyst. Extract Scope 1, Scope 2, and Scope 3 emissions data from the provided text snippets. " +
	"Return ONLY valid JSON matching the schema. No markdown, no explanations."

var snippetKeywords = []string{
	"scope 1", "scope 2", "scope 3", "tco2e", "mtco2e", "emissions", "ghg", "tonnes",
}

var jsonFence = regexp.MustCompile("```json|```")

// NewWithConfig creates a new Mapper with the given configuration.
func NewWithConfig(config MapperConfig) (*Mapper, error) {
	if config.Model == "" {
		config.Model = "llama3.2" // Default Ollama model
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.SnippetLimit == 0 {
		config.SnippetLimit = 25
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434" // Default Ollama URL
	}

	llm, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
		ollama.WithFormat("json"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &Mapper{
		config: config,
		llm:    llm,
	}, nil
}

// Map sends the shortlisted snippets to the model and returns the parsed
// metric document. No relevant snippets means an empty document, not an
// error.
func (m *Mapper) Map(ctx context.Context, ex *models.Extraction) (*models.MetricDocument, error) {
	snippets := ShortlistSnippets(ex, m.config.SnippetLimit)
	if len(snippets) == 0 {
		return &models.MetricDocument{Metrics: []models.Metric{}}, nil
	}

	content := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, BuildUserPrompt(snippets)),
	}

	resp, err := m.llm.GenerateContent(ctx, content,
		llms.WithTemperature(m.config.Temperature),
		llms.WithMaxTokens(m.config.MaxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("llm request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llm returned no choices")
	}

	return ParseResponse(resp.Choices[0].Content), nil
}

// ShortlistSnippets filters the extraction down to lines carrying an ESG
// keyword and a digit, tagged with their page number. Feeding whole reports
// to a local model overflows its context window, so this pre-filter is what
// keeps the mapping usable.
func ShortlistSnippets(ex *models.Extraction, limit int) []string {
	if limit <= 0 {
		limit = 25
	}

	seen := make(map[string]bool)
	var out []string
	for _, page := range ex.Pages {
		lines := page.Lines
		if len(lines) == 0 {
			lines = strings.Split(page.Text, "\n")
		}
		for _, ln := range lines {
			lower := strings.ToLower(ln)

			hasKeyword := false
			for _, k := range snippetKeywords {
				if strings.Contains(lower, k) {
					hasKeyword = true
					break
				}
			}
			if !hasKeyword || strings.IndexFunc(ln, unicode.IsDigit) < 0 {
				continue
			}

			snippet := fmt.Sprintf("[Page %d] %s", page.Number, strings.Join(strings.Fields(ln), " "))
			if seen[snippet] {
				continue
			}
			seen[snippet] = true

			out = append(out, snippet)
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}

// BuildUserPrompt assembles the context block, instructions and an example
// document for the model.
func BuildUserPrompt(snippets []string) string {
	example := models.MetricDocument{
		Metrics: []models.Metric{
			{Name: "Scope 1", Value: 1234.5, Unit: "tCO2e", Year: 2023, Page: 10, Snippet: "Scope 1 emissions: 1,234.5 tCO2e"},
		},
	}
	exampleJSON, _ := json.Marshal(example)

	return fmt.Sprintf(
		"CONTEXT:\n%s\n\nINSTRUCTIONS:\n"+
			"1. Extract emissions data.\n"+
			"2. Convert all values to numbers (remove commas).\n"+
			"3. Return JSON only.\n\n"+
			"EXAMPLE JSON:\n%s",
		strings.Join(snippets, "\n"), exampleJSON)
}

// ParseResponse decodes the model output, tolerating markdown code fences.
// Unparseable output yields an empty document rather than an error, as a
// bad generation should not fail the file.
func ParseResponse(raw string) *models.MetricDocument {
	clean := strings.TrimSpace(jsonFence.ReplaceAllString(raw, ""))

	var doc models.MetricDocument
	if err := json.Unmarshal([]byte(clean), &doc); err != nil {
		return &models.MetricDocument{Metrics: []models.Metric{}}
	}
	if doc.Metrics == nil {
		doc.Metrics = []models.Metric{}
	}
	return &doc
}
