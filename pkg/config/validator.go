package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate path config
	if c.Paths.DataDir == "" {
		errors = append(errors, ValidationError{
			Field:   "paths.data_dir",
			Message: "data directory is required",
		})
	}

	// Validate extractor config
	if c.Extractor.FragmentThreshold < 0 || c.Extractor.FragmentThreshold > 1 {
		errors = append(errors, ValidationError{
			Field:   "extractor.fragment_threshold",
			Message: "fragment_threshold must be between 0 and 1",
		})
	}

	if c.Extractor.MinTableRows < 1 {
		errors = append(errors, ValidationError{
			Field:   "extractor.min_table_rows",
			Message: "min_table_rows must be positive",
		})
	}

	if c.Extractor.MinTableCols < 2 {
		errors = append(errors, ValidationError{
			Field:   "extractor.min_table_cols",
			Message: "min_table_cols must be at least 2",
		})
	}

	if c.Extractor.MinDigitRatio < 0 || c.Extractor.MinDigitRatio > 1 {
		errors = append(errors, ValidationError{
			Field:   "extractor.min_digit_ratio",
			Message: "min_digit_ratio must be between 0 and 1",
		})
	}

	// Validate fetcher config
	if c.Fetcher.MaxDepth < 1 {
		errors = append(errors, ValidationError{
			Field:   "fetcher.max_depth",
			Message: "max_depth must be positive",
		})
	}

	if c.Fetcher.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "fetcher.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	// Validate LLM config
	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 4096",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.LLM.SnippetLimit < 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.snippet_limit",
			Message: "snippet_limit must be positive",
		})
	}

	if _, err := url.Parse(c.LLM.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid Ollama base URL",
		})
	}

	// Validate database config
	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Database.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	if c.Database.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.batch_size",
			Message: "batch_size must be positive",
		})
	}

	return errors
}
