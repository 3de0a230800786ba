package models

import "time"

// Report is a single PDF sustainability report discovered on disk.
type Report struct {
	Path    string
	Name    string
	Stem    string
	Size    int64
	ModTime time.Time
}

// Page holds the text recovered from one PDF page.
type Page struct {
	Number int      `json:"page"`
	Text   string   `json:"text"`
	Lines  []string `json:"lines"`
}

// Extraction is the full text output for one report.
type Extraction struct {
	Text   string `json:"text"`
	Pages  []Page `json:"pages"`
	Method string `json:"method"`
	Chars  int    `json:"chars"`
	Count  int    `json:"page_count"`
}

// Table is one detected table with optional header row.
type Table struct {
	Page   int        `json:"page"`
	Index  int        `json:"index"`
	Header []string   `json:"header,omitempty"`
	Rows   [][]string `json:"rows"`
}

// ScopeMetrics holds the rule-based Scope 1/2 values as they appeared in
// the text. A nil pointer means the pattern never matched.
type ScopeMetrics struct {
	Scope1 *string
	Scope2 *string
}

// Metric is one schema'd emissions metric produced by the AI mapper.
type Metric struct {
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Unit    string  `json:"unit"`
	Year    int     `json:"year"`
	Page    int     `json:"page,omitempty"`
	Snippet string  `json:"snippet,omitempty"`
}

// MetricDocument is the validated structured output for one report,
// including provenance fields stamped by the validator.
type MetricDocument struct {
	Metrics     []Metric `json:"metrics"`
	SourceFile  string   `json:"source_file,omitempty"`
	ExtractedAt string   `json:"extracted_at,omitempty"`
	Pages       int      `json:"pages,omitempty"`
}

// Result is one row of the run log.
type Result struct {
	File       string
	Method     string
	Pages      int
	Chars      int
	CleanChars int
	IsBlank    bool
	Tables     int
	Scope1     *string
	Scope2     *string
}
