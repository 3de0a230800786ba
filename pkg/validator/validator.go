package validator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/xhad/esgx/internal/models"
)

type ValidatorConfig struct {
	SchemaPath string
}

// Validator checks mapped metric documents against the project JSON schema
// and stamps provenance fields before they are written out.
type Validator struct {
	config ValidatorConfig

	once    sync.Once
	schema  *jsonschema.Schema
	loadErr error
}

func NewWithConfig(config ValidatorConfig) *Validator {
	if config.SchemaPath == "" {
		config.SchemaPath = filepath.Join("config", "schema.json")
	}

	return &Validator{
		config: config,
	}
}

func (v *Validator) load() {
	f, err := os.Open(v.config.SchemaPath)
	if err != nil {
		v.loadErr = fmt.Errorf("failed to open schema %s: %w", v.config.SchemaPath, err)
		return
	}
	defer f.Close()

	c := jsonschema.NewCompiler()
	url := "file://" + filepath.ToSlash(v.config.SchemaPath)
	if err := c.AddResource(url, f); err != nil {
		v.loadErr = fmt.Errorf("failed to add schema resource: %w", err)
		return
	}

	s, err := c.Compile(url)
	if err != nil {
		v.loadErr = fmt.Errorf("failed to compile schema: %w", err)
		return
	}
	v.schema = s
}

// ValidateDocument validates a mapped metric document. A nil return means
// the document conforms.
func (v *Validator) ValidateDocument(doc *models.MetricDocument) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return v.ValidateJSON(b)
}

// ValidateJSON validates raw JSON against the schema.
func (v *Validator) ValidateJSON(data []byte) error {
	v.once.Do(v.load)
	if v.loadErr != nil {
		return v.loadErr
	}

	var inst any
	if err := json.Unmarshal(data, &inst); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return v.schema.Validate(inst)
}

// AddProvenance stamps the source file, extraction time and page count onto
// a document so every output row can be traced back to its report.
func AddProvenance(doc *models.MetricDocument, sourceFile string, pages int) {
	doc.SourceFile = sourceFile
	doc.ExtractedAt = time.Now().UTC().Format(time.RFC3339)
	if pages > 0 {
		doc.Pages = pages
	}
}
