package validator_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/esgx/internal/models"
	"github.com/xhad/esgx/pkg/validator"
)

const testSchema = `{
  "type": "object",
  "required": ["metrics"],
  "properties": {
    "metrics": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "value", "unit", "year"],
        "properties": {
          "name": { "enum": ["Scope 1", "Scope 2 (location)", "Scope 2 (market)", "Scope 3"] },
          "value": { "type": "number" },
          "unit": { "enum": ["tCO2e", "ktCO2e", "MtCO2e"] },
          "year": { "type": "integer" }
        }
      }
    }
  }
}`

func newTestValidator(t *testing.T) *validator.Validator {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(testSchema), 0644))
	return validator.NewWithConfig(validator.ValidatorConfig{SchemaPath: path})
}

func TestValidator_ValidDocument(t *testing.T) {
	v := newTestValidator(t)

	doc := &models.MetricDocument{
		Metrics: []models.Metric{
			{Name: "Scope 1", Value: 1234.5, Unit: "tCO2e", Year: 2023},
			{Name: "Scope 2 (market)", Value: 410, Unit: "tCO2e", Year: 2023},
		},
	}

	assert.NoError(t, v.ValidateDocument(doc))
}

func TestValidator_InvalidDocument(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name string
		doc  *models.MetricDocument
	}{
		{
			name: "unknown metric name",
			doc: &models.MetricDocument{
				Metrics: []models.Metric{
					{Name: "Scope 9", Value: 1, Unit: "tCO2e", Year: 2023},
				},
			},
		},
		{
			name: "unknown unit",
			doc: &models.MetricDocument{
				Metrics: []models.Metric{
					{Name: "Scope 1", Value: 1, Unit: "barrels", Year: 2023},
				},
			},
		},
		{
			name: "nil metrics",
			doc:  &models.MetricDocument{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, v.ValidateDocument(tt.doc))
		})
	}
}

func TestValidator_ValidateJSON(t *testing.T) {
	v := newTestValidator(t)

	assert.NoError(t, v.ValidateJSON([]byte(`{"metrics":[]}`)))
	assert.Error(t, v.ValidateJSON([]byte(`{"metrics":"not-an-array"}`)))
	assert.Error(t, v.ValidateJSON([]byte(`not json`)))
}

func TestValidator_MissingSchema(t *testing.T) {
	v := validator.NewWithConfig(validator.ValidatorConfig{
		SchemaPath: filepath.Join(t.TempDir(), "absent.json"),
	})
	assert.Error(t, v.ValidateDocument(&models.MetricDocument{Metrics: []models.Metric{}}))
}

func TestAddProvenance(t *testing.T) {
	doc := &models.MetricDocument{Metrics: []models.Metric{}}
	validator.AddProvenance(doc, "acme-2023.pdf", 120)

	assert.Equal(t, "acme-2023.pdf", doc.SourceFile)
	assert.Equal(t, 120, doc.Pages)

	parsed, err := time.Parse(time.RFC3339, doc.ExtractedAt)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), parsed, time.Minute)
}
