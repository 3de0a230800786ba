package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/esgx/pkg/llm"
)

func TestNewEmbedderWithConfig(t *testing.T) {
	e, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{})
	require.NoError(t, err)
	assert.NotNil(t, e)

	e, err = llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   "all-minilm",
		BaseURL: "http://ollama.internal:11434",
	})
	require.NoError(t, err)
	assert.NotNil(t, e)
}
