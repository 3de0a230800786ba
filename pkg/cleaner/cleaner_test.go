package cleaner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xhad/esgx/pkg/cleaner"
)

func TestCleaner_Clean(t *testing.T) {
	c := cleaner.NewWithConfig(cleaner.CleanerConfig{})

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "joins broken lines",
			input:    "Total emissions were\nreduced by 12% this\nyear.",
			expected: "Total emissions were reduced by 12% this year.",
		},
		{
			name:     "keeps sentence boundaries",
			input:    "Emissions fell.\nThe board approved targets.",
			expected: "Emissions fell.\nThe board approved targets.",
		},
		{
			name:     "joins consecutive broken lines",
			input:    "a\nb\nc",
			expected: "a b c",
		},
		{
			name:     "normalises stranded bullets",
			input:    "Highlights:\n•\nrenewable energy use\n",
			expected: "Highlights:\n• renewable energy use",
		},
		{
			name:     "collapses spaces and tabs",
			input:    "Scope 1\t\t  emissions",
			expected: "Scope 1 emissions",
		},
		{
			name:     "collapses blank line runs",
			input:    "Intro.\n\n\n\n\nDetails.",
			expected: "Intro.\n\nDetails.",
		},
		{
			name:     "strips page labels",
			input:    "Carbon summary.\n- Page 12 -\nMore detail.",
			expected: "Carbon summary.\nMore detail.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.Clean(tt.input))
		})
	}
}

func TestCleaner_KeepOptions(t *testing.T) {
	c := cleaner.NewWithConfig(cleaner.CleanerConfig{
		KeepBrokenLines: true,
		KeepPageLabels:  true,
	})

	out := c.Clean("Emissions were\nreduced.\nPage 3\nNext section.")
	assert.Contains(t, out, "Emissions were\nreduced.")
	assert.Contains(t, out, "Page 3")
}
