package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "simple two keywords",
			input:    "tower osaka",
			expected: []string{"tower", "osaka"},
		},
		{
			name:     "full-width space separator",
			input:    "A　B C",
			expected: []string{"A", "B", "C"},
		},
		{
			name:     "empty string",
			input:    "",
			expected: []string{},
		},
		{
			name:     "whitespace only",
			input:    " 　 ",
			expected: []string{},
		},
		{
			name:     "consecutive separators collapse",
			input:    "a　　b  c",
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "duplicates are kept",
			input:    "tokyo tokyo",
			expected: []string{"tokyo", "tokyo"},
		},
		{
			name:     "leading and trailing spaces",
			input:    "　museum ",
			expected: []string{"museum"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Tokenize(tt.input))
		})
	}
}
