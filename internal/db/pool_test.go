package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"saved_filters", `"saved_filters"`},
		{"public.saved_filters", `"public"."saved_filters"`},
		{`bad"name`, `"bad""name"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeTable(tt.input))
		})
	}
}

func TestOpen_InvalidConnString(t *testing.T) {
	_, err := Open(context.Background(), "postgres://%zz", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
