package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atsresume/internal/errors"
)

func TestValidateOutputFormat(t *testing.T) {
	configured := []string{"json", "text", "markdown"}

	tests := []struct {
		name       string
		format     string
		configured []string
		wantErr    string
	}{
		{name: "text report", format: "text", configured: configured},
		{name: "markdown report", format: "markdown", configured: configured},
		{name: "json report", format: "json", configured: configured},
		{name: "no configuration allows every renderer", format: "markdown"},
		{
			name:       "format without a renderer",
			format:     "html",
			configured: configured,
			wantErr:    "unsupported output format 'html'. Supported formats: [json text markdown]",
		},
		{
			name:       "renderer not configured",
			format:     "markdown",
			configured: []string{"text"},
			wantErr:    "unsupported output format 'markdown'. Supported formats: [text]",
		},
		{
			name:       "case sensitive",
			format:     "JSON",
			configured: configured,
			wantErr:    "unsupported output format 'JSON'. Supported formats: [json text markdown]",
		},
		{
			name:       "empty format",
			format:     "",
			configured: configured,
			wantErr:    "unsupported output format ''. Supported formats: [json text markdown]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.configured)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			appErr, ok := errors.As(err)
			require.True(t, ok, "expected an AppError, got %v", err)
			assert.Equal(t, errors.ErrorTypeValidation, appErr.Type)
			assert.Equal(t, errors.ErrCodeInvalidFormat, appErr.Code)
			assert.Equal(t, tt.wantErr, appErr.Message)
			assert.Equal(t, tt.format, appErr.Context["format"])
		})
	}
}

func TestGetSupportedFormats(t *testing.T) {
	tests := []struct {
		name       string
		configured []string
		want       []string
	}{
		{name: "all registered renderers", want: []string{"json", "markdown", "text"}},
		{name: "configured order kept", configured: []string{"text", "json"}, want: []string{"text", "json"}},
		{name: "unrenderable formats dropped", configured: []string{"xml", "text", "yaml"}, want: []string{"text"}},
		{name: "duplicates collapsed", configured: []string{"json", "json"}, want: []string{"json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetSupportedFormats(tt.configured))
		})
	}
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	configured := []string{"json", "text", "markdown"}
	for b.Loop() {
		_ = ValidateOutputFormat("markdown", configured)
	}
}
