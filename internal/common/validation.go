package common

import (
	"fmt"
	"slices"

	"atsresume/internal/errors"
	"atsresume/internal/formatters"
)

// ValidateOutputFormat accepts format when it is configured and a result
// renderer exists for it. An empty configuration allows every renderer.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	available := GetSupportedFormats(supportedFormats)
	if slices.Contains(available, format) {
		return nil
	}

	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format '%s'. Supported formats: %v", format, available), nil).
		WithContext("format", format)
}

// GetSupportedFormats returns the configured formats that can be rendered,
// keeping the configured order.
func GetSupportedFormats(supportedFormats []string) []string {
	registered := formatters.GlobalRegistry.GetSupportedFormats()
	if len(supportedFormats) == 0 {
		return registered
	}

	formats := make([]string, 0, len(supportedFormats))
	for _, format := range supportedFormats {
		if slices.Contains(registered, format) && !slices.Contains(formats, format) {
			formats = append(formats, format)
		}
	}
	return formats
}
