// Package validation checks user-supplied command options.
package validation

import (
	"fmt"
	"os"
	"strings"
)

// Output formats of the filter command.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

// OutputFormat normalizes format and checks it is supported.
func OutputFormat(format string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	switch f {
	case FormatTable, FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s. Supported formats are 'table', 'json', 'csv'", format)
	}
}

// OutputPath checks that path can be written as a file: it must not be an existing directory.
func OutputPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("output path is empty")
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("output path %s is a directory", path)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("output path %s is not a regular file", path)
	}
	return nil
}
