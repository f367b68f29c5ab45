// Package export writes filtered entities as CSV and reads CSV fixtures back.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"yamo/treasury/internal/fileutils"
	"yamo/treasury/internal/logging"

	"github.com/gocarina/gocsv"
)

// DefaultDelimiter is the field separator used when none is configured.
const DefaultDelimiter = ','

// ParseDelimiter returns the single character of s, or DefaultDelimiter when s is empty.
func ParseDelimiter(s string) (rune, error) {
	if s == "" {
		return DefaultDelimiter, nil
	}
	if s == `\t` {
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) || r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("invalid CSV delimiter '%s'", s)
	}
	return r, nil
}

// WriteCSV writes items with their csv struct tags as header.
func WriteCSV[T any](w io.Writer, items []T, delimiter rune) error {
	if items == nil {
		items = []T{}
	}
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = delimiter
	if err := gocsv.MarshalCSV(items, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// WriteCSVFile writes items to path, creating parent directories.
func WriteCSVFile[T any](path string, items []T, delimiter rune, logger logging.Logger) error {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	logger = logger.WithFields(logging.F(logging.FieldFile, path), logging.F(logging.FieldCount, len(items)))
	logger.Info("Writing CSV file")

	file, err := fileutils.CreateFile(path)
	if err != nil {
		logger.WithError(err).Error("Failed to create CSV file")
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	if err := WriteCSV(file, items, delimiter); err != nil {
		logger.WithError(err).Error("Failed to write CSV file")
		return err
	}
	logger.Info("Successfully wrote CSV file")
	return nil
}

// ReadCSV decodes CSV rows with a header line into out, a pointer to a slice of structs
// with csv tags.
func ReadCSV(r io.Reader, delimiter rune, out any) error {
	csvReader := csv.NewReader(r)
	csvReader.Comma = delimiter
	csvReader.FieldsPerRecord = -1
	if err := gocsv.UnmarshalCSV(csvReader, out); err != nil {
		return fmt.Errorf("error parsing CSV data: %w", err)
	}
	return nil
}
