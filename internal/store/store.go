// Package store locates and loads the section configuration file.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"yamo/treasury/internal/logging"
	"yamo/treasury/internal/sections"
)

// Loader yields the section configuration used to build the catalog.
type Loader interface {
	Load() (*sections.Config, error)
}

// SectionStore resolves the sections file against the standard config locations.
type SectionStore struct {
	File   string
	logger logging.Logger
}

// NewSectionStore creates a store for the given sections file. An empty file
// selects the embedded default sections.
func NewSectionStore(file string, logger logging.Logger) *SectionStore {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &SectionStore{File: file, logger: logger}
}

// FindConfigFile looks for a configuration file in standard locations
func (s *SectionStore) FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".config", "yamo", filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
	}

	return "", os.ErrNotExist
}

// Load returns the configured sections, falling back to the embedded defaults
// when no file is set.
func (s *SectionStore) Load() (*sections.Config, error) {
	if s.File == "" {
		s.logger.Debug("Using embedded section definitions")
		return sections.Default()
	}

	path, err := s.FindConfigFile(s.File)
	if err != nil {
		return nil, fmt.Errorf("sections file %q not found: %w", s.File, err)
	}

	cfg, err := sections.Load(path)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Loaded section definitions",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(cfg.Sections)))
	return cfg, nil
}

// StaticLoader serves an already parsed configuration.
type StaticLoader struct {
	Config *sections.Config
	Err    error
}

// Load returns the stored configuration or error.
func (l StaticLoader) Load() (*sections.Config, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	return l.Config, nil
}
