package datacache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"yamo/treasury/internal/export"
	"yamo/treasury/internal/models"
)

// DirFetcher reads <dir>/<resource>.json files holding a JSON array or a backend envelope,
// falling back to <dir>/<resource>.csv exports.
type DirFetcher struct {
	Dir       string
	Delimiter rune
}

// NewDirFetcher accepts a directory path or a file:// URL.
func NewDirFetcher(location string) (*DirFetcher, error) {
	dir := location
	if strings.HasPrefix(location, "file://") {
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("invalid file URL '%s': %w", location, err)
		}
		dir = u.Path
		if u.Host != "" && u.Host != "localhost" {
			dir = filepath.Join(u.Host, u.Path)
		}
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("data directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data directory %s is not a directory", dir)
	}
	return &DirFetcher{Dir: dir, Delimiter: export.DefaultDelimiter}, nil
}

// Fetch implements Fetcher. A missing file yields an empty collection.
func (f *DirFetcher) Fetch(ctx context.Context, resource models.Resource, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(f.Dir, string(resource)+".json")
	data, err := os.ReadFile(path) // #nosec G304 -- fixture directory from configuration
	if os.IsNotExist(err) {
		return f.fetchCSV(resource, out)
	} else if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		data = env.Data
		if len(bytes.TrimSpace(data)) == 0 || string(data) == "null" {
			data = []byte("[]")
		}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (f *DirFetcher) fetchCSV(resource models.Resource, out any) error {
	path := filepath.Join(f.Dir, string(resource)+".csv")
	file, err := os.Open(path) // #nosec G304 -- fixture directory from configuration
	if os.IsNotExist(err) {
		return json.Unmarshal([]byte("[]"), out)
	} else if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	delimiter := f.Delimiter
	if delimiter == 0 {
		delimiter = export.DefaultDelimiter
	}
	if err := export.ReadCSV(file, delimiter, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
