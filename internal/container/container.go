// Package container provides dependency injection for the treasury client.
// It centralizes the creation and wiring of the application dependencies,
// making them explicit and testable.
package container

import (
	"fmt"
	"strings"

	"yamo/treasury/internal/backend"
	"yamo/treasury/internal/config"
	"yamo/treasury/internal/datacache"
	"yamo/treasury/internal/debounce"
	"yamo/treasury/internal/filterstate"
	"yamo/treasury/internal/logging"
	"yamo/treasury/internal/sections"
	"yamo/treasury/internal/store"
	"yamo/treasury/internal/view"
)

// Option overrides a dependency before wiring.
type Option func(*options)

type options struct {
	logger  logging.Logger
	fetcher datacache.Fetcher
	loader  store.Loader
	catalog []view.Option
}

// WithLogger replaces the logger built from the log configuration.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithFetcher replaces the fetcher derived from backend.base_url.
func WithFetcher(f datacache.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithSectionLoader replaces the sections file store.
func WithSectionLoader(l store.Loader) Option {
	return func(o *options) { o.loader = l }
}

// WithCatalogOptions adds options to the section catalog, such as a fixed clock.
func WithCatalogOptions(opts ...view.Option) Option {
	return func(o *options) { o.catalog = append(o.catalog, opts...) }
}

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation. The data cache and the filter state store
// are shared by every view it creates, so switching sections keeps the loaded data.
type Container struct {
	logger   logging.Logger
	config   *config.Config
	sections *sections.Config
	catalog  *view.Catalog
	fetcher  datacache.Fetcher
	cache    *datacache.Cache
	filters  *filterstate.Store
}

// NewContainer creates and wires all application dependencies.
func NewContainer(cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = config.ConfigureLoggingFromConfig(cfg)
	}

	loader := o.loader
	if loader == nil {
		loader = store.NewSectionStore(cfg.Filter.SectionsFile, logger)
	}
	sectionConfig, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load sections: %w", err)
	}

	catalogOpts := append([]view.Option{view.WithCurrency(cfg.Display.Currency)}, o.catalog...)
	catalog, err := view.NewCatalog(sectionConfig, catalogOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to compile sections: %w", err)
	}

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher, err = newFetcher(cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	logger.Info("Container initialized successfully",
		logging.F("sections_count", len(sectionConfig.Sections)),
		logging.F(logging.FieldURL, cfg.Backend.BaseURL))

	return &Container{
		logger:   logger,
		config:   cfg,
		sections: sectionConfig,
		catalog:  catalog,
		fetcher:  fetcher,
		cache:    datacache.New(fetcher, logger),
		filters:  filterstate.New(),
	}, nil
}

// newFetcher reads a local export directory for file:// URLs and the PHP API otherwise.
func newFetcher(cfg *config.Config, logger logging.Logger) (datacache.Fetcher, error) {
	if strings.HasPrefix(cfg.Backend.BaseURL, "file://") {
		dir, err := datacache.NewDirFetcher(cfg.Backend.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open data directory: %w", err)
		}
		dir.Delimiter = cfg.Delimiter()
		return dir, nil
	}

	client, err := backend.NewClient(backend.Config{
		BaseURL:    cfg.Backend.BaseURL,
		Timeout:    cfg.BackendTimeout(),
		MaxRetries: cfg.Backend.MaxRetries,
		Endpoints:  cfg.BackendEndpoints(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	return client, nil
}

// NewView returns the view of a section, wired to the shared cache and filter state
// with the configured debounce delay.
func (c *Container) NewView(section string, opts ...view.ViewOption) (*view.View, error) {
	binding, err := c.catalog.Lookup(section)
	if err != nil {
		return nil, err
	}
	base := []view.ViewOption{
		view.WithLogger(c.logger),
		view.WithStore(c.filters),
		view.WithDebouncer(debounce.New(c.config.DebounceDelay())),
	}
	return view.New(binding, c.cache, append(base, opts...)...), nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetSections returns the loaded section configuration.
func (c *Container) GetSections() *sections.Config {
	return c.sections
}

// GetCatalog returns the compiled sections.
func (c *Container) GetCatalog() *view.Catalog {
	return c.catalog
}

// GetCache returns the shared data cache.
func (c *Container) GetCache() *datacache.Cache {
	return c.cache
}

// GetFetcher returns the backend reader behind the cache.
func (c *Container) GetFetcher() datacache.Fetcher {
	return c.fetcher
}

// GetFilterStore returns the filter state shared by the views.
func (c *Container) GetFilterStore() *filterstate.Store {
	return c.filters
}

// Close performs cleanup of container resources.
func (c *Container) Close() error {
	c.logger.Info("Container closed")
	return nil
}
