// Package view binds configured sections to their entity types and runs the filter state,
// data cache and debounced search of one active view.
package view

import (
	"fmt"
	"io"
	"time"

	"yamo/treasury/internal/apperror"
	"yamo/treasury/internal/currencyutils"
	"yamo/treasury/internal/export"
	"yamo/treasury/internal/fields"
	"yamo/treasury/internal/filter"
	"yamo/treasury/internal/logging"
	"yamo/treasury/internal/models"
	"yamo/treasury/internal/sections"
)

// Page is the plain data a render layer draws: the filtered list of a section and its
// aggregate, computed together.
type Page struct {
	Section   string           `json:"section"`
	Title     string           `json:"title"`
	Fields    []string         `json:"fields"`
	Columns   []string         `json:"columns"`
	Rows      [][]string       `json:"rows"`
	Items     any              `json:"items"`
	Aggregate filter.Aggregate `json:"aggregate"`
	Badges    map[string]int   `json:"badges"`
	Query     string           `json:"query"`
	Revision  uint64           `json:"revision"`
}

// Facet describes a facet and the values it can take over a snapshot.
type Facet struct {
	Name     string             `json:"name"`
	Title    string             `json:"title"`
	Kind     sections.FacetKind `json:"kind"`
	Values   []string           `json:"values"`
	Selected []string           `json:"selected,omitempty"`
}

// Binding is a section compiled for its entity type.
type Binding interface {
	Name() string
	Title() string
	Resource() models.Resource
	Section() sections.Section
	Facets(s *models.Snapshot) []Facet
	Evaluate(s *models.Snapshot, sel filter.Selection, query string) Page
	WriteCSV(w io.Writer, s *models.Snapshot, sel filter.Selection, query string, delimiter rune) error
	WriteCSVFile(path string, s *models.Snapshot, sel filter.Selection, query string, delimiter rune, logger logging.Logger) error
}

type binding[T any] struct {
	engine   *filter.Engine[T]
	items    func(*models.Snapshot) []T
	currency string
}

func (b *binding[T]) Name() string              { return b.engine.Section().Name }
func (b *binding[T]) Title() string             { return b.engine.Section().DisplayTitle() }
func (b *binding[T]) Resource() models.Resource { return b.engine.Section().Resource }
func (b *binding[T]) Section() sections.Section { return b.engine.Section() }

func (b *binding[T]) Facets(s *models.Snapshot) []Facet {
	items := b.list(s)
	section := b.engine.Section()
	out := make([]Facet, 0, len(section.Facets))
	for _, f := range section.Facets {
		out = append(out, Facet{
			Name:   f.Name,
			Title:  f.DisplayTitle(),
			Kind:   f.Kind,
			Values: b.engine.FacetValues(items, f.Name),
		})
	}
	return out
}

func (b *binding[T]) Evaluate(s *models.Snapshot, sel filter.Selection, query string) Page {
	res := b.engine.Run(b.list(s), sel, query)
	section := b.engine.Section()

	cols := b.engine.Columns()
	page := Page{
		Section:   section.Name,
		Title:     section.DisplayTitle(),
		Fields:    make([]string, 0, len(cols)),
		Columns:   make([]string, 0, len(cols)),
		Rows:      make([][]string, 0, len(res.Items)),
		Items:     res.Items,
		Aggregate: res.Aggregate,
		Query:     query,
	}
	for i, c := range cols {
		page.Fields = append(page.Fields, c.Name)
		title := section.Columns[i].Title
		if title == "" {
			title = c.Name
		}
		page.Columns = append(page.Columns, title)
	}
	for _, item := range res.Items {
		row := make([]string, 0, len(cols))
		for _, c := range cols {
			row = append(row, b.format(c.Get(item)))
		}
		page.Rows = append(page.Rows, row)
	}
	return page
}

func (b *binding[T]) list(s *models.Snapshot) []T {
	if s == nil {
		return nil
	}
	return b.items(s)
}

func (b *binding[T]) format(v fields.Value) string {
	if v.Kind == fields.KindAmount && v.Valid {
		return currencyutils.FormatAmount(v.Amount, b.currency)
	}
	return v.String()
}

func (b *binding[T]) WriteCSV(w io.Writer, s *models.Snapshot, sel filter.Selection, query string, delimiter rune) error {
	res := b.engine.Run(b.list(s), sel, query)
	return export.WriteCSV(w, res.Items, delimiter)
}

func (b *binding[T]) WriteCSVFile(path string, s *models.Snapshot, sel filter.Selection, query string, delimiter rune, logger logging.Logger) error {
	res := b.engine.Run(b.list(s), sel, query)
	return export.WriteCSVFile(path, res.Items, delimiter, logger)
}

// Option configures NewCatalog.
type Option func(*catalogOptions)

type catalogOptions struct {
	now      func() time.Time
	currency string
}

// WithClock sets the time source of period facets.
func WithClock(now func() time.Time) Option {
	return func(o *catalogOptions) { o.now = now }
}

// WithCurrency sets the currency used to format amounts in rows.
func WithCurrency(code string) Option {
	return func(o *catalogOptions) { o.currency = code }
}

// Catalog holds a binding per configured section.
type Catalog struct {
	names    []string
	bindings map[string]Binding
}

// NewCatalog compiles every section of cfg.
func NewCatalog(cfg *sections.Config, opts ...Option) (*Catalog, error) {
	o := catalogOptions{now: time.Now, currency: "EUR"}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Catalog{bindings: make(map[string]Binding, len(cfg.Sections))}
	for _, s := range cfg.Sections {
		b, err := compile(s, o)
		if err != nil {
			return nil, err
		}
		c.names = append(c.names, s.Name)
		c.bindings[s.Name] = b
	}
	return c, nil
}

func compile(s sections.Section, o catalogOptions) (Binding, error) {
	clock := filter.WithClock(o.now)
	switch s.Resource {
	case models.ResourceAccounts:
		e, err := filter.Compile(s, fields.Accounts, clock)
		if err != nil {
			return nil, err
		}
		return &binding[models.Account]{engine: e, currency: o.currency, items: func(s *models.Snapshot) []models.Account { return s.Accounts }}, nil
	case models.ResourceThirdParties:
		e, err := filter.Compile(s, fields.ThirdParties, clock)
		if err != nil {
			return nil, err
		}
		return &binding[models.ThirdParty]{engine: e, currency: o.currency, items: func(s *models.Snapshot) []models.ThirdParty { return s.ThirdParties }}, nil
	case models.ResourceTransactions:
		e, err := filter.Compile(s, fields.Transactions, clock)
		if err != nil {
			return nil, err
		}
		return &binding[models.Transaction]{engine: e, currency: o.currency, items: func(s *models.Snapshot) []models.Transaction { return s.Transactions }}, nil
	case models.ResourceCategories:
		e, err := filter.Compile(s, fields.Categories, clock)
		if err != nil {
			return nil, err
		}
		return &binding[models.Category]{engine: e, currency: o.currency, items: func(s *models.Snapshot) []models.Category { return s.Categories }}, nil
	}
	return nil, &apperror.ConfigError{Section: s.Name, Field: "resource", Reason: fmt.Sprintf("unknown resource '%s'", s.Resource)}
}

// Lookup returns the binding of a section. Unknown names wrap apperror.ErrUnknownSection.
func (c *Catalog) Lookup(name string) (Binding, error) {
	b, ok := c.bindings[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", apperror.ErrUnknownSection, name)
	}
	return b, nil
}

// Names returns the section names in configuration order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Bindings returns every binding in configuration order.
func (c *Catalog) Bindings() []Binding {
	out := make([]Binding, 0, len(c.names))
	for _, n := range c.names {
		out = append(out, c.bindings[n])
	}
	return out
}
