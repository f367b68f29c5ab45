// Package sections describes the filterable views of the application: which resource each
// one lists, the fields searched by the free-text query, the summed amounts and the facets.
package sections

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"yamo/treasury/internal/dateutils"
	"yamo/treasury/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultConfig []byte

// FacetKind selects how a facet classifies an entity.
type FacetKind string

const (
	// FacetEquals keeps entities whose field equals a selected value.
	FacetEquals FacetKind = "equals"
	// FacetSign buckets an amount by its sign.
	FacetSign FacetKind = "sign"
	// FacetRange buckets an amount into labelled [min, max) ranges.
	FacetRange FacetKind = "range"
	// FacetPeriod buckets a date into calendar windows around now.
	FacetPeriod FacetKind = "period"
)

// Default sign labels.
const (
	LabelPositive = "debiteur"
	LabelNegative = "crediteur"
	LabelZero     = "equilibre"
)

// Period labels understood by period facets.
const (
	LabelToday = "aujourdhui"
	LabelWeek  = "semaine"
	LabelMonth = "mois"
	LabelYear  = "annee"
)

// PeriodLabels maps the period facet labels to calendar windows.
var PeriodLabels = map[string]dateutils.Period{
	LabelToday: dateutils.PeriodDay,
	LabelWeek:  dateutils.PeriodWeek,
	LabelMonth: dateutils.PeriodMonth,
	LabelYear:  dateutils.PeriodYear,
}

var periodOrder = []string{LabelToday, LabelWeek, LabelMonth, LabelYear}

// Config is the list of configured sections.
type Config struct {
	Sections []Section `yaml:"sections" validate:"required,min=1"`
}

// Section is one filterable view.
type Section struct {
	Name         string          `yaml:"name" validate:"required"`
	Title        string          `yaml:"title"`
	Resource     models.Resource `yaml:"resource" validate:"required,oneof=accounts third_parties transactions categories"`
	Scope        *Scope          `yaml:"scope,omitempty"`
	SearchFields []string        `yaml:"search_fields"`
	SumFields    []string        `yaml:"sum_fields"`
	Columns      []Column        `yaml:"columns"`
	Facets       []Facet         `yaml:"facets"`
}

// Scope restricts a section to the entities whose field equals a fixed value.
type Scope struct {
	Field string `yaml:"field" validate:"required"`
	Value string `yaml:"value" validate:"required"`
}

// Column is a displayed field.
type Column struct {
	Field string `yaml:"field" validate:"required"`
	Title string `yaml:"title"`
}

// Facet is a named filter dimension.
type Facet struct {
	Name    string      `yaml:"name" validate:"required"`
	Title   string      `yaml:"title"`
	Kind    FacetKind   `yaml:"kind" validate:"required,oneof=equals sign range period"`
	Field   string      `yaml:"field" validate:"required"`
	Values  []string    `yaml:"values,omitempty"`
	Labels  *SignLabels `yaml:"labels,omitempty"`
	Buckets []Bucket    `yaml:"buckets,omitempty"`
}

// SignLabels names the sign buckets. Empty labels fall back to the defaults.
type SignLabels struct {
	Positive string `yaml:"positive"`
	Negative string `yaml:"negative"`
	Zero     string `yaml:"zero"`
}

// Bucket is an amount range. Min is inclusive and Max exclusive; either may be omitted.
type Bucket struct {
	Label string `yaml:"label" validate:"required"`
	Min   string `yaml:"min,omitempty"`
	Max   string `yaml:"max,omitempty"`
}

// Default returns the built-in section configuration.
func Default() (*Config, error) {
	return Parse(defaultConfig)
}

// Load reads and validates a section configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read sections file %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load sections file %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML section configuration and validates it. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse sections: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Lookup returns the section called name.
func (c *Config) Lookup(name string) (Section, bool) {
	for _, s := range c.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// Names returns the section names in configuration order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Sections))
	for _, s := range c.Sections {
		names = append(names, s.Name)
	}
	return names
}

// Facet returns the facet called name.
func (s Section) Facet(name string) (Facet, bool) {
	for _, f := range s.Facets {
		if f.Name == name {
			return f, true
		}
	}
	return Facet{}, false
}

// PrimarySum returns the first summed field, or "" when the section sums nothing.
func (s Section) PrimarySum() string {
	if len(s.SumFields) == 0 {
		return ""
	}
	return s.SumFields[0]
}

// DisplayTitle returns the title, or the name when no title is configured.
func (s Section) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return s.Name
}

// DisplayTitle returns the title, or the name when no title is configured.
func (f Facet) DisplayTitle() string {
	if f.Title != "" {
		return f.Title
	}
	return f.Name
}

// SignLabels returns the effective sign labels.
func (f Facet) SignLabels() SignLabels {
	labels := SignLabels{Positive: LabelPositive, Negative: LabelNegative, Zero: LabelZero}
	if f.Labels == nil {
		return labels
	}
	if f.Labels.Positive != "" {
		labels.Positive = f.Labels.Positive
	}
	if f.Labels.Negative != "" {
		labels.Negative = f.Labels.Negative
	}
	if f.Labels.Zero != "" {
		labels.Zero = f.Labels.Zero
	}
	return labels
}

// Options returns the values a facet can take independently of the data. Equals facets
// return their configured values, which may be empty.
func (f Facet) Options() []string {
	switch f.Kind {
	case FacetSign:
		l := f.SignLabels()
		return []string{l.Positive, l.Negative, l.Zero}
	case FacetRange:
		out := make([]string, 0, len(f.Buckets))
		for _, b := range f.Buckets {
			out = append(out, b.Label)
		}
		return out
	case FacetPeriod:
		return append([]string(nil), periodOrder...)
	default:
		return append([]string(nil), f.Values...)
	}
}

// Bounds parses the bucket limits. A nil bound is open.
func (b Bucket) Bounds() (lo, hi *decimal.Decimal, err error) {
	if b.Min != "" {
		d, err := decimal.NewFromString(b.Min)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid min '%s': %w", b.Min, err)
		}
		lo = &d
	}
	if b.Max != "" {
		d, err := decimal.NewFromString(b.Max)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid max '%s': %w", b.Max, err)
		}
		hi = &d
	}
	return lo, hi, nil
}
