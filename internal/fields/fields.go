// Package fields maps the backend field names of each entity to typed accessors, so that
// names listed in the section configuration are checked once at load time.
package fields

import (
	"sort"
	"time"

	"yamo/treasury/internal/models"

	"github.com/shopspring/decimal"
)

// Kind is the type of value an accessor yields.
type Kind string

const (
	KindText   Kind = "text"
	KindAmount Kind = "amount"
	KindDate   Kind = "date"
)

// Value is a field value read from an entity. Invalid amounts and dates carry Valid=false.
type Value struct {
	Kind   Kind
	Text   string
	Amount decimal.Decimal
	Time   time.Time
	Valid  bool
}

// TextValue wraps a string.
func TextValue(s string) Value {
	return Value{Kind: KindText, Text: s, Valid: true}
}

// AmountValue wraps a models.Amount.
func AmountValue(a models.Amount) Value {
	return Value{Kind: KindAmount, Amount: a.Value, Valid: a.Valid}
}

// DateValue wraps a models.Date.
func DateValue(d models.Date) Value {
	return Value{Kind: KindDate, Time: d.Time, Valid: d.Valid}
}

// String renders the value for search and display. Invalid values render as "".
func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	switch v.Kind {
	case KindAmount:
		return v.Amount.String()
	case KindDate:
		return models.NewDate(v.Time).String()
	default:
		return v.Text
	}
}

// Accessor reads one field of an entity.
type Accessor[T any] func(T) Value

// Field is a named accessor with its kind.
type Field[T any] struct {
	Name string
	Kind Kind
	Get  Accessor[T]
}

// Descriptor exposes a schema without its entity type.
type Descriptor interface {
	Resource() models.Resource
	Kind(name string) (Kind, bool)
	Names() []string
}

// Schema holds the accessors of one entity type keyed by backend field name.
type Schema[T any] struct {
	resource models.Resource
	fields   map[string]Field[T]
}

// NewSchema builds a schema from a list of fields. Later fields override earlier ones
// with the same name.
func NewSchema[T any](resource models.Resource, fields ...Field[T]) Schema[T] {
	s := Schema[T]{resource: resource, fields: make(map[string]Field[T], len(fields))}
	for _, f := range fields {
		s.fields[f.Name] = f
	}
	return s
}

// Resource returns the backend collection the schema describes.
func (s Schema[T]) Resource() models.Resource {
	return s.resource
}

// Lookup returns the field called name.
func (s Schema[T]) Lookup(name string) (Field[T], bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Kind returns the kind of the field called name.
func (s Schema[T]) Kind(name string) (Kind, bool) {
	f, ok := s.fields[name]
	return f.Kind, ok
}

// Names returns the field names in alphabetical order.
func (s Schema[T]) Names() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Text declares a text field.
func Text[T any](name string, get func(T) models.Text) Field[T] {
	return Field[T]{Name: name, Kind: KindText, Get: func(item T) Value { return TextValue(string(get(item))) }}
}

// ID declares an identifier field. Identifiers behave as text.
func ID[T any](name string, get func(T) models.ID) Field[T] {
	return Field[T]{Name: name, Kind: KindText, Get: func(item T) Value { return TextValue(string(get(item))) }}
}

// Amount declares a monetary field.
func Amount[T any](name string, get func(T) models.Amount) Field[T] {
	return Field[T]{Name: name, Kind: KindAmount, Get: func(item T) Value { return AmountValue(get(item)) }}
}

// Date declares a date field.
func Date[T any](name string, get func(T) models.Date) Field[T] {
	return Field[T]{Name: name, Kind: KindDate, Get: func(item T) Value { return DateValue(get(item)) }}
}
