package sections

import (
	"fmt"
	"reflect"
	"strings"

	"yamo/treasury/internal/apperror"
	"yamo/treasury/internal/fields"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks a configuration: required keys, known kinds and resources, unique names,
// field names that exist in the resource schema with a kind the facet can use, and usable
// range buckets. It returns an *apperror.ConfigError describing the first problem found.
func Validate(cfg *Config) error {
	if err := structErr("", "", validate.Struct(cfg)); err != nil {
		return err
	}

	seen := make(map[string]bool, len(cfg.Sections))
	for _, s := range cfg.Sections {
		if err := structErr(s.Name, "", validate.Struct(s)); err != nil {
			return err
		}
		if seen[s.Name] {
			return &apperror.ConfigError{Section: s.Name, Reason: "duplicate section name"}
		}
		seen[s.Name] = true

		if err := validateSection(s); err != nil {
			return err
		}
	}
	return nil
}

func validateSection(s Section) error {
	schema, ok := fields.Describe(s.Resource)
	if !ok {
		return &apperror.ConfigError{Section: s.Name, Field: "resource", Reason: fmt.Sprintf("unknown resource '%s'", s.Resource)}
	}

	fieldErr := func(facet, field, reason string) error {
		return &apperror.ConfigError{Section: s.Name, Facet: facet, Field: field, Reason: reason}
	}
	requireField := func(facet, field string, kinds ...fields.Kind) error {
		kind, ok := schema.Kind(field)
		if !ok {
			return fieldErr(facet, field, fmt.Sprintf("unknown field for resource '%s'", s.Resource))
		}
		if len(kinds) == 0 {
			return nil
		}
		for _, k := range kinds {
			if k == kind {
				return nil
			}
		}
		return fieldErr(facet, field, fmt.Sprintf("field is %s, expected %s", kind, kinds[0]))
	}

	if s.Scope != nil {
		if err := structErr(s.Name, "", validate.Struct(s.Scope)); err != nil {
			return err
		}
		if err := requireField("", s.Scope.Field, fields.KindText); err != nil {
			return err
		}
	}
	for _, f := range s.SearchFields {
		if err := requireField("", f); err != nil {
			return err
		}
	}
	for _, f := range s.SumFields {
		if err := requireField("", f, fields.KindAmount); err != nil {
			return err
		}
	}
	for _, c := range s.Columns {
		if err := structErr(s.Name, "", validate.Struct(c)); err != nil {
			return err
		}
		if err := requireField("", c.Field); err != nil {
			return err
		}
	}

	facets := make(map[string]bool, len(s.Facets))
	for _, f := range s.Facets {
		if err := structErr(s.Name, f.Name, validate.Struct(f)); err != nil {
			return err
		}
		if facets[f.Name] {
			return fieldErr(f.Name, "", "duplicate facet name")
		}
		facets[f.Name] = true

		switch f.Kind {
		case FacetEquals:
			if err := requireField(f.Name, f.Field); err != nil {
				return err
			}
		case FacetSign:
			if err := requireField(f.Name, f.Field, fields.KindAmount); err != nil {
				return err
			}
			l := f.SignLabels()
			if l.Positive == l.Negative || l.Positive == l.Zero || l.Negative == l.Zero {
				return fieldErr(f.Name, "labels", "sign labels must be distinct")
			}
		case FacetRange:
			if err := requireField(f.Name, f.Field, fields.KindAmount); err != nil {
				return err
			}
			if err := validateBuckets(s.Name, f); err != nil {
				return err
			}
		case FacetPeriod:
			if err := requireField(f.Name, f.Field, fields.KindDate); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateBuckets(section string, f Facet) error {
	if len(f.Buckets) == 0 {
		return &apperror.ConfigError{Section: section, Facet: f.Name, Field: "buckets", Reason: "range facet needs at least one bucket"}
	}
	labels := make(map[string]bool, len(f.Buckets))
	for _, b := range f.Buckets {
		if err := structErr(section, f.Name, validate.Struct(b)); err != nil {
			return err
		}
		if labels[b.Label] {
			return &apperror.ConfigError{Section: section, Facet: f.Name, Field: "buckets", Reason: fmt.Sprintf("duplicate bucket label '%s'", b.Label)}
		}
		labels[b.Label] = true

		lo, hi, err := b.Bounds()
		if err != nil {
			return &apperror.ConfigError{Section: section, Facet: f.Name, Field: "buckets", Reason: fmt.Sprintf("bucket '%s': %v", b.Label, err)}
		}
		if lo == nil && hi == nil {
			return &apperror.ConfigError{Section: section, Facet: f.Name, Field: "buckets", Reason: fmt.Sprintf("bucket '%s' needs min or max", b.Label)}
		}
		if lo != nil && hi != nil && !lo.LessThan(*hi) {
			return &apperror.ConfigError{Section: section, Facet: f.Name, Field: "buckets", Reason: fmt.Sprintf("bucket '%s' has min >= max", b.Label)}
		}
	}
	return nil
}

// structErr turns the first validator failure into a ConfigError.
func structErr(section, facet string, err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return &apperror.ConfigError{Section: section, Facet: facet, Reason: err.Error()}
	}
	fe := verrs[0]
	var reason string
	switch fe.Tag() {
	case "required":
		reason = "is required"
	case "oneof":
		reason = fmt.Sprintf("'%v' is not one of [%s]", fe.Value(), fe.Param())
	case "min":
		reason = fmt.Sprintf("needs at least %s entries", fe.Param())
	default:
		reason = fmt.Sprintf("failed '%s' check", fe.Tag())
	}
	return &apperror.ConfigError{Section: section, Facet: facet, Field: fe.Field(), Reason: reason}
}
