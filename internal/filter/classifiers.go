package filter

import (
	"strings"
	"time"

	"yamo/treasury/internal/dateutils"
	"yamo/treasury/internal/fields"
	"yamo/treasury/internal/sections"

	"github.com/shopspring/decimal"
)

// Equals matches when the field, trimmed and case-folded, equals the selected value.
func Equals[T any](get fields.Accessor[T]) Classifier[T] {
	return func(item T, value string) bool {
		v := get(item)
		if !v.Valid {
			return false
		}
		return Fold(strings.TrimSpace(v.String())) == Fold(strings.TrimSpace(value))
	}
}

// Sign buckets an amount: positive, negative or exactly zero. Labels compare like Equals.
// Invalid amounts match nothing.
func Sign[T any](get fields.Accessor[T], labels sections.SignLabels) Classifier[T] {
	positive, negative, zero := label(labels.Positive), label(labels.Negative), label(labels.Zero)
	return func(item T, value string) bool {
		v := get(item)
		if !v.Valid {
			return false
		}
		switch label(value) {
		case positive:
			return v.Amount.Sign() > 0
		case negative:
			return v.Amount.Sign() < 0
		case zero:
			return v.Amount.IsZero()
		}
		return false
	}
}

// label normalizes a facet value label for lookup.
func label(s string) string {
	return Fold(strings.TrimSpace(s))
}

type bucket struct {
	lo, hi *decimal.Decimal
}

// Range buckets an amount into [min, max) ranges keyed by label.
func Range[T any](get fields.Accessor[T], buckets []sections.Bucket) (Classifier[T], error) {
	ranges := make(map[string]bucket, len(buckets))
	for _, b := range buckets {
		lo, hi, err := b.Bounds()
		if err != nil {
			return nil, err
		}
		ranges[label(b.Label)] = bucket{lo: lo, hi: hi}
	}
	return func(item T, value string) bool {
		r, ok := ranges[label(value)]
		if !ok {
			return false
		}
		v := get(item)
		if !v.Valid {
			return false
		}
		if r.lo != nil && v.Amount.LessThan(*r.lo) {
			return false
		}
		if r.hi != nil && !v.Amount.LessThan(*r.hi) {
			return false
		}
		return true
	}, nil
}

// Period buckets a date into the calendar window around now().
func Period[T any](get fields.Accessor[T], now func() time.Time) Classifier[T] {
	periods := make(map[string]dateutils.Period, len(sections.PeriodLabels))
	for l, p := range sections.PeriodLabels {
		periods[label(l)] = p
	}
	return func(item T, value string) bool {
		p, ok := periods[label(value)]
		if !ok {
			return false
		}
		v := get(item)
		if !v.Valid {
			return false
		}
		return dateutils.Within(p, v.Time, now())
	}
}
