package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"yamo/treasury/internal/currencyutils"
	"yamo/treasury/internal/dateutils"

	"github.com/shopspring/decimal"
)

// ID is an opaque entity identifier. The backend sends ids as numbers or strings.
type ID string

// Text is a free-form string field. Numbers and booleans are kept as their literal text.
type Text string

// Amount is a monetary value. Valid is false when the backend sent null, an empty string
// or something that is not a number; Value is zero in that case.
type Amount struct {
	Value decimal.Decimal
	Valid bool
}

// Date is a calendar date (optionally with a time). Valid is false when the value was
// missing or unparseable.
type Date struct {
	Time  time.Time
	Valid bool
}

// NewAmount returns a valid Amount.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Value: d, Valid: true}
}

// AmountFromString parses s like the JSON decoder does; malformed input yields an invalid Amount.
func AmountFromString(s string) Amount {
	if strings.TrimSpace(s) == "" {
		return Amount{}
	}
	d, err := currencyutils.ParseAmount(s)
	if err != nil {
		return Amount{}
	}
	return NewAmount(d)
}

// NewDate returns a valid Date.
func NewDate(t time.Time) Date {
	return Date{Time: t, Valid: true}
}

// DateFromString parses s like the JSON decoder does; malformed input yields an invalid Date.
func DateFromString(s string) Date {
	t, _, err := dateutils.ParseDate(s, time.Local)
	if err != nil {
		return Date{}
	}
	return NewDate(t)
}

// lenientString turns any JSON scalar into its text. Objects, arrays and null become "".
func lenientString(b []byte) string {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return ""
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return ""
		}
		return s
	case '{', '[':
		return ""
	default:
		return string(b)
	}
}

// UnmarshalJSON never fails: unexpected shapes decode to "".
func (id *ID) UnmarshalJSON(b []byte) error {
	*id = ID(lenientString(b))
	return nil
}

// UnmarshalJSON never fails: unexpected shapes decode to "".
func (t *Text) UnmarshalJSON(b []byte) error {
	*t = Text(lenientString(b))
	return nil
}

// UnmarshalJSON accepts numbers and numeric strings ("1 234,56"); anything else decodes
// to an invalid zero amount.
func (a *Amount) UnmarshalJSON(b []byte) error {
	*a = Amount{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		*a = AmountFromString(lenientString(b))
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if d, err := decimal.NewFromString(string(b)); err == nil {
			*a = NewAmount(d)
		}
	}
	return nil
}

// MarshalJSON writes a bare JSON number, or null for an invalid amount.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return []byte(a.Value.String()), nil
}

// MarshalCSV writes two decimals, or an empty cell for an invalid amount.
func (a Amount) MarshalCSV() (string, error) {
	if !a.Valid {
		return "", nil
	}
	return currencyutils.FormatPlain(a.Value), nil
}

// UnmarshalCSV parses a cell like AmountFromString.
func (a *Amount) UnmarshalCSV(s string) error {
	*a = AmountFromString(s)
	return nil
}

// UnmarshalJSON accepts the layouts in dateutils.CommonFormats; anything else decodes to
// an invalid date.
func (d *Date) UnmarshalJSON(b []byte) error {
	*d = DateFromString(lenientString(b))
	return nil
}

// MarshalJSON writes the date as text, or null for an invalid date.
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// MarshalCSV writes the date as text, or an empty cell for an invalid date.
func (d Date) MarshalCSV() (string, error) {
	return d.String(), nil
}

// UnmarshalCSV parses a cell like DateFromString.
func (d *Date) UnmarshalCSV(s string) error {
	*d = DateFromString(s)
	return nil
}

// String renders the date as YYYY-MM-DD, with the time when it is not midnight.
func (d Date) String() string {
	if !d.Valid {
		return ""
	}
	if d.Time.Hour() == 0 && d.Time.Minute() == 0 && d.Time.Second() == 0 {
		return d.Time.Format(dateutils.DateLayoutISO)
	}
	return d.Time.Format(dateutils.DateLayoutFull)
}
