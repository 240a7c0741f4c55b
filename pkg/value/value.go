// Package value provides the closed value domain for table cells.
// A cell holds exactly one of: null, integer, real, or text. Values
// arrive from two directions, scanned out of the database or typed by
// a user as a string, and both are normalized here.
package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which member of the value sum a Value holds.
type Kind int

const (
	// KindNull is the SQL NULL value.
	KindNull Kind = iota

	// KindInteger is a 64-bit signed integer.
	KindInteger

	// KindReal is a 64-bit floating point number.
	KindReal

	// KindText is a UTF-8 string.
	KindText
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Value is one cell value. The zero Value is NULL.
type Value struct {
	kind Kind
	i    int64
	r    float64
	s    string
}

// Null returns the NULL value.
func Null() Value { return Value{kind: KindNull} }

// Integer returns an integer value.
func Integer(i int64) Value { return Value{kind: KindInteger, i: i} }

// Real returns a real value.
func Real(r float64) Value { return Value{kind: KindReal, r: r} }

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Kind returns which member of the sum this value holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Int returns the integer member. Only meaningful when Kind is KindInteger.
func (v Value) Int() int64 { return v.i }

// Float returns the real member. Only meaningful when Kind is KindReal.
func (v Value) Float() float64 { return v.r }

// Str returns the text member. Only meaningful when Kind is KindText.
func (v Value) Str() string { return v.s }

// Arg returns the value in the form expected by database/sql parameter
// binding: nil, int64, float64, or string.
func (v Value) Arg() interface{} {
	switch v.kind {
	case KindInteger:
		return v.i
	case KindReal:
		return v.r
	case KindText:
		return v.s
	default:
		return nil
	}
}

// NullToken is the display form of NULL shown to users, and one of the
// spellings accepted back on edit.
const NullToken = "<NULL>"

// String returns the display form of the value. NULL renders as NullToken.
func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindReal:
		return strconv.FormatFloat(v.r, 'g', -1, 64)
	case KindText:
		return v.s
	default:
		return NullToken
	}
}

// Equal reports observable equality between two values. Integers and
// reals compare within their own kind only; an integer 1 and a real
// 1.0 are distinct observable states.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInteger:
		return v.i == o.i
	case KindReal:
		return v.r == o.r
	case KindText:
		return v.s == o.s
	default:
		return true
	}
}

// FromScan normalizes a value scanned from the database driver into a
// Value. The SQLite driver yields nil, int64, float64, string, or
// []byte depending on the stored type.
func FromScan(raw interface{}) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case int64:
		return Integer(x), nil
	case float64:
		return Real(x), nil
	case string:
		return Text(x), nil
	case []byte:
		// BLOB columns and expression results arrive as bytes;
		// the editor treats them as text.
		return Text(string(x)), nil
	case bool:
		if x {
			return Integer(1), nil
		}
		return Integer(0), nil
	default:
		return Null(), fmt.Errorf("value: unsupported scan type %T", raw)
	}
}

// Coerce parses the external string form of a cell edit according to
// the column's type affinity. The tokens "NULL" and "<NULL>" (case
// insensitive) coerce to the NULL value regardless of affinity.
func Coerce(input string, aff Affinity) (Value, error) {
	upper := strings.ToUpper(strings.TrimSpace(input))
	if upper == "NULL" || upper == strings.ToUpper(NullToken) {
		return Null(), nil
	}

	switch aff {
	case AffinityInteger:
		i, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
		if err != nil {
			return Null(), fmt.Errorf("value: %q is not a whole number", input)
		}
		return Integer(i), nil
	case AffinityReal:
		r, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
		if err != nil {
			return Null(), fmt.Errorf("value: %q is not a number", input)
		}
		return Real(r), nil
	default:
		return Text(input), nil
	}
}
