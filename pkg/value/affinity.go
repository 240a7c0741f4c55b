package value

import "strings"

// Affinity is the loose type category a column declares. It decides how
// edited text is coerced into a value; it never constrains what the
// database actually stores.
type Affinity int

const (
	// AffinityText stores edits as text. This is the fallback for
	// unknown or blank declared types.
	AffinityText Affinity = iota

	// AffinityInteger parses edits as whole numbers.
	AffinityInteger

	// AffinityReal parses edits as floating point numbers.
	AffinityReal
)

// String returns the affinity name.
func (a Affinity) String() string {
	switch a {
	case AffinityInteger:
		return "INTEGER"
	case AffinityReal:
		return "REAL"
	default:
		return "TEXT"
	}
}

// AffinityOf classifies a declared column type. The rules follow
// SQLite's substring matching: any type mentioning INT is integer;
// REAL, FLOA, or DOUB is real; everything else, including an empty
// declaration, is text.
func AffinityOf(declaredType string) Affinity {
	t := strings.ToUpper(declaredType)
	switch {
	case strings.Contains(t, "INT"):
		return AffinityInteger
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"):
		return AffinityReal
	default:
		return AffinityText
	}
}
