package store

import (
	"strings"

	"github.com/gridb/gridb/internal/errors"
)

// reservedWords is the set of SQLite keywords rejected as identifiers.
// The underlying query language cannot parameterize identifiers, so a
// table or column name that must be interpolated is first checked
// against this list and the character allow-list below.
var reservedWords = map[string]struct{}{
	"abort": {}, "action": {}, "add": {}, "after": {}, "all": {},
	"alter": {}, "analyze": {}, "and": {}, "as": {}, "asc": {},
	"attach": {}, "autoincrement": {}, "before": {}, "begin": {},
	"between": {}, "by": {}, "cascade": {}, "case": {}, "cast": {},
	"check": {}, "collate": {}, "column": {}, "commit": {},
	"conflict": {}, "constraint": {}, "create": {}, "cross": {},
	"current_date": {}, "current_time": {}, "current_timestamp": {},
	"database": {}, "default": {}, "deferrable": {}, "deferred": {},
	"delete": {}, "desc": {}, "detach": {}, "distinct": {}, "drop": {},
	"each": {}, "else": {}, "end": {}, "escape": {}, "except": {},
	"exclusive": {}, "exists": {}, "explain": {}, "fail": {}, "for": {},
	"foreign": {}, "from": {}, "full": {}, "glob": {}, "group": {},
	"having": {}, "if": {}, "ignore": {}, "immediate": {}, "in": {},
	"index": {}, "indexed": {}, "initially": {}, "inner": {},
	"insert": {}, "instead": {}, "intersect": {}, "into": {}, "is": {},
	"isnull": {}, "join": {}, "key": {}, "left": {}, "like": {},
	"limit": {}, "match": {}, "natural": {}, "no": {}, "not": {},
	"notnull": {}, "null": {}, "of": {}, "offset": {}, "on": {},
	"or": {}, "order": {}, "outer": {}, "plan": {}, "pragma": {},
	"primary": {}, "query": {}, "raise": {}, "recursive": {},
	"references": {}, "regexp": {}, "reindex": {}, "release": {},
	"rename": {}, "replace": {}, "restrict": {}, "right": {},
	"rollback": {}, "row": {}, "savepoint": {}, "select": {}, "set": {},
	"table": {}, "temp": {}, "temporary": {}, "then": {}, "to": {},
	"transaction": {}, "trigger": {}, "union": {}, "unique": {},
	"update": {}, "using": {}, "vacuum": {}, "values": {}, "view": {},
	"virtual": {}, "when": {}, "where": {}, "with": {}, "without": {},
}

// ValidateIdentifier checks a table or column name against the strict
// allow-list: ASCII letters, digits, and underscore; must not start
// with a digit; must not be a reserved word. Returns an
// InvalidIdentifier error on rejection.
func ValidateIdentifier(name string) error {
	if name == "" {
		return errors.InvalidIdentifierf("identifier is empty")
	}
	for i, r := range name {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return errors.InvalidIdentifierf("identifier %q starts with a digit", name)
			}
		default:
			return errors.InvalidIdentifierf("identifier %q contains %q", name, string(r))
		}
	}
	if _, ok := reservedWords[strings.ToLower(name)]; ok {
		return errors.InvalidIdentifierf("identifier %q is a reserved word", name)
	}
	return nil
}

// typeKeywords is the set of declared column types accepted by
// schema-level operations. Free-form type text would otherwise have to
// be interpolated into DDL.
var typeKeywords = map[string]struct{}{
	"INTEGER": {}, "INT": {}, "REAL": {}, "FLOAT": {}, "DOUBLE": {},
	"TEXT": {}, "VARCHAR": {}, "BLOB": {}, "NUMERIC": {}, "BOOLEAN": {},
	"DATE": {}, "DATETIME": {},
}

// ValidateTypeName checks a declared column type against the keyword
// allow-list, returning the canonical upper-case spelling.
func ValidateTypeName(declared string) (string, error) {
	canonical := strings.ToUpper(strings.TrimSpace(declared))
	if canonical == "" {
		return "", errors.InvalidIdentifierf("column type is empty")
	}
	if _, ok := typeKeywords[canonical]; !ok {
		return "", errors.InvalidIdentifierf("column type %q is not supported", declared)
	}
	return canonical, nil
}
