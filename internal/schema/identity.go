package schema

// RowIDColumn is the name of the implicit per-row identifier exposed by
// rowid tables. It is never a user column and is excluded from exports.
const RowIDColumn = "rowid"

// IdentityKind classifies how rows of a table are uniquely addressed.
type IdentityKind int

const (
	// IdentityNone means the table has no usable row address. Row-level
	// delete is disallowed; schema-level operations remain legal.
	IdentityNone IdentityKind = iota

	// IdentityExplicitPK addresses rows by the declared primary key.
	IdentityExplicitPK

	// IdentityImplicitRowID addresses rows by the implicit rowid.
	IdentityImplicitRowID
)

// String returns the kind name.
func (k IdentityKind) String() string {
	switch k {
	case IdentityExplicitPK:
		return "primary key"
	case IdentityImplicitRowID:
		return "rowid"
	default:
		return "none"
	}
}

// RowIdentity is the immutable per-table descriptor of the column(s)
// that uniquely address a row.
type RowIdentity struct {
	Kind    IdentityKind
	Columns []string
}

// Usable reports whether rows can be addressed at all.
func (id RowIdentity) Usable() bool { return id.Kind != IdentityNone }

// Contains reports whether the named column is part of the identity.
// Identity columns are never user-editable.
func (id RowIdentity) Contains(col string) bool {
	for _, c := range id.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// ResolveIdentity decides the row identity for a table. Resolution is
// total: it always returns one of the three kinds and never fails.
// Declared primary key columns win over the implicit rowid so that the
// address survives VACUUM and dump/restore cycles.
func ResolveIdentity(t *Table) RowIdentity {
	if len(t.PKColumns) > 0 {
		cols := make([]string, len(t.PKColumns))
		copy(cols, t.PKColumns)
		return RowIdentity{Kind: IdentityExplicitPK, Columns: cols}
	}
	if t.HasRowID {
		return RowIdentity{Kind: IdentityImplicitRowID, Columns: []string{RowIDColumn}}
	}
	return RowIdentity{Kind: IdentityNone}
}
