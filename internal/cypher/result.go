package cypher

import "github.com/cypherbridge/cypherbridge/internal/rdf"

// BindingKind tells the execution adapter how to interpret the values of
// one output column.
type BindingKind uint8

const (
	// BindEntity - the column holds an entity identity (a uri string);
	// wrap it back into an IRI term.
	BindEntity BindingKind = iota
	// BindScalar - the column holds a raw scalar property value.
	BindScalar
	// BindDynamic - the column's branches disagree (node in one, scalar
	// in another); inspect the runtime value shape per row.
	BindDynamic
)

// String returns a diagnostic name for the kind.
func (k BindingKind) String() string {
	switch k {
	case BindEntity:
		return "entity"
	case BindScalar:
		return "scalar"
	case BindDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// Binding maps one pattern variable to its output column and the
// representative return expression that produces it.
type Binding struct {
	Column string
	Expr   string
	Kind   BindingKind
}

// Result is the immutable outcome of one successful compile call:
// the composite query text, the typed parameter map, and the
// variable-binding map. Never mutated after construction.
type Result struct {
	Query    string
	Params   map[string]rdf.Value
	Bindings map[string]Binding

	// Branches counts the union branches in Query. Aggregation pushdown
	// is only valid over a single branch.
	Branches int
}
