package algebra

import (
	"strings"

	"github.com/cypherbridge/cypherbridge/internal/rdf"
)

// Expr is a filter expression node.
//
// This is a sealed interface - only types in this package implement it.
// The supported operator set is deliberately small:
//
//   - Compare: <, <=, >, >=, =, <> over two sub-expressions
//   - And / Or / Not: boolean connectives
//   - In: set membership of a sub-expression in a constant list
//   - FuncCall: an opaque function identified by IRI (spatial predicates
//     are recognized here by namespace prefix)
//   - VarRef / Const: leaves
//
// Anything outside this set is not representable, which keeps "expression
// language we cannot translate" a construction-time concern instead of a
// compile-time surprise.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// CompareOp enumerates the comparison operators.
type CompareOp uint8

const (
	OpLt CompareOp = iota
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
)

// String returns the operator's target-language spelling.
func (op CompareOp) String() string {
	switch op {
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpEq:
		return "="
	case OpNe:
		return "<>"
	default:
		return "?"
	}
}

// VarRef is a leaf referencing a pattern variable by name.
type VarRef struct {
	Name string
}

func (VarRef) exprNode() {}

// Const is a leaf holding a typed constant.
type Const struct {
	Value rdf.Value
}

func (Const) exprNode() {}

// Compare is a binary comparison.
type Compare struct {
	Op    CompareOp
	Left  Expr
	Right Expr
}

func (Compare) exprNode() {}

// And is the boolean conjunction of two expressions.
type And struct {
	Left  Expr
	Right Expr
}

func (And) exprNode() {}

// Or is the boolean disjunction of two expressions.
type Or struct {
	Left  Expr
	Right Expr
}

func (Or) exprNode() {}

// Not negates an expression.
type Not struct {
	Expr Expr
}

func (Not) exprNode() {}

// In tests membership of an expression's value in a constant list.
type In struct {
	Expr   Expr
	Values []rdf.Value
}

func (In) exprNode() {}

// FuncCall is an opaque function call identified by IRI with positional
// arguments. The compiler only understands calls whose IRI carries the
// spatial function namespace; everything else is an unsupported shape.
type FuncCall struct {
	IRI  string
	Args []Expr
}

func (FuncCall) exprNode() {}

// SpatialFnPrefix is the namespace prefix marking a FuncCall as a
// geospatial predicate.
const SpatialFnPrefix = "http://www.opengis.net/def/function/geosparql/"

// IsSpatial reports whether the call is a recognized geospatial predicate.
func (f FuncCall) IsSpatial() bool {
	return strings.HasPrefix(f.IRI, SpatialFnPrefix)
}

// SpatialName returns the function's local name under the spatial
// namespace, e.g. "sfWithin". Empty when the call is not spatial.
func (f FuncCall) SpatialName() string {
	if !f.IsSpatial() {
		return ""
	}
	return strings.TrimPrefix(f.IRI, SpatialFnPrefix)
}
