package rdf

import "fmt"

// TermKind identifies the kind of a term occupying a triple-pattern slot.
type TermKind uint8

const (
	// KindVar is an unbound pattern variable.
	KindVar TermKind = iota
	// KindIRI is a bound IRI/URI constant.
	KindIRI
	// KindLiteral is a bound literal scalar.
	KindLiteral
	// KindBlankNode is a bound blank node.
	KindBlankNode
)

// Term is a value occupying one slot of a triple pattern.
//
// This is a sealed interface - only Var, IRI, Literal, and BlankNode
// implement it. The marker method pattern prevents external
// implementations and enables exhaustive type switches in the compiler.
type Term interface {
	term() // Marker method - seals interface to this package
	Kind() TermKind
	String() string
}

// Var is an unbound pattern variable, identified by name (without the
// leading "?" of the surface syntax).
type Var struct {
	Name string
}

func (Var) term() {}

// Kind returns KindVar.
func (Var) Kind() TermKind { return KindVar }

// String returns the variable in surface form, e.g. "?person".
func (v Var) String() string { return "?" + v.Name }

// IRI is a bound IRI/URI constant.
type IRI struct {
	Value string
}

func (IRI) term() {}

// Kind returns KindIRI.
func (IRI) Kind() TermKind { return KindIRI }

// String returns the IRI in angle-bracket form.
func (i IRI) String() string { return "<" + i.Value + ">" }

// Literal is a bound literal scalar with its lexical form.
// Datatype and Lang are optional and carried for diagnostics only;
// the compiler parameterizes the typed Value, never the lexical form.
type Literal struct {
	Lexical  string
	Datatype string
	Lang     string

	// Value is the typed parameter value used when the literal must be
	// passed to the graph engine. Nil means "string with Lexical form".
	Value Value
}

func (Literal) term() {}

// Kind returns KindLiteral.
func (Literal) Kind() TermKind { return KindLiteral }

// String returns a quoted representation of the literal. The implicit
// xsd:string datatype is suppressed, as in Turtle surface syntax.
func (l Literal) String() string {
	if l.Lang != "" {
		return fmt.Sprintf("%q@%s", l.Lexical, l.Lang)
	}
	if l.Datatype != "" && l.Datatype != XSDString {
		return fmt.Sprintf("%q^^<%s>", l.Lexical, l.Datatype)
	}
	return fmt.Sprintf("%q", l.Lexical)
}

// ParamValue returns the typed value to bind when this literal appears
// as a query parameter. Falls back to the lexical form as a string.
func (l Literal) ParamValue() Value {
	if l.Value != nil {
		return l.Value
	}
	return String(l.Lexical)
}

// BlankNode is a bound blank node, identified by label.
type BlankNode struct {
	Label string
}

func (BlankNode) term() {}

// Kind returns KindBlankNode.
func (BlankNode) Kind() TermKind { return KindBlankNode }

// String returns the blank node in surface form, e.g. "_:b0".
func (b BlankNode) String() string { return "_:" + b.Label }

// AsVar reports whether t is a pattern variable and returns its name.
func AsVar(t Term) (string, bool) {
	v, ok := t.(Var)
	if !ok {
		return "", false
	}
	return v.Name, true
}

// AsIRI reports whether t is a bound IRI and returns its value.
func AsIRI(t Term) (string, bool) {
	i, ok := t.(IRI)
	if !ok {
		return "", false
	}
	return i.Value, true
}

// AsLiteral reports whether t is a bound literal.
func AsLiteral(t Term) (Literal, bool) {
	l, ok := t.(Literal)
	return l, ok
}

// AsBlankNode reports whether t is a blank node and returns its label.
func AsBlankNode(t Term) (string, bool) {
	b, ok := t.(BlankNode)
	if !ok {
		return "", false
	}
	return b.Label, true
}
