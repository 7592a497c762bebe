package rdf

import "strings"

// TypeIRI is the reflexive "is-a" predicate. Triples using it as a bound
// predicate constrain the subject's label rather than matching an edge.
const TypeIRI = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

// TriplePattern is one subject-predicate-object pattern. Each slot holds
// either a bound constant or a Var.
type TriplePattern struct {
	S Term
	P Term
	O Term
}

// String returns the pattern in surface form, e.g. "?p <...#type> ?o".
func (t TriplePattern) String() string {
	var b strings.Builder
	b.WriteString(t.S.String())
	b.WriteByte(' ')
	b.WriteString(t.P.String())
	b.WriteByte(' ')
	b.WriteString(t.O.String())
	return b.String()
}

// IsTypeTriple reports whether the pattern's predicate is the bound
// rdf:type IRI.
func (t TriplePattern) IsTypeTriple() bool {
	iri, ok := AsIRI(t.P)
	return ok && iri == TypeIRI
}

// BGP is a basic graph pattern: an ordered, non-empty conjunction of
// triple patterns (implicit join over shared variables).
//
// BGPs are created by the host query planner and consumed read-only by
// the compiler; they are never mutated after construction.
type BGP []TriplePattern

// Size returns the number of triple patterns.
func (b BGP) Size() int { return len(b) }

// Empty reports whether the BGP has no triple patterns.
func (b BGP) Empty() bool { return len(b) == 0 }

// Vars returns the set of variable names appearing anywhere in the BGP.
func (b BGP) Vars() map[string]struct{} {
	vars := make(map[string]struct{})
	for _, t := range b {
		for _, term := range []Term{t.S, t.P, t.O} {
			if name, ok := AsVar(term); ok {
				vars[name] = struct{}{}
			}
		}
	}
	return vars
}

// SubjectVars returns the set of variable names appearing in subject
// position anywhere in the BGP.
func (b BGP) SubjectVars() map[string]struct{} {
	vars := make(map[string]struct{})
	for _, t := range b {
		if name, ok := AsVar(t.S); ok {
			vars[name] = struct{}{}
		}
	}
	return vars
}
