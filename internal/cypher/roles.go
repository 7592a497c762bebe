package cypher

import "github.com/cypherbridge/cypherbridge/internal/rdf"

// Role is the semantic role a pattern variable plays within one BGP.
type Role uint8

const (
	// RoleNode - the variable is a graph entity. Definitive: a variable
	// bound as a subject anywhere in the BGP, regardless of its other
	// appearances. Structurally only an entity can be a subject.
	RoleNode Role = iota
	// RoleEdgeLabel - the variable occupies a predicate position and is
	// never a subject. Its value (relationship type, property key, or
	// type label) is unknown until evaluation.
	RoleEdgeLabel
	// RoleAmbiguous - the variable appears only in object position. It
	// could denote a related entity or a scalar property value; the
	// compiler has no schema to decide statically.
	RoleAmbiguous
)

// String returns a diagnostic name for the role.
func (r Role) String() string {
	switch r {
	case RoleNode:
		return "NODE"
	case RoleEdgeLabel:
		return "EDGE-LABEL"
	case RoleAmbiguous:
		return "AMBIGUOUS"
	default:
		return "UNKNOWN"
	}
}

// AnalyzeRoles classifies every variable appearing anywhere in the BGP.
// Single pass, pure. Classification priority: subject appearance wins
// over predicate appearance wins over object appearance.
//
// Fails with EmptyPattern when the BGP has no triples.
func AnalyzeRoles(bgp rdf.BGP) (map[string]Role, error) {
	if bgp.Empty() {
		return nil, errEmpty("basic graph pattern has no triples")
	}

	subjects := make(map[string]struct{})
	predicates := make(map[string]struct{})
	objects := make(map[string]struct{})

	for _, t := range bgp {
		if name, ok := rdf.AsVar(t.S); ok {
			subjects[name] = struct{}{}
		}
		if name, ok := rdf.AsVar(t.P); ok {
			predicates[name] = struct{}{}
		}
		if name, ok := rdf.AsVar(t.O); ok {
			objects[name] = struct{}{}
		}
	}

	roles := make(map[string]Role)
	for name := range subjects {
		roles[name] = RoleNode
	}
	for name := range predicates {
		if _, seen := roles[name]; !seen {
			roles[name] = RoleEdgeLabel
		}
	}
	for name := range objects {
		if _, seen := roles[name]; !seen {
			roles[name] = RoleAmbiguous
		}
	}
	return roles, nil
}
