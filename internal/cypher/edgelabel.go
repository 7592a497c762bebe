package cypher

import (
	"strings"

	"github.com/cypherbridge/cypherbridge/internal/algebra"
	"github.com/cypherbridge/cypherbridge/internal/rdf"
)

// compileEdgeLabel handles a single triple whose predicate is a
// variable. Its value is unknown until evaluation, so the compiler
// cannot know whether the match is a relationship traversal, a property
// lookup, or a type check. Three unioned branches cover the cases:
//
//  1. relationship: subject-[r]->object for any edge type, binding the
//     predicate to type(r)
//  2. property: enumerate the subject's property keys (minus the
//     reserved identity key), binding predicate/object to each key/value
//  3. type: enumerate the subject's labels (minus the base label),
//     binding the predicate to the fixed rdf:type IRI
//
// When the accompanying filter pins the predicate to a concrete key set
// (equality, membership, or OR-of-equalities), the property branch
// enumerates that list instead of all keys. Narrowing is conservative -
// an inconclusive extraction keeps the full enumeration - and the filter
// itself is still distributed to every branch afterwards.
func (c *Compiler) compileEdgeLabel(t rdf.TriplePattern, roles map[string]Role, filter algebra.Expr, b *Binder) (*query, error) {
	predName, _ := rdf.AsVar(t.P)
	if roles[predName] != RoleEdgeLabel {
		return nil, errUnsupported("predicate variable ?%s also used as a subject", predName)
	}
	if _, ok := rdf.AsLiteral(t.S); ok {
		return nil, errUnsupported("literal in subject position")
	}
	objName, objIsVar := rdf.AsVar(t.O)
	if !objIsVar {
		return nil, errUnsupported("bound object with a variable predicate")
	}
	if objName == predName {
		return nil, errUnsupported("predicate variable ?%s reused in object position", predName)
	}
	// A self-referential object is only expressible in the relationship
	// branch; the property and label enumerations cannot constrain the
	// enumerated value back to the subject.
	if sName, ok := rdf.AsVar(t.S); ok && sName == objName {
		return nil, errUnsupported("object variable ?%s reused in subject position", objName)
	}

	subjKey := NodeVar(t.S)
	relKey := SanitizeVarName(predName)
	edgeVar := "r_" + relKey
	keyVar := "k_" + relKey
	labelVar := "lbl_" + relKey
	narrowKeys := extractKeyConstraints(filter, predName)

	bindSubject := func(br *branch) {
		if name, ok := rdf.AsVar(t.S); ok {
			br.bindVar(name, subjKey+"."+IDKey, BindEntity)
		}
	}

	// Branch 1: relationship traversal.
	rel := newBranch()
	objKey := SanitizeVarName(objName)
	subjPat := nodePattern(rel, subjKey, nil, t.S, b)
	objPat := nodePattern(rel, objKey, nil, t.O, b)
	rel.clauses = append(rel.clauses,
		"MATCH "+subjPat+"-["+edgeVar+"]->"+objPat)
	bindSubject(rel)
	rel.bindVar(predName, "type("+edgeVar+")", BindEntity)
	rel.bindVar(objName, objKey, BindDynamic)

	// Branch 2: property enumeration. The trailing WITH re-scopes the
	// row so a distributed filter's WHERE can legally follow the UNWIND.
	prop := newBranch()
	propSubjPat := nodePattern(prop, subjKey, nil, t.S, b)
	prop.clauses = append(prop.clauses, "MATCH "+propSubjPat)
	if len(narrowKeys) > 0 {
		quoted := make([]string, len(narrowKeys))
		for i, k := range narrowKeys {
			quoted[i] = rdf.String(k).Render()
		}
		prop.clauses = append(prop.clauses,
			"UNWIND ["+strings.Join(quoted, ", ")+"] AS "+keyVar,
			"WITH "+subjKey+", "+keyVar)
		prop.conds = append(prop.conds, subjKey+"["+keyVar+"] IS NOT NULL")
	} else {
		prop.clauses = append(prop.clauses,
			"UNWIND [k IN keys("+subjKey+") WHERE k <> '"+IDKey+"'] AS "+keyVar,
			"WITH "+subjKey+", "+keyVar)
	}
	bindSubject(prop)
	prop.bindVar(predName, keyVar, BindEntity)
	prop.bindVar(objName, subjKey+"["+keyVar+"]", BindScalar)

	// Branch 3: label enumeration, bound to the fixed rdf:type IRI.
	typ := newBranch()
	typSubjPat := nodePattern(typ, subjKey, nil, t.S, b)
	typ.clauses = append(typ.clauses,
		"MATCH "+typSubjPat,
		"UNWIND [l IN labels("+subjKey+") WHERE l <> '"+BaseLabel+"'] AS "+labelVar,
		"WITH "+subjKey+", "+labelVar)
	bindSubject(typ)
	typ.bindVar(predName, rdf.String(rdf.TypeIRI).Render(), BindEntity)
	typ.bindVar(objName, labelVar, BindEntity)

	return &query{branches: []*branch{rel, prop, typ}}, nil
}
