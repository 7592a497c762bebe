package cypher

import "github.com/cypherbridge/cypherbridge/internal/rdf"

// compileSingleAmbiguous handles a single triple whose object variable
// is never used as a subject: structurally the object could be a related
// entity or a scalar property, and there is no schema to decide. Emit a
// two-branch union - one relationship interpretation, one property
// interpretation - with row-compatible columns.
func (c *Compiler) compileSingleAmbiguous(t rdf.TriplePattern, b *Binder) (*query, error) {
	predIRI, ok := rdf.AsIRI(t.P)
	if !ok {
		return nil, errUnsupported("non-IRI predicate %s", t.P)
	}
	if _, ok := rdf.AsLiteral(t.S); ok {
		return nil, errUnsupported("literal in subject position")
	}
	objName, _ := rdf.AsVar(t.O)

	// Relationship interpretation: object is an entity.
	rel := newBranch()
	subjKey := NodeVar(t.S)
	objKey := SanitizeVarName(objName)
	subjPat := nodePattern(rel, subjKey, nil, t.S, b)
	objPat := nodePattern(rel, objKey, nil, t.O, b)
	rel.clauses = append(rel.clauses,
		"MATCH "+subjPat+"-[:"+quoteIdentifier(predIRI)+"]->"+objPat)
	if name, ok := rdf.AsVar(t.S); ok {
		rel.bindVar(name, subjKey+"."+IDKey, BindEntity)
	}
	rel.bindVar(objName, objKey, BindDynamic)

	// Property interpretation: object is the raw property value; the
	// key must be present so the branch only matches subjects that
	// actually carry it.
	prop := newBranch()
	propSubjPat := nodePattern(prop, subjKey, nil, t.S, b)
	prop.clauses = append(prop.clauses, "MATCH "+propSubjPat)
	expr := subjKey + "." + quoteIdentifier(predIRI)
	prop.conds = append(prop.conds, expr+" IS NOT NULL")
	if name, ok := rdf.AsVar(t.S); ok {
		prop.bindVar(name, subjKey+"."+IDKey, BindEntity)
	}
	prop.bindVar(objName, expr, BindScalar)

	return &query{branches: []*branch{rel, prop}}, nil
}
