package cypher

import (
	"github.com/cypherbridge/cypherbridge/internal/algebra"
	"github.com/cypherbridge/cypherbridge/internal/rdf"
)

// CompileWithOptional compiles a required BGP plus an optional BGP
// (SPARQL OPTIONAL). The required pattern compiles normally and the
// filter is incorporated first; the optional pattern's triples follow as
// optional-match clauses with literal-leaning semantics: any optional
// object variable not used as a subject anywhere is treated as a scalar
// property, not as an ambiguous union - OPTIONAL context has no second
// chance to retry structurally.
func (c *Compiler) CompileWithOptional(required, optional rdf.BGP, filter algebra.Expr) (*Result, error) {
	if optional.Empty() {
		return nil, errEmpty("optional graph pattern has no triples")
	}
	b := NewBinder()
	q, err := c.compileQuery(required, filter, b)
	if err != nil {
		return nil, err
	}
	if filter != nil {
		// The filter condition precedes the optional clauses, so it may
		// only reference required-side variables; anything else is a
		// MissingBinding and the adapter falls back.
		if err := c.distributeFilter(q, filter, b); err != nil {
			return nil, err
		}
	}
	if err := c.incorporateOptional(q, required, optional, b); err != nil {
		return nil, err
	}
	return assemble(q, b)
}

func (c *Compiler) incorporateOptional(q *query, required, optional rdf.BGP, b *Binder) error {
	varPreds := 0
	for _, t := range optional {
		if _, ok := rdf.AsVar(t.P); ok {
			varPreds++
		}
	}
	switch {
	case varPreds > 1:
		return errUnsupported("multiple variable predicates in optional pattern")
	case varPreds == 1 && optional.Size() > 1:
		return errUnsupported("variable predicate in a multi-triple optional pattern")
	case varPreds == 1:
		return c.expandOptionalEdgeLabel(q, optional[0], b)
	}

	// Subject appearances across BOTH patterns decide whether an
	// optional object variable leans entity or literal.
	subjects := required.SubjectVars()
	for name := range optional.SubjectVars() {
		subjects[name] = struct{}{}
	}

	for _, br := range q.branches {
		for _, t := range optional {
			if err := c.optionalTriple(br, t, subjects, b); err != nil {
				return err
			}
		}
	}
	return nil
}

// optionalTriple appends one optional triple to a branch.
func (c *Compiler) optionalTriple(br *branch, t rdf.TriplePattern, subjects map[string]struct{}, b *Binder) error {
	if _, ok := rdf.AsLiteral(t.S); ok {
		return errUnsupported("literal in subject position")
	}
	subjKey := NodeVar(t.S)

	if t.IsTypeTriple() {
		typeIRI, ok := rdf.AsIRI(t.O)
		if !ok {
			return errUnsupported("non-constant type in rdf:type object position")
		}
		label := quoteIdentifier(typeIRI)
		if br.isDeclared(subjKey) {
			br.optClauses = append(br.optClauses, "OPTIONAL MATCH ("+subjKey+":"+label+")")
		} else {
			br.optClauses = append(br.optClauses,
				"OPTIONAL MATCH "+nodePattern(br, subjKey, []string{SanitizeIdentifier(typeIRI)}, t.S, b))
			if name, ok := rdf.AsVar(t.S); ok {
				br.bindVar(name, subjKey+"."+IDKey, BindEntity)
			}
		}
		return nil
	}

	predIRI, ok := rdf.AsIRI(t.P)
	if !ok {
		return errUnsupported("non-IRI predicate %s", t.P)
	}

	switch obj := t.O.(type) {
	case rdf.Literal:
		// Binds nothing new and OPTIONAL never removes rows, so the
		// triple is a no-op in the translation.
		return nil

	case rdf.IRI, rdf.BlankNode:
		return c.optionalRelationship(br, t, predIRI, b)

	case rdf.Var:
		if _, isEntity := subjects[obj.Name]; isEntity {
			return c.optionalRelationship(br, t, predIRI, b)
		}
		// Literal-leaning: a null-safe property access, no clause. The
		// subject must already be part of the pattern, otherwise the
		// property has nothing to hang off.
		if !br.isDeclared(subjKey) {
			return errUnsupported("optional property ?%s on undeclared subject %s", obj.Name, t.S)
		}
		br.bindVar(obj.Name, subjKey+"."+quoteIdentifier(predIRI), BindScalar)
		return nil

	default:
		return errUnsupported("unrecognized object term %s", t.O)
	}
}

func (c *Compiler) optionalRelationship(br *branch, t rdf.TriplePattern, predIRI string, b *Binder) error {
	subjKey := NodeVar(t.S)
	objKey := NodeVar(t.O)
	subjPat := nodePattern(br, subjKey, nil, t.S, b)
	objPat := nodePattern(br, objKey, nil, t.O, b)
	br.optClauses = append(br.optClauses,
		"OPTIONAL MATCH "+subjPat+"-[:"+quoteIdentifier(predIRI)+"]->"+objPat)
	if name, ok := rdf.AsVar(t.S); ok {
		br.bindVar(name, subjKey+"."+IDKey, BindEntity)
	}
	if name, ok := rdf.AsVar(t.O); ok {
		br.bindVar(name, objKey+"."+IDKey, BindEntity)
	}
	return nil
}

// expandOptionalEdgeLabel mirrors the three-branch edge-label union on
// the optional side: every existing branch becomes three, one per
// interpretation of the optional predicate variable. The property and
// label enumerations are guarded so a subject with nothing to enumerate
// still produces one null row, preserving OPTIONAL semantics.
func (c *Compiler) expandOptionalEdgeLabel(q *query, t rdf.TriplePattern, b *Binder) error {
	predName, _ := rdf.AsVar(t.P)
	objName, objIsVar := rdf.AsVar(t.O)
	if !objIsVar {
		return errUnsupported("bound object with a variable predicate")
	}
	if objName == predName {
		return errUnsupported("predicate variable ?%s reused in object position", predName)
	}
	if sName, ok := rdf.AsVar(t.S); ok && sName == objName {
		return errUnsupported("object variable ?%s reused in subject position", objName)
	}
	subjKey := NodeVar(t.S)
	relKey := SanitizeVarName(predName)
	edgeVar := "r_" + relKey
	keyVar := "k_" + relKey
	labelVar := "lbl_" + relKey

	var expanded []*branch
	for _, base := range q.branches {
		if !base.isDeclared(subjKey) {
			return errUnsupported("optional variable predicate on undeclared subject %s", t.S)
		}

		rel := base.clone()
		objKey := SanitizeVarName(objName)
		objPat := nodePattern(rel, objKey, nil, t.O, b)
		rel.optClauses = append(rel.optClauses,
			"OPTIONAL MATCH ("+subjKey+")-["+edgeVar+"]->"+objPat)
		rel.bindVar(predName, "type("+edgeVar+")", BindEntity)
		rel.bindVar(objName, objKey, BindDynamic)

		prop := base.clone()
		enum := "[k IN keys(" + subjKey + ") WHERE k <> '" + IDKey + "']"
		prop.optClauses = append(prop.optClauses,
			"UNWIND CASE WHEN size("+enum+") = 0 THEN [null] ELSE "+enum+" END AS "+keyVar)
		prop.bindVar(predName, keyVar, BindEntity)
		prop.bindVar(objName, subjKey+"["+keyVar+"]", BindScalar)

		typ := base.clone()
		lblEnum := "[l IN labels(" + subjKey + ") WHERE l <> '" + BaseLabel + "']"
		typ.optClauses = append(typ.optClauses,
			"UNWIND CASE WHEN size("+lblEnum+") = 0 THEN [null] ELSE "+lblEnum+" END AS "+labelVar)
		typ.bindVar(predName, "CASE WHEN "+labelVar+" IS NULL THEN null ELSE "+rdf.String(rdf.TypeIRI).Render()+" END", BindEntity)
		typ.bindVar(objName, labelVar, BindEntity)

		expanded = append(expanded, rel, prop, typ)
	}
	q.branches = expanded
	return nil
}
