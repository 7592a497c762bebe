package cypher

import "github.com/cypherbridge/cypherbridge/internal/rdf"

// tripleClass is the bucket a triple lands in during structured
// compilation.
type tripleClass uint8

const (
	classType tripleClass = iota // rdf:type predicate -> label constraint
	classLiteral                 // bound scalar object -> property condition
	classRelationship            // entity object -> edge traversal
	classAmbiguous               // ambiguous object variable -> 4.5d
)

// classified pairs a triple with its bucket.
type classified struct {
	triple rdf.TriplePattern
	class  tripleClass
}

// compileStructured handles multi-triple patterns (and single-triple
// patterns that are not ambiguous). Triples are bucketed into TYPE,
// LITERAL, RELATIONSHIP, and AMBIGUOUS; ambiguous variables that remain
// trigger the partial-union expansion when its structural preconditions
// hold, and fail otherwise - never silently dropping rows.
func (c *Compiler) compileStructured(bgp rdf.BGP, roles map[string]Role, b *Binder) (*query, error) {
	classes := make([]classified, 0, len(bgp))
	var ambiguousVars []string
	seenAmbiguous := make(map[string]struct{})
	relationships := 0

	for _, t := range bgp {
		if _, ok := rdf.AsLiteral(t.S); ok {
			return nil, errUnsupported("literal in subject position")
		}
		if t.IsTypeTriple() {
			if _, ok := rdf.AsIRI(t.O); !ok {
				return nil, errUnsupported("non-constant type in rdf:type object position")
			}
			classes = append(classes, classified{t, classType})
			continue
		}
		if _, ok := rdf.AsIRI(t.P); !ok {
			return nil, errUnsupported("non-IRI predicate %s", t.P)
		}
		switch obj := t.O.(type) {
		case rdf.Literal:
			classes = append(classes, classified{t, classLiteral})
		case rdf.IRI, rdf.BlankNode:
			classes = append(classes, classified{t, classRelationship})
			relationships++
		case rdf.Var:
			if roles[obj.Name] == RoleNode {
				classes = append(classes, classified{t, classRelationship})
				relationships++
				continue
			}
			classes = append(classes, classified{t, classAmbiguous})
			if _, seen := seenAmbiguous[obj.Name]; !seen {
				seenAmbiguous[obj.Name] = struct{}{}
				ambiguousVars = append(ambiguousVars, obj.Name)
			}
		default:
			return nil, errUnsupported("unrecognized object term %s", t.O)
		}
	}

	if len(ambiguousVars) > 0 {
		if relationships == 0 {
			return nil, errUnsupported("ambiguous object variables without a relationship anchor")
		}
		if len(ambiguousVars) > c.MaxAmbiguousVars {
			return nil, errUnsupported("%d ambiguous object variables exceeds limit %d",
				len(ambiguousVars), c.MaxAmbiguousVars)
		}
	}

	// One branch per subset of "treat this ambiguous variable as a
	// relationship". Bit i of the mask corresponds to ambiguousVars[i]
	// in first-appearance order; k=0 yields the single plain branch.
	q := &query{}
	for mask := 0; mask < 1<<len(ambiguousVars); mask++ {
		interp := make(map[string]bool, len(ambiguousVars))
		for i, name := range ambiguousVars {
			interp[name] = mask&(1<<i) != 0
		}
		br, err := buildStructuredBranch(classes, interp, b)
		if err != nil {
			return nil, err
		}
		q.branches = append(q.branches, br)
	}
	return q, nil
}

// buildStructuredBranch renders one interpretation of the pattern.
// interp maps each ambiguous variable to true (relationship) or false
// (scalar property).
func buildStructuredBranch(classes []classified, interp map[string]bool, b *Binder) (*branch, error) {
	br := newBranch()

	// Labels attach at a node's first declaration, so collect them
	// before emitting any clause.
	labels := make(map[string][]string)
	for _, cl := range classes {
		if cl.class != classType {
			continue
		}
		key := NodeVar(cl.triple.S)
		typeIRI, _ := rdf.AsIRI(cl.triple.O)
		labels[key] = append(labels[key], SanitizeIdentifier(typeIRI))
	}

	declareSubject := func(t rdf.TriplePattern) string {
		key := NodeVar(t.S)
		if !br.isDeclared(key) {
			br.clauses = append(br.clauses, "MATCH "+nodePattern(br, key, labels[key], t.S, b))
		}
		if name, ok := rdf.AsVar(t.S); ok {
			br.bindVar(name, key+"."+IDKey, BindEntity)
		}
		return key
	}

	for _, cl := range classes {
		switch cl.class {
		case classType:
			declareSubject(cl.triple)

		case classRelationship:
			subjKey := NodeVar(cl.triple.S)
			objKey := NodeVar(cl.triple.O)
			predIRI, _ := rdf.AsIRI(cl.triple.P)
			subjPat := nodePattern(br, subjKey, labels[subjKey], cl.triple.S, b)
			objPat := nodePattern(br, objKey, labels[objKey], cl.triple.O, b)
			br.clauses = append(br.clauses,
				"MATCH "+subjPat+"-[:"+quoteIdentifier(predIRI)+"]->"+objPat)
			if name, ok := rdf.AsVar(cl.triple.S); ok {
				br.bindVar(name, subjKey+"."+IDKey, BindEntity)
			}
			if name, ok := rdf.AsVar(cl.triple.O); ok {
				br.bindVar(name, objKey+"."+IDKey, BindEntity)
			}

		case classLiteral:
			subjKey := declareSubject(cl.triple)
			predIRI, _ := rdf.AsIRI(cl.triple.P)
			lit, _ := rdf.AsLiteral(cl.triple.O)
			param := b.Bind(lit.ParamValue())
			br.conds = append(br.conds,
				subjKey+"."+quoteIdentifier(predIRI)+" = $"+param)

		case classAmbiguous:
			objName, _ := rdf.AsVar(cl.triple.O)
			predIRI, _ := rdf.AsIRI(cl.triple.P)
			if interp[objName] {
				// Relationship interpretation: the object is an entity.
				subjKey := NodeVar(cl.triple.S)
				objKey := SanitizeVarName(objName)
				subjPat := nodePattern(br, subjKey, labels[subjKey], cl.triple.S, b)
				objPat := nodePattern(br, objKey, nil, cl.triple.O, b)
				br.clauses = append(br.clauses,
					"MATCH "+subjPat+"-[:"+quoteIdentifier(predIRI)+"]->"+objPat)
				if name, ok := rdf.AsVar(cl.triple.S); ok {
					br.bindVar(name, subjKey+"."+IDKey, BindEntity)
				}
				br.bindVar(objName, objKey, BindDynamic)
			} else {
				// Property interpretation: the object is a scalar.
				subjKey := declareSubject(cl.triple)
				expr := subjKey + "." + quoteIdentifier(predIRI)
				if prev, bound := br.binding(objName); bound {
					// Same variable sourced from two properties: join
					// on value equality against its first expression.
					br.conds = append(br.conds, expr+" = "+prev.expr)
				} else {
					br.conds = append(br.conds, expr+" IS NOT NULL")
					br.bindVar(objName, expr, BindScalar)
				}
			}
		}
	}
	return br, nil
}
