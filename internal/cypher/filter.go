package cypher

import (
	"strings"

	"github.com/cypherbridge/cypherbridge/internal/algebra"
	"github.com/cypherbridge/cypherbridge/internal/rdf"
)

// distributeFilter translates the filter once per branch, resolving each
// variable leaf through that branch's own bindings, and appends the
// resulting condition to the branch. Every branch gets the condition; a
// union where only the first branch is filtered would silently return
// wrong rows.
func (c *Compiler) distributeFilter(q *query, filter algebra.Expr, b *Binder) error {
	for _, br := range q.branches {
		cond, err := c.translateExpr(filter, br, b)
		if err != nil {
			return err
		}
		br.conds = append(br.conds, cond)
	}
	return nil
}

// translateExpr renders a filter expression as a Cypher boolean
// expression. Variable leaves resolve through the branch bindings;
// constant leaves become named parameters, membership lists included -
// each element is a scalar and binds individually.
func (c *Compiler) translateExpr(e algebra.Expr, br *branch, b *Binder) (string, error) {
	switch node := e.(type) {
	case algebra.VarRef:
		vb, ok := br.binding(node.Name)
		if !ok {
			return "", errMissingBinding(node.Name)
		}
		return vb.expr, nil

	case algebra.Const:
		return "$" + b.Bind(node.Value), nil

	case algebra.Compare:
		left, err := c.translateExpr(node.Left, br, b)
		if err != nil {
			return "", err
		}
		right, err := c.translateExpr(node.Right, br, b)
		if err != nil {
			return "", err
		}
		return "(" + left + " " + node.Op.String() + " " + right + ")", nil

	case algebra.And:
		return c.translateConnective(node.Left, node.Right, "AND", br, b)

	case algebra.Or:
		return c.translateConnective(node.Left, node.Right, "OR", br, b)

	case algebra.Not:
		inner, err := c.translateExpr(node.Expr, br, b)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil

	case algebra.In:
		target, err := c.translateExpr(node.Expr, br, b)
		if err != nil {
			return "", err
		}
		rendered := make([]string, len(node.Values))
		for i, v := range node.Values {
			rendered[i] = "$" + b.Bind(v)
		}
		return "(" + target + " IN [" + strings.Join(rendered, ", ") + "])", nil

	case algebra.FuncCall:
		if node.IsSpatial() {
			return c.translateSpatial(node, br, b)
		}
		return "", errUnsupported("function <%s> is not translatable", node.IRI)

	default:
		return "", errUnsupported("unrecognized filter expression node %T", e)
	}
}

func (c *Compiler) translateConnective(l, r algebra.Expr, op string, br *branch, b *Binder) (string, error) {
	left, err := c.translateExpr(l, br, b)
	if err != nil {
		return "", err
	}
	right, err := c.translateExpr(r, br, b)
	if err != nil {
		return "", err
	}
	return "(" + left + " " + op + " " + right + ")", nil
}

// spatialPredicates are the recognized boolean spatial functions. All
// share the same distance-to-center approximation; real geometry
// predicates are out of scope.
var spatialPredicates = map[string]struct{}{
	"sfWithin":     {},
	"sfContains":   {},
	"sfIntersects": {},
}

// translateSpatial approximates a spatial predicate as "distance between
// the two geometries' points is within the tolerance". Geometry literals
// pass through the WKT translator, which parameterizes their
// coordinates; the tolerance itself is also a parameter. The numeric
// distance function passes through without a tolerance so it can sit
// inside an ordinary comparison.
func (c *Compiler) translateSpatial(f algebra.FuncCall, br *branch, b *Binder) (string, error) {
	name := f.SpatialName()
	if _, boolean := spatialPredicates[name]; !boolean && name != "distance" {
		return "", errUnsupported("spatial function <%s> is not translatable", f.IRI)
	}
	if len(f.Args) != 2 {
		return "", errUnsupported("spatial predicate %s expects 2 arguments, got %d", name, len(f.Args))
	}

	prefix := b.GeoPrefix()
	args := make([]string, 2)
	for i, arg := range f.Args {
		switch leaf := arg.(type) {
		case algebra.VarRef:
			vb, ok := br.binding(leaf.Name)
			if !ok {
				return "", errMissingBinding(leaf.Name)
			}
			args[i] = vb.expr
		case algebra.Const:
			wkt, ok := leaf.Value.(rdf.String)
			if !ok {
				return "", errGeometry("spatial argument %d is not a geometry literal", i)
			}
			p := prefix
			if strings.Contains(args[0], "$"+prefix+"_") {
				// Second constant in one call gets its own prefix.
				p = b.GeoPrefix()
			}
			expr, err := TranslateWKT(string(wkt), p, b)
			if err != nil {
				return "", err
			}
			args[i] = expr
		default:
			return "", errUnsupported("spatial predicate %s has a non-leaf argument", name)
		}
	}

	if name == "distance" {
		return "distance(" + args[0] + ", " + args[1] + ")", nil
	}
	tol := b.BindAs(prefix+"_tol", rdf.Float(c.SpatialToleranceMeters))
	return "(distance(" + args[0] + ", " + args[1] + ") <= $" + tol + ")", nil
}

// extractKeyConstraints inspects a filter for concrete constraints on
// the given variable's value: equality against a string constant,
// membership in a string list, or an OR of such constraints. Returns nil
// whenever the extraction is inconclusive - the caller then keeps the
// full property enumeration, which is always correct.
func extractKeyConstraints(e algebra.Expr, varName string) []string {
	switch node := e.(type) {
	case algebra.Compare:
		if node.Op != algebra.OpEq {
			return nil
		}
		if s, ok := equalityConstant(node.Left, node.Right, varName); ok {
			return []string{s}
		}
		if s, ok := equalityConstant(node.Right, node.Left, varName); ok {
			return []string{s}
		}
		return nil

	case algebra.In:
		ref, ok := node.Expr.(algebra.VarRef)
		if !ok || ref.Name != varName {
			return nil
		}
		keys := make([]string, 0, len(node.Values))
		for _, v := range node.Values {
			s, ok := v.(rdf.String)
			if !ok {
				return nil
			}
			keys = append(keys, string(s))
		}
		return keys

	case algebra.Or:
		left := extractKeyConstraints(node.Left, varName)
		if left == nil {
			return nil
		}
		right := extractKeyConstraints(node.Right, varName)
		if right == nil {
			return nil
		}
		return append(left, right...)

	default:
		return nil
	}
}

// equalityConstant matches "?var = <string constant>" with the variable
// on the ref side.
func equalityConstant(ref, val algebra.Expr, varName string) (string, bool) {
	r, ok := ref.(algebra.VarRef)
	if !ok || r.Name != varName {
		return "", false
	}
	c, ok := val.(algebra.Const)
	if !ok {
		return "", false
	}
	s, ok := c.Value.(rdf.String)
	if !ok {
		return "", false
	}
	return string(s), true
}
