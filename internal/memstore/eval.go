package memstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/cypherbridge/cypherbridge/internal/algebra"
	"github.com/cypherbridge/cypherbridge/internal/exec"
	"github.com/cypherbridge/cypherbridge/internal/rdf"
)

// Evaluate runs an operator tree row-at-a-time against the store. This
// is the slow path: every triple pattern is a separate indexed lookup
// and joins happen in process. Correctness, not speed, is the contract;
// pushdown translation is validated against this evaluator.
func (s *Store) Evaluate(ctx context.Context, op algebra.Op) ([]exec.Solution, error) {
	switch o := op.(type) {
	case algebra.Pattern:
		return s.evalBGP(ctx, o.BGP, exec.Solution{})
	case algebra.Filter:
		rows, err := s.Evaluate(ctx, o.Input)
		if err != nil {
			return nil, err
		}
		return filterRows(rows, o.Cond)
	case algebra.Union:
		left, err := s.Evaluate(ctx, o.Left)
		if err != nil {
			return nil, err
		}
		right, err := s.Evaluate(ctx, o.Right)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	case algebra.LeftJoin:
		return s.evalLeftJoin(ctx, o)
	case algebra.Group:
		rows, err := s.Evaluate(ctx, o.Input)
		if err != nil {
			return nil, err
		}
		return groupRows(rows, o.GroupVars, o.Aggregates)
	default:
		return nil, fmt.Errorf("unsupported operator %T", op)
	}
}

// evalBGP extends a seed solution through every triple pattern in turn.
func (s *Store) evalBGP(ctx context.Context, bgp rdf.BGP, seed exec.Solution) ([]exec.Solution, error) {
	if bgp.Empty() {
		return nil, fmt.Errorf("empty pattern")
	}
	rows := []exec.Solution{seed}
	for _, tp := range bgp {
		var next []exec.Solution
		for _, sol := range rows {
			extended, err := s.matchTriple(ctx, sol, tp)
			if err != nil {
				return nil, err
			}
			next = append(next, extended...)
		}
		rows = next
		if len(rows) == 0 {
			break
		}
	}
	return rows, nil
}

// matchTriple finds every stored triple matching the pattern under the
// partial solution and returns the extended solutions.
func (s *Store) matchTriple(ctx context.Context, sol exec.Solution, tp rdf.TriplePattern) ([]exec.Solution, error) {
	var conds []string
	var args []any

	subj := resolve(tp.S, sol)
	if subj != nil {
		key, err := nodeKey(subj)
		if err != nil {
			return nil, nil // literal in subject position never matches
		}
		conds = append(conds, "subj = ?")
		args = append(args, key)
	}

	pred := resolve(tp.P, sol)
	if pred != nil {
		iri, ok := rdf.AsIRI(pred)
		if !ok {
			return nil, nil
		}
		conds = append(conds, "pred = ?")
		args = append(args, iri)
	}

	obj := resolve(tp.O, sol)
	if obj != nil {
		kind, text, dtype, lang, err := encodeObject(obj)
		if err != nil {
			return nil, nil
		}
		conds = append(conds, "obj_kind = ?", "obj_text = ?")
		args = append(args, kind, text)
		if kind == objLiteral {
			conds = append(conds, "obj_dtype = ?", "obj_lang = ?")
			args = append(args, dtype, lang)
		}
	}

	query := "SELECT subj, pred, obj_kind, obj_text, obj_dtype, obj_lang FROM triples"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	dbRows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("match triple: %w", err)
	}
	defer dbRows.Close()

	var out []exec.Solution
	for dbRows.Next() {
		var (
			subjKey, predIRI  string
			kind              int
			text, dtype, lang string
		)
		if err := dbRows.Scan(&subjKey, &predIRI, &kind, &text, &dtype, &lang); err != nil {
			return nil, fmt.Errorf("scan triple: %w", err)
		}
		ext := extend(sol, tp,
			decodeSubject(subjKey),
			rdf.IRI{Value: predIRI},
			decodeObject(kind, text, dtype, lang))
		if ext != nil {
			out = append(out, ext)
		}
	}
	return out, dbRows.Err()
}

// resolve returns the bound term for a pattern slot, or nil when the
// slot is an unbound variable.
func resolve(t rdf.Term, sol exec.Solution) rdf.Term {
	if name, ok := rdf.AsVar(t); ok {
		if bound, ok := sol[name]; ok {
			return bound
		}
		return nil
	}
	return t
}

// extend binds the pattern's variables to the matched triple's terms,
// returning nil on a conflicting rebind.
func extend(sol exec.Solution, tp rdf.TriplePattern, s, p, o rdf.Term) exec.Solution {
	out := make(exec.Solution, len(sol)+3)
	for k, v := range sol {
		out[k] = v
	}
	if !bindSlot(out, tp.S, s) || !bindSlot(out, tp.P, p) || !bindSlot(out, tp.O, o) {
		return nil
	}
	return out
}

func bindSlot(sol exec.Solution, slot, got rdf.Term) bool {
	name, ok := rdf.AsVar(slot)
	if !ok {
		return true
	}
	if prev, bound := sol[name]; bound {
		return prev == got
	}
	sol[name] = got
	return true
}

func (s *Store) evalLeftJoin(ctx context.Context, lj algebra.LeftJoin) ([]exec.Solution, error) {
	left, err := s.Evaluate(ctx, lj.Left)
	if err != nil {
		return nil, err
	}
	right, err := s.Evaluate(ctx, lj.Right)
	if err != nil {
		return nil, err
	}
	var out []exec.Solution
	for _, l := range left {
		matched := false
		for _, r := range right {
			merged, ok := merge(l, r)
			if !ok {
				continue
			}
			if lj.Cond != nil {
				keep, err := evalBool(lj.Cond, merged)
				if err != nil {
					return nil, err
				}
				if !keep {
					continue
				}
			}
			out = append(out, merged)
			matched = true
		}
		if !matched {
			out = append(out, l)
		}
	}
	return out, nil
}

// merge joins two solutions, failing when a shared variable disagrees.
func merge(a, b exec.Solution) (exec.Solution, bool) {
	out := make(exec.Solution, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if prev, ok := out[k]; ok && prev != v {
			return nil, false
		}
		out[k] = v
	}
	return out, true
}

func filterRows(rows []exec.Solution, cond algebra.Expr) ([]exec.Solution, error) {
	var out []exec.Solution
	for _, row := range rows {
		keep, err := evalBool(cond, row)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, row)
		}
	}
	return out, nil
}

// evalBool evaluates a filter expression against one solution. Unbound
// variables make the expression false rather than erroring, matching
// SPARQL's error-is-false filter semantics.
func evalBool(e algebra.Expr, sol exec.Solution) (bool, error) {
	switch x := e.(type) {
	case algebra.And:
		l, err := evalBool(x.Left, sol)
		if err != nil || !l {
			return false, err
		}
		return evalBool(x.Right, sol)
	case algebra.Or:
		l, err := evalBool(x.Left, sol)
		if err != nil {
			return false, err
		}
		if l {
			return true, nil
		}
		return evalBool(x.Right, sol)
	case algebra.Not:
		v, err := evalBool(x.Expr, sol)
		return !v, err
	case algebra.Compare:
		l, lok := evalValue(x.Left, sol)
		r, rok := evalValue(x.Right, sol)
		if !lok || !rok {
			return false, nil
		}
		return compareValues(x.Op, l, r), nil
	case algebra.In:
		v, ok := evalValue(x.Expr, sol)
		if !ok {
			return false, nil
		}
		for _, want := range x.Values {
			if compareValues(algebra.OpEq, v, want.Native()) {
				return true, nil
			}
		}
		return false, nil
	case algebra.FuncCall:
		return false, fmt.Errorf("function %s is not supported by the local evaluator", x.IRI)
	default:
		return false, fmt.Errorf("expression %T is not a boolean", e)
	}
}

// evalValue produces a comparable native value for a leaf expression.
// IRIs and blank nodes compare by their string identity.
func evalValue(e algebra.Expr, sol exec.Solution) (any, bool) {
	switch x := e.(type) {
	case algebra.Const:
		return x.Value.Native(), true
	case algebra.VarRef:
		term, ok := sol[x.Name]
		if !ok {
			return nil, false
		}
		return termNative(term), true
	default:
		return nil, false
	}
}

func termNative(t rdf.Term) any {
	switch term := t.(type) {
	case rdf.IRI:
		return term.Value
	case rdf.BlankNode:
		return "_:" + term.Label
	case rdf.Literal:
		return term.ParamValue().Native()
	default:
		return t.String()
	}
}

func compareValues(op algebra.CompareOp, l, r any) bool {
	if lf, lok := toFloat(l); lok {
		if rf, rok := toFloat(r); rok {
			return compareOrdered(op, lf, rf)
		}
	}
	ls, lok := l.(string)
	rs, rok := r.(string)
	if lok && rok {
		return compareOrdered(op, ls, rs)
	}
	lb, lok := l.(bool)
	rb, rok := r.(bool)
	if lok && rok {
		switch op {
		case algebra.OpEq:
			return lb == rb
		case algebra.OpNe:
			return lb != rb
		}
		return false
	}
	// Mixed types: only (in)equality is meaningful.
	switch op {
	case algebra.OpEq:
		return l == r
	case algebra.OpNe:
		return l != r
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func compareOrdered[T float64 | string](op algebra.CompareOp, l, r T) bool {
	switch op {
	case algebra.OpLt:
		return l < r
	case algebra.OpLe:
		return l <= r
	case algebra.OpGt:
		return l > r
	case algebra.OpGe:
		return l >= r
	case algebra.OpEq:
		return l == r
	case algebra.OpNe:
		return l != r
	default:
		return false
	}
}

// groupRows groups solutions by the group variables and computes each
// aggregate over the rows of its group.
func groupRows(rows []exec.Solution, groupVars []string, aggs []algebra.Aggregate) ([]exec.Solution, error) {
	if len(aggs) == 0 {
		return nil, fmt.Errorf("no aggregates")
	}
	type group struct {
		key  exec.Solution
		rows []exec.Solution
	}
	var order []string
	groups := make(map[string]*group)
	for _, row := range rows {
		var b strings.Builder
		key := make(exec.Solution, len(groupVars))
		for _, v := range groupVars {
			if term, ok := row[v]; ok {
				key[v] = term
				b.WriteString(term.String())
			}
			b.WriteByte('\x00')
		}
		k := b.String()
		g, ok := groups[k]
		if !ok {
			g = &group{key: key}
			groups[k] = g
			order = append(order, k)
		}
		g.rows = append(g.rows, row)
	}

	var out []exec.Solution
	for _, k := range order {
		g := groups[k]
		sol := make(exec.Solution, len(g.key)+len(aggs))
		for name, term := range g.key {
			sol[name] = term
		}
		for _, agg := range aggs {
			term, err := computeAggregate(agg, g.rows)
			if err != nil {
				return nil, err
			}
			sol[aggOutputName(agg)] = term
		}
		out = append(out, sol)
	}
	return out, nil
}

func aggOutputName(agg algebra.Aggregate) string {
	if agg.As != "" {
		return agg.As
	}
	switch agg.Kind {
	case algebra.AggCount, algebra.AggCountDistinct:
		return "count"
	case algebra.AggSum, algebra.AggSumDistinct:
		return "sum"
	case algebra.AggAvg, algebra.AggAvgDistinct:
		return "avg"
	case algebra.AggMin:
		return "min"
	case algebra.AggMax:
		return "max"
	default:
		return "agg"
	}
}

func computeAggregate(agg algebra.Aggregate, rows []exec.Solution) (rdf.Term, error) {
	var values []rdf.Term
	seen := make(map[rdf.Term]struct{})
	distinct := agg.Kind == algebra.AggCountDistinct ||
		agg.Kind == algebra.AggSumDistinct ||
		agg.Kind == algebra.AggAvgDistinct
	for _, row := range rows {
		term, ok := row[agg.Var]
		if !ok {
			continue
		}
		if distinct {
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
		}
		values = append(values, term)
	}

	switch agg.Kind {
	case algebra.AggCount, algebra.AggCountDistinct:
		return rdf.IntLiteral(int64(len(values))), nil
	case algebra.AggSum, algebra.AggSumDistinct, algebra.AggAvg, algebra.AggAvgDistinct:
		var sum float64
		for _, term := range values {
			f, ok := toFloat(termNative(term))
			if !ok {
				return nil, fmt.Errorf("aggregate %s over non-numeric value %s", agg.Kind, term)
			}
			sum += f
		}
		if agg.Kind == algebra.AggAvg || agg.Kind == algebra.AggAvgDistinct {
			if len(values) == 0 {
				return rdf.FloatLiteral(0), nil
			}
			return rdf.FloatLiteral(sum / float64(len(values))), nil
		}
		return rdf.FloatLiteral(sum), nil
	case algebra.AggMin, algebra.AggMax:
		return extremum(agg, values)
	default:
		return nil, fmt.Errorf("unknown aggregate kind %s", agg.Kind)
	}
}

func extremum(agg algebra.Aggregate, values []rdf.Term) (rdf.Term, error) {
	if len(values) == 0 {
		return rdf.StringLiteral(""), nil
	}
	best := values[0]
	for _, term := range values[1:] {
		op := algebra.OpLt
		if agg.Kind == algebra.AggMax {
			op = algebra.OpGt
		}
		if compareValues(op, termNative(term), termNative(best)) {
			best = term
		}
	}
	return best, nil
}
