package cypher

import (
	"sort"
	"strings"

	"github.com/cypherbridge/cypherbridge/internal/rdf"
)

// branch is the structured intermediate form of one union branch:
// ordered match clauses, a condition list, optional-match clauses, and
// the variable bindings the branch produces. Text is rendered once at
// the end, so clause ordering and duplicate-declaration tracking are
// structural instead of threaded through string concatenation.
type branch struct {
	clauses    []string
	conds      []string
	optClauses []string

	vars     map[string]varBinding
	varOrder []string

	declared map[string]struct{}
}

// varBinding is the in-branch resolution of one pattern variable: the
// expression that yields its value within this branch, and how the
// adapter should interpret the returned column.
type varBinding struct {
	expr string
	kind BindingKind
}

func newBranch() *branch {
	return &branch{
		vars:     make(map[string]varBinding),
		declared: make(map[string]struct{}),
	}
}

// bindVar records the branch-local binding for a variable. First bind
// wins; later mentions of the same variable join against the first
// expression instead of rebinding it.
func (br *branch) bindVar(name, expr string, kind BindingKind) {
	if _, bound := br.vars[name]; bound {
		return
	}
	br.vars[name] = varBinding{expr: expr, kind: kind}
	br.varOrder = append(br.varOrder, name)
}

// clone deep-copies the branch so union expansion can extend each copy
// independently.
func (br *branch) clone() *branch {
	out := &branch{
		clauses:    append([]string(nil), br.clauses...),
		conds:      append([]string(nil), br.conds...),
		optClauses: append([]string(nil), br.optClauses...),
		vars:       make(map[string]varBinding, len(br.vars)),
		varOrder:   append([]string(nil), br.varOrder...),
		declared:   make(map[string]struct{}, len(br.declared)),
	}
	for k, v := range br.vars {
		out.vars[k] = v
	}
	for k := range br.declared {
		out.declared[k] = struct{}{}
	}
	return out
}

// binding returns the branch-local binding for a variable.
func (br *branch) binding(name string) (varBinding, bool) {
	vb, ok := br.vars[name]
	return vb, ok
}

// isDeclared reports whether a node pattern variable was already
// introduced by an earlier clause of this branch.
func (br *branch) isDeclared(key string) bool {
	_, ok := br.declared[key]
	return ok
}

// markDeclared records a node pattern variable as introduced.
func (br *branch) markDeclared(key string) {
	br.declared[key] = struct{}{}
}

// aliases returns the branch's output column names, sorted.
func (br *branch) aliases() []string {
	out := make([]string, 0, len(br.vars))
	for name := range br.vars {
		out = append(out, SanitizeVarName(name))
	}
	sort.Strings(out)
	return out
}

// render writes the branch as Cypher text: match clauses, a single WHERE
// with AND-joined conditions, optional-match clauses, then a RETURN
// projecting every variable as "expr AS alias" in sorted alias order.
func (br *branch) render(w *strings.Builder) {
	for i, clause := range br.clauses {
		if i > 0 {
			w.WriteByte('\n')
		}
		w.WriteString(clause)
	}
	if len(br.conds) > 0 {
		w.WriteString("\nWHERE ")
		w.WriteString(strings.Join(br.conds, " AND "))
	}
	for _, clause := range br.optClauses {
		w.WriteByte('\n')
		w.WriteString(clause)
	}

	type item struct{ expr, alias string }
	items := make([]item, 0, len(br.vars))
	for name, vb := range br.vars {
		items = append(items, item{expr: vb.expr, alias: SanitizeVarName(name)})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].alias < items[j].alias })

	w.WriteString("\nRETURN ")
	for i, it := range items {
		if i > 0 {
			w.WriteString(", ")
		}
		w.WriteString(it.expr)
		w.WriteString(" AS ")
		w.WriteString(it.alias)
	}
}

// query is the structured form of a full compilation: one or more
// union branches.
type query struct {
	branches []*branch
}

// checkRowCompatible verifies every branch projects the identical set of
// column names. A violation is an internal invariant failure surfaced as
// an unsupported shape so the adapter falls back instead of running a
// query the engine would reject.
func (q *query) checkRowCompatible() error {
	if len(q.branches) == 0 {
		return errEmpty("compilation produced no branches")
	}
	first := q.branches[0].aliases()
	for _, br := range q.branches[1:] {
		other := br.aliases()
		if len(other) != len(first) {
			return errUnsupported("union branches bind different variables")
		}
		for i := range first {
			if first[i] != other[i] {
				return errUnsupported("union branches bind different variables")
			}
		}
	}
	return nil
}

// render produces the final query text, branches joined with UNION.
func (q *query) render() string {
	var w strings.Builder
	for i, br := range q.branches {
		if i > 0 {
			w.WriteString("\nUNION\n")
		}
		br.render(&w)
	}
	return w.String()
}

// mergedBindings folds the per-branch bindings into the public map. A
// variable whose expression and kind agree across all branches keeps
// them. When only the expressions differ the binding keeps the shared
// kind and its expression degrades to the output column; when the kinds
// themselves disagree it degrades fully to BindDynamic and the adapter
// inspects the runtime value shape.
func (q *query) mergedBindings() map[string]Binding {
	out := make(map[string]Binding)
	for _, br := range q.branches {
		for name, vb := range br.vars {
			alias := SanitizeVarName(name)
			prev, seen := out[name]
			if !seen {
				out[name] = Binding{Column: alias, Expr: vb.expr, Kind: vb.kind}
				continue
			}
			if prev.Kind != vb.kind {
				out[name] = Binding{Column: alias, Expr: alias, Kind: BindDynamic}
			} else if prev.Expr != vb.expr {
				out[name] = Binding{Column: alias, Expr: alias, Kind: prev.Kind}
			}
		}
	}
	return out
}

// assemble finishes a compilation: row-compatibility check, text
// rendering, parameter snapshot, binding merge.
func assemble(q *query, b *Binder) (*Result, error) {
	if err := q.checkRowCompatible(); err != nil {
		return nil, err
	}
	return &Result{
		Query:    q.render(),
		Params:   b.Params(),
		Bindings: q.mergedBindings(),
		Branches: len(q.branches),
	}, nil
}

// nodePattern renders a node in a MATCH clause. The first mention of a
// node introduces its full pattern (base label, extra labels, uri
// constraint for bound terms); later mentions reuse the bare variable so
// one declared node joins every clause it appears in.
func nodePattern(br *branch, key string, labels []string, term rdf.Term, b *Binder) string {
	if br.isDeclared(key) {
		return "(" + key + ")"
	}
	br.markDeclared(key)

	var w strings.Builder
	w.WriteByte('(')
	w.WriteString(key)
	w.WriteByte(':')
	w.WriteString(BaseLabel)
	for _, label := range labels {
		w.WriteByte(':')
		w.WriteString("`" + label + "`")
	}
	if uri, ok := rdf.AsIRI(term); ok {
		param := b.Bind(rdf.String(uri))
		w.WriteString(" {" + IDKey + ": $" + param + "}")
	}
	w.WriteByte(')')
	return w.String()
}
