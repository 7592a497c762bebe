package cli

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/cypherbridge/cypherbridge/internal/algebra"
	"github.com/cypherbridge/cypherbridge/internal/rdf"
)

//go:embed schema.cue
var schemaCUE string

// LoadError is a query-document error with a stable code.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// defaultPrefixes are always available in query documents; document
// prefixes may extend but not override them.
var defaultPrefixes = map[string]string{
	"rdf":  "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
	"rdfs": "http://www.w3.org/2000/01/rdf-schema#",
	"xsd":  "http://www.w3.org/2001/XMLSchema#",
	"geof": algebra.SpatialFnPrefix,
}

// queryDoc mirrors the YAML document shape after schema validation.
type queryDoc struct {
	Prefixes map[string]string `yaml:"prefixes"`
	Pattern  [][]string        `yaml:"pattern"`
	Optional [][]string        `yaml:"optional"`
	Union    [][]string        `yaml:"union"`
	Filter   map[string]any    `yaml:"filter"`
	Group    *groupDoc         `yaml:"group"`
}

type groupDoc struct {
	Vars       []string       `yaml:"vars"`
	Aggregates []aggregateDoc `yaml:"aggregates"`
}

type aggregateDoc struct {
	Fn       string `yaml:"fn"`
	Distinct bool   `yaml:"distinct"`
	Var      string `yaml:"var"`
	As       string `yaml:"as"`
}

// LoadQueryDocument reads a YAML query document, validates it against
// the embedded schema, and builds the operator tree it describes.
func LoadQueryDocument(path string) (algebra.Op, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("query document not found: %s", path)}
		}
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading query document: %v", err)}
	}
	return ParseQueryDocument(data)
}

// ParseQueryDocument validates and builds a query document from bytes.
func ParseQueryDocument(data []byte) (algebra.Op, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("parsing YAML: %v", err)}
	}
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var doc queryDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("decoding document: %v", err)}
	}
	return buildOp(&doc)
}

// validateSchema unifies the decoded document with the #Query schema.
func validateSchema(raw map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling document schema: %w", err)
	}
	query := schema.LookupPath(cue.ParsePath("#Query"))
	if err := query.Err(); err != nil {
		return fmt.Errorf("resolving document schema: %w", err)
	}
	unified := query.Unify(ctx.Encode(raw))
	if err := unified.Validate(cue.Final()); err != nil {
		return &LoadError{Code: ErrCodeSchemaFailed, Message: err.Error()}
	}
	return nil
}

func buildOp(doc *queryDoc) (algebra.Op, error) {
	prefixes := make(map[string]string, len(defaultPrefixes)+len(doc.Prefixes))
	for k, v := range defaultPrefixes {
		prefixes[k] = v
	}
	for k, v := range doc.Prefixes {
		prefixes[k] = v
	}

	if len(doc.Optional) > 0 && len(doc.Union) > 0 {
		return nil, &LoadError{Code: ErrCodeSchemaFailed, Message: "optional and union cannot be combined in one document"}
	}

	pattern, err := parseBGP(doc.Pattern, prefixes)
	if err != nil {
		return nil, err
	}

	var cond algebra.Expr
	if doc.Filter != nil {
		cond, err = parseExpr(doc.Filter, prefixes)
		if err != nil {
			return nil, err
		}
	}

	var op algebra.Op
	switch {
	case len(doc.Optional) > 0:
		optional, err := parseBGP(doc.Optional, prefixes)
		if err != nil {
			return nil, err
		}
		op = algebra.LeftJoin{
			Left:  algebra.Pattern{BGP: pattern},
			Right: algebra.Pattern{BGP: optional},
			Cond:  cond,
		}
	case len(doc.Union) > 0:
		alt, err := parseBGP(doc.Union, prefixes)
		if err != nil {
			return nil, err
		}
		op = algebra.Union{
			Left:  algebra.Pattern{BGP: pattern},
			Right: algebra.Pattern{BGP: alt},
		}
		if cond != nil {
			op = algebra.Filter{Cond: cond, Input: op}
		}
	case cond != nil:
		op = algebra.Filter{Cond: cond, Input: algebra.Pattern{BGP: pattern}}
	default:
		op = algebra.Pattern{BGP: pattern}
	}

	if doc.Group != nil {
		aggs, err := parseAggregates(doc.Group.Aggregates)
		if err != nil {
			return nil, err
		}
		op = algebra.Group{Input: op, GroupVars: doc.Group.Vars, Aggregates: aggs}
	}
	return op, nil
}

func parseBGP(triples [][]string, prefixes map[string]string) (rdf.BGP, error) {
	bgp := make(rdf.BGP, 0, len(triples))
	for i, t := range triples {
		if len(t) != 3 {
			return nil, &LoadError{Code: ErrCodeSchemaFailed, Message: fmt.Sprintf("triple %d has %d terms, want 3", i, len(t))}
		}
		s, err := parseTerm(t[0], prefixes)
		if err != nil {
			return nil, err
		}
		p, err := parseTerm(t[1], prefixes)
		if err != nil {
			return nil, err
		}
		o, err := parseTerm(t[2], prefixes)
		if err != nil {
			return nil, err
		}
		bgp = append(bgp, rdf.TriplePattern{S: s, P: p, O: o})
	}
	return bgp, nil
}

// parseTerm maps the document's term surface syntax to a typed term:
//
//	?name       pattern variable
//	<http://…>  IRI
//	pfx:local   IRI via prefix expansion
//	_:b0        blank node
//	"text"      string literal (quotes required to force string)
//	42, 4.2     numeric literal
//	true/false  boolean literal
//	anything    string literal
func parseTerm(s string, prefixes map[string]string) (rdf.Term, error) {
	switch {
	case s == "":
		return nil, &LoadError{Code: ErrCodeBadTerm, Message: "empty term"}
	case strings.HasPrefix(s, "?"):
		return rdf.Var{Name: s[1:]}, nil
	case strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">"):
		return rdf.IRI{Value: s[1 : len(s)-1]}, nil
	case strings.HasPrefix(s, "_:"):
		return rdf.BlankNode{Label: s[2:]}, nil
	case strings.HasPrefix(s, "\"") && strings.HasSuffix(s, "\"") && len(s) >= 2:
		return rdf.StringLiteral(s[1 : len(s)-1]), nil
	}
	if iri, ok := expandPrefix(s, prefixes); ok {
		return rdf.IRI{Value: iri}, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return rdf.IntLiteral(n), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return rdf.FloatLiteral(f), nil
	}
	if s == "true" || s == "false" {
		return rdf.BoolLiteral(s == "true"), nil
	}
	return rdf.StringLiteral(s), nil
}

// expandPrefix resolves pfx:local against the prefix table. Unknown
// prefixes are not an error here; the term falls through to a literal.
func expandPrefix(s string, prefixes map[string]string) (string, bool) {
	idx := strings.Index(s, ":")
	if idx <= 0 {
		return "", false
	}
	base, ok := prefixes[s[:idx]]
	if !ok {
		return "", false
	}
	return base + s[idx+1:], true
}

// parseExpr builds a filter expression from its YAML form. Each node is
// a single-key map: and, or, not, compare, in, or call.
func parseExpr(node map[string]any, prefixes map[string]string) (algebra.Expr, error) {
	if len(node) != 1 {
		return nil, &LoadError{Code: ErrCodeBadTerm, Message: fmt.Sprintf("filter node must have exactly one key, got %d", len(node))}
	}
	for key, val := range node {
		switch key {
		case "and", "or":
			pair, err := exprPair(key, val, prefixes)
			if err != nil {
				return nil, err
			}
			if key == "and" {
				return algebra.And{Left: pair[0], Right: pair[1]}, nil
			}
			return algebra.Or{Left: pair[0], Right: pair[1]}, nil
		case "not":
			sub, ok := val.(map[string]any)
			if !ok {
				return nil, &LoadError{Code: ErrCodeBadTerm, Message: "not: expected a filter node"}
			}
			inner, err := parseExpr(sub, prefixes)
			if err != nil {
				return nil, err
			}
			return algebra.Not{Expr: inner}, nil
		case "compare":
			return parseCompare(val, prefixes)
		case "in":
			return parseIn(val, prefixes)
		case "call":
			return parseCall(val, prefixes)
		default:
			return nil, &LoadError{Code: ErrCodeBadTerm, Message: fmt.Sprintf("unknown filter node %q", key)}
		}
	}
	return nil, &LoadError{Code: ErrCodeBadTerm, Message: "empty filter node"}
}

func exprPair(key string, val any, prefixes map[string]string) ([2]algebra.Expr, error) {
	var out [2]algebra.Expr
	list, ok := val.([]any)
	if !ok || len(list) != 2 {
		return out, &LoadError{Code: ErrCodeBadTerm, Message: fmt.Sprintf("%s: expected a two-element list", key)}
	}
	for i, item := range list {
		sub, ok := item.(map[string]any)
		if !ok {
			return out, &LoadError{Code: ErrCodeBadTerm, Message: fmt.Sprintf("%s: expected filter nodes", key)}
		}
		expr, err := parseExpr(sub, prefixes)
		if err != nil {
			return out, err
		}
		out[i] = expr
	}
	return out, nil
}

var compareOps = map[string]algebra.CompareOp{
	"<":  algebra.OpLt,
	"<=": algebra.OpLe,
	">":  algebra.OpGt,
	">=": algebra.OpGe,
	"=":  algebra.OpEq,
	"<>": algebra.OpNe,
	"!=": algebra.OpNe,
}

func parseCompare(val any, prefixes map[string]string) (algebra.Expr, error) {
	m, ok := val.(map[string]any)
	if !ok {
		return nil, &LoadError{Code: ErrCodeBadTerm, Message: "compare: expected a map with op, left, right"}
	}
	opName, _ := m["op"].(string)
	op, ok := compareOps[opName]
	if !ok {
		return nil, &LoadError{Code: ErrCodeBadTerm, Message: fmt.Sprintf("compare: unknown operator %q", opName)}
	}
	left, err := parseLeaf(m["left"], prefixes)
	if err != nil {
		return nil, err
	}
	right, err := parseLeaf(m["right"], prefixes)
	if err != nil {
		return nil, err
	}
	return algebra.Compare{Op: op, Left: left, Right: right}, nil
}

func parseIn(val any, prefixes map[string]string) (algebra.Expr, error) {
	m, ok := val.(map[string]any)
	if !ok {
		return nil, &LoadError{Code: ErrCodeBadTerm, Message: "in: expected a map with expr and values"}
	}
	expr, err := parseLeaf(m["expr"], prefixes)
	if err != nil {
		return nil, err
	}
	rawValues, ok := m["values"].([]any)
	if !ok || len(rawValues) == 0 {
		return nil, &LoadError{Code: ErrCodeBadTerm, Message: "in: expected a non-empty values list"}
	}
	values := make([]rdf.Value, 0, len(rawValues))
	for _, rv := range rawValues {
		v, err := scalarValue(rv)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return algebra.In{Expr: expr, Values: values}, nil
}

func parseCall(val any, prefixes map[string]string) (algebra.Expr, error) {
	m, ok := val.(map[string]any)
	if !ok {
		return nil, &LoadError{Code: ErrCodeBadTerm, Message: "call: expected a map with fn and args"}
	}
	fn, _ := m["fn"].(string)
	if fn == "" {
		return nil, &LoadError{Code: ErrCodeBadTerm, Message: "call: fn is required"}
	}
	iri := fn
	if strings.HasPrefix(fn, "<") && strings.HasSuffix(fn, ">") {
		iri = fn[1 : len(fn)-1]
	} else if expanded, ok := expandPrefix(fn, prefixes); ok {
		iri = expanded
	}
	rawArgs, _ := m["args"].([]any)
	args := make([]algebra.Expr, 0, len(rawArgs))
	for _, ra := range rawArgs {
		arg, err := parseLeaf(ra, prefixes)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return algebra.FuncCall{IRI: iri, Args: args}, nil
}

// parseLeaf maps a YAML scalar to a VarRef ("?name") or a typed Const.
func parseLeaf(v any, prefixes map[string]string) (algebra.Expr, error) {
	if s, ok := v.(string); ok && strings.HasPrefix(s, "?") {
		return algebra.VarRef{Name: s[1:]}, nil
	}
	val, err := scalarValue(v)
	if err != nil {
		return nil, err
	}
	return algebra.Const{Value: val}, nil
}

func scalarValue(v any) (rdf.Value, error) {
	switch x := v.(type) {
	case string:
		return rdf.String(x), nil
	case int:
		return rdf.Int(int64(x)), nil
	case int64:
		return rdf.Int(x), nil
	case float64:
		return rdf.Float(x), nil
	case bool:
		return rdf.Bool(x), nil
	default:
		return nil, &LoadError{Code: ErrCodeBadTerm, Message: fmt.Sprintf("unsupported constant %v (%T)", v, v)}
	}
}

func parseAggregates(docs []aggregateDoc) ([]algebra.Aggregate, error) {
	aggs := make([]algebra.Aggregate, 0, len(docs))
	for _, d := range docs {
		kind, err := aggregateKind(d.Fn, d.Distinct)
		if err != nil {
			return nil, err
		}
		if d.Var == "" {
			return nil, &LoadError{Code: ErrCodeBadTerm, Message: fmt.Sprintf("aggregate %s: var is required", d.Fn)}
		}
		aggs = append(aggs, algebra.Aggregate{Kind: kind, Var: d.Var, As: d.As})
	}
	return aggs, nil
}

func aggregateKind(fn string, distinct bool) (algebra.AggregateKind, error) {
	switch fn {
	case "count":
		if distinct {
			return algebra.AggCountDistinct, nil
		}
		return algebra.AggCount, nil
	case "sum":
		if distinct {
			return algebra.AggSumDistinct, nil
		}
		return algebra.AggSum, nil
	case "avg":
		if distinct {
			return algebra.AggAvgDistinct, nil
		}
		return algebra.AggAvg, nil
	case "min", "max":
		if distinct {
			return 0, &LoadError{Code: ErrCodeBadTerm, Message: fmt.Sprintf("aggregate %s does not support distinct", fn)}
		}
		if fn == "min" {
			return algebra.AggMin, nil
		}
		return algebra.AggMax, nil
	default:
		return 0, &LoadError{Code: ErrCodeBadTerm, Message: fmt.Sprintf("unknown aggregate function %q", fn)}
	}
}
