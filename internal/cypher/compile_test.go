package cypher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherbridge/cypherbridge/internal/rdf"
)

func iri(value string) rdf.IRI { return rdf.IRI{Value: value} }
func v(name string) rdf.Var    { return rdf.Var{Name: name} }

func tp(s, p, o rdf.Term) rdf.TriplePattern {
	return rdf.TriplePattern{S: s, P: p, O: o}
}

func TestCompile_TypeAndLiteral(t *testing.T) {
	c := New()
	bgp := rdf.BGP{
		tp(v("person"), iri(rdf.TypeIRI), iri("http://example.org/Person")),
		tp(v("person"), iri("http://example.org/name"), rdf.StringLiteral("Alice")),
	}

	res, err := c.Compile(bgp)
	require.NoError(t, err)

	assert.Equal(t,
		"MATCH (person:Resource:`http://example.org/Person`)\n"+
			"WHERE person.`http://example.org/name` = $p0\n"+
			"RETURN person.uri AS person",
		res.Query)
	assert.Equal(t, 1, res.Branches)
	assert.Equal(t, map[string]rdf.Value{"p0": rdf.String("Alice")}, res.Params)

	// The literal value travels as a parameter, never inline.
	assert.NotContains(t, res.Query, "Alice")

	require.Contains(t, res.Bindings, "person")
	assert.Equal(t, BindEntity, res.Bindings["person"].Kind)
	assert.Equal(t, "person", res.Bindings["person"].Column)
}

func TestCompile_SingleAmbiguousObject(t *testing.T) {
	c := New()
	bgp := rdf.BGP{
		tp(v("s"), iri("http://example.org/knows"), v("o")),
	}

	res, err := c.Compile(bgp)
	require.NoError(t, err)

	assert.Equal(t,
		"MATCH (s:Resource)-[:`http://example.org/knows`]->(o:Resource)\n"+
			"RETURN o AS o, s.uri AS s\n"+
			"UNION\n"+
			"MATCH (s:Resource)\n"+
			"WHERE s.`http://example.org/knows` IS NOT NULL\n"+
			"RETURN s.`http://example.org/knows` AS o, s.uri AS s",
		res.Query)
	assert.Equal(t, 2, res.Branches)
	assert.Empty(t, res.Params)

	// The subject resolves identically in both branches; the object's
	// interpretation differs per branch, so it degrades to dynamic.
	assert.Equal(t, BindEntity, res.Bindings["s"].Kind)
	assert.Equal(t, BindDynamic, res.Bindings["o"].Kind)
}

func TestCompile_EdgeLabelUnion(t *testing.T) {
	c := New()
	bgp := rdf.BGP{
		tp(v("s"), v("p"), v("o")),
	}

	res, err := c.Compile(bgp)
	require.NoError(t, err)

	assert.Equal(t,
		"MATCH (s:Resource)-[r_p]->(o:Resource)\n"+
			"RETURN o AS o, type(r_p) AS p, s.uri AS s\n"+
			"UNION\n"+
			"MATCH (s:Resource)\n"+
			"UNWIND [k IN keys(s) WHERE k <> 'uri'] AS k_p\n"+
			"WITH s, k_p\n"+
			"RETURN s[k_p] AS o, k_p AS p, s.uri AS s\n"+
			"UNION\n"+
			"MATCH (s:Resource)\n"+
			"UNWIND [l IN labels(s) WHERE l <> 'Resource'] AS lbl_p\n"+
			"WITH s, lbl_p\n"+
			"RETURN lbl_p AS o, 'http://www.w3.org/1999/02/22-rdf-syntax-ns#type' AS p, s.uri AS s",
		res.Query)
	assert.Equal(t, 3, res.Branches)
	assert.Equal(t, BindDynamic, res.Bindings["o"].Kind)
	assert.Equal(t, BindEntity, res.Bindings["s"].Kind)

	// All three branches return a URI for the predicate, just through
	// different expressions: the expression degrades to the column but
	// the entity kind survives the merge.
	assert.Equal(t, Binding{Column: "p", Expr: "p", Kind: BindEntity}, res.Bindings["p"])
}

func TestCompile_BoundSubjectURI(t *testing.T) {
	c := New()
	bgp := rdf.BGP{
		tp(iri("http://example.org/alice"), iri("http://example.org/knows"), v("o")),
	}

	res, err := c.Compile(bgp)
	require.NoError(t, err)

	// The bound URI becomes a uri-property match with a parameter, once
	// per branch, and the node variable is a deterministic synthetic.
	key := NodeVar(iri("http://example.org/alice"))
	assert.Contains(t, res.Query, "("+key+":Resource {uri: $p0})")
	assert.Contains(t, res.Query, "("+key+":Resource {uri: $p1})")
	assert.Equal(t, rdf.String("http://example.org/alice"), res.Params["p0"])
	assert.Equal(t, rdf.String("http://example.org/alice"), res.Params["p1"])
	assert.NotContains(t, res.Query, "'http://example.org/alice'")
}

func TestCompile_PartialUnion(t *testing.T) {
	c := New()
	bgp := rdf.BGP{
		tp(v("a"), iri("http://example.org/link"), v("b")),
		tp(v("b"), iri("http://example.org/prop"), v("c")),
	}

	res, err := c.Compile(bgp)
	require.NoError(t, err)

	assert.Equal(t,
		"MATCH (a:Resource)-[:`http://example.org/link`]->(b:Resource)\n"+
			"WHERE b.`http://example.org/prop` IS NOT NULL\n"+
			"RETURN a.uri AS a, b.uri AS b, b.`http://example.org/prop` AS c\n"+
			"UNION\n"+
			"MATCH (a:Resource)-[:`http://example.org/link`]->(b:Resource)\n"+
			"MATCH (b)-[:`http://example.org/prop`]->(c:Resource)\n"+
			"RETURN a.uri AS a, b.uri AS b, c AS c",
		res.Query)
	assert.Equal(t, 2, res.Branches)
	assert.Equal(t, BindDynamic, res.Bindings["c"].Kind)
}

func TestCompile_PartialUnionBranchCount(t *testing.T) {
	// k distinct ambiguous variables expand to 2^k branches.
	c := New()
	bgp := rdf.BGP{
		tp(v("a"), iri("http://example.org/link"), v("b")),
		tp(v("b"), iri("http://example.org/p1"), v("c")),
		tp(v("b"), iri("http://example.org/p2"), v("d")),
	}

	res, err := c.Compile(bgp)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Branches)
}

func TestCompile_SharedAmbiguousVariableJoins(t *testing.T) {
	// The same ambiguous variable sourced from two properties joins on
	// value equality instead of rebinding.
	c := New()
	bgp := rdf.BGP{
		tp(v("a"), iri("http://example.org/link"), v("b")),
		tp(v("a"), iri("http://example.org/p1"), v("x")),
		tp(v("b"), iri("http://example.org/p2"), v("x")),
	}

	res, err := c.Compile(bgp)
	require.NoError(t, err)
	// One ambiguous variable, two branches.
	assert.Equal(t, 2, res.Branches)
	assert.Contains(t, res.Query,
		"b.`http://example.org/p2` = a.`http://example.org/p1`")
}

func TestCompile_Determinism(t *testing.T) {
	c := New()
	bgp := rdf.BGP{
		tp(v("zeta"), iri(rdf.TypeIRI), iri("http://example.org/T")),
		tp(v("zeta"), iri("http://example.org/a"), rdf.IntLiteral(1)),
		tp(v("zeta"), iri("http://example.org/b"), v("alpha")),
		tp(v("zeta"), iri("http://example.org/c"), v("beta")),
		tp(v("zeta"), iri("http://example.org/d"), v("other")),
		tp(v("other"), iri("http://example.org/e"), rdf.StringLiteral("x")),
	}

	first, err := c.Compile(bgp)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := c.Compile(bgp)
		require.NoError(t, err)
		assert.Equal(t, first.Query, again.Query)
		assert.Equal(t, first.Params, again.Params)
	}
}

func TestCompile_Failures(t *testing.T) {
	c := New()

	testCases := []struct {
		name string
		bgp  rdf.BGP
		kind FailureKind
	}{
		{
			name: "empty pattern",
			bgp:  rdf.BGP{},
			kind: FailureEmptyPattern,
		},
		{
			name: "multiple variable predicates",
			bgp: rdf.BGP{
				tp(v("s"), v("p"), v("o")),
				tp(v("s"), v("q"), v("o2")),
			},
			kind: FailureUnsupportedShape,
		},
		{
			name: "variable predicate in multi-triple pattern",
			bgp: rdf.BGP{
				tp(v("s"), v("p"), v("o")),
				tp(v("s"), iri("http://x/q"), rdf.StringLiteral("v")),
			},
			kind: FailureUnsupportedShape,
		},
		{
			name: "literal subject",
			bgp: rdf.BGP{
				tp(rdf.StringLiteral("oops"), iri("http://x/p"), v("o")),
			},
			kind: FailureUnsupportedShape,
		},
		{
			name: "variable type object",
			bgp: rdf.BGP{
				tp(v("s"), iri(rdf.TypeIRI), v("t")),
				tp(v("s"), iri("http://x/p"), rdf.StringLiteral("v")),
			},
			kind: FailureUnsupportedShape,
		},
		{
			name: "ambiguous variables without relationship anchor",
			bgp: rdf.BGP{
				tp(v("s"), iri("http://x/p1"), v("a")),
				tp(v("s"), iri("http://x/p2"), v("b")),
			},
			kind: FailureUnsupportedShape,
		},
		{
			name: "bound object with variable predicate",
			bgp: rdf.BGP{
				tp(v("s"), v("p"), iri("http://x/o")),
			},
			kind: FailureUnsupportedShape,
		},
		{
			name: "predicate variable reused as object",
			bgp: rdf.BGP{
				tp(v("s"), v("p"), v("p")),
			},
			kind: FailureUnsupportedShape,
		},
		{
			// Only the relationship branch could honor the subject-object
			// equality; enumeration branches would return wrong rows.
			name: "subject variable reused as object",
			bgp: rdf.BGP{
				tp(v("s"), v("p"), v("s")),
			},
			kind: FailureUnsupportedShape,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Compile(tc.bgp)
			ce, ok := AsCompileError(err)
			require.True(t, ok, "want a typed compile failure, got %v", err)
			assert.Equal(t, tc.kind, ce.Kind)
		})
	}
}

func TestCompile_AmbiguousVariableLimit(t *testing.T) {
	c := New()
	c.MaxAmbiguousVars = 2
	bgp := rdf.BGP{
		tp(v("a"), iri("http://x/link"), v("b")),
		tp(v("b"), iri("http://x/p1"), v("c")),
		tp(v("b"), iri("http://x/p2"), v("d")),
		tp(v("b"), iri("http://x/p3"), v("e")),
	}

	_, err := c.Compile(bgp)
	ce, ok := AsCompileError(err)
	require.True(t, ok)
	assert.Equal(t, FailureUnsupportedShape, ce.Kind)
	assert.Contains(t, ce.Reason, "3 ambiguous object variables exceeds limit 2")
}

func TestCompileError_Message(t *testing.T) {
	_, err := New().Compile(rdf.BGP{})
	require.Error(t, err)
	assert.Equal(t, "cannot compile: EmptyPattern: basic graph pattern has no triples", err.Error())
}
