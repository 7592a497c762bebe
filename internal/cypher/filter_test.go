package cypher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherbridge/cypherbridge/internal/algebra"
	"github.com/cypherbridge/cypherbridge/internal/rdf"
)

func TestCompileWithFilter_Comparison(t *testing.T) {
	c := New()
	bgp := rdf.BGP{
		tp(v("person"), iri(rdf.TypeIRI), iri("http://example.org/Person")),
		tp(v("person"), iri("http://example.org/age"), v("age")),
		tp(v("person"), iri("http://example.org/knows"), v("friend")),
		tp(v("friend"), iri(rdf.TypeIRI), iri("http://example.org/Person")),
	}
	filter := algebra.Compare{
		Op:    algebra.OpGt,
		Left:  algebra.VarRef{Name: "age"},
		Right: algebra.Const{Value: rdf.Int(30)},
	}

	res, err := c.CompileWithFilter(bgp, filter)
	require.NoError(t, err)

	// One ambiguous variable -> two branches, and the filter lands in
	// both, not just the first.
	assert.Equal(t, 2, res.Branches)
	branches := strings.Split(res.Query, "\nUNION\n")
	require.Len(t, branches, 2)
	for i, br := range branches {
		assert.Contains(t, br, "WHERE", "branch %d", i)
		assert.Contains(t, br, " > $p", "branch %d", i)
	}

	// One parameter per branch translation, all carrying the constant.
	for name, val := range res.Params {
		assert.Equal(t, rdf.Int(30), val, "param %s", name)
	}
	assert.Len(t, res.Params, 2)
}

func TestCompileWithFilter_SingleBranchRendering(t *testing.T) {
	c := New()
	bgp := rdf.BGP{
		tp(v("person"), iri(rdf.TypeIRI), iri("http://example.org/Person")),
		tp(v("person"), iri("http://example.org/name"), rdf.StringLiteral("Alice")),
	}
	filter := algebra.Compare{
		Op:    algebra.OpNe,
		Left:  algebra.VarRef{Name: "person"},
		Right: algebra.Const{Value: rdf.String("http://example.org/alice")},
	}

	res, err := c.CompileWithFilter(bgp, filter)
	require.NoError(t, err)
	assert.Equal(t,
		"MATCH (person:Resource:`http://example.org/Person`)\n"+
			"WHERE person.`http://example.org/name` = $p0 AND (person.uri <> $p1)\n"+
			"RETURN person.uri AS person",
		res.Query)
	assert.Equal(t, rdf.String("http://example.org/alice"), res.Params["p1"])
}

func TestCompileWithFilter_BooleanConnectives(t *testing.T) {
	c := New()
	bgp := rdf.BGP{
		tp(v("s"), iri(rdf.TypeIRI), iri("http://x/T")),
		tp(v("s"), iri("http://x/a"), v("a")),
		tp(v("s"), iri("http://x/link"), v("t")),
		tp(v("t"), iri(rdf.TypeIRI), iri("http://x/U")),
	}
	filter := algebra.And{
		Left: algebra.Or{
			Left:  algebra.Compare{Op: algebra.OpLt, Left: algebra.VarRef{Name: "a"}, Right: algebra.Const{Value: rdf.Int(10)}},
			Right: algebra.Compare{Op: algebra.OpGe, Left: algebra.VarRef{Name: "a"}, Right: algebra.Const{Value: rdf.Int(90)}},
		},
		Right: algebra.Not{
			Expr: algebra.Compare{Op: algebra.OpEq, Left: algebra.VarRef{Name: "a"}, Right: algebra.Const{Value: rdf.Int(50)}},
		},
	}

	res, err := c.CompileWithFilter(bgp, filter)
	require.NoError(t, err)
	assert.Contains(t, res.Query,
		"((s.`http://x/a` < $p0 OR s.`http://x/a` >= $p1) AND NOT (s.`http://x/a` = $p2))")
}

func TestCompileWithFilter_InListIsParameterized(t *testing.T) {
	c := New()
	bgp := rdf.BGP{
		tp(v("s"), iri(rdf.TypeIRI), iri("http://x/T")),
		tp(v("s"), iri("http://x/name"), v("n")),
		tp(v("s"), iri("http://x/link"), v("t")),
		tp(v("t"), iri(rdf.TypeIRI), iri("http://x/U")),
	}
	filter := algebra.In{
		Expr:   algebra.VarRef{Name: "n"},
		Values: []rdf.Value{rdf.String("Alice"), rdf.String("Bo'b")},
	}

	res, err := c.CompileWithFilter(bgp, filter)
	require.NoError(t, err)

	// Membership elements are scalar constants like any other: each one
	// binds as a named parameter, once per branch, and the raw values
	// never appear in the query text.
	assert.Contains(t, res.Query, "IN [$p0, $p1]")
	assert.Contains(t, res.Query, "IN [$p2, $p3]")
	assert.NotContains(t, res.Query, "Alice")
	assert.Equal(t, rdf.String("Alice"), res.Params["p0"])
	assert.Equal(t, rdf.String("Bo'b"), res.Params["p1"])
	assert.Equal(t, rdf.String("Alice"), res.Params["p2"])
	assert.Equal(t, rdf.String("Bo'b"), res.Params["p3"])
}

func TestCompileWithFilter_MissingBinding(t *testing.T) {
	c := New()
	bgp := rdf.BGP{
		tp(v("person"), iri(rdf.TypeIRI), iri("http://example.org/Person")),
	}
	filter := algebra.Compare{
		Op:    algebra.OpGt,
		Left:  algebra.VarRef{Name: "nowhere"},
		Right: algebra.Const{Value: rdf.Int(1)},
	}

	_, err := c.CompileWithFilter(bgp, filter)
	ce, ok := AsCompileError(err)
	require.True(t, ok)
	assert.Equal(t, FailureMissingBinding, ce.Kind)
	assert.Contains(t, ce.Reason, "?nowhere")
}

func TestCompileWithFilter_UnknownFunction(t *testing.T) {
	c := New()
	bgp := rdf.BGP{
		tp(v("person"), iri(rdf.TypeIRI), iri("http://example.org/Person")),
	}
	filter := algebra.FuncCall{IRI: "http://example.org/fn#custom"}

	_, err := c.CompileWithFilter(bgp, filter)
	ce, ok := AsCompileError(err)
	require.True(t, ok)
	assert.Equal(t, FailureUnsupportedShape, ce.Kind)
}

func TestCompileWithFilter_SpatialPredicate(t *testing.T) {
	c := New()
	bgp := rdf.BGP{
		tp(v("s"), iri("http://x/where"), v("loc")),
	}
	filter := algebra.FuncCall{
		IRI: algebra.SpatialFnPrefix + "sfWithin",
		Args: []algebra.Expr{
			algebra.VarRef{Name: "loc"},
			algebra.Const{Value: rdf.String("POINT(2.35 48.85)")},
		},
	}

	res, err := c.CompileWithFilter(bgp, filter)
	require.NoError(t, err)

	// Two branches, each with its own geometry prefix and tolerance.
	assert.Contains(t, res.Query,
		"(distance(loc, point({latitude: $g0_lat, longitude: $g0_lon})) <= $g0_tol)")
	assert.Contains(t, res.Query,
		"(distance(s.`http://x/where`, point({latitude: $g1_lat, longitude: $g1_lon})) <= $g1_tol)")
	assert.Equal(t, rdf.Float(48.85), res.Params["g0_lat"])
	assert.Equal(t, rdf.Float(2.35), res.Params["g0_lon"])
	assert.Equal(t, rdf.Float(DefaultSpatialToleranceMeters), res.Params["g0_tol"])
	assert.Equal(t, rdf.Float(DefaultSpatialToleranceMeters), res.Params["g1_tol"])
}

func TestCompileWithFilter_DistanceComparison(t *testing.T) {
	c := New()
	bgp := rdf.BGP{
		tp(v("s"), iri("http://x/where"), v("loc")),
	}
	// distance() is a numeric expression, so the caller picks the bound
	// instead of relying on the tolerance constant.
	filter := algebra.Compare{
		Op: algebra.OpLt,
		Left: algebra.FuncCall{
			IRI: algebra.SpatialFnPrefix + "distance",
			Args: []algebra.Expr{
				algebra.VarRef{Name: "loc"},
				algebra.Const{Value: rdf.String("POINT(2.35 48.85)")},
			},
		},
		Right: algebra.Const{Value: rdf.Float(500)},
	}

	res, err := c.CompileWithFilter(bgp, filter)
	require.NoError(t, err)

	assert.Contains(t, res.Query,
		"(distance(loc, point({latitude: $g0_lat, longitude: $g0_lon})) < $p0)")
	assert.Contains(t, res.Query,
		"(distance(s.`http://x/where`, point({latitude: $g1_lat, longitude: $g1_lon})) < $p1)")
	assert.Equal(t, rdf.Float(500), res.Params["p0"])
	assert.Equal(t, rdf.Float(500), res.Params["p1"])
	assert.NotContains(t, res.Query, "_tol")
}

func TestCompileWithFilter_SpatialToleranceOverride(t *testing.T) {
	c := New()
	c.SpatialToleranceMeters = 250
	bgp := rdf.BGP{
		tp(v("s"), iri("http://x/where"), v("loc")),
	}
	filter := algebra.FuncCall{
		IRI: algebra.SpatialFnPrefix + "sfIntersects",
		Args: []algebra.Expr{
			algebra.VarRef{Name: "loc"},
			algebra.Const{Value: rdf.String("POLYGON((0 0, 0 2, 2 2, 2 0, 0 0))")},
		},
	}

	res, err := c.CompileWithFilter(bgp, filter)
	require.NoError(t, err)
	assert.Equal(t, rdf.Float(250), res.Params["g0_tol"])
	assert.Equal(t, rdf.Float(1), res.Params["g0_lat"])
	assert.Equal(t, rdf.Float(2), res.Params["g0_maxLon"])
}

func TestCompileWithFilter_GeometryFailurePropagates(t *testing.T) {
	c := New()
	bgp := rdf.BGP{
		tp(v("s"), iri("http://x/where"), v("loc")),
	}
	filter := algebra.FuncCall{
		IRI: algebra.SpatialFnPrefix + "sfWithin",
		Args: []algebra.Expr{
			algebra.VarRef{Name: "loc"},
			algebra.Const{Value: rdf.String("CIRCLE(1 2)")},
		},
	}

	_, err := c.CompileWithFilter(bgp, filter)
	ce, ok := AsCompileError(err)
	require.True(t, ok)
	assert.Equal(t, FailureGeometryParse, ce.Kind)
}

func TestEdgeLabel_PropertyBranchNarrowedByFilter(t *testing.T) {
	c := New()
	bgp := rdf.BGP{
		tp(v("s"), v("p"), v("o")),
	}

	testCases := []struct {
		name   string
		filter algebra.Expr
		want   string
	}{
		{
			name: "equality",
			filter: algebra.Compare{
				Op:    algebra.OpEq,
				Left:  algebra.VarRef{Name: "p"},
				Right: algebra.Const{Value: rdf.String("http://x/name")},
			},
			want: "UNWIND ['http://x/name'] AS k_p",
		},
		{
			name: "reversed equality",
			filter: algebra.Compare{
				Op:    algebra.OpEq,
				Left:  algebra.Const{Value: rdf.String("http://x/name")},
				Right: algebra.VarRef{Name: "p"},
			},
			want: "UNWIND ['http://x/name'] AS k_p",
		},
		{
			name: "membership",
			filter: algebra.In{
				Expr:   algebra.VarRef{Name: "p"},
				Values: []rdf.Value{rdf.String("http://x/a"), rdf.String("http://x/b")},
			},
			want: "UNWIND ['http://x/a', 'http://x/b'] AS k_p",
		},
		{
			name: "or of equalities",
			filter: algebra.Or{
				Left: algebra.Compare{
					Op:    algebra.OpEq,
					Left:  algebra.VarRef{Name: "p"},
					Right: algebra.Const{Value: rdf.String("http://x/a")},
				},
				Right: algebra.Compare{
					Op:    algebra.OpEq,
					Left:  algebra.VarRef{Name: "p"},
					Right: algebra.Const{Value: rdf.String("http://x/b")},
				},
			},
			want: "UNWIND ['http://x/a', 'http://x/b'] AS k_p",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := c.CompileWithFilter(bgp, tc.filter)
			require.NoError(t, err)
			assert.Contains(t, res.Query, tc.want)
			assert.Contains(t, res.Query, "s[k_p] IS NOT NULL")
			// The filter itself is still present in every branch.
			assert.Equal(t, 3, res.Branches)
		})
	}
}

func TestEdgeLabel_InconclusiveNarrowingKeepsFullEnumeration(t *testing.T) {
	c := New()
	bgp := rdf.BGP{
		tp(v("s"), v("p"), v("o")),
	}
	// Inequality over the predicate cannot narrow the key list.
	filter := algebra.Compare{
		Op:    algebra.OpNe,
		Left:  algebra.VarRef{Name: "p"},
		Right: algebra.Const{Value: rdf.String("http://x/name")},
	}

	res, err := c.CompileWithFilter(bgp, filter)
	require.NoError(t, err)
	assert.Contains(t, res.Query, "UNWIND [k IN keys(s) WHERE k <> 'uri'] AS k_p")
}
