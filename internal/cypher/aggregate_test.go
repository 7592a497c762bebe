package cypher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherbridge/cypherbridge/internal/algebra"
)

func TestTranslateAggregation_CountDistinctWithGrouping(t *testing.T) {
	bindings := map[string]Binding{
		"type": {Column: "type", Expr: "lbl_p", Kind: BindEntity},
		"p":    {Column: "p", Expr: "type(r_p)", Kind: BindEntity},
	}
	aggs := []algebra.Aggregate{
		{Kind: algebra.AggCountDistinct, Var: "p", As: "count"},
	}

	res, err := TranslateAggregation(aggs, []string{"type"}, bindings)
	require.NoError(t, err)
	assert.Equal(t, "lbl_p AS type, count(DISTINCT type(r_p)) AS count", res.Projection)
	assert.Equal(t, []string{"type"}, res.GroupOutputs)
	assert.Equal(t, []string{"count"}, res.AggOutputs)
}

func TestTranslateAggregation_DefaultOutputName(t *testing.T) {
	bindings := map[string]Binding{
		"age": {Column: "age", Expr: "s.`http://x/age`", Kind: BindScalar},
	}
	aggs := []algebra.Aggregate{
		{Kind: algebra.AggAvg, Var: "age"},
	}

	res, err := TranslateAggregation(aggs, nil, bindings)
	require.NoError(t, err)
	assert.Equal(t, "avg(s.`http://x/age`) AS avg", res.Projection)
	assert.Equal(t, []string{"avg"}, res.AggOutputs)
}

func TestTranslateAggregation_UnmappedInputsUsedVerbatim(t *testing.T) {
	aggs := []algebra.Aggregate{
		{Kind: algebra.AggCount, Var: "row", As: "n"},
	}

	res, err := TranslateAggregation(aggs, []string{"bucket"}, nil)
	require.NoError(t, err)
	// Grouping variable without a binding projects under its own name,
	// with no redundant alias.
	assert.Equal(t, "bucket, count(row) AS n", res.Projection)
}

func TestTranslateAggregation_AllFunctions(t *testing.T) {
	testCases := []struct {
		kind algebra.AggregateKind
		want string
	}{
		{kind: algebra.AggCount, want: "count(x) AS out"},
		{kind: algebra.AggCountDistinct, want: "count(DISTINCT x) AS out"},
		{kind: algebra.AggSum, want: "sum(x) AS out"},
		{kind: algebra.AggSumDistinct, want: "sum(DISTINCT x) AS out"},
		{kind: algebra.AggAvg, want: "avg(x) AS out"},
		{kind: algebra.AggAvgDistinct, want: "avg(DISTINCT x) AS out"},
		{kind: algebra.AggMin, want: "min(x) AS out"},
		{kind: algebra.AggMax, want: "max(x) AS out"},
	}

	for _, tc := range testCases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			res, err := TranslateAggregation(
				[]algebra.Aggregate{{Kind: tc.kind, Var: "x", As: "out"}}, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Projection)
		})
	}
}

func TestTranslateAggregation_Failures(t *testing.T) {
	t.Run("empty aggregate list", func(t *testing.T) {
		_, err := TranslateAggregation(nil, []string{"g"}, nil)
		ce, ok := AsCompileError(err)
		require.True(t, ok)
		assert.Equal(t, FailureEmptyPattern, ce.Kind)
	})

	t.Run("unknown aggregate kind", func(t *testing.T) {
		_, err := TranslateAggregation(
			[]algebra.Aggregate{{Kind: algebra.AggregateKind(99), Var: "x"}}, nil, nil)
		ce, ok := AsCompileError(err)
		require.True(t, ok)
		assert.Equal(t, FailureUnsupportedAggregate, ce.Kind)
	})
}
