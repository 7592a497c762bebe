package cypher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherbridge/cypherbridge/internal/rdf"
)

func TestAnalyzeRoles(t *testing.T) {
	testCases := []struct {
		name string
		bgp  rdf.BGP
		want map[string]Role
	}{
		{
			name: "subject is node",
			bgp: rdf.BGP{
				{S: rdf.Var{Name: "s"}, P: rdf.IRI{Value: "http://x/p"}, O: rdf.StringLiteral("v")},
			},
			want: map[string]Role{"s": RoleNode},
		},
		{
			name: "object only is ambiguous",
			bgp: rdf.BGP{
				{S: rdf.IRI{Value: "http://x/a"}, P: rdf.IRI{Value: "http://x/p"}, O: rdf.Var{Name: "o"}},
			},
			want: map[string]Role{"o": RoleAmbiguous},
		},
		{
			name: "predicate only is edge label",
			bgp: rdf.BGP{
				{S: rdf.IRI{Value: "http://x/a"}, P: rdf.Var{Name: "p"}, O: rdf.Var{Name: "o"}},
			},
			want: map[string]Role{"p": RoleEdgeLabel, "o": RoleAmbiguous},
		},
		{
			name: "subject appearance wins over object appearance",
			bgp: rdf.BGP{
				{S: rdf.Var{Name: "a"}, P: rdf.IRI{Value: "http://x/p"}, O: rdf.Var{Name: "b"}},
				{S: rdf.Var{Name: "b"}, P: rdf.IRI{Value: "http://x/q"}, O: rdf.Var{Name: "c"}},
			},
			want: map[string]Role{"a": RoleNode, "b": RoleNode, "c": RoleAmbiguous},
		},
		{
			name: "subject appearance wins over predicate appearance",
			bgp: rdf.BGP{
				{S: rdf.Var{Name: "p"}, P: rdf.IRI{Value: "http://x/q"}, O: rdf.StringLiteral("v")},
				{S: rdf.IRI{Value: "http://x/a"}, P: rdf.Var{Name: "p"}, O: rdf.Var{Name: "o"}},
			},
			want: map[string]Role{"p": RoleNode, "o": RoleAmbiguous},
		},
		{
			name: "predicate appearance wins over object appearance",
			bgp: rdf.BGP{
				{S: rdf.IRI{Value: "http://x/a"}, P: rdf.Var{Name: "p"}, O: rdf.Var{Name: "p"}},
			},
			want: map[string]Role{"p": RoleEdgeLabel},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AnalyzeRoles(tc.bgp)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAnalyzeRoles_EmptyPattern(t *testing.T) {
	_, err := AnalyzeRoles(rdf.BGP{})
	ce, ok := AsCompileError(err)
	require.True(t, ok)
	assert.Equal(t, FailureEmptyPattern, ce.Kind)
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "NODE", RoleNode.String())
	assert.Equal(t, "EDGE-LABEL", RoleEdgeLabel.String())
	assert.Equal(t, "AMBIGUOUS", RoleAmbiguous.String())
}
