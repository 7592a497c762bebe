package exec

import (
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/cypherbridge/cypherbridge/internal/cypher"
	"github.com/cypherbridge/cypherbridge/internal/rdf"
)

// convertRows materializes engine rows back into the host's variable
// binding representation, guided by each column's binding kind.
func convertRows(rows []Row, bindings map[string]cypher.Binding) []Solution {
	out := make([]Solution, 0, len(rows))
	for _, row := range rows {
		sol := make(Solution, len(bindings))
		for name, b := range bindings {
			value, ok := row[b.Column]
			if !ok || value == nil {
				continue
			}
			if term := termFromValue(value, b.Kind); term != nil {
				sol[name] = term
			}
		}
		out = append(out, sol)
	}
	return out
}

// termFromValue wraps one column value. Entity columns carry uri
// strings; dynamic columns may carry a whole node (relationship branch
// of an ambiguous union) or a raw scalar (property branch), so the value
// shape decides.
func termFromValue(value any, kind cypher.BindingKind) rdf.Term {
	if node, ok := value.(neo4j.Node); ok {
		uri, ok := node.Props[cypher.IDKey].(string)
		if !ok {
			return nil
		}
		return rdf.IRI{Value: uri}
	}

	if kind == cypher.BindEntity {
		if s, ok := value.(string); ok {
			return rdf.IRI{Value: s}
		}
	}
	return scalarLiteral(value)
}

// scalarLiteral wraps a raw engine scalar as a typed literal.
func scalarLiteral(value any) rdf.Term {
	switch v := value.(type) {
	case string:
		return rdf.StringLiteral(v)
	case int64:
		return rdf.IntLiteral(v)
	case int:
		return rdf.IntLiteral(int64(v))
	case float64:
		return rdf.FloatLiteral(v)
	case bool:
		return rdf.BoolLiteral(v)
	default:
		return rdf.StringLiteral(fmt.Sprint(v))
	}
}
