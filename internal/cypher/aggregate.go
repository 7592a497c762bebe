package cypher

import (
	"strings"

	"github.com/cypherbridge/cypherbridge/internal/algebra"
)

// AggregationResult is a translated grouped projection: the full
// projection clause plus the output names of the grouping columns, in
// their original order.
type AggregationResult struct {
	Projection   string
	GroupOutputs []string
	AggOutputs   []string
}

// TranslateAggregation maps aggregate descriptors plus a grouping
// variable list into a Cypher projection clause: grouping variables
// first (in their given order, resolved through the bindings a prior
// pattern compilation produced, or used verbatim if unmapped), then each
// aggregate as "fn(input) AS output", DISTINCT variants inserting the
// keyword inside the call.
func TranslateAggregation(aggregates []algebra.Aggregate, groupVars []string, bindings map[string]Binding) (*AggregationResult, error) {
	if len(aggregates) == 0 {
		return nil, errEmpty("aggregate list is empty")
	}

	var (
		parts      []string
		outputs    []string
		aggOutputs []string
	)
	for _, v := range groupVars {
		alias := SanitizeVarName(v)
		expr := alias
		if vb, ok := bindings[v]; ok {
			expr = vb.Expr
		}
		if expr == alias {
			parts = append(parts, expr)
		} else {
			parts = append(parts, expr+" AS "+alias)
		}
		outputs = append(outputs, alias)
	}

	for _, agg := range aggregates {
		fn, distinct, err := aggregateFunction(agg.Kind)
		if err != nil {
			return nil, err
		}
		input := SanitizeVarName(agg.Var)
		if vb, ok := bindings[agg.Var]; ok {
			input = vb.Expr
		}
		output := agg.As
		if output == "" {
			output = fn
		}
		alias := SanitizeVarName(output)
		if distinct {
			parts = append(parts, fn+"(DISTINCT "+input+") AS "+alias)
		} else {
			parts = append(parts, fn+"("+input+") AS "+alias)
		}
		aggOutputs = append(aggOutputs, alias)
	}

	if len(parts) == 0 {
		return nil, errEmpty("aggregation produced no projection columns")
	}
	return &AggregationResult{
		Projection:   strings.Join(parts, ", "),
		GroupOutputs: outputs,
		AggOutputs:   aggOutputs,
	}, nil
}

// aggregateFunction resolves an aggregate kind to its Cypher function
// name and distinctness. The kind set is closed; anything else is an
// UnsupportedAggregate failure.
func aggregateFunction(kind algebra.AggregateKind) (string, bool, error) {
	switch kind {
	case algebra.AggCount:
		return "count", false, nil
	case algebra.AggCountDistinct:
		return "count", true, nil
	case algebra.AggSum:
		return "sum", false, nil
	case algebra.AggSumDistinct:
		return "sum", true, nil
	case algebra.AggAvg:
		return "avg", false, nil
	case algebra.AggAvgDistinct:
		return "avg", true, nil
	case algebra.AggMin:
		return "min", false, nil
	case algebra.AggMax:
		return "max", false, nil
	default:
		return "", false, errUnsupportedAggregate(kind)
	}
}
