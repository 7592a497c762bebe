package algebra

// AggregateKind enumerates the aggregate functions the translator
// supports. The set is closed: anything else is an UnsupportedAggregate
// failure by construction of the type switch in internal/cypher.
type AggregateKind uint8

const (
	AggCount AggregateKind = iota
	AggCountDistinct
	AggSum
	AggSumDistinct
	AggAvg
	AggAvgDistinct
	AggMin
	AggMax
)

// String returns a diagnostic name for the kind.
func (k AggregateKind) String() string {
	switch k {
	case AggCount:
		return "count"
	case AggCountDistinct:
		return "count-distinct"
	case AggSum:
		return "sum"
	case AggSumDistinct:
		return "sum-distinct"
	case AggAvg:
		return "avg"
	case AggAvgDistinct:
		return "avg-distinct"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	default:
		return "unknown"
	}
}

// Aggregate pairs one aggregate function with the pattern variable it
// consumes. As names the output column; when empty, the function's base
// name is used (count, sum, avg, min, max).
type Aggregate struct {
	Kind AggregateKind
	Var  string
	As   string
}
