package cypher

import "github.com/cypherbridge/cypherbridge/internal/rdf"

// CompileUnion compiles two BGPs independently and concatenates their
// queries with UNION. The second side's binder reserves every name the
// first side allocated, so parameter collisions are impossible by
// construction (first-branch names win trivially).
//
// Cypher rejects a UNION whose sides project different columns, so two
// patterns binding different variable sets are an unsupported shape
// rather than a runtime engine error.
func (c *Compiler) CompileUnion(left, right rdf.BGP) (*Result, error) {
	lb := NewBinder()
	lq, err := c.compileQuery(left, nil, lb)
	if err != nil {
		return nil, err
	}
	rb := NewBinderReserving(lb.Names())
	rq, err := c.compileQuery(right, nil, rb)
	if err != nil {
		return nil, err
	}

	combined := &query{branches: append(append([]*branch(nil), lq.branches...), rq.branches...)}
	lb.Merge(rb)
	return assemble(combined, lb)
}
