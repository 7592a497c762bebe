package cypher

import (
	"strconv"

	"github.com/cypherbridge/cypherbridge/internal/rdf"
)

// Binder allocates query parameter names and geometry prefixes for one
// compile call. Name uniqueness is structural: every allocation checks
// the taken set, so no caller can accidentally reuse a name by passing a
// stale counter around.
//
// A Binder is local to a single compile call and never shared across
// calls or goroutines.
type Binder struct {
	params  map[string]rdf.Value
	taken   map[string]struct{}
	nextP   int
	nextGeo int
}

// NewBinder creates an empty Binder.
func NewBinder() *Binder {
	return &Binder{
		params: make(map[string]rdf.Value),
		taken:  make(map[string]struct{}),
	}
}

// NewBinderReserving creates a Binder whose allocations skip the given
// names. Used by UNION compilation so the second side can never collide
// with the first side's parameters.
func NewBinderReserving(names []string) *Binder {
	b := NewBinder()
	for _, n := range names {
		b.taken[n] = struct{}{}
	}
	return b
}

// Bind allocates the next free "p<N>" name for the value and returns it.
func (b *Binder) Bind(v rdf.Value) string {
	for {
		name := "p" + strconv.Itoa(b.nextP)
		b.nextP++
		if _, used := b.taken[name]; used {
			continue
		}
		b.taken[name] = struct{}{}
		b.params[name] = v
		return name
	}
}

// BindAs binds a value under an explicit name. Used for geometry
// parameters whose names derive from a unique prefix. The name must not
// already be taken; allocating under a taken name is a programming error
// and panics rather than silently clobbering a parameter.
func (b *Binder) BindAs(name string, v rdf.Value) string {
	if _, used := b.taken[name]; used {
		panic("cypher: parameter name already taken: " + name)
	}
	b.taken[name] = struct{}{}
	b.params[name] = v
	return name
}

// GeoPrefix allocates the next free geometry name prefix ("g0", "g1", ...).
func (b *Binder) GeoPrefix() string {
	for {
		prefix := "g" + strconv.Itoa(b.nextGeo)
		b.nextGeo++
		if _, used := b.taken[prefix+"_lat"]; used {
			continue
		}
		return prefix
	}
}

// Merge absorbs another binder's parameters. The other binder must have
// been created with NewBinderReserving over this binder's names, so the
// maps are disjoint.
func (b *Binder) Merge(other *Binder) {
	for name, v := range other.params {
		b.params[name] = v
		b.taken[name] = struct{}{}
	}
}

// Params returns a copy of the accumulated parameter map.
func (b *Binder) Params() map[string]rdf.Value {
	out := make(map[string]rdf.Value, len(b.params))
	for k, v := range b.params {
		out[k] = v
	}
	return out
}

// Names returns every allocated or reserved parameter name.
func (b *Binder) Names() []string {
	out := make([]string, 0, len(b.taken))
	for n := range b.taken {
		out = append(out, n)
	}
	return out
}
