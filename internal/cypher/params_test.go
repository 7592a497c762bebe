package cypher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherbridge/cypherbridge/internal/rdf"
)

func TestBinder_SequentialNames(t *testing.T) {
	b := NewBinder()
	assert.Equal(t, "p0", b.Bind(rdf.String("a")))
	assert.Equal(t, "p1", b.Bind(rdf.Int(1)))
	assert.Equal(t, "p2", b.Bind(rdf.Bool(true)))

	params := b.Params()
	require.Len(t, params, 3)
	assert.Equal(t, rdf.String("a"), params["p0"])
	assert.Equal(t, rdf.Int(1), params["p1"])
	assert.Equal(t, rdf.Bool(true), params["p2"])
}

func TestBinder_ReservedNamesSkipped(t *testing.T) {
	b := NewBinderReserving([]string{"p0", "p1"})
	assert.Equal(t, "p2", b.Bind(rdf.String("x")))
	assert.Equal(t, "p3", b.Bind(rdf.String("y")))
}

func TestBinder_BindAsPanicsOnCollision(t *testing.T) {
	b := NewBinder()
	b.BindAs("g0_lat", rdf.Float(1))
	assert.Panics(t, func() { b.BindAs("g0_lat", rdf.Float(2)) })
}

func TestBinder_GeoPrefixSkipsTaken(t *testing.T) {
	b := NewBinderReserving([]string{"g0_lat"})
	assert.Equal(t, "g1", b.GeoPrefix())
	assert.Equal(t, "g2", b.GeoPrefix())
}

func TestBinder_Merge(t *testing.T) {
	left := NewBinder()
	left.Bind(rdf.String("l"))

	right := NewBinderReserving(left.Names())
	assert.Equal(t, "p1", right.Bind(rdf.String("r")))

	left.Merge(right)
	params := left.Params()
	assert.Equal(t, rdf.String("l"), params["p0"])
	assert.Equal(t, rdf.String("r"), params["p1"])
}

func TestBinder_ParamsIsACopy(t *testing.T) {
	b := NewBinder()
	b.Bind(rdf.String("a"))
	params := b.Params()
	params["p0"] = rdf.String("mutated")
	assert.Equal(t, rdf.String("a"), b.Params()["p0"])
}
