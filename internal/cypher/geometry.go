package cypher

import (
	"strconv"
	"strings"

	"github.com/cypherbridge/cypherbridge/internal/rdf"
)

// DefaultSpatialToleranceMeters is the distance threshold used to
// approximate within/contains/intersects spatial predicates. The
// geometry path is an explicit bounding-box approximation, not real
// polygon math; the constant is named and overridable (Compiler field)
// rather than buried in the emitted text.
const DefaultSpatialToleranceMeters = 100.0

// wktKeywords lists the supported well-known-text grammars, tried in
// order. POINT is exact; the rest reduce to the bounding box of their
// coordinate pairs.
var wktKeywords = []string{"POINT", "POLYGON", "LINESTRING", "MULTIPOINT"}

// TranslateWKT parses a well-known-text geometry literal and emits the
// Cypher point-construction expression for it, adding the coordinate
// parameters to the binder under names derived from prefix.
//
// POINT yields its exact position as <prefix>_lat / <prefix>_lon. The
// other grammars additionally yield <prefix>_minLat, _maxLat, _minLon,
// _maxLon for the bounding box of every parseable "longitude latitude"
// pair, and the returned expression references the box's center. A
// malformed pair inside an otherwise-valid list is skipped; zero
// parseable pairs is a GeometryParseFailure. No grammar match is a
// GeometryParseFailure. Never guesses a default location.
func TranslateWKT(wkt, prefix string, b *Binder) (string, error) {
	text := strings.TrimSpace(wkt)
	upper := strings.ToUpper(text)

	for _, keyword := range wktKeywords {
		if !strings.HasPrefix(upper, keyword) {
			continue
		}
		body := strings.TrimSpace(text[len(keyword):])
		pairs := parseCoordinatePairs(body)
		if len(pairs) == 0 {
			return "", errGeometry("no parseable coordinate pairs in %q", wkt)
		}
		if keyword == "POINT" {
			return bindPoint(prefix, pairs[0][1], pairs[0][0], b), nil
		}
		return bindBoundingBox(prefix, pairs, b), nil
	}
	return "", errGeometry("unrecognized geometry literal %q", wkt)
}

// bindPoint binds the exact position and returns the point expression.
func bindPoint(prefix string, lat, lon float64, b *Binder) string {
	latName := b.BindAs(prefix+"_lat", rdf.Float(lat))
	lonName := b.BindAs(prefix+"_lon", rdf.Float(lon))
	return pointExpr(latName, lonName)
}

// bindBoundingBox binds the box extremes plus its center and returns the
// center's point expression.
func bindBoundingBox(prefix string, pairs [][2]float64, b *Binder) string {
	minLon, minLat := pairs[0][0], pairs[0][1]
	maxLon, maxLat := minLon, minLat
	for _, p := range pairs[1:] {
		if p[0] < minLon {
			minLon = p[0]
		}
		if p[0] > maxLon {
			maxLon = p[0]
		}
		if p[1] < minLat {
			minLat = p[1]
		}
		if p[1] > maxLat {
			maxLat = p[1]
		}
	}
	b.BindAs(prefix+"_minLat", rdf.Float(minLat))
	b.BindAs(prefix+"_maxLat", rdf.Float(maxLat))
	b.BindAs(prefix+"_minLon", rdf.Float(minLon))
	b.BindAs(prefix+"_maxLon", rdf.Float(maxLon))
	return bindPoint(prefix, (minLat+maxLat)/2, (minLon+maxLon)/2, b)
}

// pointExpr renders the target point-construction expression.
func pointExpr(latParam, lonParam string) string {
	return "point({latitude: $" + latParam + ", longitude: $" + lonParam + "})"
}

// parseCoordinatePairs extracts "longitude latitude" pairs from a WKT
// body, tolerating arbitrary parenthesis nesting. A pair that does not
// parse as two numbers is skipped, not fatal.
func parseCoordinatePairs(body string) [][2]float64 {
	stripped := strings.Map(func(r rune) rune {
		if r == '(' || r == ')' {
			return ' '
		}
		return r
	}, body)

	var pairs [][2]float64
	for _, chunk := range strings.Split(stripped, ",") {
		fields := strings.Fields(chunk)
		if len(fields) != 2 {
			continue
		}
		lon, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}
		lat, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		pairs = append(pairs, [2]float64{lon, lat})
	}
	return pairs
}
