package cypher

import (
	"fmt"
	"hash/fnv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/cypherbridge/cypherbridge/internal/rdf"
)

// BaseLabel is the label every graph entity carries.
const BaseLabel = "Resource"

// IDKey is the reserved property key holding each entity's external
// identifier. It is excluded from property enumeration.
const IDKey = "uri"

// SanitizeVarName maps a pattern variable name to a safe Cypher
// identifier: every byte outside [A-Za-z0-9_] becomes '_'. Total
// function, no failure mode.
func SanitizeVarName(name string) string {
	out := []byte(name)
	for i := 0; i < len(out); i++ {
		c := out[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}

// SanitizeIdentifier makes an arbitrary URI/string safe to appear inside
// backticks as a quoted identifier: embedded backticks are doubled and
// NUL bytes stripped. Identifiers can never be parameterized in Cypher,
// so this is the only escape hatch for URI-derived labels, relationship
// types, and property keys.
func SanitizeIdentifier(value string) string {
	value = strings.ReplaceAll(value, "\x00", "")
	return strings.ReplaceAll(value, "`", "``")
}

// quoteIdentifier wraps a sanitized identifier in backticks.
func quoteIdentifier(value string) string {
	return "`" + SanitizeIdentifier(value) + "`"
}

// NodeVar derives the graph-pattern variable used for a term in node
// position. Variables use their sanitized name. Bound URIs get a
// deterministic synthetic name from an FNV-1a hash of the NFC-normalized
// URI, so the same constant used twice in one BGP shares one declared
// node. Blank nodes derive from their label. Anything else gets a fixed
// placeholder.
func NodeVar(t rdf.Term) string {
	switch term := t.(type) {
	case rdf.Var:
		return SanitizeVarName(term.Name)
	case rdf.IRI:
		h := fnv.New32a()
		h.Write([]byte(norm.NFC.String(term.Value)))
		return fmt.Sprintf("n_%08x", h.Sum32())
	case rdf.BlankNode:
		return "b_" + SanitizeVarName(term.Label)
	default:
		return "_anon"
	}
}
