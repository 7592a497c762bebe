package rdf

import "strconv"

// Value is a sealed interface over the types a query parameter may carry.
// Only String, Int, Float, and Bool implement it - the graph engine's
// parameter surface is restricted to these four scalar kinds, so the
// restriction is enforced at compile time rather than by runtime checks.
type Value interface {
	value() // Sealed - only these types implement it

	// Native returns the Go value handed to the database driver.
	Native() any

	// Render returns the value as target-language literal text. Used
	// only for filter constants that are rendered inline (strings are
	// single-quoted with embedded quotes doubled).
	Render() string
}

// String is a string parameter value.
type String string

func (String) value() {}

// Native returns the underlying string.
func (s String) Native() any { return string(s) }

// Render single-quotes the string, doubling embedded single quotes.
func (s String) Render() string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '\'')
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'', '\'')
			continue
		}
		out = append(out, s[i])
	}
	out = append(out, '\'')
	return string(out)
}

// Int is an integer parameter value. Always int64.
type Int int64

func (Int) value() {}

// Native returns the underlying int64.
func (i Int) Native() any { return int64(i) }

// Render returns the decimal form.
func (i Int) Render() string { return strconv.FormatInt(int64(i), 10) }

// Float is a double/decimal parameter value.
type Float float64

func (Float) value() {}

// Native returns the underlying float64.
func (f Float) Native() any { return float64(f) }

// Render returns the shortest round-trippable decimal form.
func (f Float) Render() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }

// Bool is a boolean parameter value.
type Bool bool

func (Bool) value() {}

// Native returns the underlying bool.
func (b Bool) Native() any { return bool(b) }

// Render returns "true" or "false".
func (b Bool) Render() string { return strconv.FormatBool(bool(b)) }

// NativeParams converts a typed parameter map to the map[string]any shape
// database drivers expect.
func NativeParams(params map[string]Value) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v.Native()
	}
	return out
}
