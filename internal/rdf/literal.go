package rdf

import "strconv"

// XSD datatype IRIs for the scalar literal kinds the compiler handles.
const (
	XSDString  = "http://www.w3.org/2001/XMLSchema#string"
	XSDInteger = "http://www.w3.org/2001/XMLSchema#integer"
	XSDDouble  = "http://www.w3.org/2001/XMLSchema#double"
	XSDBoolean = "http://www.w3.org/2001/XMLSchema#boolean"
)

// StringLiteral builds a plain string literal.
func StringLiteral(s string) Literal {
	return Literal{Lexical: s, Datatype: XSDString, Value: String(s)}
}

// IntLiteral builds an integer literal.
func IntLiteral(n int64) Literal {
	return Literal{Lexical: strconv.FormatInt(n, 10), Datatype: XSDInteger, Value: Int(n)}
}

// FloatLiteral builds a double literal.
func FloatLiteral(f float64) Literal {
	return Literal{
		Lexical:  strconv.FormatFloat(f, 'g', -1, 64),
		Datatype: XSDDouble,
		Value:    Float(f),
	}
}

// BoolLiteral builds a boolean literal.
func BoolLiteral(b bool) Literal {
	return Literal{Lexical: strconv.FormatBool(b), Datatype: XSDBoolean, Value: Bool(b)}
}
