// Package token defines the token set of the phosphene expression language.
package token

// Type identifies the kind of a token.
type Type string

// Token is one lexical unit of expression source. Number tokens carry the
// parsed value so the parser never re-parses the literal.
type Token struct {
	Type    Type
	Literal string
	Value   float64 // parsed value for NUMBER tokens
}

const (
	EOF = "EOF"

	// Identifiers + literals
	IDENT  = "IDENT"  // x, $PI, midi_cc
	NUMBER = "NUMBER" // 12, 0.35, .5

	// Operators and delimiters
	ASSIGN   = "="
	PLUS     = "+"
	MINUS    = "-"
	ASTERISK = "*"
	SLASH    = "/"
	PERCENT  = "%"
	AMP      = "&"
	PIPE     = "|"

	LT  = "<"
	GT  = ">"
	LTE = "<="
	GTE = ">="
	EQ  = "=="
	NEQ = "!="

	LPAREN    = "("
	RPAREN    = ")"
	LBRACKET  = "["
	RBRACKET  = "]"
	COMMA     = ","
	SEMICOLON = ";"
)
