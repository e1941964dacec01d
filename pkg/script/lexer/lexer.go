// Package lexer tokenizes phosphene expression source.
//
// The language is deliberately forgiving at the lexical level: characters
// that start no known token (a stray '!', a '#', …) are skipped without an
// error and lexing continues with the next character. Expressions are
// user-authored and run every frame, so the lexer never fails.
package lexer

import (
	"strconv"

	"github.com/veskel/phosphene/pkg/script/token"
)

// Lexer tokenizes expression source with one cached token of lookahead.
//
// The struct contains only value fields so the parser may snapshot it by
// copy for speculative lookahead and restore by assignment.
type Lexer struct {
	input        string
	position     int  // current position in input
	readPosition int  // current reading position (after current char)
	ch           byte // current char
	peeked       bool
	peekTok      token.Token
}

// New creates a new Lexer.
func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// NextToken returns the next token, consuming it.
func (l *Lexer) NextToken() token.Token {
	if l.peeked {
		l.peeked = false
		return l.peekTok
	}
	return l.scan()
}

// PeekToken returns the next token without consuming it. Repeated calls
// return the same token until NextToken is called.
func (l *Lexer) PeekToken() token.Token {
	if !l.peeked {
		l.peekTok = l.scan()
		l.peeked = true
	}
	return l.peekTok
}

// scan produces the next token from the input.
func (l *Lexer) scan() token.Token {
	l.skipWhitespace()

	switch l.ch {
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return token.Token{Type: token.EQ, Literal: "=="}
		}
		return l.single(token.ASSIGN)
	case '+':
		return l.single(token.PLUS)
	case '-':
		return l.single(token.MINUS)
	case '*':
		return l.single(token.ASTERISK)
	case '/':
		if l.peekChar() == '/' {
			l.skipLineComment()
			return l.scan()
		}
		return l.single(token.SLASH)
	case '%':
		return l.single(token.PERCENT)
	case '&':
		return l.single(token.AMP)
	case '|':
		return l.single(token.PIPE)
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return token.Token{Type: token.LTE, Literal: "<="}
		}
		return l.single(token.LT)
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return token.Token{Type: token.GTE, Literal: ">="}
		}
		return l.single(token.GT)
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return token.Token{Type: token.NEQ, Literal: "!="}
		}
		// A bare '!' starts no token; skip it and retry.
		l.readChar()
		return l.scan()
	case '(':
		return l.single(token.LPAREN)
	case ')':
		return l.single(token.RPAREN)
	case '[':
		return l.single(token.LBRACKET)
	case ']':
		return l.single(token.RBRACKET)
	case ',':
		return l.single(token.COMMA)
	case ';':
		return l.single(token.SEMICOLON)
	case 0:
		return token.Token{Type: token.EOF, Literal: ""}
	default:
		if isIdentStart(l.ch) {
			return token.Token{Type: token.IDENT, Literal: l.readIdentifier()}
		}
		if isDigit(l.ch) || l.ch == '.' {
			return l.readNumber()
		}
		// Unrecognized character: skip silently and retry.
		l.readChar()
		return l.scan()
	}
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// single emits a one-character token and advances past it.
func (l *Lexer) single(t token.Type) token.Token {
	tok := token.Token{Type: t, Literal: string(l.ch)}
	l.readChar()
	return tok
}

// readIdentifier reads an identifier: letters, digits, '_' and '$',
// not starting with a digit.
func (l *Lexer) readIdentifier() string {
	position := l.position
	for isIdentStart(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber reads a decimal number made of digits and '.'. There is no
// exponent or sign handling; a leading '-' lexes as a separate MINUS token.
func (l *Lexer) readNumber() token.Token {
	position := l.position
	for isDigit(l.ch) || l.ch == '.' {
		l.readChar()
	}
	literal := l.input[position:l.position]
	value, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		// Malformed literals like "." or "1.2.3" evaluate as zero.
		value = 0
	}
	return token.Token{Type: token.NUMBER, Literal: literal, Value: value}
}

// skipLineComment consumes "//" up to (not including) end of line.
func (l *Lexer) skipLineComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

// skipWhitespace skips whitespace characters.
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// isIdentStart checks if a character can begin an identifier.
func isIdentStart(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || ch == '$'
}

// isDigit checks if a character is a decimal digit.
func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
