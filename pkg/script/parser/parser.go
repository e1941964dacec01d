// Package parser turns expression source into an AST.
//
// The grammar, highest binding first:
//
//	factor      := NUMBER | IDENT | IDENT '(' args ')' | IDENT '[' expr ']'
//	             | '(' expr ')' | ('+'|'-') factor
//	term        := factor (('*'|'/'|'%') factor)*
//	additive    := term (('+'|'-') term)*
//	comparison  := additive (('<'|'>'|'<='|'>='|'=='|'!=') additive)*
//	expression  := comparison (('&'|'|') comparison)*
//	statement   := IDENT '=' expression | IDENT '[' expr ']' '=' expression | expression
//	program     := statement (';' statement)*
//
// while(cond, body) and loop(count, body) look like calls but are parsed
// into dedicated nodes: their second argument is a full ';'-separated
// statement sequence running to the matching ')', which ordinary argument
// parsing would reject.
//
// Identifier case is folded to lower at parse time, so SIN(X) and sin(x)
// are the same program.
package parser

import (
	"fmt"
	"strings"

	"github.com/veskel/phosphene/pkg/script/ast"
	"github.com/veskel/phosphene/pkg/script/lexer"
	"github.com/veskel/phosphene/pkg/script/token"
)

const (
	_ int = iota
	LOWEST
	BITWISE    // & |
	COMPARISON // < > <= >= == !=
	SUM        // + -
	PRODUCT    // * / %
	PREFIX     // -x +x
)

var precedences = map[token.Type]int{
	token.AMP:      BITWISE,
	token.PIPE:     BITWISE,
	token.LT:       COMPARISON,
	token.GT:       COMPARISON,
	token.LTE:      COMPARISON,
	token.GTE:      COMPARISON,
	token.EQ:       COMPARISON,
	token.NEQ:      COMPARISON,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.PERCENT:  PRODUCT,
}

var binOps = map[token.Type]ast.BinOp{
	token.AMP:      ast.OpAnd,
	token.PIPE:     ast.OpOr,
	token.LT:       ast.OpLT,
	token.GT:       ast.OpGT,
	token.LTE:      ast.OpLE,
	token.GTE:      ast.OpGE,
	token.EQ:       ast.OpEQ,
	token.NEQ:      ast.OpNE,
	token.PLUS:     ast.OpAdd,
	token.MINUS:    ast.OpSub,
	token.ASTERISK: ast.OpMul,
	token.SLASH:    ast.OpDiv,
	token.PERCENT:  ast.OpMod,
}

type (
	prefixParseFn func() ast.Node
	infixParseFn  func(ast.Node) ast.Node
)

// Parser consumes a lexer's token stream and produces one program tree.
// It stops at the first grammar error; partial trees are never returned.
type Parser struct {
	l      *lexer.Lexer
	errors []string

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn
}

// New creates a Parser over l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}

	p.prefixParseFns = map[token.Type]prefixParseFn{
		token.NUMBER: p.parseNumberLiteral,
		token.IDENT:  p.parseIdentifierForm,
		token.LPAREN: p.parseGroupedExpression,
		token.MINUS:  p.parsePrefixExpression,
		token.PLUS:   p.parsePrefixExpression,
	}
	p.infixParseFns = make(map[token.Type]infixParseFn, len(binOps))
	for tt := range binOps {
		p.infixParseFns[tt] = p.parseInfixExpression
	}

	// Prime curToken and peekToken.
	p.nextToken()
	p.nextToken()
	return p
}

// ParseString parses src in one call.
func ParseString(src string) (ast.Node, error) {
	p := New(lexer.New(src))
	root := p.Parse()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, fmt.Errorf("parse: %s", strings.Join(errs, "; "))
	}
	return root, nil
}

// Parse consumes the whole token stream and returns the program tree: the
// lone statement itself, a StatementSequence for several, or nil when the
// source held no statements or a grammar error occurred (see Errors).
func (p *Parser) Parse() ast.Node {
	root := p.parseStatements(token.EOF)
	if len(p.errors) > 0 {
		return nil
	}
	return root
}

// Errors returns the grammar errors hit so far. Parsing stops at the
// first, so the slice holds at most one message in practice.
func (p *Parser) Errors() []string {
	return p.errors
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t token.Type) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.Type) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(t token.Type) {
	msg := fmt.Sprintf("expected next token to be %s, got %s instead", t, p.peekToken.Type)
	p.errors = append(p.errors, msg)
}

// parseStatements parses ';'-separated statements until end, leaving
// curToken on end. Stray semicolons are skipped. A single statement is
// returned bare rather than wrapped, so a one-statement program's value
// is that statement's value with no sequence node in between.
func (p *Parser) parseStatements(end token.Type) ast.Node {
	var stmts []ast.Node

	for p.curTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
	for !p.curTokenIs(end) {
		if p.curTokenIs(token.EOF) {
			p.errors = append(p.errors, fmt.Sprintf("expected %s before end of input", end))
			return nil
		}
		stmt := p.parseStatement()
		if len(p.errors) > 0 {
			return nil
		}
		stmts = append(stmts, stmt)

		switch {
		case p.peekTokenIs(token.SEMICOLON):
			p.nextToken()
			for p.peekTokenIs(token.SEMICOLON) {
				p.nextToken()
			}
			p.nextToken()
		case p.peekTokenIs(end):
			p.nextToken()
		default:
			p.peekError(token.SEMICOLON)
			return nil
		}
	}

	switch len(stmts) {
	case 0:
		return nil
	case 1:
		return stmts[0]
	}
	return &ast.StatementSequence{Stmts: stmts}
}

func (p *Parser) parseStatement() ast.Node {
	if p.curTokenIs(token.IDENT) {
		if p.peekTokenIs(token.ASSIGN) {
			return p.parseAssignment()
		}
		if p.peekTokenIs(token.LBRACKET) && p.upcomingArrayAssign() {
			return p.parseArrayAssignment()
		}
	}
	return p.parseExpression(LOWEST)
}

func (p *Parser) parseAssignment() ast.Node {
	name := strings.ToLower(p.curToken.Literal)
	p.nextToken() // onto '='
	p.nextToken() // onto the value expression
	value := p.parseExpression(LOWEST)
	if value == nil {
		return nil
	}
	return &ast.Assignment{Name: name, Value: value}
}

func (p *Parser) parseArrayAssignment() ast.Node {
	name := strings.ToLower(p.curToken.Literal)
	p.nextToken() // onto '['
	p.nextToken() // onto the index expression
	index := p.parseExpression(LOWEST)
	if index == nil {
		return nil
	}
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken() // onto the value expression
	value := p.parseExpression(LOWEST)
	if value == nil {
		return nil
	}
	return &ast.ArrayAssignment{Name: name, Index: index, Value: value}
}

// upcomingArrayAssign reports whether the bracketed index starting at
// peekToken is followed by '='. It scans a throwaway copy of the lexer so
// the real token stream is untouched; this is the lookahead that separates
// buf[i] = v from the expression buf[i].
func (p *Parser) upcomingArrayAssign() bool {
	probe := *p.l
	depth := 1 // peekToken is the opening '['
	for depth > 0 {
		switch probe.NextToken().Type {
		case token.LBRACKET:
			depth++
		case token.RBRACKET:
			depth--
		case token.EOF:
			return false
		}
	}
	return probe.NextToken().Type == token.ASSIGN
}

func (p *Parser) parseExpression(precedence int) ast.Node {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.errors = append(p.errors, fmt.Sprintf("unexpected token %s in expression", p.curToken.Type))
		return nil
	}
	left := prefix()

	for left != nil && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
	return left
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) parseNumberLiteral() ast.Node {
	return &ast.NumberLiteral{Value: p.curToken.Value}
}

func (p *Parser) parsePrefixExpression() ast.Node {
	negate := p.curTokenIs(token.MINUS)
	p.nextToken()
	operand := p.parseExpression(PREFIX)
	if operand == nil {
		return nil
	}
	return &ast.UnaryOp{Negate: negate, Operand: operand}
}

func (p *Parser) parseInfixExpression(left ast.Node) ast.Node {
	op := binOps[p.curToken.Type]
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)
	if right == nil {
		return nil
	}
	return &ast.BinaryOp{Op: op, Left: left, Right: right}
}

func (p *Parser) parseGroupedExpression() ast.Node {
	p.nextToken()
	e := p.parseExpression(LOWEST)
	if e == nil {
		return nil
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return e
}

// parseIdentifierForm handles every factor that starts with an
// identifier: a plain variable, a call, an array read, or the while/loop
// forms.
func (p *Parser) parseIdentifierForm() ast.Node {
	name := strings.ToLower(p.curToken.Literal)
	switch {
	case p.peekTokenIs(token.LPAREN):
		switch name {
		case "while":
			return p.parseWhileForm()
		case "loop":
			return p.parseLoopForm()
		}
		return p.parseFunctionCall(name)
	case p.peekTokenIs(token.LBRACKET):
		return p.parseArrayAccess(name)
	}
	return &ast.VariableRef{Name: name}
}

func (p *Parser) parseFunctionCall(name string) ast.Node {
	p.nextToken() // onto '('
	args := p.parseCallArguments()
	if len(p.errors) > 0 {
		return nil
	}
	return &ast.FunctionCall{Name: name, Args: args}
}

func (p *Parser) parseCallArguments() []ast.Node {
	args := []ast.Node{}
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return args
	}
	p.nextToken()
	arg := p.parseExpression(LOWEST)
	if arg == nil {
		return nil
	}
	args = append(args, arg)

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		arg := p.parseExpression(LOWEST)
		if arg == nil {
			return nil
		}
		args = append(args, arg)
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return args
}

func (p *Parser) parseArrayAccess(name string) ast.Node {
	p.nextToken() // onto '['
	p.nextToken() // onto the index expression
	index := p.parseExpression(LOWEST)
	if index == nil {
		return nil
	}
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return &ast.ArrayAccess{Name: name, Index: index}
}

func (p *Parser) parseWhileForm() ast.Node {
	p.nextToken() // onto '('
	p.nextToken() // onto the condition
	cond := p.parseExpression(LOWEST)
	if cond == nil {
		return nil
	}
	if !p.expectPeek(token.COMMA) {
		return nil
	}
	p.nextToken() // onto the body
	body := p.parseStatements(token.RPAREN)
	if len(p.errors) > 0 {
		return nil
	}
	if body == nil {
		body = &ast.StatementSequence{}
	}
	return &ast.WhileLoop{Cond: cond, Body: body}
}

func (p *Parser) parseLoopForm() ast.Node {
	p.nextToken() // onto '('
	p.nextToken() // onto the count
	count := p.parseExpression(LOWEST)
	if count == nil {
		return nil
	}
	if !p.expectPeek(token.COMMA) {
		return nil
	}
	p.nextToken() // onto the body
	body := p.parseStatements(token.RPAREN)
	if len(p.errors) > 0 {
		return nil
	}
	if body == nil {
		body = &ast.StatementSequence{}
	}
	return &ast.CountedLoop{Count: count, Body: body}
}
