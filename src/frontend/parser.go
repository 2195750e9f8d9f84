package frontend

import (
	"fmt"
	"strconv"

	"github.com/foxidokun/nyacc-go/src/ast"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// parser is a recursive descent parser over the lexer's token stream with one
// token of lookahead. Operator precedence, loosest first: comparison,
// additive, multiplicative, unary, primary.
type parser struct {
	lex *lexer
	tok item // Current lookahead token.
}

// ---------------------
// ----- Functions -----
// ---------------------

// Parse scans and parses NyaC source code and returns the syntax tree.
// The first syntax error aborts the parse.
func Parse(src string) (*ast.Program, error) {
	l := newLexer(src)
	go l.run()

	p := &parser{lex: l}
	p.next()
	prog, err := p.parseProgram()
	if err != nil {
		// Drain the lexer so its goroutine can exit.
		for range l.items {
		}
		return nil, err
	}
	return prog, nil
}

// next advances the lookahead token.
func (p *parser) next() {
	p.tok = p.lex.nextItem()
}

// errorf returns a syntax error positioned at the lookahead token.
func (p *parser) errorf(format string, args ...interface{}) error {
	if p.tok.typ == itemError {
		return fmt.Errorf("%s", p.tok.val)
	}
	pos := fmt.Sprintf("line %d:%d: ", p.tok.line, p.tok.pos)
	return fmt.Errorf(pos+format, args...)
}

// expect consumes a token of the given type or fails with a syntax error.
func (p *parser) expect(typ itemType, what string) (item, error) {
	if p.tok.typ != typ {
		return item{}, p.errorf("expected %s, got %q", what, p.tok.val)
	}
	t := p.tok
	p.next()
	return t, nil
}

// accept consumes the lookahead token if it has the given type.
func (p *parser) accept(typ itemType) bool {
	if p.tok.typ == typ {
		p.next()
		return true
	}
	return false
}

// parseProgram parses top-level blocks until end of input.
func (p *parser) parseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	for {
		switch p.tok.typ {
		case itemEOF:
			return prog, nil
		case itemError:
			return nil, p.errorf("")
		case itemStruct:
			n, err := p.parseStructDef()
			if err != nil {
				return nil, err
			}
			prog.Blocks = append(prog.Blocks, n)
		case itemFn:
			n, err := p.parseFunc()
			if err != nil {
				return nil, err
			}
			prog.Blocks = append(prog.Blocks, n)
		default:
			return nil, p.errorf("expected 'fn' or 'struct' at top level, got %q", p.tok.val)
		}
	}
}

// parseStructDef parses `struct ID { TYPED_ARGS }`.
func (p *parser) parseStructDef() (ast.Statement, error) {
	p.next() // struct
	name, err := p.expect(itemIdentifier, "struct name")
	if err != nil {
		return nil, err
	}
	if _, err = p.expect(itemLBrace, "'{'"); err != nil {
		return nil, err
	}
	fields, err := p.parseTypedArgs(itemRBrace)
	if err != nil {
		return nil, err
	}
	p.next() // }
	return &ast.StructDef{Name: name.val, Fields: fields}, nil
}

// parseFunc parses `fn ID ( TYPED_ARGS ) (-> TYPE)?` followed by either a
// semicolon (declaration) or a braced body (implementation). An omitted
// return type means void.
func (p *parser) parseFunc() (ast.Statement, error) {
	p.next() // fn
	name, err := p.expect(itemIdentifier, "function name")
	if err != nil {
		return nil, err
	}
	if _, err = p.expect(itemLParen, "'('"); err != nil {
		return nil, err
	}
	args, err := p.parseTypedArgs(itemRParen)
	if err != nil {
		return nil, err
	}
	p.next() // )

	ret := "void"
	if p.accept(itemArrow) {
		t, err := p.expect(itemIdentifier, "return type")
		if err != nil {
			return nil, err
		}
		ret = t.val
	}

	if p.accept(itemSemicolon) {
		return &ast.FuncDef{Name: name.val, Args: args, RetType: ret}, nil
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FuncImpl{Name: name.val, Args: args, RetType: ret, Body: body}, nil
}

// parseTypedArgs parses a possibly empty `name: type, ...` list up to the
// given closing token, which is left unconsumed. Trailing commas are allowed.
func (p *parser) parseTypedArgs(close itemType) ([]ast.TypedArg, error) {
	args := []ast.TypedArg{}
	for p.tok.typ != close {
		name, err := p.expect(itemIdentifier, "argument name")
		if err != nil {
			return nil, err
		}
		if _, err = p.expect(itemColon, "':'"); err != nil {
			return nil, err
		}
		typ, err := p.expect(itemIdentifier, "type name")
		if err != nil {
			return nil, err
		}
		args = append(args, ast.TypedArg{Name: name.val, Type: typ.val})
		if !p.accept(itemComma) {
			break
		}
	}
	if p.tok.typ != close {
		return nil, p.errorf("expected ',' or closing bracket, got %q", p.tok.val)
	}
	return args, nil
}

// parseBlock parses `{ STATEMENT* }`.
func (p *parser) parseBlock() ([]ast.Statement, error) {
	if _, err := p.expect(itemLBrace, "'{'"); err != nil {
		return nil, err
	}
	body := []ast.Statement{}
	for !p.accept(itemRBrace) {
		if p.tok.typ == itemEOF || p.tok.typ == itemError {
			return nil, p.errorf("unterminated block")
		}
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, s)
	}
	return body, nil
}

// parseStatement parses one statement including its terminating semicolon
// where the grammar requires one.
func (p *parser) parseStatement() (ast.Statement, error) {
	switch p.tok.typ {
	case itemIf:
		return p.parseIf()
	case itemWhile:
		return p.parseWhile()
	case itemFor:
		return p.parseFor()
	case itemReturn:
		p.next()
		if p.accept(itemSemicolon) {
			return &ast.Return{}, nil
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err = p.expect(itemSemicolon, "';'"); err != nil {
			return nil, err
		}
		return &ast.Return{Expr: expr}, nil
	default:
		s, err := p.parseSimpleStatement()
		if err != nil {
			return nil, err
		}
		if _, err = p.expect(itemSemicolon, "';'"); err != nil {
			return nil, err
		}
		return s, nil
	}
}

// parseSimpleStatement parses the semicolon-free statement forms: let,
// assignment and expression statements. These are the forms allowed inside a
// for header.
func (p *parser) parseSimpleStatement() (ast.Statement, error) {
	if p.tok.typ == itemLet {
		return p.parseLet()
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if v, ok := expr.(*ast.Variable); ok && p.tok.typ == itemAssign {
		p.next()
		rhs, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.Assignment{Var: *v, Expr: rhs}, nil
	}
	return &ast.ExprStatement{Expr: expr}, nil
}

// parseLet parses `let ID (: TYPE)? = EXPR`.
func (p *parser) parseLet() (ast.Statement, error) {
	p.next() // let
	name, err := p.expect(itemIdentifier, "variable name")
	if err != nil {
		return nil, err
	}
	typ := ""
	if p.accept(itemColon) {
		t, err := p.expect(itemIdentifier, "type name")
		if err != nil {
			return nil, err
		}
		typ = t.val
	}
	if _, err = p.expect(itemAssign, "'='"); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.Let{Name: name.val, Type: typ, Expr: expr}, nil
}

// parseIf parses `if ( EXPR ) { ... } (else { ... })?`.
func (p *parser) parseIf() (ast.Statement, error) {
	p.next() // if
	cond, err := p.parseParenExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	n := &ast.If{Cond: cond, Then: then}
	if p.accept(itemElse) {
		if n.Else, err = p.parseBlock(); err != nil {
			return nil, err
		}
		if n.Else == nil {
			n.Else = []ast.Statement{}
		}
	}
	return n, nil
}

// parseWhile parses `while ( EXPR ) { ... }`.
func (p *parser) parseWhile() (ast.Statement, error) {
	p.next() // while
	cond, err := p.parseParenExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.While{Cond: cond, Body: body}, nil
}

// parseFor parses `for ( STMT; EXPR; STMT ) { ... }`.
func (p *parser) parseFor() (ast.Statement, error) {
	p.next() // for
	if _, err := p.expect(itemLParen, "'('"); err != nil {
		return nil, err
	}
	init, err := p.parseSimpleStatement()
	if err != nil {
		return nil, err
	}
	if _, err = p.expect(itemSemicolon, "';'"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err = p.expect(itemSemicolon, "';'"); err != nil {
		return nil, err
	}
	step, err := p.parseSimpleStatement()
	if err != nil {
		return nil, err
	}
	if _, err = p.expect(itemRParen, "')'"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.For{Init: init, Cond: cond, Step: step, Body: body}, nil
}

// parseParenExpr parses `( EXPR )`.
func (p *parser) parseParenExpr() (ast.Expression, error) {
	if _, err := p.expect(itemLParen, "'('"); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err = p.expect(itemRParen, "')'"); err != nil {
		return nil, err
	}
	return expr, nil
}

// ---------------------------
// ----- Expressions ---------
// ---------------------------

// comparators maps comparison tokens to their AST operators.
var comparators = map[itemType]ast.Comparator{
	itemLe: ast.CmpLE,
	itemGe: ast.CmpGE,
	itemLt: ast.CmpLT,
	itemGt: ast.CmpGT,
	itemEq: ast.CmpEQ,
	itemNe: ast.CmpNE,
}

// parseExpression parses the loosest precedence level: comparison.
func (p *parser) parseExpression() (ast.Expression, error) {
	lhs, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		cmp, ok := comparators[p.tok.typ]
		if !ok {
			return lhs, nil
		}
		p.next()
		rhs, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Compare{LHS: lhs, Cmp: cmp, RHS: rhs}
	}
}

// parseAdditive parses left-associative chains of + and -.
func (p *parser) parseAdditive() (ast.Expression, error) {
	lhs, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.tok.typ == itemPlus || p.tok.typ == itemMinus {
		op := ast.OpAdd
		if p.tok.typ == itemMinus {
			op = ast.OpSub
		}
		p.next()
		rhs, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Arithmetic{LHS: lhs, Op: op, RHS: rhs}
	}
	return lhs, nil
}

// parseMultiplicative parses left-associative chains of * and /.
func (p *parser) parseMultiplicative() (ast.Expression, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.typ == itemStar || p.tok.typ == itemSlash {
		op := ast.OpMul
		if p.tok.typ == itemSlash {
			op = ast.OpDiv
		}
		p.next()
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Arithmetic{LHS: lhs, Op: op, RHS: rhs}
	}
	return lhs, nil
}

// parseUnary parses prefix - and !.
func (p *parser) parseUnary() (ast.Expression, error) {
	switch p.tok.typ {
	case itemMinus:
		p.next()
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryMinus{Expr: expr}, nil
	case itemNot:
		p.next()
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Not{Expr: expr}, nil
	}
	return p.parsePrimary()
}

// parsePrimary parses literals, parenthesized expressions, calls, variables
// with dotted field paths and struct constructors.
func (p *parser) parsePrimary() (ast.Expression, error) {
	switch p.tok.typ {
	case itemInt:
		val, err := strconv.ParseUint(p.tok.val, 10, 64)
		if err != nil {
			return nil, p.errorf("invalid integer literal %q: %v", p.tok.val, err)
		}
		p.next()
		return &ast.Int{Val: val}, nil
	case itemFloat:
		val, err := strconv.ParseFloat(p.tok.val, 64)
		if err != nil {
			return nil, p.errorf("invalid float literal %q: %v", p.tok.val, err)
		}
		p.next()
		return &ast.Float{Val: val}, nil
	case itemLParen:
		return p.parseParenExpr()
	case itemIdentifier:
		name := p.tok.val
		p.next()
		switch p.tok.typ {
		case itemLParen:
			return p.parseCallArgs(name)
		case itemLBrace:
			p.next()
			if p.tok.typ != itemRBrace {
				return nil, p.errorf("struct constructor %s takes no field initializers", name)
			}
			p.next()
			return &ast.StructCtor{Name: name}, nil
		}
		v := &ast.Variable{Name: name}
		for p.accept(itemDot) {
			field, err := p.expect(itemIdentifier, "field name")
			if err != nil {
				return nil, err
			}
			v.Fields = append(v.Fields, field.val)
		}
		return v, nil
	}
	return nil, p.errorf("expected expression, got %q", p.tok.val)
}

// parseCallArgs parses the parenthesized argument list of a function call.
func (p *parser) parseCallArgs(name string) (ast.Expression, error) {
	p.next() // (
	call := &ast.FunctionCall{Name: name, Args: []ast.Expression{}}
	for p.tok.typ != itemRParen {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		if !p.accept(itemComma) {
			break
		}
	}
	if _, err := p.expect(itemRParen, "')'"); err != nil {
		return nil, err
	}
	return call, nil
}
