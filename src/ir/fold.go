package ir

import "github.com/foxidokun/nyacc-go/src/ast"

// Fold applies constant folding to the syntax tree in place: arithmetic over
// two literals of the same kind collapses to a literal, as does unary minus
// over a literal. Integer division by a zero literal is left alone so the
// behaviour stays with the generated code.
func Fold(prog *ast.Program) {
	for _, block := range prog.Blocks {
		foldStatement(block)
	}
}

// foldStatement rewrites the expressions held by a statement.
func foldStatement(s ast.Statement) {
	switch n := s.(type) {
	case *ast.ExprStatement:
		n.Expr = foldExpression(n.Expr)
	case *ast.Let:
		n.Expr = foldExpression(n.Expr)
	case *ast.Assignment:
		n.Expr = foldExpression(n.Expr)
	case *ast.Return:
		if n.Expr != nil {
			n.Expr = foldExpression(n.Expr)
		}
	case *ast.If:
		n.Cond = foldExpression(n.Cond)
		for _, st := range n.Then {
			foldStatement(st)
		}
		for _, st := range n.Else {
			foldStatement(st)
		}
	case *ast.While:
		n.Cond = foldExpression(n.Cond)
		for _, st := range n.Body {
			foldStatement(st)
		}
	case *ast.For:
		foldStatement(n.Init)
		n.Cond = foldExpression(n.Cond)
		foldStatement(n.Step)
		for _, st := range n.Body {
			foldStatement(st)
		}
	case *ast.FuncImpl:
		for _, st := range n.Body {
			foldStatement(st)
		}
	}
}

// foldExpression folds the subtree rooted at e and returns its replacement,
// which is e itself when nothing folds.
func foldExpression(e ast.Expression) ast.Expression {
	switch n := e.(type) {
	case *ast.UnaryMinus:
		n.Expr = foldExpression(n.Expr)
		switch v := n.Expr.(type) {
		case *ast.Int:
			return &ast.Int{Val: -v.Val}
		case *ast.Float:
			return &ast.Float{Val: -v.Val}
		}
	case *ast.Not:
		n.Expr = foldExpression(n.Expr)
	case *ast.Arithmetic:
		n.LHS = foldExpression(n.LHS)
		n.RHS = foldExpression(n.RHS)
		if l, ok := n.LHS.(*ast.Int); ok {
			if r, ok := n.RHS.(*ast.Int); ok {
				return foldInts(l.Val, n.Op, r.Val, n)
			}
		}
		if l, ok := n.LHS.(*ast.Float); ok {
			if r, ok := n.RHS.(*ast.Float); ok {
				return foldFloats(l.Val, n.Op, r.Val)
			}
		}
	case *ast.Compare:
		n.LHS = foldExpression(n.LHS)
		n.RHS = foldExpression(n.RHS)
	case *ast.FunctionCall:
		for i, arg := range n.Args {
			n.Args[i] = foldExpression(arg)
		}
	}
	return e
}

// foldInts folds integer arithmetic with the same wrapping behaviour the
// 64-bit constants have in the generated code.
func foldInts(l uint64, op ast.OpType, r uint64, orig ast.Expression) ast.Expression {
	switch op {
	case ast.OpAdd:
		return &ast.Int{Val: l + r}
	case ast.OpSub:
		return &ast.Int{Val: l - r}
	case ast.OpMul:
		return &ast.Int{Val: l * r}
	case ast.OpDiv:
		if r == 0 {
			return orig
		}
		return &ast.Int{Val: uint64(int64(l) / int64(r))}
	}
	return orig
}

func foldFloats(l float64, op ast.OpType, r float64) ast.Expression {
	switch op {
	case ast.OpAdd:
		return &ast.Float{Val: l + r}
	case ast.OpSub:
		return &ast.Float{Val: l - r}
	case ast.OpMul:
		return &ast.Float{Val: l * r}
	default:
		return &ast.Float{Val: l / r}
	}
}
