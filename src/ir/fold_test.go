package ir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/foxidokun/nyacc-go/src/ast"
)

// foldedReturn wraps an expression in a function body, folds the program and
// hands back the rewritten expression.
func foldedReturn(e ast.Expression) ast.Expression {
	ret := &ast.Return{Expr: e}
	prog := &ast.Program{Blocks: []ast.Statement{
		&ast.FuncImpl{Name: "f", RetType: "i64", Body: []ast.Statement{ret}},
	}}
	Fold(prog)
	return ret.Expr
}

func TestFoldIntArithmetic(t *testing.T) {
	// 1 + 2 * 3 folds bottom-up to 7.
	e := foldedReturn(&ast.Arithmetic{
		LHS: &ast.Int{Val: 1},
		Op:  ast.OpAdd,
		RHS: &ast.Arithmetic{LHS: &ast.Int{Val: 2}, Op: ast.OpMul, RHS: &ast.Int{Val: 3}},
	})
	require.Equal(t, &ast.Int{Val: 7}, e)
}

func TestFoldSignedDivision(t *testing.T) {
	// -6 / 2 == -3 under the same wrapping the generated code uses.
	e := foldedReturn(&ast.Arithmetic{
		LHS: &ast.UnaryMinus{Expr: &ast.Int{Val: 6}},
		Op:  ast.OpDiv,
		RHS: &ast.Int{Val: 2},
	})
	folded, ok := e.(*ast.Int)
	require.True(t, ok)
	require.EqualValues(t, -3, int64(folded.Val))
}

func TestFoldKeepsDivisionByZero(t *testing.T) {
	orig := &ast.Arithmetic{LHS: &ast.Int{Val: 1}, Op: ast.OpDiv, RHS: &ast.Int{Val: 0}}
	e := foldedReturn(orig)
	require.Same(t, ast.Expression(orig), e)
}

func TestFoldFloats(t *testing.T) {
	e := foldedReturn(&ast.Arithmetic{
		LHS: &ast.Float{Val: 1.5},
		Op:  ast.OpMul,
		RHS: &ast.Float{Val: 2.0},
	})
	require.Equal(t, &ast.Float{Val: 3.0}, e)
}

// Mixed literal kinds keep their coercion semantics for codegen to handle.
func TestFoldKeepsMixedKinds(t *testing.T) {
	orig := &ast.Arithmetic{LHS: &ast.Int{Val: 1}, Op: ast.OpAdd, RHS: &ast.Float{Val: 2.0}}
	e := foldedReturn(orig)
	require.Same(t, ast.Expression(orig), e)
}

func TestFoldInsideControlFlow(t *testing.T) {
	let := &ast.Let{Name: "x", Expr: &ast.Arithmetic{
		LHS: &ast.Int{Val: 2},
		Op:  ast.OpMul,
		RHS: &ast.Int{Val: 21},
	}}
	prog := &ast.Program{Blocks: []ast.Statement{
		&ast.FuncImpl{Name: "f", RetType: "void", Body: []ast.Statement{
			&ast.If{Cond: &ast.Int{Val: 1}, Then: []ast.Statement{let}},
		}},
	}}
	Fold(prog)
	require.Equal(t, &ast.Int{Val: 42}, let.Expr)
}
