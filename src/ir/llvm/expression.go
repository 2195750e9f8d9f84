package llvm

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"github.com/foxidokun/nyacc-go/src/ast"
	"github.com/foxidokun/nyacc-go/src/ir"
)

// genExpression lowers one expression to a TypedValue.
func (cg *CodegenContext) genExpression(e ast.Expression) (TypedValue, error) {
	switch n := e.(type) {
	case *ast.Int:
		i64, _ := cg.defs.Type("i64")
		return TypedValue{Value: llvm.ConstInt(cg.ctx.Int64Type(), n.Val, true), Type: i64}, nil
	case *ast.Float:
		f64, _ := cg.defs.Type("f64")
		return TypedValue{Value: llvm.ConstFloat(cg.ctx.DoubleType(), n.Val), Type: f64}, nil
	case *ast.Variable:
		return cg.genVariable(n)
	case *ast.UnaryMinus:
		return cg.genUnaryMinus(n)
	case *ast.Not:
		return cg.genNot(n)
	case *ast.Arithmetic:
		return cg.genArithmetic(n)
	case *ast.Compare:
		return cg.genCompare(n)
	case *ast.FunctionCall:
		return cg.genFunctionCall(n)
	case *ast.StructCtor:
		return cg.genStructCtor(n)
	}
	return TypedValue{}, fmt.Errorf("unexpected expression node %T", e)
}

// genGEP is the lvalue path of a variable reference: it resolves the base
// slot in the visibility context, accumulates one field index per path
// segment, and emits a single getelementptr with a leading zero index over
// the outermost element type. The returned type is the innermost field type.
func (cg *CodegenContext) genGEP(v *ast.Variable) (llvm.Value, *ir.Type, error) {
	bind, ok := cg.vis.Variable(v.Name)
	if !ok {
		return llvm.Value{}, nil, fmt.Errorf("unknown variable %s", v.Name)
	}

	i32 := cg.ctx.Int32Type()
	indices := []llvm.Value{llvm.ConstInt(i32, 0, false)}
	cur := bind.ty
	for _, name := range v.Fields {
		if cur.Kind != ir.Custom {
			return llvm.Value{}, nil, fmt.Errorf("type error: type %s has no fields", cur)
		}
		field, ok := cur.Fields[name]
		if !ok {
			return llvm.Value{}, nil, fmt.Errorf("unknown field %s in type %s", name, cur)
		}
		indices = append(indices, llvm.ConstInt(i32, uint64(field.Index), false))
		cur = field.Type
	}

	ptr := cg.builder.CreateGEP(bind.slot, indices, "")
	return ptr, cur, nil
}

// genVariable is the rvalue path: the lvalue pointer followed by a load.
func (cg *CodegenContext) genVariable(v *ast.Variable) (TypedValue, error) {
	ptr, ty, err := cg.genGEP(v)
	if err != nil {
		return TypedValue{}, err
	}
	return TypedValue{Value: cg.builder.CreateLoad(ptr, ""), Type: ty}, nil
}

func (cg *CodegenContext) genUnaryMinus(n *ast.UnaryMinus) (TypedValue, error) {
	v, err := cg.genExpression(n.Expr)
	if err != nil {
		return TypedValue{}, err
	}
	switch v.Type.Kind {
	case ir.Float:
		return TypedValue{Value: cg.builder.CreateFNeg(v.Value, ""), Type: v.Type}, nil
	case ir.Int:
		return TypedValue{Value: cg.builder.CreateNeg(v.Value, ""), Type: v.Type}, nil
	}
	return TypedValue{}, fmt.Errorf("type error: cannot negate value of type %s", v.Type)
}

func (cg *CodegenContext) genNot(n *ast.Not) (TypedValue, error) {
	v, err := cg.genExpression(n.Expr)
	if err != nil {
		return TypedValue{}, err
	}
	flag, err := cg.toBool(v)
	if err != nil {
		return TypedValue{}, err
	}
	return TypedValue{Value: cg.builder.CreateNot(flag.Value, ""), Type: flag.Type}, nil
}

// genArithmetic coerces both operands to their common type and picks the
// opcode family by that type: signed integer ops for ints, float ops for
// floats.
func (cg *CodegenContext) genArithmetic(n *ast.Arithmetic) (TypedValue, error) {
	lhs, err := cg.genExpression(n.LHS)
	if err != nil {
		return TypedValue{}, err
	}
	rhs, err := cg.genExpression(n.RHS)
	if err != nil {
		return TypedValue{}, err
	}
	if !lhs.Type.Arithmetic() {
		return TypedValue{}, fmt.Errorf("type error: arithmetic on value of type %s", lhs.Type)
	}
	if !rhs.Type.Arithmetic() {
		return TypedValue{}, fmt.Errorf("type error: arithmetic on value of type %s", rhs.Type)
	}

	common, err := ir.CommonType(lhs.Type, rhs.Type)
	if err != nil {
		return TypedValue{}, err
	}
	l := cg.cast(lhs.Type, common, lhs.Value)
	r := cg.cast(rhs.Type, common, rhs.Value)

	var res llvm.Value
	if common.Kind == ir.Float {
		switch n.Op {
		case ast.OpAdd:
			res = cg.builder.CreateFAdd(l, r, "")
		case ast.OpSub:
			res = cg.builder.CreateFSub(l, r, "")
		case ast.OpMul:
			res = cg.builder.CreateFMul(l, r, "")
		case ast.OpDiv:
			res = cg.builder.CreateFDiv(l, r, "")
		}
	} else {
		switch n.Op {
		case ast.OpAdd:
			res = cg.builder.CreateAdd(l, r, "")
		case ast.OpSub:
			res = cg.builder.CreateSub(l, r, "")
		case ast.OpMul:
			res = cg.builder.CreateMul(l, r, "")
		case ast.OpDiv:
			res = cg.builder.CreateSDiv(l, r, "")
		}
	}
	return TypedValue{Value: res, Type: common}, nil
}

// intPredicates maps comparators to signed integer predicates.
var intPredicates = map[ast.Comparator]llvm.IntPredicate{
	ast.CmpLE: llvm.IntSLE,
	ast.CmpGE: llvm.IntSGE,
	ast.CmpLT: llvm.IntSLT,
	ast.CmpGT: llvm.IntSGT,
	ast.CmpEQ: llvm.IntEQ,
	ast.CmpNE: llvm.IntNE,
}

// floatPredicates maps comparators to ordered float predicates.
var floatPredicates = map[ast.Comparator]llvm.FloatPredicate{
	ast.CmpLE: llvm.FloatOLE,
	ast.CmpGE: llvm.FloatOGE,
	ast.CmpLT: llvm.FloatOLT,
	ast.CmpGT: llvm.FloatOGT,
	ast.CmpEQ: llvm.FloatOEQ,
	ast.CmpNE: llvm.FloatONE,
}

// genCompare coerces both operands to their common type and emits a signed
// integer or ordered float comparison. The result is always bool.
func (cg *CodegenContext) genCompare(n *ast.Compare) (TypedValue, error) {
	lhs, err := cg.genExpression(n.LHS)
	if err != nil {
		return TypedValue{}, err
	}
	rhs, err := cg.genExpression(n.RHS)
	if err != nil {
		return TypedValue{}, err
	}

	common, err := ir.CommonType(lhs.Type, rhs.Type)
	if err != nil {
		return TypedValue{}, err
	}
	l := cg.cast(lhs.Type, common, lhs.Value)
	r := cg.cast(rhs.Type, common, rhs.Value)

	var res llvm.Value
	if common.Kind == ir.Float {
		res = cg.builder.CreateFCmp(floatPredicates[n.Cmp], l, r, "")
	} else {
		res = cg.builder.CreateICmp(intPredicates[n.Cmp], l, r, "")
	}
	boolTy, _ := cg.defs.Type("bool")
	return TypedValue{Value: res, Type: boolTy}, nil
}

// genFunctionCall lowers a call: each argument is coerced to the declared
// parameter type, and the result carries the declared return type.
func (cg *CodegenContext) genFunctionCall(n *ast.FunctionCall) (TypedValue, error) {
	sig, ok := cg.defs.Func(n.Name)
	if !ok {
		return TypedValue{}, fmt.Errorf("unknown function %s", n.Name)
	}
	fn := cg.module.NamedFunction(n.Name)
	if fn.IsNil() {
		panic("function " + n.Name + " missing from module after preparation")
	}
	if len(n.Args) != len(sig.Params) {
		return TypedValue{}, fmt.Errorf("function %s expects %d arguments, got %d",
			n.Name, len(sig.Params), len(n.Args))
	}

	args := make([]llvm.Value, len(n.Args))
	for i, arg := range n.Args {
		v, err := cg.genExpression(arg)
		if err != nil {
			return TypedValue{}, err
		}
		if args[i], err = cg.coerce(v, sig.Params[i]); err != nil {
			return TypedValue{}, err
		}
	}

	call := cg.builder.CreateCall(fn, args, "")
	return TypedValue{Value: call, Type: sig.Ret}, nil
}

// genStructCtor produces a zero-initialized struct value: an entry-block
// alloca, a zero-aggregate store, and a load of the whole struct.
func (cg *CodegenContext) genStructCtor(n *ast.StructCtor) (TypedValue, error) {
	ty, ok := cg.defs.Type(n.Name)
	if !ok {
		return TypedValue{}, fmt.Errorf("unknown type %s", n.Name)
	}
	if ty.Kind != ir.Custom {
		return TypedValue{}, fmt.Errorf("type error: %s is not a struct type", ty)
	}

	llvmTy := cg.llvmType(ty)
	slot := cg.entryAlloca(llvmTy, "")
	cg.builder.CreateStore(llvm.ConstNull(llvmTy), slot)
	return TypedValue{Value: cg.builder.CreateLoad(slot, ""), Type: ty}, nil
}
