package llvm

import (
	"fmt"

	"github.com/foxidokun/nyacc-go/src/ast"
	"github.com/foxidokun/nyacc-go/src/ir"
)

// genStatement lowers one statement. Statements yield no value: they mutate
// the builder cursor and the visibility context.
func (cg *CodegenContext) genStatement(s ast.Statement) error {
	switch n := s.(type) {
	case *ast.Program:
		for _, block := range n.Blocks {
			if err := cg.genStatement(block); err != nil {
				return err
			}
		}
		return nil
	case *ast.StructDef:
		return cg.genStructDef(n)
	case *ast.FuncDef:
		// Already declared during preparation.
		return nil
	case *ast.FuncImpl:
		return cg.genFuncImpl(n)
	case *ast.ExprStatement:
		_, err := cg.genExpression(n.Expr)
		return err
	case *ast.Let:
		return cg.genLet(n)
	case *ast.Assignment:
		return cg.genAssignment(n)
	case *ast.If:
		return cg.genIf(n)
	case *ast.While:
		return cg.genLoop(loopParts{cond: n.Cond, body: n.Body})
	case *ast.For:
		return cg.genLoop(loopParts{init: n.Init, cond: n.Cond, step: n.Step, body: n.Body})
	case *ast.Return:
		return cg.genReturn(n)
	}
	return fmt.Errorf("unexpected statement node %T", s)
}

// genStructDef forces the named IR struct type into existence. The type
// itself was registered by the pre-pass; here only the IR side materializes.
func (cg *CodegenContext) genStructDef(n *ast.StructDef) error {
	t, ok := cg.defs.Type(n.Name)
	if !ok {
		panic("struct " + n.Name + " missing from definition table")
	}
	cg.llvmType(t)
	return nil
}

// genFuncImpl lowers a function body. The declaration already exists in the
// module; a declaration that already has a body is a duplicate
// implementation.
func (cg *CodegenContext) genFuncImpl(n *ast.FuncImpl) error {
	ret, ok := cg.defs.Type(n.RetType)
	if !ok {
		return fmt.Errorf("unknown type %s in definition of %s", n.RetType, n.Name)
	}

	fn := cg.module.NamedFunction(n.Name)
	if fn.IsNil() {
		panic("function " + n.Name + " missing from module after preparation")
	}
	if !fn.FirstBasicBlock().IsNil() {
		return fmt.Errorf("duplicate implementation of function %s", n.Name)
	}

	cg.vis.EnterFunction(fn, ret)
	cg.vis.EnterLayer()
	defer cg.vis.ExitFunction()
	defer cg.vis.ExitLayer()

	entry := cg.ctx.AddBasicBlock(fn, "entry")
	cg.builder.SetInsertPointAtEnd(entry)

	// Give every parameter an addressable stack home.
	for i, arg := range n.Args {
		argTy, ok := cg.defs.Type(arg.Type)
		if !ok {
			return fmt.Errorf("unknown type %s in argument %d of function %s", arg.Type, i, n.Name)
		}
		slot := cg.builder.CreateAlloca(cg.llvmType(argTy), arg.Name)
		cg.builder.CreateStore(fn.Param(i), slot)
		cg.vis.AddVariable(arg.Name, slot, argTy)
	}

	for _, st := range n.Body {
		if err := cg.genStatement(st); err != nil {
			return err
		}
	}

	// Seal whatever block the cursor ended in. Void functions return
	// implicitly; a non-void function that falls through here is ill-formed,
	// but the IR stays well-formed with an unreachable terminator.
	if ret.Kind == ir.Void {
		cg.builder.CreateRetVoid()
	} else {
		cg.builder.CreateUnreachable()
	}
	return nil
}

// genLet lowers `let name (: type)? = expr`: evaluate, coerce to the declared
// type when one is given, allocate a slot in the entry block, store, bind.
func (cg *CodegenContext) genLet(n *ast.Let) error {
	v, err := cg.genExpression(n.Expr)
	if err != nil {
		return err
	}

	if n.Type != "" {
		declared, ok := cg.defs.Type(n.Type)
		if !ok {
			return fmt.Errorf("unknown type %s in let of %s", n.Type, n.Name)
		}
		val, err := cg.coerce(v, declared)
		if err != nil {
			return err
		}
		v = TypedValue{Value: val, Type: declared}
	}

	slot := cg.entryAlloca(cg.llvmType(v.Type), n.Name)
	cg.builder.CreateStore(v.Value, slot)
	cg.vis.AddVariable(n.Name, slot, v.Type)
	return nil
}

// genAssignment stores into an existing slot, coercing the value to the
// slot's element type.
func (cg *CodegenContext) genAssignment(n *ast.Assignment) error {
	slot, ty, err := cg.genGEP(&n.Var)
	if err != nil {
		return err
	}
	v, err := cg.genExpression(n.Expr)
	if err != nil {
		return err
	}
	val, err := cg.coerce(v, ty)
	if err != nil {
		return err
	}
	cg.builder.CreateStore(val, slot)
	return nil
}

// genIf lowers a conditional. The condition gets its own check block; the
// then arm always branches on into the false continuation or a dedicated
// continuation block, even when the arm returned, which is why returns park
// the cursor in a disposable block.
func (cg *CodegenContext) genIf(n *ast.If) error {
	fn, _, ok := cg.vis.CurrentFunction()
	if !ok {
		panic("if statement outside of a function")
	}

	check := cg.ctx.AddBasicBlock(fn, "check")
	trueBlock := cg.ctx.AddBasicBlock(fn, "true_block")
	falseCont := cg.ctx.AddBasicBlock(fn, "false_cont")

	cg.builder.CreateBr(check)
	cg.builder.SetInsertPointAtEnd(check)
	cond, err := cg.genExpression(n.Cond)
	if err != nil {
		return err
	}
	flag, err := cg.toBool(cond)
	if err != nil {
		return err
	}
	cg.builder.CreateCondBr(flag.Value, trueBlock, falseCont)

	cg.builder.SetInsertPointAtEnd(trueBlock)
	cg.vis.EnterLayer()
	for _, st := range n.Then {
		if err := cg.genStatement(st); err != nil {
			cg.vis.ExitLayer()
			return err
		}
	}
	cg.vis.ExitLayer()

	if n.Else == nil {
		cg.builder.CreateBr(falseCont)
		cg.builder.SetInsertPointAtEnd(falseCont)
		return nil
	}

	cont := cg.ctx.AddBasicBlock(fn, "cont")
	cg.builder.CreateBr(cont)

	cg.builder.SetInsertPointAtEnd(falseCont)
	cg.vis.EnterLayer()
	for _, st := range n.Else {
		if err := cg.genStatement(st); err != nil {
			cg.vis.ExitLayer()
			return err
		}
	}
	cg.vis.ExitLayer()
	cg.builder.CreateBr(cont)

	cg.builder.SetInsertPointAtEnd(cont)
	return nil
}

// loopParts is the common shape behind while and for loops. While is a for
// loop without init and step.
type loopParts struct {
	init ast.Statement
	cond ast.Expression
	step ast.Statement
	body []ast.Statement
}

// genLoop lowers a loop: init runs in the enclosing flow, the condition gets
// its own check block, the body and step share the loop block, and the loop
// scope covers init, condition, body and step alike.
func (cg *CodegenContext) genLoop(l loopParts) error {
	fn, _, ok := cg.vis.CurrentFunction()
	if !ok {
		panic("loop outside of a function")
	}

	check := cg.ctx.AddBasicBlock(fn, "check")
	loop := cg.ctx.AddBasicBlock(fn, "loop")
	cont := cg.ctx.AddBasicBlock(fn, "cont")

	cg.vis.EnterLayer()
	defer cg.vis.ExitLayer()

	if l.init != nil {
		if err := cg.genStatement(l.init); err != nil {
			return err
		}
	}
	cg.builder.CreateBr(check)

	cg.builder.SetInsertPointAtEnd(check)
	cond, err := cg.genExpression(l.cond)
	if err != nil {
		return err
	}
	flag, err := cg.toBool(cond)
	if err != nil {
		return err
	}
	cg.builder.CreateCondBr(flag.Value, loop, cont)

	cg.builder.SetInsertPointAtEnd(loop)
	for _, st := range l.body {
		if err := cg.genStatement(st); err != nil {
			return err
		}
	}
	if l.step != nil {
		if err := cg.genStatement(l.step); err != nil {
			return err
		}
	}
	cg.builder.CreateBr(check)

	cg.builder.SetInsertPointAtEnd(cont)
	return nil
}

// genReturn emits the return and parks the cursor in a fresh dead block, so
// statements after the return still have a valid block to lower into and
// the surrounding if/loop lowering can keep emitting its unconditional
// branches.
func (cg *CodegenContext) genReturn(n *ast.Return) error {
	fn, ret, ok := cg.vis.CurrentFunction()
	if !ok {
		panic("return outside of a function")
	}

	if n.Expr == nil {
		cg.builder.CreateRetVoid()
	} else {
		v, err := cg.genExpression(n.Expr)
		if err != nil {
			return err
		}
		val, err := cg.coerce(v, ret)
		if err != nil {
			return err
		}
		cg.builder.CreateRet(val)
	}

	dead := cg.ctx.AddBasicBlock(fn, "unreachable")
	cg.builder.SetInsertPointAtEnd(dead)
	return nil
}
