package ast

// Visitor exposes one callback per concrete node kind. Passes embed
// BaseVisitor and override only the callbacks they care about; the pre-pass
// that collects definitions, for example, never sees anything below the
// top-level blocks.
type Visitor interface {
	VisitInt(n *Int) error
	VisitFloat(n *Float) error
	VisitVariable(n *Variable) error
	VisitUnaryMinus(n *UnaryMinus) error
	VisitNot(n *Not) error
	VisitArithmetic(n *Arithmetic) error
	VisitCompare(n *Compare) error
	VisitFunctionCall(n *FunctionCall) error
	VisitStructCtor(n *StructCtor) error

	VisitExprStatement(n *ExprStatement) error
	VisitLet(n *Let) error
	VisitAssignment(n *Assignment) error
	VisitIf(n *If) error
	VisitWhile(n *While) error
	VisitFor(n *For) error
	VisitReturn(n *Return) error
	VisitFuncDef(n *FuncDef) error
	VisitFuncImpl(n *FuncImpl) error
	VisitStructDef(n *StructDef) error
	VisitProgram(n *Program) error
}

// BaseVisitor implements Visitor with no-op callbacks so partial visitors need
// not handle every node kind.
type BaseVisitor struct{}

func (BaseVisitor) VisitInt(*Int) error                   { return nil }
func (BaseVisitor) VisitFloat(*Float) error               { return nil }
func (BaseVisitor) VisitVariable(*Variable) error         { return nil }
func (BaseVisitor) VisitUnaryMinus(*UnaryMinus) error     { return nil }
func (BaseVisitor) VisitNot(*Not) error                   { return nil }
func (BaseVisitor) VisitArithmetic(*Arithmetic) error     { return nil }
func (BaseVisitor) VisitCompare(*Compare) error           { return nil }
func (BaseVisitor) VisitFunctionCall(*FunctionCall) error { return nil }
func (BaseVisitor) VisitStructCtor(*StructCtor) error     { return nil }

func (BaseVisitor) VisitExprStatement(*ExprStatement) error { return nil }
func (BaseVisitor) VisitLet(*Let) error                     { return nil }
func (BaseVisitor) VisitAssignment(*Assignment) error       { return nil }
func (BaseVisitor) VisitIf(*If) error                       { return nil }
func (BaseVisitor) VisitWhile(*While) error                 { return nil }
func (BaseVisitor) VisitFor(*For) error                     { return nil }
func (BaseVisitor) VisitReturn(*Return) error               { return nil }
func (BaseVisitor) VisitFuncDef(*FuncDef) error             { return nil }
func (BaseVisitor) VisitFuncImpl(*FuncImpl) error           { return nil }
func (BaseVisitor) VisitStructDef(*StructDef) error         { return nil }
func (BaseVisitor) VisitProgram(*Program) error             { return nil }
