package ast

import (
	"fmt"
	"io"
	"strings"
)

// printer is the tree-dump visitor behind Fprint. Every node prints one header
// line at the current indent, then its labelled subtrees three columns deeper.
type printer struct {
	w      io.Writer
	indent int
	err    error
}

// Fprint writes an indented dump of the syntax tree rooted at prog to w.
func Fprint(w io.Writer, prog *Program) error {
	p := &printer{w: w}
	if err := prog.Accept(p); err != nil {
		return err
	}
	return p.err
}

func (p *printer) shift() {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, strings.Repeat(" ", p.indent))
	}
}

func (p *printer) line(format string, args ...interface{}) {
	p.shift()
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
	}
}

// header prints a `- Name:` label at the current indent and shifts three
// columns deeper for the label's children.
func (p *printer) header(name string) {
	p.shift()
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, "- %s:\n", name)
	}
	p.indent += 3
}

// subtree prints a labelled child node three columns deeper.
func (p *printer) subtree(name string, n Node) error {
	p.header(name)
	err := n.Accept(p)
	p.indent -= 3
	return err
}

// body prints a labelled statement list three columns deeper.
func (p *printer) body(name string, body []Statement) error {
	p.header(name)
	for _, n := range body {
		if err := n.Accept(p); err != nil {
			p.indent -= 3
			return err
		}
	}
	p.indent -= 3
	return nil
}

// exprs prints a labelled expression list three columns deeper.
func (p *printer) exprs(name string, args []Expression) error {
	p.header(name)
	for _, n := range args {
		if err := n.Accept(p); err != nil {
			p.indent -= 3
			return err
		}
	}
	p.indent -= 3
	return nil
}

// args prints a typed-argument list three columns deeper.
func (p *printer) args(name string, args []TypedArg) {
	p.header(name)
	for _, a := range args {
		p.line("%s: %s", a.Name, a.Type)
	}
	p.indent -= 3
}

func (p *printer) VisitInt(n *Int) error {
	p.line("Int %d", n.Val)
	return p.err
}

func (p *printer) VisitFloat(n *Float) error {
	p.line("Float %v", n.Val)
	return p.err
}

func (p *printer) VisitVariable(n *Variable) error {
	p.line("Variable %s", n)
	return p.err
}

func (p *printer) VisitUnaryMinus(n *UnaryMinus) error {
	p.line("UnaryMinus")
	return p.subtree("Value", n.Expr)
}

func (p *printer) VisitNot(n *Not) error {
	p.line("Not")
	return p.subtree("Value", n.Expr)
}

func (p *printer) VisitArithmetic(n *Arithmetic) error {
	p.line("Arithmetic node (sign: %s)", n.Op)
	if err := p.subtree("LHS", n.LHS); err != nil {
		return err
	}
	return p.subtree("RHS", n.RHS)
}

func (p *printer) VisitCompare(n *Compare) error {
	p.line("Compare node (comparator: %s)", n.Cmp)
	if err := p.subtree("LHS", n.LHS); err != nil {
		return err
	}
	return p.subtree("RHS", n.RHS)
}

func (p *printer) VisitFunctionCall(n *FunctionCall) error {
	p.line("Calling function %s", n.Name)
	return p.exprs("Args", n.Args)
}

func (p *printer) VisitStructCtor(n *StructCtor) error {
	p.line("Struct Ctor of type %s", n.Name)
	return p.err
}

func (p *printer) VisitExprStatement(n *ExprStatement) error {
	p.line("ExprStatement node")
	return p.subtree("Expr", n.Expr)
}

func (p *printer) VisitLet(n *Let) error {
	if n.Type != "" {
		p.line("Let to var %s of type %s", n.Name, n.Type)
	} else {
		p.line("Let to var %s", n.Name)
	}
	return p.subtree("Value", n.Expr)
}

func (p *printer) VisitAssignment(n *Assignment) error {
	p.line("Assignment to var %s", &n.Var)
	return p.subtree("Value", n.Expr)
}

func (p *printer) VisitIf(n *If) error {
	p.line("If")
	if err := p.subtree("Condition", n.Cond); err != nil {
		return err
	}
	if err := p.body("True Body", n.Then); err != nil {
		return err
	}
	if n.Else != nil {
		return p.body("Else Body", n.Else)
	}
	return nil
}

func (p *printer) VisitWhile(n *While) error {
	p.line("While Loop")
	if err := p.subtree("Condition", n.Cond); err != nil {
		return err
	}
	return p.body("Body", n.Body)
}

func (p *printer) VisitFor(n *For) error {
	p.line("For Loop")
	if err := p.subtree("Start", n.Init); err != nil {
		return err
	}
	if err := p.subtree("Check", n.Cond); err != nil {
		return err
	}
	if err := p.subtree("Step", n.Step); err != nil {
		return err
	}
	return p.body("Body", n.Body)
}

func (p *printer) VisitReturn(n *Return) error {
	if n.Expr == nil {
		p.line("Return void")
		return p.err
	}
	p.line("Return val")
	return p.subtree("Val", n.Expr)
}

func (p *printer) VisitFuncDef(n *FuncDef) error {
	p.line("FuncDef of fn %s -> %s", n.Name, n.RetType)
	p.args("Args", n.Args)
	return p.err
}

func (p *printer) VisitFuncImpl(n *FuncImpl) error {
	p.line("FuncImpl of fn %s -> %s", n.Name, n.RetType)
	p.args("Args", n.Args)
	return p.body("Body", n.Body)
}

func (p *printer) VisitStructDef(n *StructDef) error {
	p.line("StructDef of type %s", n.Name)
	p.args("Fields", n.Fields)
	return p.err
}

func (p *printer) VisitProgram(n *Program) error {
	p.line("Program")
	return p.body("Blocks", n.Blocks)
}
