package ir

import (
	"fmt"
	"sort"

	"github.com/foxidokun/nyacc-go/src/ast"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// FuncSig is a canonicalized function signature: parameter type names are
// resolved to types when the signature is inserted.
type FuncSig struct {
	Params []*Type
	Ret    *Type
}

// Definitions is the definition table: every type and function signature the
// program may reference, discovered in a single pre-order walk over the
// top-level blocks. The table is frozen before code generation starts; the
// code generator only reads it.
type Definitions struct {
	ast.BaseVisitor

	types map[string]*Type
	funcs map[string]*FuncSig
}

// ---------------------
// ----- Functions -----
// ---------------------

// NewDefinitions returns a definition table seeded with the built-in
// primitive types.
func NewDefinitions() *Definitions {
	return &Definitions{
		types: map[string]*Type{
			"void": {Kind: Void},
			"bool": NewInt(1),
			"i8":   NewInt(8),
			"i16":  NewInt(16),
			"i32":  NewInt(32),
			"i64":  NewInt(64),
			"f32":  NewFloat(32),
			"f64":  NewFloat(64),
		},
		funcs: map[string]*FuncSig{},
	}
}

// Collect walks the program and registers every user type and function
// signature. The first semantic error aborts the walk.
func (d *Definitions) Collect(prog *ast.Program) error {
	return prog.Accept(d)
}

// Type returns the type registered under the given source-level name.
func (d *Definitions) Type(name string) (*Type, bool) {
	t, ok := d.types[name]
	return t, ok
}

// Func returns the signature registered under the given function name.
func (d *Definitions) Func(name string) (*FuncSig, bool) {
	f, ok := d.funcs[name]
	return f, ok
}

// FuncNames returns all registered function names in sorted order.
func (d *Definitions) FuncNames() []string {
	names := make([]string, 0, len(d.funcs))
	for name := range d.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// --------------------------
// ----- Visitor walk -------
// --------------------------

// VisitProgram dispatches each top-level block. Nested statements are never
// visited: definitions live at the top level only.
func (d *Definitions) VisitProgram(n *ast.Program) error {
	for _, block := range n.Blocks {
		if err := block.Accept(d); err != nil {
			return err
		}
	}
	return nil
}

// VisitStructDef registers a struct type. Field types must already be known,
// so a struct may only reference built-ins and structs defined earlier.
func (d *Definitions) VisitStructDef(n *ast.StructDef) error {
	if _, ok := d.types[n.Name]; ok {
		return fmt.Errorf("redefinition of type %s", n.Name)
	}

	names := make([]string, len(n.Fields))
	types := make([]*Type, len(n.Fields))
	for i, field := range n.Fields {
		ft, ok := d.types[field.Type]
		if !ok {
			return fmt.Errorf("unknown type %s in definition of %s", field.Type, n.Name)
		}
		names[i] = field.Name
		types[i] = ft
	}
	d.types[n.Name] = NewCustom(n.Name, names, types)
	return nil
}

// VisitFuncDef registers a function declaration.
func (d *Definitions) VisitFuncDef(n *ast.FuncDef) error {
	return d.addFunc(n.Name, n.Args, n.RetType)
}

// VisitFuncImpl registers a function implementation; the body is the code
// generator's business.
func (d *Definitions) VisitFuncImpl(n *ast.FuncImpl) error {
	return d.addFunc(n.Name, n.Args, n.RetType)
}

// addFunc resolves and registers a function signature. Re-registration with
// an identical signature is accepted silently, which is what a forward
// declaration followed by the implementation looks like.
func (d *Definitions) addFunc(name string, args []ast.TypedArg, retName string) error {
	ret, ok := d.types[retName]
	if !ok {
		return fmt.Errorf("unknown type %s in definition of %s", retName, name)
	}

	params := make([]*Type, len(args))
	for i, arg := range args {
		at, ok := d.types[arg.Type]
		if !ok {
			return fmt.Errorf("unknown type %s in argument %d of function %s", arg.Type, i, name)
		}
		params[i] = at
	}

	if name == "main" {
		if ret.Kind != Void {
			return fmt.Errorf("incorrect return type for main function, should be void")
		}
		if len(params) != 0 {
			return fmt.Errorf("incorrect arguments for main function, should be none")
		}
	}

	if existing, ok := d.funcs[name]; ok {
		if len(existing.Params) != len(params) {
			return fmt.Errorf("mismatched argument types for fn %s", name)
		}
		for i, param := range params {
			if !existing.Params[i].Equal(param) {
				return fmt.Errorf("mismatched argument types for fn %s", name)
			}
		}
		if !existing.Ret.Equal(ret) {
			return fmt.Errorf("mismatched return type for fn %s", name)
		}
		return nil
	}

	d.funcs[name] = &FuncSig{Params: params, Ret: ret}
	return nil
}
