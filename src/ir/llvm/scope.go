package llvm

import (
	"tinygo.org/x/go-llvm"

	"github.com/foxidokun/nyacc-go/src/ir"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// binding is a visible variable: a pointer to its stack slot and its type.
type binding struct {
	slot llvm.Value
	ty   *ir.Type
}

// VisibilityContext is the scoped symbol table of the code generator: a stack
// of name to (slot, type) layers plus at most one current-function record.
// Lookup walks layers top-down; insertion always targets the topmost layer.
// The layer stack is empty between function bodies.
type VisibilityContext struct {
	layers []map[string]binding

	fn         llvm.Value
	ret        *ir.Type
	inFunction bool
}

// ---------------------
// ----- Functions -----
// ---------------------

// EnterLayer pushes a fresh scope.
func (v *VisibilityContext) EnterLayer() {
	v.layers = append(v.layers, map[string]binding{})
}

// ExitLayer pops the topmost scope. Exiting more than entered is a compiler
// bug.
func (v *VisibilityContext) ExitLayer() {
	if len(v.layers) == 0 {
		panic("exited more scopes than entered")
	}
	v.layers = v.layers[:len(v.layers)-1]
}

// AddVariable binds name to a stack slot in the topmost scope, shadowing any
// outer binding of the same name.
func (v *VisibilityContext) AddVariable(name string, slot llvm.Value, ty *ir.Type) {
	v.layers[len(v.layers)-1][name] = binding{slot: slot, ty: ty}
}

// Variable looks the name up through all live scopes, innermost first.
func (v *VisibilityContext) Variable(name string) (binding, bool) {
	for i := len(v.layers) - 1; i >= 0; i-- {
		if b, ok := v.layers[i][name]; ok {
			return b, true
		}
	}
	return binding{}, false
}

// EnterFunction sets the current-function record. Overwriting a live record
// is a compiler bug: function bodies do not nest.
func (v *VisibilityContext) EnterFunction(fn llvm.Value, ret *ir.Type) {
	if v.inFunction {
		panic("overwriting current function record")
	}
	v.fn = fn
	v.ret = ret
	v.inFunction = true
}

// ExitFunction clears the current-function record.
func (v *VisibilityContext) ExitFunction() {
	v.fn = llvm.Value{}
	v.ret = nil
	v.inFunction = false
}

// CurrentFunction returns the function being generated and its return type.
func (v *VisibilityContext) CurrentFunction() (llvm.Value, *ir.Type, bool) {
	return v.fn, v.ret, v.inFunction
}
