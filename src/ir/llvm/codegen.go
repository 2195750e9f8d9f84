// Package llvm lowers the NyaC syntax tree to an LLVM IR module and wraps the
// execution engine that runs the result in-process. One CodegenContext owns
// the IR context, module and builder for the whole compilation; ownership of
// the context and module can be transferred to the JIT engine once the module
// is populated.
package llvm

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"github.com/foxidokun/nyacc-go/src/ast"
	"github.com/foxidokun/nyacc-go/src/ir"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// TypedValue pairs an IR value with its NyaC type. Every expression lowering
// yields one.
type TypedValue struct {
	Value llvm.Value
	Type  *ir.Type
}

// CodegenContext owns everything the code generator needs: the IR handles,
// the frozen definition table, the visibility context and the cache of IR
// function types built during preparation.
type CodegenContext struct {
	ctx     llvm.Context
	module  llvm.Module
	builder llvm.Builder

	defs      *ir.Definitions
	vis       *VisibilityContext
	typeCache map[string]llvm.Type

	released bool // Handles transferred to the JIT engine.
	disposed bool
}

// ---------------------
// ----- Functions -----
// ---------------------

// Prepare runs the definition pre-pass over the program, builds the IR
// context, module and builder in that order, and declares every registered
// function so recursive and forward calls resolve during body emission.
func Prepare(prog *ast.Program, moduleName string) (*CodegenContext, error) {
	defs := ir.NewDefinitions()
	if err := defs.Collect(prog); err != nil {
		return nil, err
	}

	ctx := llvm.NewContext()
	cg := &CodegenContext{
		ctx:       ctx,
		module:    ctx.NewModule(moduleName),
		builder:   ctx.NewBuilder(),
		defs:      defs,
		vis:       &VisibilityContext{},
		typeCache: map[string]llvm.Type{},
	}

	for _, name := range defs.FuncNames() {
		sig, _ := defs.Func(name)
		params := make([]llvm.Type, len(sig.Params))
		for i, p := range sig.Params {
			params[i] = cg.llvmType(p)
		}
		ftyp := llvm.FunctionType(cg.llvmType(sig.Ret), params, false)
		if fn := llvm.AddFunction(cg.module, name, ftyp); fn.IsNil() {
			panic("failed to declare function " + name)
		}
		cg.typeCache[name] = ftyp
	}

	return cg, nil
}

// Generate lowers the whole program into the module.
func (cg *CodegenContext) Generate(prog *ast.Program) error {
	return cg.genStatement(prog)
}

// Definitions returns the frozen definition table.
func (cg *CodegenContext) Definitions() *ir.Definitions {
	return cg.defs
}

// IR returns the module as LLVM textual IR.
func (cg *CodegenContext) IR() string {
	return cg.module.String()
}

// Verify checks the module for IR-level consistency. Failures after a clean
// generation run are compiler bugs, but the message beats a crash inside the
// optimizer.
func (cg *CodegenContext) Verify() error {
	return llvm.VerifyModule(cg.module, llvm.ReturnStatusAction)
}

// Optimize runs the default O2-equivalent pass pipeline over the module.
func (cg *CodegenContext) Optimize() {
	pmb := llvm.NewPassManagerBuilder()
	defer pmb.Dispose()
	pmb.SetOptLevel(2)

	pm := llvm.NewPassManager()
	defer pm.Dispose()
	pmb.Populate(pm)
	pm.Run(cg.module)
}

// Dispose releases the builder, module and context in that order. It is a
// no-op when ownership has been transferred to the JIT engine.
func (cg *CodegenContext) Dispose() {
	if cg.released || cg.disposed {
		return
	}
	cg.disposed = true
	cg.builder.Dispose()
	cg.module.Dispose()
	cg.ctx.Dispose()
}

// release hands the module and context over to the JIT engine. The builder is
// no longer needed and dies here; the engine owns the rest.
func (cg *CodegenContext) release() (llvm.Module, llvm.Context) {
	if cg.released || cg.disposed {
		panic("codegen handles already released")
	}
	cg.released = true
	cg.builder.Dispose()
	return cg.module, cg.ctx
}

// llvmType maps a NyaC type to its IR type. Named struct types materialize on
// first use: the type is created in the context and its body set to the
// ordered field types. Struct fields only reference earlier definitions, so
// the recursion terminates.
func (cg *CodegenContext) llvmType(t *ir.Type) llvm.Type {
	switch t.Kind {
	case ir.Void:
		return cg.ctx.VoidType()
	case ir.Int:
		return cg.ctx.IntType(t.Bits)
	case ir.Float:
		if t.Bits == 64 {
			return cg.ctx.DoubleType()
		}
		return cg.ctx.FloatType()
	case ir.Custom:
		if st := cg.module.GetTypeByName(t.Name); !st.IsNil() {
			return st
		}
		st := cg.ctx.StructCreateNamed(t.Name)
		elems := make([]llvm.Type, len(t.Order))
		for i, name := range t.Order {
			elems[i] = cg.llvmType(t.Fields[name].Type)
		}
		st.StructSetBody(elems, false)
		return st
	}
	panic(fmt.Sprintf("no IR type for %s", t))
}

// entryAlloca emits a stack allocation in the entry block of the current
// function regardless of where the cursor currently is. Allocas must stay
// ahead of every branch in the entry block, or the optimizer breaks the SSA
// numbering; the cursor is saved, moved, and restored around the allocation.
func (cg *CodegenContext) entryAlloca(t llvm.Type, name string) llvm.Value {
	fn, _, ok := cg.vis.CurrentFunction()
	if !ok {
		panic("stack allocation outside of a function")
	}

	cur := cg.builder.GetInsertBlock()
	entry := fn.EntryBasicBlock()
	if first := entry.FirstInstruction(); !first.IsNil() {
		cg.builder.SetInsertPointBefore(first)
	} else {
		cg.builder.SetInsertPointAtEnd(entry)
	}
	slot := cg.builder.CreateAlloca(t, name)
	cg.builder.SetInsertPointAtEnd(cur)
	return slot
}
