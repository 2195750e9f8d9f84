package llvm

import (
	"fmt"
	"sync"
	"unsafe"

	"tinygo.org/x/go-llvm"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Engine wraps a finalized module in an MCJIT execution engine. It owns the
// module and the IR context it took over from the code generator; disposing
// the engine releases the module, the context dies last.
type Engine struct {
	ee       llvm.ExecutionEngine
	module   llvm.Module
	ctx      llvm.Context
	disposed bool
}

// -------------------
// ----- Globals -----
// -------------------

var jitInit sync.Once
var jitInitErr error

// ---------------------
// ----- Functions -----
// ---------------------

// initNative links in MCJIT and initializes the host target. Safe to call
// any number of times; LLVM target registration is process-global.
func initNative() error {
	jitInit.Do(func() {
		llvm.LinkInMCJIT()
		if err := llvm.InitializeNativeTarget(); err != nil {
			jitInitErr = err
			return
		}
		jitInitErr = llvm.InitializeNativeAsmPrinter()
	})
	return jitInitErr
}

// NewEngine takes ownership of the generator's module and context and wraps
// them in an execution engine. When optimize is set, the default O2 pipeline
// runs over the module first. After this call the generator's handles are
// gone: disposing the generator is a no-op.
func NewEngine(cg *CodegenContext, optimize bool) (*Engine, error) {
	if err := initNative(); err != nil {
		return nil, err
	}
	if optimize {
		cg.Optimize()
	}

	module, ctx := cg.release()
	opts := llvm.NewMCJITCompilerOptions()
	opts.SetMCJITOptimizationLevel(2)
	ee, err := llvm.NewMCJITCompiler(module, opts)
	if err != nil {
		module.Dispose()
		ctx.Dispose()
		return nil, fmt.Errorf("failed to create execution engine: %w", err)
	}
	return &Engine{ee: ee, module: module, ctx: ctx}, nil
}

// Declares reports whether the module declares the named function without
// providing a body, which is what an importable external symbol looks like.
func (e *Engine) Declares(name string) bool {
	fn := e.module.NamedFunction(name)
	return !fn.IsNil() && fn.FirstBasicBlock().IsNil()
}

// AddExternal binds a declared-but-undefined function symbol to a host
// function address. Mappings must be complete before the first
// FunctionAddress or RunMain call.
func (e *Engine) AddExternal(name string, addr unsafe.Pointer) error {
	fn := e.module.NamedFunction(name)
	if fn.IsNil() {
		return fmt.Errorf("missing import %s: not declared in module", name)
	}
	e.ee.AddGlobalMapping(fn, addr)
	return nil
}

// FunctionAddress returns an executable pointer to the named function.
func (e *Engine) FunctionAddress(name string) (unsafe.Pointer, error) {
	fn := e.module.NamedFunction(name)
	if fn.IsNil() {
		return nil, fmt.Errorf("missing function %s", name)
	}
	return e.ee.PointerToGlobal(fn), nil
}

// RunMain executes the program's entry point. The signature rule for main
// (void, no parameters) is enforced by the definition table, which keeps the
// call shape trivial for the engine.
func (e *Engine) RunMain() error {
	fn := e.module.NamedFunction("main")
	if fn.IsNil() || fn.FirstBasicBlock().IsNil() {
		return fmt.Errorf("missing function main")
	}
	e.ee.RunFunction(fn, nil)
	return nil
}

// Dispose releases the execution engine, which releases the module with it;
// the IR context goes last.
func (e *Engine) Dispose() {
	if e.disposed {
		return
	}
	e.disposed = true
	e.ee.Dispose()
	e.ctx.Dispose()
}
