package llvm

import (
	"math"
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/foxidokun/nyacc-go/src/frontend"
	"github.com/foxidokun/nyacc-go/src/ir/llvm/jitcall"
)

// compileProgram parses and lowers a source string into a verified module.
func compileProgram(t *testing.T, src string) *CodegenContext {
	t.Helper()
	prog, err := frontend.Parse(src)
	require.NoError(t, err)

	cg, err := Prepare(prog, "test")
	require.NoError(t, err)
	if err := cg.Generate(prog); err != nil {
		cg.Dispose()
		t.Fatal(err)
	}
	if err := cg.Verify(); err != nil {
		t.Log(cg.IR())
		cg.Dispose()
		t.Fatal(err)
	}
	return cg
}

// jitProgram compiles a source string all the way into an execution engine.
func jitProgram(t *testing.T, src string) *Engine {
	t.Helper()
	engine, err := NewEngine(compileProgram(t, src), true)
	require.NoError(t, err)
	t.Cleanup(engine.Dispose)
	return engine
}

// fnAddr resolves a compiled function to an executable address.
func fnAddr(t *testing.T, e *Engine, name string) unsafe.Pointer {
	t.Helper()
	addr, err := e.FunctionAddress(name)
	require.NoError(t, err)
	require.NotNil(t, addr)
	return addr
}

// compileError asserts that compilation fails with a message containing want,
// at either the definition or the code generation stage.
func compileError(t *testing.T, src, want string) {
	t.Helper()
	prog, err := frontend.Parse(src)
	require.NoError(t, err)

	cg, err := Prepare(prog, "test")
	if err == nil {
		err = cg.Generate(prog)
		cg.Dispose()
	}
	require.Error(t, err)
	require.Contains(t, err.Error(), want)
}

func TestSum(t *testing.T) {
	e := jitProgram(t, "fn sum(a: i32, b: i32) -> i32 { return a + b; }")
	sum := fnAddr(t, e, "sum")
	require.EqualValues(t, 3, jitcall.I32x2(sum, 1, 2))
}

func TestMul(t *testing.T) {
	e := jitProgram(t, "fn mul(a: i32, b: i32) -> i32 { return a * b; }")
	mul := fnAddr(t, e, "mul")
	require.EqualValues(t, 2, jitcall.I32x2(mul, 1, 2))
	require.EqualValues(t, -2, jitcall.I32x2(mul, -1, 2))
}

// Both arms of the if return, and the lowering still emits branches into the
// continuation block; the dead blocks after the returns keep the module
// well-formed.
func TestMaxBothArmsReturn(t *testing.T) {
	e := jitProgram(t, `
		fn max(a: i32, b: i32) -> i32 {
			if (a > b) {
				return a;
			} else {
				return b;
			}
		}
	`)
	max := fnAddr(t, e, "max")

	require.EqualValues(t, 2, jitcall.I32x2(max, 1, 2))
	require.EqualValues(t, 2, jitcall.I32x2(max, 2, 1))
	require.EqualValues(t, 1, jitcall.I32x2(max, 1, 1))
	require.EqualValues(t, -1, jitcall.I32x2(max, -1, -2))
	require.EqualValues(t, -1, jitcall.I32x2(max, -1, -1))
	require.EqualValues(t, math.MaxInt32, jitcall.I32x2(max, math.MaxInt32, -2))
	require.EqualValues(t, math.MaxInt32, jitcall.I32x2(max, math.MinInt32, math.MaxInt32))
	require.EqualValues(t, math.MinInt32, jitcall.I32x2(max, math.MinInt32, math.MinInt32))
}

func TestRecursion(t *testing.T) {
	e := jitProgram(t, `
		fn fib(n: i32) -> i32 {
			if (n == 0) {
				return 1;
			}
			if (n == 1) {
				return 1;
			}
			return fib(n-1) + fib(n-2);
		}
	`)
	fib := fnAddr(t, e, "fib")

	for n, want := range []int32{1, 1, 2, 3, 5, 8, 13} {
		require.EqualValues(t, want, jitcall.I32x1(fib, int32(n)), "fib(%d)", n)
	}
}

func TestFunctionCalls(t *testing.T) {
	e := jitProgram(t, `
		fn id(a: i32) -> i32 { return a; }

		fn mul(a: i32, b: i32) -> i32 { return id(a) * b; }
	`)
	mul := fnAddr(t, e, "mul")

	require.EqualValues(t, 2, jitcall.I32x2(mul, 1, 2))
	require.EqualValues(t, 0, jitcall.I32x2(mul, 1, 0))
	require.EqualValues(t, 0, jitcall.I32x2(mul, 0, 2))
	require.EqualValues(t, -2, jitcall.I32x2(mul, -1, 2))
}

// A declared-but-undefined function binds to a host symbol by name.
func TestExternalSymbol(t *testing.T) {
	e := jitProgram(t, `
		fn test_id(a: i32) -> i32;

		fn mul(a: i32, b: i32) -> i32 { return test_id(a) * b; }
	`)
	require.True(t, e.Declares("test_id"))
	require.NoError(t, e.AddExternal("test_id", jitcall.IdentityAddr()))

	mul := fnAddr(t, e, "mul")
	require.EqualValues(t, 2, jitcall.I32x2(mul, 1, 2))
	require.EqualValues(t, -2, jitcall.I32x2(mul, -1, 2))
}

func TestForLoop(t *testing.T) {
	e := jitProgram(t, `
		fn test(end: i32) -> i32 {
			let accum: i64 = 0;
			for (let i = 0; i < end; i = i + 1) {
				accum = accum + i;
			}
			return accum;
		}
	`)
	test := fnAddr(t, e, "test")

	for n, want := range []int32{0, 0, 1, 3, 6, 10, 15} {
		require.EqualValues(t, want, jitcall.I32x1(test, int32(n)), "test(%d)", n)
	}
}

// The loop scope covers init: an outer variable assigned in the header keeps
// working too.
func TestForLoopExternalVariable(t *testing.T) {
	e := jitProgram(t, `
		fn test(end: i32) -> i32 {
			let accum: i64 = 0;
			let i = 100;
			for (i = 0; i < end; i = i + 1) {
				accum = accum + i;
			}
			return accum;
		}
	`)
	test := fnAddr(t, e, "test")
	require.EqualValues(t, 15, jitcall.I32x1(test, 6))
	require.EqualValues(t, 0, jitcall.I32x1(test, 0))
}

func TestWhileLoop(t *testing.T) {
	e := jitProgram(t, `
		fn test(end: i32) -> i32 {
			let accum: i64 = 0;
			let i: i8 = 0;
			while (i < end) {
				accum = accum + i;
				i = i + 1;
			}
			return accum;
		}
	`)
	test := fnAddr(t, e, "test")
	require.EqualValues(t, 15, jitcall.I32x1(test, 6))
}

// An i8 counter incremented 256 times wraps back to zero.
func TestIntegerWraparound(t *testing.T) {
	e := jitProgram(t, `
		fn test() -> i32 {
			let overflowed: i8 = 0;
			for (let normal = 0; normal < 256; normal = normal + 1) {
				overflowed = overflowed + 1;
			}
			return overflowed;
		}
	`)
	require.EqualValues(t, 0, jitcall.I32(fnAddr(t, e, "test")))
}

func TestVoidFunctions(t *testing.T) {
	e := jitProgram(t, `
		fn nothing() -> void {
			return;
		}

		fn nothing_empty() -> void {}

		fn test() -> i32 {
			nothing();
			nothing_empty();
			return 0;
		}
	`)
	require.EqualValues(t, 0, jitcall.I32(fnAddr(t, e, "test")))
}

// Statements after a return lower into dead blocks without breaking the
// module.
func TestCodeAfterReturn(t *testing.T) {
	e := jitProgram(t, `
		fn test() -> i32 {
			return 0;
			return 1;
			return 2;
			return 3;
		}
	`)
	require.EqualValues(t, 0, jitcall.I32(fnAddr(t, e, "test")))
}

// A let under a branch must not break the entry block's SSA numbering: its
// alloca is hoisted, its store is not.
func TestAllocaUnderBranch(t *testing.T) {
	e := jitProgram(t, `
		fn test() -> i32 {
			let x = 1;
			if (x) {
				let x = 0;
			}
			return x;
		}
	`)
	require.EqualValues(t, 1, jitcall.I32(fnAddr(t, e, "test")))
}

func TestStructFields(t *testing.T) {
	e := jitProgram(t, `
		struct W { value: i64 }

		fn f(a: i32, b: i32) -> i32 {
			let x = W {};
			let y = W {};
			x.value = a;
			y.value = b;
			if (x.value > y.value) {
				return x.value;
			} else {
				return y.value;
			}
		}
	`)
	f := fnAddr(t, e, "f")
	require.EqualValues(t, 2, jitcall.I32x2(f, 1, 2))
	require.EqualValues(t, -1, jitcall.I32x2(f, -1, -2))
}

// Struct values pass between compiled functions; the host only ever sees
// scalars.
func TestStructArguments(t *testing.T) {
	e := jitProgram(t, `
		struct WrappedInt {
			value: i64
		}

		fn max_wrapped(a: WrappedInt, b: WrappedInt) -> i32 {
			if (a.value > b.value) {
				return a.value;
			} else {
				return b.value;
			}
		}

		fn max(a_in: i32, b_in: i32) -> i32 {
			let a: WrappedInt = WrappedInt {};
			let b = WrappedInt {};

			a.value = a_in;
			b.value = b_in;

			return max_wrapped(a, b);
		}
	`)
	max := fnAddr(t, e, "max")
	require.EqualValues(t, 2, jitcall.I32x2(max, 1, 2))
	require.EqualValues(t, -1, jitcall.I32x2(max, -1, -2))
}

func TestNestedStructPaths(t *testing.T) {
	e := jitProgram(t, `
		struct Inner { value: i64 }
		struct Outer { pad: i8, inner: Inner }

		fn test(x: i32) -> i32 {
			let o = Outer {};
			o.inner.value = x;
			return o.inner.value + o.pad;
		}
	`)
	test := fnAddr(t, e, "test")
	require.EqualValues(t, 41, jitcall.I32x1(test, 41))
}

func TestTypeCoercion(t *testing.T) {
	e := jitProgram(t, `
		fn test(a: i32) -> i32 {
			let wide: i64 = a;
			let narrow: i8 = wide + 1;
			let f: f64 = narrow;
			return f * 2.0;
		}
	`)
	test := fnAddr(t, e, "test")
	require.EqualValues(t, 4, jitcall.I32x1(test, 1))
	require.EqualValues(t, 0, jitcall.I32x1(test, -1))
}

func TestNotAndCompare(t *testing.T) {
	e := jitProgram(t, `
		fn test(a: i32) -> i32 {
			if (!(a != 0)) {
				return 100;
			}
			return a;
		}
	`)
	test := fnAddr(t, e, "test")
	require.EqualValues(t, 100, jitcall.I32x1(test, 0))
	require.EqualValues(t, 7, jitcall.I32x1(test, 7))
}

// ---------------------------------
// ----- Compilation failures ------
// ---------------------------------

func TestMainSignatureErrors(t *testing.T) {
	compileError(t, "fn main(a: i8) -> void {}", "incorrect arguments for main function")
	compileError(t, "fn main() -> i64 {}", "incorrect return type for main function")
}

func TestSignatureMismatch(t *testing.T) {
	compileError(t, `
		fn foo(a: i8) -> i32;
		fn foo(a: i32) -> i32;
	`, "mismatched argument types for fn foo")
}

func TestDuplicateImplementation(t *testing.T) {
	compileError(t, `
		fn foo(a: i8) -> i32 { return a; }
		fn foo(a: i8) -> i32 { return a; }
	`, "duplicate implementation of function foo")
}

func TestStructRedefinition(t *testing.T) {
	compileError(t, `
		struct A {}
		struct A {}
	`, "redefinition of type A")
}

func TestStructForwardReference(t *testing.T) {
	compileError(t, `
		struct B { a: A }
		struct A { a: i64 }

		fn test() -> i32 {
			let b = B {};
			b.a.a = 1;
			return b.a.a;
		}
	`, "unknown type A in definition of B")
}

func TestUnknownNames(t *testing.T) {
	compileError(t, "fn f() -> i32 { return x; }", "unknown variable x")
	compileError(t, "fn f() -> i32 { return g(); }", "unknown function g")
	compileError(t, "fn f() { let x: nope = 1; }", "unknown type nope")
	compileError(t, `
		struct W { value: i64 }
		fn f() -> i64 { let w = W {}; return w.nope; }
	`, "unknown field nope in type W")
	compileError(t, "fn f(a: i64) -> i64 { return a.nope; }", "type i64 has no fields")
}

func TestArithmeticTypeErrors(t *testing.T) {
	compileError(t, `
		struct S { a: i64 }
		fn f() -> i64 { let s = S {}; return s + 1; }
	`, "type error")
	compileError(t, `
		fn v() {}
		fn f() -> i64 { return v() + 1; }
	`, "type error")
}

func TestJITSymbolErrors(t *testing.T) {
	e := jitProgram(t, "fn f() -> i32 { return 0; }")

	err := e.AddExternal("nope", jitcall.IdentityAddr())
	require.ErrorContains(t, err, "missing import nope")

	_, err = e.FunctionAddress("nope")
	require.ErrorContains(t, err, "missing function nope")
}

// ---------------------------------
// ----- IR-level invariants -------
// ---------------------------------

// All allocas of a function body land in the entry block ahead of its
// terminator, and comparisons produce 1-bit values consumed by conditional
// branches.
func TestEntryBlockDiscipline(t *testing.T) {
	cg := compileProgram(t, `
		fn test(n: i32) -> i32 {
			let a = 1;
			if (n > 0) {
				let b = 2;
				return b;
			}
			return a;
		}
	`)
	defer cg.Dispose()
	text := cg.IR()

	firstBranch := strings.Index(text, "br ")
	require.Greater(t, firstBranch, 0, text)
	lastAlloca := strings.LastIndex(text, "alloca")
	require.Greater(t, lastAlloca, 0, text)
	require.Less(t, lastAlloca, firstBranch, "alloca after branch:\n%s", text)

	// n, a and b all live in stack slots.
	require.Equal(t, 3, strings.Count(text, "alloca"), text)

	require.Contains(t, text, "icmp sgt")
	require.Contains(t, text, "br i1")
}

// Every call in the module references a function that exists in the module.
func TestCallsResolveWithinModule(t *testing.T) {
	cg := compileProgram(t, `
		fn helper(a: i32) -> i32 { return a; }
		fn test(a: i32) -> i32 { return helper(a) + helper(a); }
	`)
	defer cg.Dispose()
	require.Contains(t, cg.IR(), "call i32 @helper")
	require.NoError(t, cg.Verify())
}
