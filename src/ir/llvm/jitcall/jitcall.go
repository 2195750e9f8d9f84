// Package jitcall bridges raw JIT-compiled function addresses into callable
// Go code. Go cannot reinterpret an address as a function value, so each
// supported call shape gets a C trampoline. The shapes cover the i32-based
// signatures the compiler's own test programs use; host/JIT struct passing is
// deliberately absent because the generated struct ABI is not repr(C).
package jitcall

/*
typedef int (*nyacc_fn0)(void);
typedef int (*nyacc_fn1)(int);
typedef int (*nyacc_fn2)(int, int);

static int nyacc_call0(void *fn) { return ((nyacc_fn0)fn)(); }
static int nyacc_call1(void *fn, int a) { return ((nyacc_fn1)fn)(a); }
static int nyacc_call2(void *fn, int a, int b) { return ((nyacc_fn2)fn)(a, b); }

static int nyacc_identity(int a) { return a; }
static void *nyacc_identity_addr(void) { return (void *)nyacc_identity; }
*/
import "C"

import "unsafe"

// I32 calls an `i32 ()` function at addr.
func I32(addr unsafe.Pointer) int32 {
	return int32(C.nyacc_call0(addr))
}

// I32x1 calls an `i32 (i32)` function at addr.
func I32x1(addr unsafe.Pointer, a int32) int32 {
	return int32(C.nyacc_call1(addr, C.int(a)))
}

// I32x2 calls an `i32 (i32, i32)` function at addr.
func I32x2(addr unsafe.Pointer, a, b int32) int32 {
	return int32(C.nyacc_call2(addr, C.int(a), C.int(b)))
}

// IdentityAddr returns the address of a host-side `i32 (i32)` identity
// function, used to exercise external symbol binding.
func IdentityAddr() unsafe.Pointer {
	return C.nyacc_identity_addr()
}
