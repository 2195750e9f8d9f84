// Package nyastd is the host side of the NyaC runtime: the helper functions
// JIT-compiled programs may call. Each helper is exported with a C ABI so the
// execution engine can bind the generated declarations to real addresses.
package nyastd

/*
extern void print_int(long long x);
extern long long read_int(void);

static void *nyastd_print_int_addr(void) { return (void *)print_int; }
static void *nyastd_read_int_addr(void) { return (void *)read_int; }
*/
import "C"

import "unsafe"

// Funcs returns the runtime symbol table: function name to host address.
// The JIT driver binds every entry the compiled module declares.
func Funcs() map[string]unsafe.Pointer {
	return map[string]unsafe.Pointer{
		"print_int": C.nyastd_print_int_addr(),
		"read_int":  C.nyastd_read_int_addr(),
	}
}
