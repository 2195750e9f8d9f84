package llvm

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"github.com/foxidokun/nyacc-go/src/ir"
)

// cast produces an IR value of type to from a value of type from. It is the
// identity when the types are equal. Callers must have ruled out Void and
// Custom operands; a cast involving either is a compiler bug.
func (cg *CodegenContext) cast(from, to *ir.Type, v llvm.Value) llvm.Value {
	if from.Equal(to) {
		return v
	}
	switch {
	case from.Kind == ir.Int && to.Kind == ir.Int:
		return cg.builder.CreateIntCast(v, cg.llvmType(to), "")
	case from.Kind == ir.Float && to.Kind == ir.Float:
		return cg.builder.CreateFPCast(v, cg.llvmType(to), "")
	case from.Kind == ir.Int && to.Kind == ir.Float:
		return cg.builder.CreateSIToFP(v, cg.llvmType(to), "")
	case from.Kind == ir.Float && to.Kind == ir.Int:
		return cg.builder.CreateFPToSI(v, cg.llvmType(to), "")
	}
	panic(fmt.Sprintf("cast from %s to %s", from, to))
}

// coerce is the checked front door of cast: equal types pass through, any
// non-arithmetic mismatch is a type error.
func (cg *CodegenContext) coerce(v TypedValue, to *ir.Type) (llvm.Value, error) {
	if v.Type.Equal(to) {
		return v.Value, nil
	}
	if !v.Type.Arithmetic() || !to.Arithmetic() {
		return llvm.Value{}, fmt.Errorf("type error: cannot coerce %s to %s", v.Type, to)
	}
	return cg.cast(v.Type, to, v.Value), nil
}

// toBool coerces a value to the 1-bit bool type.
func (cg *CodegenContext) toBool(v TypedValue) (TypedValue, error) {
	boolTy, _ := cg.defs.Type("bool")
	val, err := cg.coerce(v, boolTy)
	if err != nil {
		return TypedValue{}, err
	}
	return TypedValue{Value: val, Type: boolTy}, nil
}
