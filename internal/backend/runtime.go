package backend

import "tinygo.org/x/go-llvm"

// DeclareBoundsCheck declares the bounds_check(index, length) runtime
// helper external to module, without emitting a body or wiring any call
// site to it. Slice codegen that would call it is not implemented; this
// reserves the symbol so that future slice support has a stable name to
// target.
func DeclareBoundsCheck(ctx llvm.Context, module llvm.Module) llvm.Value {
	if fn := module.NamedFunction("bounds_check"); !fn.IsNil() {
		return fn
	}
	i64 := ctx.Int64Type()
	fnType := llvm.FunctionType(ctx.VoidType(), []llvm.Type{i64, i64}, false)
	return llvm.AddFunction(module, "bounds_check", fnType)
}
