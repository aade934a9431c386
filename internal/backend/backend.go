// Package backend implements the three IR-consuming operations treated
// as an external collaborator by the front end: printing, object
// emission, and JIT execution, against a real LLVM binding.
package backend

import (
	"sync"

	"tinygo.org/x/go-llvm"

	"github.com/voidlang/voidc/internal/diagnostics"
)

var nativeTargetOnce sync.Once

// initNativeTarget performs LLVM's one-time native-target initialization.
// It is idempotent and must run before the first JIT or object emission.
func initNativeTarget() {
	nativeTargetOnce.Do(func() {
		llvm.InitializeNativeTarget()
		llvm.InitializeNativeAsmPrinter()
		llvm.InitializeNativeAsmParser()
	})
}

// PrintIR renders module as stable LLVM assembly text. It borrows the
// module read-only.
func PrintIR(module llvm.Module) string {
	return module.String()
}

// EmitObject writes module as a relocatable object file at path.
// It sets the module's target triple and data layout to the native
// target's; callers may still use the module afterward.
func EmitObject(module llvm.Module, path string) error {
	initNativeTarget()

	triple := llvm.DefaultTargetTriple()
	target, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		return diagnostics.New(diagnostics.Backend, 0, 0, "resolve target triple %q: %v", triple, err)
	}
	machine := target.CreateTargetMachine(triple, "generic", "",
		llvm.CodeGenLevelDefault, llvm.RelocDefault, llvm.CodeModelDefault)
	defer machine.Dispose()

	module.SetTarget(triple)
	module.SetDataLayout(machine.CreateTargetData().String())

	if err := machine.EmitToFile(module, path, llvm.ObjectFile); err != nil {
		return diagnostics.New(diagnostics.Backend, 0, 0, "emit object file %q: %v", path, err)
	}
	return nil
}

// JITRun builds an execution engine over module, locates "main", and
// runs it with no arguments, returning its i32 result as a signed int.
//
// The engine takes ownership of module: disposing the engine disposes
// the module, so callers must not use module again after JITRun
// returns, success or not.
func JITRun(module llvm.Module) (int32, error) {
	initNativeTarget()

	engine, err := llvm.NewExecutionEngine(module)
	if err != nil {
		return 0, diagnostics.New(diagnostics.Backend, 0, 0, "create execution engine: %v", err)
	}
	defer engine.Dispose()

	mainFn := module.NamedFunction("main")
	if mainFn.IsNil() {
		return 0, diagnostics.New(diagnostics.Backend, 0, 0, "no 'main' function in module")
	}

	result := engine.RunFunction(mainFn, nil)
	return int32(result.Int(true)), nil
}
