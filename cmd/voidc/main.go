package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"tinygo.org/x/go-llvm"

	"github.com/voidlang/voidc/internal/backend"
	"github.com/voidlang/voidc/internal/emitter"
	"github.com/voidlang/voidc/internal/lexer"
	"github.com/voidlang/voidc/internal/parser"
	"github.com/voidlang/voidc/internal/token"
)

const devSource = `import fmt

const main = fn() -> i32 {
  sum := 0
  loop i in 0..10 do sum = sum + i
  if sum > 40 do return sum
  return 0
}
`

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		if err := runDev(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	switch args[0] {
	case "build":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: voidc build <file>")
			os.Exit(1)
		}
		if err := runBuild(args[1]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case "tokenise":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: voidc tokenise <file>")
			os.Exit(1)
		}
		if err := runTokenise(args[1]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "usage: voidc [build <file> | tokenise <file>]\n")
		os.Exit(1)
	}
}

func runTokenise(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	lx := lexer.New(string(src))
	for {
		tok, err := lx.Next()
		if err != nil {
			return err
		}
		fmt.Printf("%-14s %q  line %d, col %d\n", tok.Kind, tok.Lexeme, tok.Line, tok.Column)
		if tok.Kind == token.EndOfFile {
			return nil
		}
	}
}

func runBuild(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	module, err := compile(string(src), filepath.Base(path))
	if err != nil {
		return err
	}
	objPath := path + ".o"
	if err := backend.EmitObject(module, objPath); err != nil {
		return err
	}
	defer os.Remove(objPath)
	if err := exec.Command("cc", objPath, "-o", "a.out").Run(); err != nil {
		return fmt.Errorf("link a.out: %w", err)
	}
	return nil
}

func runDev() error {
	module, err := compile(devSource, "dev")
	if err != nil {
		return err
	}
	result, err := backend.JITRun(module)
	if err != nil {
		return err
	}
	fmt.Printf("dev mode result: %d\n", result)
	return nil
}

func compile(src, moduleName string) (llvm.Module, error) {
	p, err := parser.New(src)
	if err != nil {
		return llvm.Module{}, err
	}
	prog, err := p.Parse()
	if err != nil {
		return llvm.Module{}, err
	}
	em := emitter.New(moduleName)
	if err := em.Emit(prog); err != nil {
		return llvm.Module{}, err
	}
	return em.Module(), nil
}
