// Package osexitmain defines an analyzer that reports direct process exits in main.main.
package osexitmain

import (
	"fmt"
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports os.Exit and syscall.Exit calls made directly in main.main. Deferred
// functions would not run after such a call, so shutdown hooks and log flushes are lost.
var Analyzer = &analysis.Analyzer{
	Name:     "osexitmain",
	Doc:      "reports direct os.Exit and syscall.Exit calls in main.main",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// exitFuncs lists the forbidden functions by package path.
var exitFuncs = map[string]string{
	"os":      "Exit",
	"syscall": "Exit",
}

func run(pass *analysis.Pass) (any, error) {
	if pass.Pkg == nil || pass.Pkg.Name() != "main" {
		return nil, nil
	}

	insp, ok := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	if !ok {
		return nil, fmt.Errorf("failed to assert type: expected *inspector.Inspector")
	}

	insp.Preorder([]ast.Node{(*ast.FuncDecl)(nil)}, func(n ast.Node) {
		fd, ok := n.(*ast.FuncDecl)
		if !ok || fd.Recv != nil || fd.Name == nil || fd.Name.Name != "main" || fd.Body == nil {
			return
		}

		ast.Inspect(fd.Body, func(nn ast.Node) bool {
			switch x := nn.(type) {
			case *ast.FuncLit:
				return false
			case *ast.CallExpr:
				if name, ok := exitCall(pass.TypesInfo, x); ok {
					pass.Reportf(x.Pos(), "direct %s call in main.main skips deferred cleanup; return an error from a run function instead", name)
				}
			}
			return true
		})
	})

	return nil, nil
}

// exitCall reports whether call targets one of exitFuncs and returns its qualified name.
func exitCall(info *types.Info, call *ast.CallExpr) (string, bool) {
	if info == nil || call == nil {
		return "", false
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel == nil {
		return "", false
	}
	fn, ok := info.Uses[sel.Sel].(*types.Func)
	if !ok || fn.Pkg() == nil {
		return "", false
	}
	path := fn.Pkg().Path()
	if want, found := exitFuncs[path]; !found || fn.Name() != want {
		return "", false
	}
	return path + "." + fn.Name(), true
}
