// Package buildutil reads the arguments of Starlark calls parsed with
// buildtools.
package buildutil

import (
	"github.com/bazelbuild/buildtools/build"
)

// FuncName returns the callee of a simple call such as artifact(...), or ""
// for method calls like foo.bar().
func FuncName(call *build.CallExpr) string {
	if ident, ok := call.X.(*build.Ident); ok {
		return ident.Name
	}
	return ""
}

// Arg returns the expression bound to a keyword argument.
func Arg(call *build.CallExpr, name string) (build.Expr, bool) {
	for _, arg := range call.List {
		assign, ok := arg.(*build.AssignExpr)
		if !ok {
			continue
		}
		if lhs, ok := assign.LHS.(*build.Ident); ok && lhs.Name == name {
			return assign.RHS, true
		}
	}
	return nil, false
}

// Positional returns the positional arguments in order.
func Positional(call *build.CallExpr) []build.Expr {
	var out []build.Expr
	for _, arg := range call.List {
		if _, ok := arg.(*build.AssignExpr); !ok {
			out = append(out, arg)
		}
	}
	return out
}

// Keywords returns the names of the keyword arguments in order.
func Keywords(call *build.CallExpr) []string {
	var out []string
	for _, arg := range call.List {
		if assign, ok := arg.(*build.AssignExpr); ok {
			if lhs, ok := assign.LHS.(*build.Ident); ok {
				out = append(out, lhs.Name)
			}
		}
	}
	return out
}

// String returns the string value of expr.
func String(expr build.Expr) (string, bool) {
	if str, ok := expr.(*build.StringExpr); ok {
		return str.Value, true
	}
	return "", false
}

// Bool returns the value of a True or False literal.
func Bool(expr build.Expr) (bool, bool) {
	ident, ok := expr.(*build.Ident)
	if !ok {
		return false, false
	}
	switch ident.Name {
	case "True":
		return true, true
	case "False":
		return false, true
	}
	return false, false
}

// StringList returns the elements of a list of string literals. ok is false
// if expr is not a list or holds anything but strings.
func StringList(expr build.Expr) ([]string, bool) {
	list, ok := expr.(*build.ListExpr)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(list.List))
	for _, elem := range list.List {
		s, ok := String(elem)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// Position returns the 1-based line and column where expr starts.
func Position(expr build.Expr) (line, col int) {
	start, _ := expr.Span()
	return start.Line, start.LineRune
}
