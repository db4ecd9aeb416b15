package manifest

import (
	"fmt"
	"io"

	"github.com/bazelbuild/buildtools/build"

	"github.com/albertocavalcante/go-jpm/coordinate"
	"github.com/albertocavalcante/go-jpm/internal/buildutil"
)

func posOf(expr build.Expr) Position {
	line, col := buildutil.Position(expr)
	return Position{Line: line, Column: col}
}

func parseStarlark(filename string, data []byte) (*Manifest, error) {
	f, err := build.ParseDefault(filename, data)
	if err != nil {
		return nil, &ParseError{File: filename, Msg: "invalid starlark", Err: err}
	}

	m := &Manifest{}
	seenSet := false
	for _, stmt := range f.Stmt {
		if _, ok := stmt.(*build.CommentBlock); ok {
			continue
		}
		call, ok := stmt.(*build.CallExpr)
		if !ok {
			return nil, &ParseError{File: filename, Pos: posOf(stmt), Msg: "only install_set() and artifact() calls are allowed"}
		}
		switch name := buildutil.FuncName(call); name {
		case "install_set":
			if seenSet {
				return nil, &ParseError{File: filename, Pos: posOf(call), Msg: "install_set() declared twice"}
			}
			seenSet = true
			if err := readInstallSet(m, call); err != nil {
				return nil, &ParseError{File: filename, Pos: posOf(call), Msg: "install_set()", Err: err}
			}
		case "artifact":
			a, err := readArtifact(call)
			if err != nil {
				return nil, &ParseError{File: filename, Pos: posOf(call), Msg: "artifact()", Err: err}
			}
			m.Artifacts = append(m.Artifacts, a)
		default:
			return nil, &ParseError{File: filename, Pos: posOf(call), Msg: fmt.Sprintf("unknown function %q", name)}
		}
	}
	return m, nil
}

func readInstallSet(m *Manifest, call *build.CallExpr) error {
	for _, kw := range buildutil.Keywords(call) {
		if kw != "name" && kw != "description" && kw != "artifacts" {
			return fmt.Errorf("unknown argument %q", kw)
		}
	}
	if len(buildutil.Positional(call)) > 0 {
		return fmt.Errorf("positional arguments are not allowed")
	}
	if expr, ok := buildutil.Arg(call, "name"); ok {
		name, ok := buildutil.String(expr)
		if !ok {
			return fmt.Errorf("name must be a string")
		}
		m.Name = name
	}
	if expr, ok := buildutil.Arg(call, "description"); ok {
		desc, ok := buildutil.String(expr)
		if !ok {
			return fmt.Errorf("description must be a string")
		}
		m.Description = desc
	}
	if expr, ok := buildutil.Arg(call, "artifacts"); ok {
		coords, ok := buildutil.StringList(expr)
		if !ok {
			return fmt.Errorf("artifacts must be a list of strings")
		}
		for _, text := range coords {
			c, err := coordinate.Parse(text)
			if err != nil {
				return err
			}
			m.Artifacts = append(m.Artifacts, Artifact{Coordinate: c, Pos: posOf(expr)})
		}
	}
	return nil
}

func readArtifact(call *build.CallExpr) (Artifact, error) {
	a := Artifact{Pos: posOf(call)}
	for _, kw := range buildutil.Keywords(call) {
		if kw != "coordinate" && kw != "optional" {
			return a, fmt.Errorf("unknown argument %q", kw)
		}
	}

	positional := buildutil.Positional(call)
	named, hasNamed := buildutil.Arg(call, "coordinate")
	var expr build.Expr
	switch {
	case len(positional) > 1:
		return a, fmt.Errorf("takes one positional argument, got %d", len(positional))
	case len(positional) == 1 && hasNamed:
		return a, fmt.Errorf("coordinate given twice")
	case len(positional) == 1:
		expr = positional[0]
	case hasNamed:
		expr = named
	default:
		return a, fmt.Errorf("missing coordinate")
	}
	text, ok := buildutil.String(expr)
	if !ok {
		return a, fmt.Errorf("coordinate must be a string")
	}
	c, err := coordinate.Parse(text)
	if err != nil {
		return a, err
	}
	a.Coordinate = c

	if expr, ok := buildutil.Arg(call, "optional"); ok {
		optional, ok := buildutil.Bool(expr)
		if !ok {
			return a, fmt.Errorf("optional must be True or False")
		}
		a.Optional = optional
	}
	return a, nil
}

func ident(name string) *build.Ident {
	return &build.Ident{Name: name}
}

func kwarg(name string, value build.Expr) *build.AssignExpr {
	return &build.AssignExpr{LHS: ident(name), Op: "=", RHS: value}
}

func writeStarlark(w io.Writer, m *Manifest) error {
	set := &build.CallExpr{X: ident("install_set"), List: []build.Expr{kwarg("name", &build.StringExpr{Value: m.Name})}}
	if m.Description != "" {
		set.List = append(set.List, kwarg("description", &build.StringExpr{Value: m.Description}))
	}
	f := &build.File{Type: build.TypeDefault, Stmt: []build.Expr{set}}
	for _, a := range m.Artifacts {
		call := &build.CallExpr{X: ident("artifact"), List: []build.Expr{&build.StringExpr{Value: a.Coordinate.String()}}}
		if a.Optional {
			call.List = append(call.List, kwarg("optional", ident("True")))
		}
		f.Stmt = append(f.Stmt, call)
	}
	_, err := w.Write(build.Format(f))
	return err
}
