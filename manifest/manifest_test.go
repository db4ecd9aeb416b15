package manifest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/albertocavalcante/go-jpm/coordinate"
)

const starlarkManifest = `# tools we ship
install_set(
    name = "tools",
    description = "command line tools",
)

artifact("org.foo:bar@1.2")
artifact(coordinate = "org.foo:baz@2*", optional = True)
`

const tomlManifest = `name = "tools"
description = "command line tools"

[[artifact]]
coordinate = "org.foo:bar@1.2"

[[artifact]]
coordinate = "org.foo:baz@2*"
optional = true
`

const yamlManifest = `name: tools
description: command line tools
artifact:
  - coordinate: org.foo:bar@1.2
  - coordinate: org.foo:baz@2*
    optional: true
`

func checkTools(t *testing.T, m *Manifest) {
	t.Helper()
	if m.Name != "tools" || m.Description != "command line tools" {
		t.Errorf("header = %q, %q", m.Name, m.Description)
	}
	if len(m.Artifacts) != 2 {
		t.Fatalf("len(Artifacts) = %d, want 2", len(m.Artifacts))
	}
	if got := m.Artifacts[0].Coordinate.String(); got != "org.foo:bar@1.2" {
		t.Errorf("Artifacts[0] = %q", got)
	}
	if m.Artifacts[0].Optional {
		t.Error("Artifacts[0] should not be optional")
	}
	if got := m.Artifacts[1].Coordinate.String(); got != "org.foo:baz@2*" {
		t.Errorf("Artifacts[1] = %q", got)
	}
	if !m.Artifacts[1].Optional {
		t.Error("Artifacts[1] should be optional")
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{"starlark", Starlark, starlarkManifest},
		{"toml", TOML, tomlManifest},
		{"yaml", YAML, yamlManifest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse("JPM."+tt.name, []byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			checkTools(t, m)
		})
	}
}

func TestParseStarlarkPositions(t *testing.T) {
	m, err := Parse("JPM.bazel", []byte(starlarkManifest), Starlark)
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Artifacts[0].Pos; got.Line != 7 || got.Column != 1 {
		t.Errorf("Artifacts[0].Pos = %v, want 7:1", got)
	}
	if got := m.Artifacts[1].Pos.Line; got != 8 {
		t.Errorf("Artifacts[1].Pos.Line = %d, want 8", got)
	}
}

func TestParseStarlarkArtifactList(t *testing.T) {
	src := `install_set(name = "tools", artifacts = ["org.foo:bar", "org.foo:baz@1"])
artifact("org.foo:qux")
`
	m, err := Parse("JPM.bazel", []byte(src), Starlark)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, c := range m.Coordinates() {
		got = append(got, c.String())
	}
	if strings.Join(got, ",") != "org.foo:bar,org.foo:baz@1,org.foo:qux" {
		t.Errorf("Coordinates() = %v", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		data    string
		invalid bool
		line    int
	}{
		{"unknown function", Starlark, "install_set(name = \"x\")\nmaven_install()\n", false, 2},
		{"set twice", Starlark, "install_set(name = \"x\")\ninstall_set(name = \"y\")\n", false, 2},
		{"assignment", Starlark, "x = 1\n", false, 1},
		{"bad coordinate", Starlark, "install_set(name = \"x\")\nartifact(\"::\")\n", false, 2},
		{"coordinate twice", Starlark, "install_set(name = \"x\")\nartifact(\"a\", coordinate = \"b\")\n", false, 2},
		{"bad optional", Starlark, "install_set(name = \"x\")\nartifact(\"a\", optional = \"yes\")\n", false, 2},
		{"unknown argument", Starlark, "install_set(name = \"x\")\nartifact(\"a\", version = \"1\")\n", false, 2},
		{"syntax", Starlark, "artifact(\n", false, 0},
		{"no name", Starlark, "artifact(\"a\")\n", true, 0},
		{"no artifacts", Starlark, "install_set(name = \"x\")\n", true, 0},
		{"duplicate", Starlark, "install_set(name = \"x\")\nartifact(\"a\")\nartifact(\"a\")\n", true, 3},
		{"toml unknown field", TOML, "name = \"x\"\ncolor = \"red\"\n", false, 0},
		{"toml bad coordinate", TOML, "name = \"x\"\n[[artifact]]\ncoordinate = \"::\"\n", false, 0},
		{"yaml unknown field", YAML, "name: x\ncolor: red\n", false, 0},
		{"yaml empty", YAML, "", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("m", []byte(tt.data), tt.format)
			if err == nil {
				t.Fatal("Parse() should fail")
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse() error = %T %v, want *ParseError", err, err)
			}
			if got := errors.Is(err, ErrInvalid); got != tt.invalid {
				t.Errorf("errors.Is(ErrInvalid) = %v, want %v (%v)", got, tt.invalid, err)
			}
			if tt.line != 0 && pe.Pos.Line != tt.line {
				t.Errorf("error line = %d, want %d (%v)", pe.Pos.Line, tt.line, err)
			}
			if !strings.HasPrefix(err.Error(), "m") {
				t.Errorf("error %q should name the file", err)
			}
		})
	}
}

func TestParseTOMLErrorPosition(t *testing.T) {
	_, err := Parse("m.toml", []byte("name = \"x\"\nartifact = [\n"), TOML)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if !pe.Pos.IsValid() {
		t.Errorf("toml syntax error should carry a position: %v", err)
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want Format
		err  bool
	}{
		{"JPM.bazel", Starlark, false},
		{"dir/tools.jpm", Starlark, false},
		{"tools.star", Starlark, false},
		{"tools.toml", TOML, false},
		{"tools.yaml", YAML, false},
		{"tools.YML", YAML, false},
		{"BUILD.bazel", 0, true},
		{"tools.json", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatOf(tt.path)
			if tt.err {
				if !errors.Is(err, ErrUnknownFormat) {
					t.Errorf("FormatOf() error = %v, want ErrUnknownFormat", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("FormatOf() = %v, %v; want %v", got, err, tt.want)
			}
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	m := &Manifest{
		Name:        "tools",
		Description: "command line tools",
		Artifacts: []Artifact{
			{Coordinate: coordinate.MustParse("org.foo:bar@1.2")},
			{Coordinate: coordinate.MustParse("org.foo:baz@2*"), Optional: true},
		},
	}
	for _, format := range []Format{Starlark, TOML, YAML} {
		t.Run(format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, m, format); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			got, err := Parse("out", buf.Bytes(), format)
			if err != nil {
				t.Fatalf("Parse(Write()) error = %v\n%s", err, buf.String())
			}
			checkTools(t, got)
		})
	}
}

func TestWriteStarlarkText(t *testing.T) {
	m := &Manifest{
		Name:      "tools",
		Artifacts: []Artifact{{Coordinate: coordinate.MustParse("org.foo:bar"), Optional: true}},
	}
	var buf bytes.Buffer
	if err := Write(&buf, m, Starlark); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`install_set(name = "tools")`, `artifact("org.foo:bar", optional = True)`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tools.yaml")
	if err := os.WriteFile(path, []byte(yamlManifest), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	checkTools(t, m)
	if m.Path != path {
		t.Errorf("Path = %q, want %q", m.Path, path)
	}

	if _, err := ParseFile(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("ParseFile(missing) should fail")
	}
	if _, err := ParseFile(filepath.Join(dir, "tools.txt")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ParseFile(txt) error = %v, want ErrUnknownFormat", err)
	}
}
