// Package manifest reads and writes install manifests: a named list of
// coordinates to resolve together.
//
// Three syntaxes are accepted, chosen by file name:
//
//	# JPM.bazel, *.jpm, *.star
//	install_set(name = "tools", artifacts = ["org.foo:qux"])
//	artifact("org.foo:bar@1.2")
//	artifact(coordinate = "org.foo:baz@2*", optional = True)
//
//	# *.toml
//	name = "tools"
//	[[artifact]]
//	coordinate = "org.foo:bar@1.2"
//
//	# *.yaml, *.yml
//	name: tools
//	artifact:
//	  - coordinate: org.foo:bar@1.2
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/albertocavalcante/go-jpm/coordinate"
	"github.com/albertocavalcante/go-jpm/patterns"
)

// Format is a manifest syntax.
type Format int

const (
	Starlark Format = iota
	TOML
	YAML
)

func (f Format) String() string {
	switch f {
	case Starlark:
		return "starlark"
	case TOML:
		return "toml"
	case YAML:
		return "yaml"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

var (
	// ErrUnknownFormat is returned for file names no syntax claims.
	ErrUnknownFormat = errors.New("unknown manifest format")

	// ErrInvalid is returned for manifests that parse but make no sense.
	ErrInvalid = errors.New("invalid manifest")
)

// Position is a 1-based location in a manifest file. The zero Position
// means unknown.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether p is known.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// ParseError locates a manifest error.
type ParseError struct {
	File string
	Pos  Position
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.File)
	if e.Pos.IsValid() {
		sb.WriteByte(':')
		sb.WriteString(e.Pos.String())
	}
	sb.WriteString(": ")
	sb.WriteString(e.Msg)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Artifact is one requested coordinate.
type Artifact struct {
	Coordinate coordinate.Coordinate `toml:"coordinate" yaml:"coordinate"`
	Optional   bool                  `toml:"optional,omitempty" yaml:"optional,omitempty"`

	// Pos is where the request appears, when the syntax records it.
	Pos Position `toml:"-" yaml:"-"`
}

// Manifest is a named list of requested coordinates.
type Manifest struct {
	Name        string     `toml:"name" yaml:"name"`
	Description string     `toml:"description,omitempty" yaml:"description,omitempty"`
	Artifacts   []Artifact `toml:"artifact" yaml:"artifact"`

	// Path is the file the manifest was read from, if any.
	Path string `toml:"-" yaml:"-"`
}

// FormatOf picks the syntax for a file name.
func FormatOf(path string) (Format, error) {
	base := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(base)) {
	case ".star", ".jpm", ".bazel":
		if filepath.Ext(base) == ".bazel" && base != "JPM.bazel" {
			break
		}
		return Starlark, nil
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, base)
}

// ParseFile reads and validates a manifest file.
func ParseFile(path string) (*Manifest, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(path, data, format)
	if err != nil {
		return nil, err
	}
	m.Path = path
	return m, nil
}

// Parse parses and validates manifest content. filename only labels errors.
func Parse(filename string, data []byte, format Format) (*Manifest, error) {
	var (
		m   *Manifest
		err error
	)
	switch format {
	case Starlark:
		m, err = parseStarlark(filename, data)
	case TOML:
		m, err = parseTOML(filename, data)
	case YAML:
		m, err = parseYAML(filename, data)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}
	if err := m.validate(filename); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) validate(filename string) error {
	if !patterns.QualifiedNameRegexp.MatchString(m.Name) {
		return &ParseError{File: filename, Msg: fmt.Sprintf("bad install set name %q", m.Name), Err: ErrInvalid}
	}
	if len(m.Artifacts) == 0 {
		return &ParseError{File: filename, Msg: "no artifacts", Err: ErrInvalid}
	}
	seen := make(map[string]Position, len(m.Artifacts))
	for i, a := range m.Artifacts {
		if a.Coordinate.IsZero() {
			return &ParseError{File: filename, Pos: a.Pos, Msg: fmt.Sprintf("artifact %d has no coordinate", i+1), Err: ErrInvalid}
		}
		text := a.Coordinate.String()
		if prev, dup := seen[text]; dup {
			msg := fmt.Sprintf("duplicate artifact %s", text)
			if prev.IsValid() {
				msg += " (first at " + prev.String() + ")"
			}
			return &ParseError{File: filename, Pos: a.Pos, Msg: msg, Err: ErrInvalid}
		}
		seen[text] = a.Pos
	}
	return nil
}

// Coordinates returns the requested coordinates in order.
func (m *Manifest) Coordinates() []coordinate.Coordinate {
	out := make([]coordinate.Coordinate, len(m.Artifacts))
	for i, a := range m.Artifacts {
		out[i] = a.Coordinate
	}
	return out
}
