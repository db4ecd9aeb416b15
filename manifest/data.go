package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

func parseTOML(filename string, data []byte) (*Manifest, error) {
	var m Manifest
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		pe := &ParseError{File: filename, Msg: "invalid toml", Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			pe.Pos = Position{Line: row, Column: col}
		}
		return nil, pe
	}
	return &m, nil
}

func parseYAML(filename string, data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ParseError{File: filename, Msg: "invalid yaml", Err: err}
	}
	return &m, nil
}

// Write encodes m in the given syntax.
func Write(w io.Writer, m *Manifest, format Format) error {
	switch format {
	case Starlark:
		return writeStarlark(w, m)
	case TOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		return enc.Encode(m)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: %v", ErrUnknownFormat, format)
}
