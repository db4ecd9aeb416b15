package lockfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
)

// DefaultName is the lockfile name next to a manifest.
const DefaultName = "JPM.lock"

// lockfilePermissions is the file mode for written lockfiles. They are meant
// to be committed, so everyone may read them.
const lockfilePermissions = 0o644

// ReadFile reads and parses a lockfile from the given path.
func ReadFile(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lockfile: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates lockfile JSON.
func Parse(data []byte) (*Lockfile, error) {
	var lf Lockfile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&lf); err != nil {
		return nil, fmt.Errorf("failed to parse lockfile JSON: %w", err)
	}
	if lf.Entries == nil {
		lf.Entries = make(map[string]Entry)
	}
	if err := lf.validate(); err != nil {
		return nil, fmt.Errorf("invalid lockfile: %w", err)
	}
	return &lf, nil
}

// WriteFile writes the lockfile to the given path with deterministic formatting.
func (l *Lockfile) WriteFile(path string) error {
	data, err := l.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, lockfilePermissions)
}

// WriteTo writes the lockfile to the given writer.
func (l *Lockfile) WriteTo(w io.Writer) (int64, error) {
	data, err := l.Marshal()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Marshal serializes the lockfile to indented JSON with sorted keys.
func (l *Lockfile) Marshal() ([]byte, error) {
	ordered := orderedLockfile{
		Version: l.Version,
		SetID:   l.SetID,
		Entries: orderedEntryMap{keys: slices.Sorted(maps.Keys(l.Entries)), values: l.Entries},
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(ordered); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// orderedLockfile fixes the top level key order.
type orderedLockfile struct {
	Version int
	SetID   []byte
	Entries orderedEntryMap
}

func (o orderedLockfile) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"version":`)
	fmt.Fprintf(&buf, "%d", o.Version)
	if len(o.SetID) > 0 {
		buf.WriteString(`,"setId":`)
		id, err := json.Marshal(fmt.Sprintf("%x", o.SetID))
		if err != nil {
			return nil, err
		}
		buf.Write(id)
	}
	buf.WriteString(`,"entries":`)
	entries, err := o.Entries.MarshalJSON()
	if err != nil {
		return nil, err
	}
	buf.Write(entries)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// orderedEntryMap marshals entries in key order.
type orderedEntryMap struct {
	keys   []string
	values map[string]Entry
}

func (o orderedEntryMap) MarshalJSON() ([]byte, error) {
	if len(o.keys) == 0 {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, _ := json.Marshal(k)
		valJSON, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Exists returns true if a lockfile exists at the given path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DefaultPath returns the lockfile path inside dir.
func DefaultPath(dir string) string {
	if dir == "" {
		return DefaultName
	}
	return filepath.Join(dir, DefaultName)
}

// PathFor returns the lockfile path for a manifest: JPM.lock in the same
// directory.
func PathFor(manifestPath string) string {
	return DefaultPath(filepath.Dir(manifestPath))
}
