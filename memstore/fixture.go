package memstore

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/albertocavalcante/go-jpm/library"
)

// Fixture is the YAML form of a repository:
//
//	revisions:
//	  - id: 0123456789abcdef0123456789abcdef01234567
//	    groupId: org.foo
//	    artifactId: bar
//	    baseline: 1.2.3
//	    phase: MASTER
//	closures:
//	  0123456789abcdef0123456789abcdef01234567:
//	    required: [89abcdef0123456789abcdef0123456789abcdef]
type Fixture struct {
	Revisions []*library.Revision     `yaml:"revisions"`
	Closures  map[string]ClosureEntry `yaml:"closures,omitempty"`
}

// ClosureEntry lists the required and optional members of a closure.
type ClosureEntry struct {
	Required []library.Digest `yaml:"required,omitempty"`
	Optional []library.Digest `yaml:"optional,omitempty"`
}

// LoadYAML reads a fixture from r into s.
func (s *Store) LoadYAML(ctx context.Context, r io.Reader) error {
	var fx Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && err != io.EOF {
		return fmt.Errorf("decode repository fixture: %w", err)
	}
	for i, rev := range fx.Revisions {
		if err := s.Put(ctx, rev); err != nil {
			return fmt.Errorf("revision %d: %w", i, err)
		}
	}
	for hexID, entry := range fx.Closures {
		id, err := library.ParseDigest(hexID)
		if err != nil {
			return fmt.Errorf("closure: %w", err)
		}
		s.SetClosure(id, entry.Required, entry.Optional)
	}
	return nil
}

// LoadYAMLFile reads a fixture file into a new store.
func LoadYAMLFile(ctx context.Context, path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s := New()
	if err := s.LoadYAML(ctx, f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// DumpYAML writes the stored revisions as a fixture.
func (s *Store) DumpYAML(ctx context.Context, w io.Writer) error {
	var fx Fixture
	if _, err := s.FindRevision().Each(ctx, func(r *library.Revision) bool {
		fx.Revisions = append(fx.Revisions, r)
		return true
	}); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(fx); err != nil {
		return err
	}
	return enc.Close()
}
