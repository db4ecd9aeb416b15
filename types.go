package gojpm

import (
	"github.com/albertocavalcante/go-jpm/library"
	"github.com/albertocavalcante/go-jpm/revisions"
)

// InstallSet is the outcome of resolving several coordinates: one entry per
// requested coordinate plus the content addressed set of the chosen
// revisions.
type InstallSet struct {
	// Name is the manifest name, empty for ad hoc sets.
	Name string `json:"name,omitempty"`

	// Entries are in request order. Entries naming the same revision share
	// one member of Set.
	Entries []InstallEntry `json:"entries"`

	// Set identifies the chosen revisions.
	Set revisions.Set `json:"set"`

	// Skipped lists optional coordinates that matched nothing.
	Skipped []string `json:"skipped,omitempty"`
}

// InstallEntry pairs a requested coordinate with its revision.
type InstallEntry struct {
	// Coordinate is the requested text, verbatim.
	Coordinate string `json:"coordinate"`

	// Revision summarizes the chosen revision.
	Revision library.RevisionRef `json:"revision"`

	// Optional marks entries that came from an optional request.
	Optional bool `json:"optional,omitempty"`

	// Closure marks entries pulled in by a dependency closure rather than
	// requested directly.
	Closure bool `json:"closure,omitempty"`
}

// Len returns the number of entries.
func (s *InstallSet) Len() int {
	return len(s.Entries)
}

// Lookup returns the entry for a requested coordinate.
func (s *InstallSet) Lookup(coord string) (InstallEntry, bool) {
	for _, e := range s.Entries {
		if e.Coordinate == coord {
			return e, true
		}
	}
	return InstallEntry{}, false
}

func newInstallSet(name string, entries []InstallEntry, skipped []string) (*InstallSet, error) {
	refs := make([]library.RevisionRef, len(entries))
	for i, e := range entries {
		refs[i] = e.Revision
	}
	set, err := revisions.FromRefs(refs)
	if err != nil {
		return nil, err
	}
	return &InstallSet{Name: name, Entries: entries, Set: set, Skipped: skipped}, nil
}
