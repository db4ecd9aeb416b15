package lockfile

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	gojpm "github.com/albertocavalcante/go-jpm"
	"github.com/albertocavalcante/go-jpm/coordinate"
	"github.com/albertocavalcante/go-jpm/library"
	"github.com/albertocavalcante/go-jpm/phase"
	"github.com/albertocavalcante/go-jpm/revisions"
)

// CurrentVersion is the lockfile format this package reads and writes.
const CurrentVersion = 1

var (
	// ErrVersion is returned for lockfiles of another format version.
	ErrVersion = errors.New("unsupported lockfile version")

	// ErrConflict is returned when a merge finds one coordinate locked to
	// two revisions.
	ErrConflict = errors.New("lockfile conflict")
)

// Entry is the locked outcome of one coordinate.
type Entry struct {
	Revision library.Digest `json:"revision"`
	Phase    phase.Phase    `json:"phase"`
	BSN      string         `json:"bsn,omitempty"`
}

// Lockfile maps requested coordinate text to locked revisions.
type Lockfile struct {
	Version int              `json:"version"`
	SetID   library.Digest   `json:"setId,omitempty"`
	Entries map[string]Entry `json:"entries"`
}

// New returns an empty lockfile at the current version.
func New() *Lockfile {
	return &Lockfile{
		Version: CurrentVersion,
		Entries: make(map[string]Entry),
	}
}

// FromInstallSet locks every entry of an install set.
func FromInstallSet(set *gojpm.InstallSet) (*Lockfile, error) {
	if set == nil {
		return nil, errors.New("lockfile: nil install set")
	}
	lf := New()
	for _, e := range set.Entries {
		lf.Entries[e.Coordinate] = Entry{
			Revision: slices.Clone(e.Revision.Revision),
			Phase:    e.Revision.Phase,
			BSN:      e.Revision.BSN,
		}
	}
	if err := lf.updateSetID(); err != nil {
		return nil, err
	}
	if !set.Set.IsZero() && !lf.SetID.Equal(set.Set.ID) {
		return nil, fmt.Errorf("lockfile set %s does not match install set %s: %w", lf.SetID, set.Set.ID, revisions.ErrMismatch)
	}
	return lf, nil
}

// Set sets the entry for a coordinate and refreshes the set id.
func (l *Lockfile) Set(coord string, e Entry) error {
	if !e.Revision.IsSHA1() {
		return fmt.Errorf("lock %s: revision %q: %w", coord, e.Revision, library.ErrInvalidRevision)
	}
	l.Entries[coord] = e
	return l.updateSetID()
}

// Lookup returns the entry for a coordinate.
func (l *Lockfile) Lookup(coord string) (Entry, bool) {
	e, ok := l.Entries[coord]
	return e, ok
}

// Coordinates returns the locked coordinate texts in sorted order.
func (l *Lockfile) Coordinates() []string {
	return slices.Sorted(maps.Keys(l.Entries))
}

// Pins returns a SHA coordinate for every entry, in Coordinates order.
// Resolving the pins reproduces the locked revisions.
func (l *Lockfile) Pins() ([]coordinate.Coordinate, error) {
	keys := l.Coordinates()
	out := make([]coordinate.Coordinate, 0, len(keys))
	for _, k := range keys {
		e := l.Entries[k]
		text := e.Revision.String()
		if e.Phase == phase.Withdrawn {
			text += "@" + string(phase.ModifierAll)
		}
		c, err := coordinate.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("pin %s: %w", k, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// RevisionSet returns the set of locked revisions.
func (l *Lockfile) RevisionSet() (revisions.Set, error) {
	ids := make([]library.Digest, 0, len(l.Entries))
	for _, e := range l.Entries {
		ids = append(ids, e.Revision)
	}
	return revisions.New(ids...)
}

func (l *Lockfile) updateSetID() error {
	if len(l.Entries) == 0 {
		l.SetID = nil
		return nil
	}
	set, err := l.RevisionSet()
	if err != nil {
		return err
	}
	l.SetID = set.ID
	return nil
}

// validate checks a parsed lockfile.
func (l *Lockfile) validate() error {
	if l.Version != CurrentVersion {
		return fmt.Errorf("%w %d, want %d", ErrVersion, l.Version, CurrentVersion)
	}
	for _, k := range l.Coordinates() {
		if _, err := coordinate.Parse(k); err != nil {
			return fmt.Errorf("entry %q: %w", k, err)
		}
		if !l.Entries[k].Revision.IsSHA1() {
			return fmt.Errorf("entry %q: revision %q: %w", k, l.Entries[k].Revision, library.ErrInvalidRevision)
		}
	}
	if len(l.Entries) == 0 {
		if len(l.SetID) != 0 {
			return fmt.Errorf("set id %s on an empty lockfile: %w", l.SetID, revisions.ErrMismatch)
		}
		return nil
	}
	set, err := l.RevisionSet()
	if err != nil {
		return err
	}
	if !set.ID.Equal(l.SetID) {
		return fmt.Errorf("set id %s, entries sum to %s: %w", l.SetID, set.ID, revisions.ErrMismatch)
	}
	return nil
}
