// Package memstore is an in-memory repository implementing the library
// ports. It backs tests, fixtures and the inspector CLI.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/albertocavalcante/go-jpm/library"
	"github.com/albertocavalcante/go-jpm/phase"
	"github.com/albertocavalcante/go-jpm/revisions"
)

// Compile-time interface compliance checks
var (
	_ library.RevisionStore   = (*Store)(nil)
	_ library.ProgramStore    = (*Store)(nil)
	_ library.ClosureProvider = (*Store)(nil)
	_ revisions.Store         = (*Store)(nil)
)

type closure struct {
	required []library.Digest
	optional []library.Digest
}

// Store is a thread-safe in-memory repository. Records are copied on the
// way in and out, so callers never share state with the store.
type Store struct {
	mu        sync.RWMutex
	revisions map[string]*library.Revision
	programs  map[library.ProgramKey]*library.Program
	sets      map[string]revisions.Set
	closures  map[string]closure

	locksMu sync.Mutex
	locks   map[library.ProgramKey]*sync.Mutex

	now func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		revisions: make(map[string]*library.Revision),
		programs:  make(map[library.ProgramKey]*library.Program),
		sets:      make(map[string]revisions.Set),
		closures:  make(map[string]closure),
		locks:     make(map[library.ProgramKey]*sync.Mutex),
		now:       time.Now,
	}
}

// SetClock replaces the time source used for Modified stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Len returns the number of stored revisions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.revisions)
}

// Put stores rev, replacing a revision with the same id, and records it in
// its program's history.
func (s *Store) Put(ctx context.Context, rev *library.Revision) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := rev.Validate(); err != nil {
		return err
	}
	stored := cloneRevision(rev)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.revisions[stored.ID.String()] = stored
	prog := s.programLocked(stored.ProgramKey())
	ref := library.NewRevisionRef(stored)
	prog.AddRevision(ref)
	if stored.Phase == phase.Master && (prog.Last == nil || !stored.Created.Before(prog.Last.Created)) {
		prog.Last = &ref
	}
	return nil
}

func (s *Store) programLocked(key library.ProgramKey) *library.Program {
	prog, ok := s.programs[key]
	if !ok {
		prog = library.NewProgram(key)
		s.programs[key] = prog
	}
	return prog
}

// Revision returns a copy of the revision with the given id.
func (s *Store) Revision(ctx context.Context, id library.Digest) (*library.Revision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rev, ok := s.revisions[id.String()]
	if !ok {
		return nil, fmt.Errorf("revision %s: %w", id, library.ErrNotFound)
	}
	return cloneRevision(rev), nil
}

// Program returns a copy of the program.
func (s *Store) Program(ctx context.Context, groupID, artifactID string) (*library.Program, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := library.ProgramKey{GroupID: groupID, ArtifactID: artifactID}
	s.mu.RLock()
	defer s.mu.RUnlock()
	prog, ok := s.programs[key]
	if !ok {
		return nil, fmt.Errorf("program %s: %w", key, library.ErrNotFound)
	}
	return cloneProgram(prog), nil
}

func (s *Store) programLock(key library.ProgramKey) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = new(sync.Mutex)
		s.locks[key] = l
	}
	return l
}

// SetPhase moves the revision to p. Changes to revisions of one program are
// serialized. A revision in a locked phase cannot return to an unlocked
// one, and a program holds at most one MASTER revision per version and
// classifier.
func (s *Store) SetPhase(ctx context.Context, id library.Digest, p phase.Phase) (*library.Revision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !p.Valid() {
		return nil, fmt.Errorf("set phase of %s: invalid phase %v", id, p)
	}

	s.mu.RLock()
	current, ok := s.revisions[id.String()]
	var key library.ProgramKey
	if ok {
		key = current.ProgramKey()
	}
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("revision %s: %w", id, library.ErrNotFound)
	}

	l := s.programLock(key)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	rev := s.revisions[id.String()]
	if rev.Phase == p {
		return cloneRevision(rev), nil
	}
	if rev.Phase.IsLocked() && !p.IsLocked() {
		return nil, fmt.Errorf("revision %s %v -> %v: %w", id, rev.Phase, p, library.ErrLocked)
	}
	if p == phase.Master {
		for _, other := range s.revisions {
			if other.Phase == phase.Master && !other.ID.Equal(rev.ID) &&
				other.ProgramKey() == key &&
				other.Classifier == rev.Classifier &&
				other.VersionString() == rev.VersionString() {
				return nil, fmt.Errorf("revision %s: %s is already MASTER for %s: %w",
					id, other.ID, rev.VersionString(), library.ErrConflict)
			}
		}
	}

	now := s.now()
	rev.Phase = p
	rev.Modified = now
	prog := s.programLocked(key)
	ref := library.NewRevisionRef(rev)
	prog.AddRevision(ref)
	if p == phase.Master {
		prog.Last = &ref
		prog.Modified = now
	}
	return cloneRevision(rev), nil
}

// CreateRevisions stores a revision set under its id.
func (s *Store) CreateRevisions(ctx context.Context, set revisions.Set) (revisions.Set, error) {
	if err := ctx.Err(); err != nil {
		return revisions.Set{}, err
	}
	if err := set.Verify(); err != nil {
		return revisions.Set{}, err
	}
	stored, err := revisions.New(set.Members...)
	if err != nil {
		return revisions.Set{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[stored.ID.String()] = stored
	return stored, nil
}

// Revisions returns the set with the given id.
func (s *Store) Revisions(ctx context.Context, id library.Digest) (revisions.Set, error) {
	if err := ctx.Err(); err != nil {
		return revisions.Set{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.sets[id.String()]
	if !ok {
		return revisions.Set{}, fmt.Errorf("revision set %s: %w", id, library.ErrNotFound)
	}
	return revisions.Set{ID: set.ID, Members: set.IDs()}, nil
}

// SetClosure records the dependency closure of a revision.
func (s *Store) SetClosure(id library.Digest, required, optional []library.Digest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closures[id.String()] = closure{
		required: slices.Clone(required),
		optional: slices.Clone(optional),
	}
}

// Closure returns refs for the recorded closure of id. Optional members are
// included when optionals is set. A stored revision without a recorded
// closure has an empty one.
func (s *Store) Closure(ctx context.Context, id library.Digest, optionals bool) ([]library.RevisionRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.revisions[id.String()]; !ok {
		return nil, fmt.Errorf("closure of %s: %w", id, library.ErrNotFound)
	}
	c := s.closures[id.String()]
	members := c.required
	if optionals {
		members = append(slices.Clone(members), c.optional...)
	}
	refs := make([]library.RevisionRef, 0, len(members))
	for _, m := range members {
		rev, ok := s.revisions[m.String()]
		if !ok {
			return nil, fmt.Errorf("closure of %s: member %s: %w", id, m, library.ErrNotFound)
		}
		refs = append(refs, library.NewRevisionRef(rev))
	}
	return refs, nil
}

func cloneRevision(r *library.Revision) *library.Revision {
	c := *r
	c.ID = slices.Clone(r.ID)
	c.MD5 = slices.Clone(r.MD5)
	c.Hashes = slices.Clone(r.Hashes)
	c.URLs = slices.Clone(r.URLs)
	c.Licenses = slices.Clone(r.Licenses)
	c.Developers = slices.Clone(r.Developers)
	if r.SCM != nil {
		scm := *r.SCM
		c.SCM = &scm
	}
	c.Signers = slices.Clone(r.Signers)
	c.Category = slices.Clone(r.Category)
	c.Keywords = slices.Clone(r.Keywords)
	c.Errors = slices.Clone(r.Errors)
	c.Warnings = slices.Clone(r.Warnings)
	c.Metadata = maps.Clone(r.Metadata)
	c.Requirements = slices.Clone(r.Requirements)
	c.Capabilities = slices.Clone(r.Capabilities)
	c.Packages = slices.Clone(r.Packages)
	c.Repositories = slices.Clone(r.Repositories)
	if r.Relocation != nil {
		rel := *r.Relocation
		c.Relocation = &rel
	}
	return &c
}

func cloneProgram(p *library.Program) *library.Program {
	c := *p
	c.Revisions = slices.Clone(p.Revisions)
	if p.Last != nil {
		last := *p.Last
		c.Last = &last
	}
	c.Category = slices.Clone(p.Category)
	c.Keywords = slices.Clone(p.Keywords)
	c.Classifiers = slices.Clone(p.Classifiers)
	if p.Wiki != nil {
		wiki := *p.Wiki
		c.Wiki = &wiki
	}
	c.Inbound = slices.Clone(p.Inbound)
	c.Classpath = slices.Clone(p.Classpath)
	c.Cycles = slices.Clone(p.Cycles)
	c.Overlap = slices.Clone(p.Overlap)
	return &c
}
