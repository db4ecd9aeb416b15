package library

import (
	"context"
	"errors"
	"time"

	"github.com/albertocavalcante/go-jpm/phase"
)

// Store errors.
var (
	// ErrNotFound is returned by keyed lookups that match nothing.
	ErrNotFound = errors.New("not found")

	// ErrNotUnique is returned by One when more than one record matches.
	ErrNotUnique = errors.New("more than one match")

	// ErrConflict is returned when a promotion would give a program two
	// MASTER revisions for the same version and classifier.
	ErrConflict = errors.New("phase conflict")

	// ErrLocked is returned when a revision would leave a locked phase for an
	// unlocked one.
	ErrLocked = errors.New("revision is locked")

	// ErrUnknownField is returned by Find terminals when a sort or where
	// clause names a field the store does not index.
	ErrUnknownField = errors.New("unknown field")
)

// Field names stores index for Where, Ascending and Descending. Programs
// support FieldGroupID, FieldArtifactID and FieldModified.
const (
	FieldBSN        = "bsn"
	FieldBaseline   = "baseline"
	FieldVersion    = "version"
	FieldQualifier  = "qualifier"
	FieldCreated    = "created"
	FieldGroupID    = "groupId"
	FieldArtifactID = "artifactId"
	FieldClassifier = "classifier"
	FieldPhase      = "phase"
	FieldSize       = "size"
	FieldModified   = "modified"
)

// Find is a chainable query. Builder methods never fail; their errors are
// reported by the terminal call (One, First, Count, Each).
type Find[T any] interface {
	BSN(bsn string) Find[T]
	Baseline(baseline string) Find[T]
	Version(version string) Find[T]
	Qualifier(qualifier string) Find[T]
	From(t time.Time) Find[T]
	Until(t time.Time) Find[T]
	Skip(n int) Find[T]
	Limit(n int) Find[T]
	Ascending(field string) Find[T]
	Descending(field string) Find[T]
	// Where keeps records whose field equals any of values.
	Where(field string, values ...any) Find[T]
	// Template keeps records whose non-empty identity fields equal the
	// template's.
	Template(rev *Revision) Find[T]
	// Query keeps records whose searchable text contains every word of text.
	Query(text string) Find[T]
	Capability(ns, key string, value any) Find[T]

	// One returns the only match. ok is false when nothing matches and
	// ErrNotUnique is returned when several do.
	One(ctx context.Context) (v T, ok bool, err error)
	// First returns the first match in sort order.
	First(ctx context.Context) (v T, ok bool, err error)
	Count(ctx context.Context) (int, error)
	// Each calls visit for every match until it returns false. It reports
	// whether all matches were visited.
	Each(ctx context.Context, visit func(T) bool) (bool, error)
}

// Order is one sort key of a query.
type Order struct {
	Field      string
	Descending bool
}

// Clause is one where clause of a query.
type Clause struct {
	Field  string
	Values []any
}

// CapabilityFilter matches records carrying a capability with the given
// namespace and property value.
type CapabilityFilter struct {
	NS    string
	Key   string
	Value any
}

// Criteria collects the state of a Find chain. Adapters embed it to share
// the builder bookkeeping.
type Criteria struct {
	BSN          string
	Baseline     string
	Version      string
	Qualifier    string
	From         time.Time
	Until        time.Time
	Skip         int
	Limit        int
	Order        []Order
	Where        []Clause
	Template     *Revision
	Text         string
	Capabilities []CapabilityFilter
	Err          error
}

// Fail records the first builder error.
func (c *Criteria) Fail(err error) {
	if c.Err == nil {
		c.Err = err
	}
}

// RevisionStore reads and updates revisions.
type RevisionStore interface {
	FindRevision() Find[*Revision]
	// Revision returns the revision with the given id or ErrNotFound.
	Revision(ctx context.Context, id Digest) (*Revision, error)
	Put(ctx context.Context, rev *Revision) error
	// SetPhase moves a revision to p. Changes are atomic and serialized per
	// program.
	SetPhase(ctx context.Context, id Digest, p phase.Phase) (*Revision, error)
}

// ProgramStore reads programs.
type ProgramStore interface {
	FindProgram() Find[*Program]
	// Program returns the program or ErrNotFound.
	Program(ctx context.Context, groupID, artifactID string) (*Program, error)
}

// ClosureProvider returns the transitive dependency closure of a revision,
// computed elsewhere.
type ClosureProvider interface {
	Closure(ctx context.Context, id Digest, optionals bool) ([]RevisionRef, error)
}

// ScanQueue accepts scan requests.
type ScanQueue interface {
	QueueScan(ctx context.Context, req ScanRequest) error
}
