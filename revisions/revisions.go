// Package revisions implements content addressed sets of revisions.
//
// A set's id depends only on its members: the member ids are sorted,
// duplicates are dropped, and the remaining ids are hashed with SHA-1 in
// order. A set with one member has that member's id, so a single revision
// and the set holding only it share an identity.
package revisions

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"slices"

	"github.com/albertocavalcante/go-jpm/library"
)

var (
	// ErrEmpty is returned when a set would have no members.
	ErrEmpty = errors.New("empty revision set")

	// ErrMismatch is returned when a set's id does not match its members.
	ErrMismatch = errors.New("revision set id mismatch")
)

// Compare orders byte sequences byte by byte as signed 8-bit values; on a
// common prefix the shorter sequence sorts first. Ids minted by earlier
// stores were ordered this way, so the order must not change.
func Compare(a, b []byte) int {
	for i := range min(len(a), len(b)) {
		if x, y := int8(a[i]), int8(b[i]); x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// normalize returns the sorted, value-deduplicated members.
func normalize(ids []library.Digest) []library.Digest {
	sorted := make([]library.Digest, len(ids))
	for i, id := range ids {
		sorted[i] = slices.Clone(id)
	}
	slices.SortStableFunc(sorted, func(a, b library.Digest) int { return Compare(a, b) })
	return slices.CompactFunc(sorted, library.Digest.Equal)
}

func checksum(sorted []library.Digest) library.Digest {
	if len(sorted) == 1 {
		return slices.Clone(sorted[0])
	}
	h := sha1.New()
	for _, id := range sorted {
		h.Write(id)
	}
	return library.Digest(h.Sum(nil))
}

// Checksum returns the id of the set holding ids.
func Checksum(ids []library.Digest) (library.Digest, error) {
	if len(ids) == 0 {
		return nil, ErrEmpty
	}
	return checksum(normalize(ids)), nil
}

// Set is a content addressed set of revision ids. Members are kept sorted
// and unique.
type Set struct {
	ID      library.Digest   `json:"id" yaml:"id"`
	Members []library.Digest `json:"revisions" yaml:"revisions"`
}

// New returns the set holding ids.
func New(ids ...library.Digest) (Set, error) {
	if len(ids) == 0 {
		return Set{}, ErrEmpty
	}
	members := normalize(ids)
	return Set{ID: checksum(members), Members: members}, nil
}

// Singleton returns the set holding only id. Its id equals id.
func Singleton(id library.Digest) Set {
	return Set{ID: slices.Clone(id), Members: []library.Digest{slices.Clone(id)}}
}

// From returns the set of the given revisions.
func From(revs []*library.Revision) (Set, error) {
	ids := make([]library.Digest, 0, len(revs))
	for _, rev := range revs {
		ids = append(ids, rev.ID)
	}
	return New(ids...)
}

// FromRefs returns the set of the referenced revisions.
func FromRefs(refs []library.RevisionRef) (Set, error) {
	ids := make([]library.Digest, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.Revision)
	}
	return New(ids...)
}

// Len returns the number of members.
func (s Set) Len() int {
	return len(s.Members)
}

// IDs returns a copy of the member ids in set order.
func (s Set) IDs() []library.Digest {
	out := make([]library.Digest, len(s.Members))
	for i, id := range s.Members {
		out[i] = slices.Clone(id)
	}
	return out
}

// Contains reports whether id is a member.
func (s Set) Contains(id library.Digest) bool {
	_, found := slices.BinarySearchFunc(s.Members, id, func(a, b library.Digest) int { return Compare(a, b) })
	return found
}

// IsZero reports whether s is the zero Set.
func (s Set) IsZero() bool {
	return len(s.ID) == 0 && len(s.Members) == 0
}

// String returns the hex id.
func (s Set) String() string {
	return s.ID.String()
}

// Verify recomputes the id from the members.
func (s Set) Verify() error {
	if len(s.Members) == 0 {
		return ErrEmpty
	}
	want, _ := Checksum(s.Members)
	if !want.Equal(s.ID) {
		return fmt.Errorf("%w: have %s, members hash to %s", ErrMismatch, s.ID, want)
	}
	return nil
}

// Store persists revision sets by id.
type Store interface {
	// CreateRevisions stores s and returns the stored set.
	CreateRevisions(ctx context.Context, s Set) (Set, error)
	// Revisions returns the set with the given id or library.ErrNotFound.
	Revisions(ctx context.Context, id library.Digest) (Set, error)
}
