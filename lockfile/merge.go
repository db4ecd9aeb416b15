package lockfile

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// MergeStrategy defines how to handle conflicts when merging lockfiles.
type MergeStrategy int

const (
	// MergeErrorOnConflict returns ErrConflict if a coordinate is locked to
	// different revisions.
	MergeErrorOnConflict MergeStrategy = iota

	// MergePreferExisting keeps existing entries on conflict.
	MergePreferExisting

	// MergePreferNew overwrites with new entries on conflict.
	MergePreferNew
)

// MergeOptions configures lockfile merge behavior.
type MergeOptions struct {
	Strategy MergeStrategy
}

// DefaultMergeOptions fails on conflicts.
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{Strategy: MergeErrorOnConflict}
}

// Merge adds the entries of other. Entries locked to the same revision in
// both are kept once; the strategy decides the rest. On error l is left
// unchanged.
func (l *Lockfile) Merge(other *Lockfile, opts MergeOptions) error {
	if other == nil {
		return nil
	}
	if other.Version != l.Version {
		return fmt.Errorf("merge: %w %d into %d", ErrVersion, other.Version, l.Version)
	}

	merged := maps.Clone(l.Entries)
	for _, coord := range other.Coordinates() {
		incoming := other.Entries[coord]
		existing, exists := merged[coord]
		if !exists || existing.Revision.Equal(incoming.Revision) {
			merged[coord] = incoming
			continue
		}
		switch opts.Strategy {
		case MergePreferExisting:
		case MergePreferNew:
			merged[coord] = incoming
		default:
			return fmt.Errorf("%w for %s: existing=%s, new=%s", ErrConflict, coord, existing.Revision, incoming.Revision)
		}
	}

	l.Entries = merged
	return l.updateSetID()
}

// Diff describes how one lockfile differs from another.
type Diff struct {
	// Added contains coordinates only in the new lockfile.
	Added []string

	// Removed contains coordinates only in the old lockfile.
	Removed []string

	// Changed contains coordinates locked to a different revision or phase.
	Changed []EntryChange
}

// EntryChange is one coordinate whose entry differs.
type EntryChange struct {
	Coordinate string
	Old        Entry
	New        Entry
}

// IsEmpty returns true if there are no differences.
func (d *Diff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Summary returns a human-readable summary of the differences.
func (d *Diff) Summary() string {
	if d.IsEmpty() {
		return "no changes"
	}
	var sb strings.Builder
	for _, c := range d.Added {
		fmt.Fprintf(&sb, "+ %s\n", c)
	}
	for _, c := range d.Removed {
		fmt.Fprintf(&sb, "- %s\n", c)
	}
	for _, c := range d.Changed {
		fmt.Fprintf(&sb, "~ %s: %s %s -> %s %s\n", c.Coordinate, c.Old.Revision, c.Old.Phase, c.New.Revision, c.New.Phase)
	}
	return sb.String()
}

// Compare compares two lockfiles. Every list is sorted by coordinate.
func Compare(old, new *Lockfile) *Diff {
	diff := &Diff{}
	for _, coord := range new.Coordinates() {
		n := new.Entries[coord]
		o, exists := old.Entries[coord]
		switch {
		case !exists:
			diff.Added = append(diff.Added, coord)
		case !o.Revision.Equal(n.Revision) || o.Phase != n.Phase:
			diff.Changed = append(diff.Changed, EntryChange{Coordinate: coord, Old: o, New: n})
		}
	}
	for _, coord := range old.Coordinates() {
		if _, exists := new.Entries[coord]; !exists {
			diff.Removed = append(diff.Removed, coord)
		}
	}
	slices.Sort(diff.Removed)
	return diff
}
