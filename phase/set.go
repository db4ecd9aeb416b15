package phase

import "strings"

// Set is an immutable set of phases.
type Set uint8

// Of returns the set holding the given phases.
func Of(phases ...Phase) Set {
	var s Set
	for _, p := range phases {
		s = s.Add(p)
	}
	return s
}

// All returns the set of all seven phases.
func All() Set {
	return Set(1<<count - 1)
}

// Add returns s with p added. Invalid phases are ignored.
func (s Set) Add(p Phase) Set {
	if !p.Valid() {
		return s
	}
	return s | 1<<p
}

// Contains reports whether p is in s.
func (s Set) Contains(p Phase) bool {
	return p.Valid() && s&(1<<p) != 0
}

// Len returns the number of phases in s.
func (s Set) Len() int {
	n := 0
	for p := range Phase(count) {
		if s.Contains(p) {
			n++
		}
	}
	return n
}

// Phases returns the members in declaration order.
func (s Set) Phases() []Phase {
	var out []Phase
	for p := range Phase(count) {
		if s.Contains(p) {
			out = append(out, p)
		}
	}
	return out
}

// String renders the set as its member identifiers, e.g. "SLM".
func (s Set) String() string {
	var b strings.Builder
	for _, p := range s.Phases() {
		b.WriteByte(p.Identifier())
	}
	return b.String()
}

// Modifiers accepted after a coordinate version.
const (
	ModifierExact    = '='
	ModifierStaging  = '*'
	ModifierAll      = '~'
	ModifierHistoric = '!'
)

// ForModifier returns the phases visible to a coordinate carrying the given
// modifier:
//
//	'='  MASTER
//	'*'  LOCKED, MASTER, STAGING
//	'~'  all phases
//	'!'  WITHDRAWN, RETIRED, UNKNOWN, PENDING
//
// Unknown modifiers report false.
func ForModifier(m rune) (Set, bool) {
	switch m {
	case ModifierExact:
		return Of(Master), true
	case ModifierStaging:
		return Of(Locked, Master, Staging), true
	case ModifierAll:
		return All(), true
	case ModifierHistoric:
		return Of(Withdrawn, Retired, Unknown, Pending), true
	}
	return 0, false
}
