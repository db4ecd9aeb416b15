// Package phase defines the lifecycle stages of a revision and the
// visibility policy that maps a coordinate modifier to the set of phases a
// matching revision may be in.
//
// The attribute table is static and read-only; every Phase value is a small
// tag that indexes it.
//
// # Lifecycle
//
//	PENDING -> STAGING -> LOCKED -> MASTER -> RETIRED
//	                                       -> WITHDRAWN
//
// Transitions are performed by the repository store, not by this package.
package phase

import (
	"fmt"
	"strings"
)

// Phase is the lifecycle stage of a revision.
type Phase uint8

// The zero value is PENDING.
const (
	Pending Phase = iota
	Staging
	Locked
	Master
	Retired
	Withdrawn
	Unknown

	count = int(Unknown) + 1
)

type attributes struct {
	name      string
	locked    bool
	listable  bool
	permanent bool
	symbol    string
}

// table is indexed by Phase. The identifier is the first letter of name.
var table = [count]attributes{
	Pending:   {name: "PENDING", symbol: "?"},
	Staging:   {name: "STAGING", symbol: "◑"},
	Locked:    {name: "LOCKED", locked: true, symbol: "⊘"},
	Master:    {name: "MASTER", locked: true, listable: true, permanent: true, symbol: "⬤"},
	Retired:   {name: "RETIRED", locked: true, permanent: true, symbol: "◐"},
	Withdrawn: {name: "WITHDRAWN", locked: true, permanent: true, symbol: "⊗"},
	Unknown:   {name: "UNKNOWN", locked: true, symbol: "?"},
}

// Values returns every phase in declaration order.
func Values() []Phase {
	out := make([]Phase, count)
	for i := range out {
		out[i] = Phase(i)
	}
	return out
}

// Valid reports whether p is one of the seven defined phases.
func (p Phase) Valid() bool {
	return int(p) < count
}

func (p Phase) attrs() attributes {
	if !p.Valid() {
		return table[Unknown]
	}
	return table[p]
}

// String returns the upper-case phase name.
func (p Phase) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
	return table[p].name
}

// IsLocked reports whether a revision in this phase is no longer subject to
// mutation.
func (p Phase) IsLocked() bool { return p.attrs().locked }

// IsListable reports whether revisions in this phase show up in normal
// browsing.
func (p Phase) IsListable() bool { return p.attrs().listable }

// IsPermanent reports whether the phase cannot transition further.
func (p Phase) IsPermanent() bool { return p.attrs().permanent }

// Symbol returns the display glyph for the phase.
func (p Phase) Symbol() string { return p.attrs().symbol }

// Identifier returns the one character phase identifier.
func (p Phase) Identifier() byte { return p.attrs().name[0] }

// IsStaging is true for STAGING and LOCKED.
func (p Phase) IsStaging() bool {
	return p == Staging || p == Locked
}

// Parse returns the phase named by s. Full names are matched
// case-insensitively; a single character is matched against identifiers.
func Parse(s string) (Phase, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for i, a := range table {
		if a.name == upper {
			return Phase(i), nil
		}
	}
	if len(upper) == 1 {
		for i, a := range table {
			if a.name[0] == upper[0] {
				return Phase(i), nil
			}
		}
	}
	return Unknown, fmt.Errorf("unknown phase %q", s)
}

// MarshalText encodes the phase as its name.
func (p Phase) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid phase %d", uint8(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name or identifier.
func (p *Phase) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
