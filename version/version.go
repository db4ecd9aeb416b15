// Package version orders revision versions.
//
// A version is a numeric baseline "major.minor.micro" (missing segments are
// zero) optionally followed by a qualifier:
//
//	1
//	1.2.3
//	1.2.3.RELEASE
//	1.2.3.201301021300-SNAPSHOT
//
// Baselines compare numerically. A version without a qualifier sorts before
// the same baseline with one. Qualifiers are split on '.', '-' and '_' into
// identifiers; digit-only identifiers compare numerically and sort before
// alphanumeric ones, which compare lexicographically.
package version

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var versionPattern = regexp.MustCompile(`^(\d+)(?:\.(\d+)(?:\.(\d+))?)?(?:[.-]([-\w.]*))?$`)

// Version is a parsed baseline plus qualifier.
type Version struct {
	Major     uint64
	Minor     uint64
	Micro     uint64
	Qualifier string
}

// ParseError represents a version parsing error.
type ParseError struct {
	Version string
	Message string
}

func (e *ParseError) Error() string {
	return "bad version " + e.Version + ": " + e.Message
}

// Parse parses a version string.
func Parse(s string) (Version, error) {
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return Version{}, &ParseError{Version: s, Message: "does not match version pattern"}
	}
	var v Version
	for i, dst := range []*uint64{&v.Major, &v.Minor, &v.Micro} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseUint(m[i+1], 10, 64)
		if err != nil {
			return Version{}, &ParseError{Version: s, Message: err.Error()}
		}
		*dst = n
	}
	v.Qualifier = m[4]
	return v, nil
}

// Of builds a version from a normalized baseline and a qualifier, the way
// revisions and coordinates store them.
func Of(baseline, qualifier string) (Version, error) {
	v, err := Parse(baseline)
	if err != nil {
		return Version{}, err
	}
	if v.Qualifier != "" {
		return Version{}, &ParseError{Version: baseline, Message: "baseline carries a qualifier"}
	}
	v.Qualifier = qualifier
	return v, nil
}

// MustParse parses a version or panics. Use only for constants/tests.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Baseline returns "major.minor.micro".
func (v Version) Baseline() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Micro)
}

// String returns the baseline followed by ".qualifier" when there is one.
func (v Version) String() string {
	if v.Qualifier == "" {
		return v.Baseline()
	}
	return v.Baseline() + "." + v.Qualifier
}

// Compare returns -1, 0 or 1 as v is less than, equal to or greater than o.
func (v Version) Compare(o Version) int {
	if c := cmp.Compare(v.Major, o.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Minor, o.Minor); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Micro, o.Micro); c != 0 {
		return c
	}
	return compareQualifiers(v.Qualifier, o.Qualifier)
}

// Identifier is one segment of a qualifier.
type Identifier struct {
	IsDigitsOnly bool
	AsNumber     uint64 // Only valid if IsDigitsOnly
	AsString     string
}

// ParseIdentifier creates an Identifier from a qualifier segment.
func ParseIdentifier(s string) Identifier {
	if s == "" {
		return Identifier{AsString: s}
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return Identifier{AsString: s}
		}
	}
	num, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return Identifier{AsString: s}
	}
	return Identifier{IsDigitsOnly: true, AsNumber: num, AsString: s}
}

// CompareIdentifiers compares two qualifier segments. Digit-only segments
// sort first and compare numerically; others compare lexicographically.
func CompareIdentifiers(a, b Identifier) int {
	if a.IsDigitsOnly != b.IsDigitsOnly {
		if a.IsDigitsOnly {
			return -1
		}
		return 1
	}
	if a.IsDigitsOnly {
		return cmp.Compare(a.AsNumber, b.AsNumber)
	}
	return strings.Compare(a.AsString, b.AsString)
}

func splitQualifier(q string) []Identifier {
	parts := strings.FieldsFunc(q, func(r rune) bool {
		return r == '.' || r == '-' || r == '_'
	})
	ids := make([]Identifier, len(parts))
	for i, p := range parts {
		ids[i] = ParseIdentifier(p)
	}
	return ids
}

func compareQualifiers(a, b string) int {
	if a == b {
		return 0
	}
	ia, ib := splitQualifier(a), splitQualifier(b)
	for i := range min(len(ia), len(ib)) {
		if c := CompareIdentifiers(ia[i], ib[i]); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(len(ia), len(ib)); c != 0 {
		return c
	}
	// Same identifiers, different separators.
	return strings.Compare(a, b)
}

// Compare compares two version strings. Strings that fail to parse are
// compared lexicographically and sort after parseable ones.
func Compare(a, b string) int {
	va, errA := Parse(a)
	vb, errB := Parse(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}
	return va.Compare(vb)
}

// Sort sorts a slice of version strings in ascending order.
func Sort(versions []string) {
	slices.SortFunc(versions, Compare)
}

// Max returns the higher of two versions.
func Max(a, b string) string {
	if Compare(a, b) >= 0 {
		return a
	}
	return b
}
