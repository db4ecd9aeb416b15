// Package coordinate parses and classifies artifact coordinates.
//
// A coordinate names a group, an artifact, an optional classifier and an
// optional version followed by a modifier that selects which revision phases
// are visible:
//
//	coordinate ::= group [ ':' artifact [ ':' classifier? ] ] [ '@' version? modifier? ]
//	artifact   ::= hex-run | name
//	modifier   ::= '=' | '*' | '~' | '!'
//	version    ::= baseline ('.' qualifier)?
//	baseline   ::= digits ('.' digits ('.' digits)?)?
//
// Examples:
//
//	org.foo:bar                    latest MASTER revision of org.foo:bar
//	org.foo:bar:sources@1.2.3=     exactly 1.2.3, MASTER only
//	org.foo:bar@1.2*               1.2.0 or later, including staged revisions
//	bar                            SIMPLE group
//	a3f5...(40 hex digits)         SHA pinned revision
//
// Any "__" in the input is read as ":" so coordinates can be embedded in file
// names.
//
// All types in this package are immutable and safe for concurrent use.
package coordinate

import (
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/albertocavalcante/go-jpm/patterns"
	"github.com/albertocavalcante/go-jpm/phase"
)

// Well-known group ids.
const (
	SHAGroupID    = "sha"
	OSGiGroupID   = "osgi"
	SimpleGroupID = ""
)

// Group classifies the group id of a coordinate.
type Group int

const (
	// Simple is a bare artifact name with no group.
	Simple Group = iota
	// OSGi is the "osgi" group, artifact ids are bundle symbolic names.
	OSGi
	// SHA pins a revision by its SHA-1 content hash.
	SHA
	// Maven is any other group id.
	Maven
)

// String returns the upper-case group name.
func (g Group) String() string {
	switch g {
	case Simple:
		return "SIMPLE"
	case OSGi:
		return "OSGI"
	case SHA:
		return "SHA"
	case Maven:
		return "MAVEN"
	default:
		return fmt.Sprintf("Group(%d)", int(g))
	}
}

func classify(groupID string) Group {
	switch groupID {
	case SHAGroupID:
		return SHA
	case OSGiGroupID:
		return OSGi
	case SimpleGroupID:
		return Simple
	default:
		return Maven
	}
}

// Sentinel errors wrapped by *ParseError.
var (
	// ErrMalformed indicates the text does not match the coordinate grammar.
	ErrMalformed = errors.New("malformed coordinate")

	// ErrInvalidSHA indicates a SHA group coordinate whose artifact id is
	// not a 40 digit hex SHA-1.
	ErrInvalidSHA = errors.New("invalid SHA-1 identifier")
)

// ParseError describes a coordinate that could not be parsed.
type ParseError struct {
	Input  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v %q: %s", e.Err, e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

const (
	baselineFragment  = `\d+(?:\.\d+(?:\.\d+)?)?`
	qualifierFragment = `[-\w.]*`
	versionFragment   = `(?:@((` + baselineFragment + `)(\.` + qualifierFragment + `)?)?([*=~!])?)?`
	groupFragment     = `(` + patterns.LibraryName + `)`
	artifactFragment  = `(` + patterns.Hex + `|` + patterns.LibraryName + `)`
	classifierFrag    = `(` + patterns.LibraryName + `)`

	// Pattern is the full coordinate grammar. Submatches:
	// 1 group, 2 artifact, 3 classifier, 4 version, 5 baseline,
	// 6 qualifier (with its leading dot), 7 modifier.
	Pattern = groupFragment + `(?::` + artifactFragment + `(?::` + classifierFrag + `?)?)?` + versionFragment
)

var coordinateRegexp = regexp.MustCompile(`(?i)^` + Pattern + `$`)

const (
	subGroup = 1 + iota
	subArtifact
	subClassifier
	subVersion
	subBaseline
	subQualifier
	subModifier
)

// Coordinate is a parsed coordinate. The zero value is not a valid
// coordinate; use Parse.
type Coordinate struct {
	text       string
	group      Group
	groupID    string
	artifactID string
	classifier string
	version    string
	baseline   string
	qualifier  string
	modifier   rune
	exact      bool
	phases     phase.Set
}

// IsValid reports whether s parses as a coordinate grammar match.
// It does not check the SHA shape of SHA group artifact ids.
func IsValid(s string) bool {
	return coordinateRegexp.MatchString(unescape(s))
}

func unescape(s string) string {
	return strings.ReplaceAll(s, "__", ":")
}

// Parse parses a coordinate.
func Parse(s string) (Coordinate, error) {
	text := unescape(s)
	m := coordinateRegexp.FindStringSubmatchIndex(text)
	if m == nil {
		return Coordinate{}, &ParseError{
			Input:  s,
			Reason: "does not match coordinate pattern " + Pattern,
			Err:    ErrMalformed,
		}
	}

	sub := func(i int) (string, bool) {
		if m[2*i] < 0 {
			return "", false
		}
		return text[m[2*i]:m[2*i+1]], true
	}

	groupID, _ := sub(subGroup)
	artifactID, hasArtifact := sub(subArtifact)
	classifier, hasClassifier := sub(subClassifier)
	version, hasVersion := sub(subVersion)
	baseline, _ := sub(subBaseline)
	qualifier, _ := sub(subQualifier)
	modifier, hasModifier := sub(subModifier)

	// A single token is an artifact name, or a SHA when it looks like one.
	if !hasArtifact && !hasClassifier {
		artifactID = groupID
		if patterns.IsSHA1(groupID) {
			groupID = SHAGroupID
			version = "0.0.0"
			baseline = "0.0.0"
			hasVersion = true
		} else {
			groupID = SimpleGroupID
		}
	}

	c := Coordinate{
		text:       text,
		group:      classify(groupID),
		groupID:    groupID,
		artifactID: artifactID,
		classifier: classifier,
		qualifier:  strings.TrimPrefix(qualifier, "."),
	}

	if c.group == SHA && !patterns.IsSHA1(artifactID) {
		return Coordinate{}, &ParseError{
			Input:  s,
			Reason: fmt.Sprintf("artifact id %q is not a SHA-1", artifactID),
			Err:    ErrInvalidSHA,
		}
	}

	if !hasModifier {
		modifier = string(phase.ModifierExact)
	}
	c.modifier = rune(modifier[0])
	c.phases, _ = phase.ForModifier(c.modifier)
	c.exact = modifier == string(phase.ModifierExact)

	if hasVersion {
		normalized, err := normalizeBaseline(baseline)
		if err != nil {
			return Coordinate{}, &ParseError{Input: s, Reason: err.Error(), Err: ErrMalformed}
		}
		c.version = version
		c.baseline = normalized
	}

	return c, nil
}

// MustParse parses a coordinate or panics. Use only for constants/tests.
func MustParse(s string) Coordinate {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// normalizeBaseline turns "1", "1.2" or "1.2.3" into "major.minor.patch".
func normalizeBaseline(baseline string) (string, error) {
	var nrs [3]uint64
	for i, part := range strings.SplitN(baseline, ".", 3) {
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return "", fmt.Errorf("baseline segment %q: %w", part, err)
		}
		nrs[i] = n
	}
	return fmt.Sprintf("%d.%d.%d", nrs[0], nrs[1], nrs[2]), nil
}

// String returns the text the coordinate was parsed from, after "__"
// rewriting.
func (c Coordinate) String() string {
	return c.text
}

// Equal reports whether both coordinates were parsed from the same text.
func (c Coordinate) Equal(other Coordinate) bool {
	return c.text == other.text
}

// IsZero reports whether c is the zero value.
func (c Coordinate) IsZero() bool {
	return c.text == ""
}

// Group returns the group classification.
func (c Coordinate) Group() Group { return c.group }

// GroupID returns the group id; empty for SIMPLE coordinates.
func (c Coordinate) GroupID() string { return c.groupID }

// ArtifactID returns the artifact id.
func (c Coordinate) ArtifactID() string { return c.artifactID }

// Classifier returns the classifier or "" when there is none.
func (c Coordinate) Classifier() string { return c.classifier }

// HasClassifier reports whether a classifier was given.
func (c Coordinate) HasClassifier() bool { return c.classifier != "" }

// Version returns the raw version text or "" when absent.
func (c Coordinate) Version() string { return c.version }

// HasVersion reports whether a version was given.
func (c Coordinate) HasVersion() bool { return c.version != "" }

// Baseline returns the normalized "major.minor.patch" or "" when no version
// was given.
func (c Coordinate) Baseline() string { return c.baseline }

// Qualifier returns the version qualifier without its leading dot, or "".
func (c Coordinate) Qualifier() string { return c.qualifier }

// Modifier returns the effective modifier; '=' when none was written.
func (c Coordinate) Modifier() rune { return c.modifier }

// IsExact reports whether the modifier is '='.
func (c Coordinate) IsExact() bool { return c.exact }

// Phases returns the phases a matching revision may be in.
func (c Coordinate) Phases() phase.Set { return c.phases }

// IsVisible reports whether a revision in phase p matches this coordinate.
func (c Coordinate) IsVisible(p phase.Phase) bool {
	return c.phases.Contains(p)
}

// IsSHA reports whether the coordinate pins a SHA-1.
func (c Coordinate) IsSHA() bool {
	return c.group == SHA
}

// SHA decodes the artifact id of a SHA coordinate into its 20 bytes.
func (c Coordinate) SHA() ([]byte, error) {
	if !c.IsSHA() {
		return nil, fmt.Errorf("coordinate %q is not a SHA coordinate", c.text)
	}
	return hex.DecodeString(c.artifactID)
}

// MarshalText returns the original text.
func (c Coordinate) MarshalText() ([]byte, error) {
	return []byte(c.text), nil
}

// UnmarshalText parses text into c.
func (c *Coordinate) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
