// Package patterns holds the regular expression fragments shared by the
// coordinate grammar and the library data model.
//
// Fragments never contain capturing groups so they can be embedded inside
// larger expressions without shifting submatch indexes. Each fragment has an
// anchored, compiled counterpart for whole-string checks.
package patterns

import "regexp"

// Grammar fragments. Compose them, never alter them.
const (
	// SimpleName is an identifier: a letter or underscore followed by
	// letters, digits, underscores or dashes.
	SimpleName = `[\p{L}_][-\p{L}0-9_]*`

	// QualifiedName is a dotted identifier.
	QualifiedName = `[\p{L}_][-\p{L}0-9_.]*`

	// Hex is a run of hex digit pairs.
	Hex = `(?:[0-9a-fA-F]{2})+`

	// SHA1 is exactly 20 hex digit pairs.
	SHA1 = `(?:[0-9a-fA-F]{2}){20}`

	// SlashedPath is a slash separated list of qualified names.
	SlashedPath = QualifiedName + `(?:/` + QualifiedName + `)*`

	// Numeric is a plain run of digits.
	Numeric = `[0-9]+`

	// LibraryName is the token used for coordinate groups, artifacts and
	// classifiers. It is looser than SimpleName: dots are allowed and a
	// leading digit is fine, which lets a bare SHA-1 parse as a group.
	LibraryName = `[-\p{L}0-9_.]+`
)

// Anchored, compiled forms of the fragments.
var (
	SimpleNameRegexp    = anchored(SimpleName)
	QualifiedNameRegexp = anchored(QualifiedName)
	HexRegexp           = anchored(Hex)
	SHA1Regexp          = anchored(SHA1)
	SlashedPathRegexp   = anchored(SlashedPath)
	NumericRegexp       = anchored(Numeric)
	LibraryNameRegexp   = anchored(LibraryName)
)

func anchored(fragment string) *regexp.Regexp {
	return regexp.MustCompile(`^(?:` + fragment + `)$`)
}

// IsSimpleName reports whether s is an identifier.
func IsSimpleName(s string) bool {
	return SimpleNameRegexp.MatchString(s)
}

// IsQualifiedName reports whether s is a dotted identifier.
func IsQualifiedName(s string) bool {
	return QualifiedNameRegexp.MatchString(s)
}

// IsHex reports whether s is a non-empty run of hex digit pairs.
func IsHex(s string) bool {
	return HexRegexp.MatchString(s)
}

// IsSHA1 reports whether s is a 40 character hex SHA-1.
func IsSHA1(s string) bool {
	return SHA1Regexp.MatchString(s)
}

// IsSlashedPath reports whether s is a slash separated path of qualified names.
func IsSlashedPath(s string) bool {
	return SlashedPathRegexp.MatchString(s)
}

// IsNumeric reports whether s is a run of digits.
func IsNumeric(s string) bool {
	return NumericRegexp.MatchString(s)
}
