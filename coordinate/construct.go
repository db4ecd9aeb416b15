package coordinate

import "strings"

// Construct renders coordinate text from its parts:
//
//	group:artifact[:classifier][@[version][=|*]]
//
// The '@' part is written when a version is given or exact or staging is
// set; exact wins over staging. An empty group id writes the artifact alone,
// which parses back as a SIMPLE coordinate when there is no classifier.
//
// Construct is for building coordinates from stored records. A parsed
// coordinate always stringifies to its original text instead.
func Construct(groupID, artifactID, classifier, version string, exact, staging bool) string {
	var b strings.Builder
	if groupID != "" || classifier != "" {
		b.WriteString(groupID)
		b.WriteByte(':')
	}
	b.WriteString(artifactID)
	if classifier != "" {
		b.WriteByte(':')
		b.WriteString(classifier)
	}
	if version != "" || exact || staging {
		b.WriteByte('@')
		b.WriteString(version)
		switch {
		case exact:
			b.WriteByte('=')
		case staging:
			b.WriteByte('*')
		}
	}
	return b.String()
}

// New builds an exact coordinate for a specific version.
func New(groupID, artifactID, classifier, version string) (Coordinate, error) {
	return Parse(Construct(groupID, artifactID, classifier, version, true, false))
}

// ForProgram builds a coordinate naming a program, optionally with a
// classifier.
func ForProgram(groupID, artifactID, classifier string) (Coordinate, error) {
	return Parse(Construct(groupID, artifactID, classifier, "", false, false))
}
