package gojpm

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for resolution failures.
var (
	// ErrUnresolved indicates a coordinate matched no visible revision.
	ErrUnresolved = errors.New("unresolved coordinate")

	// ErrNotConfigured indicates an operation needs a port that was not
	// passed to NewResolver.
	ErrNotConfigured = errors.New("not configured")

	// ErrNoURL indicates a revision has no source URL to scan.
	ErrNoURL = errors.New("revision has no url")
)

// UnresolvedError lists the coordinates that matched nothing.
// It matches ErrUnresolved with errors.Is.
type UnresolvedError struct {
	Coordinates []string
}

func (e *UnresolvedError) Error() string {
	if len(e.Coordinates) == 1 {
		return "unresolved coordinate " + e.Coordinates[0]
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d unresolved coordinates:", len(e.Coordinates)))
	for _, c := range e.Coordinates {
		sb.WriteString("\n  - ")
		sb.WriteString(c)
	}
	return sb.String()
}

// Is reports whether target is ErrUnresolved.
func (e *UnresolvedError) Is(target error) bool {
	return target == ErrUnresolved
}
