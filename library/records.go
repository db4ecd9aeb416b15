package library

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/albertocavalcante/go-jpm/phase"
)

// Requirement is a namespaced requirement: a namespace plus a property map.
type Requirement struct {
	NS   string         `json:"ns" yaml:"ns"`
	Name string         `json:"name,omitempty" yaml:"name,omitempty"`
	PS   map[string]any `json:"ps,omitempty" yaml:"ps,omitempty"`
}

// Capability has the same shape as Requirement and differs only in role.
type Capability Requirement

// Property returns the named property and whether it is set.
func (c Capability) Property(key string) (any, bool) {
	v, ok := c.PS[key]
	return v, ok
}

// Category is a named grouping of programs.
type Category struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Programs    []string `json:"programs,omitempty" yaml:"programs,omitempty"`
}

// ErrInvalidName is returned for library names that fail validation.
var ErrInvalidName = errors.New("invalid library name")

var infoNamePattern = regexp.MustCompile(`^[\w_][-\w\d_.]*$`)

// Info describes a library instance.
type Info struct {
	Name      string    `json:"name" yaml:"name"`
	Location  string    `json:"location,omitempty" yaml:"location,omitempty"`
	Revisions int       `json:"revisions" yaml:"revisions"`
	Programs  int       `json:"programs" yaml:"programs"`
	Updated   time.Time `json:"updated" yaml:"updated,omitempty"`
}

// NewInfo validates name and returns an Info for it.
func NewInfo(name, location string) (Info, error) {
	if !infoNamePattern.MatchString(name) {
		return Info{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return Info{Name: name, Location: location}, nil
}

// ScanRequest asks the scanner to (re)fetch and analyse an artifact URL.
type ScanRequest struct {
	URL        string      `json:"url" yaml:"url"`
	Unique     bool        `json:"unique,omitempty" yaml:"unique,omitempty"`
	SHA        Digest      `json:"sha,omitempty" yaml:"sha,omitempty"`
	Repository string      `json:"repository,omitempty" yaml:"repository,omitempty"`
	Message    string      `json:"message,omitempty" yaml:"message,omitempty"`
	OSGi       bool        `json:"osgi,omitempty" yaml:"osgi,omitempty"`
	Phase      phase.Phase `json:"phase" yaml:"phase"`
	NoStage    bool        `json:"nostage,omitempty" yaml:"nostage,omitempty"`
	Expire     time.Time   `json:"expire" yaml:"expire,omitempty"`
}
