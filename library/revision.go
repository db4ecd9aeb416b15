package library

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/albertocavalcante/go-jpm/coordinate"
	"github.com/albertocavalcante/go-jpm/patterns"
	"github.com/albertocavalcante/go-jpm/phase"
)

// ErrInvalidRevision is returned when a revision fails validation.
var ErrInvalidRevision = errors.New("invalid revision")

// License is a POM license entry.
type License struct {
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
	Comments string `json:"comments,omitempty" yaml:"comments,omitempty"`
}

// Developer is a POM developer entry.
type Developer struct {
	ID    string `json:"id,omitempty" yaml:"id,omitempty"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// SCM is a POM source control entry.
type SCM struct {
	URL        string `json:"url,omitempty" yaml:"url,omitempty"`
	Connection string `json:"connection,omitempty" yaml:"connection,omitempty"`
	Tag        string `json:"tag,omitempty" yaml:"tag,omitempty"`
}

// POM is the snapshot of Maven project metadata carried by a revision.
type POM struct {
	GroupID     string      `json:"groupId,omitempty" yaml:"groupId,omitempty"`
	ArtifactID  string      `json:"artifactId,omitempty" yaml:"artifactId,omitempty"`
	Version     string      `json:"version,omitempty" yaml:"version,omitempty"`
	Classifier  string      `json:"classifier,omitempty" yaml:"classifier,omitempty"`
	Packaging   string      `json:"packaging,omitempty" yaml:"packaging,omitempty"`
	Name        string      `json:"name,omitempty" yaml:"name,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Licenses    []License   `json:"licenses,omitempty" yaml:"licenses,omitempty"`
	Developers  []Developer `json:"developers,omitempty" yaml:"developers,omitempty"`
	SCM         *SCM        `json:"scm,omitempty" yaml:"scm,omitempty"`
}

// Relocation points at the program a revision moved to.
type Relocation struct {
	GroupID    string `json:"groupId,omitempty" yaml:"groupId,omitempty"`
	ArtifactID string `json:"artifactId,omitempty" yaml:"artifactId,omitempty"`
	Version    string `json:"version,omitempty" yaml:"version,omitempty"`
	Message    string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Revision is one content addressed artifact version.
//
// ID, BSN, Baseline, Qualifier, Size, the hashes, URLs and the POM snapshot
// are fixed once the revision is stored. Phase, Message, Category, Keywords,
// Errors and Warnings change only through explicit operations.
type Revision struct {
	ID Digest `json:"id" yaml:"id"`
	POM `yaml:",inline"`

	BSN       string `json:"bsn,omitempty" yaml:"bsn,omitempty"`
	Baseline  string `json:"baseline,omitempty" yaml:"baseline,omitempty"`
	Qualifier string `json:"qualifier,omitempty" yaml:"qualifier,omitempty"`
	Title     string `json:"title,omitempty" yaml:"title,omitempty"`
	Size      int64  `json:"size,omitempty" yaml:"size,omitempty"`

	MD5    Digest   `json:"md5,omitempty" yaml:"md5,omitempty"`
	Hashes []string `json:"hashes,omitempty" yaml:"hashes,omitempty"`
	URLs   []string `json:"urls,omitempty" yaml:"urls,omitempty"`
	PomURL string   `json:"pomUrl,omitempty" yaml:"pomUrl,omitempty"`

	Phase          phase.Phase `json:"phase" yaml:"phase"`
	Message        string      `json:"message,omitempty" yaml:"message,omitempty"`
	ReleaseSummary string      `json:"releaseSummary,omitempty" yaml:"releaseSummary,omitempty"`
	Owner          string      `json:"owner,omitempty" yaml:"owner,omitempty"`
	Signers        []string    `json:"signers,omitempty" yaml:"signers,omitempty"`
	Created        time.Time   `json:"created" yaml:"created,omitempty"`
	Modified       time.Time   `json:"modified" yaml:"modified,omitempty"`
	Expire         time.Time   `json:"expire" yaml:"expire,omitempty"`

	Category []string `json:"category,omitempty" yaml:"category,omitempty"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Errors   []string `json:"errors,omitempty" yaml:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	Metadata     map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Requirements []Requirement     `json:"requirements,omitempty" yaml:"requirements,omitempty"`
	Capabilities []Capability      `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	Packages     []string          `json:"packages,omitempty" yaml:"packages,omitempty"`
	Repositories []string          `json:"repositories,omitempty" yaml:"repositories,omitempty"`
	MainClass    string            `json:"mainClass,omitempty" yaml:"mainClass,omitempty"`
	DocURL       string            `json:"docUrl,omitempty" yaml:"docUrl,omitempty"`
	Readme       string            `json:"readme,omitempty" yaml:"readme,omitempty"`
	Relocation   *Relocation       `json:"relocation,omitempty" yaml:"relocation,omitempty"`
}

// NewRevision creates a STAGING revision for the artifact with the given
// SHA-1 id and POM snapshot.
func NewRevision(id Digest, pom POM) (*Revision, error) {
	rev := &Revision{
		ID:    slices.Clone(id),
		POM:   pom,
		Phase: phase.Staging,
	}
	if err := rev.Validate(); err != nil {
		return nil, err
	}
	return rev, nil
}

// Validate checks the identity fields of the revision.
func (r *Revision) Validate() error {
	if !r.ID.IsSHA1() {
		return fmt.Errorf("%w: id %q is not a SHA-1 digest", ErrInvalidRevision, r.ID)
	}
	if !patterns.LibraryNameRegexp.MatchString(r.ArtifactID) {
		return fmt.Errorf("%w %s: bad artifactId %q", ErrInvalidRevision, r.ID, r.ArtifactID)
	}
	if r.GroupID != "" && !patterns.LibraryNameRegexp.MatchString(r.GroupID) {
		return fmt.Errorf("%w %s: bad groupId %q", ErrInvalidRevision, r.ID, r.GroupID)
	}
	if r.Classifier != "" && !patterns.LibraryNameRegexp.MatchString(r.Classifier) {
		return fmt.Errorf("%w %s: bad classifier %q", ErrInvalidRevision, r.ID, r.Classifier)
	}
	if !r.Phase.Valid() {
		return fmt.Errorf("%w %s: bad phase %v", ErrInvalidRevision, r.ID, r.Phase)
	}
	return nil
}

// ProgramKey returns the identity of the program owning the revision.
func (r *Revision) ProgramKey() ProgramKey {
	return ProgramKey{GroupID: r.GroupID, ArtifactID: r.ArtifactID}
}

// Coordinate returns the exact coordinate naming this revision. Staging
// revisions get the staging marker so the coordinate sees them.
func (r *Revision) Coordinate() string {
	return coordinate.Construct(r.GroupID, r.ArtifactID, r.Classifier, r.VersionString(), true, r.Phase.IsStaging())
}

// VersionString returns baseline plus qualifier, falling back to the POM
// version when no baseline was derived.
func (r *Revision) VersionString() string {
	return versionString(r.Baseline, r.Qualifier, r.POM.Version)
}

func versionString(baseline, qualifier, fallback string) string {
	switch {
	case baseline == "":
		return fallback
	case qualifier == "":
		return baseline
	default:
		return baseline + "." + qualifier
	}
}

// AddError records a validation error.
func (r *Revision) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// AddWarning records a validation warning.
func (r *Revision) AddWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// AddCategory adds categories, keeping the set sorted and unique.
func (r *Revision) AddCategory(names ...string) {
	r.Category = addToSet(r.Category, names...)
}

// AddKeywords adds keywords, keeping the set sorted and unique.
func (r *Revision) AddKeywords(words ...string) {
	r.Keywords = addToSet(r.Keywords, words...)
}

func addToSet(set []string, values ...string) []string {
	for _, v := range values {
		if v == "" {
			continue
		}
		if i, found := slices.BinarySearch(set, v); !found {
			set = slices.Insert(set, i, v)
		}
	}
	return set
}

// MergePOM copies POM fields onto rev where rev has none.
func MergePOM(rev *Revision, pom POM) {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&rev.GroupID, pom.GroupID)
	fill(&rev.ArtifactID, pom.ArtifactID)
	fill(&rev.POM.Version, pom.Version)
	fill(&rev.Classifier, pom.Classifier)
	fill(&rev.Packaging, pom.Packaging)
	fill(&rev.Name, pom.Name)
	fill(&rev.Description, pom.Description)
	if len(rev.Licenses) == 0 {
		rev.Licenses = slices.Clone(pom.Licenses)
	}
	if len(rev.Developers) == 0 {
		rev.Developers = slices.Clone(pom.Developers)
	}
	if rev.SCM == nil && pom.SCM != nil {
		scm := *pom.SCM
		rev.SCM = &scm
	}
}
