package library

import (
	"slices"
	"time"

	"github.com/albertocavalcante/go-jpm/coordinate"
	"github.com/albertocavalcante/go-jpm/phase"
)

// ProgramKey identifies a program: the group+artifact pair shared by all of
// its revisions.
type ProgramKey struct {
	GroupID    string
	ArtifactID string
}

// String returns "groupId:artifactId".
func (k ProgramKey) String() string {
	return k.GroupID + ":" + k.ArtifactID
}

// RevisionRef is the summary of a revision kept in program histories,
// install sets and closures.
type RevisionRef struct {
	Revision       Digest      `json:"revision" yaml:"revision"`
	URLs           []string    `json:"urls,omitempty" yaml:"urls,omitempty"`
	MD5            Digest      `json:"md5,omitempty" yaml:"md5,omitempty"`
	GroupID        string      `json:"groupId" yaml:"groupId"`
	ArtifactID     string      `json:"artifactId" yaml:"artifactId"`
	Version        string      `json:"version,omitempty" yaml:"version,omitempty"`
	Classifier     string      `json:"classifier,omitempty" yaml:"classifier,omitempty"`
	Packaging      string      `json:"packaging,omitempty" yaml:"packaging,omitempty"`
	BSN            string      `json:"bsn,omitempty" yaml:"bsn,omitempty"`
	Title          string      `json:"title,omitempty" yaml:"title,omitempty"`
	Name           string      `json:"name,omitempty" yaml:"name,omitempty"`
	Description    string      `json:"description,omitempty" yaml:"description,omitempty"`
	Baseline       string      `json:"baseline,omitempty" yaml:"baseline,omitempty"`
	Qualifier      string      `json:"qualifier,omitempty" yaml:"qualifier,omitempty"`
	Tag            string      `json:"tag,omitempty" yaml:"tag,omitempty"`
	Phase          phase.Phase `json:"phase" yaml:"phase"`
	ReleaseSummary string      `json:"releaseSummary,omitempty" yaml:"releaseSummary,omitempty"`
	Created        time.Time   `json:"created" yaml:"created,omitempty"`
	Errors         int         `json:"errors,omitempty" yaml:"errors,omitempty"`
	Size           int64       `json:"size,omitempty" yaml:"size,omitempty"`
}

// NewRevisionRef projects rev onto its summary.
func NewRevisionRef(rev *Revision) RevisionRef {
	ref := RevisionRef{
		Revision:       slices.Clone(rev.ID),
		URLs:           slices.Clone(rev.URLs),
		MD5:            slices.Clone(rev.MD5),
		GroupID:        rev.GroupID,
		ArtifactID:     rev.ArtifactID,
		Version:        rev.POM.Version,
		Classifier:     rev.Classifier,
		Packaging:      rev.Packaging,
		BSN:            rev.BSN,
		Title:          rev.Title,
		Name:           rev.Name,
		Description:    rev.Description,
		Baseline:       rev.Baseline,
		Qualifier:      rev.Qualifier,
		Phase:          rev.Phase,
		ReleaseSummary: rev.ReleaseSummary,
		Created:        rev.Created,
		Errors:         len(rev.Errors),
		Size:           rev.Size,
	}
	if rev.SCM != nil {
		ref.Tag = rev.SCM.Tag
	}
	return ref
}

// Coordinate returns the exact coordinate naming the referenced revision.
func (r RevisionRef) Coordinate() string {
	return coordinate.Construct(r.GroupID, r.ArtifactID, r.Classifier, r.VersionString(), true, r.Phase.IsStaging())
}

// VersionString returns baseline plus qualifier, or the POM version.
func (r RevisionRef) VersionString() string {
	return versionString(r.Baseline, r.Qualifier, r.Version)
}

// ProgramKey returns the identity of the owning program.
func (r RevisionRef) ProgramKey() ProgramKey {
	return ProgramKey{GroupID: r.GroupID, ArtifactID: r.ArtifactID}
}

// Wiki is the user editable text attached to a program.
type Wiki struct {
	Text     string    `json:"text,omitempty" yaml:"text,omitempty"`
	Modified time.Time `json:"modified" yaml:"modified,omitempty"`
}

// ClosureStats are the metrics the closure computation attaches to a
// program.
type ClosureStats struct {
	Depth     int      `json:"depth,omitempty" yaml:"depth,omitempty"`
	Weight    int      `json:"weight,omitempty" yaml:"weight,omitempty"`
	Rank      int      `json:"rank,omitempty" yaml:"rank,omitempty"`
	Vote      int      `json:"vote,omitempty" yaml:"vote,omitempty"`
	Inbound   []string `json:"inbound,omitempty" yaml:"inbound,omitempty"`
	Classpath []string `json:"classpath,omitempty" yaml:"classpath,omitempty"`
	Cycles    []string `json:"cycles,omitempty" yaml:"cycles,omitempty"`
	Overlap   []string `json:"overlap,omitempty" yaml:"overlap,omitempty"`
}

// Program aggregates all revisions sharing a group and artifact id.
type Program struct {
	GroupID     string        `json:"groupId" yaml:"groupId"`
	ArtifactID  string        `json:"artifactId" yaml:"artifactId"`
	Revisions   []RevisionRef `json:"revisions,omitempty" yaml:"revisions,omitempty"`
	Last        *RevisionRef  `json:"last,omitempty" yaml:"last,omitempty"`
	Category    []string      `json:"category,omitempty" yaml:"category,omitempty"`
	Keywords    []string      `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Classifiers []string      `json:"classifiers,omitempty" yaml:"classifiers,omitempty"`
	Icon        string        `json:"icon,omitempty" yaml:"icon,omitempty"`
	Home        string        `json:"home,omitempty" yaml:"home,omitempty"`
	Wiki        *Wiki         `json:"wiki,omitempty" yaml:"wiki,omitempty"`
	Modified    time.Time     `json:"modified" yaml:"modified,omitempty"`

	ClosureStats `yaml:",inline"`
}

// NewProgram returns an empty program for key.
func NewProgram(key ProgramKey) *Program {
	return &Program{GroupID: key.GroupID, ArtifactID: key.ArtifactID}
}

// Key returns the program identity.
func (p *Program) Key() ProgramKey {
	return ProgramKey{GroupID: p.GroupID, ArtifactID: p.ArtifactID}
}

// AddRevision records ref in the history, replacing an earlier ref with the
// same id, and tracks its classifier.
func (p *Program) AddRevision(ref RevisionRef) {
	i := slices.IndexFunc(p.Revisions, func(r RevisionRef) bool {
		return r.Revision.Equal(ref.Revision)
	})
	if i >= 0 {
		p.Revisions[i] = ref
	} else {
		p.Revisions = append(p.Revisions, ref)
	}
	p.Classifiers = addToSet(p.Classifiers, ref.Classifier)
}

// MergeClosure copies closure statistics onto p.
func MergeClosure(p *Program, stats ClosureStats) {
	p.Depth = stats.Depth
	p.Weight = stats.Weight
	p.Rank = stats.Rank
	p.Vote = stats.Vote
	p.Inbound = slices.Clone(stats.Inbound)
	p.Classpath = slices.Clone(stats.Classpath)
	p.Cycles = slices.Clone(stats.Cycles)
	p.Overlap = slices.Clone(stats.Overlap)
}
