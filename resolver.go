package gojpm

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/albertocavalcante/go-jpm/coordinate"
	"github.com/albertocavalcante/go-jpm/library"
	"github.com/albertocavalcante/go-jpm/phase"
	"github.com/albertocavalcante/go-jpm/revisions"
	"github.com/albertocavalcante/go-jpm/version"
)

// Resolver turns coordinates into revisions drawn from a store.
// A Resolver is safe for concurrent use when its store is.
type Resolver struct {
	store library.RevisionStore
	cfg   *resolverConfig
}

// NewResolver creates a resolver over store.
func NewResolver(store library.RevisionStore, opts ...Option) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("revision store must not be nil")
	}
	cfg, err := newResolverConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &Resolver{store: store, cfg: cfg}, nil
}

// Strategy returns the configured pick strategy.
func (r *Resolver) Strategy() Strategy {
	return r.cfg.strategy
}

// ResolveString parses s and resolves it.
func (r *Resolver) ResolveString(ctx context.Context, s string) (*library.Revision, error) {
	c, err := coordinate.Parse(s)
	if err != nil {
		return nil, err
	}
	return r.Resolve(ctx, c)
}

// Resolve returns the revision c names, or nil when no visible revision
// matches.
//
// SHA coordinates name one artifact directly, so phase visibility does not
// apply to them, except that WITHDRAWN revisions stay hidden unless the
// coordinate makes WITHDRAWN visible or WithAllowWithdrawnPins is set.
func (r *Resolver) Resolve(ctx context.Context, c coordinate.Coordinate) (*library.Revision, error) {
	if c.IsZero() {
		return nil, errors.New("resolve: zero coordinate")
	}
	log := r.cfg.log().With(slog.String("coordinate", c.String()))

	if c.IsSHA() {
		return r.resolvePin(ctx, c, log)
	}

	candidates, err := r.Candidates(ctx, c)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		log.DebugContext(ctx, "no visible revision", slog.String("phases", c.Phases().String()))
		return nil, nil
	}
	pick := candidates[len(candidates)-1]
	if r.cfg.strategy == StrategyLowest {
		pick = candidates[0]
	}
	log.DebugContext(ctx, "resolved",
		slog.String("revision", pick.ID.String()),
		slog.String("version", pick.VersionString()),
		slog.String("phase", pick.Phase.String()),
		slog.Int("candidates", len(candidates)))
	return pick, nil
}

func (r *Resolver) resolvePin(ctx context.Context, c coordinate.Coordinate, log *slog.Logger) (*library.Revision, error) {
	id, err := c.SHA()
	if err != nil {
		return nil, err
	}
	rev, err := r.store.Revision(ctx, library.Digest(id))
	if errors.Is(err, library.ErrNotFound) {
		log.DebugContext(ctx, "pinned revision not found")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", c, err)
	}
	if rev.Phase == phase.Withdrawn && !c.IsVisible(phase.Withdrawn) && !r.cfg.allowWithdrawnPins {
		log.WarnContext(ctx, "pinned revision is withdrawn")
		return nil, nil
	}
	return rev, nil
}

// Candidates returns every visible revision matching c, in ascending version
// order. A SHA coordinate yields at most its pinned revision.
func (r *Resolver) Candidates(ctx context.Context, c coordinate.Coordinate) ([]*library.Revision, error) {
	if c.IsSHA() {
		rev, err := r.resolvePin(ctx, c, r.cfg.log())
		if err != nil || rev == nil {
			return nil, err
		}
		return []*library.Revision{rev}, nil
	}

	phases := c.Phases().Phases()
	visible := make([]any, len(phases))
	for i, p := range phases {
		visible[i] = p
	}
	find := r.store.FindRevision().
		Where(library.FieldClassifier, c.Classifier()).
		Where(library.FieldPhase, visible...)
	switch c.Group() {
	case coordinate.OSGi:
		find = find.Where(library.FieldBSN, c.ArtifactID())
	default:
		find = find.Where(library.FieldGroupID, c.GroupID()).Where(library.FieldArtifactID, c.ArtifactID())
	}

	want, err := requested(c)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		rev *library.Revision
		v   version.Version
	}
	var matches []candidate
	_, err = find.Each(ctx, func(rev *library.Revision) bool {
		v, err := revisionVersion(rev)
		if err != nil {
			r.cfg.log().DebugContext(ctx, "skipping revision with unparseable version",
				slog.String("revision", rev.ID.String()), slog.Any("error", err))
			return true
		}
		if want != nil && !accepts(c, *want, v) {
			return true
		}
		matches = append(matches, candidate{rev: rev, v: v})
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", c, err)
	}

	slices.SortStableFunc(matches, func(a, b candidate) int {
		return cmp.Or(
			a.v.Compare(b.v),
			a.rev.Created.Compare(b.rev.Created),
			revisions.Compare(a.rev.ID, b.rev.ID),
		)
	})
	out := make([]*library.Revision, len(matches))
	for i, m := range matches {
		out[i] = m.rev
	}
	return out, nil
}

// requested returns the version a coordinate asks for, nil for any.
func requested(c coordinate.Coordinate) (*version.Version, error) {
	if !c.HasVersion() {
		return nil, nil
	}
	v, err := version.Of(c.Baseline(), c.Qualifier())
	if err != nil {
		return nil, fmt.Errorf("coordinate %s: %w", c, err)
	}
	return &v, nil
}

// revisionVersion prefers the derived baseline and qualifier over the POM
// version.
func revisionVersion(rev *library.Revision) (version.Version, error) {
	if rev.Baseline != "" {
		return version.Of(rev.Baseline, rev.Qualifier)
	}
	return version.Parse(rev.POM.Version)
}

// accepts applies the version part of c. Exact coordinates need the same
// baseline, and the same qualifier when they name one; others accept any
// version at or above the requested one.
func accepts(c coordinate.Coordinate, want, have version.Version) bool {
	if c.IsExact() {
		if have.Baseline() != want.Baseline() {
			return false
		}
		return want.Qualifier == "" || have.Qualifier == want.Qualifier
	}
	return have.Compare(want) >= 0
}
