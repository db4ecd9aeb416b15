// Package gojpm resolves jpm coordinates to library revisions.
//
// A coordinate such as "org.foo:bar@1.2*" names a program, an optional
// version floor and the phases a revision may be in. The Resolver queries a
// library.RevisionStore for the revisions a coordinate can see and picks one.
//
// # Quick Start
//
//	store, err := memstore.LoadYAMLFile(ctx, "repo.yaml")
//	r, err := gojpm.NewResolver(store)
//
//	// One coordinate; nil when nothing is visible.
//	rev, err := r.ResolveString(ctx, "org.foo:bar@1.2")
//
//	// Many coordinates as one content addressed install set.
//	set, err := r.ResolveAll(ctx, coordinate.MustParse("org.foo:bar"), coordinate.MustParse("org.foo:baz@2"))
//
//	// A manifest file.
//	set, err := r.InstallFile(ctx, "JPM.bazel")
//
// # Revision Identity
//
// Install sets carry a revisions.Set whose id is the SHA-1 of the sorted
// member ids, so the same selection always has the same id no matter the
// order it was requested in.
//
// # Thread Safety
//
// Resolver is safe for concurrent use when its store is.
package gojpm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/albertocavalcante/go-jpm/coordinate"
	"github.com/albertocavalcante/go-jpm/library"
	"github.com/albertocavalcante/go-jpm/manifest"
	"github.com/albertocavalcante/go-jpm/revisions"
)

// request is one coordinate to resolve as part of a set.
type request struct {
	coord    coordinate.Coordinate
	optional bool
}

// ResolveAll resolves every coordinate into one install set. If any
// coordinate matches nothing the error is an *UnresolvedError listing all
// of them.
func (r *Resolver) ResolveAll(ctx context.Context, coords ...coordinate.Coordinate) (*InstallSet, error) {
	reqs := make([]request, len(coords))
	for i, c := range coords {
		reqs[i] = request{coord: c}
	}
	return r.resolveSet(ctx, "", reqs)
}

// Install resolves a manifest. Optional artifacts that match nothing are
// listed in InstallSet.Skipped instead of failing the install.
func (r *Resolver) Install(ctx context.Context, m *manifest.Manifest) (*InstallSet, error) {
	if m == nil {
		return nil, errors.New("install: nil manifest")
	}
	reqs := make([]request, len(m.Artifacts))
	for i, a := range m.Artifacts {
		reqs[i] = request{coord: a.Coordinate, optional: a.Optional}
	}
	set, err := r.resolveSet(ctx, m.Name, reqs)
	if err != nil {
		return nil, fmt.Errorf("install %s: %w", m.Name, err)
	}
	return set, nil
}

// InstallFile parses a manifest file and installs it.
func (r *Resolver) InstallFile(ctx context.Context, path string) (*InstallSet, error) {
	m, err := manifest.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return r.Install(ctx, m)
}

func (r *Resolver) resolveSet(ctx context.Context, name string, reqs []request) (*InstallSet, error) {
	if len(reqs) == 0 {
		return nil, revisions.ErrEmpty
	}

	type result struct {
		rev *library.Revision
		err error
	}
	results := make([]result, len(reqs))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.cfg.concurrency)
	for i, req := range reqs {
		wg.Add(1)
		go func(idx int, c coordinate.Coordinate) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[idx].err = ctx.Err()
				return
			}
			defer func() { <-sem }()

			rev, err := r.Resolve(ctx, c)
			if err != nil {
				cancel()
			}
			results[idx] = result{rev: rev, err: err}
		}(i, req.coord)
	}
	wg.Wait()

	var (
		entries    []InstallEntry
		skipped    []string
		unresolved []string
		errs       []error
	)
	for i, res := range results {
		req := reqs[i]
		switch {
		case res.err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", req.coord, res.err))
		case res.rev == nil && req.optional:
			r.cfg.log().WarnContext(ctx, "optional coordinate matched nothing", slog.String("coordinate", req.coord.String()))
			skipped = append(skipped, req.coord.String())
		case res.rev == nil:
			unresolved = append(unresolved, req.coord.String())
		default:
			entries = append(entries, InstallEntry{
				Coordinate: req.coord.String(),
				Revision:   library.NewRevisionRef(res.rev),
				Optional:   req.optional,
			})
		}
	}
	// A cancellation caused by the first failure is noise next to it.
	if cause := firstRealError(errs); cause != nil {
		return nil, cause
	}
	if len(unresolved) > 0 {
		return nil, &UnresolvedError{Coordinates: unresolved}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("every coordinate was optional and skipped: %w", revisions.ErrEmpty)
	}
	return newInstallSet(name, entries, skipped)
}

func firstRealError(errs []error) error {
	for _, err := range errs {
		if !errors.Is(err, context.Canceled) {
			return err
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// ResolveClosure resolves c and adds the revisions of its dependency closure,
// as reported by the ClosureProvider. optionals includes optional
// dependencies.
func (r *Resolver) ResolveClosure(ctx context.Context, c coordinate.Coordinate, optionals bool) (*InstallSet, error) {
	if r.cfg.closures == nil {
		return nil, fmt.Errorf("resolve closure: closure provider %w", ErrNotConfigured)
	}
	root, err := r.Resolve(ctx, c)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, &UnresolvedError{Coordinates: []string{c.String()}}
	}
	refs, err := r.cfg.closures.Closure(ctx, root.ID, optionals)
	if err != nil {
		return nil, fmt.Errorf("closure of %s: %w", c, err)
	}

	entries := []InstallEntry{{Coordinate: c.String(), Revision: library.NewRevisionRef(root)}}
	for _, ref := range refs {
		if ref.Revision.Equal(root.ID) {
			continue
		}
		entries = append(entries, InstallEntry{
			Coordinate: ref.Coordinate(),
			Revision:   ref,
			Closure:    true,
		})
	}
	r.cfg.log().DebugContext(ctx, "resolved closure",
		slog.String("coordinate", c.String()),
		slog.Int("revisions", len(entries)))
	return newInstallSet("", entries, nil)
}

// Rescan resolves c and queues a scan of the chosen revision's first URL.
// It returns the revision that was queued, or nil when c matches nothing.
func (r *Resolver) Rescan(ctx context.Context, c coordinate.Coordinate, message string) (*library.Revision, error) {
	if r.cfg.scans == nil {
		return nil, fmt.Errorf("rescan: scan queue %w", ErrNotConfigured)
	}
	rev, err := r.Resolve(ctx, c)
	if err != nil || rev == nil {
		return nil, err
	}
	if len(rev.URLs) == 0 {
		return nil, fmt.Errorf("rescan %s: %w", rev.ID, ErrNoURL)
	}
	req := library.ScanRequest{
		URL:     rev.URLs[0],
		Unique:  true,
		SHA:     rev.ID,
		Message: message,
		Phase:   rev.Phase,
		OSGi:    rev.BSN != "",
	}
	if err := r.cfg.scans.QueueScan(ctx, req); err != nil {
		return nil, fmt.Errorf("rescan %s: %w", rev.ID, err)
	}
	r.cfg.log().InfoContext(ctx, "queued scan",
		slog.String("revision", rev.ID.String()),
		slog.String("url", req.URL))
	return rev, nil
}

// Persist stores the revisions set of an install set and returns it as
// stored.
func (r *Resolver) Persist(ctx context.Context, set *InstallSet) (revisions.Set, error) {
	if r.cfg.sets == nil {
		return revisions.Set{}, fmt.Errorf("persist: revision set store %w", ErrNotConfigured)
	}
	if set == nil || set.Set.IsZero() {
		return revisions.Set{}, fmt.Errorf("persist: %w", revisions.ErrEmpty)
	}
	stored, err := r.cfg.sets.CreateRevisions(ctx, set.Set)
	if err != nil {
		return revisions.Set{}, fmt.Errorf("persist %s: %w", set.Set.ID, err)
	}
	return stored, nil
}
