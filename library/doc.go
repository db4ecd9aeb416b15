// Package library defines the records kept by an artifact library and the
// narrow ports through which the resolver reaches the backing repository.
//
// # Records
//
//   - [Revision]: one immutable, content addressed artifact version
//   - [RevisionRef]: a summary projection of a Revision
//   - [Program]: the group+artifact identity owning a history of revisions
//   - [Requirement] and [Capability]: namespaced dependency metadata
//
// A Revision's [Digest] id is fixed at creation. Its phase, message,
// categories, keywords and validation findings change only through explicit
// calls; none of them alter the id.
//
// # Ports
//
// The resolver depends on the repository only through these interfaces:
//
//   - [Find]: chainable filter/sort/paginate query over revisions or programs
//   - [RevisionStore] and [ProgramStore]: lookups and phase changes
//   - [ClosureProvider]: externally computed dependency closures
//   - [ScanQueue]: requests to (re)scan an artifact URL
//
// Phase changes must be atomic and serialized per program identity by the
// store implementing [RevisionStore].
package library
