package memstore

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/albertocavalcante/go-jpm/library"
	"github.com/albertocavalcante/go-jpm/phase"
	"github.com/albertocavalcante/go-jpm/version"
)

// schema describes how a finder reads records of type T.
type schema[T any] struct {
	// field returns the value of one of fields.
	field func(v T, name string) (value any, ok bool)
	fields []string
	// timeField is the field From and Until apply to.
	timeField string
	text      func(v T) string
	template  func(v T, tmpl *library.Revision) bool
	// capabilities is nil for records that carry none.
	capabilities func(v T) []library.Capability
	clone        func(v T) T
}

var revisionSchema = schema[*library.Revision]{
	fields: []string{
		library.FieldBSN, library.FieldBaseline, library.FieldVersion, library.FieldQualifier, library.FieldCreated, library.FieldModified,
		library.FieldGroupID, library.FieldArtifactID, library.FieldClassifier, library.FieldPhase, library.FieldSize,
	},
	field: func(r *library.Revision, name string) (any, bool) {
		switch name {
		case library.FieldBSN:
			return r.BSN, true
		case library.FieldBaseline:
			return r.Baseline, true
		case library.FieldVersion:
			return r.POM.Version, true
		case library.FieldQualifier:
			return r.Qualifier, true
		case library.FieldCreated:
			return r.Created, true
		case library.FieldModified:
			return r.Modified, true
		case library.FieldGroupID:
			return r.GroupID, true
		case library.FieldArtifactID:
			return r.ArtifactID, true
		case library.FieldClassifier:
			return r.Classifier, true
		case library.FieldPhase:
			return r.Phase, true
		case library.FieldSize:
			return r.Size, true
		}
		return nil, false
	},
	timeField: library.FieldCreated,
	text: func(r *library.Revision) string {
		parts := []string{r.BSN, r.GroupID, r.ArtifactID, r.Name, r.Title, r.Description}
		parts = append(parts, r.Keywords...)
		parts = append(parts, r.Category...)
		return strings.ToLower(strings.Join(parts, " "))
	},
	template: func(r *library.Revision, t *library.Revision) bool {
		return (len(t.ID) == 0 || t.ID.Equal(r.ID)) &&
			matchesIfSet(t.GroupID, r.GroupID) &&
			matchesIfSet(t.ArtifactID, r.ArtifactID) &&
			matchesIfSet(t.Classifier, r.Classifier) &&
			matchesIfSet(t.BSN, r.BSN) &&
			matchesIfSet(t.Baseline, r.Baseline) &&
			matchesIfSet(t.Qualifier, r.Qualifier)
	},
	capabilities: func(r *library.Revision) []library.Capability { return r.Capabilities },
	clone:        cloneRevision,
}

var programSchema = schema[*library.Program]{
	fields: []string{library.FieldGroupID, library.FieldArtifactID, library.FieldModified},
	field: func(p *library.Program, name string) (any, bool) {
		switch name {
		case library.FieldGroupID:
			return p.GroupID, true
		case library.FieldArtifactID:
			return p.ArtifactID, true
		case library.FieldModified:
			return p.Modified, true
		}
		return nil, false
	},
	timeField: library.FieldModified,
	text: func(p *library.Program) string {
		parts := []string{p.GroupID, p.ArtifactID}
		parts = append(parts, p.Keywords...)
		parts = append(parts, p.Category...)
		return strings.ToLower(strings.Join(parts, " "))
	},
	template: func(p *library.Program, t *library.Revision) bool {
		return matchesIfSet(t.GroupID, p.GroupID) && matchesIfSet(t.ArtifactID, p.ArtifactID)
	},
	clone: cloneProgram,
}

func matchesIfSet(want, have string) bool {
	return want == "" || want == have
}

// finder implements library.Find over a snapshot taken at the terminal call.
type finder[T any] struct {
	c        library.Criteria
	schema   schema[T]
	snapshot func() []T
}

// FindRevision starts a revision query. Without an explicit order results
// come in id order.
func (s *Store) FindRevision() library.Find[*library.Revision] {
	return &finder[*library.Revision]{
		schema: revisionSchema,
		snapshot: func() []*library.Revision {
			s.mu.RLock()
			defer s.mu.RUnlock()
			out := make([]*library.Revision, 0, len(s.revisions))
			for _, k := range slices.Sorted(maps.Keys(s.revisions)) {
				out = append(out, s.revisions[k])
			}
			return out
		},
	}
}

// FindProgram starts a program query. Without an explicit order results
// come in groupId:artifactId order.
func (s *Store) FindProgram() library.Find[*library.Program] {
	return &finder[*library.Program]{
		schema: programSchema,
		snapshot: func() []*library.Program {
			s.mu.RLock()
			defer s.mu.RUnlock()
			out := make([]*library.Program, 0, len(s.programs))
			for _, p := range s.programs {
				out = append(out, p)
			}
			slices.SortFunc(out, func(a, b *library.Program) int {
				return cmp.Or(cmp.Compare(a.GroupID, b.GroupID), cmp.Compare(a.ArtifactID, b.ArtifactID))
			})
			return out
		},
	}
}

func (f *finder[T]) BSN(bsn string) library.Find[T] {
	f.c.BSN = bsn
	return f
}

func (f *finder[T]) Baseline(baseline string) library.Find[T] {
	f.c.Baseline = baseline
	return f
}

func (f *finder[T]) Version(v string) library.Find[T] {
	f.c.Version = v
	return f
}

func (f *finder[T]) Qualifier(qualifier string) library.Find[T] {
	f.c.Qualifier = qualifier
	return f
}

func (f *finder[T]) From(t time.Time) library.Find[T] {
	f.c.From = t
	return f
}

func (f *finder[T]) Until(t time.Time) library.Find[T] {
	f.c.Until = t
	return f
}

func (f *finder[T]) Skip(n int) library.Find[T] {
	if n < 0 {
		f.c.Fail(fmt.Errorf("skip %d: must not be negative", n))
	}
	f.c.Skip = n
	return f
}

func (f *finder[T]) Limit(n int) library.Find[T] {
	if n < 0 {
		f.c.Fail(fmt.Errorf("limit %d: must not be negative", n))
	}
	f.c.Limit = n
	return f
}

func (f *finder[T]) Ascending(field string) library.Find[T] {
	f.c.Order = append(f.c.Order, library.Order{Field: field})
	return f
}

func (f *finder[T]) Descending(field string) library.Find[T] {
	f.c.Order = append(f.c.Order, library.Order{Field: field, Descending: true})
	return f
}

func (f *finder[T]) Where(field string, values ...any) library.Find[T] {
	f.c.Where = append(f.c.Where, library.Clause{Field: field, Values: values})
	return f
}

func (f *finder[T]) Template(rev *library.Revision) library.Find[T] {
	if rev == nil {
		f.c.Fail(fmt.Errorf("template must not be nil"))
	}
	f.c.Template = rev
	return f
}

func (f *finder[T]) Query(text string) library.Find[T] {
	f.c.Text = text
	return f
}

func (f *finder[T]) Capability(ns, key string, value any) library.Find[T] {
	if f.schema.capabilities == nil {
		f.c.Fail(fmt.Errorf("capability filter: %w", library.ErrUnknownField))
	}
	f.c.Capabilities = append(f.c.Capabilities, library.CapabilityFilter{NS: ns, Key: key, Value: value})
	return f
}

// clauses turns the shorthand filters into where clauses.
func (f *finder[T]) clauses() []library.Clause {
	out := slices.Clone(f.c.Where)
	for _, c := range []struct{ field, value string }{
		{library.FieldBSN, f.c.BSN},
		{library.FieldBaseline, f.c.Baseline},
		{library.FieldVersion, f.c.Version},
		{library.FieldQualifier, f.c.Qualifier},
	} {
		if c.value != "" {
			out = append(out, library.Clause{Field: c.field, Values: []any{c.value}})
		}
	}
	return out
}

// validate checks every field name against the schema.
func (f *finder[T]) validate(clauses []library.Clause) error {
	for _, c := range clauses {
		if !slices.Contains(f.schema.fields, c.Field) {
			return fmt.Errorf("where %q: %w", c.Field, library.ErrUnknownField)
		}
	}
	for _, o := range f.c.Order {
		if !slices.Contains(f.schema.fields, o.Field) {
			return fmt.Errorf("order by %q: %w", o.Field, library.ErrUnknownField)
		}
	}
	return nil
}

func (f *finder[T]) matches(v T, clauses []library.Clause) bool {
	for _, c := range clauses {
		have, _ := f.schema.field(v, c.Field)
		if !slices.ContainsFunc(c.Values, func(want any) bool { return sameValue(have, want) }) {
			return false
		}
	}
	if !f.c.From.IsZero() || !f.c.Until.IsZero() {
		tv, _ := f.schema.field(v, f.schema.timeField)
		t := tv.(time.Time)
		if !f.c.From.IsZero() && t.Before(f.c.From) {
			return false
		}
		if !f.c.Until.IsZero() && !t.Before(f.c.Until) {
			return false
		}
	}
	if f.c.Template != nil && !f.schema.template(v, f.c.Template) {
		return false
	}
	if f.c.Text != "" {
		text := f.schema.text(v)
		for _, word := range strings.Fields(strings.ToLower(f.c.Text)) {
			if !strings.Contains(text, word) {
				return false
			}
		}
	}
	for _, cf := range f.c.Capabilities {
		if !slices.ContainsFunc(f.schema.capabilities(v), func(c library.Capability) bool {
			have, ok := c.Property(cf.Key)
			return c.NS == cf.NS && ok && sameValue(have, cf.Value)
		}) {
			return false
		}
	}
	return true
}

// sameValue compares a field value with a query argument by text form, so
// phase.Master and "MASTER" both select MASTER revisions.
func sameValue(have, want any) bool {
	if p, ok := have.(phase.Phase); ok {
		if s, ok := want.(string); ok {
			return strings.EqualFold(p.String(), s)
		}
	}
	return fmt.Sprint(have) == fmt.Sprint(want)
}

func compareField(field string, a, b any) int {
	switch x := a.(type) {
	case string:
		y := b.(string)
		if field == library.FieldBaseline || field == library.FieldVersion {
			return version.Compare(x, y)
		}
		return strings.Compare(x, y)
	case time.Time:
		return x.Compare(b.(time.Time))
	case int64:
		return cmp.Compare(x, b.(int64))
	case phase.Phase:
		return cmp.Compare(x, b.(phase.Phase))
	}
	return 0
}

// run evaluates the query and returns clones of the selected records.
func (f *finder[T]) run(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.c.Err != nil {
		return nil, f.c.Err
	}
	clauses := f.clauses()
	if err := f.validate(clauses); err != nil {
		return nil, err
	}
	var selected []T
	for _, v := range f.snapshot() {
		if f.matches(v, clauses) {
			selected = append(selected, v)
		}
	}
	if len(f.c.Order) > 0 {
		slices.SortStableFunc(selected, func(a, b T) int {
			for _, o := range f.c.Order {
				va, _ := f.schema.field(a, o.Field)
				vb, _ := f.schema.field(b, o.Field)
				c := compareField(o.Field, va, vb)
				if o.Descending {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
			return 0
		})
	}
	if f.c.Skip > 0 {
		selected = selected[min(f.c.Skip, len(selected)):]
	}
	if f.c.Limit > 0 && len(selected) > f.c.Limit {
		selected = selected[:f.c.Limit]
	}
	out := make([]T, len(selected))
	for i, v := range selected {
		out[i] = f.schema.clone(v)
	}
	return out, nil
}

func (f *finder[T]) One(ctx context.Context) (T, bool, error) {
	var zero T
	all, err := f.run(ctx)
	switch {
	case err != nil:
		return zero, false, err
	case len(all) == 0:
		return zero, false, nil
	case len(all) > 1:
		return zero, false, fmt.Errorf("%d records: %w", len(all), library.ErrNotUnique)
	}
	return all[0], true, nil
}

func (f *finder[T]) First(ctx context.Context) (T, bool, error) {
	var zero T
	all, err := f.run(ctx)
	if err != nil || len(all) == 0 {
		return zero, false, err
	}
	return all[0], true, nil
}

func (f *finder[T]) Count(ctx context.Context) (int, error) {
	all, err := f.run(ctx)
	return len(all), err
}

func (f *finder[T]) Each(ctx context.Context, visit func(T) bool) (bool, error) {
	all, err := f.run(ctx)
	if err != nil {
		return false, err
	}
	for _, v := range all {
		if !visit(v) {
			return false, nil
		}
	}
	return true, nil
}
