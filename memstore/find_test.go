package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/albertocavalcante/go-jpm/library"
	"github.com/albertocavalcante/go-jpm/phase"
)

func seed(t *testing.T) *Store {
	t.Helper()
	s := New()
	mustPut(t, s, 1, "org.foo", "bar", "1.0.0", phase.Master)
	mustPut(t, s, 2, "org.foo", "bar", "1.10.0", phase.Master)
	mustPut(t, s, 3, "org.foo", "bar", "1.9.0", phase.Staging)
	mustPut(t, s, 4, "org.foo", "baz", "2.0.0", phase.Withdrawn)
	return s
}

func baselines(t *testing.T, f library.Find[*library.Revision]) []string {
	t.Helper()
	var out []string
	if _, err := f.Each(context.Background(), func(r *library.Revision) bool {
		out = append(out, r.Baseline)
		return true
	}); err != nil {
		t.Fatalf("Each: %v", err)
	}
	return out
}

func TestFindWhere(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	n, err := s.FindRevision().Where(library.FieldArtifactID, "bar").Count(ctx)
	if err != nil || n != 3 {
		t.Errorf("Count(bar) = %d, %v; want 3", n, err)
	}
	n, _ = s.FindRevision().Where(library.FieldPhase, phase.Master, phase.Staging).Count(ctx)
	if n != 3 {
		t.Errorf("Count(MASTER|STAGING) = %d, want 3", n)
	}
	n, _ = s.FindRevision().Where(library.FieldPhase, "withdrawn").Count(ctx)
	if n != 1 {
		t.Errorf("Count(withdrawn) = %d, want 1", n)
	}
	n, _ = s.FindRevision().BSN("org.foo.baz").Count(ctx)
	if n != 1 {
		t.Errorf("Count(bsn) = %d, want 1", n)
	}
}

func TestFindOrdering(t *testing.T) {
	s := seed(t)
	got := baselines(t, s.FindRevision().Where(library.FieldArtifactID, "bar").Descending(library.FieldBaseline))
	want := []string{"1.10.0", "1.9.0", "1.0.0"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
}

func TestFindSkipLimit(t *testing.T) {
	s := seed(t)
	got := baselines(t, s.FindRevision().Ascending(library.FieldCreated).Skip(1).Limit(2))
	if len(got) != 2 || got[0] != "1.10.0" || got[1] != "1.9.0" {
		t.Errorf("Skip(1).Limit(2) = %v", got)
	}
}

func TestFindTimeWindow(t *testing.T) {
	s := seed(t)
	from := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	n, err := s.FindRevision().From(from).Until(until).Count(context.Background())
	if err != nil || n != 2 {
		t.Errorf("Count(window) = %d, %v; want 2", n, err)
	}
}

func TestFindOneAndFirst(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	rev, ok, err := s.FindRevision().Where(library.FieldArtifactID, "baz").One(ctx)
	if err != nil || !ok || rev.Baseline != "2.0.0" {
		t.Errorf("One(baz) = %v, %v, %v", rev, ok, err)
	}
	_, _, err = s.FindRevision().Where(library.FieldArtifactID, "bar").One(ctx)
	if !errors.Is(err, library.ErrNotUnique) {
		t.Errorf("One(bar) error = %v, want ErrNotUnique", err)
	}
	_, ok, err = s.FindRevision().Where(library.FieldArtifactID, "none").First(ctx)
	if ok || err != nil {
		t.Errorf("First(none) = %v, %v; want absent", ok, err)
	}
}

func TestFindEachStops(t *testing.T) {
	s := seed(t)
	visited := 0
	done, err := s.FindRevision().Each(context.Background(), func(*library.Revision) bool {
		visited++
		return visited < 2
	})
	if err != nil || done || visited != 2 {
		t.Errorf("Each() = %v, %v after %d visits", done, err, visited)
	}
}

func TestFindTemplateAndQuery(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	n, _ := s.FindRevision().Template(&library.Revision{POM: library.POM{ArtifactID: "bar"}, Baseline: "1.9.0"}).Count(ctx)
	if n != 1 {
		t.Errorf("Count(template) = %d, want 1", n)
	}
	n, _ = s.FindRevision().Query("ORG.FOO baz").Count(ctx)
	if n != 1 {
		t.Errorf("Count(query) = %d, want 1", n)
	}
}

func TestFindCapability(t *testing.T) {
	ctx := context.Background()
	s := New()
	rev, _ := library.NewRevision(digest(1), library.POM{ArtifactID: "svc"})
	rev.Capabilities = []library.Capability{{NS: "osgi.service", PS: map[string]any{"objectClass": "org.foo.Api"}}}
	if err := s.Put(ctx, rev); err != nil {
		t.Fatal(err)
	}
	n, err := s.FindRevision().Capability("osgi.service", "objectClass", "org.foo.Api").Count(ctx)
	if err != nil || n != 1 {
		t.Errorf("Count(capability) = %d, %v; want 1", n, err)
	}
	n, _ = s.FindRevision().Capability("osgi.service", "objectClass", "other").Count(ctx)
	if n != 0 {
		t.Errorf("Count(other capability) = %d, want 0", n)
	}
}

func TestFindErrorsSurfaceAtTerminal(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	tests := []struct {
		name string
		find library.Find[*library.Revision]
		want error
	}{
		{"unknown where", s.FindRevision().Where("color", "red"), library.ErrUnknownField},
		{"unknown order", s.FindRevision().Ascending("color"), library.ErrUnknownField},
		{"negative limit", s.FindRevision().Limit(-1), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.find.Count(ctx)
			if err == nil {
				t.Fatal("Count() should fail")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Count() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := s.FindProgram().Capability("ns", "k", "v").Count(ctx); !errors.Is(err, library.ErrUnknownField) {
		t.Errorf("program capability error = %v, want ErrUnknownField", err)
	}
	if _, err := s.FindProgram().BSN("x").Count(ctx); !errors.Is(err, library.ErrUnknownField) {
		t.Errorf("program bsn error = %v, want ErrUnknownField", err)
	}
}

func TestFindProgram(t *testing.T) {
	s := seed(t)
	var keys []string
	_, err := s.FindProgram().Each(context.Background(), func(p *library.Program) bool {
		keys = append(keys, p.Key().String())
		return true
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "org.foo:bar" || keys[1] != "org.foo:baz" {
		t.Errorf("programs = %v", keys)
	}
}

func TestFindCanceledContext(t *testing.T) {
	s := seed(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.FindRevision().Count(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Count() error = %v, want context.Canceled", err)
	}
}
