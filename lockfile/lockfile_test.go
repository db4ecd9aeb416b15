package lockfile

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	gojpm "github.com/albertocavalcante/go-jpm"
	"github.com/albertocavalcante/go-jpm/coordinate"
	"github.com/albertocavalcante/go-jpm/library"
	"github.com/albertocavalcante/go-jpm/phase"
	"github.com/albertocavalcante/go-jpm/revisions"
)

func digest(b byte) library.Digest {
	return library.Digest(bytes.Repeat([]byte{b}, 20))
}

func mustLock(t *testing.T, entries map[string]Entry) *Lockfile {
	t.Helper()
	lf := New()
	for k, e := range entries {
		if err := lf.Set(k, e); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
	}
	return lf
}

func installSet(t *testing.T) *gojpm.InstallSet {
	t.Helper()
	entries := []gojpm.InstallEntry{
		{Coordinate: "org.foo:bar", Revision: library.RevisionRef{Revision: digest(2), Phase: phase.Master, BSN: "org.foo.bar"}},
		{Coordinate: "osgi:org.foo.bar", Revision: library.RevisionRef{Revision: digest(2), Phase: phase.Master, BSN: "org.foo.bar"}},
		{Coordinate: "tool@0.1*", Revision: library.RevisionRef{Revision: digest(7), Phase: phase.Staging}},
	}
	set, err := revisions.New(digest(2), digest(7))
	if err != nil {
		t.Fatal(err)
	}
	return &gojpm.InstallSet{Name: "tools", Entries: entries, Set: set}
}

func TestNew(t *testing.T) {
	lf := New()
	if lf.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", lf.Version, CurrentVersion)
	}
	if lf.Entries == nil {
		t.Error("Entries is nil")
	}
	if len(lf.SetID) != 0 {
		t.Errorf("SetID = %s, want empty", lf.SetID)
	}
}

func TestFromInstallSet(t *testing.T) {
	set := installSet(t)
	lf, err := FromInstallSet(set)
	if err != nil {
		t.Fatalf("FromInstallSet() error = %v", err)
	}
	if !lf.SetID.Equal(set.Set.ID) {
		t.Errorf("SetID = %s, want %s", lf.SetID, set.Set.ID)
	}
	e, ok := lf.Lookup("tool@0.1*")
	if !ok || !e.Revision.Equal(digest(7)) || e.Phase != phase.Staging {
		t.Errorf("Lookup(tool) = %+v, %v", e, ok)
	}
	want := []string{"org.foo:bar", "osgi:org.foo.bar", "tool@0.1*"}
	got := lf.Coordinates()
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("Coordinates() = %v, want %v", got, want)
	}

	tampered := installSet(t)
	tampered.Set.ID = digest(9)
	if _, err := FromInstallSet(tampered); !errors.Is(err, revisions.ErrMismatch) {
		t.Errorf("mismatched set error = %v, want ErrMismatch", err)
	}
	if _, err := FromInstallSet(nil); err == nil {
		t.Error("FromInstallSet(nil) should fail")
	}
}

func TestMarshalDeterministic(t *testing.T) {
	lf, err := FromInstallSet(installSet(t))
	if err != nil {
		t.Fatal(err)
	}
	first, err := lf.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	for range 5 {
		again, err := lf.Marshal()
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("Marshal() is not deterministic:\n%s\n%s", first, again)
		}
	}

	text := string(first)
	for _, want := range []string{`"version": 1`, `"setId": "` + lf.SetID.String() + `"`, `"phase": "MASTER"`, `"bsn": "org.foo.bar"`} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %s:\n%s", want, text)
		}
	}
	if strings.Index(text, `"org.foo:bar"`) > strings.Index(text, `"tool@0.1*"`) {
		t.Errorf("entries are not sorted:\n%s", text)
	}
	if strings.Index(text, `"version"`) > strings.Index(text, `"entries"`) {
		t.Errorf("version should come first:\n%s", text)
	}
}

func TestRoundTrip(t *testing.T) {
	lf, err := FromInstallSet(installSet(t))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), DefaultName)
	if err := lf.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if !Exists(path) {
		t.Fatal("Exists() = false after WriteFile")
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !got.SetID.Equal(lf.SetID) || len(got.Entries) != 3 {
		t.Errorf("ReadFile() = %+v", got)
	}
	if d := Compare(lf, got); !d.IsEmpty() {
		t.Errorf("round trip changed entries: %s", d.Summary())
	}

	var buf bytes.Buffer
	if _, err := lf.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(buf.Bytes()); err != nil {
		t.Errorf("Parse(WriteTo()) error = %v", err)
	}
}

func TestParseEmpty(t *testing.T) {
	lf, err := Parse([]byte(`{"version": 1, "entries": {}}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(lf.Entries) != 0 {
		t.Errorf("Entries = %v", lf.Entries)
	}
	out, err := New().Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "setId") {
		t.Errorf("empty lockfile should omit setId:\n%s", out)
	}
}

func TestParseErrors(t *testing.T) {
	good := digest(2).String()
	goodSet := good // a singleton set's id is its member
	tests := []struct {
		name string
		data string
		want error
	}{
		{"not json", `{`, nil},
		{"unknown field", `{"version": 1, "entries": {}, "extra": true}`, nil},
		{"version", `{"version": 2, "entries": {}}`, ErrVersion},
		{"bad coordinate", `{"version": 1, "setId": "` + goodSet + `", "entries": {"::": {"revision": "` + good + `", "phase": "MASTER"}}}`, coordinate.ErrMalformed},
		{"short revision", `{"version": 1, "entries": {"a": {"revision": "abcd", "phase": "MASTER"}}}`, library.ErrInvalidRevision},
		{"bad phase", `{"version": 1, "entries": {"a": {"revision": "` + good + `", "phase": "GONE"}}}`, nil},
		{"set mismatch", `{"version": 1, "setId": "` + digest(3).String() + `", "entries": {"a": {"revision": "` + good + `", "phase": "MASTER"}}}`, revisions.ErrMismatch},
		{"missing set", `{"version": 1, "entries": {"a": {"revision": "` + good + `", "phase": "MASTER"}}}`, revisions.ErrMismatch},
		{"set on empty", `{"version": 1, "setId": "` + good + `", "entries": {}}`, revisions.ErrMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("Parse() should fail")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.lock")); err == nil {
		t.Error("ReadFile(missing) should fail")
	}
}

func TestPins(t *testing.T) {
	lf := mustLock(t, map[string]Entry{
		"org.foo:bar": {Revision: digest(2), Phase: phase.Master},
		"org.foo:old": {Revision: digest(4), Phase: phase.Withdrawn},
	})
	pins, err := lf.Pins()
	if err != nil {
		t.Fatal(err)
	}
	if len(pins) != 2 {
		t.Fatalf("Pins() = %v", pins)
	}
	for _, p := range pins {
		if !p.IsSHA() {
			t.Errorf("pin %s is not a SHA coordinate", p)
		}
	}
	if pins[0].IsVisible(phase.Withdrawn) {
		t.Error("MASTER pin should not see WITHDRAWN")
	}
	if !pins[1].IsVisible(phase.Withdrawn) {
		t.Error("WITHDRAWN pin should see WITHDRAWN")
	}
}

func TestSetRejectsBadRevision(t *testing.T) {
	lf := New()
	if err := lf.Set("a", Entry{Revision: library.Digest{1, 2}}); !errors.Is(err, library.ErrInvalidRevision) {
		t.Errorf("Set() error = %v, want ErrInvalidRevision", err)
	}
}

func TestMerge(t *testing.T) {
	base := func() *Lockfile {
		return mustLock(t, map[string]Entry{
			"a": {Revision: digest(1), Phase: phase.Master},
			"b": {Revision: digest(2), Phase: phase.Master},
		})
	}
	other := mustLock(t, map[string]Entry{
		"b": {Revision: digest(2), Phase: phase.Master},
		"c": {Revision: digest(3), Phase: phase.Master},
	})
	conflicting := mustLock(t, map[string]Entry{
		"a": {Revision: digest(9), Phase: phase.Master},
	})

	t.Run("union", func(t *testing.T) {
		lf := base()
		if err := lf.Merge(other, DefaultMergeOptions()); err != nil {
			t.Fatalf("Merge() error = %v", err)
		}
		if got := strings.Join(lf.Coordinates(), ","); got != "a,b,c" {
			t.Errorf("Coordinates() = %s", got)
		}
		want, _ := revisions.New(digest(1), digest(2), digest(3))
		if !lf.SetID.Equal(want.ID) {
			t.Errorf("SetID = %s, want %s", lf.SetID, want.ID)
		}
	})

	t.Run("conflict", func(t *testing.T) {
		lf := base()
		before := lf.SetID
		if err := lf.Merge(conflicting, DefaultMergeOptions()); !errors.Is(err, ErrConflict) {
			t.Fatalf("Merge() error = %v, want ErrConflict", err)
		}
		if e, _ := lf.Lookup("a"); !e.Revision.Equal(digest(1)) || !lf.SetID.Equal(before) {
			t.Error("failed merge modified the lockfile")
		}
	})

	t.Run("prefer existing", func(t *testing.T) {
		lf := base()
		if err := lf.Merge(conflicting, MergeOptions{Strategy: MergePreferExisting}); err != nil {
			t.Fatal(err)
		}
		if e, _ := lf.Lookup("a"); !e.Revision.Equal(digest(1)) {
			t.Errorf("a = %s, want existing", e.Revision)
		}
	})

	t.Run("prefer new", func(t *testing.T) {
		lf := base()
		if err := lf.Merge(conflicting, MergeOptions{Strategy: MergePreferNew}); err != nil {
			t.Fatal(err)
		}
		if e, _ := lf.Lookup("a"); !e.Revision.Equal(digest(9)) {
			t.Errorf("a = %s, want new", e.Revision)
		}
	})

	t.Run("nil and version", func(t *testing.T) {
		lf := base()
		if err := lf.Merge(nil, DefaultMergeOptions()); err != nil {
			t.Errorf("Merge(nil) = %v", err)
		}
		future := New()
		future.Version = 2
		if err := lf.Merge(future, DefaultMergeOptions()); !errors.Is(err, ErrVersion) {
			t.Errorf("Merge(v2) error = %v, want ErrVersion", err)
		}
	})
}

func TestCompare(t *testing.T) {
	old := mustLock(t, map[string]Entry{
		"a": {Revision: digest(1), Phase: phase.Master},
		"b": {Revision: digest(2), Phase: phase.Staging},
		"c": {Revision: digest(3), Phase: phase.Master},
	})
	updated := mustLock(t, map[string]Entry{
		"a": {Revision: digest(1), Phase: phase.Master},
		"b": {Revision: digest(2), Phase: phase.Master},
		"d": {Revision: digest(4), Phase: phase.Master},
	})
	d := Compare(old, updated)
	if len(d.Added) != 1 || d.Added[0] != "d" {
		t.Errorf("Added = %v", d.Added)
	}
	if len(d.Removed) != 1 || d.Removed[0] != "c" {
		t.Errorf("Removed = %v", d.Removed)
	}
	if len(d.Changed) != 1 || d.Changed[0].Coordinate != "b" || d.Changed[0].New.Phase != phase.Master {
		t.Errorf("Changed = %+v", d.Changed)
	}
	summary := d.Summary()
	for _, want := range []string{"+ d", "- c", "~ b"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary() missing %q:\n%s", want, summary)
		}
	}
	if s := Compare(old, old).Summary(); s != "no changes" {
		t.Errorf("Summary() = %q", s)
	}
}

func TestPaths(t *testing.T) {
	if got := DefaultPath(""); got != "JPM.lock" {
		t.Errorf("DefaultPath(\"\") = %q", got)
	}
	if got := PathFor(filepath.Join("proj", "JPM.bazel")); got != filepath.Join("proj", "JPM.lock") {
		t.Errorf("PathFor() = %q", got)
	}
}
