package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	gojpm "github.com/albertocavalcante/go-jpm"
	"github.com/albertocavalcante/go-jpm/codec"
	"github.com/albertocavalcante/go-jpm/lockfile"
)

const repoYAML = `revisions:
  - id: 0101010101010101010101010101010101010101
    groupId: org.foo
    artifactId: bar
    baseline: 1.0.0
    phase: MASTER
  - id: 0202020202020202020202020202020202020202
    groupId: org.foo
    artifactId: bar
    baseline: 1.2.0
    phase: MASTER
  - id: 0303030303030303030303030303030303030303
    groupId: org.foo
    artifactId: bar
    baseline: 1.3.0
    phase: STAGING
  - id: 0404040404040404040404040404040404040404
    groupId: org.foo
    artifactId: baz
    baseline: 2.0.0
    phase: MASTER
closures:
  0202020202020202020202020202020202020202:
    required: [0404040404040404040404040404040404040404]
`

// workspace creates an isolated directory holding repo.yaml and makes it
// the working directory.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	if err := os.WriteFile(filepath.Join(dir, "repo.yaml"), []byte(repoYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestParseCommand(t *testing.T) {
	workspace(t)
	out, _, err := run(t, "parse", "org.foo:bar:sources@1.2.3*")
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}
	for _, want := range []string{"MAVEN", "sources", "1.2.3", "STAGING"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, _, err = run(t, "parse", "-o", "json", "tool@1")
	if err != nil {
		t.Fatal(err)
	}
	var views []coordinateView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("json output: %v\n%s", err, out)
	}
	if len(views) != 1 || views[0].Group != "SIMPLE" || views[0].Baseline != "1.0.0" || !views[0].Exact {
		t.Errorf("views = %+v", views)
	}

	if _, _, err := run(t, "parse", "org foo"); err == nil {
		t.Error("parse of a malformed coordinate should fail")
	}
}

func TestPhasesCommand(t *testing.T) {
	workspace(t)
	out, _, err := run(t, "phases", "--output", "yaml")
	if err != nil {
		t.Fatalf("phases error = %v", err)
	}
	var views []phaseView
	if err := yaml.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("yaml output: %v\n%s", err, out)
	}
	found := false
	for _, v := range views {
		if v.Name == "MASTER" {
			found = true
			if !v.Locked || !v.Listable {
				t.Errorf("MASTER = %+v", v)
			}
		}
	}
	if !found {
		t.Errorf("MASTER missing from %+v", views)
	}

	out, _, err = run(t, "phases")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "PHASE") {
		t.Errorf("table output:\n%s", out)
	}
}

func TestChecksumCommand(t *testing.T) {
	workspace(t)
	ones := strings.Repeat("01", 20)
	highs := strings.Repeat("80", 20)
	out, _, err := run(t, "checksum", highs, ones)
	if err != nil {
		t.Fatalf("checksum error = %v", err)
	}
	if strings.TrimSpace(out) != "4197933a46c2578cb8fd06acdd8bb910aa26b30c" {
		t.Errorf("checksum = %q", out)
	}
	if _, _, err := run(t, "checksum", "abcd"); err == nil {
		t.Error("checksum of a short id should fail")
	}
}

func TestResolveCommand(t *testing.T) {
	workspace(t)
	out, _, err := run(t, "resolve", "--repo", "repo.yaml", "org.foo:bar", "org.foo:bar@1.0*")
	if err != nil {
		t.Fatalf("resolve error = %v", err)
	}
	if !strings.Contains(out, strings.Repeat("02", 20)) || !strings.Contains(out, strings.Repeat("03", 20)) {
		t.Errorf("resolve output:\n%s", out)
	}

	_, _, err = run(t, "resolve", "--repo", "repo.yaml", "org.foo:nope")
	if !errors.Is(err, gojpm.ErrUnresolved) {
		t.Errorf("resolve(nope) error = %v, want ErrUnresolved", err)
	}

	if _, _, err := run(t, "resolve", "org.foo:bar"); err == nil {
		t.Error("resolve without a repository should fail")
	}
}

func TestResolveClosureCommand(t *testing.T) {
	workspace(t)
	out, _, err := run(t, "resolve", "--repo", "repo.yaml", "--closure", "-o", "json", "org.foo:bar")
	if err != nil {
		t.Fatalf("resolve --closure error = %v", err)
	}
	var set gojpm.InstallSet
	if err := json.Unmarshal([]byte(out), &set); err != nil {
		t.Fatalf("json output: %v\n%s", err, out)
	}
	if len(set.Entries) != 2 || !set.Entries[1].Closure {
		t.Errorf("entries = %+v", set.Entries)
	}
}

func TestConfigFileAndEnv(t *testing.T) {
	dir := workspace(t)
	if err := os.WriteFile(filepath.Join(dir, ".jpmcoord.yaml"), []byte("repo: repo.yaml\nstrategy: lowest\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _, err := run(t, "resolve", "org.foo:bar@1.0*")
	if err != nil {
		t.Fatalf("resolve error = %v", err)
	}
	if !strings.Contains(out, strings.Repeat("01", 20)) {
		t.Errorf("lowest strategy from config file not applied:\n%s", out)
	}

	t.Setenv("JPMCOORD_STRATEGY", "highest")
	out, _, err = run(t, "resolve", "org.foo:bar@1.0*")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, strings.Repeat("03", 20)) {
		t.Errorf("env override not applied:\n%s", out)
	}

	if _, _, err := run(t, "phases", "-o", "xml"); err == nil {
		t.Error("unknown output format should fail")
	}
}

func TestVerboseLogging(t *testing.T) {
	workspace(t)
	_, stderr, err := run(t, "resolve", "-v", "--repo", "repo.yaml", "org.foo:bar")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, "loaded repository") || !strings.Contains(stderr, "level=DEBUG") {
		t.Errorf("stderr:\n%s", stderr)
	}
}

func TestInstallCommand(t *testing.T) {
	dir := workspace(t)
	manifestPath := filepath.Join(dir, "JPM.bazel")
	src := `install_set(name = "tools")
artifact("org.foo:bar@1.0")
artifact("org.foo:baz")
artifact(coordinate = "org.foo:extra", optional = True)
`
	if err := os.WriteFile(manifestPath, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	lockPath := filepath.Join(dir, "JPM.lock")
	setPath := filepath.Join(dir, "set.cbor")

	out, _, err := run(t, "install", "--repo", "repo.yaml", "-m", manifestPath, "--lock", lockPath, "--set-out", setPath)
	if err != nil {
		t.Fatalf("install error = %v", err)
	}
	if !strings.Contains(out, "skipped") {
		t.Errorf("install output should list the skipped optional:\n%s", out)
	}

	lf, err := lockfile.ReadFile(lockPath)
	if err != nil {
		t.Fatalf("ReadFile(lock) error = %v", err)
	}
	if len(lf.Entries) != 2 {
		t.Errorf("lock entries = %v", lf.Coordinates())
	}

	data, err := os.ReadFile(setPath)
	if err != nil {
		t.Fatal(err)
	}
	set, err := codec.DecodeSet(data)
	if err != nil {
		t.Fatalf("DecodeSet() error = %v", err)
	}
	if !set.ID.Equal(lf.SetID) {
		t.Errorf("cbor set %s != lock set %s", set.ID, lf.SetID)
	}

	if _, _, err := run(t, "install", "--repo", "repo.yaml", "-m", manifestPath, "--lock", lockPath, "--check"); err != nil {
		t.Errorf("install --check on a fresh lock = %v", err)
	}

	changed := strings.Replace(src, "org.foo:bar@1.0", "org.foo:bar", 1)
	if err := os.WriteFile(manifestPath, []byte(changed), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err = run(t, "install", "--repo", "repo.yaml", "-m", manifestPath, "--lock", lockPath, "--check")
	if err == nil || !strings.Contains(err.Error(), "out of date") {
		t.Errorf("install --check after a manifest change = %v", err)
	}

	if _, _, err := run(t, "install", "--repo", "repo.yaml"); err == nil {
		t.Error("install without --manifest should fail")
	}
}
