package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func gitInit(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	cmd := exec.Command("git", "init", "-q")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git init: %v: %s", err, out)
	}
	return dir
}

func TestCheckOutsideRepo(t *testing.T) {
	s := Check(t.TempDir(), ".timelock", ".timelock-keys")
	if s.IsRepo {
		t.Skip("temp dir is inside a git work tree")
	}
	if !s.Healthy() || s.Format() != "" {
		t.Error("outside a repo there is nothing to report")
	}
}

func TestCheckIgnored(t *testing.T) {
	dir := gitInit(t)
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(".timelock\n.timelock-keys/\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, ".timelock-keys"), 0700); err != nil {
		t.Fatal(err)
	}

	s := Check(dir, ".timelock", ".timelock-keys")
	if !s.IsRepo {
		t.Fatal("expected a repo")
	}
	if !s.Healthy() {
		t.Errorf("expected healthy status: %+v", s)
	}
	if !strings.Contains(s.Format(), "ok: keystore is ignored") {
		t.Errorf("got %q", s.Format())
	}
}

func TestCheckUnignored(t *testing.T) {
	dir := gitInit(t)

	s := Check(dir, ".timelock", ".timelock-keys")
	if s.Healthy() {
		t.Error("unignored keystore must not be healthy")
	}
	out := s.Format()
	if !strings.Contains(out, "warning: keystore .timelock-keys not in .gitignore") {
		t.Errorf("got %q", out)
	}
	if !strings.Contains(out, "warning: database .timelock not in .gitignore") {
		t.Errorf("got %q", out)
	}
}
