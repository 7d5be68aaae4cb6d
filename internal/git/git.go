package git

import (
	"fmt"
	"os/exec"
	"strings"
)

// Status reports the git state of the timelock files
type Status struct {
	IsRepo          bool
	DatabaseTracked bool
	DatabaseIgnored bool
	KeystoreTracked bool
	KeystoreIgnored bool
	database        string
	keystore        string
}

// IsGitRepo checks if workDir is inside a git work tree
func IsGitRepo(workDir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = workDir
	return cmd.Run() == nil
}

// IsTracked checks if path, or anything below it, is tracked by git
func IsTracked(workDir, path string) bool {
	cmd := exec.Command("git", "ls-files", "--", path)
	cmd.Dir = workDir
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if path is ignored by any .gitignore
func IsIgnored(workDir, path string) bool {
	cmd := exec.Command("git", "check-ignore", "-q", "--", path)
	cmd.Dir = workDir
	return cmd.Run() == nil
}

// Check inspects database and keystore relative to workDir
func Check(workDir, database, keystore string) *Status {
	status := &Status{database: database, keystore: keystore}
	if !IsGitRepo(workDir) {
		return status
	}
	status.IsRepo = true
	status.DatabaseTracked = IsTracked(workDir, database)
	status.DatabaseIgnored = IsIgnored(workDir, database)
	status.KeystoreTracked = IsTracked(workDir, keystore)
	status.KeystoreIgnored = IsIgnored(workDir, keystore)
	return status
}

// Healthy reports whether nothing needs the user's attention
func (s *Status) Healthy() bool {
	return !s.IsRepo || (!s.DatabaseTracked && !s.KeystoreTracked && s.KeystoreIgnored)
}

// Format renders the status for display, "" outside a repository
func (s *Status) Format() string {
	if !s.IsRepo {
		return ""
	}

	var result strings.Builder
	result.WriteString("\nGit Integration:\n")

	switch {
	case s.KeystoreTracked:
		result.WriteString(fmt.Sprintf("   error: keystore %s is tracked by git (run: git rm -r --cached %s)\n", s.keystore, s.keystore))
	case !s.KeystoreIgnored:
		result.WriteString(fmt.Sprintf("   warning: keystore %s not in .gitignore\n", s.keystore))
	default:
		result.WriteString("   ok: keystore is ignored\n")
	}

	switch {
	case s.DatabaseTracked:
		result.WriteString(fmt.Sprintf("   warning: database %s is tracked by git (run: git rm --cached %s)\n", s.database, s.database))
	case !s.DatabaseIgnored:
		result.WriteString(fmt.Sprintf("   warning: database %s not in .gitignore\n", s.database))
	default:
		result.WriteString("   ok: database is ignored\n")
	}

	return result.String()
}
