package doctor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSSHConfigCheck(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		check := &SSHConfigCheck{Path: filepath.Join(dir, "none")}
		if got := check.Run(); got.Status != StatusPass {
			t.Errorf("expected pass for a missing ssh config, got %v", got.Status)
		}
	})

	t.Run("hosts listed", func(t *testing.T) {
		path := filepath.Join(dir, "config")
		writeFile(t, path, "Host *\n  User nobody\n\nHost sens\n  HostName 10.0.0.7\n\nHost izalith\n  HostName 10.0.0.8\n", 0o644)

		result := (&SSHConfigCheck{Path: path}).Run()
		if result.Status != StatusPass {
			t.Fatalf("expected pass, got %v: %s", result.Status, result.Message)
		}
		if !strings.Contains(result.Message, "2 hosts") {
			t.Errorf("expected wildcard skipped, got %q", result.Message)
		}
	})

	t.Run("match block", func(t *testing.T) {
		path := filepath.Join(dir, "match")
		writeFile(t, path, "Host sens\n  HostName 10.0.0.7\n\nMatch host *.internal\n  User admin\n", 0o644)

		result := (&SSHConfigCheck{Path: path}).Run()
		if result.Status != StatusWarn {
			t.Fatalf("expected warn, got %v: %s", result.Status, result.Message)
		}
		if !strings.Contains(result.Message, "line 4") {
			t.Errorf("expected the Match line, got %q", result.Message)
		}
	})
}

func TestKnownHostsCheck(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "known_hosts")
	writeFile(t, existing, "", 0o600)

	tests := []struct {
		name    string
		check   KnownHostsCheck
		status  CheckStatus
		fixable bool
	}{
		{"present", KnownHostsCheck{Path: existing, Strict: true}, StatusPass, false},
		{"not strict", KnownHostsCheck{Path: existing}, StatusWarn, false},
		{"missing", KnownHostsCheck{Path: filepath.Join(dir, "ssh", "known_hosts"), Strict: true}, StatusWarn, true},
		{"directory", KnownHostsCheck{Path: dir, Strict: true}, StatusFail, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := tc.check.Run()
			if result.Status != tc.status {
				t.Errorf("expected %v, got %v: %s", tc.status, result.Status, result.Message)
			}
			if result.Fixable != tc.fixable {
				t.Errorf("expected fixable=%v", tc.fixable)
			}
		})
	}
}

func TestKnownHostsCheck_Fix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ssh", "known_hosts")
	check := &KnownHostsCheck{Path: path, Strict: true}

	if err := check.Fix(); err != nil {
		t.Fatalf("fix failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected known_hosts to exist: %v", err)
	}
	if got := check.Run(); got.Status != StatusPass {
		t.Errorf("expected pass after fix, got %v", got.Status)
	}
	if err := check.Fix(); err != nil {
		t.Errorf("second fix should be a no-op, got %v", err)
	}
}
