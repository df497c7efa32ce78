package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("BASTION_POLICY_FILE", "")
	t.Setenv("BASTION_LOG_LEVEL", "error")
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestNoCommand(t *testing.T) {
	code, _, stderr := runCLI(t)
	if code != 2 || !strings.Contains(stderr, "usage") {
		t.Fatalf("expected usage and exit 2, got %d %q", code, stderr)
	}
}

func TestLint(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte("policies:\n  - {role: platform-admin, resource: users, action: read}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	code, stdout, _ := runCLI(t, "lint", good)
	if code != 0 || !strings.Contains(stdout, "ok (1 entries)") {
		t.Fatalf("lint good: %d %q", code, stdout)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("policies:\n  - {role: root, resource: users, action: read}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if code, _, _ := runCLI(t, "lint", bad); code != 2 {
		t.Fatalf("lint bad: expected exit 2, got %d", code)
	}
}

func TestDumpDefault(t *testing.T) {
	code, stdout, _ := runCLI(t, "dump")
	if code != 0 || !strings.Contains(stdout, "platform-engineer") {
		t.Fatalf("dump: %d %q", code, stdout)
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{
			name:     "granted tenant permission",
			args:     []string{"--role", "vendor-admin", "--tenant", "acme", "--resource", "quotes", "--action", "write", "--grant", "quotes.create", "--require", "quotes.create"},
			wantCode: 0,
			wantOut:  `"allowed": true`,
		},
		{
			name:     "missing tenant permission",
			args:     []string{"--role", "vendor-admin", "--tenant", "acme", "--resource", "quotes", "--action", "write", "--grant", "quotes.read", "--require", "quotes.create"},
			wantCode: 1,
			wantOut:  "missing tenant permission: quotes.create",
		},
		{
			name:     "no tenant role means full access",
			args:     []string{"--role", "vendor-admin", "--tenant", "acme", "--resource", "quotes", "--action", "write", "--require", "quotes.create"},
			wantCode: 0,
			wantOut:  `"allowed": true`,
		},
		{
			name:     "inactive role denies",
			args:     []string{"--role", "customer-admin", "--tenant", "acme", "--resource", "rfqs", "--action", "write", "--grant", "rfqs.create", "--inactive", "--require", "rfqs.create"},
			wantCode: 1,
			wantOut:  "deny_tenant_permission",
		},
		{
			name:     "global deny",
			args:     []string{"--role", "customer-admin", "--tenant", "acme", "--resource", "quotes", "--action", "write"},
			wantCode: 1,
			wantOut:  "insufficient global role",
		},
		{
			name:     "unknown role",
			args:     []string{"--role", "root", "--resource", "quotes", "--action", "read"},
			wantCode: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, append([]string{"check"}, tt.args...)...)
			if code != tt.wantCode {
				t.Fatalf("exit code = %d, want %d (stdout %q, stderr %q)", code, tt.wantCode, stdout, stderr)
			}
			if tt.wantOut != "" && !strings.Contains(stdout, tt.wantOut) {
				t.Fatalf("stdout %q does not contain %q", stdout, tt.wantOut)
			}
		})
	}
}
