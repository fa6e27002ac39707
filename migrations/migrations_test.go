package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestFS_ContainsGooseMigrations(t *testing.T) {
	files, err := fs.Glob(FS, "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatalf("no embedded migrations")
	}
	for _, f := range files {
		b, err := fs.ReadFile(FS, f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if !strings.Contains(string(b), "-- +goose Up") || !strings.Contains(string(b), "-- +goose Down") {
			t.Fatalf("%s lacks goose annotations", f)
		}
	}
}

func TestFS_UsersTableHasLockoutColumns(t *testing.T) {
	b, err := fs.ReadFile(FS, "00001_create_users.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, col := range []string{"password_hash", "last_failed_login_at", "failed_login_attempts", "login_blocked_until"} {
		if !strings.Contains(string(b), col) {
			t.Fatalf("users table missing %s", col)
		}
	}
}
