package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/lockout-auth/internal/crypto"
	"github.com/and161185/lockout-auth/internal/errs"
	"github.com/and161185/lockout-auth/internal/model"
)

type fakeService struct {
	registerID string
	loginUser  model.User
	status     model.LoginStatus
	err        error

	calls []string
}

func (f *fakeService) Register(_ context.Context, username, password string) (string, error) {
	f.calls = append(f.calls, "register:"+username+":"+password)
	return f.registerID, f.err
}

func (f *fakeService) Login(_ context.Context, username, password string) (model.User, error) {
	f.calls = append(f.calls, "login:"+username+":"+password)
	return f.loginUser, f.err
}

func (f *fakeService) Status(_ context.Context, username string) (model.LoginStatus, error) {
	f.calls = append(f.calls, "status:"+username)
	return f.status, f.err
}

func (f *fakeService) Unlock(_ context.Context, username string) error {
	f.calls = append(f.calls, "unlock:"+username)
	return f.err
}

func Test_run_Version(t *testing.T) {
	var out, errOut bytes.Buffer
	if err := run(context.Background(), []string{"version"}, &out, &errOut); err != nil {
		t.Fatalf("run version: %v", err)
	}
	if !strings.HasPrefix(out.String(), "lockoutctl dev") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func Test_run_Hash(t *testing.T) {
	var out, errOut bytes.Buffer
	err := run(context.Background(), []string{"-hash-options", "cost:4", "hash", "-p", "s3cret"}, &out, &errOut)
	if err != nil {
		t.Fatalf("run hash: %v", err)
	}
	h := strings.TrimSpace(out.String())
	ok, err := crypto.Passwords.Verify("s3cret", h)
	if err != nil || !ok {
		t.Fatalf("printed hash does not verify: %q ok=%v err=%v", h, ok, err)
	}
}

func Test_run_HashUnknownAlgorithm(t *testing.T) {
	var out, errOut bytes.Buffer
	err := run(context.Background(), []string{"-hash-algorithm", "123", "hash", "-p", "x"}, &out, &errOut)
	if !errors.Is(err, crypto.ErrHashing) {
		t.Fatalf("want hashing error, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("nothing must be printed on failure, got %q", out.String())
	}
	if exitCode(err) != 1 {
		t.Fatalf("exit code %d, want 1", exitCode(err))
	}
}

func Test_run_UsageErrors(t *testing.T) {
	cases := [][]string{
		nil,
		{"frobnicate"},
		{"hash"},
	}
	for _, args := range cases {
		var out, errOut bytes.Buffer
		err := run(context.Background(), args, &out, &errOut)
		if !errors.Is(err, errUsage) {
			t.Fatalf("args %v: want usage error, got %v", args, err)
		}
		if exitCode(err) != 2 {
			t.Fatalf("args %v: exit code %d, want 2", args, exitCode(err))
		}
	}
}

func Test_run_BadLogLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	if err := run(context.Background(), []string{"-log-level", "loud", "version"}, &out, &errOut); err == nil {
		t.Fatalf("want error for bad log level")
	}
}

func Test_runService_Commands(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	svc := &fakeService{
		registerID: id.String(),
		loginUser:  model.User{ID: id, Username: "alice"},
		status: model.LoginStatus{
			Username:       "alice",
			Blocked:        true,
			FailedAttempts: 4,
			BlockedUntil:   time.Unix(1_700_000_010, 0).UTC(),
		},
	}
	ctx := context.Background()

	cases := []struct {
		cmd  string
		args []string
		want string
	}{
		{"register", []string{"-u", "alice", "-p", "pw"}, id.String() + "\n"},
		{"login", []string{"-u", "alice", "-p", "pw"}, "ok " + id.String() + "\n"},
		{"unlock", []string{"-u", "alice"}, "unlocked\n"},
	}
	for _, tc := range cases {
		var out, errOut bytes.Buffer
		if err := runService(ctx, svc, tc.cmd, tc.args, &out, &errOut); err != nil {
			t.Fatalf("%s: %v", tc.cmd, err)
		}
		if out.String() != tc.want {
			t.Fatalf("%s: output %q, want %q", tc.cmd, out.String(), tc.want)
		}
	}

	var out, errOut bytes.Buffer
	if err := runService(ctx, svc, "status", []string{"-u", "alice"}, &out, &errOut); err != nil {
		t.Fatalf("status: %v", err)
	}
	var st model.LoginStatus
	if err := json.Unmarshal(out.Bytes(), &st); err != nil {
		t.Fatalf("status output is not JSON: %v (%q)", err, out.String())
	}
	if !st.Blocked || st.FailedAttempts != 4 || st.Username != "alice" {
		t.Fatalf("status mismatch: %+v", st)
	}

	want := []string{"register:alice:pw", "login:alice:pw", "unlock:alice", "status:alice"}
	if strings.Join(svc.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls %v, want %v", svc.calls, want)
	}
}

func Test_runService_Errors(t *testing.T) {
	ctx := context.Background()
	var out, errOut bytes.Buffer

	if err := runService(ctx, &fakeService{}, "login", []string{"-p", "pw"}, &out, &errOut); !errors.Is(err, errUsage) {
		t.Fatalf("missing -u: want usage error, got %v", err)
	}
	if err := runService(ctx, &fakeService{}, "register", []string{"-u", "a"}, &out, &errOut); !errors.Is(err, errUsage) {
		t.Fatalf("missing -p: want usage error, got %v", err)
	}

	blocked := &fakeService{err: errs.ErrLoginBlocked}
	err := runService(ctx, blocked, "login", []string{"-u", "a", "-p", "b"}, &out, &errOut)
	if !errors.Is(err, errs.ErrLoginBlocked) || exitCode(err) != 3 {
		t.Fatalf("blocked: err=%v code=%d", err, exitCode(err))
	}

	denied := &fakeService{err: errs.ErrUnauthorized}
	err = runService(ctx, denied, "login", []string{"-u", "a", "-p", "b"}, &out, &errOut)
	if !errors.Is(err, errs.ErrUnauthorized) || exitCode(err) != 1 {
		t.Fatalf("unauthorized: err=%v code=%d", err, exitCode(err))
	}
}
