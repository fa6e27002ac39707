// Command lockoutctl manages password logins protected by brute-force lockout.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/and161185/lockout-auth/internal/config"
	"github.com/and161185/lockout-auth/internal/errs"
	"github.com/and161185/lockout-auth/internal/lockout"
	"github.com/and161185/lockout-auth/internal/migrate"
	"github.com/and161185/lockout-auth/internal/repository/postgres"
	"github.com/and161185/lockout-auth/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

var errUsage = errors.New("usage")

// commands that need a database connection
var serviceCommands = map[string]bool{
	"register": true,
	"login":    true,
	"status":   true,
	"unlock":   true,
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, `lockoutctl %s

Usage:
  lockoutctl [global flags] <command> [args]

Commands:
  version                     print version
  hash -p <password>          print a password hash for the configured algorithm
  migrate                     apply database migrations
  register -u <user> -p <pw>  create a user
  login -u <user> -p <pw>     check a password and update lockout state
  status -u <user>            show lockout state
  unlock -u <user>            clear lockout state

Global flags (environment: %s*):
`, version, config.EnvPrefix)
	fs.SetOutput(w)
	fs.PrintDefaults()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return 2
	case errors.Is(err, errs.ErrLoginBlocked):
		return 3
	default:
		return 1
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("lockoutctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr, fs) }

	cfg, err := config.Load(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return errUsage
	}
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	auth := lockout.New(cfg.Authenticator(), lockout.WithLogger(log))

	switch {
	case cmd == "version":
		fmt.Fprintf(stdout, "lockoutctl %s (%s)\n", version, buildDate)
		return nil

	case cmd == "hash":
		hfs := subcommand("hash", stderr)
		p := hfs.String("p", "", "password")
		if err := hfs.Parse(rest); err != nil {
			return err
		}
		if *p == "" {
			return fmt.Errorf("%w: need -p", errUsage)
		}
		h, err := auth.CreatePasswordHash(*p)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, h)
		return nil

	case cmd == "migrate":
		if err := migrate.Up(ctx, cfg.DSN, log); err != nil {
			return err
		}
		v, err := migrate.Version(ctx, cfg.DSN, log)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "schema version %d\n", v)
		return nil

	case serviceCommands[cmd]:
		db, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		svc := service.NewAuthService(postgres.NewUserRepo(db), auth, log)
		return runService(ctx, svc, cmd, rest, stdout, stderr)

	default:
		fs.Usage()
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func runService(ctx context.Context, svc service.AuthService, cmd string, args []string, stdout, stderr io.Writer) error {
	sfs := subcommand(cmd, stderr)
	u := sfs.String("u", "", "username")
	p := sfs.String("p", "", "password")
	if err := sfs.Parse(args); err != nil {
		return err
	}
	if *u == "" {
		return fmt.Errorf("%w: need -u", errUsage)
	}

	switch cmd {
	case "register":
		if *p == "" {
			return fmt.Errorf("%w: need -p", errUsage)
		}
		id, err := svc.Register(ctx, *u, *p)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, id)

	case "login":
		if *p == "" {
			return fmt.Errorf("%w: need -p", errUsage)
		}
		user, err := svc.Login(ctx, *u, *p)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "ok %s\n", user.ID)

	case "status":
		st, err := svc.Status(ctx, *u)
		if err != nil {
			return err
		}
		printJSON(stdout, st)

	case "unlock":
		if err := svc.Unlock(ctx, *u); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "unlocked")

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	return nil
}

func subcommand(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}
