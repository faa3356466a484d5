// Command adminctl manages back-office accounts directly against the
// configured store.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"backoffice.app/internal/audit"
	"backoffice.app/internal/auth"
	"backoffice.app/internal/config"
	"backoffice.app/internal/store"
)

var errUsage = errors.New("usage: adminctl create|verify|list [flags]")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "adminctl: %v\n", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	backend, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()
	if cfg.MigrateOnStart {
		if _, err := backend.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	hasher, err := auth.NewHasher(cfg.BcryptCost, cfg.HashConcurrency)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	svc, err := auth.NewService(backend, hasher,
		auth.WithDefaultRole(cfg.Role()),
		auth.WithLogger(logger),
		auth.WithRecorder(audit.NewLogger(logger)),
	)
	if err != nil {
		return err
	}
	return dispatch(ctx, svc, args, out)
}

func dispatch(ctx context.Context, svc *auth.Service, args []string, out io.Writer) error {
	switch args[0] {
	case "create":
		return runCreate(ctx, svc, args[1:], out)
	case "verify":
		return runVerify(ctx, svc, args[1:], out)
	case "list":
		return runList(ctx, svc, out)
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
}

func runCreate(ctx context.Context, svc *auth.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	username := fs.String("username", "", "account username")
	password := fs.String("password", "", "plaintext password, or a bcrypt hash with -prehashed")
	role := fs.String("role", "", "ADMIN or USER")
	preHashed := fs.Bool("prehashed", false, "treat -password as an existing bcrypt hash")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("create: %w", err)
	}

	acct, err := svc.Create(ctx, auth.CreateInput{
		Username:          *username,
		Password:          *password,
		Role:              *role,
		PasswordPreHashed: *preHashed,
	})
	if err != nil {
		return err
	}
	return printJSON(out, acct)
}

func runVerify(ctx context.Context, svc *auth.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	username := fs.String("username", "", "account username")
	password := fs.String("password", "", "password to check")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	acct, ok, err := svc.Verify(ctx, *username, *password)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("verify: credentials rejected")
	}
	_, err = fmt.Fprintf(out, "verify %s: PASS (%s)\n", acct.Username, acct.Role)
	return err
}

func runList(ctx context.Context, svc *auth.Service, out io.Writer) error {
	accounts, err := svc.List(ctx)
	if err != nil {
		return err
	}
	return printJSON(out, accounts)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
