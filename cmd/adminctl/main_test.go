package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"backoffice.app/internal/apperr"
	"backoffice.app/internal/auth"
	"backoffice.app/internal/store/memory"
)

func newService(t *testing.T) *auth.Service {
	t.Helper()
	hasher, err := auth.NewHasher(bcrypt.MinCost, 2)
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	svc, err := auth.NewService(memory.New(), hasher)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateVerifyList(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	var out bytes.Buffer
	if err := dispatch(ctx, svc, []string{"create", "-username", "Ops@Example.com", "-password", "secret1", "-role", "admin"}, &out); err != nil {
		t.Fatalf("create: %v", err)
	}
	var created auth.PublicAccount
	if err := json.Unmarshal(out.Bytes(), &created); err != nil {
		t.Fatalf("decode create output: %v", err)
	}
	if created.Username != "ops@example.com" || created.Role != auth.RoleAdmin {
		t.Fatalf("unexpected account %+v", created)
	}

	out.Reset()
	if err := dispatch(ctx, svc, []string{"verify", "-username", "OPS@example.com", "-password", "secret1"}, &out); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !strings.Contains(out.String(), "PASS") {
		t.Fatalf("unexpected verify output %q", out.String())
	}

	if err := dispatch(ctx, svc, []string{"verify", "-username", "ops@example.com", "-password", "wrong"}, &out); err == nil {
		t.Fatal("expected wrong password to be rejected")
	}

	out.Reset()
	if err := dispatch(ctx, svc, []string{"list"}, &out); err != nil {
		t.Fatalf("list: %v", err)
	}
	var list []auth.PublicAccount
	if err := json.Unmarshal(out.Bytes(), &list); err != nil || len(list) != 1 {
		t.Fatalf("unexpected list output %q (%v)", out.String(), err)
	}
}

func TestCreatePreHashed(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("imported1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	var out bytes.Buffer
	if err := dispatch(ctx, svc, []string{"create", "-username", "legacy", "-password", string(hash), "-prehashed"}, &out); err != nil {
		t.Fatalf("create prehashed: %v", err)
	}
	if _, ok, err := svc.Verify(ctx, "legacy", "imported1"); err != nil || !ok {
		t.Fatalf("expected imported hash to verify, ok=%v err=%v", ok, err)
	}

	err = dispatch(ctx, svc, []string{"create", "-username", "broken", "-password", "not-a-hash", "-prehashed"}, &out)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for bad hash, got %v", err)
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	err := dispatch(context.Background(), newService(t), []string{"drop"}, &bytes.Buffer{})
	if !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}
