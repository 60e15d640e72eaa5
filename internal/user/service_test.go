package user

import (
	"context"
	"testing"
)

func TestRegisterAndDuplicate(t *testing.T) {
	svc := NewService(NewMemoryStore(), "secret")
	ctx := context.Background()

	res, err := svc.Register(ctx, &RegisterRequest{Username: "alice", Password: "pw"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if res.ID == 0 || res.Username != "alice" {
		t.Fatalf("unexpected response %#v", res)
	}

	if _, err := svc.Register(ctx, &RegisterRequest{Username: "alice", Password: "other"}); err != ErrUsernameTaken {
		t.Fatalf("duplicate register: expected ErrUsernameTaken, got %v", err)
	}
}

func TestLoginAndValidateToken(t *testing.T) {
	svc := NewService(NewMemoryStore(), "secret")
	ctx := context.Background()

	reg, err := svc.Register(ctx, &RegisterRequest{Username: "alice", Password: "pw"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	res, err := svc.Login(ctx, &RegisterRequest{Username: "alice", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	id, username, err := svc.ValidateToken(res.AccessToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if id != reg.ID || username != "alice" {
		t.Fatalf("claims mismatch: id=%d username=%q", id, username)
	}
}

func TestLoginFailures(t *testing.T) {
	svc := NewService(NewMemoryStore(), "secret")
	ctx := context.Background()

	if _, err := svc.Register(ctx, &RegisterRequest{Username: "alice", Password: "pw"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, &RegisterRequest{Username: "alice", Password: "wrong"}); err != ErrBadCredentials {
		t.Fatalf("wrong password: expected ErrBadCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, &RegisterRequest{Username: "nobody", Password: "pw"}); err != ErrBadCredentials {
		t.Fatalf("unknown user: expected ErrBadCredentials, got %v", err)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewService(NewMemoryStore(), "secret")
	if _, _, err := svc.ValidateToken("not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}

	// Token signed with a different secret must not validate.
	other := NewService(NewMemoryStore(), "other-secret")
	ctx := context.Background()
	if _, err := other.Register(ctx, &RegisterRequest{Username: "eve", Password: "pw"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	res, err := other.Login(ctx, &RegisterRequest{Username: "eve", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, _, err := svc.ValidateToken(res.AccessToken); err == nil {
		t.Fatal("expected error for token signed with wrong secret")
	}
}

func TestDirectoryLookups(t *testing.T) {
	svc := NewService(NewMemoryStore(), "secret")
	ctx := context.Background()

	reg, err := svc.Register(ctx, &RegisterRequest{Username: "alice", Password: "pw"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	id, err := svc.IDOf(ctx, "alice")
	if err != nil || id != reg.ID {
		t.Fatalf("IDOf: id=%d err=%v", id, err)
	}
	name, err := svc.UsernameOf(ctx, reg.ID)
	if err != nil || name != "alice" {
		t.Fatalf("UsernameOf: name=%q err=%v", name, err)
	}

	if _, err := svc.IDOf(ctx, "nobody"); err != ErrNotFound {
		t.Fatalf("IDOf unknown: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.UsernameOf(ctx, 9999); err != ErrNotFound {
		t.Fatalf("UsernameOf unknown: expected ErrNotFound, got %v", err)
	}

	if ok, err := svc.Exists(ctx, "alice"); err != nil || !ok {
		t.Fatalf("Exists(alice): ok=%v err=%v", ok, err)
	}
	if ok, err := svc.Exists(ctx, "nobody"); err != nil || ok {
		t.Fatalf("Exists(nobody): ok=%v err=%v", ok, err)
	}
	if ok, err := svc.ExistsID(ctx, reg.ID); err != nil || !ok {
		t.Fatalf("ExistsID: ok=%v err=%v", ok, err)
	}
	if ok, err := svc.ExistsID(ctx, 9999); err != nil || ok {
		t.Fatalf("ExistsID unknown: ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreNeverReusesIDs(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, err := store.CreateUser(ctx, &User{Username: "a", Password: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := store.CreateUser(ctx, &User{Username: "b", Password: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if second.ID <= first.ID {
		t.Fatalf("ids must be monotonic: %d then %d", first.ID, second.ID)
	}
}
