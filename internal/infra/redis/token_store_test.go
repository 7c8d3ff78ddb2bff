package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quizboard-service/internal/domain"
)

func TestTokenStoreIssueReusesToken(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewTokenStore(newClient(mr), 0)
	ctx := context.Background()

	first, err := store.Issue(ctx, 7, "tok-a")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, err := store.Issue(ctx, 7, "tok-b")
	if err != nil {
		t.Fatalf("issue again: %v", err)
	}
	if first != "tok-a" || second != "tok-a" {
		t.Fatalf("expected existing token reused, got %q then %q", first, second)
	}
	if !mr.Exists("auth:token:tok-a") || !mr.Exists("auth:user:7") {
		t.Fatalf("expected redis keys to be set")
	}
	if mr.Exists("auth:token:tok-b") {
		t.Fatalf("unused token must not be stored")
	}

	userID, err := store.Lookup(ctx, "tok-a")
	if err != nil || userID != 7 {
		t.Fatalf("lookup: got %d, %v", userID, err)
	}
}

func TestTokenStoreRevoke(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewTokenStore(newClient(mr), time.Hour)
	ctx := context.Background()

	if _, err := store.Issue(ctx, 3, "tok"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if ttl := mr.TTL("auth:token:tok"); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}
	if err := store.Revoke(ctx, 3); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if mr.Exists("auth:token:tok") || mr.Exists("auth:user:3") {
		t.Fatalf("expected redis keys to be removed")
	}
	if _, err := store.Lookup(ctx, "tok"); err != domain.ErrUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if err := store.Revoke(ctx, 3); err != nil {
		t.Fatalf("second revoke should be a no-op, got %v", err)
	}
}

func TestTokenStoreExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewTokenStore(newClient(mr), time.Minute)
	ctx := context.Background()
	if _, err := store.Issue(ctx, 1, "short"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := store.Lookup(ctx, "short"); err != domain.ErrUnauthenticated {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
	token, err := store.Issue(ctx, 1, "fresh")
	if err != nil || token != "fresh" {
		t.Fatalf("expected fresh token after expiry, got %q, %v", token, err)
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
