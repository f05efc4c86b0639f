//go:build !integration

package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-game-bot/internal/domain"
)

func TestRedisLocker(t *testing.T) {
	ctx := context.Background()
	cli := newMemClient()
	locker := NewLocker(cli)

	token, err := locker.TryLock(ctx, "lock:game:1", time.Second)
	if err != nil || token == "" {
		t.Fatalf("TryLock = %q, %v", token, err)
	}

	if _, err := locker.TryLock(ctx, "lock:game:1", time.Second); !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("expected ErrBusy for a held lock, got %v", err)
	}

	if err := locker.Unlock(ctx, "lock:game:1", "someone-else"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if _, ok := cli.kv["lock:game:1"]; !ok {
		t.Fatal("a foreign token must not release the lock")
	}

	if err := locker.Unlock(ctx, "lock:game:1", token); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if _, err := locker.TryLock(ctx, "lock:game:1", time.Second); err != nil {
		t.Errorf("lock should be free again, got %v", err)
	}
}

func TestRedisLocker_RetriesBeforeGivingUp(t *testing.T) {
	calls := 0
	cli := newMemClient()
	cli.SetNXFunc = func(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
		calls++
		return calls == 3, nil
	}
	if _, err := NewLocker(cli).TryLock(context.Background(), "k", time.Second); err != nil {
		t.Fatalf("expected the third attempt to win, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRedisLocker_ReportsClientErrors(t *testing.T) {
	boom := errors.New("connection refused")
	cli := newMemClient()
	cli.SetNXFunc = func(context.Context, string, interface{}, time.Duration) (bool, error) { return false, boom }
	if _, err := NewLocker(cli).TryLock(context.Background(), "k", time.Second); !errors.Is(err, boom) {
		t.Errorf("expected the client error, got %v", err)
	}
}

func TestRedisLocker_Extend(t *testing.T) {
	ctx := context.Background()
	cli := newMemClient()
	locker := NewLocker(cli)

	token, err := locker.TryLock(ctx, "lock:game:7", time.Second)
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if err := locker.Extend(ctx, "lock:game:7", token, 5*time.Second); err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if got := cli.ttl["lock:game:7"]; got != 5*time.Second {
		t.Errorf("ttl = %v, want 5s", got)
	}

	if err := locker.Extend(ctx, "lock:game:7", "someone-else", time.Minute); !errors.Is(err, domain.ErrBusy) {
		t.Errorf("foreign token: expected ErrBusy, got %v", err)
	}
	if got := cli.ttl["lock:game:7"]; got != 5*time.Second {
		t.Errorf("a foreign token must not touch the ttl, got %v", got)
	}

	_ = locker.Unlock(ctx, "lock:game:7", token)
	if err := locker.Extend(ctx, "lock:game:7", token, time.Minute); !errors.Is(err, domain.ErrBusy) {
		t.Errorf("released lock: expected ErrBusy, got %v", err)
	}
}
