//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-game-bot/internal/domain"
	"telegram-game-bot/internal/domain/model"
)

func TestGroupRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	repo := NewGroupRepo(testPool)
	ctx := context.Background()

	t.Run("should report new groups once and reactivate on upsert", func(t *testing.T) {
		cleanup(t)

		g := &model.Group{ChatID: -100, Title: "Quiz Club", AddedAt: time.Now()}
		created, err := repo.Upsert(ctx, nil, g)
		if err != nil || !created {
			t.Fatalf("Expected a new group, got created=%v err=%v", created, err)
		}
		if err := repo.Deactivate(ctx, nil, -100); err != nil {
			t.Fatalf("Deactivate failed: %v", err)
		}
		if n, _ := repo.CountActive(ctx, nil); n != 0 {
			t.Errorf("Expected 0 active groups, got %d", n)
		}

		g.Title = "Quiz Club 2"
		created, err = repo.Upsert(ctx, nil, g)
		if err != nil || created {
			t.Fatalf("Expected an update, got created=%v err=%v", created, err)
		}
		found, err := repo.FindByChatID(ctx, nil, -100)
		if err != nil {
			t.Fatalf("FindByChatID failed: %v", err)
		}
		if !found.Active || found.Title != "Quiz Club 2" {
			t.Errorf("Unexpected group %+v", found)
		}
	})

	t.Run("should list only active groups", func(t *testing.T) {
		cleanup(t)

		for _, id := range []int64{-1, -2, -3} {
			if _, err := repo.Upsert(ctx, nil, &model.Group{ChatID: id, Title: "g", AddedAt: time.Now()}); err != nil {
				t.Fatalf("Upsert failed: %v", err)
			}
		}
		_ = repo.Deactivate(ctx, nil, -2)

		active, err := repo.ListActive(ctx, nil)
		if err != nil {
			t.Fatalf("ListActive failed: %v", err)
		}
		if len(active) != 2 {
			t.Fatalf("Expected 2 active groups, got %d", len(active))
		}
		for _, g := range active {
			if g.ChatID == -2 {
				t.Error("deactivated group was listed")
			}
		}
	})

	t.Run("should report unknown groups", func(t *testing.T) {
		cleanup(t)
		if _, err := repo.FindByChatID(ctx, nil, -9); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
		if err := repo.Deactivate(ctx, nil, -9); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}
