//go:build !integration

package redis

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"telegram-game-bot/internal/domain"
	"telegram-game-bot/internal/domain/model"
)

func TestGameRepo(t *testing.T) {
	ctx := context.Background()
	cli := newMemClient()
	repo := NewGameRepo(cli, time.Hour)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	g := model.NewGame(-100, model.GameNumberGuessing, now, time.Minute)
	_ = g.AddPlayer(1, "ravi")
	g.SecretNumber = 42

	t.Run("should round trip a game and index its chat", func(t *testing.T) {
		if err := repo.Save(ctx, g); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if cli.ttl["game:-100"] != time.Hour {
			t.Errorf("unexpected ttl %v", cli.ttl["game:-100"])
		}
		got, err := repo.Get(ctx, -100)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if diff := cmp.Diff(g, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("game mismatch (-want +got):\n%s", diff)
		}

		_ = repo.Save(ctx, model.NewGame(-200, model.GameQuiz, now, time.Minute))
		chats, _ := repo.ActiveChats(ctx)
		sort.Slice(chats, func(i, j int) bool { return chats[i] < chats[j] })
		if diff := cmp.Diff([]int64{-200, -100}, chats); diff != "" {
			t.Errorf("active chats mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should forget deleted games", func(t *testing.T) {
		if err := repo.Delete(ctx, -100); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := repo.Get(ctx, -100); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		chats, _ := repo.ActiveChats(ctx)
		if diff := cmp.Diff([]int64{-200}, chats); diff != "" {
			t.Errorf("active chats mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should resolve poll ids to chats", func(t *testing.T) {
		if err := repo.BindPoll(ctx, "p1", -200, 40*time.Second); err != nil {
			t.Fatalf("BindPoll: %v", err)
		}
		chat, err := repo.ChatByPoll(ctx, "p1")
		if err != nil || chat != -200 {
			t.Errorf("ChatByPoll = %d, %v", chat, err)
		}
		if _, err := repo.ChatByPoll(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestGameRepo_SkipsMalformedMembers(t *testing.T) {
	cli := newMemClient()
	_ = cli.SAdd(context.Background(), activeGamesKey, "-5", "garbage")
	chats, err := NewGameRepo(cli, 0).ActiveChats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int64{-5}, chats); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
