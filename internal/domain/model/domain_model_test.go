//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"telegram-game-bot/internal/domain"
)

// --- GameType Tests ---

func TestParseGameType(t *testing.T) {
	t.Run("should accept every known type regardless of case", func(t *testing.T) {
		for _, gt := range GameTypes {
			got, err := ParseGameType(" " + string(gt) + " ")
			if err != nil {
				t.Fatalf("expected no error for %q, got %v", gt, err)
			}
			if got != gt {
				t.Errorf("expected %q, got %q", gt, got)
			}
		}
		if got, _ := ParseGameType("QUIZ"); got != GameQuiz {
			t.Errorf("expected case-insensitive parse, got %q", got)
		}
	})

	t.Run("should reject unknown types", func(t *testing.T) {
		_, err := ParseGameType("chess")
		if !errors.Is(err, domain.ErrUnknownGameType) {
			t.Errorf("expected ErrUnknownGameType, got %v", err)
		}
	})
}

func TestGameType_DisplayName(t *testing.T) {
	if GameWordChain.DisplayName() != "Shabd Shrinkhala" {
		t.Errorf("unexpected name %q", GameWordChain.DisplayName())
	}
	if GameType("x").DisplayName() != "Game" {
		t.Error("unknown type should fall back to a generic name")
	}
	if GameNumberGuessing.UsesContent() {
		t.Error("number guessing does not draw content")
	}
}

// --- Game Tests ---

func TestNewGame(t *testing.T) {
	now := time.Now()
	g := NewGame(-100, GameQuiz, now, time.Minute)

	if g.ID == "" {
		t.Error("expected a non-empty game ID")
	}
	if g.Status != GameWaiting {
		t.Errorf("expected status %q, got %q", GameWaiting, g.Status)
	}
	if !g.JoinDeadline.Equal(now.Add(time.Minute)) {
		t.Errorf("unexpected join deadline %v", g.JoinDeadline)
	}
	if !g.JoinOpen(now.Add(59 * time.Second)) {
		t.Error("join window should still be open")
	}
	if g.JoinOpen(now.Add(time.Minute)) {
		t.Error("join window should be closed at its deadline")
	}
	if !g.Active() {
		t.Error("a new game should be active")
	}
}

func TestGame_Players(t *testing.T) {
	g := NewGame(-1, GameWordChain, time.Now(), time.Minute)
	for i, name := range []string{"a", "b", "c"} {
		if err := g.AddPlayer(int64(i+1), name); err != nil {
			t.Fatalf("AddPlayer(%s): %v", name, err)
		}
	}
	if err := g.AddPlayer(2, "b"); !errors.Is(err, domain.ErrAlreadyJoined) {
		t.Errorf("expected ErrAlreadyJoined, got %v", err)
	}

	t.Run("should keep turn order after removal", func(t *testing.T) {
		g.TurnIndex = 2
		removed := g.RemoveCurrentPlayer()
		if removed.UserID != 3 {
			t.Fatalf("removed wrong player: %+v", removed)
		}
		if cur := g.CurrentPlayer(); cur.UserID != 1 {
			t.Errorf("expected turn to wrap to player 1, got %d", cur.UserID)
		}
	})

	t.Run("should add score only to members", func(t *testing.T) {
		g.AddScore(2, 5)
		g.AddScore(99, 5)
		if g.Players[1].Score != 5 {
			t.Errorf("expected score 5, got %d", g.Players[1].Score)
		}
	})

	if names := g.PlayerNames(); len(names) != 2 || names[0] != "a" {
		t.Errorf("unexpected names %v", names)
	}
}

func TestGame_CurrentItem(t *testing.T) {
	g := &Game{Items: []ContentItem{{Question: "q1"}}}
	if g.CurrentItem().Question != "q1" {
		t.Error("expected the first item")
	}
	g.Round = 1
	if g.CurrentItem() != nil {
		t.Error("expected nil past the last round")
	}
	var nilGame *Game
	if nilGame.Active() {
		t.Error("nil game is never active")
	}
}

// --- ContentItem Tests ---

func TestContentItem_Validate(t *testing.T) {
	tests := []struct {
		name string
		item ContentItem
		ok   bool
	}{
		{"quiz text", ContentItem{GameType: GameQuiz, Question: "q", Answer: "a"}, true},
		{"quiz poll", ContentItem{GameType: GameQuiz, Question: "q", Options: []string{"x", "y"}, CorrectOption: 1}, true},
		{"poll bad option", ContentItem{GameType: GameQuiz, Question: "q", Options: []string{"x", "y"}, CorrectOption: 2}, false},
		{"poll single option", ContentItem{GameType: GameQuiz, Question: "q", Options: []string{"x"}}, false},
		{"wordchain needs no answer", ContentItem{GameType: GameWordChain, Question: "apple"}, true},
		{"missing answer", ContentItem{GameType: GameGuessing, Question: "q"}, false},
		{"empty question", ContentItem{GameType: GameWordCorrection, Answer: "a"}, false},
		{"unknown type", ContentItem{GameType: "chess", Question: "q", Answer: "a"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestContentItem_CorrectText(t *testing.T) {
	poll := ContentItem{Options: []string{"x", "y"}, CorrectOption: 1, Answer: "ignored"}
	if poll.CorrectText() != "y" {
		t.Errorf("expected poll option text, got %q", poll.CorrectText())
	}
	text := ContentItem{Answer: "delhi"}
	if text.CorrectText() != "delhi" {
		t.Errorf("expected answer text, got %q", text.CorrectText())
	}
}
