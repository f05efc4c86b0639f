//go:build !integration

package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-game-bot/internal/domain/model"
	"telegram-game-bot/internal/domain/ports/repository"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVerify_Symbols(t *testing.T) {
	out, err := run(t, "verify", "--check", "symbols")
	if err != nil {
		t.Fatalf("verify: %v\n%s", err, out)
	}
	for _, m := range []string{"GetUpdatesChan", "Send", "Request"} {
		if !strings.Contains(out, m) {
			t.Errorf("output missing %s:\n%s", m, out)
		}
	}
	if strings.Contains(out, "FAIL") {
		t.Errorf("unexpected failure:\n%s", out)
	}
}

func TestVerify_UnknownCheck(t *testing.T) {
	if _, err := run(t, "verify", "--check", "bogus"); err == nil {
		t.Fatal("expected error for unknown check")
	}
}

func TestVerify_MissingManifest(t *testing.T) {
	if _, err := run(t, "verify", "--manifest", t.TempDir()+"/go.mod"); err == nil {
		t.Fatal("expected error for missing manifest")
	}
}

func TestVersion_JSON(t *testing.T) {
	out, err := run(t, "version", "--json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, `"go":`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestParseContent(t *testing.T) {
	data := []byte(`
items:
  - game_type: quiz
    question: "Capital of India?"
    options: ["Mumbai", "New Delhi", "Kolkata"]
    correct_option_id: 1
  - game_type: guessing
    question: "A fruit"
    answer: "APPLE"
`)
	items, err := parseContent(data)
	if err != nil {
		t.Fatalf("parseContent: %v", err)
	}
	want := []model.ContentItem{
		{GameType: model.GameQuiz, Question: "Capital of India?", Options: []string{"Mumbai", "New Delhi", "Kolkata"}, CorrectOption: 1},
		{GameType: model.GameGuessing, Question: "A fruit", Answer: "APPLE"},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestParseContent_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown type": "items:\n  - game_type: chess\n    question: q\n    answer: a\n",
		"bad option":   "items:\n  - game_type: quiz\n    question: q\n    options: [a, b]\n    correct_option_id: 5\n",
		"no answer":    "items:\n  - game_type: guessing\n    question: q\n",
		"not yaml":     "items: [",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := parseContent([]byte(in)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

type fakeTM struct{}

func (fakeTM) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

type fakeStore struct {
	counts map[model.GameType]int
	saved  []model.ContentItem
	err    error
}

func (f *fakeStore) Save(_ context.Context, _ repository.Tx, item *model.ContentItem) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, *item)
	return nil
}

func (f *fakeStore) CountByType(context.Context, repository.Tx) (map[model.GameType]int, error) {
	return f.counts, nil
}

func TestSeedContent(t *testing.T) {
	items := []model.ContentItem{
		{GameType: model.GameQuiz, Question: "q1", Answer: "a"},
		{GameType: model.GameGuessing, Question: "g1", Answer: "b"},
		{GameType: model.GameGuessing, Question: "g2", Answer: "c"},
	}

	t.Run("skips populated types", func(t *testing.T) {
		store := &fakeStore{counts: map[model.GameType]int{model.GameQuiz: 3}}
		added, err := seedContent(context.Background(), fakeTM{}, store, items, false)
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		if diff := cmp.Diff(map[model.GameType]int{model.GameGuessing: 2}, added); diff != "" {
			t.Errorf("added mismatch (-want +got):\n%s", diff)
		}
		if len(store.saved) != 2 {
			t.Errorf("saved %d items, want 2", len(store.saved))
		}
	})

	t.Run("force", func(t *testing.T) {
		store := &fakeStore{counts: map[model.GameType]int{model.GameQuiz: 3}}
		added, err := seedContent(context.Background(), fakeTM{}, store, items, true)
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		if added[model.GameQuiz] != 1 || added[model.GameGuessing] != 2 {
			t.Errorf("added = %v", added)
		}
	})

	t.Run("save error", func(t *testing.T) {
		boom := errors.New("boom")
		store := &fakeStore{counts: map[model.GameType]int{}, err: boom}
		if _, err := seedContent(context.Background(), fakeTM{}, store, items, false); !errors.Is(err, boom) {
			t.Fatalf("err = %v, want boom", err)
		}
	})
}

func TestPrintSeedSummary(t *testing.T) {
	var buf bytes.Buffer
	printSeedSummary(&buf, nil)
	if !strings.Contains(buf.String(), "No changes") {
		t.Errorf("got %q", buf.String())
	}
	buf.Reset()
	printSeedSummary(&buf, map[model.GameType]int{model.GameQuiz: 2, model.GameGuessing: 1})
	want := "  - guessing: 1 added\n  - quiz: 2 added\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

type fakeGames struct {
	active  []int64
	deleted []int64
}

func (f *fakeGames) ActiveChats(context.Context) ([]int64, error) { return f.active, nil }

func (f *fakeGames) Delete(_ context.Context, chatID int64) error {
	f.deleted = append(f.deleted, chatID)
	return nil
}

func TestResetGames(t *testing.T) {
	nop := zerolog.Nop()
	logger = &nop

	t.Run("all", func(t *testing.T) {
		store := &fakeGames{active: []int64{-100, -200}}
		var buf bytes.Buffer
		if err := resetGames(context.Background(), &buf, store, 0); err != nil {
			t.Fatalf("reset: %v", err)
		}
		if diff := cmp.Diff([]int64{-100, -200}, store.deleted); diff != "" {
			t.Errorf("deleted mismatch (-want +got):\n%s", diff)
		}
		if buf.String() != "2 game(s) reset\n" {
			t.Errorf("output = %q", buf.String())
		}
	})

	t.Run("single chat", func(t *testing.T) {
		store := &fakeGames{active: []int64{-100, -200}}
		if err := resetGames(context.Background(), io.Discard, store, -300); err != nil {
			t.Fatalf("reset: %v", err)
		}
		if diff := cmp.Diff([]int64{-300}, store.deleted); diff != "" {
			t.Errorf("deleted mismatch (-want +got):\n%s", diff)
		}
	})
}
