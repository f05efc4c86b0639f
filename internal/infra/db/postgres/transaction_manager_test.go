//go:build !integration

package postgres

import (
	"context"
	"errors"
	"testing"

	"telegram-game-bot/internal/domain"
)

func TestGetExecutor(t *testing.T) {
	if _, err := getExecutor(nil, nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("nil pool and nil tx: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := getExecutor(nil, "not a tx"); !errors.Is(err, domain.ErrInvalidExecContext) {
		t.Errorf("unknown handle: expected ErrInvalidExecContext, got %v", err)
	}
}

func TestPickRowDefersExecutorErrors(t *testing.T) {
	var n int
	err := pickRow(context.Background(), nil, 42, "SELECT 1").Scan(&n)
	if !errors.Is(err, domain.ErrInvalidExecContext) {
		t.Errorf("expected ErrInvalidExecContext from Scan, got %v", err)
	}
	if _, err := pickQuery(context.Background(), nil, 42, "SELECT 1"); !errors.Is(err, domain.ErrInvalidExecContext) {
		t.Errorf("expected ErrInvalidExecContext, got %v", err)
	}
}
