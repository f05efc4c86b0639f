package usecase

import (
	"context"
	"time"
)

// GameTicker is what background workers need from the game use case: advance
// every stored game to now and report how many games changed.
type GameTicker interface {
	Tick(ctx context.Context, now time.Time) (int, error)
}
