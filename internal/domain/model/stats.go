package model

import "time"

// UserStats aggregates a user's points worldwide and per group.
type UserStats struct {
	UserID      int64
	Username    string
	TotalScore  int64
	GamesPlayed int
	GroupScores map[int64]int64
	LastUpdated time.Time
}

type LeaderboardEntry struct {
	UserID   int64
	Username string
	Score    int64
}

// Group is a chat the bot has been added to.
type Group struct {
	ChatID  int64
	Title   string
	Active  bool
	AddedAt time.Time
}
