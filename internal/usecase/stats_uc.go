package usecase

import (
	"context"
	"errors"
	"sort"

	"telegram-game-bot/internal/domain"
	"telegram-game-bot/internal/domain/model"
	"telegram-game-bot/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

const LeaderboardSize = 10

type StatsUseCase interface {
	GroupLeaderboard(ctx context.Context, chatID int64) ([]model.LeaderboardEntry, error)
	WorldLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error)
	// MyStats returns domain.ErrNotFound for users who never scored.
	MyStats(ctx context.Context, userID int64) (*MyStats, error)
	Totals(ctx context.Context) (*Totals, error)
}

// MyStats is a user's record with group ids resolved to titles.
type MyStats struct {
	Stats  *model.UserStats
	Groups []GroupScore
}

type GroupScore struct {
	ChatID int64
	Title  string // empty when the group is unknown
	Score  int64
}

type Totals struct {
	ActiveGroups int
	Content      map[model.GameType]int
}

type statsUC struct {
	stats   repository.UserStatsRepository
	groups  repository.GroupRepository
	content repository.ContentRepository

	log *zerolog.Logger
}

func NewStatsUseCase(stats repository.UserStatsRepository, groups repository.GroupRepository, content repository.ContentRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{stats: stats, groups: groups, content: content, log: logger}
}

func (s *statsUC) GroupLeaderboard(ctx context.Context, chatID int64) ([]model.LeaderboardEntry, error) {
	return s.stats.TopInGroup(ctx, repository.NoTX, chatID, LeaderboardSize)
}

func (s *statsUC) WorldLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	return s.stats.TopWorldwide(ctx, repository.NoTX, LeaderboardSize)
}

func (s *statsUC) MyStats(ctx context.Context, userID int64) (*MyStats, error) {
	st, err := s.stats.FindByUserID(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	out := &MyStats{Stats: st}
	for chatID, score := range st.GroupScores {
		gs := GroupScore{ChatID: chatID, Score: score}
		g, err := s.groups.FindByChatID(ctx, repository.NoTX, chatID)
		switch {
		case err == nil:
			gs.Title = g.Title
		case !errors.Is(err, domain.ErrNotFound):
			s.log.Warn().Err(err).Int64("chat_id", chatID).Msg("group lookup failed")
		}
		out.Groups = append(out.Groups, gs)
	}
	sortGroupScores(out.Groups)
	return out, nil
}

func (s *statsUC) Totals(ctx context.Context) (*Totals, error) {
	groups, err := s.groups.CountActive(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	content, err := s.content.CountByType(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	return &Totals{ActiveGroups: groups, Content: content}, nil
}

// sortGroupScores orders by score, highest first, then by chat id.
func sortGroupScores(gs []GroupScore) {
	sort.Slice(gs, func(i, j int) bool {
		if gs[i].Score != gs[j].Score {
			return gs[i].Score > gs[j].Score
		}
		return gs[i].ChatID < gs[j].ChatID
	})
}
