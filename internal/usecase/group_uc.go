package usecase

import (
	"context"
	"strings"
	"time"

	"telegram-game-bot/internal/domain/model"
	"telegram-game-bot/internal/domain/ports/adapter"
	"telegram-game-bot/internal/domain/ports/repository"
	"telegram-game-bot/internal/infra/i18n"
	"telegram-game-bot/internal/infra/logging"
	"telegram-game-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ GroupUseCase = (*groupUC)(nil)

type GroupUseCase interface {
	// RegisterStart records the chat a /start came from and reports new
	// users and groups to the log channel.
	RegisterStart(ctx context.Context, in StartInfo) error
	// Broadcast sends message to every active group, one send per pacing
	// interval, and deactivates groups the bot can no longer reach.
	Broadcast(ctx context.Context, message string) (*BroadcastResult, error)
}

type StartInfo struct {
	ChatID    int64
	ChatType  string // private, group, supergroup, channel
	ChatTitle string
	UserID    int64
	Username  string
	FullName  string
}

func (s StartInfo) IsGroup() bool { return s.ChatType == "group" || s.ChatType == "supergroup" }

type BroadcastResult struct {
	Sent        int
	Failed      int
	Deactivated int
}

type groupUC struct {
	groups       repository.GroupRepository
	bot          adapter.TelegramBotAdapter
	tr           *i18n.Translator
	logChannelID int64
	pacing       time.Duration
	log          *zerolog.Logger
}

func NewGroupUseCase(
	groups repository.GroupRepository,
	bot adapter.TelegramBotAdapter,
	tr *i18n.Translator,
	logChannelID int64,
	pacing time.Duration,
	logger *zerolog.Logger,
) *groupUC {
	return &groupUC{
		groups:       groups,
		bot:          bot,
		tr:           tr,
		logChannelID: logChannelID,
		pacing:       pacing,
		log:          logger,
	}
}

func (uc *groupUC) RegisterStart(ctx context.Context, in StartInfo) error {
	l := logging.With(ctx, uc.log)
	var notice string
	switch {
	case in.ChatType == "private":
		metrics.IncRegistration("user")
		notice = uc.tr.T("log_new_user", in.UserID, in.Username, in.FullName)
		l.Info().Int64("tg_id", in.UserID).Msg("user started bot")
	case in.IsGroup():
		created, err := uc.groups.Upsert(ctx, repository.NoTX, &model.Group{
			ChatID:  in.ChatID,
			Title:   in.ChatTitle,
			Active:  true,
			AddedAt: time.Now(),
		})
		if err != nil {
			return err
		}
		if created {
			metrics.IncRegistration("group")
			notice = uc.tr.T("log_new_group", in.ChatID, in.ChatTitle, in.UserID, in.Username, in.FullName)
			l.Info().Int64("chat_id", in.ChatID).Str("title", in.ChatTitle).Msg("bot added to new group")
		}
	}

	if notice != "" && uc.logChannelID != 0 {
		if _, err := uc.bot.SendMessage(ctx, adapter.SendMessageParams{ChatID: uc.logChannelID, Text: notice, ParseMode: parseMarkdown}); err != nil {
			l.Error().Err(err).Int64("log_channel", uc.logChannelID).Msg("failed to send log message")
		}
	}
	return nil
}

func (uc *groupUC) Broadcast(ctx context.Context, message string) (*BroadcastResult, error) {
	groups, err := uc.groups.ListActive(ctx, repository.NoTX)
	if err != nil {
		uc.log.Error().Err(err).Msg("failed to list groups for broadcast")
		return nil, err
	}

	res := &BroadcastResult{}
	var throttle <-chan time.Time
	if uc.pacing > 0 {
		t := time.NewTicker(uc.pacing)
		defer t.Stop()
		throttle = t.C
	}

	uc.log.Info().Int("group_count", len(groups)).Msg("starting broadcast")
	for i, g := range groups {
		if i > 0 && throttle != nil {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-throttle:
			}
		}
		_, err := uc.bot.SendMessage(ctx, adapter.SendMessageParams{ChatID: g.ChatID, Text: message})
		if err == nil {
			res.Sent++
			metrics.IncBroadcast("sent")
			continue
		}
		res.Failed++
		metrics.IncBroadcast("failed")
		uc.log.Warn().Err(err).Int64("chat_id", g.ChatID).Msg("could not send broadcast to group")
		if unreachable(err) {
			if derr := uc.groups.Deactivate(ctx, repository.NoTX, g.ChatID); derr != nil {
				uc.log.Error().Err(derr).Int64("chat_id", g.ChatID).Msg("failed to deactivate group")
				continue
			}
			res.Deactivated++
		}
	}
	uc.log.Info().Int("sent", res.Sent).Int("failed", res.Failed).Msg("broadcast finished")
	return res, nil
}

// unreachable reports Telegram errors that mean the group is gone for good.
func unreachable(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "chat not found") ||
		strings.Contains(msg, "bot was blocked") ||
		strings.Contains(msg, "bot was kicked")
}
