package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-game-bot/internal/domain"
	"telegram-game-bot/internal/domain/ports/adapter"
	"telegram-game-bot/internal/infra/logging"
	"telegram-game-bot/internal/infra/metrics"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// commandRoutes defines all available bot commands and their handlers.
func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":       r.handleStartCommand,
		"games":       r.groupOnly(r.handleGamesCommand),
		"leaderboard": r.handleLeaderboardCommand,
		"mystats":     r.handleMyStatsCommand,
		"endgame":     r.groupOnly(r.handleEndGameCommand),
		"help":        r.handleHelpCommand,

		"broadcast": r.adminOnly(r.handleBroadcastCommand),
	}
}

// publicCommands is the order the menu lists them in.
var publicCommands = []string{"start", "games", "leaderboard", "mystats", "endgame", "help"}

func (r *RealTelegramBotAdapter) setMenuCommands() error {
	cmds := make([]tgbotapi.BotCommand, 0, len(publicCommands))
	for _, c := range publicCommands {
		cmds = append(cmds, tgbotapi.BotCommand{Command: c, Description: r.translator.T("cmd_" + c)})
	}
	_, err := r.bot.Request(tgbotapi.NewSetMyCommands(cmds...))
	return err
}

func (r *RealTelegramBotAdapter) adminOnly(next commandHandler) commandHandler {
	return func(ctx context.Context, message *tgbotapi.Message) error {
		if !r.isAdmin(message.From.ID) {
			metrics.IncAdminCommand("/"+message.Command(), "unauthorized")
			return r.reply(ctx, message, r.translator.T("error_unauthorized"))
		}
		metrics.IncAdminCommand("/"+message.Command(), "authorized")
		return next(ctx, message)
	}
}

func (r *RealTelegramBotAdapter) groupOnly(next commandHandler) commandHandler {
	return func(ctx context.Context, message *tgbotapi.Message) error {
		if !message.Chat.IsGroup() && !message.Chat.IsSuperGroup() {
			return r.reply(ctx, message, r.translator.T("group_only"))
		}
		return next(ctx, message)
	}
}

func (r *RealTelegramBotAdapter) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	text, err := r.facade.HandleStart(ctx, startInfo(message.Chat, message.From))
	if err != nil {
		return r.replyError(ctx, message, err)
	}
	return r.reply(ctx, message, text)
}

func (r *RealTelegramBotAdapter) handleGamesCommand(ctx context.Context, message *tgbotapi.Message) error {
	text, rows := r.facade.GameUC.Menu()
	return r.send(ctx, message.Chat.ID, text, rows)
}

// handleLeaderboardCommand shows the group board in groups and the worldwide
// board in private chats or with the "world" argument.
func (r *RealTelegramBotAdapter) handleLeaderboardCommand(ctx context.Context, message *tgbotapi.Message) error {
	var (
		text string
		err  error
	)
	world := strings.EqualFold(strings.TrimSpace(message.CommandArguments()), "world")
	if world || message.Chat.IsPrivate() {
		text, err = r.facade.HandleWorldLeaderboard(ctx)
	} else {
		text, err = r.facade.HandleGroupLeaderboard(ctx, message.Chat.ID)
	}
	if err != nil {
		return r.replyError(ctx, message, err)
	}
	return r.reply(ctx, message, text)
}

func (r *RealTelegramBotAdapter) handleMyStatsCommand(ctx context.Context, message *tgbotapi.Message) error {
	text, err := r.facade.HandleMyStats(ctx, message.From.ID, playerName(message.From))
	if err != nil {
		return r.replyError(ctx, message, err)
	}
	return r.reply(ctx, message, text)
}

func (r *RealTelegramBotAdapter) handleEndGameCommand(ctx context.Context, message *tgbotapi.Message) error {
	text, err := r.facade.HandleEndGame(ctx, message.Chat.ID, message.From.ID)
	if err != nil {
		return r.replyError(ctx, message, err)
	}
	if text == "" {
		return nil
	}
	return r.reply(ctx, message, text)
}

func (r *RealTelegramBotAdapter) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) error {
	return r.reply(ctx, message, r.translator.T("help"))
}

func (r *RealTelegramBotAdapter) handleBroadcastCommand(ctx context.Context, message *tgbotapi.Message) error {
	text, err := r.facade.HandleBroadcast(ctx, message.CommandArguments())
	if err != nil {
		return r.replyError(ctx, message, err)
	}
	return r.reply(ctx, message, text)
}

func (r *RealTelegramBotAdapter) send(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	_, err := r.SendMessage(ctx, adapter.SendMessageParams{ChatID: chatID, Text: text, ParseMode: tgbotapi.ModeMarkdown, Buttons: rows})
	return err
}

func (r *RealTelegramBotAdapter) reply(ctx context.Context, message *tgbotapi.Message, text string) error {
	_, err := r.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:    message.Chat.ID,
		Text:      text,
		ParseMode: tgbotapi.ModeMarkdown,
		ReplyTo:   message.MessageID,
	})
	return err
}

// replyError maps domain errors to localized replies. Anything unexpected is
// logged and answered with the generic message.
func (r *RealTelegramBotAdapter) replyError(ctx context.Context, message *tgbotapi.Message, err error) error {
	key, known := errorKey(err)
	if !known {
		logging.With(ctx, r.log).Error().Err(err).Msg("update handling failed")
	}
	return r.reply(ctx, message, r.translator.T(key))
}

func errorKey(err error) (string, bool) {
	switch {
	case errors.Is(err, domain.ErrBusy):
		return "busy", true
	case errors.Is(err, domain.ErrGameActive):
		return "game_already_active", true
	case errors.Is(err, domain.ErrNoGame):
		return "no_active_game", true
	case errors.Is(err, domain.ErrJoinClosed):
		return "join_closed", true
	case errors.Is(err, domain.ErrAlreadyJoined):
		return "join_already", true
	case errors.Is(err, domain.ErrNotAdmin):
		return "endgame_not_admin", true
	case errors.Is(err, domain.ErrUnknownGameType):
		return "unknown_game", true
	}
	return "error_generic", false
}
