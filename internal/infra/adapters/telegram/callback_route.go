package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-game-bot/internal/domain"
	"telegram-game-bot/internal/domain/model"
	"telegram-game-bot/internal/domain/ports/adapter"
	"telegram-game-bot/internal/infra/logging"
	"telegram-game-bot/internal/infra/metrics"
	"telegram-game-bot/internal/usecase"
)

// cbHandler handles one button press. The returned text is shown to the
// presser as a callback toast.
type cbHandler func(ctx context.Context, query *tgbotapi.CallbackQuery, arg string) (string, error)

type prefixCB struct {
	Prefix string
	Fn     cbHandler
}

// Prefix-match callbacks; the remainder of the data is passed as arg.
func (r *RealTelegramBotAdapter) cbPrefixRoutes() []prefixCB {
	return []prefixCB{
		{Prefix: usecase.CallbackShowRules, Fn: r.showRulesCBRoute},
		{Prefix: usecase.CallbackStartGame, Fn: r.startGameCBRoute},
		{Prefix: usecase.CallbackJoinGame, Fn: r.joinGameCBRoute},
	}
}

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query == nil || query.From == nil {
		return errors.New("invalid callback query")
	}
	if query.Message == nil || query.Message.Chat == nil {
		_, err := r.bot.Request(tgbotapi.NewCallback(query.ID, ""))
		return err
	}
	chatID := query.Message.Chat.ID
	ctx = logging.WithChatID(logging.WithTgID(ctx, query.From.ID), chatID)
	data := strings.TrimSpace(query.Data)

	var toast string
	if !r.allow(ctx, query.From.ID, "cb") {
		toast = r.translator.T("rate_limited")
	} else if fn, arg, ok := r.matchCallback(data); ok {
		metrics.IncUpdate("callback", strings.TrimSuffix(strings.TrimSuffix(data, arg), "_"))
		text, err := fn(ctx, query, arg)
		toast = text
		if err != nil {
			key, known := errorKey(err)
			if !known {
				logging.With(ctx, r.log).Error().Err(err).Str("data", data).Msg("callback failed")
			}
			toast = r.translator.T(key)
		}
	} else {
		logging.With(ctx, r.log).Debug().Str("data", data).Msg("unknown callback data")
	}

	// Always answer so the client stops its spinner.
	if _, err := r.bot.Request(tgbotapi.NewCallback(query.ID, toast)); err != nil {
		logging.With(ctx, r.log).Warn().Err(err).Msg("answer callback failed")
	}
	return nil
}

func (r *RealTelegramBotAdapter) matchCallback(data string) (cbHandler, string, bool) {
	for _, pr := range r.cbPrefixRoutes() {
		if strings.HasPrefix(data, pr.Prefix) {
			return pr.Fn, strings.TrimPrefix(data, pr.Prefix), true
		}
	}
	return nil, "", false
}

// showRulesCBRoute turns the game menu into the rules card of the chosen game.
func (r *RealTelegramBotAdapter) showRulesCBRoute(ctx context.Context, query *tgbotapi.CallbackQuery, arg string) (string, error) {
	t, err := model.ParseGameType(arg)
	if err != nil {
		return "", err
	}
	text, rows, err := r.facade.GameUC.ShowRules(ctx, t)
	if err != nil {
		return "", err
	}
	return "", r.replace(ctx, query.Message, text, rows)
}

// startGameCBRoute opens the lobby; the rules card becomes the lobby message.
func (r *RealTelegramBotAdapter) startGameCBRoute(ctx context.Context, query *tgbotapi.CallbackQuery, arg string) (string, error) {
	chat := query.Message.Chat
	if !chat.IsGroup() && !chat.IsSuperGroup() {
		return r.translator.T("group_only"), nil
	}
	t, err := model.ParseGameType(arg)
	if err != nil {
		return "", err
	}
	text, rows, err := r.facade.GameUC.StartLobby(ctx, chat.ID, t, query.Message.MessageID)
	if err != nil {
		return "", err
	}
	return "", r.EditMessage(ctx, chat.ID, query.Message.MessageID, text, rows)
}

func (r *RealTelegramBotAdapter) joinGameCBRoute(ctx context.Context, query *tgbotapi.CallbackQuery, _ string) (string, error) {
	chatID := query.Message.Chat.ID
	name := playerName(query.From)
	text, rows, err := r.facade.GameUC.Join(ctx, chatID, query.From.ID, name)
	if errors.Is(err, domain.ErrAlreadyJoined) || errors.Is(err, domain.ErrJoinClosed) {
		key, _ := errorKey(err)
		return r.translator.T(key), nil
	}
	if err != nil {
		return "", err
	}
	if err := r.EditMessage(ctx, chatID, query.Message.MessageID, text, rows); err != nil {
		logging.With(ctx, r.log).Warn().Err(err).Msg("failed to refresh lobby message")
	}
	return r.translator.T("join_ok", name), nil
}

// replace edits msg in place and falls back to a new message when Telegram
// refuses the edit.
func (r *RealTelegramBotAdapter) replace(ctx context.Context, msg *tgbotapi.Message, text string, rows [][]adapter.InlineButton) error {
	if err := r.EditMessage(ctx, msg.Chat.ID, msg.MessageID, text, rows); err == nil {
		return nil
	}
	return r.send(ctx, msg.Chat.ID, text, rows)
}
