package telegram

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/rs/zerolog"

	"telegram-game-bot/internal/domain/ports/adapter"
)

var _ adapter.TelegramBotAdapter = (*NoopBotAdapter)(nil)

// NoopBotAdapter logs outgoing traffic instead of calling Telegram. It backs
// the "noop" bot mode used for local runs without a token.
type NoopBotAdapter struct {
	log    *zerolog.Logger
	nextID atomic.Int64
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	return &NoopBotAdapter{log: logger}
}

func (b *NoopBotAdapter) SendMessage(ctx context.Context, params adapter.SendMessageParams) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	id := int(b.nextID.Add(1))
	b.log.Info().Int64("chat_id", params.ChatID).Int("message_id", id).Int("button_rows", len(params.Buttons)).Str("text", params.Text).Msg("[noop-telegram] send")
	return id, nil
}

func (b *NoopBotAdapter) EditMessage(ctx context.Context, chatID int64, messageID int, text string, rows [][]adapter.InlineButton) error {
	b.log.Info().Int64("chat_id", chatID).Int("message_id", messageID).Str("text", text).Msg("[noop-telegram] edit")
	return ctx.Err()
}

func (b *NoopBotAdapter) SendQuizPoll(ctx context.Context, params adapter.QuizPollParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := b.nextID.Add(1)
	b.log.Info().Int64("chat_id", params.ChatID).Str("question", params.Question).Strs("options", params.Options).Msg("[noop-telegram] quiz poll")
	return "noop-poll-" + strconv.FormatInt(id, 10), nil
}

// IsChatAdmin treats everyone as an admin so /endgame can be exercised locally.
func (b *NoopBotAdapter) IsChatAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	return true, nil
}
