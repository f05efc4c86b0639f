// File: internal/domain/ports/adapter/telegram.go
package adapter

import "context"

type InlineButton struct {
	Text string
	Data string
	URL  string
}

type SendMessageParams struct {
	ChatID    int64
	Text      string
	ParseMode string // "", "Markdown" or "HTML"
	ReplyTo   int
	Buttons   [][]InlineButton
}

// QuizPollParams describes a native Telegram quiz poll.
type QuizPollParams struct {
	ChatID        int64
	Question      string
	Options       []string
	CorrectOption int
	Explanation   string
	OpenPeriod    int // seconds
}

// TelegramBotAdapter is everything the use cases need from the messenger.
type TelegramBotAdapter interface {
	// SendMessage returns the id of the sent message.
	SendMessage(ctx context.Context, params SendMessageParams) (int, error)
	EditMessage(ctx context.Context, chatID int64, messageID int, text string, rows [][]InlineButton) error
	// SendQuizPoll returns the poll id Telegram assigned.
	SendQuizPoll(ctx context.Context, params QuizPollParams) (string, error)
	IsChatAdmin(ctx context.Context, chatID, userID int64) (bool, error)
}
