package model

import (
	"strings"
	"time"

	"telegram-game-bot/internal/domain"
)

// ContentItem is one question, word or puzzle a game can draw from.
// Quiz items with Options are sent as native quiz polls.
type ContentItem struct {
	ID            int64     `json:"id" yaml:"-"`
	GameType      GameType  `json:"game_type" yaml:"game_type"`
	Question      string    `json:"question" yaml:"question"`
	Answer        string    `json:"answer,omitempty" yaml:"answer"`
	Options       []string  `json:"options,omitempty" yaml:"options"`
	CorrectOption int       `json:"correct_option_id,omitempty" yaml:"correct_option_id"`
	Explanation   string    `json:"explanation,omitempty" yaml:"explanation"`
	CreatedAt     time.Time `json:"created_at" yaml:"-"`
}

func (c ContentItem) IsPoll() bool { return len(c.Options) > 0 }

// CorrectText is the expected free-text answer, or the correct poll option.
func (c ContentItem) CorrectText() string {
	if c.IsPoll() && c.CorrectOption >= 0 && c.CorrectOption < len(c.Options) {
		return c.Options[c.CorrectOption]
	}
	return c.Answer
}

func (c ContentItem) Validate() error {
	if _, err := ParseGameType(string(c.GameType)); err != nil {
		return err
	}
	if strings.TrimSpace(c.Question) == "" {
		return domain.ErrInvalidArgument
	}
	if c.IsPoll() {
		if len(c.Options) < 2 || c.CorrectOption < 0 || c.CorrectOption >= len(c.Options) {
			return domain.ErrInvalidArgument
		}
		return nil
	}
	if c.GameType != GameWordChain && strings.TrimSpace(c.Answer) == "" {
		return domain.ErrInvalidArgument
	}
	return nil
}
