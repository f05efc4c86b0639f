package game

import "telegram-game-bot/internal/domain/model"

// EventKind names something that happened to a game and must be announced.
type EventKind string

const (
	EventStarted        EventKind = "started"
	EventQuestion       EventKind = "question"        // new quiz/guessing/correction round
	EventTurn           EventKind = "turn"            // wordchain: whose turn, which letter
	EventCorrect        EventKind = "correct"         // points awarded
	EventWrong          EventKind = "wrong"           // wrong guess, player stays
	EventEliminated     EventKind = "eliminated"      // wordchain: invalid word
	EventTimedOut       EventKind = "timed_out"       // wordchain: no answer in time
	EventNotYourTurn    EventKind = "not_your_turn"   // wordchain
	EventLetterRevealed EventKind = "letter_revealed" // guessing
	EventHigher         EventKind = "higher"          // number_guessing
	EventLower          EventKind = "lower"           // number_guessing
	EventInvalidNumber  EventKind = "invalid_number"  // number_guessing
	EventRoundExpired   EventKind = "round_expired"   // answer revealed, next round
	EventFinished       EventKind = "finished"
)

type FinishReason string

const (
	FinishCompleted        FinishReason = "completed"
	FinishNoPlayers        FinishReason = "no_players"
	FinishNotEnoughPlayers FinishReason = "not_enough_players"
	FinishInactivity       FinishReason = "inactivity"
	FinishAdmin            FinishReason = "admin"
	FinishWinner           FinishReason = "winner"
	FinishNoContent        FinishReason = "no_content"
)

// Event carries the data a presenter needs to render one announcement.
type Event struct {
	Kind     EventKind
	UserID   int64
	Username string
	Points   int
	Attempts int
	Players  int    // started: number of players
	Word     string // wordchain: accepted or current word
	Letter   string // wordchain: required first letter; guessing: revealed letter
	Answer   string
	Display  string // guessing: masked word
	Round    int    // 1-based
	Item     *model.ContentItem
	Next     *model.Player
	Reason   FinishReason
}

// Awards returns the points carried by correct-answer events.
func Awards(events []Event) []Event {
	var out []Event
	for _, e := range events {
		if e.Kind == EventCorrect && e.Points > 0 {
			out = append(out, e)
		}
	}
	return out
}

// Finished reports whether the batch ends the game.
func Finished(events []Event) bool {
	for _, e := range events {
		if e.Kind == EventFinished {
			return true
		}
	}
	return false
}
