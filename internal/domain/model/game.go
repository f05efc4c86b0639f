package model

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"telegram-game-bot/internal/domain"
)

type GameType string

const (
	GameQuiz           GameType = "quiz"
	GameWordChain      GameType = "wordchain"
	GameGuessing       GameType = "guessing"
	GameNumberGuessing GameType = "number_guessing"
	GameWordCorrection GameType = "wordcorrection"
)

// GameTypes is the order in which games are offered in the /games menu.
var GameTypes = []GameType{GameQuiz, GameWordChain, GameGuessing, GameNumberGuessing, GameWordCorrection}

var gameNames = map[GameType]string{
	GameQuiz:           "Quiz / Trivia",
	GameWordChain:      "Shabd Shrinkhala",
	GameGuessing:       "Andaaz Lagaao",
	GameNumberGuessing: "Sankhya Anuamaan",
	GameWordCorrection: "Shabd Sudhaar",
}

func ParseGameType(s string) (GameType, error) {
	t := GameType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := gameNames[t]; !ok {
		return "", domain.ErrUnknownGameType
	}
	return t, nil
}

// DisplayName is the human title shown on buttons and announcements.
func (t GameType) DisplayName() string {
	if n, ok := gameNames[t]; ok {
		return n
	}
	return "Game"
}

// UsesContent reports whether the game draws its rounds from the content table.
func (t GameType) UsesContent() bool { return t != GameNumberGuessing }

type GameStatus string

const (
	GameWaiting    GameStatus = "waiting_for_players"
	GameInProgress GameStatus = "in_progress"
	GameFinished   GameStatus = "finished"
)

type Player struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// Game is the full state of one chat's running game. It is stored as a single
// JSON document so any replica can resume it.
type Game struct {
	ID     string     `json:"id"`
	ChatID int64      `json:"chat_id"`
	Type   GameType   `json:"game_type"`
	Status GameStatus `json:"status"`

	Players []Player `json:"players"`

	CreatedAt      time.Time `json:"created_at"`
	LastActivity   time.Time `json:"last_activity_time"`
	JoinDeadline   time.Time `json:"join_window_end_time"`
	Deadline       time.Time `json:"deadline,omitempty"` // current turn or round
	LobbyMessageID int       `json:"lobby_message_id,omitempty"`

	// quiz, guessing, wordcorrection
	Round    int           `json:"current_round"`
	Items    []ContentItem `json:"items,omitempty"`
	Answered bool          `json:"answered_this_round"`
	PollID   string        `json:"poll_id,omitempty"`

	// wordchain
	TurnIndex   int    `json:"turn_index"`
	CurrentWord string `json:"current_word,omitempty"`

	// guessing
	GuessedLetters []string `json:"guessed_letters,omitempty"`

	// guessing, wordcorrection, number_guessing
	Attempts map[int64]int `json:"attempts,omitempty"`

	// number_guessing
	SecretNumber int `json:"secret_number,omitempty"`
}

func NewGame(chatID int64, t GameType, now time.Time, joinWindow time.Duration) *Game {
	return &Game{
		ID:           ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		ChatID:       chatID,
		Type:         t,
		Status:       GameWaiting,
		Players:      []Player{},
		CreatedAt:    now,
		LastActivity: now,
		JoinDeadline: now.Add(joinWindow),
		Attempts:     map[int64]int{},
	}
}

func (g *Game) Touch(now time.Time) { g.LastActivity = now }

func (g *Game) Active() bool { return g != nil && g.Status != GameFinished }

func (g *Game) JoinOpen(now time.Time) bool {
	return g.Status == GameWaiting && now.Before(g.JoinDeadline)
}

func (g *Game) PlayerIndex(userID int64) int {
	for i, p := range g.Players {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}

func (g *Game) HasPlayer(userID int64) bool { return g.PlayerIndex(userID) >= 0 }

func (g *Game) AddPlayer(userID int64, username string) error {
	if g.HasPlayer(userID) {
		return domain.ErrAlreadyJoined
	}
	g.Players = append(g.Players, Player{UserID: userID, Username: username})
	return nil
}

func (g *Game) CurrentPlayer() *Player {
	if len(g.Players) == 0 {
		return nil
	}
	if g.TurnIndex >= len(g.Players) {
		g.TurnIndex %= len(g.Players)
	}
	return &g.Players[g.TurnIndex]
}

// RemoveCurrentPlayer drops the player whose turn it is and keeps TurnIndex
// pointing at the next player in order.
func (g *Game) RemoveCurrentPlayer() Player {
	p := g.Players[g.TurnIndex]
	g.Players = append(g.Players[:g.TurnIndex], g.Players[g.TurnIndex+1:]...)
	if len(g.Players) > 0 {
		g.TurnIndex %= len(g.Players)
	} else {
		g.TurnIndex = 0
	}
	return p
}

func (g *Game) AddScore(userID int64, points int) {
	if i := g.PlayerIndex(userID); i >= 0 {
		g.Players[i].Score += points
	}
}

// CurrentItem returns the content item of the running round, or nil.
func (g *Game) CurrentItem() *ContentItem {
	if g.Round < 0 || g.Round >= len(g.Items) {
		return nil
	}
	return &g.Items[g.Round]
}

func (g *Game) PlayerNames() []string {
	names := make([]string, 0, len(g.Players))
	for _, p := range g.Players {
		names = append(names, p.Username)
	}
	return names
}
