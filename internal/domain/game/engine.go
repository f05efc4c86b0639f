// Package game holds the rules of every group game. It is pure: callers pass
// the current time and persist the mutated model.Game themselves.
package game

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"telegram-game-bot/internal/domain"
	"telegram-game-bot/internal/domain/model"
)

const (
	QuizPoints       = 10
	WordChainPoints  = 5
	GuessingPoints   = 15
	CorrectionPoints = 10

	NumberMin       = 1
	NumberMax       = 100
	NumberBase      = 100
	NumberPenalty   = 5
	NumberMinPoints = 10
)

type Settings struct {
	JoinWindow      time.Duration
	QuizRound       time.Duration
	GuessRound      time.Duration
	TurnTimeout     time.Duration
	InactivityLimit time.Duration
	QuizItems       int
	GuessItems      int
}

func DefaultSettings() Settings {
	return Settings{
		JoinWindow:      60 * time.Second,
		QuizRound:       20 * time.Second,
		GuessRound:      60 * time.Second,
		TurnTimeout:     60 * time.Second,
		InactivityLimit: 5 * time.Minute,
		QuizItems:       10,
		GuessItems:      5,
	}
}

// Rand is satisfied by *math/rand.Rand.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

type Engine struct {
	s   Settings
	rnd Rand
}

func NewEngine(s Settings, rnd Rand) *Engine {
	d := DefaultSettings()
	if s.JoinWindow <= 0 {
		s.JoinWindow = d.JoinWindow
	}
	if s.QuizRound <= 0 {
		s.QuizRound = d.QuizRound
	}
	if s.GuessRound <= 0 {
		s.GuessRound = d.GuessRound
	}
	if s.TurnTimeout <= 0 {
		s.TurnTimeout = d.TurnTimeout
	}
	if s.InactivityLimit <= 0 {
		s.InactivityLimit = d.InactivityLimit
	}
	if s.QuizItems <= 0 {
		s.QuizItems = d.QuizItems
	}
	if s.GuessItems <= 0 {
		s.GuessItems = d.GuessItems
	}
	return &Engine{s: s, rnd: rnd}
}

func (e *Engine) Settings() Settings { return e.s }

// NewLobby opens a join window for a new game in chatID.
func (e *Engine) NewLobby(chatID int64, t model.GameType, now time.Time) *model.Game {
	return model.NewGame(chatID, t, now, e.s.JoinWindow)
}

func (e *Engine) Join(g *model.Game, userID int64, username string, now time.Time) error {
	if !g.JoinOpen(now) {
		return domain.ErrJoinClosed
	}
	if err := g.AddPlayer(userID, username); err != nil {
		return err
	}
	g.Touch(now)
	return nil
}

// Begin closes the join window. content is the pool of items for the game
// type and is ignored by number_guessing.
func (e *Engine) Begin(g *model.Game, content []model.ContentItem, now time.Time) []Event {
	if g.Status != model.GameWaiting {
		return nil
	}
	if len(g.Players) == 0 {
		return e.finish(g, FinishNoPlayers)
	}
	g.Status = model.GameInProgress
	g.Touch(now)
	started := Event{Kind: EventStarted, Players: len(g.Players)}

	switch g.Type {
	case model.GameQuiz:
		g.Items = e.sample(content, e.s.QuizItems)
	case model.GameGuessing, model.GameWordCorrection:
		g.Items = e.sample(content, e.s.GuessItems)
	case model.GameWordChain:
		if len(content) == 0 {
			return append([]Event{started}, e.finish(g, FinishNoContent)...)
		}
		start := content[e.rnd.Intn(len(content))]
		g.CurrentWord = normalizeWord(start.Question)
		g.TurnIndex = 0
		g.Deadline = now.Add(e.s.TurnTimeout)
		return []Event{started, e.turnEvent(g)}
	case model.GameNumberGuessing:
		g.SecretNumber = NumberMin + e.rnd.Intn(NumberMax-NumberMin+1)
		g.Attempts = map[int64]int{}
		return []Event{started}
	}

	if len(g.Items) == 0 {
		return append([]Event{started}, e.finish(g, FinishNoContent)...)
	}
	g.Round = 0
	return append([]Event{started}, e.startRound(g, now)...)
}

// Answer applies a text message from userID to the running game.
func (e *Engine) Answer(g *model.Game, userID int64, username, text string, now time.Time) []Event {
	if g.Status != model.GameInProgress {
		return nil
	}
	switch g.Type {
	case model.GameQuiz:
		return e.answerQuiz(g, userID, username, text, now)
	case model.GameWordChain:
		return e.answerWordChain(g, userID, username, text, now)
	case model.GameGuessing:
		return e.answerGuessing(g, userID, username, text, now)
	case model.GameWordCorrection:
		return e.answerCorrection(g, userID, username, text, now)
	case model.GameNumberGuessing:
		return e.answerNumber(g, userID, username, text, now)
	}
	return nil
}

// PollAnswer applies a vote on the quiz poll identified by pollID.
func (e *Engine) PollAnswer(g *model.Game, userID int64, username, pollID string, options []int, now time.Time) []Event {
	if g.Status != model.GameInProgress || g.Type != model.GameQuiz || g.PollID == "" || g.PollID != pollID {
		return nil
	}
	if !g.HasPlayer(userID) || g.Answered {
		return nil
	}
	item := g.CurrentItem()
	if item == nil || !item.IsPoll() {
		return nil
	}
	for _, o := range options {
		if o == item.CorrectOption {
			return e.award(g, userID, username, QuizPoints, now)
		}
	}
	return nil
}

// Tick advances timers: expired rounds, turns and inactivity. Join window
// expiry is handled by the caller through Begin because it needs content.
func (e *Engine) Tick(g *model.Game, now time.Time) []Event {
	if g.Status != model.GameInProgress {
		return nil
	}
	if !g.Deadline.IsZero() && !now.Before(g.Deadline) {
		return e.expire(g, now)
	}
	if now.Sub(g.LastActivity) >= e.s.InactivityLimit {
		return e.finish(g, FinishInactivity)
	}
	return nil
}

// End stops the game on admin request.
func (e *Engine) End(g *model.Game) []Event {
	if g.Status == model.GameFinished {
		return nil
	}
	return e.finish(g, FinishAdmin)
}

// JoinExpired reports whether the lobby should be closed with Begin.
func JoinExpired(g *model.Game, now time.Time) bool {
	return g.Status == model.GameWaiting && !now.Before(g.JoinDeadline)
}

// NumberPoints is the award for guessing the secret number on the n-th try.
func NumberPoints(attempts int) int {
	p := NumberBase - attempts*NumberPenalty
	if p < NumberMinPoints {
		return NumberMinPoints
	}
	return p
}

// MaskWord renders answer with unguessed letters hidden: "A _ P _ E".
func MaskWord(answer string, guessed []string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(answer) {
		switch {
		case r == ' ':
			b.WriteRune(' ')
		case containsLetter(guessed, string(r)):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
		b.WriteRune(' ')
	}
	return strings.TrimSpace(b.String())
}

func (e *Engine) answerQuiz(g *model.Game, userID int64, username, text string, now time.Time) []Event {
	if !g.HasPlayer(userID) || g.Answered {
		return nil
	}
	item := g.CurrentItem()
	if item == nil || item.IsPoll() {
		return nil
	}
	if !sameAnswer(text, item.Answer) {
		return nil
	}
	return e.award(g, userID, username, QuizPoints, now)
}

func (e *Engine) answerWordChain(g *model.Game, userID int64, username, text string, now time.Time) []Event {
	cur := g.CurrentPlayer()
	if cur == nil || !g.HasPlayer(userID) {
		return nil
	}
	if cur.UserID != userID {
		return []Event{{Kind: EventNotYourTurn, UserID: userID, Username: username}}
	}

	word := normalizeWord(text)
	last := lastLetter(g.CurrentWord)
	g.Touch(now)
	if utf8.RuneCountInString(word) > 1 && strings.HasPrefix(word, last) {
		g.AddScore(userID, WordChainPoints)
		g.CurrentWord = word
		g.TurnIndex = (g.TurnIndex + 1) % len(g.Players)
		g.Deadline = now.Add(e.s.TurnTimeout)
		return []Event{
			{Kind: EventCorrect, UserID: userID, Username: username, Points: WordChainPoints, Word: strings.ToUpper(word)},
			e.turnEvent(g),
		}
	}

	out := Event{Kind: EventEliminated, UserID: userID, Username: username, Letter: strings.ToUpper(last)}
	return append([]Event{out}, e.afterElimination(g, now)...)
}

func (e *Engine) answerGuessing(g *model.Game, userID int64, username, text string, now time.Time) []Event {
	if !g.HasPlayer(userID) || g.Answered {
		return nil
	}
	item := g.CurrentItem()
	if item == nil {
		return nil
	}
	if sameAnswer(text, item.Answer) {
		return e.winRound(g, userID, username, GuessingPoints, now)
	}

	guess := strings.ToUpper(strings.TrimSpace(text))
	if utf8.RuneCountInString(guess) == 1 {
		r, _ := utf8.DecodeRuneInString(guess)
		if unicode.IsLetter(r) && strings.ContainsRune(strings.ToUpper(item.Answer), r) && !containsLetter(g.GuessedLetters, guess) {
			g.GuessedLetters = append(g.GuessedLetters, guess)
			g.Touch(now)
			return []Event{{
				Kind: EventLetterRevealed, UserID: userID, Username: username,
				Letter: guess, Display: MaskWord(item.Answer, g.GuessedLetters),
			}}
		}
	}
	return e.wrong(g, userID, username, now)
}

func (e *Engine) answerCorrection(g *model.Game, userID int64, username, text string, now time.Time) []Event {
	if !g.HasPlayer(userID) || g.Answered {
		return nil
	}
	item := g.CurrentItem()
	if item == nil {
		return nil
	}
	if sameAnswer(text, item.Answer) {
		return e.winRound(g, userID, username, CorrectionPoints, now)
	}
	return e.wrong(g, userID, username, now)
}

func (e *Engine) answerNumber(g *model.Game, userID int64, username, text string, now time.Time) []Event {
	if !g.HasPlayer(userID) {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return []Event{{Kind: EventInvalidNumber, UserID: userID, Username: username}}
	}
	if g.Attempts == nil {
		g.Attempts = map[int64]int{}
	}
	g.Attempts[userID]++
	attempts := g.Attempts[userID]
	g.Touch(now)

	switch {
	case n == g.SecretNumber:
		points := NumberPoints(attempts)
		g.AddScore(userID, points)
		out := []Event{{Kind: EventCorrect, UserID: userID, Username: username, Points: points, Attempts: attempts, Answer: strconv.Itoa(n)}}
		return append(out, e.finish(g, FinishWinner)...)
	case n < g.SecretNumber:
		return []Event{{Kind: EventHigher, UserID: userID, Username: username, Attempts: attempts}}
	default:
		return []Event{{Kind: EventLower, UserID: userID, Username: username, Attempts: attempts}}
	}
}

func (e *Engine) award(g *model.Game, userID int64, username string, points int, now time.Time) []Event {
	g.Answered = true
	g.AddScore(userID, points)
	g.Touch(now)
	return []Event{{Kind: EventCorrect, UserID: userID, Username: username, Points: points, Round: g.Round + 1}}
}

// winRound awards the round and moves on immediately.
func (e *Engine) winRound(g *model.Game, userID int64, username string, points int, now time.Time) []Event {
	item := g.CurrentItem()
	out := e.award(g, userID, username, points, now)
	out[0].Answer = strings.ToUpper(item.Answer)
	return append(out, e.nextRound(g, now)...)
}

func (e *Engine) wrong(g *model.Game, userID int64, username string, now time.Time) []Event {
	if g.Attempts == nil {
		g.Attempts = map[int64]int{}
	}
	g.Attempts[userID]++
	g.Touch(now)
	return []Event{{Kind: EventWrong, UserID: userID, Username: username, Attempts: g.Attempts[userID]}}
}

func (e *Engine) expire(g *model.Game, now time.Time) []Event {
	switch g.Type {
	case model.GameWordChain:
		cur := g.CurrentPlayer()
		if cur == nil {
			return e.finish(g, FinishNotEnoughPlayers)
		}
		out := Event{Kind: EventTimedOut, UserID: cur.UserID, Username: cur.Username}
		g.Touch(now)
		return append([]Event{out}, e.afterElimination(g, now)...)
	case model.GameQuiz, model.GameGuessing, model.GameWordCorrection:
		var out []Event
		if item := g.CurrentItem(); item != nil && !g.Answered && !item.IsPoll() {
			out = append(out, Event{Kind: EventRoundExpired, Answer: strings.ToUpper(item.CorrectText()), Round: g.Round + 1})
		}
		g.Touch(now)
		return append(out, e.nextRound(g, now)...)
	}
	g.Deadline = time.Time{}
	return nil
}

func (e *Engine) afterElimination(g *model.Game, now time.Time) []Event {
	g.RemoveCurrentPlayer()
	if len(g.Players) < 2 {
		return e.finish(g, FinishNotEnoughPlayers)
	}
	g.Deadline = now.Add(e.s.TurnTimeout)
	return []Event{e.turnEvent(g)}
}

func (e *Engine) nextRound(g *model.Game, now time.Time) []Event {
	g.Round++
	if g.Round >= len(g.Items) {
		return e.finish(g, FinishCompleted)
	}
	return e.startRound(g, now)
}

func (e *Engine) startRound(g *model.Game, now time.Time) []Event {
	g.Answered = false
	g.PollID = ""
	g.GuessedLetters = nil
	g.Attempts = map[int64]int{}
	g.Touch(now)

	d := e.s.GuessRound
	if g.Type == model.GameQuiz {
		d = e.s.QuizRound
	}
	g.Deadline = now.Add(d)

	item := g.Items[g.Round]
	ev := Event{Kind: EventQuestion, Round: g.Round + 1, Item: &item}
	if g.Type == model.GameGuessing {
		ev.Display = MaskWord(item.Answer, nil)
	}
	return []Event{ev}
}

func (e *Engine) turnEvent(g *model.Game) Event {
	next := *g.CurrentPlayer()
	return Event{
		Kind:   EventTurn,
		Word:   strings.ToUpper(g.CurrentWord),
		Letter: strings.ToUpper(lastLetter(g.CurrentWord)),
		Next:   &next,
	}
}

func (e *Engine) finish(g *model.Game, reason FinishReason) []Event {
	g.Status = model.GameFinished
	g.Deadline = time.Time{}
	ev := Event{Kind: EventFinished, Reason: reason}
	if g.Type == model.GameNumberGuessing && reason != FinishNoPlayers {
		ev.Answer = strconv.Itoa(g.SecretNumber)
	}
	return []Event{ev}
}

func (e *Engine) sample(items []model.ContentItem, n int) []model.ContentItem {
	cp := make([]model.ContentItem, len(items))
	copy(cp, items)
	e.rnd.Shuffle(len(cp), func(i, j int) { cp[i], cp[j] = cp[j], cp[i] })
	if len(cp) > n {
		cp = cp[:n]
	}
	return cp
}

func sameAnswer(got, want string) bool {
	return strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(want)) && strings.TrimSpace(want) != ""
}

func normalizeWord(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func lastLetter(word string) string {
	if word == "" {
		return ""
	}
	r, _ := utf8.DecodeLastRuneInString(word)
	return string(r)
}

func containsLetter(letters []string, l string) bool {
	for _, v := range letters {
		if v == l {
			return true
		}
	}
	return false
}
