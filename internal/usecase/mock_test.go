//go:build !integration

package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-game-bot/internal/domain"
	"telegram-game-bot/internal/domain/model"
	"telegram-game-bot/internal/domain/ports/adapter"
	"telegram-game-bot/internal/domain/ports/repository"
	"telegram-game-bot/internal/infra/i18n"
)

// =============================
// Adapters
// =============================

type editedMessage struct {
	ChatID    int64
	MessageID int
	Text      string
}

// MockTelegramBot records everything the use cases send.
type MockTelegramBot struct {
	mu     sync.Mutex
	Sent   []adapter.SendMessageParams
	Edits  []editedMessage
	Polls  []adapter.QuizPollParams
	nextID int

	SendMessageFunc func(ctx context.Context, params adapter.SendMessageParams) (int, error)
	IsChatAdminFunc func(ctx context.Context, chatID, userID int64) (bool, error)
}

var _ adapter.TelegramBotAdapter = (*MockTelegramBot)(nil)

func (m *MockTelegramBot) SendMessage(ctx context.Context, params adapter.SendMessageParams) (int, error) {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, params)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, params)
	m.nextID++
	return m.nextID, nil
}

func (m *MockTelegramBot) EditMessage(ctx context.Context, chatID int64, messageID int, text string, rows [][]adapter.InlineButton) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Edits = append(m.Edits, editedMessage{ChatID: chatID, MessageID: messageID, Text: text})
	return nil
}

func (m *MockTelegramBot) SendQuizPoll(ctx context.Context, params adapter.QuizPollParams) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Polls = append(m.Polls, params)
	return "poll-" + string(rune('0'+len(m.Polls))), nil
}

func (m *MockTelegramBot) IsChatAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	if m.IsChatAdminFunc != nil {
		return m.IsChatAdminFunc(ctx, chatID, userID)
	}
	return false, nil
}

func (m *MockTelegramBot) texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Sent))
	for _, s := range m.Sent {
		out = append(out, s.Text)
	}
	return out
}

// =============================
// Repositories
// =============================

// memGameRepo stores games as JSON, the way the Redis repository does, so
// tests observe exactly what survives a round trip.
type memGameRepo struct {
	mu    sync.Mutex
	games map[int64][]byte
	polls map[string]int64
}

var _ repository.GameRepository = (*memGameRepo)(nil)

func newMemGameRepo() *memGameRepo {
	return &memGameRepo{games: map[int64][]byte{}, polls: map[string]int64{}}
}

func (r *memGameRepo) Save(ctx context.Context, g *model.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[g.ChatID] = data
	return nil
}

func (r *memGameRepo) Get(ctx context.Context, chatID int64) (*model.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.games[chatID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	var g model.Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *memGameRepo) Delete(ctx context.Context, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.games, chatID)
	return nil
}

func (r *memGameRepo) ActiveChats(ctx context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int64, 0, len(r.games))
	for id := range r.games {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r *memGameRepo) BindPoll(ctx context.Context, pollID string, chatID int64, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.polls[pollID] = chatID
	return nil
}

func (r *memGameRepo) ChatByPoll(ctx context.Context, pollID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.polls[pollID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return id, nil
}

// memLocker grants every lock unless busy is set.
type memLocker struct {
	mu      sync.Mutex
	held    map[string]string
	busy    bool
	locks   int
	extends int
}

var _ repository.Locker = (*memLocker)(nil)

func newMemLocker() *memLocker { return &memLocker{held: map[string]string{}} }

func (l *memLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return "", domain.ErrBusy
	}
	if _, ok := l.held[key]; ok {
		return "", domain.ErrBusy
	}
	l.locks++
	tok := key + "-token"
	l.held[key] = tok
	return tok, nil
}

func (l *memLocker) Extend(ctx context.Context, key, token string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] != token {
		return domain.ErrBusy
	}
	l.extends++
	return nil
}

func (l *memLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

type scoreCall struct {
	UserID int64
	ChatID int64
	Points int64
}

type memStatsRepo struct {
	mu      sync.Mutex
	Scores  []scoreCall
	Played  map[int64]int
	Users   map[int64]*model.UserStats
	World   []model.LeaderboardEntry
	ByGroup map[int64][]model.LeaderboardEntry
	Err     error
}

var _ repository.UserStatsRepository = (*memStatsRepo)(nil)

func newMemStatsRepo() *memStatsRepo {
	return &memStatsRepo{Played: map[int64]int{}, Users: map[int64]*model.UserStats{}, ByGroup: map[int64][]model.LeaderboardEntry{}}
}

func (r *memStatsRepo) AddScore(ctx context.Context, tx repository.Tx, userID int64, username string, chatID int64, points int64) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Scores = append(r.Scores, scoreCall{UserID: userID, ChatID: chatID, Points: points})
	return nil
}

func (r *memStatsRepo) IncGamesPlayed(ctx context.Context, tx repository.Tx, players []model.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range players {
		r.Played[p.UserID]++
	}
	return nil
}

func (r *memStatsRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID int64) (*model.UserStats, error) {
	u, ok := r.Users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (r *memStatsRepo) TopWorldwide(ctx context.Context, tx repository.Tx, limit int) ([]model.LeaderboardEntry, error) {
	return r.World, r.Err
}

func (r *memStatsRepo) TopInGroup(ctx context.Context, tx repository.Tx, chatID int64, limit int) ([]model.LeaderboardEntry, error) {
	return r.ByGroup[chatID], r.Err
}

type memContentRepo struct {
	items map[model.GameType][]model.ContentItem
}

var _ repository.ContentRepository = (*memContentRepo)(nil)

func (r *memContentRepo) ListByType(ctx context.Context, tx repository.Tx, t model.GameType) ([]model.ContentItem, error) {
	return r.items[t], nil
}

func (r *memContentRepo) Save(ctx context.Context, tx repository.Tx, item *model.ContentItem) error {
	if r.items == nil {
		r.items = map[model.GameType][]model.ContentItem{}
	}
	r.items[item.GameType] = append(r.items[item.GameType], *item)
	return nil
}

func (r *memContentRepo) CountByType(ctx context.Context, tx repository.Tx) (map[model.GameType]int, error) {
	out := map[model.GameType]int{}
	for t, items := range r.items {
		out[t] = len(items)
	}
	return out, nil
}

type memGroupRepo struct {
	mu          sync.Mutex
	groups      map[int64]*model.Group
	deactivated []int64
}

var _ repository.GroupRepository = (*memGroupRepo)(nil)

func newMemGroupRepo(gs ...*model.Group) *memGroupRepo {
	r := &memGroupRepo{groups: map[int64]*model.Group{}}
	for _, g := range gs {
		r.groups[g.ChatID] = g
	}
	return r
}

func (r *memGroupRepo) Upsert(ctx context.Context, tx repository.Tx, g *model.Group) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.groups[g.ChatID]
	if ok {
		existing.Title = g.Title
		existing.Active = true
		return false, nil
	}
	cp := *g
	r.groups[g.ChatID] = &cp
	return true, nil
}

func (r *memGroupRepo) FindByChatID(ctx context.Context, tx repository.Tx, chatID int64) (*model.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[chatID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return g, nil
}

func (r *memGroupRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Group
	for _, g := range r.groups {
		if g.Active {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out, nil
}

func (r *memGroupRepo) Deactivate(ctx context.Context, tx repository.Tx, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[chatID]
	if !ok {
		return domain.ErrNotFound
	}
	g.Active = false
	r.deactivated = append(r.deactivated, chatID)
	return nil
}

func (r *memGroupRepo) CountActive(ctx context.Context, tx repository.Tx) (int, error) {
	active, _ := r.ListActive(ctx, tx)
	return len(active), nil
}

// passTx runs fn without a real transaction.
type passTx struct{ calls int }

var _ repository.TransactionManager = (*passTx)(nil)

func (p *passTx) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	p.calls++
	return fn(ctx, nil)
}

// =============================
// Utilities
// =============================

// fakeRand picks index pick (clamped) and never shuffles.
type fakeRand struct{ pick int }

func (r fakeRand) Intn(n int) int {
	if r.pick >= n {
		return n - 1
	}
	return r.pick
}
func (fakeRand) Shuffle(int, func(i, j int)) {}

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func newTestTranslator() *i18n.Translator {
	translator, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		panic(err)
	}
	return translator
}

var errChatNotFound = errors.New("Bad Request: chat not found")
