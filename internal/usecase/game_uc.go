package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-game-bot/internal/domain"
	"telegram-game-bot/internal/domain/game"
	"telegram-game-bot/internal/domain/model"
	"telegram-game-bot/internal/domain/ports/adapter"
	"telegram-game-bot/internal/domain/ports/repository"
	"telegram-game-bot/internal/infra/i18n"
	"telegram-game-bot/internal/infra/logging"
	"telegram-game-bot/internal/infra/metrics"
)

// Compile-time check
var _ GameUseCase = (*gameUC)(nil)

const (
	CallbackShowRules = "show_rules_"
	CallbackStartGame = "start_game_"
	CallbackJoinGame  = "join_game_"

	defaultLockTTL = 10 * time.Second
)

type GameUseCase interface {
	// Menu renders the /games keyboard.
	Menu() (string, [][]adapter.InlineButton)
	ShowRules(ctx context.Context, t model.GameType) (string, [][]adapter.InlineButton, error)
	// StartLobby opens the join window in chatID. lobbyMessageID is the
	// message that will be edited as players join and when the game starts.
	StartLobby(ctx context.Context, chatID int64, t model.GameType, lobbyMessageID int) (string, [][]adapter.InlineButton, error)
	Join(ctx context.Context, chatID, userID int64, username string) (string, [][]adapter.InlineButton, error)
	HandleText(ctx context.Context, chatID, userID int64, username, text string, messageID int) error
	HandlePollAnswer(ctx context.Context, pollID string, userID int64, username string, options []int) error
	EndGame(ctx context.Context, chatID, userID int64) error
	Tick(ctx context.Context, now time.Time) (int, error)
	Restore(ctx context.Context) (int, error)
	ActiveGames(ctx context.Context) ([]*model.Game, error)
}

type gameUC struct {
	games   repository.GameRepository
	content repository.ContentRepository
	stats   repository.UserStatsRepository
	locker  repository.Locker
	tm      repository.TransactionManager
	bot     adapter.TelegramBotAdapter
	engine  *game.Engine
	tr      *i18n.Translator
	now     func() time.Time
	lockTTL time.Duration

	log *zerolog.Logger
}

func NewGameUseCase(
	games repository.GameRepository,
	content repository.ContentRepository,
	stats repository.UserStatsRepository,
	locker repository.Locker,
	tm repository.TransactionManager,
	bot adapter.TelegramBotAdapter,
	engine *game.Engine,
	tr *i18n.Translator,
	logger *zerolog.Logger,
) *gameUC {
	return &gameUC{
		games:   games,
		content: content,
		stats:   stats,
		locker:  locker,
		tm:      tm,
		bot:     bot,
		engine:  engine,
		tr:      tr,
		now:     time.Now,
		lockTTL: defaultLockTTL,
		log:     logger,
	}
}

// WithClock replaces the time source; used by tests.
func (uc *gameUC) WithClock(now func() time.Time) *gameUC {
	uc.now = now
	return uc
}

// WithLockTTL sets how long a chat lock lives without a refresh.
func (uc *gameUC) WithLockTTL(ttl time.Duration) *gameUC {
	if ttl > 0 {
		uc.lockTTL = ttl
	}
	return uc
}

func (uc *gameUC) Menu() (string, [][]adapter.InlineButton) {
	rows := make([][]adapter.InlineButton, 0, len(model.GameTypes))
	for _, t := range model.GameTypes {
		rows = append(rows, []adapter.InlineButton{{Text: t.DisplayName(), Data: CallbackShowRules + string(t)}})
	}
	return uc.tr.T("games_prompt"), rows
}

func (uc *gameUC) ShowRules(_ context.Context, t model.GameType) (string, [][]adapter.InlineButton, error) {
	if _, err := model.ParseGameType(string(t)); err != nil {
		return "", nil, err
	}
	text := uc.tr.T("rules_card", t.DisplayName(), uc.tr.T("rules_"+string(t)))
	rows := [][]adapter.InlineButton{{{Text: uc.tr.T("btn_start", t.DisplayName()), Data: CallbackStartGame + string(t)}}}
	return text, rows, nil
}

func (uc *gameUC) StartLobby(ctx context.Context, chatID int64, t model.GameType, lobbyMessageID int) (string, [][]adapter.InlineButton, error) {
	if _, err := model.ParseGameType(string(t)); err != nil {
		return "", nil, err
	}
	var g *model.Game
	err := uc.withChatLock(ctx, chatID, func(ctx context.Context) error {
		existing, err := uc.games.Get(ctx, chatID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if existing.Active() {
			return domain.ErrGameActive
		}
		g = uc.engine.NewLobby(chatID, t, uc.now())
		g.LobbyMessageID = lobbyMessageID
		return uc.games.Save(ctx, g)
	})
	if err != nil {
		return "", nil, err
	}
	metrics.IncLobbyOpened(string(t))
	logging.With(ctx, uc.log).Info().Int64("chat_id", chatID).Str("game", string(t)).Str("game_id", g.ID).Msg("lobby opened")
	text, rows := uc.lobby(g)
	return text, rows, nil
}

// Join adds the user to the lobby and returns the refreshed lobby message.
func (uc *gameUC) Join(ctx context.Context, chatID, userID int64, username string) (string, [][]adapter.InlineButton, error) {
	var g *model.Game
	err := uc.withChatLock(ctx, chatID, func(ctx context.Context) error {
		var err error
		g, err = uc.games.Get(ctx, chatID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrJoinClosed
		}
		if err != nil {
			return err
		}
		if err := uc.engine.Join(g, userID, username, uc.now()); err != nil {
			return err
		}
		return uc.games.Save(ctx, g)
	})
	if err != nil {
		return "", nil, err
	}
	text, rows := uc.lobby(g)
	return text, rows, nil
}

// HandleText routes a plain group message to the running game, if any.
func (uc *gameUC) HandleText(ctx context.Context, chatID, userID int64, username, text string, messageID int) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	// Most group chatter happens with no game running; skip the lock then.
	if _, err := uc.games.Get(ctx, chatID); errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return uc.withChatLock(ctx, chatID, func(ctx context.Context) error {
		g, err := uc.games.Get(ctx, chatID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		started := g.Status == model.GameInProgress
		events := uc.engine.Answer(g, userID, username, text, uc.now())
		if len(events) == 0 {
			return nil
		}
		return uc.apply(ctx, g, events, messageID, started)
	})
}

func (uc *gameUC) HandlePollAnswer(ctx context.Context, pollID string, userID int64, username string, options []int) error {
	chatID, err := uc.games.ChatByPoll(ctx, pollID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return uc.withChatLock(ctx, chatID, func(ctx context.Context) error {
		g, err := uc.games.Get(ctx, chatID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		events := uc.engine.PollAnswer(g, userID, username, pollID, options, uc.now())
		if len(events) == 0 {
			return nil
		}
		return uc.apply(ctx, g, events, 0, true)
	})
}

// EndGame stops the chat's game. Only chat administrators may do this.
func (uc *gameUC) EndGame(ctx context.Context, chatID, userID int64) error {
	ok, err := uc.bot.IsChatAdmin(ctx, chatID, userID)
	if err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if !ok {
		return domain.ErrNotAdmin
	}
	return uc.withChatLock(ctx, chatID, func(ctx context.Context) error {
		g, err := uc.games.Get(ctx, chatID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNoGame
		}
		if err != nil {
			return err
		}
		started := g.Status == model.GameInProgress
		events := uc.engine.End(g)
		if len(events) == 0 {
			return domain.ErrNoGame
		}
		logging.With(ctx, uc.log).Info().Int64("chat_id", chatID).Int64("by", userID).Msg("game ended by admin")
		return uc.apply(ctx, g, events, 0, started)
	})
}

// Tick closes expired lobbies and advances every overdue round, turn and
// inactivity deadline. Chats locked by another worker are retried next tick.
func (uc *gameUC) Tick(ctx context.Context, now time.Time) (int, error) {
	start := time.Now()
	chats, err := uc.games.ActiveChats(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active games: %w", err)
	}
	changed := 0
	var errs []error
	for _, chatID := range chats {
		if ctx.Err() != nil {
			break
		}
		err := uc.withChatLock(ctx, chatID, func(ctx context.Context) error {
			g, err := uc.games.Get(ctx, chatID)
			if errors.Is(err, domain.ErrNotFound) {
				return uc.games.Delete(ctx, chatID)
			}
			if err != nil {
				return err
			}
			started := g.Status == model.GameInProgress
			var events []game.Event
			if game.JoinExpired(g, now) {
				var items []model.ContentItem
				if g.Type.UsesContent() {
					if items, err = uc.content.ListByType(ctx, repository.NoTX, g.Type); err != nil {
						return fmt.Errorf("load content: %w", err)
					}
				}
				events = uc.engine.Begin(g, items, now)
			} else {
				events = uc.engine.Tick(g, now)
			}
			if len(events) == 0 {
				return nil
			}
			changed++
			return uc.apply(ctx, g, events, 0, started)
		})
		if err != nil && !errors.Is(err, domain.ErrBusy) {
			logging.With(ctx, uc.log).Error().Err(err).Int64("chat_id", chatID).Msg("tick failed")
			errs = append(errs, err)
		}
	}
	metrics.SetActiveGames(len(chats))
	metrics.ObserveTick(time.Since(start))
	return changed, errors.Join(errs...)
}

// Restore reports the games that survived a restart. Their deadlines are
// plain data, so the next Tick resumes them.
func (uc *gameUC) Restore(ctx context.Context) (int, error) {
	games, err := uc.ActiveGames(ctx)
	if err != nil {
		return 0, err
	}
	for _, g := range games {
		uc.log.Info().Int64("chat_id", g.ChatID).Str("game", string(g.Type)).Str("status", string(g.Status)).Msg("restored game")
	}
	metrics.SetActiveGames(len(games))
	return len(games), nil
}

func (uc *gameUC) ActiveGames(ctx context.Context) ([]*model.Game, error) {
	chats, err := uc.games.ActiveChats(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Game, 0, len(chats))
	for _, chatID := range chats {
		g, err := uc.games.Get(ctx, chatID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// apply persists awarded points, announces events and stores or removes the
// game. When the points cannot be written the advanced state is dropped, so
// nothing is announced and the move can be repeated.
func (uc *gameUC) apply(ctx context.Context, g *model.Game, events []game.Event, replyTo int, startedBefore bool) error {
	finished := game.Finished(events)
	started := startedBefore || hasKind(events, game.EventStarted)
	awards := game.Awards(events)
	countGame := finished && started && len(g.Players) > 0

	if len(awards) > 0 || countGame {
		err := uc.withTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			for _, a := range awards {
				if err := uc.stats.AddScore(ctx, tx, a.UserID, a.Username, g.ChatID, int64(a.Points)); err != nil {
					return err
				}
			}
			if countGame {
				return uc.stats.IncGamesPlayed(ctx, tx, g.Players)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("persist scores: %w", err)
		}
		for _, a := range awards {
			metrics.AddPoints(string(g.Type), a.Points)
		}
	}

	uc.announce(ctx, g, events, replyTo)

	if finished {
		reason := finishReason(events)
		metrics.IncGameFinished(string(g.Type), string(reason))
		logging.With(ctx, uc.log).Info().Int64("chat_id", g.ChatID).Str("game_id", g.ID).Str("reason", string(reason)).Msg("game finished")
		return uc.games.Delete(ctx, g.ChatID)
	}
	return uc.games.Save(ctx, g)
}

func (uc *gameUC) withTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if uc.tm == nil {
		return fn(ctx, repository.NoTX)
	}
	return uc.tm.WithTx(ctx, pgx.TxOptions{}, fn)
}

// withChatLock runs fn while holding the chat's lock. The lock is refreshed
// while fn runs, since announcing events waits on the Telegram API.
func (uc *gameUC) withChatLock(ctx context.Context, chatID int64, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:game:%d", chatID)
	token, err := uc.locker.TryLock(ctx, key, uc.lockTTL)
	if err != nil {
		return err
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(uc.lockTTL / 3)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				if err := uc.locker.Extend(context.WithoutCancel(ctx), key, token, uc.lockTTL); err != nil {
					uc.log.Warn().Err(err).Str("key", key).Msg("lock refresh failed")
				}
			}
		}
	}()

	defer func() {
		close(stop)
		<-done
		if err := uc.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			uc.log.Warn().Err(err).Str("key", key).Msg("unlock failed")
		}
	}()
	return fn(ctx)
}

func (uc *gameUC) lobby(g *model.Game) (string, [][]adapter.InlineButton) {
	text := uc.tr.T("lobby", g.Type.DisplayName(), strings.Join(g.PlayerNames(), "\n"))
	rows := [][]adapter.InlineButton{{{Text: uc.tr.T("btn_join"), Data: fmt.Sprintf("%s%d", CallbackJoinGame, g.ChatID)}}}
	return text, rows
}

func hasKind(events []game.Event, k game.EventKind) bool {
	for _, e := range events {
		if e.Kind == k {
			return true
		}
	}
	return false
}

func finishReason(events []game.Event) game.FinishReason {
	for _, e := range events {
		if e.Kind == game.EventFinished {
			return e.Reason
		}
	}
	return ""
}
