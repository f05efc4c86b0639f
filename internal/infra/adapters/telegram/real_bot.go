package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-game-bot/internal/application"
	"telegram-game-bot/internal/config"
	"telegram-game-bot/internal/domain/ports/adapter"
	"telegram-game-bot/internal/domain/ports/repository"
	"telegram-game-bot/internal/infra/i18n"
	"telegram-game-bot/internal/infra/logging"
	"telegram-game-bot/internal/infra/metrics"
	red "telegram-game-bot/internal/infra/redis"
	"telegram-game-bot/internal/infra/worker"
	"telegram-game-bot/internal/usecase"
)

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// botAPI is the part of *tgbotapi.BotAPI the adapter uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// RealTelegramBotAdapter polls updates, hands them to the worker pool and
// delegates to BotFacade. It is also the outbound messenger for the use cases.
type RealTelegramBotAdapter struct {
	bot         botAPI
	cfg         *config.BotConfig
	facade      *application.BotFacade
	rateLimiter repository.RateLimiter
	pool        *worker.Pool
	translator  *i18n.Translator

	adminIDsMap map[int64]struct{}
	username    string
	running     atomic.Bool

	mu            sync.Mutex
	cancelPolling context.CancelFunc

	log *zerolog.Logger
}

func NewRealTelegramBotAdapter(cfg *config.BotConfig, rateLimiter repository.RateLimiter, pool *worker.Pool, translator *i18n.Translator, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if pool == nil {
		return nil, errors.New("worker pool is nil")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	r := newAdapter(bot, cfg, rateLimiter, pool, translator, logger)
	r.username = bot.Self.UserName
	return r, nil
}

func newAdapter(bot botAPI, cfg *config.BotConfig, rateLimiter repository.RateLimiter, pool *worker.Pool, translator *i18n.Translator, logger *zerolog.Logger) *RealTelegramBotAdapter {
	adminMap := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		adminMap[id] = struct{}{}
	}
	return &RealTelegramBotAdapter{
		bot:         bot,
		cfg:         cfg,
		rateLimiter: rateLimiter,
		pool:        pool,
		translator:  translator,
		adminIDsMap: adminMap,
		username:    cfg.Username,
		log:         logger,
	}
}

// SetFacade binds the facade. The use cases behind it send through this
// adapter, so it is constructed first.
func (r *RealTelegramBotAdapter) SetFacade(f *application.BotFacade) { r.facade = f }

// Running reports whether the polling loop is active.
func (r *RealTelegramBotAdapter) Running() bool { return r.running.Load() }

func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	if r.facade == nil {
		return errors.New("bot facade is not set")
	}
	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancelPolling = cancel
	r.mu.Unlock()
	defer cancel()

	if err := r.setMenuCommands(); err != nil {
		r.log.Warn().Err(err).Msg("failed to set bot commands")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "callback_query", "poll_answer", "my_chat_member"}
	updates := r.bot.GetUpdatesChan(u)

	r.running.Store(true)
	defer r.running.Store(false)
	r.log.Info().Str("username", r.username).Msg("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			r.dispatch(ctx, up)
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	r.mu.Lock()
	cancel := r.cancelPolling
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// dispatch queues the update; when the pool is saturated the polling
// goroutine handles it itself, which slows intake instead of dropping answers.
func (r *RealTelegramBotAdapter) dispatch(ctx context.Context, up tgbotapi.Update) {
	task := func(ctx context.Context) error { return r.handleUpdate(ctx, up) }
	if err := r.pool.Submit(task); err != nil {
		r.log.Warn().Err(err).Int("update_id", up.UpdateID).Msg("worker queue saturated, handling inline")
		if err := task(ctx); err != nil {
			r.log.Error().Err(err).Int("update_id", up.UpdateID).Msg("update handling failed")
		}
	}
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	ctx = logging.WithTraceID(ctx, uuid.NewString())

	switch {
	case update.CallbackQuery != nil:
		return r.handleQuery(ctx, update.CallbackQuery)
	case update.PollAnswer != nil:
		return r.handlePollAnswer(ctx, update.PollAnswer)
	case update.MyChatMember != nil:
		return r.handleMembership(ctx, update.MyChatMember)
	case update.Message != nil:
		return r.handleMessage(ctx, update.Message)
	}
	return nil
}

func (r *RealTelegramBotAdapter) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if message.From == nil || message.From.IsBot || message.Chat == nil {
		return nil
	}
	ctx = logging.WithChatID(logging.WithTgID(ctx, message.From.ID), message.Chat.ID)

	if message.IsCommand() {
		command := message.Command()
		handler, ok := r.commandRoutes()[command]
		if !ok {
			return nil
		}
		if !r.allow(ctx, message.From.ID, "/"+command) {
			return r.reply(ctx, message, r.translator.T("rate_limited"))
		}
		metrics.IncUpdate("command", command)
		return handler(ctx, message)
	}

	if message.Text == "" || message.Chat.IsPrivate() {
		return nil
	}
	// Plain group chatter over the limit is dropped quietly.
	if !r.allow(ctx, message.From.ID, "message") {
		return nil
	}
	metrics.IncUpdate("text", "group")
	err := r.facade.GameUC.HandleText(ctx, message.Chat.ID, message.From.ID, playerName(message.From), message.Text, message.MessageID)
	if err != nil {
		return r.replyError(ctx, message, err)
	}
	return nil
}

func (r *RealTelegramBotAdapter) handlePollAnswer(ctx context.Context, answer *tgbotapi.PollAnswer) error {
	ctx = logging.WithTgID(ctx, answer.User.ID)
	metrics.IncUpdate("poll_answer", "quiz")
	err := r.facade.GameUC.HandlePollAnswer(ctx, answer.PollID, answer.User.ID, playerName(&answer.User), answer.OptionIDs)
	if err != nil {
		logging.With(ctx, r.log).Debug().Err(err).Str("poll_id", answer.PollID).Msg("poll answer not applied")
	}
	return nil
}

// handleMembership registers groups the bot is added to without a /start.
func (r *RealTelegramBotAdapter) handleMembership(ctx context.Context, upd *tgbotapi.ChatMemberUpdated) error {
	status := upd.NewChatMember.Status
	if status != "member" && status != "administrator" {
		return nil
	}
	if !upd.Chat.IsGroup() && !upd.Chat.IsSuperGroup() {
		return nil
	}
	_, err := r.facade.HandleStart(ctx, startInfo(&upd.Chat, &upd.From))
	return err
}

// allow reports whether the user is within the per-minute budget. Limiter
// failures let the message through.
func (r *RealTelegramBotAdapter) allow(ctx context.Context, userID int64, command string) bool {
	if r.rateLimiter == nil {
		return true
	}
	ok, err := r.rateLimiter.Allow(ctx, red.UserCommandKey(userID, command), r.cfg.RateLimit, time.Minute)
	if err != nil {
		logging.With(ctx, r.log).Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	if !ok {
		metrics.IncRateLimited(command)
	}
	return ok
}

func (r *RealTelegramBotAdapter) isAdmin(tgID int64) bool {
	_, ok := r.adminIDsMap[tgID]
	return ok
}

// SendMessage implements the adapter port. Markdown that Telegram rejects is
// resent as plain text.
func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, params adapter.SendMessageParams) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(params.ChatID, params.Text)
	msg.ParseMode = params.ParseMode
	msg.ReplyToMessageID = params.ReplyTo
	msg.AllowSendingWithoutReply = true
	if kb := buildKeyboard(params.Buttons); kb != nil {
		msg.ReplyMarkup = *kb
	}

	sent, err := r.bot.Send(msg)
	if err != nil && msg.ParseMode != "" && isParseError(err) {
		msg.ParseMode = ""
		sent, err = r.bot.Send(msg)
	}
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (r *RealTelegramBotAdapter) EditMessage(ctx context.Context, chatID int64, messageID int, text string, rows [][]adapter.InlineButton) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.ReplyMarkup = buildKeyboard(rows)

	_, err := r.bot.Send(edit)
	if err != nil && isParseError(err) {
		edit.ParseMode = ""
		_, err = r.bot.Send(edit)
	}
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}

func (r *RealTelegramBotAdapter) SendQuizPoll(ctx context.Context, params adapter.QuizPollParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	poll := tgbotapi.NewPoll(params.ChatID, params.Question, params.Options...)
	poll.Type = "quiz"
	poll.IsAnonymous = false
	poll.CorrectOptionID = int64(params.CorrectOption)
	poll.Explanation = params.Explanation
	poll.OpenPeriod = params.OpenPeriod

	sent, err := r.bot.Send(poll)
	if err != nil {
		return "", err
	}
	if sent.Poll == nil {
		return "", errors.New("telegram returned no poll")
	}
	return sent.Poll.ID, nil
}

func (r *RealTelegramBotAdapter) IsChatAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	if r.isAdmin(userID) {
		return true, nil
	}
	member, err := r.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		return false, err
	}
	return member.IsCreator() || member.IsAdministrator(), nil
}

// buildKeyboard converts port buttons into an inline keyboard.
// - If btn.URL is set, the button opens a link
// - Else if btn.Data is set, the button sends callback data
// - Else the label doubles as callback data
func buildKeyboard(rows [][]adapter.InlineButton) *tgbotapi.InlineKeyboardMarkup {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		out := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				out = append(out, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				out = append(out, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			default:
				out = append(out, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		kbRows = append(kbRows, out)
	}
	if len(kbRows) == 0 {
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	return &markup
}

func isParseError(err error) bool {
	return strings.Contains(err.Error(), "can't parse entities")
}

func playerName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.UserName
}

func startInfo(chat *tgbotapi.Chat, from *tgbotapi.User) usecase.StartInfo {
	return usecase.StartInfo{
		ChatID:    chat.ID,
		ChatType:  chat.Type,
		ChatTitle: chat.Title,
		UserID:    from.ID,
		Username:  from.UserName,
		FullName:  strings.TrimSpace(from.FirstName + " " + from.LastName),
	}
}
