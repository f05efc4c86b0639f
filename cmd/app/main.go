// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"telegram-game-bot/internal/application"
	"telegram-game-bot/internal/buildcheck"
	"telegram-game-bot/internal/config"
	"telegram-game-bot/internal/domain/game"
	"telegram-game-bot/internal/domain/ports/adapter"
	tele "telegram-game-bot/internal/infra/adapters/telegram"
	"telegram-game-bot/internal/infra/api"
	"telegram-game-bot/internal/infra/api/apiv1"
	pg "telegram-game-bot/internal/infra/db/postgres"
	"telegram-game-bot/internal/infra/i18n"
	"telegram-game-bot/internal/infra/logging"
	"telegram-game-bot/internal/infra/metrics"
	red "telegram-game-bot/internal/infra/redis"
	"telegram-game-bot/internal/infra/sched"
	"telegram-game-bot/internal/infra/scheduler"
	"telegram-game-bot/internal/infra/worker"
	"telegram-game-bot/internal/usecase"
)

const leaderboardCacheTTL = 30 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, no redaction)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		boot := logging.New(config.LogConfig{Level: "info", Format: "console"}, true)
		boot.Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}

	// ---- Metrics / build info ----
	metrics.MustRegister()
	info := buildcheck.BuildInfo()
	metrics.SetBuildInfo(info.Version, info.Commit)
	logger.Info().
		Str("version", info.Version).
		Str("commit", info.Commit).
		Str("bot_mode", cfg.Bot.Mode).
		Str("bot_token", logging.Redact(cfg.Bot.Token, cfg.Runtime.Dev)).
		Int("http_port", cfg.HTTP.Port).
		Msg("starting")

	if cfg.Runtime.Preflight {
		if err := buildcheck.Preflight(ctx, cfg.BuildCheck, logger); err != nil {
			logger.Fatal().Err(err).Msg("preflight")
		}
	}

	// ---- Postgres ----
	pool, err := pg.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	if err := pg.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient)
	gameRepo := red.NewGameRepo(redisClient, 0)

	// ---- Repositories ----
	statsRepo := pg.NewStatsRepoCacheDecorator(pg.NewStatsRepo(pool), redisClient, leaderboardCacheTTL, logger)
	groupRepo := pg.NewGroupRepo(pool)
	contentRepo := pg.NewContentRepo(pool)
	tm := pg.NewTxManager(pool)

	translator, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Bot.Language)
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}

	// ---- Workers ----
	workers := worker.NewPool(cfg.Bot.Workers, logger)
	workers.Start(ctx)
	defer workers.Stop()

	// ---- Telegram ----
	var (
		bot        adapter.TelegramBotAdapter
		realBot    *tele.RealTelegramBotAdapter
		botRunning = func() bool { return false }
	)
	switch cfg.Bot.Mode {
	case "noop":
		logger.Warn().Msg("bot.mode=noop: outgoing messages are only logged")
		bot = tele.NewNoopBotAdapter(logger)
	default:
		realBot, err = tele.NewRealTelegramBotAdapter(&cfg.Bot, rateLimiter, workers, translator, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
		bot = realBot
		botRunning = realBot.Running
	}

	// ---- Use cases ----
	engine := game.NewEngine(game.Settings{
		JoinWindow:      cfg.Game.JoinWindow,
		QuizRound:       cfg.Game.QuizRound,
		GuessRound:      cfg.Game.GuessRound,
		TurnTimeout:     cfg.Game.TurnTimeout,
		InactivityLimit: cfg.Game.InactivityLimit,
		QuizItems:       cfg.Game.QuizItems,
		GuessItems:      cfg.Game.GuessItems,
	}, rand.New(rand.NewSource(time.Now().UnixNano())))

	gameUC := usecase.NewGameUseCase(gameRepo, contentRepo, statsRepo, locker, tm, bot, engine, translator, logger)
	statsUC := usecase.NewStatsUseCase(statsRepo, groupRepo, contentRepo, logger)
	groupUC := usecase.NewGroupUseCase(groupRepo, bot, translator, cfg.Bot.LogChannelID, cfg.Bot.BroadcastPacing, logger)

	if n, err := gameUC.Restore(ctx); err != nil {
		logger.Error().Err(err).Msg("restore games")
	} else if n > 0 {
		logger.Info().Int("games", n).Msg("restored active games")
	}

	// ---- Facade ----
	if realBot != nil {
		realBot.SetFacade(application.NewBotFacade(gameUC, statsUC, groupUC, translator))
		go func() {
			if err := realBot.StartPolling(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("telegram polling stopped")
			}
		}()
	}

	// ---- Game timers ----
	ticker := scheduler.NewScheduler(cfg.Game.TickInterval, gameUC, logger)
	ticker.Start(ctx)

	// ---- DB pool gauges ----
	poolStats := sched.NewPoolStatsWorker(15*time.Second, func() { pg.ReportPoolStats(pool) }, logger)
	go func() { _ = poolStats.Run(ctx) }()

	// ---- HTTP ----
	auth := apiv1.NewAuthManager(cfg.HTTP.JWTSecret, cfg.HTTP.AdminAPIKey, cfg.HTTP.TokenTTL)
	if !auth.Enabled() {
		logger.Warn().Msg("http.admin_api_key or http.jwt_secret not set; admin API disabled")
	}
	srv := api.NewServer(cfg.HTTP, botRunning, apiv1.NewServer(gameUC, statsUC, groupUC, auth, logger), logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("http server")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	<-ctx.Done()
	logger.Info().Msg("shutdown requested")

	if realBot != nil {
		realBot.StopPolling()
	}
	ticker.Stop()

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	logger.Info().Msg("bye")
}
