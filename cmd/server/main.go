package main // Entry point package

import (
    "context"
    "os/signal"
    "syscall"

    "github.com/joho/godotenv"    // loads .env files during local development
    "github.com/labstack/echo/v4" // Echo web framework
    log "github.com/sirupsen/logrus"

    "github.com/jkamau/filamu/internal/bot"
    "github.com/jkamau/filamu/internal/config"
    "github.com/jkamau/filamu/internal/database"
    "github.com/jkamau/filamu/internal/fulfillment"
    "github.com/jkamau/filamu/internal/handler"
    "github.com/jkamau/filamu/internal/middleware"
    "github.com/jkamau/filamu/internal/mpesa"
    "github.com/jkamau/filamu/internal/queue"
    "github.com/jkamau/filamu/internal/repository"
    "github.com/jkamau/filamu/internal/router"
    "github.com/jkamau/filamu/internal/session"
)

func main() {
    // Load .env if present; real deployments set env vars directly.
    _ = godotenv.Load()

    cfg := config.Load() // Load environment config

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    if err := database.Migrate(ctx, db); err != nil {
        log.Fatalf("migrate: %v", err)
    }

    // Repositories over the shared connection pool.
    users := repository.NewUserRepo(db)
    movies := repository.NewMovieRepo(db)
    series := repository.NewSeriesRepo(db)
    txs := repository.NewTransactionRepo(db)
    admins := repository.NewAdminRepo(db)
    settings := repository.NewSettingsRepo(db)

    // Stored settings override environment values when present so the panel
    // can rotate tokens without redeploying.
    if s, err := settings.Get(ctx); err == nil {
        if s.BotToken != "" {
            cfg.BotToken = s.BotToken
        }
        if s.WelcomeMessage != "" {
            cfg.WelcomeMessage = s.WelcomeMessage
        }
        if s.MpesaConsumerKey != "" {
            cfg.Mpesa.ConsumerKey = s.MpesaConsumerKey
        }
        if s.MpesaConsumerSecret != "" {
            cfg.Mpesa.ConsumerSecret = s.MpesaConsumerSecret
        }
        if s.MpesaPassKey != "" {
            cfg.Mpesa.PassKey = s.MpesaPassKey
        }
        if s.MpesaShortCode != "" {
            cfg.Mpesa.ShortCode = s.MpesaShortCode
        }
        if s.MpesaCallbackURL != "" {
            cfg.Mpesa.CallbackURL = s.MpesaCallbackURL
        }
    }

    // Conversation sessions live in Redis when available and in memory
    // otherwise; the bot works either way, sessions just do not survive a
    // restart without Redis.  The same Redis client backs the HTTP rate
    // limiter, which degrades to a pass-through without it.
    rdb := config.NewRedisClient()
    var sessions session.Store
    if rdb != nil {
        sessions = session.NewRedisStore(rdb, cfg.SessionTTL)
    } else {
        sessions = session.NewMemoryStore(cfg.SessionTTL)
    }

    gateway := mpesa.NewClient(cfg.Mpesa)

    telegram, err := bot.NewTelegram(cfg.BotToken)
    if err != nil {
        log.Fatalf("telegram: %v", err)
    }

    engine := bot.NewEngine(sessions, movies, series, txs, users, gateway, telegram, cfg.WelcomeMessage)
    dispatcher := fulfillment.NewDispatcher(txs, movies, series, users, telegram)

    // Payment audit consumer; logs processed payments to logs/payments.log.
    go func() {
        if err := queue.StartPaymentConsumer(); err != nil {
            log.Warnf("payment consumer stopped: %v", err)
        }
    }()

    // Telegram long-poll loop.
    go telegram.Run(ctx, engine)

    e := echo.New()          // Create Echo instance
    e.HideBanner = true
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
    router.RegisterRoutes(e) // Register application routes
    router.RegisterCallback(e, handler.NewCallbackHandler(dispatcher))
    router.RegisterAuth(e, handler.NewAuthHandler(cfg, admins), cfg.JWTSecret)
    router.RegisterAdmin(e, handler.NewAdminHandler(movies, series, users, txs, settings), cfg.JWTSecret)

    addr := ":" + cfg.Port                                // Address string with port
    log.Infof("listening on %s (env=%s)", addr, cfg.Env)  // Print startup info

    go func() {
        <-ctx.Done()
        _ = e.Shutdown(context.Background())
    }()

    if err := e.Start(addr); err != nil { // Start HTTP server
        log.Info(err) // echo returns http.ErrServerClosed on graceful shutdown
    }
}
