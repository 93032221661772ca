package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MallamTeja/Fintrack/config"
	"github.com/MallamTeja/Fintrack/internal/handler"
	"github.com/MallamTeja/Fintrack/internal/middleware"
	"github.com/MallamTeja/Fintrack/internal/realtime"
	"github.com/MallamTeja/Fintrack/internal/redis"
	"github.com/MallamTeja/Fintrack/internal/repository"
	"github.com/MallamTeja/Fintrack/internal/server"
	"github.com/MallamTeja/Fintrack/internal/services"
	"github.com/MallamTeja/Fintrack/internal/storage"
	"github.com/MallamTeja/Fintrack/internal/token"
	"github.com/MallamTeja/Fintrack/pkg/database"
	"github.com/MallamTeja/Fintrack/pkg/logger"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.AppMode)
	logger.SetGlobalLogger(l)
	defer l.Sync()

	log := l.Logger
	l.Infof("fintrack api starting in %s mode", cfg.AppMode)
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	applied, err := database.Migrate(ctx, db)
	if err != nil {
		log.Fatal("failed to apply migrations", zap.Error(err))
	}
	if len(applied) > 0 {
		log.Info("migrations applied", zap.Strings("files", applied))
	}

	tokens := token.NewManager(cfg.JWTSecret, time.Duration(cfg.JWTExpiryMin)*time.Minute)

	var (
		limiter  middleware.Limiter
		authOpts []services.AuthOption
		rtOpts   = []realtime.Option{realtime.WithLogger(l.Component("realtime"))}
		relay    *redis.Relay
	)
	if cfg.RedisEnabled {
		rdb, err := redis.Connect(ctx, redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()

		relay = redis.NewRelay(redis.NewPubSub(rdb), cfg.RedisChannel, l.Component("relay"))
		rtOpts = append(rtOpts, realtime.WithRelay(relay))
		limiter = redis.NewRateLimiter(rdb, redis.RateLimitConfig{
			APILimit:   cfg.RateLimitAPI,
			APIWindow:  cfg.RateLimitAPIWindow,
			AuthLimit:  cfg.RateLimitAuth,
			AuthWindow: cfg.RateLimitAuthWin,
		})
		authOpts = append(authOpts, services.WithProfileCache(redis.NewProfileCache(rdb, redis.DefaultProfileTTL)))
	} else {
		log.Warn("redis disabled: rate limiting, profile cache and cross-instance relay are off")
	}

	rt, err := realtime.Initialize(realtime.Config{
		AuthMode:          realtime.AuthMode(cfg.WSAuthMode),
		HeartbeatInterval: cfg.WSHeartbeatInterval,
		SendBuffer:        cfg.WSSendBuffer,
		AllowedOrigins:    cfg.CORSOrigins,
	}, tokens, rtOpts...)
	if err != nil {
		log.Fatal("failed to start realtime", zap.Error(err))
	}

	if relay != nil {
		go relay.Run(ctx, nil, rt.DeliverLocal)
	}

	var statements services.StatementStore
	if cfg.S3Enabled {
		store, err := storage.NewClient(ctx, storage.S3Config{
			Region:     cfg.S3Region,
			Bucket:     cfg.S3Bucket,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			Endpoint:   cfg.S3Endpoint,
			PresignTTL: cfg.S3PresignTTL,
		})
		if err != nil {
			log.Fatal("failed to configure statement storage", zap.Error(err))
		}
		statements = store
	}

	clock := clockwork.NewRealClock()
	notify := services.NewNotifier(rt, cfg.WSBroadcastGlobal)

	users := repository.NewUserRepository(db)
	budgets := repository.NewBudgetRepository(db)
	goals := repository.NewSavingsGoalRepository(db)
	transactions := repository.NewTransactionRepository(db)

	authService := services.NewAuthService(users, tokens, notify, authOpts...)

	srv := server.New(cfg, l)
	srv.SetupRoutes(server.Deps{
		Handlers: server.Handlers{
			Auth:         handler.NewAuthHandler(authService),
			Budgets:      handler.NewBudgetHandler(services.NewBudgetService(budgets, transactions, notify, clock)),
			Savings:      handler.NewSavingsHandler(services.NewSavingsService(goals, notify, clock)),
			Transactions: handler.NewTransactionHandler(services.NewTransactionService(transactions, notify, clock)),
			Export:       handler.NewExportHandler(services.NewExportService(transactions, statements, clock)),
		},
		AuthService: authService,
		Realtime:    rt,
		Limiter:     limiter,
		DB:          db,
	})

	if err := srv.Run(ctx); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
