package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shingo/auth-api/internal/api"
	"github.com/shingo/auth-api/internal/audit"
	"github.com/shingo/auth-api/internal/core/service"
	"github.com/shingo/auth-api/internal/core/token"
	"github.com/shingo/auth-api/internal/infrastructure/config"
	mongodb "github.com/shingo/auth-api/internal/infrastructure/db/mongo"
	redisdb "github.com/shingo/auth-api/internal/infrastructure/db/redis"
	"github.com/shingo/auth-api/pkg/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{})
		l := logger.Get()
		l.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect mongo")
	}
	defer func() {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
	}()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("ensure indexes")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer func() { _ = rdb.Close() }()

	auditStore := mongodb.NewAuditRepository(db)
	dispatcher := audit.NewDispatcher(cfg.AuditWorkers, auditStore, log)
	dispatcher.Start(ctx)
	auditLog := audit.New(log, dispatcher)

	roleRepo := mongodb.NewRoleRepository(db)
	permRepo := mongodb.NewPermissionRepository(db)
	userRepo := mongodb.NewUserRepository(db, roleRepo, permRepo)

	hasher := service.NewHasher()
	tokens := token.NewService(cfg.JWTSecret, cfg.JWTIssuer, auditLog,
		token.WithSessionTTL(cfg.SessionTTL),
		token.WithResetTTL(cfg.ResetTTL),
	)
	eval := service.NewEvaluator(auditLog)
	grants := service.NewGrantManager(permRepo, auditLog)
	resets := redisdb.NewResetMarker(rdb)

	authService := service.NewAuthService(userRepo, hasher, tokens, eval, grants, resets, auditLog, log)
	userService := service.NewUserService(userRepo, roleRepo, hasher, auditLog, log)
	roleService := service.NewRoleService(roleRepo, auditLog)

	e := api.NewRouter(api.Deps{
		Auth:     authService,
		Users:    userService,
		Roles:    roleService,
		UserRepo: userRepo,
		DB:       db,
		RDB:      rdb,
		Log:      log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting auth-api")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("stopped")
}
