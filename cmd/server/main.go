package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/motorly/backend/api/handler"
	"github.com/motorly/backend/internal/config"
	"github.com/motorly/backend/internal/infrastructure/mailqueue"
	"github.com/motorly/backend/internal/infrastructure/monitor"
	pgInfra "github.com/motorly/backend/internal/infrastructure/postgres"
	redisInfra "github.com/motorly/backend/internal/infrastructure/redis"
	"github.com/motorly/backend/internal/middleware"
	"github.com/motorly/backend/internal/router"
	"github.com/motorly/backend/internal/services"
	"github.com/motorly/backend/internal/services/lifecycle"
	"github.com/motorly/backend/pkg/httpcontext"
	"github.com/motorly/backend/pkg/logger"
	"github.com/motorly/backend/pkg/mailer"
	"github.com/motorly/backend/pkg/token"
	"github.com/motorly/backend/repository/postgres"
	redisRepo "github.com/motorly/backend/repository/redis"
	authUC "github.com/motorly/backend/usecase/auth"
	carUC "github.com/motorly/backend/usecase/car"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	outbox, err := mailqueue.Open(cfg.Outbox.Path, "outbox")
	if err != nil {
		zapLogger.Fatal("failed to open mail outbox", zap.Error(err))
	}
	manager.Register("mail_outbox", func(ctx context.Context) error {
		return outbox.Close()
	})

	mon := monitor.New(pool, redisClient, outbox, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	smtpMailer, err := mailer.New(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
		Timeout:  cfg.SMTP.Timeout,
	})
	if err != nil {
		zapLogger.Fatal("mailer setup failed", zap.Error(err))
	}

	dispatcher := services.NewMailDispatcher(outbox, smtpMailer, zapLogger, services.DispatcherConfig{
		Interval:   cfg.Outbox.DrainInterval,
		BatchSize:  cfg.Outbox.BatchSize,
		MaxRetries: cfg.Outbox.MaxRetries,
	})
	dispatcher.Start()
	manager.Register("mail_dispatcher", func(ctx context.Context) error {
		dispatcher.Stop(ctx)
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	carRepo := postgres.NewCarRepository(pool)
	throttle := redisRepo.NewLoginThrottle(redisClient, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow)

	tokens, err := token.New(cfg.Auth.JWTSecret, cfg.Auth.TokenValidity)
	if err != nil {
		zapLogger.Fatal("token manager setup failed", zap.Error(err))
	}

	authUseCase := authUC.New(userRepo, throttle, tokens, dispatcher, authUC.Config{
		ResetTokenTTL: cfg.Auth.ResetTokenTTL,
		OTPTTL:        cfg.Auth.OTPTTL,
		PublicURL:     cfg.Auth.PublicURL,
	}, zapLogger)
	carUseCase := carUC.New(carRepo, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:   apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger, cfg.Auth.TokenValidity, cfg.Auth.SupportEmail, cfg.Auth.SecureCookie),
		Car:    apiHandler.NewCarHandler(carUseCase, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	guard := middleware.NewGuard(tokens, userRepo, zapLogger)
	r := router.New(handlers, guard)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
