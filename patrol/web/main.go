package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"guardpatrol.com/patrol/core"
	"guardpatrol.com/patrol/infrastructure/communication"
	"guardpatrol.com/patrol/infrastructure/filesystem"
	"guardpatrol.com/patrol/infrastructure/lock"
	patrol "guardpatrol.com/patrol/patrol/core"
	"guardpatrol.com/patrol/patrol/store"
	common "guardpatrol.com/patrol/patrol/web/common"
	"guardpatrol.com/patrol/patrol/web/handlers/guard"
	"guardpatrol.com/patrol/patrol/web/handlers/round"
	"guardpatrol.com/patrol/patrol/web/handlers/supervisor"
	"guardpatrol.com/patrol/security"
	"guardpatrol.com/patrol/utils"
	"guardpatrol.com/patrol/web/middlewares"
)

func main() {
	cfg, err := core.LoadConfig(".")
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	logger, err := core.NewLogger(cfg.LogLevel, cfg.LogFormat, "patrol-api")
	if err != nil {
		log.Fatal("failed to build logger: ", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	dsn, err := cfg.ResolveDSN(ctx)
	if err != nil {
		logger.Fatal("failed to resolve database", zap.Error(err))
	}
	dm, err := core.New(dsn, cfg.DBMaxConnections, core.ParseLogLevel(cfg.DBLogLevel))
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	defer dm.Close()

	jwtSecret, err := security.DecodeSecret(cfg.JWTSecret)
	if err != nil {
		logger.Fatal("invalid JWT_SECRET", zap.Error(err))
	}

	st := store.New(dm)

	var engineOpts []patrol.Option
	if cfg.RedisURL != "" {
		client, err := lock.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		defer client.Close()
		engineOpts = append(engineOpts, patrol.WithLocker(lock.NewRedisLocker(client, 0)))
		logger.Info("using redis round locks")
	}
	engine := patrol.NewEngine(st, st, st, logger.Named("engine"), engineOpts...)

	photos, err := photoStorage(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to set up photo storage", zap.Error(err))
	}

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middlewares.RequestLogger(logger), middlewares.Recovery(logger))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	base := common.Handler{Log: logger}
	auth := common.Auth{Secret: jwtSecret}

	v1 := r.Group("/api/patrol/v1")
	protected := v1.Group("")
	protected.Use(middlewares.Authentication(jwtSecret))
	{
		guardOnly := protected.Group("", middlewares.RequireRole(security.RoleGuard))
		guard.Register(v1, guardOnly, guard.Deps{
			Base:     base,
			Store:    st,
			Photos:   photos,
			Notifier: notifier(ctx, cfg, logger),
			Auth:     auth,
		})

		round.Register(protected, base, engine, st)

		supervisorOnly := protected.Group("/supervisor", middlewares.RequireRole(security.RoleSupervisor))
		supervisor.Register(v1.Group("/supervisor"), supervisorOnly, supervisor.Deps{
			Base:      base,
			Store:     st,
			Dashboard: patrol.NewDashboard(st, cfg.DashboardConcurrency),
			Auth:      auth,
		})
	}

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Port), zap.String("env", cfg.AppEnv))
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

// notifier posts to Slack and emails through SES for whichever is
// configured, and only logs when neither is.
func notifier(ctx context.Context, cfg core.Config, logger *zap.Logger) communication.Notifier {
	var targets communication.Multi
	if cfg.SlackToken != "" && cfg.SlackChannel != "" {
		targets = append(targets, communication.NewSlack(cfg.SlackToken, communication.SlackOption{
			InfoChannelID:  cfg.SlackChannel,
			AlertChannelID: cfg.SlackChannel,
		}))
	}
	if cfg.AlertEmailFrom != "" && cfg.AlertEmailTo != "" {
		email, err := communication.ConnectEmail(ctx, cfg.AlertEmailFrom, utils.SplitList(cfg.AlertEmailTo))
		if err != nil {
			logger.Warn("email alerts disabled", zap.Error(err))
		} else {
			targets = append(targets, email)
		}
	}
	switch len(targets) {
	case 0:
		return communication.NewLogNotifier(logger.Named("alerts"))
	case 1:
		return targets[0]
	}
	return targets
}

func photoStorage(ctx context.Context, cfg core.Config) (filesystem.Storage, error) {
	if cfg.PhotoBucket != "" {
		return filesystem.ConnectS3(ctx, cfg.PhotoBucket)
	}
	return filesystem.NewDiskStorage(cfg.PhotoDir)
}
