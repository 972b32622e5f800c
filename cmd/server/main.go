package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"postboard/internal/app"
	"postboard/internal/config"
	"postboard/internal/credential"
	apphttp "postboard/internal/http"
	"postboard/internal/migrations"
	"postboard/internal/schema"
	"postboard/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		logrus.Fatalf("setup logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := app.OpenDatabase(ctx, cfg)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	runner, err := migrations.NewRunner(db.DB, db.Dialect, logger)
	if err != nil {
		logger.Fatalf("setup migrations: %v", err)
	}
	applied, err := runner.Up(ctx)
	if err != nil {
		logger.Fatalf("run migrations: %v", err)
	}
	logger.Infof("schema up to date (%d migrations applied)", len(applied))

	hasher, err := credential.New(credential.Options{
		Algorithm:  cfg.Auth.Hasher,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	if err != nil {
		logger.Fatalf("setup credentials: %v", err)
	}

	userService := service.NewUserService(db.Users, hasher, service.UserServiceOptions{
		UniformLoginErrors: cfg.Auth.UniformLoginErrors,
		Logger:             logger,
	})
	postService := service.NewPostService(db.Posts)

	gqlSchema, err := schema.New(userService, postService, logger)
	if err != nil {
		logger.Fatalf("build graphql schema: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	apphttp.NewHandler(gqlSchema, logger).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s (driver %s)", cfg.Server.Addr, cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}
