package main

import (
	"context"
	"flag"
	"time"

	"github.com/sirupsen/logrus"

	"postboard/internal/app"
	"postboard/internal/config"
	"postboard/internal/migrations"
)

func main() {
	command := flag.String("command", "up", "migrate command (up|status)")
	timeout := flag.Duration("timeout", time.Minute, "command timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger, err := app.NewLogger(cfg)
	if err != nil {
		logrus.Fatalf("setup logger: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := app.OpenDatabase(ctx, cfg)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	runner, err := migrations.NewRunner(db.DB, db.Dialect, logger)
	if err != nil {
		logger.Fatalf("setup migrations: %v", err)
	}

	switch *command {
	case "up":
		applied, err := runner.Up(ctx)
		if err != nil {
			logger.Fatalf("apply migrations: %v", err)
		}
		logger.Infof("%d migrations applied", len(applied))
	case "status":
		statuses, err := runner.Status(ctx)
		if err != nil {
			logger.Fatalf("migration status: %v", err)
		}
		for _, st := range statuses {
			entry := logger.WithFields(logrus.Fields{
				"version": st.Version,
				"name":    st.Name,
				"applied": st.Applied,
			})
			if st.Applied {
				entry = entry.WithField("applied_at", st.AppliedAt.Format(time.RFC3339))
			}
			entry.Info("migration")
		}
	default:
		logger.Fatalf("unsupported command %q", *command)
	}

	logger.WithField("command", *command).Info("migration command completed")
}
