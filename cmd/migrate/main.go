package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/db"
	"github.com/geocoder89/taskhub/internal/observability"
)

func main() {
	command := flag.String("command", "up", "migrate command (up|status|down|version)")
	timeout := flag.Duration("timeout", time.Minute, "command timeout")
	target := flag.Int64("target", 0, "target version for down command (optional)")
	flag.Parse()

	cfg := config.Load()
	log := observability.NewLogger(cfg.Env).With("component", "migrate")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DBURL)
	if err != nil {
		log.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	runner, err := db.NewMigrator(pool, log)
	if err != nil {
		log.Error("failed to configure migration runner", "err", err)
		os.Exit(1)
	}

	switch *command {
	case "up":
		err = runner.Up(ctx)
	case "status":
		err = runner.Status(ctx)
	case "down":
		err = runner.Down(ctx, *target)
	case "version":
		var v int64
		v, err = runner.Version(ctx)
		if err == nil {
			log.Info("current schema version", "version", v)
		}
	default:
		log.Error("unsupported command", "command", *command)
		os.Exit(2)
	}

	if err != nil {
		log.Error("migration command failed", "command", *command, "err", err)
		os.Exit(1)
	}

	log.Info("migration command completed", "command", *command)
}
