// Command migrate applies or reverts the embedded database migrations.
//
//	migrate up     apply pending migrations
//	migrate down   revert every migration
package main

import (
	"fmt"
	"os"

	"github.com/mediashare/service/internal/config"
	"github.com/mediashare/service/internal/db"
	"github.com/mediashare/service/internal/logger"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: migrate up|down")
		os.Exit(2)
	}

	cfg, _, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogEncoding(), os.Stdout)

	switch os.Args[1] {
	case "up":
		err = db.Migrate(cfg.DatabaseURL, log)
	case "down":
		err = db.Rollback(cfg.DatabaseURL, log)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q, want up or down\n", os.Args[1])
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("migration failed")
	}
}
