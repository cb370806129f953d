// Command migrate rewrites the users document so every user id carries the
// "user_" prefix. It is safe to run more than once.
package main

import (
	"flag"
	"log/slog"
	"os"

	"fashnary/api/internal/config"
	"fashnary/api/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := config.NewLogger("fashnary-migrate", cfg.LogLevel)

	path := flag.String("users", cfg.UsersDBPath, "path to the users JSON document")
	flag.Parse()

	changed, err := repository.MigrateUserIDs(*path)
	if err != nil {
		logger.Error("migration failed", slog.String("path", *path), slog.String("error", err.Error()))
		os.Exit(1)
	}
	if changed == 0 {
		logger.Info("user ids already canonical", slog.String("path", *path))
		return
	}
	logger.Info("user ids migrated",
		slog.String("path", *path),
		slog.Int("changed", changed),
		slog.String("backup", *path+".bak"),
	)
}
