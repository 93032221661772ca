package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/MallamTeja/Fintrack/config"
	"github.com/MallamTeja/Fintrack/pkg/database"
	"github.com/MallamTeja/Fintrack/pkg/logger"

	"go.uber.org/zap"
)

const usage = `
Fintrack - Database CLI Tool

Usage:
  migrate [command] [flags]

Commands:
  up          Apply pending SQL migrations
  status      Check the database connection
  seed        Apply migrations, then create the demo account

Flags:
  -email string     Demo account email (default "demo@fintrack.local")
  -password string  Demo account password (default "demo123")
  -name string      Demo account display name (default "Demo User")
  -timeout duration Overall deadline (default 30s)

Examples:
  go run ./cmd/migrate up
  go run ./cmd/migrate seed -email me@example.com
`

func main() {
	defaults := database.DefaultSeedConfig()

	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	email := fs.String("email", defaults.Email, "demo account email")
	password := fs.String("password", defaults.Password, "demo account password")
	name := fs.String("name", defaults.Name, "demo account display name")
	timeout := fs.Duration("timeout", 30*time.Second, "overall deadline")
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }

	if len(os.Args) < 2 {
		fs.Usage()
		os.Exit(2)
	}
	command := os.Args[1]
	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	cfg := config.LoadConfig()
	l := logger.New(cfg.AppMode)
	logger.SetGlobalLogger(l)
	defer l.Sync()
	log := l.Component("migrate")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	switch command {
	case "status":
		log.Info("database reachable", zap.String("host", cfg.DBHost), zap.String("database", cfg.DBName))

	case "up", "seed":
		applied, err := database.Migrate(ctx, db)
		if err != nil {
			log.Fatal("migration failed", zap.Error(err))
		}
		log.Info("migrations complete", zap.Int("applied", len(applied)), zap.Strings("files", applied))
		if command == "up" {
			return
		}

		res, err := database.Seed(ctx, db, database.SeedConfig{Name: *name, Email: *email, Password: *password})
		if err != nil {
			log.Fatal("seed failed", zap.Error(err))
		}
		if !res.Created {
			log.Info("demo account already exists, nothing seeded", zap.String("email", *email))
			return
		}
		log.Info("seed complete",
			zap.String("user_id", res.UserID.String()),
			zap.Int("budgets", res.Budgets),
			zap.Int("goals", res.Goals),
			zap.Int("transactions", res.Transactions),
		)

	default:
		fs.Usage()
		os.Exit(2)
	}
}
