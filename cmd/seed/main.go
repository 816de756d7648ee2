// Package main provisions the demo customers and their accounts.
//
// Usage:
//
//	seed -d postgres://... -password Demo1234
package main

import (
	"context"
	"flag"
	"os"

	"github.com/atinyakov/BankPortal/internal/db"
	"github.com/atinyakov/BankPortal/internal/logger"
	"go.uber.org/zap"
)

func main() {
	dsn := flag.String("d", os.Getenv("DATABASE_DSN"), "db address")
	password := flag.String("password", os.Getenv("SEED_PASSWORD"), "password given to every demo user")
	flag.Parse()

	log := logger.New()
	if err := log.Init("info"); err != nil {
		panic(err)
	}
	defer func() { _ = log.Log.Sync() }()

	if *password == "" {
		log.Log.Fatal("a password is required (-password or SEED_PASSWORD)")
	}

	conn, err := db.InitPostgres(*dsn)
	if err != nil {
		log.Log.Fatal("cannot init database", zap.Error(err))
	}
	defer conn.Close()

	if err := db.Seed(context.Background(), conn, db.DemoUsers(), *password, log.Log); err != nil {
		log.Log.Fatal("seed failed", zap.Error(err))
	}
	log.Log.Info("demo users seeded", zap.Int("users", len(db.DemoUsers())))
}
