// Command provision applies the schema and loads tables, menu items and
// staff accounts from a YAML seed file.  Rows that already exist are left
// untouched.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/restaurant-orders/internal/config"
	"github.com/iliyamo/restaurant-orders/internal/database"
	"github.com/iliyamo/restaurant-orders/internal/repository"
)

func main() {
	path := flag.String("f", "seed.yaml", "seed file")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.LoadDB()
	logger := config.NewLogger("provision", os.Getenv("LOG_LEVEL"))

	f, err := os.Open(*path)
	if err != nil {
		logger.Fatalf("open seed: %v", err)
	}
	seed, err := parseSeed(f)
	_ = f.Close()
	if err != nil {
		logger.Fatalf("%s: %v", *path, err)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatalf("migrate: %v", err)
	}

	st := struct {
		*repository.TableRepo
		*repository.MenuRepo
		*repository.UserRepo
	}{repository.NewTableRepo(db), repository.NewMenuRepo(db), repository.NewUserRepo(db)}
	res, err := apply(ctx, st, seed, cfg.BcryptCost)
	if err != nil {
		logger.Fatalf("provision: %v", err)
	}
	logger.Infof("provisioned %d tables, %d menu items, %d users", res.Tables, res.MenuItems, res.Users)
}
