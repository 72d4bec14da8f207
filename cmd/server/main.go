package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/restaurant-orders/internal/config"
	"github.com/iliyamo/restaurant-orders/internal/database"
	"github.com/iliyamo/restaurant-orders/internal/handler"
	"github.com/iliyamo/restaurant-orders/internal/middleware"
	"github.com/iliyamo/restaurant-orders/internal/queue"
	"github.com/iliyamo/restaurant-orders/internal/repository"
	"github.com/iliyamo/restaurant-orders/internal/router"
	"github.com/iliyamo/restaurant-orders/internal/service"
	"github.com/iliyamo/restaurant-orders/internal/web"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine; the environment may be set already
	cfg := config.Load()
	logger := config.NewLogger("restaurant", cfg.LogLevel)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		logger.Fatalf("migrate: %v", err)
	}
	cancel()

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable: rate limiting and kitchen cache disabled")
	} else {
		defer rdb.Close()
	}
	if cfg.AMQPURL == "" {
		logger.Warn("RABBITMQ_URL not set: order events disabled")
	}

	tables := repository.NewTableRepo(db)
	menu := repository.NewMenuRepo(db)
	orders := repository.NewOrderRepo(db)
	users := repository.NewUserRepo(db)
	pins := repository.NewPINRepo(db)
	tokens := repository.NewTokenRepo(db)
	audit := repository.NewAuditRepo(db)

	accounts := &service.AccountService{
		Users:      users,
		PINs:       pins,
		Tokens:     tokens,
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTTL(),
		RefreshTTL: cfg.RefreshTTL(),
		BcryptCost: cfg.BcryptCost,
		Log:        logger,
	}
	h := &handler.Handler{
		Accounts: accounts,
		Orders: &service.OrderService{
			Tables: tables,
			Menu:   menu,
			Orders: orders,
			Events: queue.NewPublisher(cfg.AMQPURL, cfg.EventsQueue),
			Log:    logger,
		},
		Tables:        &service.TableService{Tables: tables, Menu: menu},
		Reports:       &service.ReportService{Orders: orders, Tables: tables, Menu: menu, Users: users, Audit: audit, Location: cfg.Location},
		Cache:         middleware.NewResponseCache(config.LoadCacheConfig(), rdb),
		BackOfficeURL: cfg.BackOfficeURL,
		CookieSecure:  cfg.CookieSecure,
		Location:      cfg.Location,
		Log:           logger,
	}

	renderer, err := web.NewRenderer(cfg.Location)
	if err != nil {
		logger.Fatalf("templates: %v", err)
	}
	e := router.NewServer(h, renderer, middleware.SessionConfig{
		Secret:    cfg.JWTSecret,
		Refresher: accounts,
		Roles:     accounts,
		Secure:    cfg.CookieSecure,
		Log:       logger,
	}, router.Deps{RateLimit: config.LoadRateLimitConfig(), Redis: rdb})

	addr := ":" + cfg.Port
	go func() {
		logger.Infof("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server: %v", err)
		}
	}()

	stop, done := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer done()
	<-stop.Done()

	shutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdown); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
