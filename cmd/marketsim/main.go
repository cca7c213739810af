// Command marketsim runs the market simulator: a ticking price feed, a
// pending-order book, a persistent portfolio, and the HTTP API in front of
// them.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/book"
	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/config"
	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/domain"
	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/engine"
	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/feed"
	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/history"
	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/httpapi"
	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/ledger"
	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/store"
	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/util"
)

func main() {
	cfgPath := "config/marketsim.yaml"
	if p := os.Getenv("MARKETSIM_CONFIG"); p != "" {
		cfgPath = p
	} else if _, err := os.Stat(cfgPath); err != nil {
		// No config file; run on defaults plus env overrides.
		cfgPath = ""
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Portfolio persistence.
	pstore, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening portfolio store: %v", err)
	}
	defer pstore.Close()

	portfolio, err := pstore.Load(ctx)
	if err != nil {
		log.Fatalf("loading portfolio: %v", err)
	}
	if portfolio == nil {
		portfolio = domain.NewPortfolio(decimal.NewFromFloat(cfg.Market.StartingCash))
		logger.Info("starting fresh portfolio", "cash", portfolio.Cash)
	} else {
		logger.Info("restored portfolio", "cash", portfolio.Cash, "positions", len(portfolio.Positions))
	}

	// Price feed: synthetic walk, optionally backed by an external quote
	// source that the walk falls back from on failure.
	opts := []feed.Option{
		feed.WithTimeout(time.Duration(cfg.Quotes.TimeoutSec) * time.Second),
	}
	switch cfg.Quotes.Source {
	case "finnhub":
		opts = append(opts, feed.WithSource(
			feed.NewFinnhubSource(cfg.Quotes.FinnhubURL, cfg.Quotes.FinnhubToken),
			cfg.Quotes.RateLimitPerMin))
	case "alpaca":
		opts = append(opts, feed.WithSource(
			feed.NewAlpacaSource(cfg.Quotes.AlpacaKey, cfg.Quotes.AlpacaSecret, cfg.Quotes.AlpacaDataURL),
			cfg.Quotes.RateLimitPerMin))
	}
	f := feed.New(feed.NewWalk(cfg.Market.Seed), logger, opts...)

	initial := f.InitialPrices(ctx, cfg.Market.Symbols)

	sim := engine.New(
		f,
		history.NewStore(cfg.Market.HistoryCapacity),
		book.New(),
		ledger.New(portfolio, pstore, logger),
		store.NewTickArchive(cfg.Storage.DataDir),
		initial,
		logger,
	)

	sched := engine.NewScheduler(sim, time.Duration(cfg.Market.TickIntervalSec)*time.Second, logger)
	sched.Start(ctx)
	defer sched.Stop()

	srv := httpapi.NewServer(sim, sched, logger)
	go srv.Hub().Run(ctx)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Handler(),
	}

	go func() {
		logger.Info("market simulator listening",
			"addr", httpServer.Addr,
			"symbols", len(initial),
			"tick_interval_sec", cfg.Market.TickIntervalSec,
			"quote_source", cfg.Quotes.Source)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
