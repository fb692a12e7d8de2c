package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/kenchiku/pkg/analytics"
)

var (
	dbURL            = flag.String("db-url", getEnv("DATABASE_URL", "postgres://localhost/kenchiku?sslmode=disable"), "PostgreSQL connection URL")
	dailySchedule    = flag.String("daily-schedule", "5 0 * * *", "Cron schedule for daily search stats aggregation (default: 00:05 UTC)")
	popularSchedule  = flag.String("popular-schedule", "0 * * * *", "Cron schedule for popular-query refresh (default: every hour)")
	pruneSchedule    = flag.String("prune-schedule", "30 1 * * *", "Cron schedule for history pruning (default: 01:30 UTC)")
	historyRetention = flag.Duration("history-retention", 90*24*time.Hour, "How long to keep raw search history")
	runOnce          = flag.Bool("run-once", false, "Run aggregation once and exit (for testing or backfills)")
	aggregationDate  = flag.String("date", "", "Date to aggregate (YYYY-MM-DD). Empty means yesterday. Only used with --run-once")
)

func main() {
	flag.Parse()

	db, err := sql.Open("postgres", *dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	aggregator := analytics.NewAggregator(db)

	if *runOnce {
		date := time.Now().UTC().AddDate(0, 0, -1)
		if *aggregationDate != "" {
			date, err = time.Parse("2006-01-02", *aggregationDate)
			if err != nil {
				log.Fatalf("Invalid date format: %v", err)
			}
		}

		log.Printf("Running aggregation for date: %s", date.Format("2006-01-02"))
		if err := runAggregation(aggregator, date); err != nil {
			log.Fatalf("Aggregation failed: %v", err)
		}
		log.Println("Aggregation completed successfully")
		return
	}

	c := cron.New()

	_, err = c.AddFunc(*dailySchedule, func() {
		yesterday := time.Now().UTC().AddDate(0, 0, -1)
		log.Printf("Starting daily search stats aggregation for %s", yesterday.Format("2006-01-02"))
		if err := runAggregation(aggregator, yesterday); err != nil {
			log.Printf("Daily aggregation failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule daily aggregation: %v", err)
	}

	_, err = c.AddFunc(*popularSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := aggregator.RefreshPopularQueries(ctx); err != nil {
			log.Printf("Popular-query refresh failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule popular-query refresh: %v", err)
	}

	_, err = c.AddFunc(*pruneSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		pruned, err := aggregator.PruneHistory(ctx, *historyRetention)
		if err != nil {
			log.Printf("History pruning failed: %v", err)
			return
		}
		log.Printf("Pruned %d search history rows", pruned)
	})
	if err != nil {
		log.Fatalf("Failed to schedule history pruning: %v", err)
	}

	c.Start()
	log.Println("Aggregator started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down aggregator")
	<-c.Stop().Done()
}

func runAggregation(aggregator *analytics.Aggregator, date time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := aggregator.AggregateSearchStatsDaily(ctx, date); err != nil {
		return err
	}
	return aggregator.RefreshPopularQueries(ctx)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
