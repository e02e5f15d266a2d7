// Command matview maintains the bookings_mat projection: refresh one record,
// refresh everything, or drop and rebuild with fresh indexes. The server
// probes for the projection at startup, so after the first build a restart is
// required for reads to pick it up.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/andes-cine/bookings-api/internal/config"
	"github.com/andes-cine/bookings-api/internal/repository"
	"github.com/andes-cine/bookings-api/internal/store"
)

func main() {
	id := flag.String("id", "", "refresh a single booking by identity")
	rebuild := flag.Bool("rebuild", false, "drop and recreate the projection before refreshing")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := log.New(os.Stdout, "[matview] ", log.LstdFlags)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	st, err := store.New(ctx, cfg.DBURL, store.Options{
		MaxConns:               2,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	})
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer st.Close()

	repo, err := repository.New(ctx, st)
	if err != nil {
		log.Fatalf("init repository: %v", err)
	}

	switch {
	case *id != "":
		if err := repo.Materialized.EnsureSchema(ctx); err != nil {
			log.Fatalf("ensure projection schema: %v", err)
		}
		if err := repo.Materialized.RefreshOne(ctx, *id); err != nil {
			log.Fatalf("refresh %s: %v", *id, err)
		}
		logger.Printf("refreshed booking %s", *id)
	default:
		n, err := repo.Materialized.RefreshAll(ctx, *rebuild)
		if err != nil {
			log.Fatalf("refresh projection: %v", err)
		}
		if *rebuild {
			logger.Printf("rebuilt projection with %d bookings", n)
		} else {
			logger.Printf("refreshed %d bookings", n)
		}
	}
}
