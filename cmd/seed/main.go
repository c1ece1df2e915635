// Command seed fills the configured post store with demo content.
package main

import (
	"context"
	"flag"
	"log"

	"socialflow/internal/bootstrap"
	"socialflow/internal/cache"
	"socialflow/internal/seed"
	"socialflow/internal/store"

	"gorm.io/gorm"
)

func main() {
	count := flag.Int("count", 25, "Number of posts to create")
	deterministic := flag.Bool("deterministic", false, "Generate the same content on every run")
	flag.Parse()

	rt, err := bootstrap.InitRuntime()
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	cfg := rt.Config

	var persistence store.Persistence
	switch cfg.StoreBackend {
	case "memory":
		log.Println("Warning: STORE_BACKEND=memory, seeded posts vanish when this process exits")
		persistence = store.NewMemoryPersistence()
	case "redis":
		cache.InitRedis(cfg.RedisURL)
		rdb := cache.GetClient()
		if rdb == nil {
			log.Fatal("STORE_BACKEND is redis but Redis is unavailable")
		}
		persistence = store.NewRedisPersistence(rdb, "")
	case "gorm":
		db, err := openGorm(cfg.StoreDBDSN, cfg.StoreDBPath)
		if err != nil {
			log.Fatalf("Failed to open store database: %v", err)
		}
		persistence, err = store.NewGormPersistence(db, "")
		if err != nil {
			log.Fatalf("Failed to initialize gorm persistence: %v", err)
		}
	default:
		log.Fatalf("Unknown store backend %q", cfg.StoreBackend)
	}

	ctx := context.Background()
	st := store.New(persistence, nil)
	if err := st.Load(ctx); err != nil {
		log.Fatalf("Failed to load store: %v", err)
	}

	n, err := seed.Posts(ctx, st, seed.Options{
		NumPosts:      *count,
		Deterministic: *deterministic,
	})
	if err != nil {
		log.Fatalf("Seeding failed after %d posts: %v", n, err)
	}
	log.Printf("Seeded %d posts (%d total in store)", n, st.Len())
}

func openGorm(dsn, path string) (*gorm.DB, error) {
	if dsn != "" {
		return store.OpenPostgres(dsn)
	}
	return store.OpenSQLite(path)
}
