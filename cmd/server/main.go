package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"gamenight/internal/config"
	"gamenight/internal/db"
	"gamenight/internal/server"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	conn := openDatabase(cfg)
	rdb := openRedis(cfg)

	srv := server.New(conn, rdb, cfg)
	srv.RestoreRooms()

	addr := ":8080"
	if env := os.Getenv("PORT"); env != "" {
		addr = ":" + env
	}
	log.Printf("gamenight server listening on %s", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatal(err)
	}
}

// openDatabase connects to Postgres when DATABASE_URL is set; without it the
// server runs memory-only and rooms do not survive a restart.
func openDatabase(cfg config.Config) *gorm.DB {
	if os.Getenv("DATABASE_URL") == "" {
		log.Println("DATABASE_URL not set, running without persistence")
		return nil
	}
	conn, err := db.Open()
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		log.Fatalf("database handle unavailable: %v", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeSeconds) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTimeSeconds) * time.Second)
	if err := db.Migrate(conn); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}
	return conn
}

func openRedis(cfg config.Config) *redis.Client {
	if cfg.RedisURL == "" {
		log.Println("REDIS_URL not set, running without the room mirror")
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	return redis.NewClient(opts)
}
