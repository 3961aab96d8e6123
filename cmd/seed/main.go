package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/oksasatya/travel-diaries/config"
	"github.com/oksasatya/travel-diaries/internal/domain/entity"
	"github.com/oksasatya/travel-diaries/pkg/helpers"
)

// Seeds a local admin account for development. Username and password can
// be overridden with SEED_ADMIN_USERNAME / SEED_ADMIN_PASSWORD.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	username := envOr("SEED_ADMIN_USERNAME", "admin")
	password := envOr("SEED_ADMIN_PASSWORD", "password123")
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (username, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO UPDATE SET role = EXCLUDED.role
		RETURNING id
	`, username, "", hash, entity.RoleAdmin).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("seeded admin: id=%s username=%s password=%s\n", id, username, password)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
