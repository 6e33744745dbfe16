package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"user-registry/config"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	seed := []struct {
		name  string
		email string
		age   *int
	}{
		{"Alice Demo", "alice@example.com", intPtr(30)},
		{"Bob Demo", "bob@example.com", intPtr(25)},
		{"Carol Demo", "carol@example.com", nil},
	}

	for _, s := range seed {
		var id int64
		err := db.QueryRow(`
			INSERT INTO users (name, email, age)
			VALUES ($1, $2, $3)
			ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, s.name, s.email, s.age).Scan(&id)
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", s.email, err)
		}
		fmt.Printf("seeded user: id=%d email=%s\n", id, s.email)
	}
}

func intPtr(v int) *int { return &v }
