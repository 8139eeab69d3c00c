// Command seed populates the development database with demo users, memes
// and likes.
package main

import (
	"flag"
	"log"

	"memehub/internal/config"
	"memehub/internal/database"
	"memehub/internal/seed"
)

func main() {
	opts := seed.DefaultOptions()
	flag.IntVar(&opts.Users, "users", opts.Users, "number of users to create")
	flag.IntVar(&opts.Memes, "memes", opts.Memes, "number of memes to create")
	flag.IntVar(&opts.MaxDays, "max-days", opts.MaxDays, "spread of creation timestamps in days")
	flag.StringVar(&opts.Password, "password", opts.Password, "password for all seeded users")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Env == "production" {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	if err := seed.Run(db, opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
