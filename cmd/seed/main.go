// main.go - demo data seeding tool
package main

import (
	"context"
	"flag"
	"log"

	"github.com/karloscodes/cartridge"

	"lexinsights/internal/config"
	"lexinsights/internal/database"
	"lexinsights/internal/seeder"
)

func main() {
	sessionCount := flag.Int("sessions", 500, "number of demo sessions to generate")
	flag.Parse()

	cfg := config.GetConfig()
	logger := cartridge.NewLogger(cfg, nil)

	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := dbManager.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	s := seeder.NewSeeder(dbManager, logger, *sessionCount)
	if err := s.Run(context.Background()); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding complete")
}
