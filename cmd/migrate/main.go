package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"agromarket/config"
	"agromarket/internal/pkg/database"
)

// Uso: migrate [-database-url URL] <comando goose> [args]
// Ex.: migrate up | migrate down | migrate status | migrate up-to 1
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ Warning: .env file not found or failed to read. Loading configs from system environment only: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var databaseURL string
	flag.StringVar(&databaseURL, "database-url", cfg.DatabaseURL, "URL do banco (postgres:// ou sqlite://)")
	flag.Parse()

	db, err := database.Open(databaseURL)
	if err != nil {
		log.Fatalf("goose: failed to connect to DB: %v\n", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Fatalf("goose: failed to close DB: %v\n", err)
		}
	}()

	arguments := flag.Args()
	if len(arguments) == 0 {
		arguments = []string{"up"}
	}
	command, args := arguments[0], arguments[1:]

	if err := database.RunGoose(db, command, args...); err != nil {
		log.Fatalf("goose %v: %v", command, err)
	}

	fmt.Printf("goose %s success (%s)\n", command, db.DriverName())
}
