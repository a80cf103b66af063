// Command devtoken prints a signed access token for local testing.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"casino-miniapp-backend/internal/config"
	"casino-miniapp-backend/internal/services"
)

func main() {
	account := flag.String("account", "", "account id to sign the token for")
	flag.Parse()

	if *account == "" {
		fmt.Fprintln(os.Stderr, "usage: devtoken -account <id>")
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Env == "production" {
		log.Fatal("Refusing to mint tokens in production")
	}

	token, err := services.NewJWTService(cfg.JWT.Secret, cfg.JWT.TTL).GenerateToken(*account)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
