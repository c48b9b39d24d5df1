// Command token prints a bearer token for the API, signed with API_JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/piggy/internal/config"
	"github.com/MrJamesThe3rd/piggy/internal/http/auth"
)

func main() {
	subject := flag.String("subject", "piggy-cli", "token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime, 0 for no expiry")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	token, err := auth.IssueToken(cfg.API.JWTSecret, *subject, *ttl)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
