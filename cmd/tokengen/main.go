// Command tokengen mints operator bearer tokens for the transfer API.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"account-transfer-service/config"
	"account-transfer-service/internal/adapter/http/dto"
	"account-transfer-service/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	subject := flag.String("subject", "", "operator name embedded in the token (required)")
	ttl := flag.Duration("ttl", 0, "token lifetime (default: jwt.expiry from config)")
	flag.Parse()

	if err := run(*configPath, *subject, *ttl, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "tokengen: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, subject string, ttl time.Duration, out io.Writer) error {
	if subject == "" {
		return errors.New("-subject is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.JWT.Secret == "" {
		return errors.New("jwt.secret is not configured")
	}
	if ttl <= 0 {
		ttl = cfg.JWT.Expiry
	}

	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, ttl, cfg.JWT.Issuer)
	token, expiry, err := tokenSvc.Generate(subject)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	return json.NewEncoder(out).Encode(dto.TokenResponse{
		Token:  token,
		Expiry: expiry.Unix(),
	})
}
