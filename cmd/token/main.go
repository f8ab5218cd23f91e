// Package main signs access tokens for local development and smoke tests.
//
//	go run ./cmd/token -user 42 -role Manager
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"receiptflow/internal/core/security"
	"receiptflow/internal/domain/auth"
	"receiptflow/pkg/config"
)

func main() {
	userID := flag.String("user", "", "user id placed in the token")
	email := flag.String("email", "", "optional email claim")
	roleName := flag.String("role", string(security.RoleEmployee), "Employee, Manager or Admin")
	ttl := flag.Duration("ttl", 0, "token lifetime, defaults to JWT_EXPIRATION")
	flag.Parse()

	if *userID == "" {
		fail("-user is required")
	}
	role, err := security.ParseRole(*roleName)
	if err != nil {
		fail(err.Error())
	}

	cfg, err := config.Load()
	if err != nil {
		fail(fmt.Sprintf("load config: %v", err))
	}
	if cfg.JWT.Secret == "" {
		fail("JWT_SECRET is required")
	}

	jwtConfig := auth.DefaultJWTConfig(cfg.JWT.Secret)
	jwtConfig.Issuer = cfg.JWT.Issuer
	jwtConfig.AccessTokenTTL = cfg.JWT.Expiration
	if *ttl > 0 {
		jwtConfig.AccessTokenTTL = *ttl
	}

	token, expires, err := auth.NewJWTService(jwtConfig).GenerateAccessToken(*userID, *email, role)
	if err != nil {
		fail(err.Error())
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expires.Format(time.RFC3339))
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
