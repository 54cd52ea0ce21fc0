package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"payment-links.backend/internal/config"
	"payment-links.backend/pkg/jwt"
)

type adminTokenDeps struct {
	loadEnv func() error
	loadCfg func() *config.Config
	now     func() time.Time
	out     io.Writer
}

func defaultAdminTokenDeps() adminTokenDeps {
	return adminTokenDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		now:     time.Now,
		out:     os.Stdout,
	}
}

func parseSubject(subject string) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", fmt.Errorf("--subject is required")
	}
	return subject, nil
}

func resolveTTL(flagTTL, configured time.Duration) (time.Duration, error) {
	if flagTTL < 0 {
		return 0, fmt.Errorf("--ttl must be positive")
	}
	if flagTTL > 0 {
		return flagTTL, nil
	}
	return configured, nil
}

func runAdminToken(args []string, deps adminTokenDeps) error {
	def := defaultAdminTokenDeps()
	if deps.loadEnv == nil {
		deps.loadEnv = def.loadEnv
	}
	if deps.loadCfg == nil {
		deps.loadCfg = def.loadCfg
	}
	if deps.now == nil {
		deps.now = def.now
	}
	if deps.out == nil {
		deps.out = def.out
	}

	fs := flag.NewFlagSet("admin-token", flag.ContinueOnError)
	subjectFlag := fs.String("subject", "", "operator identifier stored as the token subject (required)")
	emailFlag := fs.String("email", "", "operator email (optional)")
	roleFlag := fs.String("role", jwt.RoleAdmin, "operator role")
	ttlFlag := fs.Duration("ttl", 0, "token lifetime, defaults to JWT_ACCESS_EXPIRY")
	if err := fs.Parse(args); err != nil {
		return err
	}

	subject, err := parseSubject(*subjectFlag)
	if err != nil {
		return err
	}

	if err := deps.loadEnv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := deps.loadCfg()
	ttl, err := resolveTTL(*ttlFlag, cfg.JWT.AccessExpiry)
	if err != nil {
		return err
	}

	issuedAt := deps.now()
	token, err := jwt.NewJWTService(cfg.JWT.Secret, ttl).GenerateAccessToken(subject, *emailFlag, *roleFlag)
	if err != nil {
		return fmt.Errorf("failed signing token: %w", err)
	}

	_, _ = fmt.Fprintln(deps.out, "Signed admin API token")
	_, _ = fmt.Fprintf(deps.out, "subject=%s\n", subject)
	_, _ = fmt.Fprintf(deps.out, "role=%s\n", *roleFlag)
	_, _ = fmt.Fprintf(deps.out, "expires_at=%s\n", issuedAt.Add(ttl).UTC().Format(time.RFC3339))
	_, _ = fmt.Fprintf(deps.out, "TOKEN=%s\n", token)
	return nil
}

func main() {
	if err := runAdminToken(os.Args[1:], defaultAdminTokenDeps()); err != nil {
		log.Fatal(err)
	}
}
