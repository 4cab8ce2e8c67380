package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the API process needs at startup.
type Config struct {
	Port string

	DatabaseURL string
	RedisURL    string
	AMQPURL     string

	JWTSecret string
	JWTTTL    time.Duration

	CacheTTL        time.Duration
	ProductCacheTTL time.Duration

	SMTP SMTPConfig

	AdminEmail    string
	AdminPassword string
}

// SMTPConfig are the mail server coordinates used by the notification sink.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Load reads .env (if present) and the process environment. Every missing
// required key is reported in one error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	var missing []string
	required := func(key string) string {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := &Config{
		Port:          withDefault(getenv("PORT"), "3000"),
		DatabaseURL:   databaseURL(getenv),
		AdminEmail:    withDefault(getenv("ADMIN_EMAIL"), "admin@example.com"),
		AdminPassword: withDefault(getenv("ADMIN_PASSWORD"), "admin12345"),
	}
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	cfg.RedisURL = required("REDIS_URL")
	cfg.AMQPURL = required("AMQP_URL")
	cfg.JWTSecret = required("JWT_SECRET")
	cfg.SMTP.Host = required("SMTP_HOST")
	smtpPort := required("SMTP_PORT")
	cfg.SMTP.Username = required("SMTP_USERNAME")
	cfg.SMTP.Password = required("SMTP_PASSWORD")
	cfg.SMTP.From = required("EMAIL_FROM")

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	port, err := strconv.Atoi(smtpPort)
	if err != nil || port <= 0 {
		return nil, fmt.Errorf("invalid SMTP_PORT %q", smtpPort)
	}
	cfg.SMTP.Port = port

	if cfg.JWTTTL, err = durationEnv(getenv, "JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = durationEnv(getenv, "CACHE_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.ProductCacheTTL, err = durationEnv(getenv, "PRODUCT_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

// databaseURL prefers DATABASE_URL and falls back to the discrete DB_* keys.
func databaseURL(getenv func(string) string) string {
	if dsn := strings.TrimSpace(getenv("DATABASE_URL")); dsn != "" {
		return dsn
	}
	host, user, name := getenv("DB_HOST"), getenv("DB_USER"), getenv("DB_NAME")
	if host == "" || user == "" || name == "" {
		return ""
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		host, user, getenv("DB_PASSWORD"), name, withDefault(getenv("DB_PORT"), "5432"),
	)
}

func durationEnv(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	// Plain integers are seconds.
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func withDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
