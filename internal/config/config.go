package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string

	Auth0Domain       string
	Auth0ClientID     string
	Auth0ClientSecret string
	Auth0RedirectURL  string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Person API: the IdP-side profile endpoint secondary emails are
	// pulled from, authenticated with client credentials.
	PersonAPIBaseURL      string
	PersonAPITokenURL     string
	PersonAPIClientID     string
	PersonAPIClientSecret string
	PersonAPIAudience     string

	// ProfileRefreshInterval bounds how old locally cached profile data
	// may get before the next authenticated request triggers a new
	// Person API fetch.
	ProfileRefreshInterval time.Duration
}

const defaultRefreshInterval = 15 * time.Minute

func Load() Config {
	// Missing .env is fine; env vars may come from the environment.
	_ = godotenv.Load()

	cfg := Config{

		AppPort: os.Getenv("APP_PORT"),

		DatabaseDSN: os.Getenv("DATABASE_DSN"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		Auth0Domain:       os.Getenv("AUTH0_DOMAIN"),
		Auth0ClientID:     os.Getenv("AUTH0_CLIENT_ID"),
		Auth0ClientSecret: os.Getenv("AUTH0_CLIENT_SECRET"),
		Auth0RedirectURL:  os.Getenv("AUTH0_REDIRECT_URL"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),

		PersonAPIBaseURL:      os.Getenv("PERSON_API_BASE_URL"),
		PersonAPITokenURL:     os.Getenv("PERSON_API_TOKEN_URL"),
		PersonAPIClientID:     os.Getenv("PERSON_API_CLIENT_ID"),
		PersonAPIClientSecret: os.Getenv("PERSON_API_CLIENT_SECRET"),
		PersonAPIAudience:     os.Getenv("PERSON_API_AUDIENCE"),

		ProfileRefreshInterval: defaultRefreshInterval,
	}

	if raw := os.Getenv("PROFILE_REFRESH_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.ProfileRefreshInterval = d
		}
	}

	return cfg
}
