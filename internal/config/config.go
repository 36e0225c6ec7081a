// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable; strings for identifiers and secrets, ints
// where the value is used as a number.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret    string // secret used to sign admin JWTs
	AccessTTLMin int    // admin token time-to-live in minutes

	AdminUsername     string // admin login name
	AdminPasswordHash string // bcrypt hash of the admin password

	StripeSecretKey      string // Stripe API secret key
	StripePublishableKey string // Stripe publishable key, exposed to the frontend
	StripeWebhookSecret  string // Stripe webhook signing secret

	AMQPURL     string // RabbitMQ connection URL (optional)
	FrontendURL string // allowed CORS origin for the booking frontend
}

// Load reads configuration values from environment variables and returns
// a Config.  Required variables are enforced by must(); missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:  must("APP_ENV"),
		Port: must("APP_PORT"),

		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"), // empty allowed for local dev
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: mustInt("ACCESS_TOKEN_TTL_MIN"),

		AdminUsername:     must("ADMIN_USERNAME"),
		AdminPasswordHash: must("ADMIN_PASSWORD_HASH"),

		StripeSecretKey:      must("STRIPE_SECRET_KEY"),
		StripePublishableKey: must("STRIPE_PUBLISHABLE_KEY"),
		StripeWebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),

		AMQPURL:     os.Getenv("RABBITMQ_URL"),
		FrontendURL: getenv("FRONTEND_URL", "http://localhost:3000"),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
