package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string         // APP_ENV (e.g. "dev", "prod")
	Port           string         // APP_PORT
	DBUser         string         // DB_USER
	DBPass         string         // DB_PASS (optional)
	DBHost         string         // DB_HOST
	DBPort         string         // DB_PORT
	DBName         string         // DB_NAME
	JWTSecret      string         // JWT_SECRET signs session cookies
	AccessTTLMin   int            // ACCESS_TOKEN_TTL_MIN
	RefreshTTLDays int            // REFRESH_TOKEN_TTL_DAYS
	BcryptCost     int            // BCRYPT_COST
	Location       *time.Location // APP_TZ decides what "today" means for reports
	BackOfficeURL  string         // ADMIN_BACKOFFICE_URL, landing for superusers
	CookieSecure   bool           // COOKIE_SECURE sets the Secure flag on session cookies
	AMQPURL        string         // RABBITMQ_URL, empty disables order events
	EventsQueue    string         // ORDER_EVENTS_QUEUE
	LogLevel       string         // LOG_LEVEL (debug, info, warn, error)
}

// AccessTTL returns the access token lifetime.
func (c Config) AccessTTL() time.Duration { return time.Duration(c.AccessTTLMin) * time.Minute }

// RefreshTTL returns the refresh token lifetime.
func (c Config) RefreshTTL() time.Duration { return time.Duration(c.RefreshTTLDays) * 24 * time.Hour }

// Load reads configuration values from environment variables.  Required
// variables are enforced by must() and a missing value exits the program.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		Location:       loadLocation(envStr("APP_TZ", "Local")),
		BackOfficeURL:  envStr("ADMIN_BACKOFFICE_URL", "/admin/"),
		CookieSecure:   envBool("COOKIE_SECURE", false),
		AMQPURL:        amqpURL(),
		EventsQueue:    envStr("ORDER_EVENTS_QUEUE", "orders.events"),
		LogLevel:       envStr("LOG_LEVEL", "info"),
	}
}

// LoadDB reads only the database variables.  Tools that do not serve HTTP
// use it.
func LoadDB() Config {
	return Config{
		DBUser:     must("DB_USER"),
		DBPass:     os.Getenv("DB_PASS"),
		DBHost:     must("DB_HOST"),
		DBPort:     must("DB_PORT"),
		DBName:     must("DB_NAME"),
		BcryptCost: envInt("BCRYPT_COST", 10),
	}
}

// EventsConfig configures the order event consumer.
type EventsConfig struct {
	AMQPURL  string // RABBITMQ_URL
	Queue    string // ORDER_EVENTS_QUEUE
	LogPath  string // ORDER_EVENTS_LOG
	LogLevel string // LOG_LEVEL
}

// LoadEvents reads the consumer variables.  A broker URL is required.
func LoadEvents() EventsConfig {
	url := amqpURL()
	if url == "" {
		log.Fatalf("missing required env var: RABBITMQ_URL")
	}
	return EventsConfig{
		AMQPURL:  url,
		Queue:    envStr("ORDER_EVENTS_QUEUE", "orders.events"),
		LogPath:  envStr("ORDER_EVENTS_LOG", "logs/orders.log"),
		LogLevel: envStr("LOG_LEVEL", "info"),
	}
}

// must retrieves the value of a required environment variable.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the value to an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Fatalf("invalid APP_TZ %q: %v", name, err)
	}
	return loc
}

// amqpURL returns RABBITMQ_URL or its AMQP_URL alias.
func amqpURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}
