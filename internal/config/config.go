// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pkordes/tripboard/internal/domain"
)

// Storage backends selectable with STORAGE_BACKEND.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"
	StorageRedis    = "redis"
)

// Identity modes selectable with AUTH_MODE.
const (
	// AuthJWT verifies HS256 bearer tokens issued by the identity provider.
	AuthJWT = "jwt"
	// AuthDev trusts the X-Debug-Email / X-Debug-Name headers. Local use only.
	AuthDev = "dev"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	CORSOrigins []string

	// AppEnv names the deployment environment. Defaults to "dev".
	// It scopes the itinerary document key.
	AppEnv string

	// StorageBackend selects the DocumentStore: memory, postgres, mongo or redis.
	// Defaults to "memory".
	StorageBackend string

	// DatabaseURL is the Postgres connection string. Required for postgres.
	DatabaseURL string

	// MongoURL is the MongoDB connection string. Required for mongo.
	// Change streams need a replica set.
	MongoURL string

	// MongoDatabase is the database holding the documents collection.
	MongoDatabase string

	// RedisAddr is host:port of the Redis server. Required for redis; when set
	// with another backend it enables the geocoder cache.
	RedisAddr     string
	RedisPassword string

	// ItineraryDocKey overrides the environment-scoped itinerary key.
	ItineraryDocKey string

	// UndoDepth bounds the itinerary undo history. Defaults to 50.
	UndoDepth int

	// AuthMode is "jwt" (default) or "dev".
	AuthMode string

	// AuthJWTSecret is the HS256 signing secret. Required unless AuthMode is dev.
	AuthJWTSecret string

	// AdminEmails are the bootstrap admins. They seed the settings document
	// and are always treated as admins.
	AdminEmails []string

	// UploadDir is where attachment files are written. Defaults to "./uploads".
	UploadDir string

	// PublicURL is the externally visible base URL, used for attachment
	// links and the share QR code. Defaults to "http://localhost:8080".
	PublicURL string

	// GeocoderURL is the base URL of a Nominatim-compatible search API.
	GeocoderURL string

	// GeocoderRPS throttles outbound geocoder calls. Defaults to 1.
	GeocoderRPS float64

	// RateLimitRPS is the per-client request rate allowed on the API.
	// Defaults to 20; zero disables limiting.
	RateLimitRPS float64

	// MaxBodyBytes caps request bodies. Defaults to 10 MiB so image
	// attachments fit.
	MaxBodyBytes int64

	// PDFFontPath is an optional UTF-8 TrueType font for the PDF export.
	PDFFontPath string
}

// Load reads configuration from environment variables and returns a Config.
// A .env file in the working directory is loaded first when present; real
// environment variables take precedence over it.
// Returns an error listing any required variables that are not set and any
// values that cannot be parsed.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CORSOrigins:    splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		AppEnv:         getEnv("APP_ENV", "dev"),
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", StorageMemory)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MongoURL:       os.Getenv("MONGO_URL"),
		MongoDatabase:  getEnv("MONGO_DATABASE", "tripboard"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		AuthMode:       strings.ToLower(getEnv("AUTH_MODE", AuthJWT)),
		AuthJWTSecret:  os.Getenv("AUTH_JWT_SECRET"),
		AdminEmails:    splitCSV(os.Getenv("ADMIN_EMAILS")),
		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		PublicURL:      strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:8080"), "/"),
		GeocoderURL:    strings.TrimRight(getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"), "/"),
		PDFFontPath:    os.Getenv("PDF_FONT_PATH"),
	}
	cfg.ItineraryDocKey = getEnv("ITINERARY_DOC_KEY", domain.ItineraryDocKey(cfg.AppEnv))

	var missing, invalid []string

	var err error
	if cfg.UndoDepth, err = getInt("UNDO_DEPTH", 50); err != nil || cfg.UndoDepth < 1 {
		invalid = append(invalid, "UNDO_DEPTH")
	}
	if cfg.GeocoderRPS, err = getFloat("GEOCODER_RPS", 1); err != nil || cfg.GeocoderRPS <= 0 {
		invalid = append(invalid, "GEOCODER_RPS")
	}
	if cfg.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", 20); err != nil || cfg.RateLimitRPS < 0 {
		invalid = append(invalid, "RATE_LIMIT_RPS")
	}
	maxBody, err := getInt("MAX_BODY_BYTES", 10<<20)
	if err != nil || maxBody < 1 {
		invalid = append(invalid, "MAX_BODY_BYTES")
	}
	cfg.MaxBodyBytes = int64(maxBody)

	switch cfg.StorageBackend {
	case StorageMemory:
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case StorageMongo:
		if cfg.MongoURL == "" {
			missing = append(missing, "MONGO_URL")
		}
	case StorageRedis:
		if cfg.RedisAddr == "" {
			missing = append(missing, "REDIS_ADDR")
		}
	default:
		invalid = append(invalid, "STORAGE_BACKEND")
	}

	switch cfg.AuthMode {
	case AuthDev:
	case AuthJWT:
		if cfg.AuthJWTSecret == "" {
			missing = append(missing, "AUTH_JWT_SECRET")
		}
	default:
		invalid = append(invalid, "AUTH_MODE")
	}

	var problems []string
	if len(missing) > 0 {
		problems = append(problems, "required environment variables not set: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		problems = append(problems, "invalid environment variables: "+strings.Join(invalid, ", "))
	}
	if len(problems) > 0 {
		return Config{}, errors.New(strings.Join(problems, "; "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
