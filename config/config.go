package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds application configuration loaded from environment variables and .env file.
type AppConfig struct {
	// Database config
	DBHost string
	DBPort int
	DBUser string
	DBPass string
	DBName string

	// DBEmbedded starts an in-memory MySQL server instead of connecting to
	// an external one. Meant for local development and demos.
	DBEmbedded     bool
	DBEmbeddedPort int

	// Logging config
	LogLevel      string
	LogFile       string
	LogMaxSize    int // MB
	LogMaxBackups int
	LogMaxAge     int // days
	LogCompress   bool

	// Auth config
	JWTSecret string
	JWTExpiry time.Duration

	// Export config
	ExportDir string // scratch directory for export bundles

	// Import config
	ImportChunkSize       int           // rows per INSERT when loading CSV data
	ImportDownloadTimeout time.Duration // timeout for fetching remote CSV data
	ImportMaxBytes        int64         // cap on downloaded CSV size
}

// Cfg is the global application configuration instance.
var Cfg AppConfig

// LoadConfig loads and validates application configuration from .env file and environment variables.
func LoadConfig() error {
	err := godotenv.Load()
	if err != nil {
		// Use standard log here since logger is not initialized yet
		log.Printf("[WARN] .env file not found or cannot be loaded: %v", err)
	} else {
		log.Printf("[INFO] .env file loaded successfully")
	}

	Cfg.DBHost = getEnv("DB_HOST", "127.0.0.1")
	Cfg.DBUser = getEnv("DB_USER", "root")
	Cfg.DBPass = getEnv("DB_PASS", "")
	Cfg.DBName = getEnv("DB_NAME", "datamanage")
	Cfg.DBPort = getEnvInt("DB_PORT", 3306)

	Cfg.DBEmbedded = getEnvBool("DB_EMBEDDED", false)
	Cfg.DBEmbeddedPort = getEnvInt("DB_EMBEDDED_PORT", 0) // 0 picks a free port

	// Load logging config
	Cfg.LogLevel = getEnv("LOG_LEVEL", "INFO")
	Cfg.LogFile = getEnv("LOG_FILE", "/var/log/datamanage/datamanageapi.log")
	Cfg.LogMaxSize = getEnvInt("LOG_MAX_SIZE", 10)
	Cfg.LogMaxBackups = getEnvInt("LOG_MAX_BACKUPS", 3)
	Cfg.LogMaxAge = getEnvInt("LOG_MAX_AGE", 28)
	Cfg.LogCompress = getEnvBool("LOG_COMPRESS", true)

	// Load auth config
	Cfg.JWTSecret = getEnv("JWT_SECRET", "")
	Cfg.JWTExpiry = time.Duration(getEnvInt("JWT_EXPIRY_MINUTES", 60)) * time.Minute

	// Load export/import config
	Cfg.ExportDir = getEnv("EXPORT_DIR", os.TempDir())
	Cfg.ImportChunkSize = getEnvInt("IMPORT_CHUNK_SIZE", 512)
	Cfg.ImportDownloadTimeout = time.Duration(getEnvInt("IMPORT_DOWNLOAD_TIMEOUT", 60)) * time.Second
	Cfg.ImportMaxBytes = int64(getEnvInt("IMPORT_MAX_MB", 256)) * 1024 * 1024

	log.Printf("[INFO] Config loaded - DB: %s@%s:%d/%s (embedded=%v), LogLevel: %s",
		Cfg.DBUser, Cfg.DBHost, Cfg.DBPort, Cfg.DBName, Cfg.DBEmbedded, Cfg.LogLevel)
	log.Printf("[INFO] Import config - ChunkSize: %d, DownloadTimeout: %v, MaxBytes: %d",
		Cfg.ImportChunkSize, Cfg.ImportDownloadTimeout, Cfg.ImportMaxBytes)

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(strings.TrimSpace(val)); err == nil {
			return boolVal
		}
	}
	return defaultVal
}
