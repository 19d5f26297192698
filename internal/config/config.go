// Package config holds process configuration read from the environment and
// the application settings persisted in the store.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is the process-level configuration.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string
	// Port is the RPC server port.
	Port int
	// StaticPath is an optional directory of front-end files to serve.
	StaticPath string
	// HashPins stores new PINs as bcrypt hashes instead of plain text.
	HashPins bool
	// StrictContactDedupe matches imported contacts on name and phone
	// instead of name only.
	StrictContactDedupe bool
	// ValidateImports checks the shape of backup documents before writing.
	ValidateImports bool
}

// Load reads the configuration from the environment, using defaults for
// anything unset.
func Load() Config {
	return Config{
		DBPath:              getEnv("DB_PATH", "./data/debts.db"),
		Port:                getEnvInt("PORT", 8080),
		StaticPath:          getEnv("STATIC_PATH", ""),
		HashPins:            getEnvBool("HASH_PINS", false),
		StrictContactDedupe: getEnvBool("STRICT_CONTACT_DEDUPE", false),
		ValidateImports:     getEnvBool("VALIDATE_IMPORTS", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	switch strings.ToLower(getEnv(key, "")) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
