package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Store types
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

type Config struct {
	DataDir       string
	StoreType     string
	DatabaseURL   string
	HashScheme    string
	HashSalt      string
	AdminUser     string
	AdminPass     string
	PersistStatus bool
	Fsync         bool
	ExportPath    string
}

// ParseFlags reads flags, then the environment, then the .env file.
// Earlier sources win.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var envFile string

	fs := flag.NewFlagSet("quickly-vote", flag.ContinueOnError)

	// Storage
	fs.StringVar(&cfg.DataDir, "data", "", "Data directory")
	fs.StringVar(&cfg.StoreType, "t", "", "Store type (file, sqlite or postgres)")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL (sqlite or postgres)")
	fs.BoolVar(&cfg.PersistStatus, "persist-status", false, "Keep election open/closed state across restarts")
	fs.BoolVar(&cfg.Fsync, "fsync", false, "Fsync text files after every write")
	fs.StringVar(&cfg.ExportPath, "export", "", "Results CSV path")

	// Credentials (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.HashScheme, "hash", "", "Credential hash scheme (djb2 or hmac)")
	fs.StringVar(&cfg.HashSalt, "hash-salt", "", "HMAC salt (prefer env)")
	fs.StringVar(&cfg.AdminUser, "admin-user", "", "Admin username")
	fs.StringVar(&cfg.AdminPass, "admin-pass", "", "Admin password (prefer env)")

	fs.StringVar(&envFile, "env", ".env", "Optional .env file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	dotenv := map[string]string{}
	if _, err := os.Stat(envFile); err == nil {
		dotenv, err = godotenv.Read(envFile)
		if err != nil {
			return Config{}, fmt.Errorf("invalid env file %s: %w", envFile, err)
		}
	}
	getenv := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}
	fallback := func(dst *string, key, def string) {
		if *dst == "" {
			*dst = getenv(key)
		}
		if *dst == "" {
			*dst = def
		}
	}
	fallbackBool := func(dst *bool, flagName, key string) error {
		if set[flagName] {
			return nil
		}
		s := getenv(key)
		if s == "" {
			return nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid %s env variable", key)
		}
		*dst = b
		return nil
	}

	fallback(&cfg.DataDir, "DATA_DIR", ".")
	fallback(&cfg.StoreType, "STORE_TYPE", StoreFile)
	fallback(&cfg.DatabaseURL, "DATABASE_URL", "")
	fallback(&cfg.ExportPath, "EXPORT_PATH", filepath.Join(cfg.DataDir, "results.csv"))
	fallback(&cfg.HashScheme, "HASH_SCHEME", "djb2")
	fallback(&cfg.HashSalt, "HASH_SALT", "")
	fallback(&cfg.AdminUser, "ADMIN_USER", "admin")
	fallback(&cfg.AdminPass, "ADMIN_PASS", "")

	if err := fallbackBool(&cfg.PersistStatus, "persist-status", "PERSIST_STATUS"); err != nil {
		return Config{}, err
	}
	if err := fallbackBool(&cfg.Fsync, "fsync", "FSYNC"); err != nil {
		return Config{}, err
	}

	switch cfg.StoreType {
	case StoreFile:
	case StoreSQLite:
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = "file:" + filepath.Join(cfg.DataDir, "ballot.db")
		}
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("database URL required for postgres (use -d or DATABASE_URL env)")
		}
	default:
		return Config{}, fmt.Errorf("unknown store type %q (want file, sqlite or postgres)", cfg.StoreType)
	}

	if cfg.HashScheme == "hmac" && cfg.HashSalt == "" {
		return Config{}, errors.New("HASH_SALT required for hmac hash scheme")
	}

	// Secrets - MUST be provided
	if cfg.AdminPass == "" {
		return Config{}, errors.New("ADMIN_PASS required")
	}

	return cfg, nil
}
