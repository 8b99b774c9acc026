// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags and Environment Variables

	-data            DATA_DIR        Data directory (default: .)
	-t               STORE_TYPE      file, sqlite or postgres (default: file)
	-d               DATABASE_URL    Database URL (sqlite default: <data>/ballot.db)
	-persist-status  PERSIST_STATUS  Keep open/closed state across restarts
	-fsync           FSYNC           Fsync text files after every write
	-export          EXPORT_PATH     Results CSV (default: <data>/results.csv)
	-hash            HASH_SCHEME     djb2 or hmac (default: djb2)
	-hash-salt       HASH_SALT       Salt for hmac
	-admin-user      ADMIN_USER      Admin username (default: admin)
	-admin-pass      ADMIN_PASS      Admin password (required)
	-env                             .env file (default: .env, optional)

Precedence: CLI flags, then environment variables, then the .env file
(read with godotenv without touching the process environment), then
defaults.

# Validation

ParseFlags returns an error if:

  - ADMIN_PASS is missing
  - STORE_TYPE is postgres and DATABASE_URL is missing
  - HASH_SCHEME is hmac and HASH_SALT is missing
  - STORE_TYPE is unknown or a boolean variable does not parse
*/
package cliparse
