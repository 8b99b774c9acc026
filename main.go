package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/db"
	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/persist"
	"github.com/danielhkuo/quickly-vote/router"
	"github.com/danielhkuo/quickly-vote/shell"
)

func main() {
	if err := run(); err != nil {
		slog.Error("quickly-vote failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}

	gw, closeGateway, err := openGateway(cfg)
	if err != nil {
		return err
	}
	defer closeGateway()

	hasher, err := auth.NewHasher(cfg.HashScheme, cfg.HashSalt)
	if err != nil {
		return err
	}

	opts := []ledger.Option{ledger.WithHasher(hasher)}
	if cfg.PersistStatus {
		statusStore, ok := gw.(persist.StatusStore)
		if !ok {
			return fmt.Errorf("store type %s cannot persist election status", cfg.StoreType)
		}
		opts = append(opts, ledger.WithPersistentStatus(statusStore))
	} else {
		slog.Info("election status is not persisted; every restart reopens the election")
	}

	l, err := ledger.Open(gw, opts...)
	if err != nil {
		return fmt.Errorf("loading ledger: %w", err)
	}
	defer func() {
		if err := l.Close(); err != nil {
			slog.Error("final flush failed", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		cancel()
	}()

	sh := shell.New(router.NewRouter(l, cfg), os.Stdin, os.Stdout,
		shell.WithPrompt(shell.IsInteractive(os.Stdin)),
	)

	slog.Info("Ready", "store", cfg.StoreType, "data", cfg.DataDir)
	err = sh.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("reading commands: %w", err)
	}
	slog.Info("Shell closed")
	return nil
}

// openGateway builds the persistence gateway for cfg.StoreType
func openGateway(cfg cliparse.Config) (persist.Gateway, func(), error) {
	switch cfg.StoreType {
	case cliparse.StoreSQLite, cliparse.StorePostgres:
		driver := "sqlite"
		if cfg.StoreType == cliparse.StorePostgres {
			driver = "postgres"
		}
		if cfg.StoreType == cliparse.StoreSQLite {
			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("creating data dir: %w", err)
			}
		}

		dbConn, err := sql.Open(driver, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("database connection failed: %w", err)
		}
		// Verify connection
		if err := dbConn.Ping(); err != nil {
			dbConn.Close()
			return nil, nil, fmt.Errorf("database ping failed: %w", err)
		}

		gw, err := db.NewSQLGateway(dbConn)
		if err != nil {
			dbConn.Close()
			return nil, nil, fmt.Errorf("schema creation failed: %w", err)
		}
		slog.Info("Database schema ready", "driver", driver)
		return gw, func() { dbConn.Close() }, nil

	default:
		gw, err := persist.NewFileGateway(cfg.DataDir, persist.WithSync(cfg.Fsync))
		if err != nil {
			return nil, nil, err
		}
		return gw, func() {}, nil
	}
}
