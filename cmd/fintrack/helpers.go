package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"fintrack/internal/config"
	"fintrack/internal/intel"
	"fintrack/internal/ledger"
	"fintrack/internal/service"
	"fintrack/internal/storage"
)

// openLedger initializes the persistence medium and hydrates the ledger
// from it. The caller owns closing the returned store.
func openLedger(ctx context.Context) (*ledger.Store, service.KVStore, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/fintrack/fintrack.db"
	}
	dbPath = config.ExpandPath(dbPath)

	kv, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, nil, err
	}

	store, err := ledger.Open(ctx, kv)
	if err != nil {
		_ = kv.Close()
		return nil, nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	return store, kv, nil
}

// newIntelClient builds the Gemini collaborator client from configuration.
func newIntelClient(ctx context.Context) (*intel.Client, error) {
	return intel.NewClient(ctx, intel.Config{
		APIKey:      viper.GetString("gemini.api_key"),
		SearchModel: viper.GetString("gemini.search_model"),
		ParseModel:  viper.GetString("gemini.parse_model"),
		MaxRetries:  viper.GetInt("gemini.max_retries"),
		RetryDelay:  viper.GetDuration("gemini.retry_delay"),
	})
}

// today returns the current calendar date as stored on transactions.
func today() string {
	return time.Now().Format("2006-01-02")
}
