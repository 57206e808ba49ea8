// Package intel implements the two external AI collaborators on the Gemini
// API: public card intelligence lookup and transaction text parsing.
//
// The intelligence lookup is given only a card's bank name and variant name.
// Balances, card numbers, and transaction data never leave the device; the
// parse call sends exactly the single pasted string the user provides.
package intel

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"fintrack/internal/service"
)

// Default model names, overridable via configuration.
const (
	DefaultSearchModel = "gemini-3-pro-preview"
	DefaultParseModel  = "gemini-3-flash-preview"
)

// Config holds configuration for the Gemini client.
type Config struct {
	APIKey      string
	SearchModel string
	ParseModel  string
	MaxRetries  int
	RetryDelay  time.Duration
}

// Client implements service.CardIntelligence and service.TransactionParser.
type Client struct {
	genai     *genai.Client
	cfg       Config
	retryOpts service.RetryOptions
}

// NewClient creates a Gemini-backed collaborator client. The API key falls
// back to the GEMINI_API_KEY environment variable when unset.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.SearchModel == "" {
		cfg.SearchModel = DefaultSearchModel
	}
	if cfg.ParseModel == "" {
		cfg.ParseModel = DefaultParseModel
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Client{
		genai:     gc,
		cfg:       cfg,
		retryOpts: retryOpts,
	}, nil
}
