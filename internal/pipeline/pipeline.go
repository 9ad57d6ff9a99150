// Package pipeline turns pasted free text into transactions through a single
// language-model extraction call guarded by a bounded retry policy.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/smart-accountant/internal/domain"
	"github.com/dvloznov/smart-accountant/internal/logger"
	"github.com/dvloznov/smart-accountant/internal/retry"
)

// Config controls the extraction call and its retry policy.
type Config struct {
	APIKey      string
	Model       string
	MaxAttempts int
	BackoffUnit time.Duration
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModelName
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BackoffUnit <= 0 {
		c.BackoffUnit = DefaultBackoffUnit
	}
	return c
}

// Client is the Ingestion Client. It holds no ledger state; callers append
// the returned batch themselves.
type Client struct {
	cfg       Config
	extractor Extractor
	sleep     retry.SleepFunc
}

// NewClient creates a Client. A nil extractor selects a GeminiExtractor
// built from cfg.
func NewClient(cfg Config, extractor Extractor) *Client {
	cfg = cfg.withDefaults()
	if extractor == nil {
		extractor = NewGeminiExtractor(cfg.APIKey, cfg.Model)
	}
	return &Client{
		cfg:       cfg,
		extractor: extractor,
		sleep:     retry.Sleep,
	}
}

// ExtractTransactions converts text into an ordered batch of new
// transactions, each with a fresh id. Either the whole batch is returned or
// an error matching one of ErrConfiguration, ErrValidation, ErrParse or
// ErrConnectivity. Errors reported by the service itself match
// ErrCollaborator and still unwrap to the service error.
func (c *Client) ExtractTransactions(ctx context.Context, text string) ([]domain.Transaction, error) {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, ErrConfiguration
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrValidation
	}

	policy := retry.Policy{
		MaxAttempts: c.cfg.MaxAttempts,
		Backoff:     retry.Linear(c.cfg.BackoffUnit),
		Retryable:   IsNetworkFault,
		Sleep:       c.sleep,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", c.cfg.MaxAttempts).
				Dur("retry_in", delay).
				Msg("Extraction attempt failed with a network fault, retrying")
		},
	}

	var raw string
	err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		log.Debug().Int("attempt", attempt).Msg("Calling extraction service")
		body, err := c.extractor.Extract(ctx, text)
		if err != nil {
			return err
		}
		raw = body
		return nil
	})
	if err != nil {
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			log.Error().
				Err(exhausted.Last).
				Int("attempts", exhausted.Attempts).
				Msg("Extraction service unreachable")
			return nil, &ConnectivityError{Attempts: exhausted.Attempts, Cause: exhausted.Last}
		}
		log.Error().Err(err).Msg("Extraction failed")
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ExtractTransactions: %w", err)
		}
		return nil, fmt.Errorf("ExtractTransactions: %w: %w", ErrCollaborator, err)
	}

	txs, err := transformModelOutputToTransactions(raw)
	if err != nil {
		log.Error().Err(err).Msg("Extraction response rejected")
		return nil, err
	}

	for i := range txs {
		txs[i].ID = uuid.NewString()
	}

	log.Info().Int("transactions", len(txs)).Msg("Extracted transactions")
	return txs, nil
}
