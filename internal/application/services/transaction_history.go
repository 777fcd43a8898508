package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
	"github.com/bimakw/wallet-aggregator/internal/domain/repositories"
)

// Attempt records one source call made while serving a request
type Attempt struct {
	Source  string
	Role    string
	Err     error
	Latency time.Duration
}

// TransactionHistory reads history from the indexer and falls back to the
// explorer when the indexer fails
type TransactionHistory struct {
	primary  repositories.TransactionSource
	fallback repositories.TransactionSource
	timeout  time.Duration
	logger   *zap.Logger
}

// NewTransactionHistory creates a history reader. Either source may be nil.
// timeout bounds each attempt separately.
func NewTransactionHistory(primary, fallback repositories.TransactionSource, timeout time.Duration, logger *zap.Logger) *TransactionHistory {
	return &TransactionHistory{
		primary:  primary,
		fallback: fallback,
		timeout:  timeout,
		logger:   logger.Named("history"),
	}
}

// CanPage reports whether pages after the first can be read
func (h *TransactionHistory) CanPage() bool {
	return h.fallback != nil
}

// Fetch returns the first page of history. When both sources fail the
// fallback's error is returned, so a ConfigError there reads as "could not
// check" rather than "no transactions".
func (h *TransactionHistory) Fetch(ctx context.Context, address string) (*entities.TransactionPage, []Attempt, error) {
	attempts := make([]Attempt, 0, 2)

	var primaryErr error
	if h.primary != nil {
		page, attempt := h.try(ctx, h.primary, RolePrimary, address, 1)
		attempts = append(attempts, attempt)
		if attempt.Err == nil {
			return page, attempts, nil
		}
		primaryErr = attempt.Err
		if Decide(entities.DomainTransactions, RolePrimary, primaryErr).Action != Fallback {
			return nil, attempts, primaryErr
		}
	}

	if h.fallback == nil {
		if primaryErr != nil {
			return nil, attempts, primaryErr
		}
		return nil, attempts, entities.NewConfigError("transactions", "no transaction source configured")
	}

	if primaryErr != nil {
		h.logger.Warn("Primary history source failed, using fallback",
			zap.String("address", address),
			zap.String("primary", h.primary.Name()),
			zap.String("fallback", h.fallback.Name()),
			zap.Error(primaryErr),
		)
	}

	page, attempt := h.try(ctx, h.fallback, RoleFallback, address, 1)
	attempts = append(attempts, attempt)
	if attempt.Err != nil {
		return nil, attempts, attempt.Err
	}
	return page, attempts, nil
}

// Page returns a page from the paging source only, without trying the
// primary. Pages start at 1.
func (h *TransactionHistory) Page(ctx context.Context, address string, page int) (*entities.TransactionPage, []Attempt, error) {
	if page < 1 {
		page = 1
	}
	if h.fallback == nil {
		return nil, nil, entities.NewConfigError("transactions", "history paging not configured")
	}

	result, attempt := h.try(ctx, h.fallback, RoleFallback, address, page)
	return result, []Attempt{attempt}, attempt.Err
}

func (h *TransactionHistory) try(ctx context.Context, src repositories.TransactionSource, role, address string, page int) (*entities.TransactionPage, Attempt) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := src.Transactions(ctx, address, page)
	attempt := Attempt{Source: src.Name(), Role: role, Latency: time.Since(start)}
	if err != nil {
		attempt.Err = fmt.Errorf("%s history: %w", src.Name(), err)
		return nil, attempt
	}
	return result, attempt
}
