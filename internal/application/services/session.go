package services

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
)

var (
	// ErrStaleResult is returned to a request that was superseded by a newer
	// query before it completed. Its result is discarded.
	ErrStaleResult = errors.New("result superseded by a newer query")

	// ErrNoActiveAddress is returned by operations that need a loaded address
	ErrNoActiveAddress = errors.New("no address loaded")
)

// Snapshotter builds and extends snapshots
type Snapshotter interface {
	Aggregate(ctx context.Context, address string) (*entities.Snapshot, error)
	MoreNFTs(ctx context.Context, snap *entities.Snapshot) (*entities.Snapshot, error)
	MoreTransactions(ctx context.Context, snap *entities.Snapshot) (*entities.Snapshot, error)
}

// Session holds the current snapshot for one viewer. Every Load starts a new
// epoch and cancels work from the previous one; results that complete for
// an older epoch are never published.
type Session struct {
	agg    Snapshotter
	logger *zap.Logger

	mu      sync.Mutex
	epoch   uint64
	scope   context.Context
	cancel  context.CancelFunc
	current *entities.Snapshot
}

// NewSession creates an empty session
func NewSession(agg Snapshotter, logger *zap.Logger) *Session {
	scope, cancel := context.WithCancel(context.Background())
	return &Session{
		agg:    agg,
		logger: logger.Named("session"),
		scope:  scope,
		cancel: cancel,
	}
}

// Current returns the last published snapshot, or nil
func (s *Session) Current() *entities.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Load aggregates address and publishes the result. An invalid address is
// rejected without disturbing the request in flight.
func (s *Session) Load(ctx context.Context, address string) (*entities.Snapshot, error) {
	if err := entities.ValidateAddress(address); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cancel()
	s.scope, s.cancel = context.WithCancel(context.Background())
	s.epoch++
	epoch, scope := s.epoch, s.scope
	s.mu.Unlock()

	ctx, stop := bindScope(ctx, scope)
	defer stop()

	snap, err := s.agg.Aggregate(ctx, address)
	return s.publish(epoch, nil, snap, err)
}

// Refresh reloads the current address
func (s *Session) Refresh(ctx context.Context) (*entities.Snapshot, error) {
	current := s.Current()
	if current == nil {
		return nil, ErrNoActiveAddress
	}
	return s.Load(ctx, current.Address)
}

// LoadMoreNFTs appends the next NFT page to the current snapshot
func (s *Session) LoadMoreNFTs(ctx context.Context) (*entities.Snapshot, error) {
	return s.extend(ctx, s.agg.MoreNFTs)
}

// LoadMoreTransactions appends the next history page to the current snapshot
func (s *Session) LoadMoreTransactions(ctx context.Context) (*entities.Snapshot, error) {
	return s.extend(ctx, s.agg.MoreTransactions)
}

// Close cancels any request in flight
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
}

// extend runs a load-more against the current snapshot without starting a
// new epoch. The result is published only if neither the epoch nor the base
// snapshot changed meanwhile.
func (s *Session) extend(ctx context.Context, more func(context.Context, *entities.Snapshot) (*entities.Snapshot, error)) (*entities.Snapshot, error) {
	s.mu.Lock()
	base, epoch, scope := s.current, s.epoch, s.scope
	s.mu.Unlock()

	if base == nil {
		return nil, ErrNoActiveAddress
	}

	ctx, stop := bindScope(ctx, scope)
	defer stop()

	next, err := more(ctx, base)
	return s.publish(epoch, base, next, err)
}

func (s *Session) publish(epoch uint64, base, snap *entities.Snapshot, err error) (*entities.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch || (base != nil && s.current != base) {
		staleResultsTotal.Inc()
		s.logger.Debug("Discarding stale result",
			zap.Uint64("epoch", epoch),
			zap.Uint64("current_epoch", s.epoch),
		)
		return nil, ErrStaleResult
	}
	if err != nil {
		return nil, err
	}

	snap.Epoch = epoch
	s.current = snap
	return snap, nil
}

// bindScope returns a context cancelled when either ctx or scope is done
func bindScope(ctx, scope context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	unregister := context.AfterFunc(scope, cancel)
	return ctx, func() {
		unregister()
		cancel()
	}
}
