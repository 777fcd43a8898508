package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
	"github.com/bimakw/wallet-aggregator/internal/testutil"
)

type fakeSnapshotter struct {
	AggregateFunc        func(ctx context.Context, address string) (*entities.Snapshot, error)
	MoreNFTsFunc         func(ctx context.Context, snap *entities.Snapshot) (*entities.Snapshot, error)
	MoreTransactionsFunc func(ctx context.Context, snap *entities.Snapshot) (*entities.Snapshot, error)
}

func (f *fakeSnapshotter) Aggregate(ctx context.Context, address string) (*entities.Snapshot, error) {
	if f.AggregateFunc != nil {
		return f.AggregateFunc(ctx, address)
	}
	return &entities.Snapshot{Address: address}, nil
}

func (f *fakeSnapshotter) MoreNFTs(ctx context.Context, snap *entities.Snapshot) (*entities.Snapshot, error) {
	if f.MoreNFTsFunc != nil {
		return f.MoreNFTsFunc(ctx, snap)
	}
	return snap.Clone(), nil
}

func (f *fakeSnapshotter) MoreTransactions(ctx context.Context, snap *entities.Snapshot) (*entities.Snapshot, error) {
	if f.MoreTransactionsFunc != nil {
		return f.MoreTransactionsFunc(ctx, snap)
	}
	return snap.Clone(), nil
}

func TestSession_Load(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("publishes with epoch", func(t *testing.T) {
		s := NewSession(&fakeSnapshotter{}, logger)

		snap, err := s.Load(ctx, testutil.AliceAddress)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snap.Epoch != 1 {
			t.Errorf("expected epoch 1, got %d", snap.Epoch)
		}
		if s.Current() != snap {
			t.Error("expected snapshot published")
		}
	})

	t.Run("superseded load is cancelled and discarded", func(t *testing.T) {
		started := make(chan struct{})
		agg := &fakeSnapshotter{
			AggregateFunc: func(ctx context.Context, address string) (*entities.Snapshot, error) {
				if address == testutil.AliceAddress {
					close(started)
					<-ctx.Done()
					return nil, ctx.Err()
				}
				return &entities.Snapshot{Address: address}, nil
			},
		}
		s := NewSession(agg, logger)

		errA := make(chan error, 1)
		go func() {
			_, err := s.Load(ctx, testutil.AliceAddress)
			errA <- err
		}()
		<-started

		snapB, err := s.Load(ctx, testutil.BobAddress)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		select {
		case err := <-errA:
			if !errors.Is(err, ErrStaleResult) {
				t.Errorf("expected ErrStaleResult, got %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("superseded load was not cancelled")
		}

		if s.Current() != snapB || s.Current().Address != testutil.BobAddress {
			t.Errorf("expected B published, got %+v", s.Current())
		}
	})

	t.Run("late completion of an old query is discarded", func(t *testing.T) {
		release := make(chan struct{})
		started := make(chan struct{})
		agg := &fakeSnapshotter{
			AggregateFunc: func(ctx context.Context, address string) (*entities.Snapshot, error) {
				if address == testutil.AliceAddress {
					close(started)
					<-release
					return &entities.Snapshot{Address: address}, nil
				}
				return &entities.Snapshot{Address: address}, nil
			},
		}
		s := NewSession(agg, logger)

		errA := make(chan error, 1)
		go func() {
			_, err := s.Load(ctx, testutil.AliceAddress)
			errA <- err
		}()
		<-started

		if _, err := s.Load(ctx, testutil.BobAddress); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(release)

		if err := <-errA; !errors.Is(err, ErrStaleResult) {
			t.Errorf("expected ErrStaleResult, got %v", err)
		}
		if s.Current().Address != testutil.BobAddress {
			t.Errorf("expected B to stay current, got %s", s.Current().Address)
		}
	})

	t.Run("invalid address leaves the session alone", func(t *testing.T) {
		s := NewSession(&fakeSnapshotter{}, logger)
		first, _ := s.Load(ctx, testutil.AliceAddress)

		if _, err := s.Load(ctx, "not-an-address"); !entities.IsKind(err, entities.ValidationError) {
			t.Errorf("expected ValidationError, got %v", err)
		}
		if s.Current() != first {
			t.Error("expected current snapshot unchanged")
		}
	})

	t.Run("failed load keeps the previous snapshot", func(t *testing.T) {
		agg := &fakeSnapshotter{}
		s := NewSession(agg, logger)
		first, _ := s.Load(ctx, testutil.AliceAddress)

		agg.AggregateFunc = func(ctx context.Context, address string) (*entities.Snapshot, error) {
			return nil, errors.New("boom")
		}
		if _, err := s.Load(ctx, testutil.BobAddress); err == nil {
			t.Error("expected error")
		}
		if s.Current() != first {
			t.Error("expected previous snapshot kept")
		}
	})
}

func TestSession_Refresh(t *testing.T) {
	ctx := context.Background()
	s := NewSession(&fakeSnapshotter{}, zap.NewNop())

	if _, err := s.Refresh(ctx); !errors.Is(err, ErrNoActiveAddress) {
		t.Errorf("expected ErrNoActiveAddress, got %v", err)
	}

	if _, err := s.Load(ctx, testutil.AliceAddress); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap, err := s.Refresh(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Address != testutil.AliceAddress || snap.Epoch != 2 {
		t.Errorf("unexpected refreshed snapshot: %s epoch %d", snap.Address, snap.Epoch)
	}
}

func TestSession_LoadMore(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("requires a loaded address", func(t *testing.T) {
		s := NewSession(&fakeSnapshotter{}, logger)
		if _, err := s.LoadMoreNFTs(ctx); !errors.Is(err, ErrNoActiveAddress) {
			t.Errorf("expected ErrNoActiveAddress, got %v", err)
		}
		if _, err := s.LoadMoreTransactions(ctx); !errors.Is(err, ErrNoActiveAddress) {
			t.Errorf("expected ErrNoActiveAddress, got %v", err)
		}
	})

	t.Run("publishes within the same epoch", func(t *testing.T) {
		s := NewSession(&fakeSnapshotter{}, logger)
		first, _ := s.Load(ctx, testutil.AliceAddress)

		next, err := s.LoadMoreNFTs(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if next == first || next.Epoch != first.Epoch {
			t.Error("expected a new snapshot in the same epoch")
		}
		if s.Current() != next {
			t.Error("expected load-more result published")
		}
	})

	t.Run("discarded when a new address loads meanwhile", func(t *testing.T) {
		started := make(chan struct{})
		agg := &fakeSnapshotter{
			MoreTransactionsFunc: func(ctx context.Context, snap *entities.Snapshot) (*entities.Snapshot, error) {
				close(started)
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}
		s := NewSession(agg, logger)
		if _, err := s.Load(ctx, testutil.AliceAddress); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		errMore := make(chan error, 1)
		go func() {
			_, err := s.LoadMoreTransactions(ctx)
			errMore <- err
		}()
		<-started

		if _, err := s.Load(ctx, testutil.BobAddress); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		select {
		case err := <-errMore:
			if !errors.Is(err, ErrStaleResult) {
				t.Errorf("expected ErrStaleResult, got %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("load-more was not cancelled")
		}
		if s.Current().Address != testutil.BobAddress {
			t.Errorf("expected B current, got %s", s.Current().Address)
		}
	})

	t.Run("no more pages passes through", func(t *testing.T) {
		agg := &fakeSnapshotter{
			MoreNFTsFunc: func(ctx context.Context, snap *entities.Snapshot) (*entities.Snapshot, error) {
				return nil, ErrNoMorePages
			},
		}
		s := NewSession(agg, logger)
		first, _ := s.Load(ctx, testutil.AliceAddress)

		if _, err := s.LoadMoreNFTs(ctx); !errors.Is(err, ErrNoMorePages) {
			t.Errorf("expected ErrNoMorePages, got %v", err)
		}
		if s.Current() != first {
			t.Error("expected current unchanged")
		}
	})
}
