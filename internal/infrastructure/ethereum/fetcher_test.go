package ethereum

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
	"github.com/bimakw/wallet-aggregator/internal/testutil"
)

func TestTokenFetcher_FetchHoldings(t *testing.T) {
	candidates := []entities.TokenCandidate{
		{ContractAddress: "0x0000000000000000000000000000000000000001", RawBalance: "100"},
		{ContractAddress: "0x0000000000000000000000000000000000000002", RawBalance: "200"},
		{ContractAddress: "0x0000000000000000000000000000000000000003", RawBalance: "300"},
		{ContractAddress: "0x0000000000000000000000000000000000000004", RawBalance: "400"},
	}

	t.Run("one failed token does not fail the batch", func(t *testing.T) {
		reader := testutil.NewMockTokenReader()
		reader.ReadTokenFunc = func(ctx context.Context, contract, owner string) (*entities.TokenHolding, error) {
			if contract == candidates[1].ContractAddress {
				return nil, errors.New("execution reverted")
			}
			h := testutil.CreateTestHolding(
				testutil.WithContract(contract),
				testutil.WithRawBalance(contract[len(contract)-1:]+"000"),
			)
			return &h, nil
		}

		fetcher := NewTokenFetcher(reader, 2, zap.NewNop())
		holdings, skipped := fetcher.FetchHoldings(context.Background(), testutil.AliceAddress, candidates)

		if len(holdings) != len(candidates)-1 {
			t.Fatalf("expected %d holdings, got %d", len(candidates)-1, len(holdings))
		}
		if len(skipped) != 1 {
			t.Fatalf("expected 1 skipped, got %d", len(skipped))
		}
		if skipped[0].Key != candidates[1].ContractAddress || skipped[0].Kind != entities.SkipToken {
			t.Errorf("unexpected skipped entry: %+v", skipped[0])
		}

		// Survivors keep candidate order and their own balances.
		expected := []string{"1000", "3000", "4000"}
		for i, h := range holdings {
			if h.RawBalance != expected[i] {
				t.Errorf("holding %d: expected balance %s, got %s", i, expected[i], h.RawBalance)
			}
		}
	})

	t.Run("zero on-chain balance is skipped", func(t *testing.T) {
		reader := testutil.NewMockTokenReader()
		reader.ReadTokenFunc = func(ctx context.Context, contract, owner string) (*entities.TokenHolding, error) {
			h := testutil.CreateTestHolding(testutil.WithContract(contract), testutil.WithRawBalance("0"))
			return &h, nil
		}

		fetcher := NewTokenFetcher(reader, 4, zap.NewNop())
		holdings, skipped := fetcher.FetchHoldings(context.Background(), testutil.AliceAddress, candidates[:2])

		if len(holdings) != 0 {
			t.Errorf("expected no holdings, got %d", len(holdings))
		}
		if len(skipped) != 2 || skipped[0].Reason != "zero balance" {
			t.Errorf("unexpected skipped: %+v", skipped)
		}
	})

	t.Run("all candidates are read", func(t *testing.T) {
		reader := testutil.NewMockTokenReader()
		fetcher := NewTokenFetcher(reader, 0, zap.NewNop())
		holdings, _ := fetcher.FetchHoldings(context.Background(), testutil.AliceAddress, candidates)

		if len(reader.Calls) != len(candidates) {
			t.Errorf("expected %d reads, got %d", len(candidates), len(reader.Calls))
		}
		if len(holdings) != len(candidates) {
			t.Errorf("expected %d holdings, got %d", len(candidates), len(holdings))
		}
	})
}
