package ethereum

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/config"
	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
	"github.com/bimakw/wallet-aggregator/internal/testutil"
)

func TestNativeBalanceReader(t *testing.T) {
	cfg := config.ChainConfig{NativeSymbol: "MATIC", NativeName: "Polygon"}

	t.Run("returns synthetic holding", func(t *testing.T) {
		rpc := testutil.NewMockBalanceReader()
		rpc.BalanceAtFunc = func(ctx context.Context, account common.Address) (*big.Int, error) {
			if account != common.HexToAddress(testutil.AliceAddress) {
				t.Errorf("unexpected account %s", account.Hex())
			}
			return big.NewInt(1500000000000000000), nil
		}

		reader := NewNativeBalanceReader(rpc, cfg, zap.NewNop())
		holding, err := reader.NativeBalance(context.Background(), testutil.AliceAddress)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !holding.IsNative() {
			t.Errorf("expected native holding, got contract %s", holding.ContractAddress)
		}
		if holding.Symbol != "MATIC" || holding.Name != "Polygon" || holding.Decimals != 18 {
			t.Errorf("unexpected holding: %+v", holding)
		}
		if holding.RawBalance != "1500000000000000000" {
			t.Errorf("unexpected balance %s", holding.RawBalance)
		}
	})

	t.Run("missing endpoint is a config error", func(t *testing.T) {
		reader := NewNativeBalanceReader(nil, cfg, zap.NewNop())
		_, err := reader.NativeBalance(context.Background(), testutil.AliceAddress)
		if !entities.IsKind(err, entities.ConfigError) {
			t.Errorf("expected ConfigError, got %v", err)
		}
	})

	t.Run("deadline is a network timeout", func(t *testing.T) {
		rpc := testutil.NewMockBalanceReader()
		rpc.BalanceAtFunc = func(ctx context.Context, account common.Address) (*big.Int, error) {
			return nil, context.DeadlineExceeded
		}

		reader := NewNativeBalanceReader(rpc, cfg, zap.NewNop())
		_, err := reader.NativeBalance(context.Background(), testutil.AliceAddress)

		se, ok := entities.AsSourceError(err)
		if !ok || se.Kind != entities.NetworkError || !se.Timeout {
			t.Errorf("expected timeout NetworkError, got %v", err)
		}
	})
}
