package ethereum

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/config"
	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
)

// NativeDecimals is the fixed-point exponent of the native coin
const NativeDecimals = 18

// NativeBalanceReader produces the synthetic native coin holding
type NativeBalanceReader struct {
	rpc    BalanceReader
	symbol string
	name   string
	logger *zap.Logger
}

// NewNativeBalanceReader creates a native balance reader. A nil rpc makes
// every read fail with a ConfigError.
func NewNativeBalanceReader(rpc BalanceReader, cfg config.ChainConfig, logger *zap.Logger) *NativeBalanceReader {
	return &NativeBalanceReader{
		rpc:    rpc,
		symbol: cfg.NativeSymbol,
		name:   cfg.NativeName,
		logger: logger,
	}
}

// NativeBalance returns the wallet's native coin balance as a TokenHolding
func (r *NativeBalanceReader) NativeBalance(ctx context.Context, address string) (entities.TokenHolding, error) {
	if r.rpc == nil {
		return entities.TokenHolding{}, entities.NewConfigError(SourceRPC, "RPC endpoint not configured")
	}

	balance, err := r.rpc.BalanceAt(ctx, common.HexToAddress(address))
	if err != nil {
		return entities.TokenHolding{}, classifyRPCError(err)
	}

	r.logger.Debug("Fetched native balance",
		zap.String("address", address),
		zap.String("balance", balance.String()),
	)

	return entities.TokenHolding{
		ContractAddress: entities.NativeAddress,
		Symbol:          r.symbol,
		Name:            r.name,
		RawBalance:      balance.String(),
		Decimals:        NativeDecimals,
	}, nil
}
