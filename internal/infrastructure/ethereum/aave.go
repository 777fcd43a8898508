package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
)

const (
	// AaveProtocolName is the display name of the lending protocol
	AaveProtocolName = "Aave V3"
	aaveLogo         = "🦇"
	sourceAave       = "aave"
)

const aavePoolABIJSON = `[{
	"inputs": [{"internalType": "address", "name": "user", "type": "address"}],
	"name": "getUserAccountData",
	"outputs": [
		{"internalType": "uint256", "name": "totalCollateralBase", "type": "uint256"},
		{"internalType": "uint256", "name": "totalDebtBase", "type": "uint256"},
		{"internalType": "uint256", "name": "availableBorrowsBase", "type": "uint256"},
		{"internalType": "uint256", "name": "currentLiquidationThreshold", "type": "uint256"},
		{"internalType": "uint256", "name": "ltv", "type": "uint256"},
		{"internalType": "uint256", "name": "healthFactor", "type": "uint256"}
	],
	"stateMutability": "view",
	"type": "function"
}]`

// Fixed-point exponents of getUserAccountData fields. Base currency amounts
// use 8 decimals, the health factor uses 18 and ratios are basis points.
const (
	aaveBaseDecimals   = 8
	aaveHealthDecimals = 18
	aaveRatioDecimals  = 4
)

var (
	aaveABIOnce sync.Once
	aaveABI     abi.ABI
	aaveABIErr  error
)

func aavePoolABI() (abi.ABI, error) {
	aaveABIOnce.Do(func() {
		aaveABI, aaveABIErr = abi.JSON(strings.NewReader(aavePoolABIJSON))
	})
	return aaveABI, aaveABIErr
}

// AaveReader reads lending positions from an Aave V3 pool
type AaveReader struct {
	caller ContractCaller
	pool   common.Address
	logger *zap.Logger
}

// NewAaveReader creates a reader for the pool at poolAddress
func NewAaveReader(caller ContractCaller, poolAddress string, logger *zap.Logger) *AaveReader {
	return &AaveReader{
		caller: caller,
		pool:   common.HexToAddress(poolAddress),
		logger: logger,
	}
}

// Name returns the protocol name
func (r *AaveReader) Name() string {
	return sourceAave
}

// Positions returns the wallet's lending position, or nothing when it has
// neither collateral nor debt
func (r *AaveReader) Positions(ctx context.Context, address string) ([]entities.DefiPosition, error) {
	if r.caller == nil || r.pool == (common.Address{}) {
		return nil, entities.NewConfigError(sourceAave, "lending pool not configured")
	}

	parsed, err := aavePoolABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool ABI: %w", err)
	}

	data, err := parsed.Pack("getUserAccountData", common.HexToAddress(address))
	if err != nil {
		return nil, fmt.Errorf("failed to pack getUserAccountData: %w", err)
	}

	result, err := r.caller.CallContract(ctx, r.pool, data)
	if err != nil {
		return nil, err
	}

	position, err := decodeAccountData(parsed, result)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return []entities.DefiPosition{}, nil
	}

	r.logger.Debug("Fetched lending position",
		zap.String("address", address),
		zap.Float64("collateral_usd", position.Lending.TotalCollateralUSD),
		zap.Float64("debt_usd", position.Lending.TotalDebtUSD),
	)

	return []entities.DefiPosition{*position}, nil
}

// decodeAccountData rescales the account summary tuple field by field
func decodeAccountData(parsed abi.ABI, data []byte) (*entities.DefiPosition, error) {
	values, err := parsed.Unpack("getUserAccountData", data)
	if err != nil {
		return nil, entities.NewValidationError(sourceAave, fmt.Sprintf("undecodable account data: %v", err))
	}
	if len(values) != 6 {
		return nil, entities.NewValidationError(sourceAave, fmt.Sprintf("expected 6 fields, got %d", len(values)))
	}

	fields := make([]*big.Int, len(values))
	for i, v := range values {
		n, ok := v.(*big.Int)
		if !ok {
			return nil, entities.NewValidationError(sourceAave, fmt.Sprintf("field %d is not uint256", i))
		}
		fields[i] = n
	}

	collateral, debt := fields[0], fields[1]
	if collateral.Sign() == 0 && debt.Sign() == 0 {
		return nil, nil
	}

	lending := &entities.LendingPosition{
		TotalCollateralUSD:   scale(collateral, aaveBaseDecimals),
		TotalDebtUSD:         scale(debt, aaveBaseDecimals),
		AvailableBorrowUSD:   scale(fields[2], aaveBaseDecimals),
		LiquidationThreshold: scale(fields[3], aaveRatioDecimals),
		LTV:                  scale(fields[4], aaveRatioDecimals),
		HealthFactor:         scale(fields[5], aaveHealthDecimals),
	}

	net := decimal.NewFromBigInt(collateral, -aaveBaseDecimals).
		Sub(decimal.NewFromBigInt(debt, -aaveBaseDecimals))

	return &entities.DefiPosition{
		Protocol:    AaveProtocolName,
		Kind:        entities.PositionLending,
		Logo:        aaveLogo,
		NetValueUSD: net.InexactFloat64(),
		Lending:     lending,
	}, nil
}

func scale(v *big.Int, decimals int32) float64 {
	return decimal.NewFromBigInt(v, -decimals).InexactFloat64()
}
