package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/config"
	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
)

// SourceRPC is the source name used for errors raised by chain reads
const SourceRPC = "rpc"

// ContractCaller performs read-only contract calls
type ContractCaller interface {
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// BalanceReader reads native coin balances
type BalanceReader interface {
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
}

// Client wraps the go-ethereum client and classifies its failures
type Client struct {
	client *ethclient.Client
	config config.ChainConfig
	logger *zap.Logger
}

// NewClient creates a client for the configured RPC endpoint. Dialing an
// HTTP endpoint does not perform I/O, so an unreachable node surfaces on
// first use as a NetworkError.
func NewClient(cfg config.ChainConfig, logger *zap.Logger) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, entities.NewConfigError(SourceRPC, "RPC endpoint not configured")
	}

	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, entities.NewConfigError(SourceRPC, fmt.Sprintf("invalid RPC endpoint: %v", err))
	}

	logger.Info("Configured chain RPC client",
		zap.String("native_symbol", cfg.NativeSymbol),
	)

	return &Client{
		client: client,
		config: cfg,
		logger: logger.Named("rpc"),
	}, nil
}

// Close closes the underlying connection
func (c *Client) Close() {
	c.client.Close()
}

// BalanceAt returns the latest native balance of account
func (c *Client) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := c.client.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, classifyRPCError(err)
	}
	return balance, nil
}

// CallContract executes eth_call against the latest block
func (c *Client) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	result, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, classifyRPCError(err)
	}
	return result, nil
}

// HealthCheck reports whether the node answers
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.client.BlockNumber(ctx)
	if err != nil {
		return classifyRPCError(err)
	}
	return nil
}
