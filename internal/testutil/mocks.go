package testutil

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
)

// MockCall records a single mock invocation
type MockCall struct {
	Method string
	Args   []interface{}
}

// callLog is embedded by every mock for thread-safe call tracking
type callLog struct {
	mu    sync.Mutex
	Calls []MockCall
}

func (l *callLog) record(method string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Calls = append(l.Calls, MockCall{Method: method, Args: args})
}

// CallCount returns how many times method was invoked
func (l *callLog) CallCount(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset clears recorded calls
func (l *callLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Calls = make([]MockCall, 0)
}

// MockContractCaller is a mock implementation of ethereum.ContractCaller
type MockContractCaller struct {
	callLog
	CallContractFunc func(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

func NewMockContractCaller() *MockContractCaller {
	return &MockContractCaller{callLog: callLog{Calls: make([]MockCall, 0)}}
}

func (m *MockContractCaller) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	m.record("CallContract", to, data)
	if m.CallContractFunc != nil {
		return m.CallContractFunc(ctx, to, data)
	}
	return nil, errors.New("execution reverted")
}

// MockBalanceReader is a mock implementation of ethereum.BalanceReader
type MockBalanceReader struct {
	callLog
	BalanceAtFunc func(ctx context.Context, account common.Address) (*big.Int, error)
}

func NewMockBalanceReader() *MockBalanceReader {
	return &MockBalanceReader{callLog: callLog{Calls: make([]MockCall, 0)}}
}

func (m *MockBalanceReader) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	m.record("BalanceAt", account)
	if m.BalanceAtFunc != nil {
		return m.BalanceAtFunc(ctx, account)
	}
	return big.NewInt(0), nil
}

// MockTokenReader is a mock implementation of ethereum.TokenReader. By
// default every contract reads as a USDC-like holding.
type MockTokenReader struct {
	callLog
	ReadTokenFunc func(ctx context.Context, contract, owner string) (*entities.TokenHolding, error)
}

func NewMockTokenReader() *MockTokenReader {
	return &MockTokenReader{callLog: callLog{Calls: make([]MockCall, 0)}}
}

func (m *MockTokenReader) ReadToken(ctx context.Context, contract, owner string) (*entities.TokenHolding, error) {
	m.record("ReadToken", contract, owner)
	if m.ReadTokenFunc != nil {
		return m.ReadTokenFunc(ctx, contract, owner)
	}
	h := CreateTestHolding(WithContract(contract))
	return &h, nil
}

// MockNativeSource is a mock implementation of repositories.NativeBalanceSource
type MockNativeSource struct {
	callLog
	NativeBalanceFunc func(ctx context.Context, address string) (entities.TokenHolding, error)
}

func NewMockNativeSource() *MockNativeSource {
	return &MockNativeSource{callLog: callLog{Calls: make([]MockCall, 0)}}
}

func (m *MockNativeSource) NativeBalance(ctx context.Context, address string) (entities.TokenHolding, error) {
	m.record("NativeBalance", address)
	if m.NativeBalanceFunc != nil {
		return m.NativeBalanceFunc(ctx, address)
	}
	return CreateNativeHolding("1000000000000000000"), nil
}

// MockTokenCandidateSource is a mock implementation of
// repositories.TokenCandidateSource
type MockTokenCandidateSource struct {
	callLog
	ListTokenCandidatesFunc func(ctx context.Context, address string) ([]entities.TokenCandidate, error)
}

func NewMockTokenCandidateSource() *MockTokenCandidateSource {
	return &MockTokenCandidateSource{callLog: callLog{Calls: make([]MockCall, 0)}}
}

func (m *MockTokenCandidateSource) ListTokenCandidates(ctx context.Context, address string) ([]entities.TokenCandidate, error) {
	m.record("ListTokenCandidates", address)
	if m.ListTokenCandidatesFunc != nil {
		return m.ListTokenCandidatesFunc(ctx, address)
	}
	return []entities.TokenCandidate{}, nil
}

// MockNFTSource is a mock implementation of repositories.NFTSource
type MockNFTSource struct {
	callLog
	NFTsFunc func(ctx context.Context, address, pageKey string) (*entities.NFTPage, error)
}

func NewMockNFTSource() *MockNFTSource {
	return &MockNFTSource{callLog: callLog{Calls: make([]MockCall, 0)}}
}

func (m *MockNFTSource) NFTs(ctx context.Context, address, pageKey string) (*entities.NFTPage, error) {
	m.record("NFTs", address, pageKey)
	if m.NFTsFunc != nil {
		return m.NFTsFunc(ctx, address, pageKey)
	}
	return &entities.NFTPage{Items: []entities.NFTItem{}}, nil
}

// MockDefiSource is a mock implementation of repositories.DefiSource
type MockDefiSource struct {
	callLog
	SourceName    string
	PositionsFunc func(ctx context.Context, address string) ([]entities.DefiPosition, error)
}

func NewMockDefiSource(name string) *MockDefiSource {
	return &MockDefiSource{SourceName: name, callLog: callLog{Calls: make([]MockCall, 0)}}
}

func (m *MockDefiSource) Name() string {
	return m.SourceName
}

func (m *MockDefiSource) Positions(ctx context.Context, address string) ([]entities.DefiPosition, error) {
	m.record("Positions", address)
	if m.PositionsFunc != nil {
		return m.PositionsFunc(ctx, address)
	}
	return nil, nil
}

// MockTransactionSource is a mock implementation of
// repositories.TransactionSource and repositories.TokenTransferSource
type MockTransactionSource struct {
	callLog
	SourceName         string
	TransactionsFunc   func(ctx context.Context, address string, page int) (*entities.TransactionPage, error)
	TokenTransfersFunc func(ctx context.Context, address string, page int) (*entities.TransactionPage, error)
}

func NewMockTransactionSource(name string) *MockTransactionSource {
	return &MockTransactionSource{SourceName: name, callLog: callLog{Calls: make([]MockCall, 0)}}
}

func (m *MockTransactionSource) Name() string {
	return m.SourceName
}

func (m *MockTransactionSource) Transactions(ctx context.Context, address string, page int) (*entities.TransactionPage, error) {
	m.record("Transactions", address, page)
	if m.TransactionsFunc != nil {
		return m.TransactionsFunc(ctx, address, page)
	}
	return &entities.TransactionPage{Transactions: []entities.Transaction{}, Page: page}, nil
}

func (m *MockTransactionSource) TokenTransfers(ctx context.Context, address string, page int) (*entities.TransactionPage, error) {
	m.record("TokenTransfers", address, page)
	if m.TokenTransfersFunc != nil {
		return m.TokenTransfersFunc(ctx, address, page)
	}
	return &entities.TransactionPage{Transactions: []entities.Transaction{}, Page: page}, nil
}

// MockPriceSource is a mock implementation of repositories.PriceSource. By
// default it prices every requested id at Prices[id] and searches nothing.
type MockPriceSource struct {
	callLog
	Prices           map[string]float64
	SimplePricesFunc func(ctx context.Context, ids []string, includeChange bool) (map[string]entities.PriceQuote, error)
	SearchFunc       func(ctx context.Context, query string) ([]entities.CoinMatch, error)
}

func NewMockPriceSource(prices map[string]float64) *MockPriceSource {
	if prices == nil {
		prices = make(map[string]float64)
	}
	return &MockPriceSource{Prices: prices, callLog: callLog{Calls: make([]MockCall, 0)}}
}

func (m *MockPriceSource) SimplePrices(ctx context.Context, ids []string, includeChange bool) (map[string]entities.PriceQuote, error) {
	m.record("SimplePrices", append([]string(nil), ids...), includeChange)
	if m.SimplePricesFunc != nil {
		return m.SimplePricesFunc(ctx, ids, includeChange)
	}
	out := make(map[string]entities.PriceQuote)
	for _, id := range ids {
		if p, ok := m.Prices[id]; ok {
			out[id] = entities.PriceQuote{USD: p}
		}
	}
	return out, nil
}

func (m *MockPriceSource) Search(ctx context.Context, query string) ([]entities.CoinMatch, error) {
	m.record("Search", query)
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query)
	}
	return []entities.CoinMatch{}, nil
}

// MockHealthChecker is a mock implementation of HealthChecker
type MockHealthChecker struct {
	mu sync.RWMutex

	Healthy bool
	Error   error
	Calls   []MockCall
}

func NewMockHealthChecker(healthy bool) *MockHealthChecker {
	var err error
	if !healthy {
		err = errors.New("health check failed")
	}
	return &MockHealthChecker{
		Healthy: healthy,
		Error:   err,
		Calls:   make([]MockCall, 0),
	}
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: "HealthCheck", Args: nil})
	return m.Error
}

func (m *MockHealthChecker) SetHealthy(healthy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Healthy = healthy
	if healthy {
		m.Error = nil
	} else {
		m.Error = errors.New("health check failed")
	}
}
