package entities

// TxStatus is the execution outcome of a transaction
type TxStatus string

const (
	TxSuccess TxStatus = "success"
	TxFailed  TxStatus = "failed"
)

// TxSource records which upstream produced a transaction
type TxSource string

const (
	TxSourceIndexer  TxSource = "indexer"
	TxSourceExplorer TxSource = "explorer"
)

// Transaction is a normalized history entry. Hash is the identity key.
// Timestamp is unix seconds and may be absent.
type Transaction struct {
	Hash        string   `json:"hash"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	Asset       string   `json:"asset"`
	RawValue    string   `json:"raw_value"`
	Timestamp   *int64   `json:"timestamp,omitempty"`
	Status      TxStatus `json:"status"`
	BlockNumber uint64   `json:"block_number"`
	Category    string   `json:"category,omitempty"`
	GasUsed     string   `json:"gas_used,omitempty"`
	GasPrice    string   `json:"gas_price,omitempty"`
	Source      TxSource `json:"source"`
}

// TransactionPage is one page of history from a single source
type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	Skipped      []Skipped     `json:"skipped,omitempty"`
	Source       TxSource      `json:"source"`
	Page         int           `json:"page"`
	HasMore      bool          `json:"has_more"`
}
