package entities

import (
	"time"
)

// Domain is a user-visible section of the dashboard
type Domain string

const (
	DomainBalances     Domain = "balances"
	DomainNFTs         Domain = "nfts"
	DomainDefi         Domain = "defi"
	DomainTransactions Domain = "transactions"
	DomainPrices       Domain = "prices"
)

// DomainStatus is the rendered state of one domain
type DomainStatus string

const (
	DomainOK    DomainStatus = "ok"
	DomainEmpty DomainStatus = "empty"
	DomainError DomainStatus = "error"
)

// DomainFailure is the surfaced, classified failure of a domain
type DomainFailure struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// DomainState is the independent loading outcome of one domain
type DomainState struct {
	Status DomainStatus   `json:"status"`
	Error  *DomainFailure `json:"error,omitempty"`
}

// SourceState is the per adapter call state machine
type SourceState string

const (
	SourceIdle      SourceState = "idle"
	SourceFetching  SourceState = "fetching"
	SourceSucceeded SourceState = "succeeded"
	SourceFailed    SourceState = "failed"
)

// SourceStatus reports how a single adapter call ended
type SourceStatus struct {
	State     SourceState `json:"state"`
	ErrorKind ErrorKind   `json:"error_kind,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timeout   bool        `json:"timeout,omitempty"`
	LatencyMS int64       `json:"latency_ms"`
}

// Snapshot is a published, read-only aggregation result for one address
type Snapshot struct {
	ID           string                  `json:"id"`
	Epoch        uint64                  `json:"epoch"`
	Address      string                  `json:"address"`
	Portfolio    *Portfolio              `json:"portfolio"`
	Domains      map[Domain]DomainState  `json:"domains"`
	Sources      map[string]SourceStatus `json:"sources"`
	Skipped      []Skipped               `json:"skipped,omitempty"`
	NFTPageKey   string                  `json:"nft_page_key,omitempty"`
	NFTTotal     int                     `json:"nft_total"`
	ExplorerPage int                     `json:"explorer_page"`
	TxHasMore    bool                    `json:"tx_has_more"`
	FetchedAt    time.Time               `json:"fetched_at"`
}

// Clone returns a deep enough copy to derive a new snapshot from this one
func (s *Snapshot) Clone() *Snapshot {
	c := *s
	c.Portfolio = s.Portfolio.Clone()
	c.Domains = make(map[Domain]DomainState, len(s.Domains))
	for k, v := range s.Domains {
		c.Domains[k] = v
	}
	c.Sources = make(map[string]SourceStatus, len(s.Sources))
	for k, v := range s.Sources {
		c.Sources[k] = v
	}
	c.Skipped = append([]Skipped(nil), s.Skipped...)
	return &c
}

// Degraded reports whether any domain ended in the error state
func (s *Snapshot) Degraded() bool {
	return HasFailedDomain(s.Domains)
}

// HasFailedDomain reports whether any of domains is in the error state
func HasFailedDomain(domains map[Domain]DomainState) bool {
	for _, state := range domains {
		if state.Status == DomainError {
			return true
		}
	}
	return false
}
