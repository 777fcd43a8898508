package services

import (
	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
)

// Action is what the orchestrator does with a failed source call
type Action int

const (
	// Continue drops the failed source's data and shows the domain normally
	Continue Action = iota
	// Fallback retries the domain against its secondary source
	Fallback
	// Surface shows the classified error on the domain
	Surface
)

func (a Action) String() string {
	switch a {
	case Continue:
		return "continue"
	case Fallback:
		return "fallback"
	case Surface:
		return "surface"
	}
	return "unknown"
}

// Source roles within a domain, used to pick the policy row
const (
	RoleNative   = "native"
	RoleTokens   = "tokens"
	RolePrimary  = "primary"
	RoleFallback = "fallback"
)

// Decision is the policy outcome for one failure
type Decision struct {
	Action Action
	Kind   entities.ErrorKind
	// Message is safe to show; it never carries upstream payloads
	Message string
}

// DomainError returns the surfaced error, or nil unless the action is Surface
func (d Decision) DomainError() *entities.DomainFailure {
	if d.Action != Surface {
		return nil
	}
	return &entities.DomainFailure{Kind: d.Kind, Message: d.Message}
}

// Decide maps a source failure within domain to an action. role is one of the
// Role constants for the balances and transactions domains and is ignored
// elsewhere.
func Decide(domain entities.Domain, role string, err error) Decision {
	d := Decision{
		Action:  Continue,
		Kind:    entities.KindOf(err),
		Message: entities.UserMessage(err),
	}
	if err == nil {
		return d
	}

	configErr := d.Kind == entities.ConfigError

	switch domain {
	case entities.DomainBalances:
		if role == RoleNative || configErr {
			d.Action = Surface
		}
	case entities.DomainNFTs, entities.DomainDefi:
		if configErr {
			d.Action = Surface
		}
	case entities.DomainTransactions:
		if role == RolePrimary {
			d.Action = Fallback
		} else {
			d.Action = Surface
		}
	case entities.DomainPrices:
		d.Action = Continue
	}
	return d
}
