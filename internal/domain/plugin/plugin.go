// Package plugin describes the venue-adapter registry: the metadata
// shape and action-kind vocabulary external venue adapters (dispatched
// through ports.ActionExecutor) register themselves under, so the
// interpreter's action executor can look one up by the `type` an
// ActionStep carries (spec.md §4.9.7).
package plugin

// Kind enumerates the action kinds the method-call→action-kind table
// (spec.md §4.3.7) can produce.
type Kind string

const (
	KindLend     Kind = "lend"
	KindWithdraw Kind = "withdraw"
	KindBorrow   Kind = "borrow"
	KindRepay    Kind = "repay"
	KindStake    Kind = "stake"
	KindUnstake  Kind = "unstake"
	KindClaim    Kind = "claim"
	KindSwap     Kind = "swap"
	KindBridge   Kind = "bridge"
	KindTransfer Kind = "transfer"
)

var knownKinds = []Kind{
	KindLend, KindWithdraw, KindBorrow, KindRepay,
	KindStake, KindUnstake, KindClaim, KindSwap, KindBridge, KindTransfer,
}

// IsKnownKind reports whether k is one of the fixed action kinds the
// transformer's table can produce. An adapter-specific verb that passed
// through unchanged is not "known" in this sense but is still a valid
// registration — the registry accepts an adapter under any Kind string.
func IsKnownKind(k Kind) bool {
	for _, candidate := range knownKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// Status captures an adapter's registration lifecycle state.
type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
	StatusUnknown  Status = "unknown"
)

// Adapter is the contract a venue adapter implementation satisfies so it
// can be registered and introspected, independent of how it actually
// dispatches an action (that dispatch contract lives in
// ports.ActionExecutor).
type Adapter interface {
	Metadata() Metadata
}
