package sync

// Decision is the outcome of conflict resolution for one incoming
// change. Resolution is all-or-nothing per record; there is no
// field-level merge.
type Decision int

const (
	DecisionApply Decision = iota
	DecisionSkip
)

// String returns the name of the decision.
func (d Decision) String() string {
	if d == DecisionSkip {
		return "skip"
	}
	return "apply"
}

// Decide resolves an incoming change against local state.
//
// Timestamps are compared as opaque strings; both sides render them
// with the same canonical layout, so lexicographic order equals
// chronological order. An incoming timestamp equal to the local one
// applies, which keeps duplicate deliveries idempotent.
func Decide(strategy ConflictStrategy, incomingModified, localModified string) Decision {
	switch strategy {
	case StrategySkip:
		return DecisionSkip
	case StrategyLastWriteWins:
		if incomingModified < localModified {
			return DecisionSkip
		}
		return DecisionApply
	default:
		// Unconfigured doctypes default to last-write-wins.
		if incomingModified < localModified {
			return DecisionSkip
		}
		return DecisionApply
	}
}
