package domain

// ResolutionStatus is the lifecycle state of a barcode resolution
type ResolutionStatus int

const (
	StatusIdle ResolutionStatus = iota
	StatusInFlight
	StatusSettled
)

func (s ResolutionStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusInFlight:
		return "in_flight"
	case StatusSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// ResolutionState is a snapshot of a resolver
type ResolutionState struct {
	Barcode string           `json:"barcode"`
	Status  ResolutionStatus `json:"status"`
}

// OutcomeKind discriminates the result of arbitrating the two lookups
type OutcomeKind string

const (
	OutcomePending       OutcomeKind = "pending"
	OutcomeFoundLocal    OutcomeKind = "found_local"
	OutcomeFoundExternal OutcomeKind = "found_external"
	OutcomeNotFound      OutcomeKind = "not_found"
	OutcomeFailed        OutcomeKind = "failed"
)

// Outcome is the arbitration result. Only the field matching Kind is set.
type Outcome struct {
	Kind    OutcomeKind
	Local   *LocalMatch
	Product *CatalogProduct
	Err     error
}

// Terminal reports whether the outcome ends a resolution
func (o Outcome) Terminal() bool {
	return o.Kind != OutcomePending
}

// NoticeKind is the tone of a user-facing notice
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeFailure NoticeKind = "failure"
)

// Notice is a transient user-facing message
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}
