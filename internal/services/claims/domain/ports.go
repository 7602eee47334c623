package domain

import "context"

// ServicePort is the claim guard contract.
type ServicePort interface {
	// Submit runs the guarded claim transaction for one order
	Submit(ctx context.Context, in SubmitInput) (SubmitOutcome, error)

	// Check is the advisory pre-flight duplicate check. It never blocks a
	// submission on backend failure; Submit re-checks inside its own
	// critical section regardless of what Check reported
	Check(ctx context.Context, in CheckInput) (CheckOutcome, error)
}

// Ledger is the claim store: an append-only ledger keyed by canonical order
// id, serialized by a store-wide mutual exclusion lock. Claim owns the whole
// check-then-append critical section so callers cannot reintroduce the
// time-of-check-to-time-of-use race by composing Find and an append
// themselves.
type Ledger interface {
	// Find returns the recorded claim for the canonical order id, if any.
	// Safe to call outside the lock for advisory reads
	Find(ctx context.Context, orderIDNorm string) (*ClaimRecord, error)

	// Claim atomically checks for an existing record and appends rec when
	// absent. Returns (existing, false, nil) when the order was already
	// claimed, (nil, true, nil) after a successful append. The existence
	// check and the append run under one continuously held lock acquisition
	Claim(ctx context.Context, rec ClaimRecord) (existing *ClaimRecord, claimed bool, err error)

	// AppendTest records a test-mode claim in a namespace separate from
	// production rows, bypassing the duplicate guard
	AppendTest(ctx context.Context, rec ClaimRecord) error
}

// AttemptSink receives guard decisions for campaign reporting. Implementations
// must be best effort; the guard never fails a claim over a sink error.
type AttemptSink interface {
	Attempt(ctx context.Context, ev AttemptEvent)
}

// AttemptEvent is one guard decision.
type AttemptEvent struct {
	OrderIDNorm string
	Campaign    string
	Decision    string // recorded, duplicate, failed
	Err         string
}

// Notifier pushes a recorded claim to the marketing-automation backend.
type Notifier interface {
	ClaimRecorded(ctx context.Context, rec ClaimRecord) error
}
