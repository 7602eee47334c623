// Package domain holds the claim guard's types, DTOs, and ports
package domain

import "time"

// ClaimRecord is one successful claim against one order. A record is created
// exactly once by a guarded append and is immutable afterwards.
type ClaimRecord struct {
	// OrderIDRaw is the identifier exactly as submitted by the client
	OrderIDRaw string

	// OrderIDNorm is the canonical form used for equality (see core/orderid).
	// The ledger is a partial function from OrderIDNorm to at most one record
	OrderIDNorm string

	Email      string
	CustomerID string
	FirstName  string
	LastName   string

	// Specialties keeps insertion order; uniqueness is a client concern
	Specialties []string

	// Campaign distinguishes production and test runs
	Campaign string

	// SubmissionID is unique per successful append, generated at append time.
	// Duplicate suppression keys on OrderIDNorm, never on SubmissionID
	SubmissionID string

	// OrderEntityID and OrderAmount are carried for reporting only
	OrderEntityID string
	OrderAmount   string

	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClaimSummary is the duplicate-facing view of an existing record, shown to a
// customer whose order was already claimed.
type ClaimSummary struct {
	OrderID     string `json:"order_id"`
	Timestamp   string `json:"timestamp"`
	Specialties string `json:"specialties"`
	Email       string `json:"email,omitempty"`
}

// Summary renders the record for duplicate display.
func (r *ClaimRecord) Summary() *ClaimSummary {
	if r == nil {
		return nil
	}
	ts := ""
	if !r.CreatedAt.IsZero() {
		ts = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	return &ClaimSummary{
		OrderID:     r.OrderIDNorm,
		Timestamp:   ts,
		Specialties: JoinSpecialties(r.Specialties),
		Email:       r.Email,
	}
}

// JoinSpecialties renders the ledger's comma-joined specialties column.
func JoinSpecialties(xs []string) string {
	out := ""
	for i, x := range xs {
		if i > 0 {
			out += ", "
		}
		out += x
	}
	return out
}
