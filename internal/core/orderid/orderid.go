// Package orderid provides the canonical form of commerce order identifiers.
//
// Order numbers arrive from several sources (the storefront API, the browser
// widget, rows already in the ledger) and the same order can show up as "0042",
// "42", or the number 42 re-encoded as a string. The ledger keys duplicate
// detection on the canonical form, so the exact same normalization must run on
// the write path before an append and on the read path before an existence
// check. Divergence between the two reopens the duplicate-claim race.
package orderid

import "strings"

// Normalize returns the canonical form of a raw order identifier:
// leading '0' characters are stripped, and an input that is empty or all
// zeros collapses to "0". The function is idempotent.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0"
	}
	return s
}

// Equal reports whether two raw identifiers name the same order.
func Equal(a, b string) bool { return Normalize(a) == Normalize(b) }
