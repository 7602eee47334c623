// Package emailnorm canonicalizes customer email addresses and recognizes the
// campaign's test sentinels embedded in them.
//
// Pipeline
// 1 trim surrounding whitespace
// 2 Unicode case folding
// 3 width fold fullwidth forms to ASCII
//
// Sentinels are markers QA appends to an address to steer the lookup flow
// without touching production data. They are detected after canonicalization
// and stripped from the address that is passed upstream.
package emailnorm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

// Sentinel markers recognized inside a submitted email.
const (
	// MarkerForceFetch makes the order lookup return a synthetic order
	// instead of calling the commerce backend.
	MarkerForceFetch = "-forcefetch"

	// MarkerAdminOverride makes the order lookup return a fixed synthetic
	// order used by campaign administrators.
	MarkerAdminOverride = "-adminoverride"
)

// Normalize returns the canonical form of an email address used for
// comparisons and upstream lookups.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	out, _, err := transform.String(transform.Chain(cases.Fold(), width.Fold), s)
	if err != nil {
		// fold failure leaves a usable lowercase fallback
		return strings.ToLower(s)
	}
	return out
}

// Sentinel reports the test marker found in the canonical form of s, if any,
// and the address with the marker removed.
func Sentinel(s string) (marker, clean string) {
	n := Normalize(s)
	for _, m := range []string{MarkerForceFetch, MarkerAdminOverride} {
		if strings.Contains(n, m) {
			return m, strings.ReplaceAll(n, m, "")
		}
	}
	return "", n
}
