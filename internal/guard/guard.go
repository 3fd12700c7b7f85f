// Package guard holds admission checks shared by the HTTP layer and
// the background publishers: rate limiting, request deduplication,
// login lockout and circuit breaking.
package guard

// Result reports whether a guard admitted a request.
type Result struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Guard   string `json:"guard,omitempty"`
}
