package runner

import "github.com/wippyai/borsh-roundtrip/registry"

// Verdict is the outcome of one conformance check.
type Verdict int

const (
	Pass Verdict = iota
	UnknownCase
	Malformed
	Mismatch
	EncodeFailed
	// GuestAborted is reported by the guest driver when a foreign
	// implementation traps instead of returning.
	GuestAborted
)

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "pass"
	case UnknownCase:
		return "unknown_case"
	case Malformed:
		return "malformed"
	case Mismatch:
		return "mismatch"
	case EncodeFailed:
		return "encode_failed"
	case GuestAborted:
		return "guest_aborted"
	}
	return "unknown"
}

// Report describes one check. Output is set only when Verdict is Pass.
type Report struct {
	Err     error
	Case    registry.Case
	Diff    string
	Output  []byte
	Verdict Verdict
	ID      uint8
}

// Fatal reports whether the check failed. Every failure is terminal: the
// caller must abort or propagate, never continue with Output.
func (r *Report) Fatal() bool {
	return r.Verdict != Pass
}

// CaseName returns the case name, or "unknown" when the id did not resolve.
func (r *Report) CaseName() string {
	if r.Case.Name == "" {
		return "unknown"
	}
	return r.Case.Name
}

// Observer receives every Report after a check completes.
type Observer interface {
	Observe(r *Report)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(r *Report)

func (f ObserverFunc) Observe(r *Report) {
	f(r)
}
