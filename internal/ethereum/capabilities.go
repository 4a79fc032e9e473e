package ethereum

import "strings"

// NodeCapabilities describes what a configured endpoint can serve: archive
// nodes answer historical state queries, trace nodes support call tracing.
// Immutable value type; copy freely.
type NodeCapabilities struct {
	Archive bool
	Traces  bool
}

// Dominates reports whether c can satisfy any request that required could
// satisfy, i.e. component-wise >= on both flags.
func (c NodeCapabilities) Dominates(required NodeCapabilities) bool {
	return (c.Archive || !required.Archive) && (c.Traces || !required.Traces)
}

// Less orders capabilities cheapest-first for pool sorting. It is NOT a
// total order: for mutually non-dominating pairs (archive-only vs
// traces-only) it reports true in both directions, which keeps the
// dominance filter false both ways for incomparable pairs. Use Dominates
// for filtering; Less only arranges a pool best-effort ascending.
func (c NodeCapabilities) Less(other NodeCapabilities) bool {
	return (!c.Archive && other.Archive) || (!c.Traces && other.Traces)
}

// ParseCapabilities reads a comma-separated token list. Recognized tokens
// are "archive" and "traces"; anything else is ignored.
func ParseCapabilities(s string) NodeCapabilities {
	var caps NodeCapabilities
	for _, tok := range strings.Split(s, ",") {
		switch strings.TrimSpace(tok) {
		case "archive":
			caps.Archive = true
		case "traces":
			caps.Traces = true
		}
	}
	return caps
}

func (c NodeCapabilities) String() string {
	switch {
	case c.Archive && c.Traces:
		return "archive, trace"
	case c.Traces:
		return "full, trace"
	case c.Archive:
		return "archive"
	default:
		return "full"
	}
}
