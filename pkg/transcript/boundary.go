package transcript

import (
	"strings"

	"github.com/papercomputeco/leonia/pkg/modelconf"
)

// Boundary returns the index of the earliest of the given markers in buf, or
// -1 when none occurs. Empty markers are ignored.
func Boundary(buf string, markers ...string) int {
	first := -1
	for _, m := range markers {
		if m == "" {
			continue
		}
		if idx := strings.Index(buf, m); idx >= 0 && (first < 0 || idx < first) {
			first = idx
		}
	}
	return first
}

// TurnBoundary returns where a generated bot turn ends in buf: at the end
// marker, or where the model starts writing the human's next turn, whichever
// comes first.
func TurnBoundary(buf string, conf modelconf.Configuration) int {
	return Boundary(buf, conf.TokenEnd, conf.TokenHuman)
}

// TruncateAtEnd cuts raw at the earliest of the given markers. The boolean
// reports whether a marker was found.
func TruncateAtEnd(raw string, markers ...string) (string, bool) {
	idx := Boundary(raw, markers...)
	if idx < 0 {
		return raw, false
	}
	return raw[:idx], true
}

// HeldBack returns the length of the longest suffix of buf that is a proper
// prefix of any of the markers. That many trailing bytes may still turn out to
// be the start of a marker once more text arrives, so they must not be shown
// yet.
func HeldBack(buf string, markers ...string) int {
	held := 0
	for _, m := range markers {
		n := min(len(m)-1, len(buf))
		for ; n > held; n-- {
			if strings.HasSuffix(buf, m[:n]) {
				held = n
				break
			}
		}
	}
	return held
}

// TurnHeldBack is HeldBack over the markers that end a bot turn.
func TurnHeldBack(buf string, conf modelconf.Configuration) int {
	return HeldBack(buf, conf.TokenEnd, conf.TokenHuman)
}
