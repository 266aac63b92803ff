package descriptor

import (
	"strconv"

	"github.com/trinity-1686a/collector/index"
)

// BridgestrapStats is one reachability test result decoded from a
// bridgestrap-stats body: whether the tested bridge was found reachable,
// and its fingerprint (spec §4.3).
type BridgestrapStats struct {
	IsReachable bool
	Fingerprint string
}

// Kind implements Descriptor.
func (*BridgestrapStats) Kind() index.Type { return index.BridgestrapStats }

func parseBridgestrapStats(body string, _, _ int) ([]Descriptor, error) {
	lines, err := ParseBody(body)
	if err != nil {
		return nil, err
	}
	if len(lines) < 1 {
		return nil, malformed("empty bridgestrap-stats body")
	}

	out := make([]Descriptor, 0, len(lines)-1)
	for _, l := range lines[1:] {
		if len(l.Values) < 2 {
			return nil, malformed("bridgestrap-stats entry requires a bool and a fingerprint")
		}
		reachable, err := strconv.ParseBool(l.Values[0])
		if err != nil {
			return nil, malformed("bridgestrap-stats: malformed bool: " + err.Error())
		}
		out = append(out, &BridgestrapStats{IsReachable: reachable, Fingerprint: l.Values[1]})
	}
	if len(out) == 0 {
		return nil, malformed("bridgestrap-stats body contains no entries")
	}
	return out, nil
}
