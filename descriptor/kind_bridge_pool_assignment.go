package descriptor

import (
	"strings"
	"time"

	"github.com/trinity-1686a/collector/index"
)

// BridgePoolAssignment is the decoded form of a "bridge-pool-assignment"
// descriptor (spec §4.3): a snapshot timestamp plus, for each bridge
// fingerprint, which distribution pool it was assigned to and any
// additional key=value parameters recorded for it.
type BridgePoolAssignment struct {
	Timestamp time.Time
	// Data maps lowercase fingerprint to its pool assignment.
	Data map[string]BridgePoolEntry
}

// BridgePoolEntry is one bridge's assignment within a BridgePoolAssignment.
type BridgePoolEntry struct {
	Pool   string
	Params map[string]string
}

// Kind implements Descriptor.
func (*BridgePoolAssignment) Kind() index.Type { return index.BridgePoolAssignment }

const bridgePoolTimeLayout = "2006-01-02 15:04:05"

func parseBridgePoolAssignment(body string, _, _ int) ([]Descriptor, error) {
	lines, err := ParseBody(body)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, malformed("empty bridge-pool-assignment body")
	}
	header := lines[0]
	if header.Name != "bridge-pool-assignment" {
		return nil, malformed("missing bridge-pool-assignment header line")
	}
	if len(header.Values) < 2 {
		return nil, malformed("bridge-pool-assignment header missing date/time")
	}
	ts, err := time.Parse(bridgePoolTimeLayout, header.Values[0]+" "+header.Values[1])
	if err != nil {
		return nil, malformed("bridge-pool-assignment: malformed timestamp: " + err.Error())
	}

	data := make(map[string]BridgePoolEntry, len(lines)-1)
	for _, l := range lines[1:] {
		if len(l.Values) < 1 {
			return nil, malformed("bridge-pool-assignment entry missing pool")
		}
		fp := strings.ToLower(l.Name)
		params := make(map[string]string, len(l.Values)-1)
		for _, kv := range l.Values[1:] {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return nil, malformed("bridge-pool-assignment: malformed key=value pair " + kv)
			}
			params[k] = v
		}
		data[fp] = BridgePoolEntry{Pool: l.Values[0], Params: params}
	}

	return []Descriptor{&BridgePoolAssignment{Timestamp: ts, Data: data}}, nil
}
