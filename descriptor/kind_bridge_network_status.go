package descriptor

import (
	"strings"

	"github.com/trinity-1686a/collector/index"
)

// NetworkStatus is one routerstatus entry decoded from a bridge network
// status document, assembled from its "r"/"a"/"s"/"w"/"p" lines (spec §4.3).
type NetworkStatus struct {
	Nickname    string
	Identity    string
	Digest      string
	Published   string // date + time, kept verbatim per spec's worked examples
	IP          string
	ORPort      string
	DirPort     string
	Addresses   []string
	Flags       []string
	Bandwidth   map[string]int64
	PortsPolicy string
}

// Kind implements Descriptor.
func (*NetworkStatus) Kind() index.Type { return index.BridgeNetworkStatus }

type networkStatusBuilder struct {
	cur *NetworkStatus
	out []Descriptor
}

func (b *networkStatusBuilder) commit() {
	if b.cur != nil {
		b.out = append(b.out, b.cur)
		b.cur = nil
	}
}

func parseBridgeNetworkStatus(body string, _, _ int) ([]Descriptor, error) {
	lines, err := ParseBody(body)
	if err != nil {
		return nil, err
	}

	b := &networkStatusBuilder{}
	for _, l := range lines {
		switch l.Name {
		case "r":
			b.commit()
			if len(l.Values) < 6 {
				return nil, malformed("r line requires at least 6 values")
			}
			b.cur = &NetworkStatus{
				Nickname:  l.Values[0],
				Identity:  l.Values[1],
				Digest:    l.Values[2],
				Published: l.Values[3] + " " + l.Values[4],
				IP:        l.Values[5],
			}
			if len(l.Values) > 6 {
				b.cur.ORPort = l.Values[6]
			}
			if len(l.Values) > 7 {
				b.cur.DirPort = l.Values[7]
			}
		case "a":
			if b.cur == nil {
				return nil, malformed("a line before r line")
			}
			if len(l.Values) < 1 {
				return nil, malformed("a line missing address")
			}
			b.cur.Addresses = append(b.cur.Addresses, l.Values[0])
		case "s":
			if b.cur == nil {
				return nil, malformed("s line before r line")
			}
			b.cur.Flags = append(b.cur.Flags, l.Values...)
		case "w":
			if b.cur == nil {
				return nil, malformed("w line before r line")
			}
			bw, err := parseCountMap(&l)
			if err != nil {
				return nil, err
			}
			b.cur.Bandwidth = bw
		case "p":
			if b.cur == nil {
				return nil, malformed("p line before r line")
			}
			b.cur.PortsPolicy = strings.Join(l.Values, " ")
		case "published", "flag-thresholds":
			// document-level header lines, carry no per-entry state.
		default:
			return nil, malformed("unknown bridge-network-status line prefix " + l.Name)
		}
	}
	b.commit()

	if len(b.out) == 0 {
		return nil, malformed("bridge-network-status body contains no routerstatus entries")
	}
	return b.out, nil
}
