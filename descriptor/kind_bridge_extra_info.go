package descriptor

import (
	"strconv"
	"strings"
	"time"

	"github.com/trinity-1686a/collector/index"
)

// History is a decoded bandwidth-history line ("{read,write,...}-history"):
// an interval end time, interval width in seconds, and the per-interval byte
// counts, per spec §4.3.
type History struct {
	End      time.Time
	Interval int64
	Values   []int64
}

// StatsInterval is a decoded "*-stats-end" line: the interval's end time and
// width in seconds.
type StatsInterval struct {
	End      time.Time
	Interval int64
}

// BridgeExtraInfo is the decoded form of a "bridge-extra-info" descriptor
// (spec §4.3).
type BridgeExtraInfo struct {
	Nickname          string
	Fingerprint       string
	Published         time.Time
	RouterDigestSHA256 string
	RouterDigest      string

	MasterKeyEd25519 string // optional

	Transport []string

	ReadHistory        *History
	WriteHistory       *History
	DirreqReadHistory  *History
	DirreqWriteHistory *History
	IPv6ReadHistory    *History
	IPv6WriteHistory   *History

	GeoIPDBDigest  string // optional
	GeoIP6DBDigest string // optional

	DirreqStatsEnd   *StatsInterval
	HidservStatsEnd  *StatsInterval
	HidservV3StatsEnd *StatsInterval
	BridgeStatsEnd   *StatsInterval

	DirreqV3IPs         map[string]int64
	DirreqV3Reqs        map[string]int64
	DirreqV3Resp        map[string]int64
	DirreqV3DirectDL    map[string]int64
	DirreqV3TunneledDL  map[string]int64
	BridgeIPs           map[string]int64
	BridgeIPVersions    map[string]int64
	BridgeIPTransports  map[string]int64

	HidservRendRelayedCells     int64
	HidservRendOnionsSeen       int64
	HidservDirRelayedCells      int64
	HidservDirOnionsSeen        int64
	HidservDirV3RelayedCells    int64
	HidservDirV3OnionsSeen      int64

	PaddingCounts map[string]int64
}

// Kind implements Descriptor.
func (*BridgeExtraInfo) Kind() index.Type { return index.BridgeExtraInfo }

func parseBridgeExtraInfo(body string, _, _ int) ([]Descriptor, error) {
	lines, err := ParseBody(body)
	if err != nil {
		return nil, err
	}
	g := Group(lines)
	d := &BridgeExtraInfo{}

	ei, rest, err := g.UniqValues("extra-info", 1)
	if err != nil {
		return nil, err
	}
	d.Nickname = ei[0]
	if len(rest) > 0 {
		d.Fingerprint = rest[0]
	}

	pub, err := g.Uniq("published")
	if err != nil {
		return nil, err
	}
	if len(pub.Values) < 2 {
		return nil, malformed("published line missing date/time")
	}
	ts, err := time.Parse("2006-01-02 15:04:05", pub.Values[0]+" "+pub.Values[1])
	if err != nil {
		return nil, malformed("published: " + err.Error())
	}
	d.Published = ts

	rds, err := g.Uniq("router-digest-sha256")
	if err != nil {
		return nil, err
	}
	if len(rds.Values) < 1 {
		return nil, malformed("router-digest-sha256 missing value")
	}
	d.RouterDigestSHA256 = rds.Values[0]

	rd, err := g.Uniq("router-digest")
	if err != nil {
		return nil, err
	}
	if len(rd.Values) < 1 {
		return nil, malformed("router-digest missing value")
	}
	d.RouterDigest = rd.Values[0]

	if mk, err := g.Opt("master-key-ed25519"); err != nil {
		return nil, err
	} else if mk != nil && len(mk.Values) > 0 {
		d.MasterKeyEd25519 = mk.Values[0]
	}

	for _, l := range g.Multi("transport") {
		if len(l.Values) < 1 {
			return nil, malformed("transport line missing name")
		}
		d.Transport = append(d.Transport, l.Values[0])
	}

	histories := []struct {
		key string
		dst **History
	}{
		{"read-history", &d.ReadHistory},
		{"write-history", &d.WriteHistory},
		{"dirreq-read-history", &d.DirreqReadHistory},
		{"dirreq-write-history", &d.DirreqWriteHistory},
		{"ipv6-read-history", &d.IPv6ReadHistory},
		{"ipv6-write-history", &d.IPv6WriteHistory},
	}
	for _, h := range histories {
		l, err := g.Opt(h.key)
		if err != nil {
			return nil, err
		}
		if l == nil {
			continue
		}
		hist, err := parseHistory(l)
		if err != nil {
			return nil, err
		}
		*h.dst = hist
	}

	if l, err := g.Opt("geoip-db-digest"); err != nil {
		return nil, err
	} else if l != nil && len(l.Values) > 0 {
		d.GeoIPDBDigest = l.Values[0]
	}
	if l, err := g.Opt("geoip6-db-digest"); err != nil {
		return nil, err
	} else if l != nil && len(l.Values) > 0 {
		d.GeoIP6DBDigest = l.Values[0]
	}

	intervals := []struct {
		key string
		dst **StatsInterval
	}{
		{"dirreq-stats-end", &d.DirreqStatsEnd},
		{"hidserv-stats-end", &d.HidservStatsEnd},
		{"hidserv-v3-stats-end", &d.HidservV3StatsEnd},
		{"bridge-stats-end", &d.BridgeStatsEnd},
	}
	for _, iv := range intervals {
		l, err := g.Opt(iv.key)
		if err != nil {
			return nil, err
		}
		if l == nil {
			continue
		}
		si, err := parseStatsInterval(l)
		if err != nil {
			return nil, err
		}
		*iv.dst = si
	}

	kvMaps := []struct {
		key string
		dst *map[string]int64
	}{
		{"dirreq-v3-ips", &d.DirreqV3IPs},
		{"dirreq-v3-reqs", &d.DirreqV3Reqs},
		{"dirreq-v3-resp", &d.DirreqV3Resp},
		{"dirreq-v3-direct-dl", &d.DirreqV3DirectDL},
		{"dirreq-v3-tunneled-dl", &d.DirreqV3TunneledDL},
		{"bridge-ips", &d.BridgeIPs},
		{"bridge-ip-versions", &d.BridgeIPVersions},
		{"bridge-ip-transports", &d.BridgeIPTransports},
		{"padding-counts", &d.PaddingCounts},
	}
	for _, m := range kvMaps {
		l, err := g.Opt(m.key)
		if err != nil {
			return nil, err
		}
		if l == nil {
			continue
		}
		parsed, err := parseCountMap(l)
		if err != nil {
			return nil, err
		}
		*m.dst = parsed
	}

	counters := []struct {
		key string
		dst *int64
	}{
		{"hidserv-rend-relayed-cells", &d.HidservRendRelayedCells},
		{"hidserv-rend-onions-seen", &d.HidservRendOnionsSeen},
		{"hidserv-dir-relayed-cells", &d.HidservDirRelayedCells},
		{"hidserv-dir-onions-seen", &d.HidservDirOnionsSeen},
		{"hidserv-dir-v3-relayed-cells", &d.HidservDirV3RelayedCells},
		{"hidserv-dir-v3-onions-seen", &d.HidservDirV3OnionsSeen},
	}
	for _, c := range counters {
		l, err := g.Opt(c.key)
		if err != nil {
			return nil, err
		}
		if l == nil || len(l.Values) < 1 {
			continue
		}
		n, err := strconv.ParseInt(l.Values[0], 10, 64)
		if err != nil {
			return nil, malformed(c.key + ": " + err.Error())
		}
		*c.dst = n
	}

	return []Descriptor{d}, nil
}

// parseHistory decodes a "*-history" line of the form
// "<end-date> <end-time> (<interval>s) v1,v2,v3,...".
func parseHistory(l *Line) (*History, error) {
	if len(l.Values) < 3 {
		return nil, malformed(l.Name + ": expected end date/time and interval")
	}
	end, err := time.Parse("2006-01-02 15:04:05", l.Values[0]+" "+l.Values[1])
	if err != nil {
		return nil, malformed(l.Name + ": " + err.Error())
	}
	intervalField := strings.Trim(l.Values[2], "()")
	intervalField = strings.TrimSuffix(intervalField, "s")
	interval, err := strconv.ParseInt(intervalField, 10, 64)
	if err != nil {
		return nil, malformed(l.Name + ": malformed interval: " + err.Error())
	}
	h := &History{End: end, Interval: interval}
	if len(l.Values) > 3 {
		for _, raw := range strings.Split(l.Values[3], ",") {
			if raw == "" {
				continue
			}
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, malformed(l.Name + ": malformed value " + raw)
			}
			h.Values = append(h.Values, v)
		}
	}
	return h, nil
}

// parseStatsInterval decodes a "*-stats-end" line of the form
// "<end-date> <end-time> (<interval>s)".
func parseStatsInterval(l *Line) (*StatsInterval, error) {
	if len(l.Values) < 3 {
		return nil, malformed(l.Name + ": expected end date/time and interval")
	}
	end, err := time.Parse("2006-01-02 15:04:05", l.Values[0]+" "+l.Values[1])
	if err != nil {
		return nil, malformed(l.Name + ": " + err.Error())
	}
	intervalField := strings.Trim(l.Values[2], "()")
	intervalField = strings.TrimSuffix(intervalField, "s")
	interval, err := strconv.ParseInt(intervalField, 10, 64)
	if err != nil {
		return nil, malformed(l.Name + ": malformed interval: " + err.Error())
	}
	return &StatsInterval{End: end, Interval: interval}, nil
}

// parseCountMap decodes a comma-separated "key=value,key=value,..." line
// into a map, used by the dirreq/bridge-ip/padding-counts families.
func parseCountMap(l *Line) (map[string]int64, error) {
	out := make(map[string]int64, len(l.Values))
	for _, field := range l.Values {
		for _, kv := range strings.Split(field, ",") {
			if kv == "" {
				continue
			}
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return nil, malformed(l.Name + ": malformed key=value pair " + kv)
			}
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, malformed(l.Name + ": " + err.Error())
			}
			out[k] = n
		}
	}
	return out, nil
}

// SanitizeCountryCounts subtracts the fixed offset of 4 from every
// country-keyed count, clamping at zero, mirroring the upstream geoip
// sanitizer's unexplained "c - 4" adjustment applied before publication. It
// is exposed for callers that want it, but is never applied implicitly by
// the parser: the parser decodes exactly what the file contains.
func SanitizeCountryCounts(counts map[string]int64) map[string]int64 {
	const offset = 4
	out := make(map[string]int64, len(counts))
	for k, v := range counts {
		v -= offset
		if v < 0 {
			v = 0
		}
		out[k] = v
	}
	return out
}
