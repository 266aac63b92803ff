// Package index models the CollecTor archive manifest: the closed set of
// descriptor kinds, the flattened File listing, and the time-range / type
// selection and deduplication algorithms used to pick concrete files for a
// query.
package index

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is a descriptor kind. It's a closed enumeration of the kinds
// CollecTor is known to produce, plus an open Unknown variant so that a
// manifest listing a kind introduced after this module was built can still
// be represented (and selected/filtered on) without a parser existing yet.
type Type struct {
	name    string
	unknown bool
}

// The closed set of recognized kinds.
var (
	BridgePoolAssignment             = Type{name: "bridge-pool-assignment"}
	BridgeExtraInfo                  = Type{name: "bridge-extra-info"}
	BridgeServerDescriptor           = Type{name: "bridge-server-descriptor"}
	BridgeNetworkStatus              = Type{name: "bridge-network-status"}
	BridgestrapStats                 = Type{name: "bridgestrap-stats"}
	Microdescriptor                  = Type{name: "microdescriptor"}
	ServerDescriptor                 = Type{name: "server-descriptor"}
	ExtraInfo                        = Type{name: "extra-info"}
	NetworkStatusConsensus3          = Type{name: "network-status-consensus-3"}
	NetworkStatusMicrodescConsensus3 = Type{name: "network-status-microdesc-consensus-3"}
	NetworkStatusVote3               = Type{name: "network-status-vote-3"}
	DirKeyCertificate3               = Type{name: "dir-key-certificate-3"}
	TorDNSEL                         = Type{name: "tordnsel"}
	TorperfResult                    = Type{name: "torperf"}
	BandwidthFile                    = Type{name: "bandwidth-file"}
	SnowflakeStats                   = Type{name: "snowflake-stats"}
	Webstats                         = Type{name: "webstats"}
	RelayDescriptor                  = Type{name: "relay-descriptor"}
)

// knownTypes backs ParseType's lookup and Type's canonical string form.
var knownTypes = []Type{
	BridgePoolAssignment, BridgeExtraInfo, BridgeServerDescriptor,
	BridgeNetworkStatus, BridgestrapStats, Microdescriptor, ServerDescriptor,
	ExtraInfo, NetworkStatusConsensus3, NetworkStatusMicrodescConsensus3,
	NetworkStatusVote3, DirKeyCertificate3, TorDNSEL, TorperfResult,
	BandwidthFile, SnowflakeStats, Webstats, RelayDescriptor,
}

// ParseType maps a manifest's canonical string form to a Type, falling back
// to Unknown(name) for anything not in the closed set.
func ParseType(name string) Type {
	for _, t := range knownTypes {
		if t.name == name {
			return t
		}
	}
	return Type{name: name, unknown: true}
}

// String returns the canonical string form, e.g. "bridge-pool-assignment".
func (t Type) String() string { return t.name }

// Unknown reports whether this Type fell outside the closed enumeration.
func (t Type) Unknown() bool { return t.unknown }

// UnknownName returns the raw name for an Unknown Type, or "" otherwise.
// Named distinctly from String so call sites that only want to handle the
// forward-compatibility case don't have to re-derive it.
func (t Type) UnknownName() string {
	if !t.unknown {
		return ""
	}
	return t.name
}

// VersionedType pairs a Type with a (major, minor) version, as found
// attached to a File entry and in a descriptor body's "@type" header line.
type VersionedType struct {
	Type       Type
	Major, Minor int
}

// String renders "<type-name> <major>.<minor>".
func (v VersionedType) String() string {
	return fmt.Sprintf("%s %d.%d", v.Type, v.Major, v.Minor)
}

// ParseVersionedType parses the "<type-name> <major>.<minor>" form used both
// in the manifest's "version" field (paired with "ttype") and in a
// descriptor body's "@type" header line.
func ParseVersionedType(typeName, version string) (VersionedType, error) {
	major, minor, err := parseVersion(version)
	if err != nil {
		return VersionedType{}, err
	}
	return VersionedType{Type: ParseType(typeName), Major: major, Minor: minor}, nil
}

func parseVersion(version string) (major, minor int, err error) {
	parts := strings.SplitN(version, ".", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("index: malformed version %q", version)
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("index: malformed version %q: %w", version, err)
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("index: malformed version %q: %w", version, err)
	}
	return major, minor, nil
}
