package descriptor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/trinity-1686a/collector/index"
)

// Descriptor is the tagged union over every decodable kind. Each concrete
// type in this package implements it; callers type-switch on the
// concrete type (the idiomatic Go substitute for a closed sum type) or
// call Kind for a cheap dispatch key.
type Descriptor interface {
	// Kind returns the descriptor's type tag.
	Kind() index.Type
}

// versionWindow is a parser's accepted [min,max] (major,minor) range,
// inclusive, per spec §4.3's table.
type versionWindow struct {
	minMajor, minMinor int
	maxMajor, maxMinor int
}

func (w versionWindow) accepts(major, minor int) bool {
	if major < w.minMajor || major > w.maxMajor {
		return false
	}
	if major == w.minMajor && minor < w.minMinor {
		return false
	}
	if major == w.maxMajor && minor > w.maxMinor {
		return false
	}
	return true
}

// windows holds every parser's accepted-version table, per spec §4.3.
var windows = map[index.Type]versionWindow{
	index.BridgePoolAssignment:   {1, 0, 1, 0},
	index.ServerDescriptor:       {1, 0, 1, 0},
	index.BridgeServerDescriptor: {1, 0, 1, 2},
	index.BridgeExtraInfo:        {1, 0, 1, 3},
	index.BridgeNetworkStatus:    {1, 0, 1, 2},
	index.BridgestrapStats:       {1, 0, 1, 0},
	index.Microdescriptor:        {1, 0, 1, 0},
}

// kindParser decodes a body (sans its already-consumed "@type" header line)
// into one or more Descriptors.
type kindParser func(body string, major, minor int) ([]Descriptor, error)

var parsers = map[index.Type]kindParser{
	index.BridgePoolAssignment:   parseBridgePoolAssignment,
	index.ServerDescriptor:       parseServerDescriptorBody,
	index.BridgeServerDescriptor: parseBridgeServerDescriptorBody,
	index.BridgeExtraInfo:        parseBridgeExtraInfo,
	index.BridgeNetworkStatus:    parseBridgeNetworkStatus,
	index.BridgestrapStats:       parseBridgestrapStats,
	index.Microdescriptor:        parseMicrodescriptor,
}

// Decode reads a single descriptor body (as yielded by a FileReader; spec
// §4.1/§4.5) and routes it to the appropriate kind parser by its "@type"
// header line.
//
// A recognized Type with no registered parser, or a Type outside its
// parser's accepted-version window, yields an "unsupported" *ParseError.
func Decode(body string) ([]Descriptor, error) {
	header, rest, ok := strings.Cut(body, "\n")
	if !ok {
		return nil, malformed("descriptor body has no header line")
	}
	fields := strings.Fields(header)
	if len(fields) != 3 || fields[0] != "@type" {
		return nil, malformed(fmt.Sprintf("malformed @type header line %q", header))
	}
	typeName, version := fields[1], fields[2]
	major, minor, err := splitVersion(version)
	if err != nil {
		return nil, malformed(err.Error())
	}
	t := index.ParseType(typeName)

	parse, ok := parsers[t]
	if !ok {
		return nil, unsupported(fmt.Sprintf("no parser registered for type %q", typeName))
	}
	if w, ok := windows[t]; ok && !w.accepts(major, minor) {
		return nil, unsupported(fmt.Sprintf("%s %d.%d outside accepted version window", typeName, major, minor))
	}
	return parse(rest, major, minor)
}

func splitVersion(v string) (major, minor int, err error) {
	parts := strings.SplitN(v, ".", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed version %q", v)
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed version %q: %w", v, err)
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed version %q: %w", v, err)
	}
	return major, minor, nil
}
