package descriptor

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/trinity-1686a/collector/index"
)

// Policy is a single exit or directory policy entry: Accept(ports) or
// Reject(ports), per the glossary.
type Policy struct {
	Accept bool
	Ports  string
}

func (p Policy) String() string {
	verb := "reject"
	if p.Accept {
		verb = "accept"
	}
	return verb + " " + p.Ports
}

// defaultIPv6Policy is the default when no "ipv6-policy" line is present,
// per spec §4.3.
var defaultIPv6Policy = Policy{Accept: false, Ports: "1-65535"}

// OverloadGeneral is the decoded "overload-general" line.
type OverloadGeneral struct {
	Version string
	Day     string
	Hour    string
}

// ServerDescriptorCommon holds the fields shared by ServerDescriptor and
// BridgeServerDescriptor, per spec §4.3: the two kinds differ only in
// whether embedded router certificates are present.
type ServerDescriptorCommon struct {
	Name   string
	IPv4   string
	ORPort string
	// RouterRest holds any router-line values beyond name/ipv4/or-port
	// (e.g. a legacy SOCKS port and directory port).
	RouterRest []string

	Published       time.Time
	Platform        string
	Fingerprint     string
	Uptime          int64
	BandwidthAvg    int64
	BandwidthBurst  int64
	BandwidthObs    int64
	ExtraInfoDigest string
	NtorOnionKey    string

	ORAddress *netip.AddrPort // optional

	MasterKeyEd25519          string // optional
	Proto                     map[string]string
	HiddenServiceDir          bool
	Contact                   string // optional
	BridgeDistributionRequest string // default "any"
	TunnelledDirServer        bool
	OverloadGeneral           *OverloadGeneral // optional
	IPv6Policy                Policy
	ExitPolicy                []Policy
}

// ServerDescriptor is the decoded form of a "server-descriptor" (spec
// §4.3): ServerDescriptorCommon plus the embedded router certificates that
// bridges omit.
type ServerDescriptor struct {
	ServerDescriptorCommon

	IdentityEd25519Cert  string
	OnionKeyCert         string
	SigningKeyCert       string
	OnionKeyCrosscertCert string
	RouterSignatureCert  string

	// NtorOnionKeyCrosscertSuffix is the numeric suffix found on the
	// "ntor-onion-key-crosscert" line (a sign bit), and
	// NtorOnionKeyCrosscertCert its attached certificate block.
	NtorOnionKeyCrosscertSuffix int
	NtorOnionKeyCrosscertCert   string
}

// Kind implements Descriptor.
func (*ServerDescriptor) Kind() index.Type { return index.ServerDescriptor }

// BridgeServerDescriptor is the decoded form of a "bridge-server-descriptor"
// (spec §4.3).
type BridgeServerDescriptor struct {
	ServerDescriptorCommon
}

// Kind implements Descriptor.
func (*BridgeServerDescriptor) Kind() index.Type { return index.BridgeServerDescriptor }

func parseServerDescriptorCommon(g Lines) (ServerDescriptorCommon, error) {
	var c ServerDescriptorCommon

	router, rest, err := g.UniqValues("router", 3)
	if err != nil {
		return c, err
	}
	c.Name, c.IPv4, c.ORPort = router[0], router[1], router[2]
	c.RouterRest = rest

	pub, err := g.Uniq("published")
	if err != nil {
		return c, err
	}
	if len(pub.Values) < 2 {
		return c, malformed("published line missing date/time")
	}
	ts, err := time.Parse("2006-01-02 15:04:05", pub.Values[0]+" "+pub.Values[1])
	if err != nil {
		return c, malformed("published: malformed timestamp: " + err.Error())
	}
	c.Published = ts

	platform, err := g.Uniq("platform")
	if err != nil {
		return c, err
	}
	c.Platform = strings.Join(platform.Values, " ")

	fp, err := g.Uniq("fingerprint")
	if err != nil {
		return c, err
	}
	c.Fingerprint = strings.Join(fp.Values, "")

	uptime, err := g.Uniq("uptime")
	if err != nil {
		return c, err
	}
	if len(uptime.Values) < 1 {
		return c, malformed("uptime line missing value")
	}
	n, err := strconv.ParseInt(uptime.Values[0], 10, 64)
	if err != nil {
		return c, malformed("uptime: " + err.Error())
	}
	c.Uptime = n

	bw, err := g.Uniq("bandwidth")
	if err != nil {
		return c, err
	}
	if len(bw.Values) < 3 {
		return c, malformed("bandwidth line requires 3 values")
	}
	for i, dst := range []*int64{&c.BandwidthAvg, &c.BandwidthBurst, &c.BandwidthObs} {
		v, err := strconv.ParseInt(bw.Values[i], 10, 64)
		if err != nil {
			return c, malformed("bandwidth: " + err.Error())
		}
		*dst = v
	}

	eid, err := g.Uniq("extra-info-digest")
	if err != nil {
		return c, err
	}
	c.ExtraInfoDigest = strings.Join(eid.Values, " ")

	ntor, err := g.Uniq("ntor-onion-key")
	if err != nil {
		return c, err
	}
	if len(ntor.Values) < 1 {
		return c, malformed("ntor-onion-key line missing value")
	}
	c.NtorOnionKey = ntor.Values[0]

	if orAddrValues, _, ok, err := g.OptValues("or-address", 1); err != nil {
		return c, err
	} else if ok {
		ap, err := netip.ParseAddrPort(orAddrValues[0])
		if err != nil {
			return c, malformed("or-address: " + err.Error())
		}
		c.ORAddress = &ap
	}

	if mk, err := g.Opt("master-key-ed25519"); err != nil {
		return c, err
	} else if mk != nil && len(mk.Values) > 0 {
		c.MasterKeyEd25519 = mk.Values[0]
	}

	if proto, err := g.Opt("proto"); err != nil {
		return c, err
	} else if proto != nil {
		c.Proto = make(map[string]string, len(proto.Values))
		for _, kv := range proto.Values {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return c, malformed("proto: malformed key=value pair " + kv)
			}
			c.Proto[k] = v
		}
	}

	if hsd, err := g.Opt("hidden-service-dir"); err != nil {
		return c, err
	} else {
		c.HiddenServiceDir = hsd != nil
	}

	if contact, err := g.Opt("contact"); err != nil {
		return c, err
	} else if contact != nil {
		c.Contact = strings.Join(contact.Values, " ")
	}

	c.BridgeDistributionRequest = "any"
	if bdr, err := g.Opt("bridge-distribution-request"); err != nil {
		return c, err
	} else if bdr != nil && len(bdr.Values) > 0 {
		c.BridgeDistributionRequest = bdr.Values[0]
	}

	if tds, err := g.Opt("tunnelled-dir-server"); err != nil {
		return c, err
	} else {
		c.TunnelledDirServer = tds != nil
	}

	if og, err := g.Opt("overload-general"); err != nil {
		return c, err
	} else if og != nil {
		if len(og.Values) < 3 {
			return c, malformed("overload-general requires 3 values")
		}
		c.OverloadGeneral = &OverloadGeneral{Version: og.Values[0], Day: og.Values[1], Hour: og.Values[2]}
	}

	c.IPv6Policy = defaultIPv6Policy
	if ip6, err := g.Opt("ipv6-policy"); err != nil {
		return c, err
	} else if ip6 != nil {
		if len(ip6.Values) < 2 {
			return c, malformed("ipv6-policy requires verb and ports")
		}
		p, err := parsePolicyVerb(ip6.Values[0], ip6.Values[1])
		if err != nil {
			return c, err
		}
		c.IPv6Policy = p
	}

	for _, l := range g.Multi("accept", "reject") {
		if len(l.Values) < 1 {
			return c, malformed(l.Name + " line missing ports")
		}
		p, err := parsePolicyVerb(l.Name, l.Values[0])
		if err != nil {
			return c, err
		}
		c.ExitPolicy = append(c.ExitPolicy, p)
	}

	return c, nil
}

func parsePolicyVerb(verb, ports string) (Policy, error) {
	switch verb {
	case "accept":
		return Policy{Accept: true, Ports: ports}, nil
	case "reject":
		return Policy{Accept: false, Ports: ports}, nil
	default:
		return Policy{}, malformed(fmt.Sprintf("unknown policy verb %q", verb))
	}
}

func parseServerDescriptorBody(body string, _, _ int) ([]Descriptor, error) {
	lines, err := ParseBody(body)
	if err != nil {
		return nil, err
	}
	g := Group(lines)

	common, err := parseServerDescriptorCommon(g)
	if err != nil {
		return nil, err
	}

	d := &ServerDescriptor{ServerDescriptorCommon: common}

	if c, err := g.Cert("identity-ed25519"); err != nil {
		return nil, err
	} else {
		d.IdentityEd25519Cert = c
	}
	if c, err := g.Cert("onion-key"); err != nil {
		return nil, err
	} else {
		d.OnionKeyCert = c
	}
	if c, err := g.Cert("signing-key"); err != nil {
		return nil, err
	} else {
		d.SigningKeyCert = c
	}
	if c, err := g.Cert("onion-key-crosscert"); err != nil {
		return nil, err
	} else {
		d.OnionKeyCrosscertCert = c
	}
	if c, err := g.Cert("router-signature"); err != nil {
		return nil, err
	} else {
		d.RouterSignatureCert = c
	}

	if l, err := g.Uniq("ntor-onion-key-crosscert"); err != nil {
		return nil, err
	} else {
		if len(l.Values) < 1 {
			return nil, malformed("ntor-onion-key-crosscert missing sign-bit suffix")
		}
		n, err := strconv.Atoi(l.Values[0])
		if err != nil {
			return nil, malformed("ntor-onion-key-crosscert: " + err.Error())
		}
		d.NtorOnionKeyCrosscertSuffix = n
		d.NtorOnionKeyCrosscertCert = l.Cert
	}

	return []Descriptor{d}, nil
}

func parseBridgeServerDescriptorBody(body string, _, _ int) ([]Descriptor, error) {
	lines, err := ParseBody(body)
	if err != nil {
		return nil, err
	}
	g := Group(lines)

	common, err := parseServerDescriptorCommon(g)
	if err != nil {
		return nil, err
	}
	return []Descriptor{&BridgeServerDescriptor{ServerDescriptorCommon: common}}, nil
}
