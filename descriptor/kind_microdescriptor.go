package descriptor

import (
	"github.com/trinity-1686a/collector/index"
	"github.com/trinity-1686a/collector/internal/digest"
)

// Microdescriptor is the decoded form of a single microdescriptor (spec
// §4.3): its onion key certificate, ntor key, optional family and exit
// policy summaries, any embedded ed25519 identities, and the SHA-256 digest
// of its raw encoded form (the value consensuses reference it by).
type Microdescriptor struct {
	OnionKeyCert string
	NtorOnionKey string
	Family       []string // optional
	Policy       *Policy  // from "p", optional
	IPv6Policy   *Policy  // from "p6", optional
	IDs          map[string]string // multi("id"), kind -> key
	Digest       digest.Digest
}

// Kind implements Descriptor.
func (*Microdescriptor) Kind() index.Type { return index.Microdescriptor }

func parseMicrodescriptor(body string, _, _ int) ([]Descriptor, error) {
	lines, err := ParseBody(body)
	if err != nil {
		return nil, err
	}
	g := Group(lines)
	d := &Microdescriptor{Digest: digest.Sum([]byte(body))}

	cert, err := g.Cert("onion-key")
	if err != nil {
		return nil, err
	}
	d.OnionKeyCert = cert

	ntor, err := g.Uniq("ntor-onion-key")
	if err != nil {
		return nil, err
	}
	if len(ntor.Values) < 1 {
		return nil, malformed("ntor-onion-key missing value")
	}
	d.NtorOnionKey = ntor.Values[0]

	if fam, err := g.Opt("family"); err != nil {
		return nil, err
	} else if fam != nil {
		d.Family = fam.Values
	}

	if p, err := g.Opt("p"); err != nil {
		return nil, err
	} else if p != nil {
		if len(p.Values) < 2 {
			return nil, malformed("p line requires verb and ports")
		}
		pol, err := parsePolicyVerb(p.Values[0], p.Values[1])
		if err != nil {
			return nil, err
		}
		d.Policy = &pol
	}

	if p6, err := g.Opt("p6"); err != nil {
		return nil, err
	} else if p6 != nil {
		if len(p6.Values) < 2 {
			return nil, malformed("p6 line requires verb and ports")
		}
		pol, err := parsePolicyVerb(p6.Values[0], p6.Values[1])
		if err != nil {
			return nil, err
		}
		d.IPv6Policy = &pol
	}

	for _, l := range g.Multi("id") {
		if len(l.Values) < 2 {
			return nil, malformed("id line requires type and value")
		}
		if d.IDs == nil {
			d.IDs = make(map[string]string)
		}
		d.IDs[l.Values[0]] = l.Values[1]
	}

	return []Descriptor{d}, nil
}
