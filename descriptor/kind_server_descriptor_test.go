package descriptor

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/trinity-1686a/collector/test"
)

func bridgeServerDescriptorBody() string {
	return "@type bridge-server-descriptor 1.2\n" +
		"router Unnamed 10.0.0.1 9001 0 0\n" +
		"published 2022-02-20 10:00:00\n" +
		"platform Tor 0.4.7.10 on Linux\n" +
		"fingerprint AAAA BBBB CCCC\n" +
		"uptime 12345\n" +
		"bandwidth 1000 2000 500\n" +
		"extra-info-digest DEADBEEF\n" +
		"ntor-onion-key abcd==\n" +
		"reject *:*\n"
}

func TestDecodeBridgeServerDescriptor(t *testing.T) {
	got, err := Decode(bridgeServerDescriptorBody())
	if err != nil {
		t.Fatal(err)
	}
	bsd, ok := got[0].(*BridgeServerDescriptor)
	if !ok {
		t.Fatalf("got %T, want *BridgeServerDescriptor", got[0])
	}

	want := &BridgeServerDescriptor{ServerDescriptorCommon: ServerDescriptorCommon{
		Name:                      "Unnamed",
		IPv4:                      "10.0.0.1",
		ORPort:                    "9001",
		RouterRest:                []string{"0", "0"},
		Published:                 time.Date(2022, 2, 20, 10, 0, 0, 0, time.UTC),
		Platform:                  "Tor 0.4.7.10 on Linux",
		Fingerprint:               "AAAABBBBCCCC",
		Uptime:                    12345,
		BandwidthAvg:              1000,
		BandwidthBurst:            2000,
		BandwidthObs:              500,
		ExtraInfoDigest:           "DEADBEEF",
		NtorOnionKey:              "abcd==",
		BridgeDistributionRequest: "any",
		IPv6Policy:                defaultIPv6Policy,
		ExitPolicy:                []Policy{{Accept: false, Ports: "*:*"}},
	}}
	if diff := cmp.Diff(want, bsd, test.CmpOptions); diff != "" {
		t.Errorf("decoded bridge-server-descriptor mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeServerDescriptorWithCerts(t *testing.T) {
	body := "@type server-descriptor 1.0\n" +
		"router relay 10.0.0.2 9001 0 0\n" +
		"published 2022-02-20 10:00:00\n" +
		"platform Tor 0.4.7.10 on Linux\n" +
		"fingerprint AAAA BBBB CCCC\n" +
		"uptime 1\n" +
		"bandwidth 1 2 3\n" +
		"extra-info-digest DEADBEEF\n" +
		"ntor-onion-key abcd==\n" +
		"identity-ed25519\n" +
		"-----BEGIN ED25519 CERT-----\n" +
		"ZZZZ\n" +
		"-----END ED25519 CERT-----\n" +
		"onion-key\n" +
		"-----BEGIN RSA PUBLIC KEY-----\n" +
		"AAAA\n" +
		"-----END RSA PUBLIC KEY-----\n" +
		"signing-key\n" +
		"-----BEGIN RSA PUBLIC KEY-----\n" +
		"BBBB\n" +
		"-----END RSA PUBLIC KEY-----\n" +
		"onion-key-crosscert\n" +
		"-----BEGIN CROSSCERT-----\n" +
		"CCCC\n" +
		"-----END CROSSCERT-----\n" +
		"ntor-onion-key-crosscert 1\n" +
		"-----BEGIN ED25519 CERT-----\n" +
		"DDDD\n" +
		"-----END ED25519 CERT-----\n" +
		"router-signature\n" +
		"-----BEGIN SIGNATURE-----\n" +
		"EEEE\n" +
		"-----END SIGNATURE-----\n"

	got, err := Decode(body)
	if err != nil {
		t.Fatal(err)
	}
	sd, ok := got[0].(*ServerDescriptor)
	if !ok {
		t.Fatalf("got %T, want *ServerDescriptor", got[0])
	}
	if sd.NtorOnionKeyCrosscertSuffix != 1 {
		t.Errorf("got sign bit %d, want 1", sd.NtorOnionKeyCrosscertSuffix)
	}
	if sd.OnionKeyCert == "" || sd.SigningKeyCert == "" || sd.RouterSignatureCert == "" || sd.IdentityEd25519Cert == "" {
		t.Error("expected all certificate blocks to be populated")
	}
}

func TestDecodeServerDescriptorMissingCertIsMalformed(t *testing.T) {
	body := "@type server-descriptor 1.0\n" +
		"router relay 10.0.0.2 9001 0 0\n" +
		"published 2022-02-20 10:00:00\n" +
		"platform Tor 0.4.7.10 on Linux\n" +
		"fingerprint AAAA\n" +
		"uptime 1\n" +
		"bandwidth 1 2 3\n" +
		"extra-info-digest DEADBEEF\n" +
		"ntor-onion-key abcd==\n"
	if _, err := Decode(body); err == nil {
		t.Fatal("expected an error for missing required certificate lines")
	}
}

func TestParsePolicyVerb(t *testing.T) {
	if p, err := parsePolicyVerb("accept", "80,443"); err != nil || !p.Accept || p.Ports != "80,443" {
		t.Errorf("got %+v, %v; want Accept Ports=80,443", p, err)
	}
	if p, err := parsePolicyVerb("reject", "*:*"); err != nil || p.Accept || p.Ports != "*:*" {
		t.Errorf("got %+v, %v; want Reject Ports=*:*", p, err)
	}
	if _, err := parsePolicyVerb("maybe", "1"); err == nil {
		t.Error("expected an error for an unknown policy verb")
	}
}
