package descriptor

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/trinity-1686a/collector/test"
)

func TestDecodeBridgeNetworkStatusMultipleRecords(t *testing.T) {
	body := "@type bridge-network-status 1.2\n" +
		"published 2022-02-20 10:00:00\n" +
		"r Unnamed AAAA BBBB 2022-02-20 09:00:00 10.0.0.1 9001 0\n" +
		"a [2001:db8::1]:9001\n" +
		"s Running Stable Valid\n" +
		"w Bandwidth=100\n" +
		"p reject 1-65535\n" +
		"r Second CCCC DDDD 2022-02-20 09:05:00 10.0.0.2 9002 9003\n" +
		"s Running\n"

	got, err := Decode(body)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}

	want0 := &NetworkStatus{
		Nickname:    "Unnamed",
		Identity:    "AAAA",
		Digest:      "BBBB",
		Published:   "2022-02-20 09:00:00",
		IP:          "10.0.0.1",
		ORPort:      "9001",
		DirPort:     "0",
		Addresses:   []string{"[2001:db8::1]:9001"},
		Flags:       []string{"Running", "Stable", "Valid"},
		Bandwidth:   map[string]int64{"Bandwidth": 100},
		PortsPolicy: "reject 1-65535",
	}
	if diff := cmp.Diff(want0, got[0], test.CmpOptions); diff != "" {
		t.Errorf("first record mismatch (-want +got):\n%s", diff)
	}

	want1 := &NetworkStatus{
		Nickname:  "Second",
		Identity:  "CCCC",
		Digest:    "DDDD",
		Published: "2022-02-20 09:05:00",
		IP:        "10.0.0.2",
		ORPort:    "9002",
		DirPort:   "9003",
		Flags:     []string{"Running"},
	}
	if diff := cmp.Diff(want1, got[1], test.CmpOptions); diff != "" {
		t.Errorf("second record mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeBridgeNetworkStatusOrphanLine(t *testing.T) {
	body := "@type bridge-network-status 1.2\n" +
		"s Running\n"
	if _, err := Decode(body); err == nil {
		t.Fatal("expected an error for an s line with no preceding r line")
	}
}

func TestDecodeBridgeNetworkStatusEmpty(t *testing.T) {
	body := "@type bridge-network-status 1.2\n" +
		"published 2022-02-20 10:00:00\n"
	if _, err := Decode(body); err == nil {
		t.Fatal("expected an error when no routerstatus entries are present")
	}
}

func TestDecodeBridgeNetworkStatusUnknownPrefix(t *testing.T) {
	body := "@type bridge-network-status 1.2\n" +
		"published 2022-02-20 10:00:00\n" +
		"r Unnamed AAAA BBBB 2022-02-20 09:00:00 10.0.0.1 9001 0\n" +
		"s Running\n" +
		"bandwidth-weights Wbd=0\n"
	if _, err := Decode(body); err == nil {
		t.Fatal("expected an error for an unrecognized line prefix")
	}
}
