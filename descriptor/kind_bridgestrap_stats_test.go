package descriptor

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/trinity-1686a/collector/test"
)

func TestDecodeBridgestrapStats(t *testing.T) {
	body := "@type bridgestrap-stats 1.0\n" +
		"bridgestrap-stats-end 2022-02-20 10:00:00 (86400 s)\n" +
		"bridgestrap-test true AAAABBBBCCCC\n" +
		"bridgestrap-test false DDDDEEEEFFFF\n"

	got, err := Decode(body)
	if err != nil {
		t.Fatal(err)
	}
	want := []Descriptor{
		&BridgestrapStats{IsReachable: true, Fingerprint: "AAAABBBBCCCC"},
		&BridgestrapStats{IsReachable: false, Fingerprint: "DDDDEEEEFFFF"},
	}
	if diff := cmp.Diff(want, got, test.CmpOptions); diff != "" {
		t.Errorf("decoded bridgestrap-stats mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeBridgestrapStatsNoEntries(t *testing.T) {
	body := "@type bridgestrap-stats 1.0\n" +
		"bridgestrap-stats-end 2022-02-20 10:00:00 (86400 s)\n"
	if _, err := Decode(body); err == nil {
		t.Fatal("expected an error when no entries follow the header")
	}
}

func TestDecodeBridgestrapStatsMalformedBool(t *testing.T) {
	body := "@type bridgestrap-stats 1.0\n" +
		"bridgestrap-stats-end 2022-02-20 10:00:00 (86400 s)\n" +
		"bridgestrap-test maybe AAAA\n"
	if _, err := Decode(body); err == nil {
		t.Fatal("expected an error for a non-boolean reachability value")
	}
}
