package platform

import "testing"

func TestParseSelfStat(t *testing.T) {
	// Minimal realistic /proc/self/stat line; fields after "comm)" are
	// space separated starting at state (index 0 in the tail slice).
	line := "1234 (sysmon-agentd) S 1 1234 1234 0 -1 4194304 100 0 0 0 " +
		"500 300 0 0 20 0 4 0 1000 209715200 4096 18446744073709551615 " +
		"1 1 0 0 0 0 0 0 0 0 0 0 17 2 0 0 0 0 0"
	got, err := parseSelfStat(line)
	if err != nil {
		t.Fatalf("parseSelfStat: %v", err)
	}
	if got.UserTicks != 500 || got.SystemTicks != 300 {
		t.Fatalf("got %+v", got)
	}
	if got.RSSBytes != 4096*4096 {
		t.Fatalf("rss bytes = %v, want %v", got.RSSBytes, 4096*4096)
	}
}

func TestParseSelfStatMalformed(t *testing.T) {
	if _, err := parseSelfStat("no parens here"); err == nil {
		t.Fatal("expected error for malformed stat line")
	}
}
