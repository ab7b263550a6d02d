package model

import (
	"strings"
	"testing"
)

func TestSampleValue(t *testing.T) {
	temp := 55.5
	s := Sample{CPUPct: 12.5, MemPct: 40, ProcCount: 200, CPUTemp: &temp}

	v, ok := s.Value("cpu_pct")
	if !ok || v != 12.5 {
		t.Fatalf("cpu_pct = %v, %v", v, ok)
	}
	v, ok = s.Value("proc_count")
	if !ok || v != 200 {
		t.Fatalf("proc_count = %v, %v", v, ok)
	}
	v, ok = s.Value("cpu_temp")
	if !ok || v != 55.5 {
		t.Fatalf("cpu_temp = %v, %v", v, ok)
	}
	if _, ok := s.Value("nonsense"); ok {
		t.Fatal("expected unknown metric to report absent")
	}
}

func TestSampleValueAbsentTemp(t *testing.T) {
	s := Sample{}
	if _, ok := s.Value("cpu_temp"); ok {
		t.Fatal("expected absent cpu_temp to report not-ok")
	}
}

func TestNewEventDedupAndTruncate(t *testing.T) {
	score := 3.2
	long := strings.Repeat("x", 600)
	e := NewEvent(100, EventAnomaly, &score, []string{"cpu_pct", "mem_pct", "cpu_pct"}, long)

	if len(e.MetricTags) != 2 {
		t.Fatalf("expected deduplicated tags, got %v", e.MetricTags)
	}
	if len(e.Explanation) != maxExplanationLen {
		t.Fatalf("expected explanation truncated to %d, got %d", maxExplanationLen, len(e.Explanation))
	}
}

func TestEventTagsRoundTrip(t *testing.T) {
	e := NewEvent(1, EventThreshold, nil, []string{"cpu_pct", "swap_pct"}, "breach")
	joined := e.TagsString()
	back := ParseTags(joined)
	if len(back) != 2 || back[0] != "cpu_pct" || back[1] != "swap_pct" {
		t.Fatalf("round trip failed: %v", back)
	}
	if ParseTags("") != nil {
		t.Fatal("expected empty string to parse to nil")
	}
}
