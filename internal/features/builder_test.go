package features

import (
	"reflect"
	"testing"

	"github.com/oashraff/sysmon-ai/internal/model"
)

func makeSamples(n int) []model.Sample {
	out := make([]model.Sample, n)
	for i := 0; i < n; i++ {
		out[i] = model.Sample{
			Ts: int64(1000 + i), Host: "h1",
			CPUPct: float64(i), MemPct: float64(50 + i%10),
			DiskReadBps: float64(i * 100), DiskWriteBps: float64(i * 50),
			NetUpBps: float64(i * 10), NetDownBps: float64(i * 20),
			SwapPct: 1, ProcCount: int64(100 + i),
		}
	}
	return out
}

func TestBuildRejectsInsufficientData(t *testing.T) {
	_, err := Build(makeSamples(10), 5, 30)
	if err == nil {
		t.Fatal("expected error for too few samples")
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	samples := makeSamples(50)
	m1, err := Build(samples, 5, 30)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	m2, err := Build(samples, 5, 30)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !reflect.DeepEqual(m1.Columns, m2.Columns) {
		t.Fatal("columns differ across identical runs")
	}
	if !reflect.DeepEqual(m1.Rows, m2.Rows) {
		t.Fatal("rows differ across identical runs")
	}
	if !reflect.DeepEqual(m1.Ts, m2.Ts) {
		t.Fatal("timestamps differ across identical runs")
	}
}

func TestBuildProducesOneRowPerEligibleTick(t *testing.T) {
	samples := makeSamples(50)
	m, err := Build(samples, 5, 30)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	wantRows := 50 - (30 + 5 - 1)
	if len(m.Rows) != wantRows {
		t.Fatalf("rows = %d, want %d", len(m.Rows), wantRows)
	}
	if len(m.Ts) != wantRows {
		t.Fatalf("ts count = %d, want %d", len(m.Ts), wantRows)
	}
	for _, row := range m.Rows {
		if len(row) != len(m.Columns) {
			t.Fatalf("row width %d != column count %d", len(row), len(m.Columns))
		}
	}
}

func TestBuildIncludesBurstinessOnlyForIOMetrics(t *testing.T) {
	samples := makeSamples(50)
	m, err := Build(samples, 5, 30)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	hasBurst := map[string]bool{}
	for _, c := range m.Columns {
		for _, metric := range model.IOMetrics {
			if c == metric+"_burstiness" {
				hasBurst[metric] = true
			}
		}
	}
	for _, metric := range model.IOMetrics {
		if !hasBurst[metric] {
			t.Fatalf("expected burstiness column for %s", metric)
		}
	}
	for _, c := range m.Columns {
		if c == "cpu_pct_burstiness" {
			t.Fatal("cpu_pct is not an I/O metric and should have no burstiness column")
		}
	}
}

func TestScalerZeroVarianceColumnNormalizesToZero(t *testing.T) {
	s := Fit([]string{"a"}, [][]float64{{5}, {5}, {5}})
	if s.Std[0] != 1 || s.Mean[0] != 0 {
		t.Fatalf("expected zero-variance column mean=0,std=1, got mean=%v std=%v", s.Mean[0], s.Std[0])
	}
	out := s.Transform([]float64{5})
	if out[0] != 5 {
		t.Fatalf("expected raw deviation from zero mean, got %v", out[0])
	}
}

func TestImputeMissingUsesMedian(t *testing.T) {
	t1, t2 := 10.0, 30.0
	samples := []model.Sample{
		{Ts: 1, CPUTemp: &t1},
		{Ts: 2, CPUTemp: nil},
		{Ts: 3, CPUTemp: &t2},
	}
	out := imputeMissing(samples)
	if *out[1].CPUTemp != 20 {
		t.Fatalf("expected median impute 20, got %v", *out[1].CPUTemp)
	}
}
