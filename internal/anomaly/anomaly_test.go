package anomaly

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/oashraff/sysmon-ai/internal/model"
	"github.com/oashraff/sysmon-ai/internal/sysmonerr"
)

func nominalSamples(n int, seed int64) []model.Sample {
	rng := rand.New(rand.NewSource(seed))
	out := make([]model.Sample, n)
	for i := 0; i < n; i++ {
		out[i] = model.Sample{
			Ts: int64(1000 + i), Host: "h1",
			CPUPct: 20 + rng.Float64()*5, MemPct: 40 + rng.Float64()*5,
			DiskReadBps: 1000 + rng.Float64()*100, DiskWriteBps: 500 + rng.Float64()*50,
			NetUpBps: 200 + rng.Float64()*20, NetDownBps: 400 + rng.Float64()*40,
			SwapPct: rng.Float64(), ProcCount: int64(100 + rng.Intn(5)),
		}
	}
	return out
}

func withSpikes(samples []model.Sample, frac float64, seed int64) []model.Sample {
	rng := rand.New(rand.NewSource(seed))
	out := make([]model.Sample, len(samples))
	copy(out, samples)
	for i := range out {
		if rng.Float64() < frac {
			out[i].CPUPct = 95 + rng.Float64()*5
		}
	}
	return out
}

func TestTrainRejectsShortBaseline(t *testing.T) {
	_, err := Train(nominalSamples(50, 1), DefaultConfig(), time.Unix(0, 0))
	if err == nil {
		t.Fatal("expected error for short baseline")
	}
	if !errors.Is(err, sysmonerr.ErrNotEnoughData) {
		t.Fatalf("expected ErrNotEnoughData, got %v", err)
	}
}

func TestTrainAndDetectRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	baseline := nominalSamples(1500, 7)

	rec, err := Train(baseline, cfg, time.Unix(1000, 0))
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if rec.Name != ModelName {
		t.Fatalf("unexpected model name %q", rec.Name)
	}

	test := withSpikes(nominalSamples(500, 99), 0.05, 123)
	events, err := Detect(test, rec, cfg)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("expected at least one anomaly event on spiked test data")
	}
	for _, ev := range events {
		if ev.Score == nil || *ev.Score <= 0 {
			t.Fatalf("expected positive score, got %+v", ev)
		}
		if len(ev.MetricTags) == 0 {
			t.Fatalf("expected metric tags on event %+v", ev)
		}
	}
}

func TestDetectWithoutModelFails(t *testing.T) {
	_, err := Detect(nominalSamples(50, 1), model.ModelRecord{}, DefaultConfig())
	if !errors.Is(err, sysmonerr.ErrModelNotTrained) {
		t.Fatalf("expected ErrModelNotTrained, got %v", err)
	}
}

func TestDetectStaleColumnsFails(t *testing.T) {
	cfg := DefaultConfig()
	rec, err := Train(nominalSamples(1500, 7), cfg, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	tm, err := unmarshalModel(rec.Blob)
	if err != nil {
		t.Fatalf("unmarshalModel: %v", err)
	}
	tm.Columns = append(tm.Columns, "bogus_column")
	blob, err := marshalModel(tm)
	if err != nil {
		t.Fatalf("marshalModel: %v", err)
	}
	rec.Blob = blob

	_, err = Detect(nominalSamples(500, 1), rec, DefaultConfig())
	if !errors.Is(err, sysmonerr.ErrModelStale) {
		t.Fatalf("expected ErrModelStale, got %v", err)
	}
}

func TestCalibrateThresholdMeetsTargetFPR(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	scores := make([]float64, 1000)
	for i := range scores {
		scores[i] = rng.Float64()
	}
	threshold := calibrateThreshold(scores, 0.05)
	fpr := measuredFPR(scores, threshold)
	if fpr > 0.05*1.5 {
		t.Fatalf("measured FPR %v exceeds 1.5x target", fpr)
	}
}
