package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/oashraff/sysmon-ai/internal/model"
)

func sampleFixture() []model.Sample {
	temp := 55.5
	return []model.Sample{
		{Ts: 1000, Host: "h1", CPUPct: 10.5, MemPct: 40, ProcCount: 120, CPUTemp: &temp},
		{Ts: 1010, Host: "h1", CPUPct: 11.2, MemPct: 41, ProcCount: 121},
	}
}

func TestWriteCSVHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleFixture()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	r := csv.NewReader(strings.NewReader(buf.String()))
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "ts" || rows[0][len(rows[0])-1] != "cpu_temp" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][len(rows[1])-1] != "55.5" {
		t.Fatalf("expected cpu_temp 55.5, got %q", rows[1][len(rows[1])-1])
	}
	if rows[2][len(rows[2])-1] != "" {
		t.Fatalf("expected empty cpu_temp for absent sensor, got %q", rows[2][len(rows[2])-1])
	}
}

func TestWriteJSONIsArrayOfObjects(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleFixture()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var out []model.Sample
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 2 || out[0].Ts != 1000 || out[1].Ts != 1010 {
		t.Fatalf("unexpected decoded samples: %+v", out)
	}
	if out[0].CPUTemp == nil || *out[0].CPUTemp != 55.5 {
		t.Fatalf("expected cpu_temp 55.5, got %v", out[0].CPUTemp)
	}
	if out[1].CPUTemp != nil {
		t.Fatalf("expected nil cpu_temp for second sample, got %v", *out[1].CPUTemp)
	}
}
