// Package export writes a window of Samples to CSV or JSON, in schema
// column order (spec §6.5). Grounded on the teacher's internal/output
// package (encoding/json with indentation, writing to stdout or a file),
// generalized from a single Report document to a stream of Sample rows.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/oashraff/sysmon-ai/internal/model"
)

// columns is the fixed export column order, matching the samples table.
var columns = []string{
	"ts", "host", "cpu_pct", "mem_pct", "disk_read_bps", "disk_write_bps",
	"net_up_bps", "net_down_bps", "swap_pct", "proc_count", "cpu_temp",
}

// WriteCSV writes samples as CSV with a header row, column order matching
// the schema.
func WriteCSV(w io.Writer, samples []model.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("export: write csv header: %w", err)
	}
	for _, s := range samples {
		row := []string{
			strconv.FormatInt(s.Ts, 10),
			s.Host,
			strconv.FormatFloat(s.CPUPct, 'f', -1, 64),
			strconv.FormatFloat(s.MemPct, 'f', -1, 64),
			strconv.FormatFloat(s.DiskReadBps, 'f', -1, 64),
			strconv.FormatFloat(s.DiskWriteBps, 'f', -1, 64),
			strconv.FormatFloat(s.NetUpBps, 'f', -1, 64),
			strconv.FormatFloat(s.NetDownBps, 'f', -1, 64),
			strconv.FormatFloat(s.SwapPct, 'f', -1, 64),
			strconv.FormatInt(s.ProcCount, 10),
			"",
		}
		if s.CPUTemp != nil {
			row[10] = strconv.FormatFloat(*s.CPUTemp, 'f', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes samples as a JSON array of objects, field order
// following the Sample struct's json tags.
func WriteJSON(w io.Writer, samples []model.Sample) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(samples); err != nil {
		return fmt.Errorf("export: encode json: %w", err)
	}
	return nil
}
