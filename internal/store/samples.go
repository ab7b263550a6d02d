package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oashraff/sysmon-ai/internal/model"
)

// InsertBatch writes samples in one transaction (spec §4.C: the batch
// writer commits a whole drained queue batch atomically or not at all).
// Duplicate (host, ts) rows from a retried batch are replaced rather
// than rejected, since retries on ErrStoreBusy may resend an already
// partially-committed batch.
func (s *Store) InsertBatch(ctx context.Context, samples []model.Sample) error {
	if len(samples) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO samples (ts, host, cpu_pct, mem_pct, disk_read_bps,
				disk_write_bps, net_up_bps, net_down_bps, swap_pct,
				proc_count, cpu_temp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(host, ts) DO UPDATE SET
				cpu_pct = excluded.cpu_pct,
				mem_pct = excluded.mem_pct,
				disk_read_bps = excluded.disk_read_bps,
				disk_write_bps = excluded.disk_write_bps,
				net_up_bps = excluded.net_up_bps,
				net_down_bps = excluded.net_down_bps,
				swap_pct = excluded.swap_pct,
				proc_count = excluded.proc_count,
				cpu_temp = excluded.cpu_temp
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, smp := range samples {
			var temp any
			if smp.CPUTemp != nil {
				temp = *smp.CPUTemp
			}
			if _, err := stmt.ExecContext(ctx, smp.Ts, smp.Host, smp.CPUPct, smp.MemPct,
				smp.DiskReadBps, smp.DiskWriteBps, smp.NetUpBps, smp.NetDownBps,
				smp.SwapPct, smp.ProcCount, temp); err != nil {
				return err
			}
		}
		return nil
	})
}

// Window returns samples for host with ts in [from, to], ordered by ts
// ascending.
func (s *Store) Window(ctx context.Context, host string, from, to int64) ([]model.Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, host, cpu_pct, mem_pct, disk_read_bps, disk_write_bps,
			net_up_bps, net_down_bps, swap_pct, proc_count, cpu_temp
		FROM samples WHERE host = ? AND ts BETWEEN ? AND ?
		ORDER BY ts ASC
	`, host, from, to)
	if err != nil {
		return nil, fmt.Errorf("store: query window: %w", classifyErr(err))
	}
	defer rows.Close()
	return scanSamples(rows)
}

// LatestN returns the most recent n samples for host, oldest first.
func (s *Store) LatestN(ctx context.Context, host string, n int) ([]model.Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, host, cpu_pct, mem_pct, disk_read_bps, disk_write_bps,
			net_up_bps, net_down_bps, swap_pct, proc_count, cpu_temp
		FROM samples WHERE host = ?
		ORDER BY ts DESC LIMIT ?
	`, host, n)
	if err != nil {
		return nil, fmt.Errorf("store: query latest: %w", classifyErr(err))
	}
	defer rows.Close()
	out, err := scanSamples(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Count returns the number of stored samples for host.
func (s *Store) Count(ctx context.Context, host string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM samples WHERE host = ?`, host).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: count samples: %w", classifyErr(err))
	}
	return n, nil
}

func scanSamples(rows *sql.Rows) ([]model.Sample, error) {
	var out []model.Sample
	for rows.Next() {
		var smp model.Sample
		var temp sql.NullFloat64
		if err := rows.Scan(&smp.Ts, &smp.Host, &smp.CPUPct, &smp.MemPct,
			&smp.DiskReadBps, &smp.DiskWriteBps, &smp.NetUpBps, &smp.NetDownBps,
			&smp.SwapPct, &smp.ProcCount, &temp); err != nil {
			return nil, fmt.Errorf("store: scan sample: %w", err)
		}
		if temp.Valid {
			v := temp.Float64
			smp.CPUTemp = &v
		}
		out = append(out, smp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate samples: %w", err)
	}
	return out, nil
}
