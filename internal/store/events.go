package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oashraff/sysmon-ai/internal/model"
)

// InsertEvent persists an anomaly, forecast-breach, or threshold Event
// and returns it with its assigned ID.
func (s *Store) InsertEvent(ctx context.Context, ev model.Event) (model.Event, error) {
	var score any
	if ev.Score != nil {
		score = *ev.Score
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO events (ts, type, score, metric_tags, explanation)
		VALUES (?, ?, ?, ?, ?)
	`, ev.Ts, string(ev.Type), score, ev.TagsString(), ev.Explanation)
	if err != nil {
		return ev, fmt.Errorf("store: insert event: %w", classifyErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ev, fmt.Errorf("store: event last insert id: %w", err)
	}
	ev.ID = id
	return ev, nil
}

// EventsWindow returns events with ts in [from, to], newest first,
// optionally filtered by type (empty string matches all types).
func (s *Store) EventsWindow(ctx context.Context, typ model.EventType, from, to int64) ([]model.Event, error) {
	query := `SELECT id, ts, type, score, metric_tags, explanation FROM events WHERE ts BETWEEN ? AND ?`
	args := []any{from, to}
	if typ != "" {
		query += ` AND type = ?`
		args = append(args, string(typ))
	}
	query += ` ORDER BY ts DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query events: %w", classifyErr(err))
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var ev model.Event
		var typStr, tags string
		var score sql.NullFloat64
		if err := rows.Scan(&ev.ID, &ev.Ts, &typStr, &score, &tags, &ev.Explanation); err != nil {
			return nil, fmt.Errorf("store: scan event: %w", err)
		}
		ev.Type = model.EventType(typStr)
		ev.MetricTags = model.ParseTags(tags)
		if score.Valid {
			v := score.Float64
			ev.Score = &v
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate events: %w", err)
	}
	return out, nil
}
