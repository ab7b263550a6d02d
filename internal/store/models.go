package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/oashraff/sysmon-ai/internal/model"
	"github.com/oashraff/sysmon-ai/internal/sysmonerr"
)

// SaveModel atomically replaces the Model Record named rec.Name. A
// single UPSERT is already atomic in SQLite; this wrapper exists so
// callers never observe a partially written blob (the previous model
// stays current until the new row commits).
func (s *Store) SaveModel(ctx context.Context, rec model.ModelRecord) error {
	metaJSON, err := json.Marshal(rec.Meta)
	if err != nil {
		return fmt.Errorf("store: marshal model meta: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO models (name, algo, version, trained_at, meta_json, blob)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			algo = excluded.algo,
			version = excluded.version,
			trained_at = excluded.trained_at,
			meta_json = excluded.meta_json,
			blob = excluded.blob
	`, rec.Name, string(rec.Algo), rec.Version, rec.TrainedAt, string(metaJSON), rec.Blob)
	if err != nil {
		return fmt.Errorf("store: save model %q: %w", rec.Name, classifyErr(err))
	}
	return nil
}

// LoadModel reads the current Model Record for name. Returns
// sysmonerr.ErrModelNotTrained if no model has been saved under that
// name yet.
func (s *Store) LoadModel(ctx context.Context, name string) (model.ModelRecord, error) {
	var rec model.ModelRecord
	var algo, metaJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT name, algo, version, trained_at, meta_json, blob FROM models WHERE name = ?
	`, name).Scan(&rec.Name, &algo, &rec.Version, &rec.TrainedAt, &metaJSON, &rec.Blob)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ModelRecord{}, sysmonerr.ErrModelNotTrained
	}
	if err != nil {
		return model.ModelRecord{}, fmt.Errorf("store: load model %q: %w", name, classifyErr(err))
	}
	rec.Algo = model.AlgoKind(algo)
	if err := json.Unmarshal([]byte(metaJSON), &rec.Meta); err != nil {
		return model.ModelRecord{}, fmt.Errorf("store: unmarshal model meta: %w", err)
	}
	return rec, nil
}

// CompatibleWithCurrentFeatures checks a loaded Model Record's semver
// version against the feature builder's current column-set version: a
// differing major component means the column schema changed underneath
// the model (columns added, removed, or reordered) and it must be
// retrained rather than scored against, per spec §4.F ("a trained
// model whose feature columns no longer match current output is
// stale"). Minor/patch differences (e.g. a tuning change that doesn't
// alter column shape) remain compatible.
func CompatibleWithCurrentFeatures(modelVersion, currentFeatureVersion string) bool {
	mMajor, ok1 := semverMajor(modelVersion)
	cMajor, ok2 := semverMajor(currentFeatureVersion)
	return ok1 && ok2 && mMajor == cMajor
}

func semverMajor(v string) (int, bool) {
	v = strings.TrimPrefix(v, "v")
	parts := strings.SplitN(v, ".", 2)
	if len(parts) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	return n, true
}
