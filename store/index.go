package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
)

// RoundSummary is one recorded round as listed by TraceIndex.
type RoundSummary struct {
	MatchID     string `json:"match_id"`
	Round       int32  `json:"round"`
	Ticks       int64  `json:"ticks"`
	LastTick    int64  `json:"last_tick"`
	LastHash    string `json:"last_hash"`
	Size        string `json:"size"`
	Teams       int32  `json:"teams"`
	Players     int32  `json:"players"`
	Projectiles bool   `json:"projectiles"`
	File        string `json:"file"`
}

// TraceIndex answers queries over a directory of trace files through an
// in-memory DuckDB view. The view is rebuilt at most once per refresh period
// so newly flushed files show up.
type TraceIndex struct {
	dir     string
	refresh time.Duration

	mu       sync.Mutex
	db       *sql.DB
	loadedAt time.Time
}

func NewTraceIndex(dir string, refresh time.Duration) *TraceIndex {
	return &TraceIndex{dir: dir, refresh: refresh}
}

func (x *TraceIndex) get() (*sql.DB, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.db != nil && time.Since(x.loadedAt) < x.refresh {
		return x.db, nil
	}
	db, err := openTraceView(x.dir)
	if err != nil {
		return nil, err
	}
	if x.db != nil {
		_ = x.db.Close()
	}
	x.db = db
	x.loadedAt = time.Now()
	return db, nil
}

func openTraceView(dir string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	files, _ := filepath.Glob(filepath.Join(dir, "*.parquet"))
	var view string
	if len(files) == 0 {
		view = `CREATE OR REPLACE VIEW ticks AS
			SELECT * FROM (
				SELECT
					NULL::VARCHAR AS match_id,
					NULL::INTEGER AS round,
					NULL::BIGINT AS tick,
					NULL::UBIGINT AS hash,
					NULL::VARCHAR AS size,
					NULL::INTEGER AS teams,
					NULL::INTEGER AS players,
					NULL::BOOLEAN AS projectiles,
					NULL::VARCHAR AS filename
			) WHERE 1=0`
	} else {
		glob := "'" + strings.ReplaceAll(filepath.Join(dir, "*.parquet"), "'", "''") + "'"
		view = `CREATE OR REPLACE VIEW ticks AS
			SELECT * FROM read_parquet(` + glob + `, filename=true)`
	}
	if _, err := db.Exec(view); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create view: %w", err)
	}
	return db, nil
}

// Rounds lists recorded rounds, newest match first. limit <= 0 means all.
func (x *TraceIndex) Rounds(ctx context.Context, limit int) ([]RoundSummary, error) {
	db, err := x.get()
	if err != nil {
		return nil, err
	}

	q := `SELECT match_id, round, COUNT(*) AS ticks, MAX(tick) AS last_tick,
			arg_max(hash, tick) AS last_hash,
			any_value(size), any_value(teams), any_value(players), any_value(projectiles),
			any_value(filename)
		FROM ticks
		GROUP BY match_id, round
		ORDER BY any_value(filename) DESC, match_id, round`
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	var out []RoundSummary
	for rows.Next() {
		var (
			r    RoundSummary
			hash uint64
			file string
		)
		if err := rows.Scan(&r.MatchID, &r.Round, &r.Ticks, &r.LastTick, &hash,
			&r.Size, &r.Teams, &r.Players, &r.Projectiles, &file); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		r.LastHash = fmt.Sprintf("%016x", hash)
		r.File = filepath.Base(file)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (x *TraceIndex) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.db == nil {
		return nil
	}
	err := x.db.Close()
	x.db = nil
	return err
}
