package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/brensch/tronio/game"
	"github.com/brensch/tronio/world"
)

const SchemaTickTrace = "tick_trace_v1"

// TickRow is one broadcast delta of a recorded round.
//
// Rows of a round are self-contained: the grid options are repeated on every
// row so a round can be replayed from any file without side tables.
type TickRow struct {
	MatchID     string      `parquet:"match_id,dict"`
	Round       int32       `parquet:"round"`
	Tick        int64       `parquet:"tick"`
	Hash        uint64      `parquet:"hash"`
	Size        string      `parquet:"size,dict"`
	Teams       int32       `parquet:"teams"`
	Players     int32       `parquet:"players"`
	Projectiles bool        `parquet:"projectiles"`
	Updates     []UpdateRow `parquet:"updates"`
	Source      string      `parquet:"source,dict"`
}

type UpdateRow struct {
	ID    int32 `parquet:"id"`
	DirX  int32 `parquet:"dir_x"`
	DirY  int32 `parquet:"dir_y"`
	Boost bool  `parquet:"boost"`
}

// RowsFromRound flattens a finished round into rows.
func RowsFromRound(r world.RoundTrace, source string) []TickRow {
	rows := make([]TickRow, 0, len(r.Deltas))
	for _, d := range r.Deltas {
		row := TickRow{
			MatchID:     r.MatchID,
			Round:       int32(r.Round),
			Tick:        int64(d.Tick),
			Hash:        d.Hash,
			Size:        r.Options.Size.String(),
			Teams:       int32(r.Options.Teams),
			Players:     int32(r.Options.Players),
			Projectiles: r.Options.Projectiles,
			Source:      source,
		}
		for _, u := range d.Updates {
			row.Updates = append(row.Updates, UpdateRow{
				ID:    int32(u.ID),
				DirX:  int32(u.Dir.X),
				DirY:  int32(u.Dir.Y),
				Boost: u.Boost,
			})
		}
		rows = append(rows, row)
	}
	return rows
}

// Options recovers the grid options a row was recorded with.
func (r TickRow) Options() (game.GridOptions, error) {
	size, err := game.ParseGridSize(r.Size)
	if err != nil {
		return game.GridOptions{}, err
	}
	return game.GridOptions{
		Size:        size,
		Teams:       uint8(r.Teams),
		Players:     uint8(r.Players),
		Projectiles: r.Projectiles,
	}, nil
}

// Delta rebuilds the broadcast delta a row was recorded from.
func (r TickRow) Delta() game.GridUpdateMsg {
	msg := game.GridUpdateMsg{Tick: uint32(r.Tick), Hash: r.Hash}
	for _, u := range r.Updates {
		msg.Updates = append(msg.Updates, game.BikeUpdate{
			ID:    uint8(u.ID),
			Dir:   game.Point{X: int16(u.DirX), Y: int16(u.DirY)},
			Boost: u.Boost,
		})
	}
	return msg
}

// WriteTraceAtomic writes rows to a new file under outDir, going through
// outDir/tmp so readers never see a partial file.
// The returned path is the final parquet file path.
func WriteTraceAtomic(outDir string, rows []TickRow) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("trace_%d.parquet", time.Now().UnixNano())
	finalPath := filepath.Join(outDir, name)
	tmpPath := filepath.Join(tmpDir, name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", SchemaTickTrace),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}

	return finalPath, nil
}

func ReadTrace(path string) ([]TickRow, error) {
	rows, err := parquet.ReadFile[TickRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}

// RoundKey identifies one round inside a trace file.
type RoundKey struct {
	MatchID string
	Round   int32
}

// GroupRounds splits rows by round, keeping file order within each round.
func GroupRounds(rows []TickRow) ([]RoundKey, map[RoundKey][]TickRow) {
	var keys []RoundKey
	groups := make(map[RoundKey][]TickRow)
	for _, r := range rows {
		k := RoundKey{MatchID: r.MatchID, Round: r.Round}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], r)
	}
	return keys, groups
}
