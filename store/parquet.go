// Package store persists engine decisions as zstd-compressed Parquet files.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/finlayhlannon/Solo-snake/engine"
	"github.com/finlayhlannon/Solo-snake/game"
)

const schemaName = "decision_row_v1"

var fileSeq atomic.Uint64

// batchName is unique within the process even when two files are opened in
// the same nanosecond.
func batchName() string {
	return fmt.Sprintf("decisions_%d_%d.parquet", time.Now().UnixNano(), fileSeq.Add(1))
}

// Sources of decision rows.
const (
	SourceServer   = "server"
	SourceSelfPlay = "selfplay"
	SourceReplay   = "replay"
)

// DecisionRow is one engine decision for one snake on one turn.
//
// Move and Played use the 0=Up, 1=Down, 2=Left, 3=Right encoding. Played is
// the move the snake actually made, or -1 when unknown. Value is the game
// outcome from this snake's perspective: 1 win, -1 loss, 0 draw or unknown.
type DecisionRow struct {
	GameID  string `parquet:"game_id,dict"`
	Turn    int32  `parquet:"turn"`
	SnakeID string `parquet:"snake_id,dict"`
	Width   int32  `parquet:"width"`
	Height  int32  `parquet:"height"`

	Health      int32 `parquet:"health"`
	Length      int32 `parquet:"length"`
	StartSnakes int32 `parquet:"start_snakes"`
	Alive       int32 `parquet:"alive"`

	Move       int32     `parquet:"move"`
	Played     int32     `parquet:"played"`
	Scores     []float64 `parquet:"scores"`
	Areas      []int32   `parquet:"areas"`
	HeadRegion int32     `parquet:"head_region"`
	FoodDist   int32     `parquet:"food_dist"`
	ElapsedNs  int64     `parquet:"elapsed_ns"`

	Value  float32 `parquet:"value"`
	Source string  `parquet:"source,dict"`
}

// NewDecisionRow flattens a decision for storage. FoodDist is -1 when no food
// was reachable.
func NewDecisionRow(gameID, source string, t *game.TurnState, dec engine.Decision, elapsed time.Duration) DecisionRow {
	row := DecisionRow{
		GameID:      gameID,
		Turn:        t.State.Turn,
		SnakeID:     t.You.Id,
		Width:       t.State.Width,
		Height:      t.State.Height,
		Health:      t.You.Health,
		Length:      int32(t.You.Length()),
		StartSnakes: int32(t.StartSnakeCount),
		Alive:       int32(len(t.State.Snakes)),
		Move:        int32(dec.Move),
		Played:      -1,
		Scores:      dec.Scores[:],
		Areas:       make([]int32, len(dec.Areas)),
		HeadRegion:  int32(dec.HeadRegion),
		FoodDist:    -1,
		ElapsedNs:   elapsed.Nanoseconds(),
		Source:      source,
	}
	for i, a := range dec.Areas {
		row.Areas[i] = int32(a)
	}
	if len(dec.FoodPath) > 0 {
		row.FoodDist = int32(len(dec.FoodPath) - 1)
	}
	return row
}

func writerOptions() []parquet.WriterOption {
	return []parquet.WriterOption{
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", schemaName),
	}
}

// WriteBatchParquet writes rows into outDir/tmp and then atomically moves the
// file into outDir, so readers never observe a partial file.
// The returned path is the final parquet file path.
func WriteBatchParquet(outDir string, rows []DecisionRow) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := batchName()
	finalPath := filepath.Join(outDir, name)
	tmpPath := filepath.Join(tmpDir, name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows, writerOptions()...); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return finalPath, nil
}

// ReadDecisionRows loads every row of a decision file.
func ReadDecisionRows(path string) ([]DecisionRow, error) {
	rows, err := parquet.ReadFile[DecisionRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}
