package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/parquet-go/parquet-go"
)

// segment is one Recorder output file. Rows stream into outDir/tmp and the
// file only appears in outDir once it is closed, with the number of finished
// games stored under the "games" metadata key.
type segment struct {
	tmpPath string
	outPath string
	file    *os.File
	writer  *parquet.GenericWriter[DecisionRow]
	rows    int
	games   int
}

func openSegment(outDir string) (*segment, error) {
	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tmp dir: %w", err)
	}
	name := batchName()
	tmpPath := filepath.Join(tmpDir, name)
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("open segment: %w", err)
	}
	return &segment{
		tmpPath: tmpPath,
		outPath: filepath.Join(outDir, name),
		file:    f,
		writer:  parquet.NewGenericWriter[DecisionRow](f, writerOptions()...),
	}, nil
}

func (s *segment) write(rows []DecisionRow) error {
	if len(rows) == 0 {
		return nil
	}
	if _, err := s.writer.Write(rows); err != nil {
		return err
	}
	s.rows += len(rows)
	return nil
}

// close publishes the segment and returns its path. An empty segment is
// discarded and yields "".
func (s *segment) close() (string, error) {
	s.writer.SetKeyValueMetadata("games", strconv.Itoa(s.games))
	werr := s.writer.Close()
	ferr := s.file.Close()
	switch {
	case werr != nil:
		_ = os.Remove(s.tmpPath)
		return "", fmt.Errorf("close parquet writer: %w", werr)
	case ferr != nil:
		_ = os.Remove(s.tmpPath)
		return "", fmt.Errorf("close segment file: %w", ferr)
	case s.rows == 0:
		return "", os.Remove(s.tmpPath)
	}
	if err := os.Rename(s.tmpPath, s.outPath); err != nil {
		return "", fmt.Errorf("publish segment: %w", err)
	}
	return s.outPath, nil
}
