package store

import (
	"fmt"
	"sync"
)

// Recorder writes decision rows from any number of concurrent games into a
// series of parquet segments, starting a new one every flushRows rows.
type Recorder struct {
	mu        sync.Mutex
	outDir    string
	flushRows int

	current *segment
	files   []string
	rows    int
}

// NewRecorder creates outDir if needed. flushRows <= 0 means files are only
// written on Flush or Close.
func NewRecorder(outDir string, flushRows int) (*Recorder, error) {
	if outDir == "" {
		return nil, fmt.Errorf("output dir is required")
	}
	w, err := openSegment(outDir)
	if err != nil {
		return nil, err
	}
	return &Recorder{outDir: outDir, flushRows: flushRows, current: w}, nil
}

// Record appends rows to the current file.
func (r *Recorder) Record(rows ...DecisionRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return fmt.Errorf("recorder is closed")
	}
	if err := r.current.write(rows); err != nil {
		return fmt.Errorf("record rows: %w", err)
	}
	r.rows += len(rows)
	if r.flushRows > 0 && r.current.rows >= r.flushRows {
		return r.rollLocked(true)
	}
	return nil
}

// GameDone counts one finished game in the current segment's metadata.
func (r *Recorder) GameDone() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		r.current.games++
	}
}

// Flush finalizes the current file and starts a new one.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return fmt.Errorf("recorder is closed")
	}
	return r.rollLocked(true)
}

// Close finalizes the current file. Further Record calls fail.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil
	}
	return r.rollLocked(false)
}

// Files lists the finalized parquet files so far.
func (r *Recorder) Files() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.files...)
}

// Rows is the total number of rows recorded.
func (r *Recorder) Rows() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows
}

func (r *Recorder) rollLocked(reopen bool) error {
	path, err := r.current.close()
	r.current = nil
	if path != "" {
		r.files = append(r.files, path)
	}
	if err != nil {
		return err
	}
	if !reopen {
		return nil
	}
	w, err := openSegment(r.outDir)
	if err != nil {
		return err
	}
	r.current = w
	return nil
}
