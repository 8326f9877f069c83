// Package store persists run summaries and per-segment scores to a
// local SQLite database so past analyses can be listed and compared.
// The scoring engine itself never touches it.
package store

import (
	"fmt"
	"time"

	"github.com/provenalabs/mimesis/internal/model"
)

// RunSummary is one row of the analysis history
type RunSummary struct {
	RunID         string
	Source        string
	FetchedAt     time.Time
	DocumentScore float64
	Segments      int
	Scored        int
}

// SegmentRow is one persisted segment score
type SegmentRow struct {
	SegmentID       string
	Type            string
	LengthChars     int
	Score           float64
	Confidence      string
	CounterEvidence bool
}

// Save persists a report's summary and segment scores. Saving the same
// run twice replaces the earlier rows.
func Save(dbPath string, report *model.Report) error {
	if report == nil {
		return fmt.Errorf("nil report")
	}

	conn, err := Open(dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO runs(run_id, source, fetched_at, document_score, segments, scored, weights_note) VALUES(?,?,?,?,?,?,?)`,
		report.RunID,
		report.Source,
		report.FetchedAt.UTC().Format(time.RFC3339Nano),
		report.DocumentScore,
		len(report.Segments),
		report.Stats.Scored,
		report.WeightsNote,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, sr := range report.Segments {
		counter := 0
		if sr.CounterEvidence {
			counter = 1
		}
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO segment_scores(run_id, segment_id, type, length_chars, score, confidence, counter_evidence) VALUES(?,?,?,?,?,?,?)`,
			report.RunID,
			sr.Segment.ID,
			string(sr.Segment.Type),
			sr.Segment.LengthChars,
			sr.Score.Score,
			string(sr.Score.Confidence),
			counter,
		); err != nil {
			return fmt.Errorf("insert segment score: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Recent lists the newest runs, most recent first. A non-positive limit
// defaults to 20.
func Recent(dbPath string, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	conn, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.Query(
		`SELECT run_id, source, fetched_at, document_score, segments, scored FROM runs ORDER BY fetched_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var fetchedAt string
		if err := rows.Scan(&r.RunID, &r.Source, &fetchedAt, &r.DocumentScore, &r.Segments, &r.Scored); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, fetchedAt); err == nil {
			r.FetchedAt = t
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// RunSegments lists the persisted segment scores for one run in
// segment-id order
func RunSegments(dbPath, runID string) ([]SegmentRow, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.Query(
		`SELECT segment_id, type, length_chars, score, confidence, counter_evidence FROM segment_scores WHERE run_id = ? ORDER BY segment_id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query segment scores: %w", err)
	}
	defer rows.Close()

	var segs []SegmentRow
	for rows.Next() {
		var s SegmentRow
		var counter int
		if err := rows.Scan(&s.SegmentID, &s.Type, &s.LengthChars, &s.Score, &s.Confidence, &counter); err != nil {
			return nil, fmt.Errorf("scan segment score: %w", err)
		}
		s.CounterEvidence = counter != 0
		segs = append(segs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate segment scores: %w", err)
	}
	return segs, nil
}
