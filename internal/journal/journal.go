// Package journal persists per-session events to sqlite so runs can be
// reviewed after the fact: which frames were analyzed, what was
// detected, what was spoken, and when the vision API throttled us.
package journal

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pathsight/go-pathsight/pkg/speech"
	"github.com/pathsight/go-pathsight/pkg/track"
)

//go:embed schema.sql
var schemaSQL string

// Journal is the session event log.
type Journal struct {
	*sql.DB
}

// Open opens (or creates) the journal database at path and applies the
// schema. Use ":memory:" for an ephemeral journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}
	return &Journal{db}, nil
}

// StartSession records a new session and returns its id.
func (j *Journal) StartSession(navMode, notes string) (int64, error) {
	res, err := j.Exec(`INSERT INTO sessions (nav_mode, notes) VALUES (?, ?)`, navMode, notes)
	if err != nil {
		return 0, fmt.Errorf("start session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("session id: %w", err)
	}
	return id, nil
}

// EndSession stamps the session's end time.
func (j *Journal) EndSession(sessionID int64) error {
	_, err := j.Exec(`UPDATE sessions SET ended_at = UNIXEPOCH('subsec') WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// RecordFrame logs one analyzed frame and returns the frame id for
// detection rows.
func (j *Journal) RecordFrame(sessionID int64, seq uint64, latency time.Duration, model string) (int64, error) {
	res, err := j.Exec(
		`INSERT INTO frames (session_id, seq, latency_ms, model) VALUES (?, ?, ?, ?)`,
		sessionID, int64(seq), latency.Milliseconds(), model)
	if err != nil {
		return 0, fmt.Errorf("record frame: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("frame id: %w", err)
	}
	return id, nil
}

// RecordDetections logs every tracked object from one frame in a single
// transaction.
func (j *Journal) RecordDetections(frameID int64, objects []track.TrackedObject) error {
	if len(objects) == 0 {
		return nil
	}
	tx, err := j.Begin()
	if err != nil {
		return fmt.Errorf("begin detections: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO detections
		(frame_id, object_id, label, x, y, width, height, movement, fading)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare detections: %w", err)
	}
	defer stmt.Close()
	for _, o := range objects {
		fading := 0
		if o.Fading {
			fading = 1
		}
		if _, err := stmt.Exec(frameID, o.ID, o.Label,
			o.X, o.Y, o.Width, o.Height, string(o.Movement), fading); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert detection: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit detections: %w", err)
	}
	return nil
}

// RecordAdvisory logs one spoken message.
func (j *Journal) RecordAdvisory(sessionID int64, msg speech.Message) error {
	_, err := j.Exec(`INSERT INTO advisories (session_id, class, text) VALUES (?, ?, ?)`,
		sessionID, string(msg.Class), msg.Text)
	if err != nil {
		return fmt.Errorf("record advisory: %w", err)
	}
	return nil
}

// RecordRateLimit logs one throttling event with the delay applied and
// the interval buffer in effect afterwards.
func (j *Journal) RecordRateLimit(sessionID int64, retryDelay, buffer time.Duration) error {
	_, err := j.Exec(`INSERT INTO rate_limits (session_id, retry_delay_ms, buffer_ms) VALUES (?, ?, ?)`,
		sessionID, retryDelay.Milliseconds(), buffer.Milliseconds())
	if err != nil {
		return fmt.Errorf("record rate limit: %w", err)
	}
	return nil
}

// SessionStats summarizes one session for the dashboard.
type SessionStats struct {
	SessionID  int64 `json:"session_id"`
	Frames     int64 `json:"frames"`
	Detections int64 `json:"detections"`
	Advisories int64 `json:"advisories"`
	RateLimits int64 `json:"rate_limits"`
}

// Stats counts a session's journal rows.
func (j *Journal) Stats(sessionID int64) (SessionStats, error) {
	s := SessionStats{SessionID: sessionID}
	row := j.QueryRow(`SELECT
		(SELECT COUNT(*) FROM frames WHERE session_id = ?),
		(SELECT COUNT(*) FROM detections d JOIN frames f ON d.frame_id = f.id WHERE f.session_id = ?),
		(SELECT COUNT(*) FROM advisories WHERE session_id = ?),
		(SELECT COUNT(*) FROM rate_limits WHERE session_id = ?)`,
		sessionID, sessionID, sessionID, sessionID)
	if err := row.Scan(&s.Frames, &s.Detections, &s.Advisories, &s.RateLimits); err != nil {
		return s, fmt.Errorf("session stats: %w", err)
	}
	return s, nil
}

// RecentAdvisories returns the latest spoken messages for a session,
// newest first.
func (j *Journal) RecentAdvisories(sessionID int64, limit int) ([]speech.Message, error) {
	rows, err := j.Query(`SELECT class, text FROM advisories
		WHERE session_id = ? ORDER BY id DESC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent advisories: %w", err)
	}
	defer rows.Close()
	var out []speech.Message
	for rows.Next() {
		var class, text string
		if err := rows.Scan(&class, &text); err != nil {
			return nil, fmt.Errorf("scan advisory: %w", err)
		}
		out = append(out, speech.Message{Class: speech.Class(class), Text: text})
	}
	return out, rows.Err()
}
