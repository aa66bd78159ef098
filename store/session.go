package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

// Session is one cracking run against a fixed target set.
type Session struct {
	ID          int64
	Fingerprint [32]byte
	Source      string
	SourceSum   []byte
	Started     time.Time
	Finished    time.Time /* zero while running or if the run died */
	Processed   uint64
	Found       uint64
}

// BeginSession records the start of a run over the targets identified by fingerprint, drawing
// keys from source (a wordlist path, charset description and so on).
func (s *Store) BeginSession(fingerprint [32]byte, source string) (int64, error) {
	res, err := s.db.Exec("INSERT INTO sessions (fingerprint, source, started_at) VALUES (?, ?, ?)",
		fingerprint[:], source, time.Now().UnixNano())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// EndSession closes a run. sourceSum may be nil when the key source has no digest.
func (s *Store) EndSession(id int64, processed, found uint64, sourceSum []byte) error {
	res, err := s.db.Exec(
		"UPDATE sessions SET finished_at = ?, processed = ?, found = ?, source_sum = ? WHERE id = ?",
		time.Now().UnixNano(), int64(processed), int64(found), sourceSum, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: session %d", ErrNotFound, id)
	}
	return nil
}

// Sessions lists runs, oldest first.
func (s *Store) Sessions() ([]Session, error) {
	rows, err := s.db.Query(`SELECT id, fingerprint, source, source_sum, started_at, finished_at,
		processed, found FROM sessions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var ss Session
		var fp []byte
		var started int64
		var finished sql.NullInt64
		var processed, found int64
		if err := rows.Scan(&ss.ID, &fp, &ss.Source, &ss.SourceSum, &started, &finished,
			&processed, &found); err != nil {
			return nil, err
		}
		copy(ss.Fingerprint[:], fp)
		ss.Started = time.Unix(0, started)
		if finished.Valid {
			ss.Finished = time.Unix(0, finished.Int64)
		}
		ss.Processed, ss.Found = uint64(processed), uint64(found)
		out = append(out, ss)
	}
	return out, rows.Err()
}
