// Package store keeps target hashes, recovered keys and session history in a SQLite database,
// so long runs can be stopped, resumed and audited.
package store

import (
	"bufio"
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/p7r0x7/shacrypt/crypt"
	"github.com/segmentio/asm/ascii"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

const schema = `
CREATE TABLE IF NOT EXISTS hashes (
	id         INTEGER PRIMARY KEY,
	user       TEXT    NOT NULL DEFAULT '',
	ciphertext TEXT    NOT NULL UNIQUE,
	found_key  BLOB,
	found_at   INTEGER
);
CREATE TABLE IF NOT EXISTS sessions (
	id          INTEGER PRIMARY KEY,
	fingerprint BLOB    NOT NULL,
	source      TEXT    NOT NULL,
	source_sum  BLOB,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER,
	processed   INTEGER NOT NULL DEFAULT 0,
	found       INTEGER NOT NULL DEFAULT 0
);`

// ErrNotFound is returned when an ID names no row.
var ErrNotFound = errors.New("store: no such record")

type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// Open opens or creates the database at path. logger receives one line per skipped import line;
// nil discards them.
func Open(path string, logger *log.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	/* One connection keeps ":memory:" databases whole and serialises writers. */
	db.SetMaxOpenConns(1)
	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Record is one stored target hash.
type Record struct {
	ID   int64
	User string
	Hash crypt.Hash
}

// ImportStats counts what Import did with each line.
type ImportStats struct {
	Added, Duplicates, Malformed, Blank int
}

const maxLine = 1 << 16

// Import reads hashes one per line, either bare or as "user:ciphertext" with any further
// colon-separated fields ignored, as in a shadow file. Blank lines and lines starting with '#'
// are passed over; unparsable ones are logged and counted. The whole import is one transaction.
func (s *Store) Import(r io.Reader) (st ImportStats, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return st, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	insert, err := tx.Prepare("INSERT OR IGNORE INTO hashes (user, ciphertext) VALUES (?, ?)")
	if err != nil {
		return st, err
	}
	defer insert.Close()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLine)
	for line := 1; sc.Scan(); line++ {
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 || text[0] == '#' {
			st.Blank++
			continue
		}
		user, h, perr := parseLine(text)
		if perr != nil {
			st.Malformed++
			s.logger.Printf("store: line %d: %v", line, perr)
			continue
		}
		res, err := insert.Exec(user, h.String())
		if err != nil {
			return st, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			st.Duplicates++
		} else {
			st.Added++
		}
	}
	if err = sc.Err(); err != nil {
		return st, err
	}
	return st, tx.Commit()
}

func parseLine(text []byte) (string, crypt.Hash, error) {
	if !ascii.ValidPrint(text) {
		return "", crypt.Hash{}, fmt.Errorf("%w: non-printable characters", crypt.ErrMalformed)
	}
	var user []byte
	if !bytes.HasPrefix(text, []byte(crypt.Prefix)) {
		var ok bool
		if user, text, ok = bytes.Cut(text, []byte{':'}); !ok {
			return "", crypt.Hash{}, fmt.Errorf("%w: no ciphertext", crypt.ErrMalformed)
		}
	}
	text, _, _ = bytes.Cut(text, []byte{':'})
	h, err := crypt.Parse(string(text))
	return string(user), h, err
}

// Hashes returns every stored hash in ID order; Pending only those without a recovered key.
func (s *Store) Hashes() ([]Record, error) {
	return s.records("SELECT id, user, ciphertext FROM hashes ORDER BY id")
}

func (s *Store) Pending() ([]Record, error) {
	return s.records("SELECT id, user, ciphertext FROM hashes WHERE found_key IS NULL ORDER BY id")
}

func (s *Store) records(query string) ([]Record, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var c string
		if err := rows.Scan(&r.ID, &r.User, &c); err != nil {
			return nil, err
		}
		if r.Hash, err = crypt.Parse(c); err != nil {
			return nil, fmt.Errorf("store: hash %d: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MarkFound records key as the recovered key of hash id.
func (s *Store) MarkFound(id int64, key []byte) error {
	res, err := s.db.Exec("UPDATE hashes SET found_key = ?, found_at = ? WHERE id = ?",
		append([]byte{}, key...), time.Now().Unix(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: hash %d", ErrNotFound, id)
	}
	return nil
}

// Found is a recovered hash.
type Found struct {
	Record
	Key []byte
	At  time.Time
}

func (s *Store) Found() ([]Found, error) {
	rows, err := s.db.Query(
		"SELECT id, user, ciphertext, found_key, found_at FROM hashes WHERE found_key IS NOT NULL ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Found
	for rows.Next() {
		var f Found
		var c string
		var at int64
		if err := rows.Scan(&f.ID, &f.User, &c, &f.Key, &at); err != nil {
			return nil, err
		}
		if f.Hash, err = crypt.Parse(c); err != nil {
			return nil, fmt.Errorf("store: hash %d: %w", f.ID, err)
		}
		f.At = time.Unix(at, 0)
		out = append(out, f)
	}
	return out, rows.Err()
}
