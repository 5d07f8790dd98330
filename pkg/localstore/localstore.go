// Package localstore implements the on-disk key-value cache that sits
// between the in-memory object caches and the backing store (§4.H). It is
// a thin SQLite-backed table with zstd-compressed values; the object store
// orchestrator treats any lookup failure here as a recoverable miss, never
// a fatal error.
package localstore

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/klauspost/compress/zstd"
)

// Store is a thread-safe, SQLite-backed key-value cache with
// zstd-compressed values. The backing store is assumed by the object
// store orchestrator to be internally thread-safe, per §5.
type Store struct {
	db *sql.DB

	encoderMu sync.Mutex
	encoder   *zstd.Encoder

	decoderMu sync.Mutex
	decoder   *zstd.Decoder
}

// Open opens (creating if necessary) a SQLite-backed local store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("unable to open local store database: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS objects (
		key BLOB PRIMARY KEY,
		value BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to create local store schema: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to construct zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to construct zstd decoder: %w", err)
	}

	return &Store{db: db, encoder: encoder, decoder: decoder}, nil
}

// Close releases the store's database handle and compressor state.
func (s *Store) Close() error {
	s.encoder.Close()
	s.decoder.Close()
	return s.db.Close()
}

func (s *Store) compress(value []byte) []byte {
	s.encoderMu.Lock()
	defer s.encoderMu.Unlock()
	return s.encoder.EncodeAll(value, nil)
}

func (s *Store) decompress(compressed []byte) ([]byte, error) {
	s.decoderMu.Lock()
	defer s.decoderMu.Unlock()
	return s.decoder.DecodeAll(compressed, nil)
}

// Get looks up key, returning (value, true, nil) on a hit, (nil, false,
// nil) on a miss, and a non-nil error only for an actual I/O or decode
// failure — callers treat a decode failure as a recoverable miss rather
// than propagating it, per §4.H's "cache deserialization error" policy.
func (s *Store) Get(key []byte) ([]byte, bool, error) {
	var compressed []byte
	err := s.db.QueryRow(`SELECT value FROM objects WHERE key = ?`, key).Scan(&compressed)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("local store read failed: %w", err)
	}

	value, err := s.decompress(compressed)
	if err != nil {
		return nil, false, fmt.Errorf("local store value corrupt: %w", err)
	}
	return value, true, nil
}

// Put writes key/value, overwriting any existing entry. A write failure is
// logged by the caller and otherwise ignored, per §4.H.
func (s *Store) Put(key, value []byte) error {
	compressed := s.compress(value)
	_, err := s.db.Exec(
		`INSERT INTO objects (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, compressed,
	)
	if err != nil {
		return fmt.Errorf("local store write failed: %w", err)
	}
	return nil
}
