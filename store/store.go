package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/BonChain/saga-sub000/viz"
)

// Store persists action history and the synthesized networks. Results are
// stored as zstd-compressed JSON blobs; the engine itself never touches this
// layer.
type Store struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
	mu  sync.Mutex
}

// ActionRecord is one row of action history.
type ActionRecord struct {
	ID          string    `json:"id"`
	ActorID     string    `json:"actor_id"`
	Description string    `json:"description"`
	Effects     int       `json:"effects"`
	MaxDepth    int       `json:"max_depth"`
	CreatedAt   time.Time `json:"created_at"`
}

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma: %w", err)
		}
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS actions (
  id          TEXT PRIMARY KEY,
  actor_id    TEXT NOT NULL,
  description TEXT NOT NULL,
  effects     INTEGER NOT NULL,
  max_depth   INTEGER NOT NULL,
  created_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS networks (
  action_id TEXT PRIMARY KEY REFERENCES actions(id),
  payload   BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_actions_created ON actions(created_at DESC);
`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("schema: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, enc: enc, dec: dec}, nil
}

// Close releases the database and codec resources.
func (s *Store) Close() error {
	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}

// SaveAction records one action and its synthesized network.
func (s *Store) SaveAction(rec ActionRecord, result *viz.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	blob := s.enc.EncodeAll(data, nil)

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO actions (id, actor_id, description, effects, max_depth, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ActorID, rec.Description, rec.Effects, rec.MaxDepth, rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert action: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO networks (action_id, payload) VALUES (?, ?)`,
		rec.ID, blob,
	); err != nil {
		return fmt.Errorf("insert network: %w", err)
	}

	return tx.Commit()
}

// History returns the most recent actions, newest first.
func (s *Store) History(limit int) ([]ActionRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT id, actor_id, description, effects, max_depth, created_at FROM actions ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActionRecord
	for rows.Next() {
		var rec ActionRecord
		var created string
		if err := rows.Scan(&rec.ID, &rec.ActorID, &rec.Description, &rec.Effects, &rec.MaxDepth, &created); err != nil {
			return nil, err
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Counts returns the total number of stored actions and effects.
func (s *Store) Counts() (actions, effects int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(effects), 0) FROM actions`).Scan(&actions, &effects)
	return actions, effects
}

// Network loads and decompresses a stored result by action id.
func (s *Store) Network(actionID string) (*viz.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var blob []byte
	err := s.db.QueryRow(`SELECT payload FROM networks WHERE action_id = ?`, actionID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("network for action %s not found", actionID)
	}
	if err != nil {
		return nil, err
	}

	data, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress network: %w", err)
	}

	var res viz.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("unmarshal network: %w", err)
	}
	return &res, nil
}
