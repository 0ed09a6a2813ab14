package service

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/saadjs/platelog/internal/ledger"
)

// querier is the part of *sql.DB and *sql.Tx the store needs.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// KVStore keeps ledger blobs in the kv_store table. It satisfies
// ledger.TxStore.
type KVStore struct {
	conn *sql.DB
	db   querier
}

var _ ledger.TxStore = (*KVStore)(nil)

func NewKVStore(db *sql.DB) *KVStore {
	return &KVStore{conn: db, db: db}
}

// Update runs fn inside one transaction. The writes fn makes through its
// argument are committed together or rolled back together.
func (s *KVStore) Update(fn func(ledger.Store) error) error {
	if s.conn == nil {
		return fn(s)
	}
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin store update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&KVStore{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit store update: %w", err)
	}
	return nil
}

func (s *KVStore) Get(key string) ([]byte, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, fmt.Errorf("store key is required")
	}
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (s *KVStore) Set(key string, value []byte) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("store key is required")
	}
	_, err := s.db.Exec(`
INSERT INTO kv_store(key, value, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, value)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *KVStore) Remove(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv_store WHERE key = ?`, strings.TrimSpace(key)); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

func (s *KVStore) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM kv_store ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list store keys: %w", err)
	}
	defer rows.Close()
	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan store key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate store keys: %w", err)
	}
	return keys, nil
}
