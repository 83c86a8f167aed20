// Package snapshot persists a serialized Chat to SQLite so a running
// session can survive a process restart. It never stores message history —
// only the single root Chat value, keyed by its id.
package snapshot

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/picoclaw/chatcore/pkg/chatcore"
	"github.com/picoclaw/chatcore/pkg/logger"
)

// Store is a SQLite-backed snapshot table for Chat.ToMap() payloads.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens (creating if necessary) the snapshot database at dbPath and
// ensures its schema exists.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("snapshot: create db dir: %w", err)
	}
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("snapshot: open db: %w", err)
	}
	s := &Store{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("snapshot: init schema: %w", err)
	}
	logger.InfoCF("snapshot", "snapshot store opened", map[string]interface{}{"db_path": dbPath})
	return s, nil
}

func (s *Store) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS chat_snapshots (
		chat_id TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		saved_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists c's current ToMap() representation, replacing any prior
// snapshot under the same chat id.
func (s *Store) Save(c *chatcore.Chat) error {
	payload, err := json.Marshal(c.ToMap())
	if err != nil {
		return fmt.Errorf("snapshot: marshal chat: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO chat_snapshots (chat_id, payload, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		c.ID, string(payload), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("snapshot: save chat %s: %w", c.ID, err)
	}
	return nil
}

// Load reconstructs a Chat from its most recent snapshot. Handlers and
// ThreadFactory are never persisted — callers must re-register them after
// Load returns; deserialization restores an empty handler table.
func (s *Store) Load(chatID string) (*chatcore.Chat, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM chat_snapshots WHERE chat_id = ?`, chatID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot: no snapshot for chat %s", chatID)
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: load chat %s: %w", chatID, err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return nil, fmt.Errorf("snapshot: decode chat %s: %w", chatID, err)
	}
	return chatcore.ReviveChat(m), nil
}

// Delete removes chatID's snapshot, if any.
func (s *Store) Delete(chatID string) error {
	_, err := s.db.Exec(`DELETE FROM chat_snapshots WHERE chat_id = ?`, chatID)
	return err
}

// List returns every snapshotted chat id, most recently saved first.
func (s *Store) List() ([]string, error) {
	rows, err := s.db.Query(`SELECT chat_id FROM chat_snapshots ORDER BY saved_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("snapshot: list: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
