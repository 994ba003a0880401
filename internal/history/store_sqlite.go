package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hamzaa73/EduGenie/internal/quiz"
)

// SQLiteStore keeps the serialized history in a single-row slot table, the
// local-file analogue of a browser storage key.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database file and the slot table.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS history_slot (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		payload TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create history table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) ([]quiz.QuestionBank, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM history_slot WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history slot: %w", err)
	}

	var banks []quiz.QuestionBank
	if err := json.Unmarshal(payload, &banks); err != nil {
		return nil, fmt.Errorf("decode history payload: %w", err)
	}
	return banks, nil
}

func (s *SQLiteStore) Save(ctx context.Context, banks []quiz.QuestionBank) error {
	payload, err := json.Marshal(banks)
	if err != nil {
		return fmt.Errorf("encode history payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO history_slot (id, payload, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("write history slot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
