package roomstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/automerge/automerge-go"
	_ "github.com/mattn/go-sqlite3"

	"LiveCanvas/internal/state"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when no snapshot exists for a room.
var ErrNotFound = errors.New("roomstore: room not found")

// Store keeps one snapshot per room in SQLite. A snapshot is an automerge
// document holding every op of the room table, tombstones included, keyed
// by object id.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save replaces the snapshot of room with ops.
func (s *Store) Save(ctx context.Context, room string, ops []state.Op) error {
	doc, err := Encode(ops)
	if err != nil {
		return err
	}
	content := base64.StdEncoding.EncodeToString(doc.Save())
	live := 0
	for _, op := range ops {
		if op.Type == state.OpPut {
			live++
		}
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO rooms (id, content, records, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET content = excluded.content, records = excluded.records, updated_at = excluded.updated_at`,
		room, content, live, time.Now().UnixMilli(),
	); err != nil {
		return fmt.Errorf("save room %q: %w", room, err)
	}
	return nil
}

// Load returns the saved ops of room, or ErrNotFound.
func (s *Store) Load(ctx context.Context, room string) ([]state.Op, error) {
	var content string
	err := s.db.QueryRowContext(ctx, `SELECT content FROM rooms WHERE id = ?`, room).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load room %q: %w", room, err)
	}
	raw, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode room %q: %w", room, err)
	}
	doc, err := automerge.Load(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to load doc for room %q: %w", room, err)
	}
	return Decode(doc)
}

// Rooms lists the saved room ids.
func (s *Store) Rooms(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM rooms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Encode builds an automerge document from a room table.
func Encode(ops []state.Op) (*automerge.Doc, error) {
	doc := automerge.New()
	if err := doc.Path("objects").Set(map[string]any{}); err != nil {
		return nil, fmt.Errorf("failed to init doc: %w", err)
	}
	for _, op := range ops {
		raw, err := json.Marshal(op)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %q: %w", op.ObjectID, err)
		}
		if err := doc.Path("objects", op.ObjectID).Set(string(raw)); err != nil {
			return nil, fmt.Errorf("failed to set %q: %w", op.ObjectID, err)
		}
	}
	if _, err := doc.Commit("snapshot", automerge.CommitOptions{AllowEmpty: true}); err != nil {
		return nil, fmt.Errorf("failed to commit doc: %w", err)
	}
	return doc, nil
}

// Decode reads the ops back out of a document written by Encode.
func Decode(doc *automerge.Doc) ([]state.Op, error) {
	v, err := doc.Path("objects").Get()
	if err != nil {
		return nil, fmt.Errorf("failed to read objects: %w", err)
	}
	if v.Kind() != automerge.KindMap {
		return nil, nil
	}
	keys, err := v.Map().Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}
	ops := make([]state.Op, 0, len(keys))
	for _, id := range keys {
		item, err := doc.Path("objects", id).Get()
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", id, err)
		}
		if item.Kind() != automerge.KindStr {
			continue
		}
		var op state.Op
		if err := json.Unmarshal([]byte(item.Str()), &op); err != nil {
			return nil, fmt.Errorf("failed to decode %q: %w", id, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}
