package devserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/Makepad-fr/tada/internal/model"
)

// ErrNotFound is returned for ids the store does not hold.
var ErrNotFound = errors.New("todo not found")

// Store keeps todos in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the database at path. ":memory:" is allowed.
func Open(ctx context.Context, path string) (*Store, error) {
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection: an in-memory database is per connection, and SQLite
	// has a single writer anyway.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS todos (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_todos_user ON todos(user_id, id);`,
	}
	for _, st := range stmts {
		if _, err := s.db.ExecContext(ctx, st); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) List(ctx context.Context, userID int) ([]model.Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, completed FROM todos WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	out := []model.Todo{}
	for rows.Next() {
		var t model.Todo
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Completed); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id int) (model.Todo, error) {
	var t model.Todo
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, completed FROM todos WHERE id = ?`, id,
	).Scan(&t.ID, &t.UserID, &t.Title, &t.Completed)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Todo{}, ErrNotFound
	}
	if err != nil {
		return model.Todo{}, fmt.Errorf("get %d: %w", id, err)
	}
	return t, nil
}

func (s *Store) Create(ctx context.Context, in model.NewTodo) (model.Todo, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO todos (user_id, title, completed) VALUES (?, ?, ?)`,
		in.UserID, in.Title, in.Completed)
	if err != nil {
		return model.Todo{}, fmt.Errorf("insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Todo{}, fmt.Errorf("last insert id: %w", err)
	}
	return model.Todo{ID: int(id), UserID: in.UserID, Title: in.Title, Completed: in.Completed}, nil
}

func (s *Store) Update(ctx context.Context, id int, p model.Patch) (model.Todo, error) {
	var (
		sets []string
		args []any
	)
	if p.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *p.Title)
	}
	if p.Completed != nil {
		sets = append(sets, "completed = ?")
		args = append(args, *p.Completed)
	}
	if len(sets) > 0 {
		args = append(args, id)
		res, err := s.db.ExecContext(ctx,
			`UPDATE todos SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return model.Todo{}, fmt.Errorf("update %d: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return model.Todo{}, ErrNotFound
		}
	}
	return s.Get(ctx, id)
}

func (s *Store) Delete(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
