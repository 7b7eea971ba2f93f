package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mzurek/zakupy/internal/models"
)

var (
	// ErrNotFound means the row does not exist or belongs to another user.
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken means the username uniqueness constraint fired.
	ErrUsernameTaken = errors.New("username already exists")
)

const uniqueViolation = "23505"

const itemColumns = `id, user_id, text, quantity, unit, description, completed, added_at, completed_at, updated_at`

// PostgresStore handles user and item CRUD against PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, hashedPassword string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, password)
		 VALUES ($1, $2)
		 RETURNING id, username, created_at`,
		username, hashedPassword,
	).Scan(&u.ID, &u.Username, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password, created_at FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.Password, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// ListItems returns every item the user owns, unchecked first, newest
// first within each group.
func (s *PostgresStore) ListItems(ctx context.Context, userID string) ([]models.Item, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+itemColumns+` FROM items
		 WHERE user_id = $1
		 ORDER BY completed ASC, added_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		var it models.Item
		if err := rows.Scan(&it.ID, &it.UserID, &it.Text, &it.Quantity, &it.Unit,
			&it.Description, &it.Completed, &it.AddedAt, &it.CompletedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) AddItem(ctx context.Context, userID string, req models.AddItemRequest) (*models.Item, error) {
	var it models.Item
	err := s.pool.QueryRow(ctx,
		`INSERT INTO items (user_id, text, quantity, unit, description, completed, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, CASE WHEN $6 THEN NOW() ELSE NULL END)
		 RETURNING `+itemColumns,
		userID, req.Text, req.Quantity, req.Unit, req.Description, req.Completed,
	).Scan(&it.ID, &it.UserID, &it.Text, &it.Quantity, &it.Unit,
		&it.Description, &it.Completed, &it.AddedAt, &it.CompletedAt, &it.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}
	return &it, nil
}

// UpdateItem applies a validated partial update. The SET list is built
// only from the fixed field set of models.ItemPatch; the item must be
// owned by userID or ErrNotFound is returned.
func (s *PostgresStore) UpdateItem(ctx context.Context, userID, itemID string, patch models.ItemPatch) error {
	set := []string{"updated_at = NOW()"}
	args := []any{}
	n := 0
	arg := func(v any) string {
		args = append(args, v)
		n++
		return fmt.Sprintf("$%d", n)
	}

	if patch.Text != nil {
		set = append(set, "text = "+arg(*patch.Text))
	}
	if patch.Quantity != nil {
		set = append(set, "quantity = "+arg(*patch.Quantity))
	}
	if patch.Unit != nil {
		set = append(set, "unit = "+arg(*patch.Unit))
	}
	if patch.Description != nil {
		set = append(set, "description = "+arg(*patch.Description))
	}
	if patch.Completed != nil {
		set = append(set, "completed = "+arg(*patch.Completed))
		if *patch.Completed {
			set = append(set, "completed_at = NOW()")
		} else {
			set = append(set, "completed_at = NULL")
		}
	}

	query := fmt.Sprintf(`UPDATE items SET %s WHERE id = %s AND user_id = %s`,
		strings.Join(set, ", "), arg(itemID), arg(userID))
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteItem(ctx context.Context, userID, itemID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM items WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteChecked removes every completed item the user owns and returns
// how many went away.
func (s *PostgresStore) DeleteChecked(ctx context.Context, userID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM items WHERE user_id = $1 AND completed = TRUE`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete checked: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) DeleteAll(ctx context.Context, userID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM items WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete all: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ReplaceItems overwrites the user's whole list in one transaction:
// delete everything, then insert the supplied specs with fresh ids.
func (s *PostgresStore) ReplaceItems(ctx context.Context, userID string, items []models.AddItemRequest) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("replace items: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("replace items: delete: %w", err)
	}
	for _, req := range items {
		_, err := tx.Exec(ctx,
			`INSERT INTO items (user_id, text, quantity, unit, description, completed, completed_at)
			 VALUES ($1, $2, $3, $4, $5, $6, CASE WHEN $6 THEN NOW() ELSE NULL END)`,
			userID, req.Text, req.Quantity, req.Unit, req.Description, req.Completed)
		if err != nil {
			return fmt.Errorf("replace items: insert: %w", err)
		}
	}
	return tx.Commit(ctx)
}
