package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type User struct {
	UserID       int64
	Username     string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
}

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, userID int64) (*User, error)
	Create(ctx context.Context, u *User) error
	List(ctx context.Context) ([]User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) (int64, error)
	Deactivate(ctx context.Context, userID int64) (int64, error)
	CountActiveAdmins(ctx context.Context) (int, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) UserStore {
	return &Store{db: db}
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*User, error) {
	const q = `
SELECT id, username, password_hash, role, is_active, created_at
FROM users
WHERE username = ?
LIMIT 1
`
	return s.scanOne(s.db.QueryRowContext(ctx, q, username))
}

func (s *Store) GetByID(ctx context.Context, userID int64) (*User, error) {
	const q = `
SELECT id, username, password_hash, role, is_active, created_at
FROM users
WHERE id = ?
LIMIT 1
`
	return s.scanOne(s.db.QueryRowContext(ctx, q, userID))
}

func (s *Store) scanOne(row *sql.Row) (*User, error) {
	var u User
	var isActiveInt int
	err := row.Scan(&u.UserID, &u.Username, &u.PasswordHash, &u.Role, &isActiveInt, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.IsActive = isActiveInt != 0
	return &u, nil
}

func (s *Store) Create(ctx context.Context, u *User) error {
	const q = `
INSERT INTO users (username, password_hash, role, is_active, created_at)
VALUES (?, ?, ?, 1, CURRENT_TIMESTAMP)
`
	res, err := s.db.ExecContext(ctx, q, u.Username, u.PasswordHash, u.Role)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	u.UserID = id
	return nil
}

func (s *Store) List(ctx context.Context) ([]User, error) {
	const q = `
SELECT id, username, password_hash, role, is_active, created_at
FROM users
ORDER BY role, username
`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		var isActiveInt int
		if err := rows.Scan(&u.UserID, &u.Username, &u.PasswordHash, &u.Role, &isActiveInt, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.IsActive = isActiveInt != 0
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) UpdatePassword(ctx context.Context, userID int64, passwordHash string) (int64, error) {
	const q = `UPDATE users SET password_hash = ? WHERE id = ? AND is_active = 1`
	res, err := s.db.ExecContext(ctx, q, passwordHash, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// 監査のため物理削除はしない
func (s *Store) Deactivate(ctx context.Context, userID int64) (int64, error) {
	const q = `UPDATE users SET is_active = 0 WHERE id = ? AND is_active = 1`
	res, err := s.db.ExecContext(ctx, q, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) CountActiveAdmins(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM users WHERE role = 'admin' AND is_active = 1`
	var n int
	if err := s.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
