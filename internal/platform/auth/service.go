package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin     = "admin"
	RoleLibrarian = "librarian"
)

var (
	ErrAlreadyExists    = errors.New("already exists")
	ErrNotFound         = errors.New("not found")
	ErrAuthFailed       = errors.New("authentication failed")
	ErrLastAdmin        = errors.New("cannot remove the last active admin")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrWrongOldPassword = errors.New("old password does not match")
)

type Service struct {
	store  UserStore
	secret []byte
}

// secret は設定ファイルから渡す（ハードコード禁止）
func NewService(db *sql.DB, secret []byte) *Service {
	return &Service{store: NewStore(db), secret: secret}
}

func (s *Service) Secret() []byte { return s.secret }

// Login はパスワード検証の上、sub/role/exp 入りのJWTを発行する
func (s *Service) Login(ctx context.Context, username, password string) (string, *User, error) {
	u, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return "", nil, err
	}
	if u == nil || !u.IsActive {
		return "", nil, ErrAuthFailed
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthFailed
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  u.Username,
		"uid":  u.UserID,
		"role": u.Role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return tokenString, u, nil
}

func (s *Service) Register(ctx context.Context, username, password, role string) (*User, error) {
	if username == "" || len(password) < 6 {
		return nil, ErrInvalidArgument
	}
	if role != RoleAdmin && role != RoleLibrarian {
		return nil, ErrInvalidArgument
	}

	exists, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists != nil {
		return nil, ErrAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return ErrInvalidArgument
	}

	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil || !u.IsActive {
		return ErrNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrWrongOldPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	n, err := s.store.UpdatePassword(ctx, userID, string(hash))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.store.List(ctx)
}

// DeleteUser は論理削除。最後の有効な admin は消せない。
func (s *Service) DeleteUser(ctx context.Context, userID int64) error {
	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil || !u.IsActive {
		return ErrNotFound
	}

	if u.Role == RoleAdmin {
		n, err := s.store.CountActiveAdmins(ctx)
		if err != nil {
			return err
		}
		if n <= 1 {
			return ErrLastAdmin
		}
	}

	affected, err := s.store.Deactivate(ctx, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
