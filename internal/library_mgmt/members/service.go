package members

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	mysql "github.com/go-sql-driver/mysql"
)

// ===== Error model =====
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code
	Message string
}

func (e *APIError) Error() string      { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }

func ToHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound:
			return 404
		case CodeConflict:
			return 409
		default:
			return 500
		}
	}
	return 500
}

// ===== Service =====

type Service struct {
	db    *sql.DB
	store *Store
}

func NewService(d *sql.DB) *Service { return &Service{db: d, store: NewStore(d)} }

func (s *Service) CreateMember(ctx context.Context, in CreateMemberRequest) (MemberResponse, error) {
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return MemberResponse{}, ErrInvalid("first_name and last_name are required")
	}
	email := strings.TrimSpace(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return MemberResponse{}, ErrInvalid("valid email is required")
	}
	if strings.TrimSpace(in.Phone) == "" {
		return MemberResponse{}, ErrInvalid("phone is required")
	}
	memberType := in.MemberType
	if memberType == "" {
		memberType = "General"
	}
	if !isValidMemberType(memberType) {
		return MemberResponse{}, ErrInvalid("unknown member_type")
	}

	m := &Member{
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Email:      email,
		Phone:      strings.TrimSpace(in.Phone),
		MemberType: memberType,
	}

	if err := s.store.Insert(ctx, m); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return MemberResponse{}, ErrConflict("email already registered")
		}
		return MemberResponse{}, err
	}

	log.Printf("[INFO] member registered: %d (%s, limit %d)", m.MemberID, memberType, DefaultBookLimit(memberType))

	out, err := s.store.GetByID(ctx, m.MemberID)
	if err != nil {
		return MemberResponse{}, err
	}
	return *out, nil
}

func (s *Service) GetMember(ctx context.Context, memberID int64) (MemberResponse, error) {
	out, err := s.store.GetByID(ctx, memberID)
	if err != nil {
		if err == sql.ErrNoRows {
			return MemberResponse{}, ErrNotFound("member not found")
		}
		return MemberResponse{}, err
	}
	return *out, nil
}

func (s *Service) GetMemberByEmail(ctx context.Context, email string) (MemberResponse, error) {
	if strings.TrimSpace(email) == "" {
		return MemberResponse{}, ErrInvalid("email is required")
	}
	out, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return MemberResponse{}, ErrNotFound("member not found")
		}
		return MemberResponse{}, err
	}
	return *out, nil
}

func (s *Service) ListMembers(ctx context.Context, f MemberFilter) ([]MemberResponse, error) {
	if f.MemberType != "" && !isValidMemberType(f.MemberType) {
		return nil, ErrInvalid("unknown member_type")
	}
	return s.store.List(ctx, f)
}

func (s *Service) UpdateMember(ctx context.Context, memberID int64, in UpdateMemberRequest) (MemberResponse, error) {
	if in.Email != nil && !strings.Contains(*in.Email, "@") {
		return MemberResponse{}, ErrInvalid("valid email is required")
	}
	if in.MemberType != nil && !isValidMemberType(*in.MemberType) {
		return MemberResponse{}, ErrInvalid("unknown member_type")
	}

	n, err := s.store.Update(ctx, memberID, in)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return MemberResponse{}, ErrConflict("email already registered")
		}
		return MemberResponse{}, err
	}
	_ = n // 変更なしでも現行値を返す

	return s.GetMember(ctx, memberID)
}

// UpdateStatus は貸出可否のステータスを切り替える（suspended 等）。
// 会員の is_active とは独立している点に注意。
func (s *Service) UpdateStatus(ctx context.Context, memberID int64, in UpdateStatusRequest) (MemberResponse, error) {
	switch in.Status {
	case StatusActive, StatusSuspended, StatusBlocked, StatusExpired:
	default:
		return MemberResponse{}, ErrInvalid("invalid status")
	}

	n, err := s.store.UpdateStatus(ctx, memberID, in.Status)
	if err != nil {
		return MemberResponse{}, err
	}
	if n == 0 {
		return MemberResponse{}, ErrNotFound("member limits not found")
	}
	return s.GetMember(ctx, memberID)
}

// DeleteMember は論理削除。未返却の貸出がある会員は削除できない。
func (s *Service) DeleteMember(ctx context.Context, memberID int64) error {
	active, err := s.store.HasActiveLoans(ctx, memberID)
	if err != nil {
		return err
	}
	if active {
		return ErrConflict("member has active loans")
	}

	n, err := s.store.SoftDelete(ctx, memberID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound("member not found")
	}
	log.Printf("[INFO] member deactivated: %d", memberID)
	return nil
}

func (s *Service) GetStatistics(ctx context.Context) (MemberStatsResponse, error) {
	st, err := s.store.GetStatistics(ctx)
	if err != nil {
		return MemberStatsResponse{}, err
	}
	return *st, nil
}
