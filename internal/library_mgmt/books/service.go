package books

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

func (s *Service) CreateBook(ctx context.Context, in CreateBookRequest) (BookResponse, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Author) == "" ||
		strings.TrimSpace(in.Category) == "" {
		return BookResponse{}, ErrInvalid("title, author, category are required")
	}
	isbn := normalizeISBN(in.ISBN)
	if !isValidISBN(isbn) {
		return BookResponse{}, ErrInvalid("isbn must be 10 or 13 digits")
	}

	b := &Book{
		Title:    strings.TrimSpace(in.Title),
		Author:   strings.TrimSpace(in.Author),
		Category: strings.TrimSpace(in.Category),
		ISBN:     isbn,
	}
	if err := s.store.Insert(ctx, b); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return BookResponse{}, ErrConflict("isbn already exists")
		}
		return BookResponse{}, err
	}

	log.Printf("[INFO] book added: %d (%s)", b.BookID, b.ISBN)

	out, err := s.store.GetByID(ctx, b.BookID)
	if err != nil {
		return BookResponse{}, err
	}
	return *out, nil
}

func (s *Service) GetBook(ctx context.Context, bookID int64) (BookResponse, error) {
	out, err := s.store.GetByID(ctx, bookID)
	if err != nil {
		if err == sql.ErrNoRows {
			return BookResponse{}, ErrNotFound("book not found")
		}
		return BookResponse{}, err
	}
	return *out, nil
}

// GetStatus は availability_status のみを返す（貸出側の事前照会用）
func (s *Service) GetStatus(ctx context.Context, bookID int64) (string, error) {
	status, err := s.store.GetStatus(ctx, bookID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound("book not found")
		}
		return "", err
	}
	return status, nil
}

func (s *Service) ListBooks(ctx context.Context, f BookFilter) ([]BookResponse, error) {
	if f.Status != "" && !IsValidStatus(f.Status) {
		return nil, ErrInvalid("invalid status filter")
	}
	return s.store.List(ctx, f)
}

func (s *Service) UpdateBook(ctx context.Context, bookID int64, in UpdateBookRequest) (BookResponse, error) {
	if in.ISBN != nil {
		isbn := normalizeISBN(*in.ISBN)
		if !isValidISBN(isbn) {
			return BookResponse{}, ErrInvalid("isbn must be 10 or 13 digits")
		}
		in.ISBN = &isbn
	}

	_, err := s.store.Update(ctx, bookID, in)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return BookResponse{}, ErrConflict("isbn already exists for another book")
		}
		return BookResponse{}, err
	}

	return s.GetBook(ctx, bookID)
}

// UpdateAvailability は状態フラグを直接切り替える。
// 遷移の妥当性チェックはしない（メンテナンス切替等の運用操作を想定）。
func (s *Service) UpdateAvailability(ctx context.Context, bookID int64, in UpdateAvailabilityRequest) (BookResponse, error) {
	if !IsValidStatus(in.Status) {
		return BookResponse{}, ErrInvalid("status must be one of: available, issued, maintenance")
	}

	n, err := s.store.UpdateAvailability(ctx, bookID, in.Status)
	if err != nil {
		return BookResponse{}, err
	}
	if n == 0 {
		return BookResponse{}, ErrNotFound("book not found")
	}
	return s.GetBook(ctx, bookID)
}

// DeleteBook は物理削除。貸出中は削除不可。
func (s *Service) DeleteBook(ctx context.Context, bookID int64) error {
	status, err := s.store.GetStatus(ctx, bookID)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound("book not found")
		}
		return err
	}
	if status == StatusIssued {
		return ErrConflict("book is currently issued")
	}

	n, err := s.store.Delete(ctx, bookID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound("book not found")
	}
	log.Printf("[INFO] book deleted: %d", bookID)
	return nil
}

func (s *Service) ListCategories(ctx context.Context) ([]string, error) {
	return s.store.ListCategories(ctx)
}

func (s *Service) GetStatistics(ctx context.Context) (BookStatsResponse, error) {
	st, err := s.store.GetStatistics(ctx)
	if err != nil {
		return BookStatsResponse{}, err
	}
	return *st, nil
}

// ===== helpers =====

// ハイフン・空白を除いた10桁/13桁の数字のみ許可（末尾XのISBN-10も可）
func normalizeISBN(isbn string) string {
	s := strings.ReplaceAll(isbn, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return strings.ToUpper(strings.TrimSpace(s))
}

func isValidISBN(isbn string) bool {
	if len(isbn) != 10 && len(isbn) != 13 {
		return false
	}
	for i, r := range isbn {
		if r >= '0' && r <= '9' {
			continue
		}
		// ISBN-10 のチェックディジットのみ X を許可
		if r == 'X' && len(isbn) == 10 && i == 9 {
			continue
		}
		return false
	}
	return true
}
