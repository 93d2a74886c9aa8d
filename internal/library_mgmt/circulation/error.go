package circulation

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeInternal        Code = "INTERNAL"

	// 貸出前チェック
	CodeBookUnavailable Code = "BOOK_UNAVAILABLE"
	CodeMemberNotFound  Code = "MEMBER_NOT_FOUND"
	CodeMemberNotActive Code = "MEMBER_NOT_ACTIVE"
	CodeQuotaExceeded   Code = "QUOTA_EXCEEDED"
	CodeHasOverdueBooks Code = "HAS_OVERDUE_BOOKS"

	// 返却
	CodeNoActiveTransaction Code = "NO_ACTIVE_TRANSACTION"

	// 延長
	CodeNotRenewable      Code = "NOT_RENEWABLE"
	CodeMemberSuspended   Code = "MEMBER_SUSPENDED"
	CodeTooOverdueToRenew Code = "TOO_OVERDUE_TO_RENEW"
)

type APIError struct {
	Code    Code
	Message string
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

func ErrBookUnavailable(msg string) *APIError {
	return &APIError{Code: CodeBookUnavailable, Message: msg}
}
func ErrMemberNotFound(msg string) *APIError {
	return &APIError{Code: CodeMemberNotFound, Message: msg}
}
func ErrMemberNotActive(msg string) *APIError {
	return &APIError{Code: CodeMemberNotActive, Message: msg}
}
func ErrQuotaExceeded(msg string) *APIError {
	return &APIError{Code: CodeQuotaExceeded, Message: msg}
}
func ErrHasOverdueBooks(msg string) *APIError {
	return &APIError{Code: CodeHasOverdueBooks, Message: msg}
}
func ErrNoActiveTransaction(msg string) *APIError {
	return &APIError{Code: CodeNoActiveTransaction, Message: msg}
}
func ErrNotRenewable(msg string) *APIError {
	return &APIError{Code: CodeNotRenewable, Message: msg}
}
func ErrMemberSuspended(msg string) *APIError {
	return &APIError{Code: CodeMemberSuspended, Message: msg}
}
func ErrTooOverdueToRenew(msg string) *APIError {
	return &APIError{Code: CodeTooOverdueToRenew, Message: msg}
}

// ErrCode は err が APIError ならそのコードを返す（テスト・ハンドラ用）
func ErrCode(err error) Code {
	var api *APIError
	if errors.As(err, &api) {
		return api.Code
	}
	return CodeInternal
}

func ToHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound, CodeMemberNotFound, CodeNoActiveTransaction, CodeNotRenewable:
			return 404
		case CodeBookUnavailable, CodeMemberNotActive, CodeQuotaExceeded,
			CodeHasOverdueBooks, CodeMemberSuspended, CodeTooOverdueToRenew:
			return 409
		default:
			return 500
		}
	}
	return 500
}
