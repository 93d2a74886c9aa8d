package circulation

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== テスト用の固定クロック・ID =====

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fixedID struct{ v string }

func (f fixedID) NewULID(time.Time) string { return f.v }

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

const testULID = "01JXTESTULID0000000000000A"

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	d, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	svc := NewService(d, DefaultRules())
	svc.clock = fixedClock{t: testNow}
	svc.id = fixedID{v: testULID}
	return svc, mock
}

func memberLimitColumns() []string {
	return []string{
		"member_id", "first_name", "last_name", "member_type",
		"max_books", "current_issues", "member_status", "has_row",
	}
}

// ===== 貸出 =====

func TestIssueBook_Success(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT availability_status FROM books")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"availability_status"}).AddRow("available"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM members m LEFT JOIN member_limits")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(memberLimitColumns()).
			AddRow(2, "Taro", "Yamada", "Student", 3, 1, "active", true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM transactions")).
		WithArgs(int64(2), 14, testNow).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WithArgs(testULID, int64(1), int64(2), testNow).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE books SET availability_status")).
		WithArgs("issued", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO member_limits")).
		WithArgs(int64(2), 3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE member_limits SET")).
		WithArgs(testNow, testNow, int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := svc.IssueBook(context.Background(), IssueRequest{BookID: 1, MemberID: 2})
	require.NoError(t, err)

	assert.Equal(t, int64(42), got.TransactionID)
	assert.Equal(t, testULID, got.TransactionULID)
	assert.Equal(t, StatusIssued, got.Status)
	assert.Equal(t, testNow, got.IssueDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueBook_InvalidArgs(t *testing.T) {
	svc, mock := newTestService(t)

	_, err := svc.IssueBook(context.Background(), IssueRequest{BookID: 0, MemberID: 2})
	assert.Equal(t, CodeInvalidArgument, ErrCode(err))

	_, err = svc.IssueBook(context.Background(), IssueRequest{BookID: 1, MemberID: -1})
	assert.Equal(t, CodeInvalidArgument, ErrCode(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueBook_BookNotFound(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT availability_status FROM books")).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.IssueBook(context.Background(), IssueRequest{BookID: 99, MemberID: 2})
	assert.Equal(t, CodeBookUnavailable, ErrCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueBook_BookAlreadyIssued(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT availability_status FROM books")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"availability_status"}).AddRow("issued"))
	mock.ExpectRollback()

	_, err := svc.IssueBook(context.Background(), IssueRequest{BookID: 1, MemberID: 2})
	assert.Equal(t, CodeBookUnavailable, ErrCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueBook_MemberNotFound(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT availability_status FROM books")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"availability_status"}).AddRow("available"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM members m LEFT JOIN member_limits")).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.IssueBook(context.Background(), IssueRequest{BookID: 1, MemberID: 99})
	assert.Equal(t, CodeMemberNotFound, ErrCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueBook_MemberSuspended(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT availability_status FROM books")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"availability_status"}).AddRow("available"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM members m LEFT JOIN member_limits")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(memberLimitColumns()).
			AddRow(2, "Taro", "Yamada", "Student", 3, 0, "suspended", true))
	mock.ExpectRollback()

	_, err := svc.IssueBook(context.Background(), IssueRequest{BookID: 1, MemberID: 2})
	assert.Equal(t, CodeMemberNotActive, ErrCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueBook_QuotaExceeded(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT availability_status FROM books")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"availability_status"}).AddRow("available"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM members m LEFT JOIN member_limits")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(memberLimitColumns()).
			AddRow(2, "Taro", "Yamada", "Student", 3, 3, "active", true))
	mock.ExpectRollback()

	_, err := svc.IssueBook(context.Background(), IssueRequest{BookID: 1, MemberID: 2})
	assert.Equal(t, CodeQuotaExceeded, ErrCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueBook_HasOverdueBooks(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT availability_status FROM books")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"availability_status"}).AddRow("available"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM members m LEFT JOIN member_limits")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(memberLimitColumns()).
			AddRow(2, "Taro", "Yamada", "Faculty", 10, 2, "active", true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM transactions")).
		WithArgs(int64(2), 14, testNow).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := svc.IssueBook(context.Background(), IssueRequest{BookID: 1, MemberID: 2})
	assert.Equal(t, CodeHasOverdueBooks, ErrCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// 上限行が無い会員は種別の既定値（Faculty=10）で判定される
func TestIssueBook_NoLimitsRowFallsBackToTypeDefault(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT availability_status FROM books")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"availability_status"}).AddRow("available"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM members m LEFT JOIN member_limits")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(memberLimitColumns()).
			AddRow(2, "Hana", "Sato", "Faculty", 0, 0, "active", false))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM transactions")).
		WithArgs(int64(2), 14, testNow).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WithArgs(testULID, int64(1), int64(2), testNow).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE books SET availability_status")).
		WithArgs("issued", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO member_limits")).
		WithArgs(int64(2), 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE member_limits SET")).
		WithArgs(testNow, testNow, int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := svc.IssueBook(context.Background(), IssueRequest{BookID: 1, MemberID: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.TransactionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ===== 返却 =====

func TestReturnBook_OnTime(t *testing.T) {
	svc, mock := newTestService(t)
	issueDate := testNow.AddDate(0, 0, -10)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT transaction_id, issue_date FROM transactions")).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"transaction_id", "issue_date"}).AddRow(42, issueDate))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions SET status = 'returned'")).
		WithArgs(testNow, 0.0, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE books SET availability_status")).
		WithArgs("available", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO member_limits")).
		WithArgs(int64(2), 3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("total_returned = total_returned + 1")).
		WithArgs(testNow, testNow, int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := svc.ReturnBook(context.Background(), ReturnRequest{BookID: 1, MemberID: 2})
	require.NoError(t, err)

	assert.Equal(t, int64(42), got.TransactionID)
	assert.False(t, got.WasLate)
	assert.InDelta(t, 0.0, got.LateFee, 1e-9)
	assert.Equal(t, testNow, got.ReturnedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReturnBook_Late(t *testing.T) {
	svc, mock := newTestService(t)
	// 20日借りた: 6日超過 x 0.50 = 3.00
	issueDate := testNow.AddDate(0, 0, -20)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT transaction_id, issue_date FROM transactions")).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"transaction_id", "issue_date"}).AddRow(42, issueDate))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions SET status = 'returned'")).
		WithArgs(testNow, 3.0, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE books SET availability_status")).
		WithArgs("available", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO member_limits")).
		WithArgs(int64(2), 3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("late_returns = late_returns + 1")).
		WithArgs(3.0, testNow, testNow, int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := svc.ReturnBook(context.Background(), ReturnRequest{BookID: 1, MemberID: 2})
	require.NoError(t, err)

	assert.True(t, got.WasLate)
	assert.InDelta(t, 3.0, got.LateFee, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReturnBook_NoActiveTransaction(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT transaction_id, issue_date FROM transactions")).
		WithArgs(int64(1), int64(2)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.ReturnBook(context.Background(), ReturnRequest{BookID: 1, MemberID: 2})
	assert.Equal(t, CodeNoActiveTransaction, ErrCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ===== 延長 =====

func TestRenewBook_Success(t *testing.T) {
	svc, mock := newTestService(t)
	issueDate := testNow.AddDate(0, 0, -10)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM transactions t JOIN members m")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"issue_date", "member_status"}).AddRow(issueDate, "active"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions SET issue_date")).
		WithArgs(testNow, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := svc.RenewBook(context.Background(), 42, RenewRequest{})
	require.NoError(t, err)

	assert.Equal(t, testNow, got.IssueDate)
	assert.Equal(t, testNow.AddDate(0, 0, 14), got.DueDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRenewBook_TooOverdue(t *testing.T) {
	svc, mock := newTestService(t)
	// 期間14日 + 猶予7日 = 21日を超えている
	issueDate := testNow.AddDate(0, 0, -25)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM transactions t JOIN members m")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"issue_date", "member_status"}).AddRow(issueDate, "active"))
	mock.ExpectRollback()

	_, err := svc.RenewBook(context.Background(), 42, RenewRequest{})
	assert.Equal(t, CodeTooOverdueToRenew, ErrCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRenewBook_MemberSuspended(t *testing.T) {
	svc, mock := newTestService(t)
	issueDate := testNow.AddDate(0, 0, -5)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM transactions t JOIN members m")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"issue_date", "member_status"}).AddRow(issueDate, "suspended"))
	mock.ExpectRollback()

	_, err := svc.RenewBook(context.Background(), 42, RenewRequest{})
	assert.Equal(t, CodeMemberSuspended, ErrCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRenewBook_NotFound(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM transactions t JOIN members m")).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.RenewBook(context.Background(), 42, RenewRequest{})
	assert.Equal(t, CodeNotRenewable, ErrCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRenewBook_InvalidDays(t *testing.T) {
	svc, mock := newTestService(t)

	days := -1
	_, err := svc.RenewBook(context.Background(), 42, RenewRequest{Days: &days})
	assert.Equal(t, CodeInvalidArgument, ErrCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// 状態フラグが既に available に戻されていても返却は成立する
// （MySQLは値が変わらないUPDATEを0件と報告するが、失敗扱いにしない）
func TestReturnBook_BookAlreadyAvailable(t *testing.T) {
	svc, mock := newTestService(t)
	issueDate := testNow.AddDate(0, 0, -5)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT transaction_id, issue_date FROM transactions")).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"transaction_id", "issue_date"}).AddRow(42, issueDate))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions SET status = 'returned'")).
		WithArgs(testNow, 0.0, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE books SET availability_status")).
		WithArgs("available", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO member_limits")).
		WithArgs(int64(2), 3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("total_returned = total_returned + 1")).
		WithArgs(testNow, testNow, int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := svc.ReturnBook(context.Background(), ReturnRequest{BookID: 1, MemberID: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.TransactionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ===== 書き込み失敗時のロールバック =====

func TestIssueBook_WriteFailureRollsBack(t *testing.T) {
	svc, mock := newTestService(t)
	boom := errors.New("server has gone away")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT availability_status FROM books")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"availability_status"}).AddRow("available"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM members m LEFT JOIN member_limits")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(memberLimitColumns()).
			AddRow(2, "Taro", "Yamada", "Student", 3, 0, "active", true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM transactions")).
		WithArgs(int64(2), 14, testNow).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WithArgs(testULID, int64(1), int64(2), testNow).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE books SET availability_status")).
		WithArgs("issued", int64(1)).
		WillReturnError(boom)
	mock.ExpectRollback()

	_, err := svc.IssueBook(context.Background(), IssueRequest{BookID: 1, MemberID: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, CodeInternal, ErrCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReturnBook_WriteFailureRollsBack(t *testing.T) {
	svc, mock := newTestService(t)
	issueDate := testNow.AddDate(0, 0, -5)
	boom := errors.New("server has gone away")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT transaction_id, issue_date FROM transactions")).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"transaction_id", "issue_date"}).AddRow(42, issueDate))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions SET status = 'returned'")).
		WithArgs(testNow, 0.0, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE books SET availability_status")).
		WithArgs("available", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO member_limits")).
		WithArgs(int64(2), 3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("total_returned = total_returned + 1")).
		WithArgs(testNow, testNow, int64(2)).
		WillReturnError(boom)
	mock.ExpectRollback()

	_, err := svc.ReturnBook(context.Background(), ReturnRequest{BookID: 1, MemberID: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRenewBook_WriteFailureRollsBack(t *testing.T) {
	svc, mock := newTestService(t)
	issueDate := testNow.AddDate(0, 0, -10)
	boom := errors.New("server has gone away")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM transactions t JOIN members m")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"issue_date", "member_status"}).AddRow(issueDate, "active"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions SET issue_date")).
		WithArgs(testNow, int64(42)).
		WillReturnError(boom)
	mock.ExpectRollback()

	_, err := svc.RenewBook(context.Background(), 42, RenewRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ===== 延滞一覧 =====

func TestGetOverdueBooks_AccruedFee(t *testing.T) {
	svc, mock := newTestService(t)
	issueDate := testNow.AddDate(0, 0, -18)

	cols := []string{
		"transaction_id", "transaction_ulid", "book_id", "member_id",
		"title", "author", "member_name", "email",
		"issue_date", "return_date", "status", "late_fee",
	}
	mock.ExpectQuery(regexp.QuoteMeta("FROM transactions t JOIN books b")).
		WithArgs(14, testNow).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(42, testULID, 1, 2, "Dune", "Frank Herbert", "Taro Yamada", "taro@example.com",
				issueDate, nil, StatusIssued, 0.0))

	got, err := svc.GetOverdueBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.True(t, got[0].IsOverdue)
	assert.Equal(t, 18, got[0].DaysIssued)
	assert.Equal(t, 4, got[0].DaysOverdue)
	assert.InDelta(t, 2.0, got[0].AccruedLateFee, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}
