package circulation

import (
	"context"
	"database/sql"
	"time"

	"LIBRA-backend/internal/library_mgmt/members"
	"LIBRA-backend/internal/platform/db"
)

type Store struct {
	db *sql.DB
}

func NewStore(d *sql.DB) *Store { return &Store{db: d} }

// ===== 貸出・返却・延長（すべて1トランザクション） =====

// ExecIssueBook は貸出前チェックと全書き込みを1つのTxで行う。
// チェック順は固定: 蔵書→会員→会員ステータス→冊数上限→延滞有無。
func (s *Store) ExecIssueBook(ctx context.Context, t *Transaction, periodDays int) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		// 1. 蔵書の状態（行ロック）
		const bq = `SELECT availability_status FROM books WHERE book_id = ? FOR UPDATE`
		var status string
		if err := tx.QueryRowContext(ctx, bq, t.BookID).Scan(&status); err != nil {
			if err == sql.ErrNoRows {
				return ErrBookUnavailable("book not found")
			}
			return err
		}
		if status != "available" {
			return ErrBookUnavailable("book is not available for issue")
		}

		// 2-4. 会員＋貸出上限（上限行が無ければ会員種別から既定値を引く）
		m, err := getMemberLimitsTx(ctx, tx, t.MemberID)
		if err != nil {
			return err
		}
		if m.MemberStatus != "active" {
			return ErrMemberNotActive("member is " + m.MemberStatus)
		}
		if m.CurrentIssues >= m.MaxBooks {
			return ErrQuotaExceeded("member has reached maximum book limit")
		}

		// 5. 延滞中の貸出が1件でもあれば新規貸出不可
		const oq = `
		SELECT COUNT(*) FROM transactions
		WHERE member_id = ? AND status = 'issued'
		  AND DATE_ADD(issue_date, INTERVAL ? DAY) < ?`
		var overdue int
		if err := tx.QueryRowContext(ctx, oq, t.MemberID, periodDays, t.IssueDate).Scan(&overdue); err != nil {
			return err
		}
		if overdue > 0 {
			return ErrHasOverdueBooks("member has overdue books")
		}

		// 貸出レコード作成
		const iq = `
		INSERT INTO transactions (transaction_ulid, book_id, member_id, issue_date, status)
		VALUES (?, ?, ?, ?, 'issued')`
		res, err := tx.ExecContext(ctx, iq, t.TransactionULID, t.BookID, t.MemberID, t.IssueDate)
		if err != nil {
			return err
		}
		id, _ := res.LastInsertId()
		t.TransactionID = id

		// 蔵書を貸出中へ
		if err := setBookStatusTx(ctx, tx, t.BookID, "issued"); err != nil {
			return err
		}

		// 上限行を保証してからカウンタ加算
		if err := ensureLimitsRowTx(ctx, tx, t.MemberID, m.MaxBooks); err != nil {
			return err
		}
		const uq = `
		UPDATE member_limits SET
		  current_issues = current_issues + 1,
		  total_issued = total_issued + 1,
		  last_visit_at = ?,
		  updated_at = ?
		WHERE member_id = ?`
		if _, err := tx.ExecContext(ctx, uq, t.IssueDate, t.IssueDate, t.MemberID); err != nil {
			return err
		}
		return nil
	})
}

// ExecReturnBook は未返却の貸出を1件探して返却処理を行い、対象の取引IDと延滞料金を返す。
func (s *Store) ExecReturnBook(ctx context.Context, bookID, memberID int64, rules Rules, now time.Time) (int64, float64, bool, error) {
	var txnID int64
	var fee float64
	var wasLate bool

	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		const fq = `
		SELECT transaction_id, issue_date FROM transactions
		WHERE book_id = ? AND member_id = ? AND status = 'issued'
		FOR UPDATE`
		var issueDate time.Time
		if err := tx.QueryRowContext(ctx, fq, bookID, memberID).Scan(&txnID, &issueDate); err != nil {
			if err == sql.ErrNoRows {
				return ErrNoActiveTransaction("no active transaction for this book and member")
			}
			return err
		}

		fee = CalculateLateFee(rules, issueDate, now)
		wasLate = fee > 0

		const rq = `
		UPDATE transactions SET status = 'returned', return_date = ?, late_fee = ?
		WHERE transaction_id = ?`
		if _, err := tx.ExecContext(ctx, rq, now, fee, txnID); err != nil {
			return err
		}

		if err := setBookStatusTx(ctx, tx, bookID, "available"); err != nil {
			return err
		}

		// 上限行の遅延作成（種別不明の旧データは最小枠で作る）
		if err := ensureLimitsRowTx(ctx, tx, memberID, 3); err != nil {
			return err
		}
		if wasLate {
			const uq = `
			UPDATE member_limits SET
			  current_issues = GREATEST(0, current_issues - 1),
			  total_returned = total_returned + 1,
			  late_returns = late_returns + 1,
			  fine_balance = fine_balance + ?,
			  last_visit_at = ?,
			  updated_at = ?
			WHERE member_id = ?`
			if _, err := tx.ExecContext(ctx, uq, fee, now, now, memberID); err != nil {
				return err
			}
		} else {
			const uq = `
			UPDATE member_limits SET
			  current_issues = GREATEST(0, current_issues - 1),
			  total_returned = total_returned + 1,
			  last_visit_at = ?,
			  updated_at = ?
			WHERE member_id = ?`
			if _, err := tx.ExecContext(ctx, uq, now, now, memberID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, false, err
	}
	return txnID, fee, wasLate, nil
}

// ExecRenewBook は貸出中レコードの issue_date を now に引き直す。
// 冊数カウンタには触れない（貸出期間のリセットのみ）。
func (s *Store) ExecRenewBook(ctx context.Context, transactionID int64, rules Rules, now time.Time) (time.Time, error) {
	var newIssue time.Time

	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		const q = `
		SELECT t.issue_date, COALESCE(ml.member_status, 'active')
		FROM transactions t
		JOIN members m ON m.member_id = t.member_id
		LEFT JOIN member_limits ml ON ml.member_id = t.member_id
		WHERE t.transaction_id = ? AND t.status = 'issued' AND m.is_active = 1
		FOR UPDATE`
		var issueDate time.Time
		var memberStatus string
		if err := tx.QueryRowContext(ctx, q, transactionID).Scan(&issueDate, &memberStatus); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotRenewable("no renewable transaction found")
			}
			return err
		}
		if memberStatus != "active" {
			return ErrMemberSuspended("member is " + memberStatus)
		}

		// 猶予（grace）を超えて延滞した貸出は延長不可
		if DaysBetween(issueDate, now) > rules.BorrowingPeriodDays+rules.RenewalGraceDays {
			return ErrTooOverdueToRenew("transaction is too overdue to renew")
		}

		const uq = `UPDATE transactions SET issue_date = ? WHERE transaction_id = ?`
		if _, err := tx.ExecContext(ctx, uq, now, transactionID); err != nil {
			return err
		}
		newIssue = now
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	return newIssue, nil
}

// ===== Tx内ヘルパー =====

func getMemberLimitsTx(ctx context.Context, tx db.DBTX, memberID int64) (*memberLimitRow, error) {
	const q = `
	SELECT m.member_id, m.first_name, m.last_name, m.member_type,
	       COALESCE(ml.max_books, 0), COALESCE(ml.current_issues, 0),
	       COALESCE(ml.member_status, 'active'),
	       ml.member_id IS NOT NULL
	FROM members m
	LEFT JOIN member_limits ml ON ml.member_id = m.member_id
	WHERE m.member_id = ? AND m.is_active = 1
	FOR UPDATE`
	var r memberLimitRow
	err := tx.QueryRowContext(ctx, q, memberID).Scan(
		&r.MemberID, &r.FirstName, &r.LastName, &r.MemberType,
		&r.MaxBooks, &r.CurrentIssues, &r.MemberStatus, &r.HasLimitsRow,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMemberNotFound("active member not found")
		}
		return nil, err
	}
	if !r.HasLimitsRow {
		r.MaxBooks = members.DefaultBookLimit(r.MemberType)
	}
	return &r, nil
}

// MySQLドライバは一致行数ではなく変更行数を返すため、既に同じ値の行は0件になる。
// 行の存在は事前チェック（貸出時の蔵書SELECT、返却時の貸出レコード）で担保されて
// いるので、ここでは件数を見ない。
func setBookStatusTx(ctx context.Context, tx db.DBTX, bookID int64, status string) error {
	const q = `UPDATE books SET availability_status = ? WHERE book_id = ?`
	_, err := tx.ExecContext(ctx, q, status, bookID)
	return err
}

// 上限行が無い会員（旧データ）のために遅延作成する
func ensureLimitsRowTx(ctx context.Context, tx db.DBTX, memberID int64, maxBooks int) error {
	const q = `INSERT IGNORE INTO member_limits (member_id, max_books) VALUES (?, ?)`
	_, err := tx.ExecContext(ctx, q, memberID, maxBooks)
	return err
}

// ===== 参照系 =====

const loanSelect = `
	SELECT t.transaction_id, t.transaction_ulid, t.book_id, t.member_id,
	       b.title, b.author,
	       COALESCE(CONCAT(m.first_name, ' ', m.last_name), 'Unknown'),
	       m.email,
	       t.issue_date, t.return_date, t.status, t.late_fee
	FROM transactions t
	JOIN books b ON b.book_id = t.book_id
	LEFT JOIN members m ON m.member_id = t.member_id`

func scanLoanRows(rows *sql.Rows) ([]loanRow, error) {
	var out []loanRow
	for rows.Next() {
		var r loanRow
		if err := rows.Scan(
			&r.TransactionID, &r.TransactionULID, &r.BookID, &r.MemberID,
			&r.BookTitle, &r.BookAuthor, &r.MemberName, &r.Email,
			&r.IssueDate, &r.ReturnDate, &r.Status, &r.LateFee,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListIssued(ctx context.Context) ([]loanRow, error) {
	q := loanSelect + `
	WHERE t.status = 'issued'
	ORDER BY t.issue_date`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLoanRows(rows)
}

func (s *Store) ListOverdue(ctx context.Context, periodDays int, now time.Time) ([]loanRow, error) {
	q := loanSelect + `
	WHERE t.status = 'issued'
	  AND DATE_ADD(t.issue_date, INTERVAL ? DAY) < ?
	ORDER BY t.issue_date`
	rows, err := s.db.QueryContext(ctx, q, periodDays, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLoanRows(rows)
}

func (s *Store) ListHistory(ctx context.Context, limit int) ([]loanRow, error) {
	if limit <= 0 {
		limit = 100
	}
	q := loanSelect + `
	ORDER BY t.issue_date DESC
	LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLoanRows(rows)
}

func (s *Store) ListByMember(ctx context.Context, memberID int64) ([]loanRow, error) {
	q := loanSelect + `
	WHERE t.member_id = ?
	ORDER BY t.issue_date DESC`
	rows, err := s.db.QueryContext(ctx, q, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLoanRows(rows)
}

func (s *Store) ListByBook(ctx context.Context, bookID int64) ([]loanRow, error) {
	q := loanSelect + `
	WHERE t.book_id = ?
	ORDER BY t.issue_date DESC`
	rows, err := s.db.QueryContext(ctx, q, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLoanRows(rows)
}

func (s *Store) GetByID(ctx context.Context, transactionID int64) (*loanRow, error) {
	q := loanSelect + `
	WHERE t.transaction_id = ?`
	rows, err := s.db.QueryContext(ctx, q, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items, err := scanLoanRows(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound("transaction not found")
	}
	return &items[0], nil
}

// 会員サマリ用の生データ
type memberSummaryData struct {
	MemberID      int64
	FirstName     string
	LastName      string
	Email         string
	MemberType    string
	MaxBooks      int
	CurrentIssues int
	TotalIssued   int
	TotalReturned int
	LateReturns   int
	MemberStatus  string
	FineBalance   float64
	IssuedBooks   []issuedBookRow
	Recent        []loanRow
}

type issuedBookRow struct {
	TransactionID int64
	BookID        int64
	Title         string
	Author        string
	IssueDate     time.Time
}

func (s *Store) GetMemberSummary(ctx context.Context, memberID int64) (*memberSummaryData, error) {
	var d memberSummaryData

	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		const mq = `
		SELECT m.member_id, m.first_name, m.last_name, m.email, m.member_type,
		       COALESCE(ml.max_books, 3), COALESCE(ml.current_issues, 0),
		       COALESCE(ml.total_issued, 0), COALESCE(ml.total_returned, 0),
		       COALESCE(ml.late_returns, 0), COALESCE(ml.member_status, 'active'),
		       COALESCE(ml.fine_balance, 0)
		FROM members m
		LEFT JOIN member_limits ml ON ml.member_id = m.member_id
		WHERE m.member_id = ? AND m.is_active = 1`
		err := tx.QueryRowContext(ctx, mq, memberID).Scan(
			&d.MemberID, &d.FirstName, &d.LastName, &d.Email, &d.MemberType,
			&d.MaxBooks, &d.CurrentIssues, &d.TotalIssued, &d.TotalReturned,
			&d.LateReturns, &d.MemberStatus, &d.FineBalance,
		)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrMemberNotFound("active member not found")
			}
			return err
		}

		// 貸出中の一覧
		const iq = `
		SELECT t.transaction_id, b.book_id, b.title, b.author, t.issue_date
		FROM transactions t
		JOIN books b ON b.book_id = t.book_id
		WHERE t.member_id = ? AND t.status = 'issued'
		ORDER BY t.issue_date ASC`
		rows, err := tx.QueryContext(ctx, iq, memberID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r issuedBookRow
			if err := rows.Scan(&r.TransactionID, &r.BookID, &r.Title, &r.Author, &r.IssueDate); err != nil {
				return err
			}
			d.IssuedBooks = append(d.IssuedBooks, r)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		// 直近10件の履歴
		hq := loanSelect + `
		WHERE t.member_id = ?
		ORDER BY t.issue_date DESC
		LIMIT 10`
		hrows, err := tx.QueryContext(ctx, hq, memberID)
		if err != nil {
			return err
		}
		defer hrows.Close()
		d.Recent, err = scanLoanRows(hrows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) GetStatistics(ctx context.Context, periodDays int, now time.Time) (*StatsResponse, error) {
	var st StatsResponse

	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM transactions`).Scan(&st.TotalTransactions); err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM transactions WHERE status = 'issued'`).Scan(&st.CurrentlyIssued); err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM transactions WHERE status = 'returned'`).Scan(&st.TotalReturned); err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transactions
		WHERE status = 'issued' AND DATE_ADD(issue_date, INTERVAL ? DAY) < ?`,
			periodDays, now).Scan(&st.OverdueCount); err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(late_fee), 0) FROM transactions WHERE status = 'returned'`).Scan(&st.TotalLateFees); err != nil {
			return err
		}
		var avg sql.NullFloat64
		if err := tx.QueryRowContext(ctx, `
		SELECT AVG(TIMESTAMPDIFF(DAY, issue_date, return_date))
		FROM transactions WHERE status = 'returned' AND return_date IS NOT NULL`).Scan(&avg); err != nil {
			return err
		}
		if avg.Valid {
			st.AverageBorrowingDays = avg.Float64
		}
		if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM member_limits
		WHERE current_issues >= max_books AND member_status = 'active'`).Scan(&st.MembersAtLimit); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}
