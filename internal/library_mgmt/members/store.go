package members

import (
	"context"
	"database/sql"
	"strings"

	"LIBRA-backend/internal/platform/db"
)

type Store struct{ db *sql.DB }

func NewStore(d *sql.DB) *Store { return &Store{db: d} }

const memberSelect = `
	SELECT m.member_id, m.first_name, m.last_name, m.email, m.phone,
	       m.member_type, m.is_active, m.join_date,
	       COALESCE(ml.max_books, 3), COALESCE(ml.current_issues, 0),
	       COALESCE(ml.member_status, 'active'), COALESCE(ml.fine_balance, 0)
	FROM members m
	LEFT JOIN member_limits ml ON ml.member_id = m.member_id`

func scanMemberRows(rows *sql.Rows) ([]MemberResponse, error) {
	var out []MemberResponse
	for rows.Next() {
		var r MemberResponse
		if err := rows.Scan(
			&r.MemberID, &r.FirstName, &r.LastName, &r.Email, &r.Phone,
			&r.MemberType, &r.IsActive, &r.JoinDate,
			&r.MaxBooks, &r.CurrentIssues, &r.MemberStatus, &r.FineBalance,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Insert は会員と上限行を1つのTxで作成する。
// 上限の既定値は種別テーブルから引く（作成時のみ。種別変更で遡及しない）。
func (s *Store) Insert(ctx context.Context, m *Member) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		const q = `
		INSERT INTO members (first_name, last_name, email, phone, member_type, is_active, join_date)
		VALUES (?, ?, ?, ?, ?, 1, CURRENT_TIMESTAMP)`
		res, err := tx.ExecContext(ctx, q, m.FirstName, m.LastName, m.Email, m.Phone, m.MemberType)
		if err != nil {
			return err
		}
		id, _ := res.LastInsertId()
		m.MemberID = id

		const lq = `INSERT INTO member_limits (member_id, max_books) VALUES (?, ?)`
		_, err = tx.ExecContext(ctx, lq, id, DefaultBookLimit(m.MemberType))
		return err
	})
}

func (s *Store) GetByID(ctx context.Context, memberID int64) (*MemberResponse, error) {
	q := memberSelect + `
	WHERE m.member_id = ?`
	rows, err := s.db.QueryContext(ctx, q, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items, err := scanMemberRows(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, sql.ErrNoRows
	}
	return &items[0], nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*MemberResponse, error) {
	q := memberSelect + `
	WHERE m.email = ?`
	rows, err := s.db.QueryContext(ctx, q, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items, err := scanMemberRows(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, sql.ErrNoRows
	}
	return &items[0], nil
}

func (s *Store) List(ctx context.Context, f MemberFilter) ([]MemberResponse, error) {
	sb := strings.Builder{}
	sb.WriteString(memberSelect)
	sb.WriteString(`
	WHERE m.is_active = 1`)

	args := []any{}
	if f.Search != "" {
		sb.WriteString(` AND (m.first_name LIKE ? OR m.last_name LIKE ? OR m.email LIKE ? OR m.phone LIKE ?)`)
		term := "%" + f.Search + "%"
		args = append(args, term, term, term, term)
	}
	if f.MemberType != "" {
		sb.WriteString(` AND m.member_type = ?`)
		args = append(args, f.MemberType)
	}
	sb.WriteString(` ORDER BY m.member_id`)
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	sb.WriteString(` LIMIT ? OFFSET ?`)
	args = append(args, f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMemberRows(rows)
}

// 動的アップデート
func (s *Store) Update(ctx context.Context, memberID int64, in UpdateMemberRequest) (int64, error) {
	sets := []string{}
	args := []any{}
	if in.FirstName != nil {
		sets = append(sets, "first_name = ?")
		args = append(args, *in.FirstName)
	}
	if in.LastName != nil {
		sets = append(sets, "last_name = ?")
		args = append(args, *in.LastName)
	}
	if in.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *in.Email)
	}
	if in.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, *in.Phone)
	}
	if in.MemberType != nil {
		sets = append(sets, "member_type = ?")
		args = append(args, *in.MemberType)
	}
	if len(sets) == 0 {
		return 0, nil
	}

	q := `UPDATE members SET ` + strings.Join(sets, ", ") + ` WHERE member_id = ? AND is_active = 1`
	args = append(args, memberID)
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) UpdateStatus(ctx context.Context, memberID int64, status string) (int64, error) {
	const q = `UPDATE member_limits SET member_status = ?, updated_at = CURRENT_TIMESTAMP WHERE member_id = ?`
	res, err := s.db.ExecContext(ctx, q, status, memberID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// 物理削除はしない（貸出履歴が参照するため is_active を落とすだけ）
func (s *Store) SoftDelete(ctx context.Context, memberID int64) (int64, error) {
	const q = `UPDATE members SET is_active = 0 WHERE member_id = ? AND is_active = 1`
	res, err := s.db.ExecContext(ctx, q, memberID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// 未返却の貸出が残っている会員か
func (s *Store) HasActiveLoans(ctx context.Context, memberID int64) (bool, error) {
	const q = `SELECT COUNT(*) FROM transactions WHERE member_id = ? AND status = 'issued'`
	var n int
	if err := s.db.QueryRowContext(ctx, q, memberID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) GetStatistics(ctx context.Context) (*MemberStatsResponse, error) {
	st := &MemberStatsResponse{ByType: map[string]int64{}}

	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM members WHERE is_active = 1`).Scan(&st.TotalActive); err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx, `
		SELECT COALESCE(member_type, 'General'), COUNT(*)
		FROM members WHERE is_active = 1 GROUP BY member_type`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var t string
			var n int64
			if err := rows.Scan(&t, &n); err != nil {
				return err
			}
			st.ByType[t] = n
		}
		if err := rows.Err(); err != nil {
			return err
		}

		if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(fine_balance), 0)
		FROM member_limits WHERE fine_balance > 0`).Scan(&st.WithFines, &st.TotalFineBalance); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM member_limits
		WHERE current_issues >= max_books AND member_status = 'active'`).Scan(&st.AtLimit)
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}
