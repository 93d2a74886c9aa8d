package books

import (
	"context"
	"database/sql"
	"strings"

	"LIBRA-backend/internal/platform/db"
)

type Store struct{ db *sql.DB }

func NewStore(d *sql.DB) *Store { return &Store{db: d} }

const bookSelect = `
	SELECT book_id, title, author, category, isbn, availability_status, created_at
	FROM books`

func scanBookRows(rows *sql.Rows) ([]BookResponse, error) {
	var out []BookResponse
	for rows.Next() {
		var r BookResponse
		if err := rows.Scan(
			&r.BookID, &r.Title, &r.Author, &r.Category, &r.ISBN,
			&r.AvailabilityStatus, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Insert(ctx context.Context, b *Book) error {
	const q = `
	INSERT INTO books (title, author, category, isbn, availability_status, created_at)
	VALUES (?, ?, ?, ?, 'available', CURRENT_TIMESTAMP)`
	res, err := s.db.ExecContext(ctx, q, b.Title, b.Author, b.Category, b.ISBN)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	b.BookID = id
	return nil
}

func (s *Store) GetByID(ctx context.Context, bookID int64) (*BookResponse, error) {
	q := bookSelect + `
	WHERE book_id = ?`
	rows, err := s.db.QueryContext(ctx, q, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items, err := scanBookRows(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, sql.ErrNoRows
	}
	return &items[0], nil
}

func (s *Store) GetStatus(ctx context.Context, bookID int64) (string, error) {
	const q = `SELECT availability_status FROM books WHERE book_id = ?`
	var status string
	if err := s.db.QueryRowContext(ctx, q, bookID).Scan(&status); err != nil {
		return "", err
	}
	return status, nil
}

func (s *Store) List(ctx context.Context, f BookFilter) ([]BookResponse, error) {
	sb := strings.Builder{}
	sb.WriteString(bookSelect)
	sb.WriteString(`
	WHERE 1=1`)

	args := []any{}
	if f.Search != "" {
		sb.WriteString(` AND (title LIKE ? OR author LIKE ? OR category LIKE ? OR isbn LIKE ?)`)
		term := "%" + f.Search + "%"
		args = append(args, term, term, term, term)
	}
	if f.Category != "" {
		sb.WriteString(` AND category = ?`)
		args = append(args, f.Category)
	}
	if f.Status != "" {
		sb.WriteString(` AND availability_status = ?`)
		args = append(args, f.Status)
	}
	sb.WriteString(` ORDER BY title, author`)
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
	return scanBookRows(rows)
}

// 動的アップデート
func (s *Store) Update(ctx context.Context, bookID int64, in UpdateBookRequest) (int64, error) {
	sets := []string{}
	args := []any{}
	if in.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *in.Title)
	}
	if in.Author != nil {
		sets = append(sets, "author = ?")
		args = append(args, *in.Author)
	}
	if in.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *in.Category)
	}
	if in.ISBN != nil {
		sets = append(sets, "isbn = ?")
		args = append(args, *in.ISBN)
	}
	if len(sets) == 0 {
		return 0, nil
	}

	q := `UPDATE books SET ` + strings.Join(sets, ", ") + ` WHERE book_id = ?`
	args = append(args, bookID)
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) UpdateAvailability(ctx context.Context, bookID int64, status string) (int64, error) {
	const q = `UPDATE books SET availability_status = ? WHERE book_id = ?`
	res, err := s.db.ExecContext(ctx, q, status, bookID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Delete(ctx context.Context, bookID int64) (int64, error) {
	const q = `DELETE FROM books WHERE book_id = ?`
	res, err := s.db.ExecContext(ctx, q, bookID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	const q = `SELECT DISTINCT category FROM books ORDER BY category`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetStatistics(ctx context.Context) (*BookStatsResponse, error) {
	st := &BookStatsResponse{
		ByStatus:   map[string]int64{},
		ByCategory: map[string]int64{},
	}

	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&st.Total); err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT availability_status, COUNT(*) FROM books GROUP BY availability_status`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var k string
			var n int64
			if err := rows.Scan(&k, &n); err != nil {
				return err
			}
			st.ByStatus[k] = n
		}
		if err := rows.Err(); err != nil {
			return err
		}

		crows, err := tx.QueryContext(ctx,
			`SELECT category, COUNT(*) FROM books GROUP BY category`)
		if err != nil {
			return err
		}
		defer crows.Close()
		for crows.Next() {
			var k string
			var n int64
			if err := crows.Scan(&k, &n); err != nil {
				return err
			}
			st.ByCategory[k] = n
		}
		return crows.Err()
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}
