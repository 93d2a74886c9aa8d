package circulation

import (
	"context"
	"crypto/rand"
	"database/sql"
	"log"
	"time"

	ulid "github.com/oklog/ulid/v2"
)

// -------------- Clock & ID --------------

type Clock interface{ Now() time.Time }
type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type IDGen interface{ NewULID(t time.Time) string }
type ulidGen struct{}

func (ulidGen) NewULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// -------------- Service --------------

type Service struct {
	db    *sql.DB
	store *Store
	clock Clock
	id    IDGen
	rules Rules
}

func NewService(d *sql.DB, rules Rules) *Service {
	return &Service{
		db:    d,
		store: NewStore(d),
		clock: realClock{},
		id:    ulidGen{},
		rules: rules,
	}
}

// IssueBook は会員へ蔵書を1冊貸し出す。
// チェックと書き込みはStore側の1トランザクションで行われ、途中で失敗したら何も残らない。
func (s *Service) IssueBook(ctx context.Context, in IssueRequest) (LoanResponse, error) {
	if in.BookID <= 0 || in.MemberID <= 0 {
		return LoanResponse{}, ErrInvalid("book_id and member_id are required")
	}

	now := s.clock.Now()
	t := &Transaction{
		TransactionULID: s.id.NewULID(now),
		BookID:          in.BookID,
		MemberID:        in.MemberID,
		IssueDate:       now,
		Status:          StatusIssued,
	}

	if err := s.store.ExecIssueBook(ctx, t, s.rules.BorrowingPeriodDays); err != nil {
		return LoanResponse{}, err
	}

	log.Printf("[INFO] book %d issued to member %d (transaction %d)", in.BookID, in.MemberID, t.TransactionID)

	return LoanResponse{
		TransactionID:   t.TransactionID,
		TransactionULID: t.TransactionULID,
		BookID:          t.BookID,
		MemberID:        t.MemberID,
		IssueDate:       t.IssueDate,
		Status:          t.Status,
	}, nil
}

// ReturnBook は返却処理を行い、延滞料金（0円でも）を返す。
func (s *Service) ReturnBook(ctx context.Context, in ReturnRequest) (ReturnResponse, error) {
	if in.BookID <= 0 || in.MemberID <= 0 {
		return ReturnResponse{}, ErrInvalid("book_id and member_id are required")
	}

	now := s.clock.Now()
	txnID, fee, wasLate, err := s.store.ExecReturnBook(ctx, in.BookID, in.MemberID, s.rules, now)
	if err != nil {
		return ReturnResponse{}, err
	}

	log.Printf("[INFO] book %d returned by member %d, late fee: %.2f", in.BookID, in.MemberID, fee)

	return ReturnResponse{
		TransactionID: txnID,
		BookID:        in.BookID,
		MemberID:      in.MemberID,
		ReturnedAt:    now,
		LateFee:       fee,
		WasLate:       wasLate,
	}, nil
}

// RenewBook は貸出期間を今日から引き直す。冊数カウンタは変化しない。
func (s *Service) RenewBook(ctx context.Context, transactionID int64, in RenewRequest) (RenewResponse, error) {
	if transactionID <= 0 {
		return RenewResponse{}, ErrInvalid("transaction_id is required")
	}
	if in.Days != nil && *in.Days <= 0 {
		return RenewResponse{}, ErrInvalid("days must be > 0")
	}

	now := s.clock.Now()
	newIssue, err := s.store.ExecRenewBook(ctx, transactionID, s.rules, now)
	if err != nil {
		return RenewResponse{}, err
	}

	log.Printf("[INFO] transaction %d renewed", transactionID)

	return RenewResponse{
		TransactionID: transactionID,
		IssueDate:     newIssue,
		DueDate:       newIssue.AddDate(0, 0, s.rules.BorrowingPeriodDays),
	}, nil
}

// ===== 参照系 =====

func (s *Service) GetIssuedBooks(ctx context.Context) ([]LoanResponse, error) {
	rows, err := s.store.ListIssued(ctx)
	if err != nil {
		return nil, err
	}
	return s.buildLoanResponses(rows), nil
}

func (s *Service) GetOverdueBooks(ctx context.Context) ([]LoanResponse, error) {
	now := s.clock.Now()
	rows, err := s.store.ListOverdue(ctx, s.rules.BorrowingPeriodDays, now)
	if err != nil {
		return nil, err
	}

	out := s.buildLoanResponses(rows)
	for i := range out {
		out[i].DaysOverdue = out[i].DaysIssued - s.rules.BorrowingPeriodDays
		if out[i].DaysOverdue < 0 {
			out[i].DaysOverdue = 0
		}
		// 返却時点ではなく現時点までの見込み延滞料金
		out[i].AccruedLateFee = CalculateLateFee(s.rules, rows[i].IssueDate, now)
	}
	return out, nil
}

func (s *Service) GetTransactionHistory(ctx context.Context, limit int) ([]LoanResponse, error) {
	rows, err := s.store.ListHistory(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.buildLoanResponses(rows), nil
}

func (s *Service) GetMemberTransactions(ctx context.Context, memberID int64) ([]LoanResponse, error) {
	if memberID <= 0 {
		return nil, ErrInvalid("member_id is required")
	}
	rows, err := s.store.ListByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return s.buildLoanResponses(rows), nil
}

func (s *Service) GetBookTransactions(ctx context.Context, bookID int64) ([]LoanResponse, error) {
	if bookID <= 0 {
		return nil, ErrInvalid("book_id is required")
	}
	rows, err := s.store.ListByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	return s.buildLoanResponses(rows), nil
}

func (s *Service) GetTransaction(ctx context.Context, transactionID int64) (LoanResponse, error) {
	if transactionID <= 0 {
		return LoanResponse{}, ErrInvalid("transaction_id is required")
	}
	row, err := s.store.GetByID(ctx, transactionID)
	if err != nil {
		return LoanResponse{}, err
	}
	return s.buildLoanResponse(*row), nil
}

func (s *Service) GetMemberSummary(ctx context.Context, memberID int64) (MemberSummaryResponse, error) {
	if memberID <= 0 {
		return MemberSummaryResponse{}, ErrInvalid("member_id is required")
	}

	d, err := s.store.GetMemberSummary(ctx, memberID)
	if err != nil {
		return MemberSummaryResponse{}, err
	}

	now := s.clock.Now()
	issued := make([]IssuedBookInfo, 0, len(d.IssuedBooks))
	overdueCount := 0
	for _, b := range d.IssuedBooks {
		days := DaysBetween(b.IssueDate, now)
		isOverdue := days > s.rules.BorrowingPeriodDays
		if isOverdue {
			overdueCount++
		}
		issued = append(issued, IssuedBookInfo{
			TransactionID: b.TransactionID,
			BookID:        b.BookID,
			Title:         b.Title,
			Author:        b.Author,
			IssueDate:     b.IssueDate,
			DaysIssued:    days,
			IsOverdue:     isOverdue,
		})
	}

	availableSlots := d.MaxBooks - d.CurrentIssues
	if availableSlots < 0 {
		availableSlots = 0
	}

	return MemberSummaryResponse{
		MemberID:           d.MemberID,
		Name:               d.FirstName + " " + d.LastName,
		Email:              d.Email,
		MemberType:         d.MemberType,
		MaxBooks:           d.MaxBooks,
		CurrentIssues:      d.CurrentIssues,
		TotalIssued:        d.TotalIssued,
		TotalReturned:      d.TotalReturned,
		LateReturns:        d.LateReturns,
		MemberStatus:       d.MemberStatus,
		FineBalance:        d.FineBalance,
		OverdueCount:       overdueCount,
		CanIssueMore:       d.CurrentIssues < d.MaxBooks && d.MemberStatus == "active" && overdueCount == 0,
		AvailableSlots:     availableSlots,
		IssuedBooks:        issued,
		RecentTransactions: s.buildLoanResponses(d.Recent),
	}, nil
}

func (s *Service) GetStatistics(ctx context.Context) (StatsResponse, error) {
	st, err := s.store.GetStatistics(ctx, s.rules.BorrowingPeriodDays, s.clock.Now())
	if err != nil {
		return StatsResponse{}, err
	}
	return *st, nil
}

// ===== レスポンス組み立て =====

func (s *Service) buildLoanResponse(r loanRow) LoanResponse {
	resp := LoanResponse{
		TransactionID:   r.TransactionID,
		TransactionULID: r.TransactionULID,
		BookID:          r.BookID,
		MemberID:        r.MemberID,
		BookTitle:       r.BookTitle,
		BookAuthor:      r.BookAuthor,
		MemberName:      r.MemberName,
		IssueDate:       r.IssueDate,
		Status:          r.Status,
		LateFee:         r.LateFee,
	}
	if r.Email.Valid {
		v := r.Email.String
		resp.MemberEmail = &v
	}
	if r.ReturnDate.Valid {
		v := r.ReturnDate.Time
		resp.ReturnDate = &v
	}

	// 貸出中のものは経過日数と延滞フラグを付ける
	if r.Status == StatusIssued {
		resp.DaysIssued = DaysBetween(r.IssueDate, s.clock.Now())
		resp.IsOverdue = resp.DaysIssued > s.rules.BorrowingPeriodDays
	}
	return resp
}

func (s *Service) buildLoanResponses(rows []loanRow) []LoanResponse {
	out := make([]LoanResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, s.buildLoanResponse(r))
	}
	return out
}
