package circulation

import "time"

// 貸出リクエスト
type IssueRequest struct {
	BookID   int64 `json:"book_id" binding:"required"`
	MemberID int64 `json:"member_id" binding:"required"`
}

// 返却リクエスト
type ReturnRequest struct {
	BookID   int64 `json:"book_id" binding:"required"`
	MemberID int64 `json:"member_id" binding:"required"`
}

// 延長リクエスト。Days は省略可（指定有無にかかわらず標準貸出期間で引き直す）
type RenewRequest struct {
	Days *int `json:"days,omitempty"`
}

// 貸出レスポンス
type LoanResponse struct {
	TransactionID   int64      `json:"transaction_id"`
	TransactionULID string     `json:"transaction_ulid"`
	BookID          int64      `json:"book_id"`
	MemberID        int64      `json:"member_id"`
	BookTitle       string     `json:"book_title,omitempty"`
	BookAuthor      string     `json:"book_author,omitempty"`
	MemberName      string     `json:"member_name,omitempty"`
	MemberEmail     *string    `json:"member_email,omitempty"`
	IssueDate       time.Time  `json:"issue_date"`
	ReturnDate      *time.Time `json:"return_date,omitempty"`
	Status          string     `json:"status"`
	LateFee         float64    `json:"late_fee"`
	DaysIssued      int        `json:"days_issued"`
	IsOverdue       bool       `json:"is_overdue"`
	DaysOverdue     int        `json:"days_overdue,omitempty"`
	AccruedLateFee  float64    `json:"accrued_late_fee,omitempty"`
}

// 返却レスポンス。延滞がなくても late_fee=0 で必ず返す
type ReturnResponse struct {
	TransactionID int64     `json:"transaction_id"`
	BookID        int64     `json:"book_id"`
	MemberID      int64     `json:"member_id"`
	ReturnedAt    time.Time `json:"returned_at"`
	LateFee       float64   `json:"late_fee"`
	WasLate       bool      `json:"was_late"`
}

// 延長レスポンス
type RenewResponse struct {
	TransactionID int64     `json:"transaction_id"`
	IssueDate     time.Time `json:"issue_date"`
	DueDate       time.Time `json:"due_date"`
}

// 会員別の貸出中1冊分
type IssuedBookInfo struct {
	TransactionID int64     `json:"transaction_id"`
	BookID        int64     `json:"book_id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	IssueDate     time.Time `json:"issue_date"`
	DaysIssued    int       `json:"days_issued"`
	IsOverdue     bool      `json:"is_overdue"`
}

// 会員別サマリ
type MemberSummaryResponse struct {
	MemberID           int64            `json:"member_id"`
	Name               string           `json:"name"`
	Email              string           `json:"email"`
	MemberType         string           `json:"member_type"`
	MaxBooks           int              `json:"max_books"`
	CurrentIssues      int              `json:"current_issues"`
	TotalIssued        int              `json:"total_issued"`
	TotalReturned      int              `json:"total_returned"`
	LateReturns        int              `json:"late_returns"`
	MemberStatus       string           `json:"member_status"`
	FineBalance        float64          `json:"fine_balance"`
	OverdueCount       int              `json:"overdue_count"`
	CanIssueMore       bool             `json:"can_issue_more"`
	AvailableSlots     int              `json:"available_slots"`
	IssuedBooks        []IssuedBookInfo `json:"issued_books"`
	RecentTransactions []LoanResponse   `json:"recent_transactions"`
}

// 統計
type StatsResponse struct {
	TotalTransactions    int64   `json:"total_transactions"`
	CurrentlyIssued      int64   `json:"currently_issued"`
	TotalReturned        int64   `json:"total_returned"`
	OverdueCount         int64   `json:"overdue_count"`
	TotalLateFees        float64 `json:"total_late_fees"`
	AverageBorrowingDays float64 `json:"average_borrowing_days"`
	MembersAtLimit       int64   `json:"members_at_limit"`
}
