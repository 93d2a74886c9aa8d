package circulation

import (
	"database/sql"
	"time"
)

const (
	StatusIssued   = "issued"
	StatusReturned = "returned"
)

// Transaction は transactions テーブルの1行を表す
type Transaction struct {
	TransactionID   int64
	TransactionULID string
	BookID          int64
	MemberID        int64
	IssueDate       time.Time
	ReturnDate      sql.NullTime
	Status          string
	LateFee         float64
}

// 貸出情報＋書誌・会員情報のJOIN結果
type loanRow struct {
	Transaction
	BookTitle  string
	BookAuthor string
	MemberName string
	Email      sql.NullString
}

// 会員＋貸出上限のJOIN結果（貸出前チェック用）
type memberLimitRow struct {
	MemberID      int64
	FirstName     string
	LastName      string
	MemberType    string
	MaxBooks      int
	CurrentIssues int
	MemberStatus  string
	HasLimitsRow  bool
}

// Rules は貸出業務の設定値。グローバル変数にせず Service 生成時に渡す。
type Rules struct {
	BorrowingPeriodDays int
	DailyLateFee        float64
	RenewalGraceDays    int
}

func DefaultRules() Rules {
	return Rules{
		BorrowingPeriodDays: 14,
		DailyLateFee:        0.50,
		RenewalGraceDays:    7,
	}
}
