package members

import "time"

// Member は members テーブルの1行を表す
type Member struct {
	MemberID   int64
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	MemberType string
	IsActive   bool
	JoinDate   time.Time
}

// member_limits の行は常に members との JOIN で読むため、
// 上限・カウンタ類は MemberResponse 側に持つ（単独の行型は置かない）。

const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusBlocked   = "blocked"
	StatusExpired   = "expired"
)

// 会員検索条件
type MemberFilter struct {
	Search     string
	MemberType string
	Limit      int
	Offset     int
}
