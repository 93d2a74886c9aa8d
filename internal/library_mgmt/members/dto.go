package members

import "time"

// 会員登録リクエスト
type CreateMemberRequest struct {
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
	Email      string `json:"email" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
	MemberType string `json:"member_type"`
}

// 会員更新リクエスト（部分更新）
type UpdateMemberRequest struct {
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	MemberType *string `json:"member_type,omitempty"`
}

// 会員ステータス変更リクエスト（suspended / blocked など）
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// 会員レスポンス（上限情報込み）
type MemberResponse struct {
	MemberID      int64     `json:"member_id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	MemberType    string    `json:"member_type"`
	IsActive      bool      `json:"is_active"`
	JoinDate      time.Time `json:"join_date"`
	MaxBooks      int       `json:"max_books"`
	CurrentIssues int       `json:"current_issues"`
	MemberStatus  string    `json:"member_status"`
	FineBalance   float64   `json:"fine_balance"`
}

// 会員統計
type MemberStatsResponse struct {
	TotalActive      int64            `json:"total_active"`
	ByType           map[string]int64 `json:"by_type"`
	WithFines        int64            `json:"with_fines"`
	TotalFineBalance float64          `json:"total_fine_balance"`
	AtLimit          int64            `json:"at_limit"`
}
