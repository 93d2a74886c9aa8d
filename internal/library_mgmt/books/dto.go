package books

import "time"

// 蔵書登録リクエスト
type CreateBookRequest struct {
	Title    string `json:"title" binding:"required"`
	Author   string `json:"author" binding:"required"`
	Category string `json:"category" binding:"required"`
	ISBN     string `json:"isbn" binding:"required"`
}

// 蔵書更新リクエスト（部分更新）
type UpdateBookRequest struct {
	Title    *string `json:"title,omitempty"`
	Author   *string `json:"author,omitempty"`
	Category *string `json:"category,omitempty"`
	ISBN     *string `json:"isbn,omitempty"`
}

// 状態変更リクエスト
type UpdateAvailabilityRequest struct {
	Status string `json:"status" binding:"required"`
}

// 蔵書レスポンス
type BookResponse struct {
	BookID             int64     `json:"book_id"`
	Title              string    `json:"title"`
	Author             string    `json:"author"`
	Category           string    `json:"category"`
	ISBN               string    `json:"isbn"`
	AvailabilityStatus string    `json:"availability_status"`
	CreatedAt          time.Time `json:"created_at"`
}

// 蔵書統計
type BookStatsResponse struct {
	Total      int64            `json:"total"`
	ByStatus   map[string]int64 `json:"by_status"`
	ByCategory map[string]int64 `json:"by_category"`
}
