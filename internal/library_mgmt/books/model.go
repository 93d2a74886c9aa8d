package books

import "time"

// 蔵書の状態。遷移の妥当性はこの層では見ない（貸出側の責務）。
const (
	StatusAvailable   = "available"
	StatusIssued      = "issued"
	StatusMaintenance = "maintenance"
)

func IsValidStatus(s string) bool {
	switch s {
	case StatusAvailable, StatusIssued, StatusMaintenance:
		return true
	}
	return false
}

// Book は books テーブルの1行を表す
type Book struct {
	BookID             int64
	Title              string
	Author             string
	Category           string
	ISBN               string
	AvailabilityStatus string
	CreatedAt          time.Time
}

// 蔵書検索条件
type BookFilter struct {
	Search   string
	Category string
	Status   string
	Limit    int
	Offset   int
}
