package circulation

import "time"

// DaysBetween は from から to までの経過日数（丸1日単位、端数切り捨て）
func DaysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// CalculateLateFee は延滞料金を計算する純関数。
// 貸出期間内なら 0、超過分は1日あたり DailyLateFee（上限なし）。
func CalculateLateFee(rules Rules, issueDate, returnDate time.Time) float64 {
	days := DaysBetween(issueDate, returnDate)
	if days <= rules.BorrowingPeriodDays {
		return 0
	}
	return float64(days-rules.BorrowingPeriodDays) * rules.DailyLateFee
}
