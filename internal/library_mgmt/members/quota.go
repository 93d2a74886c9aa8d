package members

// 会員種別ごとの貸出上限。種別は会員作成時の既定値を決めるだけで、
// 既存の member_limits 行を書き換えることはない。
var defaultBookLimits = map[string]int{
	"Student":        3,
	"Faculty":        10,
	"Staff":          5,
	"Senior Citizen": 5,
	"General":        3,
	"Premium":        15,
}

// DefaultBookLimit は種別から貸出上限の既定値を引く。未知の種別は3冊。
func DefaultBookLimit(memberType string) int {
	if n, ok := defaultBookLimits[memberType]; ok {
		return n
	}
	return 3
}

// MemberTypes は登録時に許可する種別の一覧
func MemberTypes() []string {
	return []string{"Student", "Faculty", "Staff", "Senior Citizen", "General", "Premium"}
}

func isValidMemberType(t string) bool {
	_, ok := defaultBookLimits[t]
	return ok
}
