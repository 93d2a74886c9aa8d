package members

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultBookLimit(t *testing.T) {
	tests := []struct {
		memberType string
		want       int
	}{
		{"Student", 3},
		{"Faculty", 10},
		{"Staff", 5},
		{"Senior Citizen", 5},
		{"General", 3},
		{"Premium", 15},
		{"", 3},
		{"Alien", 3},
		{"student", 3}, // 大文字小文字は区別する
	}
	for _, tt := range tests {
		t.Run(tt.memberType, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultBookLimit(tt.memberType))
		})
	}
}

func TestMemberTypes_AllHaveLimits(t *testing.T) {
	for _, mt := range MemberTypes() {
		assert.True(t, isValidMemberType(mt), "type %q must be registered", mt)
		assert.Greater(t, DefaultBookLimit(mt), 0)
	}
}
