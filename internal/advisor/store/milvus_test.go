package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeFilterValue(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "plain identifier", value: "MAT-001", want: "MAT-001"},
		{name: "embedded quote", value: `WM-"10"`, want: `WM-\"10\"`},
		{name: "embedded backslash", value: `WM\10`, want: `WM\\10`},
		{name: "trailing backslash", value: `MAT-001\`, want: `MAT-001\\`},
		{name: "backslash before quote", value: `a\"b`, want: `a\\\"b`},
		{name: "empty", value: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeFilterValue(tt.value))
		})
	}
}
