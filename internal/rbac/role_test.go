package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"student", Student, false},
		{"faculty", Faculty, false},
		{"admin", Admin, false},
		{"Admin", "", true},
		{"", "", true},
		{"staff", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestPrincipalIs(t *testing.T) {
	p := Principal{Role: Faculty}
	assert.True(t, p.Is(Faculty, Admin))
	assert.False(t, p.Is(Student))
	assert.False(t, p.Is())
}
