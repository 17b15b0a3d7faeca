package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_ChangedPasswordAfter(t *testing.T) {
	changedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name              string
		passwordChangedAt *time.Time
		issuedAt          time.Time
		want              bool
	}{
		{
			name:              "пароль никогда не менялся",
			passwordChangedAt: nil,
			issuedAt:          time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
			want:              false,
		},
		{
			name:              "токен выпущен до смены пароля",
			passwordChangedAt: &changedAt,
			issuedAt:          changedAt.Add(-time.Minute),
			want:              true,
		},
		{
			name:              "токен выпущен после смены пароля",
			passwordChangedAt: &changedAt,
			issuedAt:          changedAt.Add(time.Minute),
			want:              false,
		},
		{
			name:              "токен выпущен в ту же секунду",
			passwordChangedAt: &changedAt,
			issuedAt:          changedAt,
			want:              false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := User{PasswordChangedAt: tt.passwordChangedAt}
			assert.Equal(t, tt.want, u.ChangedPasswordAfter(tt.issuedAt))
		})
	}
}
