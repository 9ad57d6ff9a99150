package bigquery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dvloznov/smart-accountant/internal/domain"
)

func TestUserRow_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		user domain.User
	}{
		{
			name: "full",
			user: domain.User{
				ID:           "u1",
				Username:     "ahmed",
				PasswordHash: "$2a$10$hash",
				FullName:     "Ahmed K",
				Role:         domain.RoleAdmin,
				IsActive:     true,
				CreatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "no full name",
			user: domain.User{
				ID:       "u2",
				Username: "sara",
				Role:     domain.RoleUser,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := userRowFromDomain(&tt.user)
			assert.Equal(t, tt.user.FullName != "", row.FullName.Valid)
			assert.Equal(t, tt.user, *row.toDomain())
		})
	}
}

func TestTableRef(t *testing.T) {
	assert.Equal(t, "`proj.accountant.app_users`", tableRef("proj", "accountant", usersTable))
}
