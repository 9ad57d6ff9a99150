package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/smart-accountant/internal/domain"
)

const usersTable = "app_users"

type UserRow struct {
	ID           string `bigquery:"id"`            // REQUIRED
	Username     string `bigquery:"username"`      // REQUIRED, unique by convention
	PasswordHash string `bigquery:"password_hash"` // REQUIRED, bcrypt

	FullName bigquery.NullString `bigquery:"full_name"` // NULLABLE
	Role     string              `bigquery:"role"`      // REQUIRED: admin | user
	IsActive bool                `bigquery:"is_active"` // REQUIRED

	CreatedTS time.Time              `bigquery:"created_ts"` // REQUIRED
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"` // NULLABLE
}

// toDomain converts a row into the application user.
func (r *UserRow) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		FullName:     r.FullName.StringVal,
		Role:         r.Role,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedTS,
	}
}

// userRowFromDomain converts an application user into a row.
func userRowFromDomain(u *domain.User) *UserRow {
	return &UserRow{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		FullName:     bigquery.NullString{StringVal: u.FullName, Valid: u.FullName != ""},
		Role:         u.Role,
		IsActive:     u.IsActive,
		CreatedTS:    u.CreatedAt,
	}
}
