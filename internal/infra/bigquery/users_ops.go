package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/smart-accountant/internal/auth"
	"github.com/dvloznov/smart-accountant/internal/domain"
)

const userColumns = `
			id,
			username,
			password_hash,
			full_name,
			role,
			is_active,
			created_ts,
			updated_ts`

// tableRef returns the fully qualified, backquoted table name.
func tableRef(projectID, datasetID, table string) string {
	return "`" + projectID + "." + datasetID + "." + table + "`"
}

// runDML runs a data-manipulation query and waits for it to finish.
func runDML(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

// readUsers drains a query of UserRow results.
func readUsers(ctx context.Context, q *bigquery.Query) ([]domain.User, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading query: %w", err)
	}

	var users []domain.User
	for {
		var row UserRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating: %w", err)
		}
		users = append(users, *row.toDomain())
	}
	return users, nil
}

// ListUsersWithClient returns every user, newest first.
func ListUsersWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID string) ([]domain.User, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT%s
		FROM %s
		ORDER BY created_ts DESC
	`, userColumns, tableRef(projectID, datasetID, usersTable)))

	users, err := readUsers(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ListUsersWithClient: %w", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// findUserWithClient returns the first user whose column equals value, or
// auth.ErrUserNotFound.
func findUserWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID, column, value string) (*domain.User, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT%s
		FROM %s
		WHERE %s = @value
		LIMIT 1
	`, userColumns, tableRef(projectID, datasetID, usersTable), column))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "value", Value: value},
	}

	users, err := readUsers(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, auth.ErrUserNotFound
	}
	return &users[0], nil
}

// GetUserByIDWithClient looks a user up by id.
func GetUserByIDWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID, id string) (*domain.User, error) {
	u, err := findUserWithClient(ctx, client, projectID, datasetID, "id", id)
	if err != nil && err != auth.ErrUserNotFound {
		return nil, fmt.Errorf("GetUserByIDWithClient: %w", err)
	}
	return u, err
}

// GetUserByUsernameWithClient looks a user up by username.
func GetUserByUsernameWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID, username string) (*domain.User, error) {
	u, err := findUserWithClient(ctx, client, projectID, datasetID, "username", username)
	if err != nil && err != auth.ErrUserNotFound {
		return nil, fmt.Errorf("GetUserByUsernameWithClient: %w", err)
	}
	return u, err
}

// InsertUserWithClient inserts a user with a DML statement so the row is
// immediately visible to UPDATE and DELETE.
func InsertUserWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID string, u *domain.User) error {
	_, err := GetUserByUsernameWithClient(ctx, client, projectID, datasetID, u.Username)
	if err == nil {
		return auth.ErrUsernameTaken
	}
	if err != auth.ErrUserNotFound {
		return fmt.Errorf("InsertUserWithClient: checking username: %w", err)
	}

	row := userRowFromDomain(u)
	q := client.Query(`
		INSERT INTO ` + tableRef(projectID, datasetID, usersTable) + ` (
			id, username, password_hash,
			full_name, role, is_active,
			created_ts
		)
		VALUES (
			@id, @username, @password_hash,
			@full_name, @role, @is_active,
			@created_ts
		)
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "id", Value: row.ID},
		{Name: "username", Value: row.Username},
		{Name: "password_hash", Value: row.PasswordHash},
		{Name: "full_name", Value: row.FullName},
		{Name: "role", Value: row.Role},
		{Name: "is_active", Value: row.IsActive},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	if err := runDML(ctx, q); err != nil {
		return fmt.Errorf("InsertUserWithClient: %w", err)
	}
	return nil
}

// UpdateUserWithClient rewrites the editable columns of an existing user.
func UpdateUserWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID string, u *domain.User) error {
	if _, err := GetUserByIDWithClient(ctx, client, projectID, datasetID, u.ID); err != nil {
		return err
	}
	other, err := GetUserByUsernameWithClient(ctx, client, projectID, datasetID, u.Username)
	if err == nil && other.ID != u.ID {
		return auth.ErrUsernameTaken
	}
	if err != nil && err != auth.ErrUserNotFound {
		return fmt.Errorf("UpdateUserWithClient: checking username: %w", err)
	}

	row := userRowFromDomain(u)
	q := client.Query(`
		UPDATE ` + tableRef(projectID, datasetID, usersTable) + `
		SET
			username = @username,
			password_hash = @password_hash,
			full_name = @full_name,
			role = @role,
			is_active = @is_active,
			updated_ts = @updated_ts
		WHERE id = @id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "id", Value: row.ID},
		{Name: "username", Value: row.Username},
		{Name: "password_hash", Value: row.PasswordHash},
		{Name: "full_name", Value: row.FullName},
		{Name: "role", Value: row.Role},
		{Name: "is_active", Value: row.IsActive},
		{Name: "updated_ts", Value: time.Now().UTC()},
	}

	if err := runDML(ctx, q); err != nil {
		return fmt.Errorf("UpdateUserWithClient: %w", err)
	}
	return nil
}

// DeleteUserWithClient removes a user by id.
func DeleteUserWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID, id string) error {
	if _, err := GetUserByIDWithClient(ctx, client, projectID, datasetID, id); err != nil {
		return err
	}

	q := client.Query(`
		DELETE FROM ` + tableRef(projectID, datasetID, usersTable) + `
		WHERE id = @id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "id", Value: id},
	}

	if err := runDML(ctx, q); err != nil {
		return fmt.Errorf("DeleteUserWithClient: %w", err)
	}
	return nil
}
