package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/smart-accountant/internal/auth"
	"github.com/dvloznov/smart-accountant/internal/domain"
)

// Compile-time check that the repository satisfies auth.UserRepository.
var _ auth.UserRepository = (*BigQueryUserRepository)(nil)

// BigQueryUserRepository is the concrete implementation of
// auth.UserRepository backed by the app_users table. It holds a shared
// BigQuery client to avoid creating a new connection for each operation.
type BigQueryUserRepository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewBigQueryUserRepository creates a repository with a shared BigQuery
// client for projectID.
func NewBigQueryUserRepository(ctx context.Context, projectID, datasetID string) (*BigQueryUserRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryUserRepository: creating client: %w", err)
	}
	return &BigQueryUserRepository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryUserRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *BigQueryUserRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	return ListUsersWithClient(ctx, r.client, r.projectID, r.datasetID)
}

func (r *BigQueryUserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return GetUserByIDWithClient(ctx, r.client, r.projectID, r.datasetID, id)
}

func (r *BigQueryUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return GetUserByUsernameWithClient(ctx, r.client, r.projectID, r.datasetID, username)
}

func (r *BigQueryUserRepository) CreateUser(ctx context.Context, u *domain.User) error {
	return InsertUserWithClient(ctx, r.client, r.projectID, r.datasetID, u)
}

func (r *BigQueryUserRepository) UpdateUser(ctx context.Context, u *domain.User) error {
	return UpdateUserWithClient(ctx, r.client, r.projectID, r.datasetID, u)
}

func (r *BigQueryUserRepository) DeleteUser(ctx context.Context, id string) error {
	return DeleteUserWithClient(ctx, r.client, r.projectID, r.datasetID, id)
}
