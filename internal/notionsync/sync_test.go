package notionsync

import (
	"context"
	"errors"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/smart-accountant/internal/domain"
)

// MockNotionService is a mock implementation of NotionService for testing.
type MockNotionService struct {
	CreatePageFunc    func(ctx context.Context, databaseID string, properties notionapi.Properties) error
	UpdatePageFunc    func(ctx context.Context, pageID string, properties notionapi.Properties) error
	ArchivePageFunc   func(ctx context.Context, pageID string) error
	QueryDatabaseFunc func(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)

	created  []notionapi.Properties
	updated  []string
	archived []string
}

func (m *MockNotionService) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) error {
	if m.CreatePageFunc != nil {
		return m.CreatePageFunc(ctx, databaseID, properties)
	}
	m.created = append(m.created, properties)
	return nil
}

func (m *MockNotionService) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) error {
	if m.UpdatePageFunc != nil {
		return m.UpdatePageFunc(ctx, pageID, properties)
	}
	m.updated = append(m.updated, pageID)
	return nil
}

func (m *MockNotionService) ArchivePage(ctx context.Context, pageID string) error {
	if m.ArchivePageFunc != nil {
		return m.ArchivePageFunc(ctx, pageID)
	}
	m.archived = append(m.archived, pageID)
	return nil
}

func (m *MockNotionService) QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	if m.QueryDatabaseFunc != nil {
		return m.QueryDatabaseFunc(ctx, databaseID, filter)
	}
	return &notionapi.DatabaseQueryResponse{}, nil
}

func pageWithTxID(pageID, txID string) notionapi.Page {
	props := notionapi.Properties{}
	if txID != "" {
		props[propTransactionID] = &notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{PlainText: txID}},
		}
	}
	return notionapi.Page{ID: notionapi.ObjectID(pageID), Properties: props}
}

func singlePage(pages ...notionapi.Page) func(context.Context, string, *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return func(context.Context, string, *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
		return &notionapi.DatabaseQueryResponse{Results: pages}, nil
	}
}

func testSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Transactions: []domain.Transaction{
			{ID: "tx-1", Currency: "USD", Amount: 100, Type: domain.TransactionIncoming, Description: "salary"},
			{ID: "tx-2", Currency: "TRY", Amount: 69, Type: domain.TransactionOutgoing, Description: "taxi"},
		},
		ExchangeRates: domain.ExchangeRates{"USD": 1, "TRY": 34.5},
	}
}

func TestSyncLedger(t *testing.T) {
	mock := &MockNotionService{
		QueryDatabaseFunc: singlePage(
			pageWithTxID("page-1", "tx-1"),
			pageWithTxID("page-stale", "tx-gone"),
			pageWithTxID("page-blank", ""),
		),
	}

	res, err := SyncLedger(context.Background(), mock, "db", testSnapshot(), false)

	require.NoError(t, err)
	assert.Equal(t, &SyncResult{Created: 1, Updated: 1, Archived: 2}, res)
	assert.Equal(t, []string{"page-1"}, mock.updated)
	assert.ElementsMatch(t, []string{"page-stale", "page-blank"}, mock.archived)
	require.Len(t, mock.created, 1)
	assert.Equal(t, notionapi.NumberProperty{Number: 69}, mock.created[0][propAmount])
}

func TestSyncLedger_DuplicatePagesArchived(t *testing.T) {
	mock := &MockNotionService{
		QueryDatabaseFunc: singlePage(
			pageWithTxID("page-a", "tx-1"),
			pageWithTxID("page-b", "tx-1"),
		),
	}

	res, err := SyncLedger(context.Background(), mock, "db", testSnapshot(), false)

	require.NoError(t, err)
	assert.Equal(t, []string{"page-b"}, mock.archived)
	assert.Equal(t, []string{"page-a"}, mock.updated)
	assert.Equal(t, 1, res.Created)
}

func TestSyncLedger_DryRun(t *testing.T) {
	mock := &MockNotionService{
		QueryDatabaseFunc: singlePage(pageWithTxID("page-stale", "tx-gone")),
	}

	res, err := SyncLedger(context.Background(), mock, "db", testSnapshot(), true)

	require.NoError(t, err)
	assert.Equal(t, &SyncResult{Created: 2, Archived: 1, DryRun: true}, res)
	assert.Empty(t, mock.created)
	assert.Empty(t, mock.archived)
}

func TestSyncLedger_PageFailuresCounted(t *testing.T) {
	mock := &MockNotionService{
		CreatePageFunc: func(context.Context, string, notionapi.Properties) error {
			return errors.New("rate limited")
		},
	}

	res, err := SyncLedger(context.Background(), mock, "db", testSnapshot(), false)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 0, res.Created)
}

func TestSyncLedger_QueryError(t *testing.T) {
	mock := &MockNotionService{
		QueryDatabaseFunc: func(context.Context, string, *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
			return nil, errors.New("unauthorized")
		},
	}

	_, err := SyncLedger(context.Background(), mock, "db", testSnapshot(), false)
	assert.Error(t, err)
}

func TestQueryAllNotionPages_Pagination(t *testing.T) {
	var cursors []notionapi.Cursor
	mock := &MockNotionService{
		QueryDatabaseFunc: func(_ context.Context, _ string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
			cursors = append(cursors, req.StartCursor)
			if req.StartCursor == "" {
				return &notionapi.DatabaseQueryResponse{
					Results:    []notionapi.Page{pageWithTxID("p1", "a")},
					HasMore:    true,
					NextCursor: "next",
				}, nil
			}
			return &notionapi.DatabaseQueryResponse{Results: []notionapi.Page{pageWithTxID("p2", "b")}}, nil
		},
	}

	pages, err := queryAllNotionPages(context.Background(), mock, "db")

	require.NoError(t, err)
	assert.Len(t, pages, 2)
	assert.Equal(t, []notionapi.Cursor{"", "next"}, cursors)
}

func TestTransactionToNotionProperties(t *testing.T) {
	rates := domain.ExchangeRates{"TRY": 34.5}

	props := TransactionToNotionProperties(domain.Transaction{
		ID: "tx-9", Currency: "TRY", Amount: 69, Type: domain.TransactionOutgoing,
	}, 4, rates)

	assert.Equal(t, notionapi.NumberProperty{Number: -2}, props[propUSDValue])
	assert.Equal(t, notionapi.NumberProperty{Number: 4}, props[propPosition])
	assert.Equal(t, notionapi.SelectProperty{Select: notionapi.Option{Name: "OUTGOING"}}, props[propType])
	title := props[propDescription].(notionapi.TitleProperty)
	assert.Equal(t, "(no description)", title.Title[0].Text.Content)

	noCurrency := TransactionToNotionProperties(domain.Transaction{ID: "x", Amount: 1, Type: domain.TransactionIncoming}, 0, rates)
	_, ok := noCurrency[propCurrency]
	assert.False(t, ok)
	assert.Equal(t, notionapi.NumberProperty{Number: 0}, noCurrency[propUSDValue])
}

func TestExtractTransactionID(t *testing.T) {
	assert.Equal(t, "tx-1", extractTransactionID(pageWithTxID("p", "tx-1")))
	assert.Equal(t, "", extractTransactionID(pageWithTxID("p", "")))
}
