package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
)

// NotionService is the part of the Notion API that SyncLedger needs.
type NotionService interface {
	QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) error
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) error
	// ArchivePage moves a page to the trash; Notion has no hard delete.
	ArchivePage(ctx context.Context, pageID string) error
}

var _ NotionService = (*NotionClient)(nil)

// NotionClient talks to Notion through the jomei/notionapi services.
type NotionClient struct {
	pages     notionapi.PageService
	databases notionapi.DatabaseService
}

// NewNotionClient creates a client authenticated with an integration token.
func NewNotionClient(token string) *NotionClient {
	c := notionapi.NewClient(notionapi.Token(token))
	return &NotionClient{pages: c.Page, databases: c.Database}
}

func (n *NotionClient) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	resp, err := n.databases.Query(ctx, notionapi.DatabaseID(databaseID), req)
	if err != nil {
		return nil, fmt.Errorf("QueryDatabase %s: %w", databaseID, err)
	}
	return resp, nil
}

func (n *NotionClient) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) error {
	parent := notionapi.Parent{
		Type:       notionapi.ParentTypeDatabaseID,
		DatabaseID: notionapi.DatabaseID(databaseID),
	}
	if _, err := n.pages.Create(ctx, &notionapi.PageCreateRequest{Parent: parent, Properties: properties}); err != nil {
		return fmt.Errorf("CreatePage: %w", err)
	}
	return nil
}

func (n *NotionClient) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) error {
	return n.update(ctx, "UpdatePage", pageID, &notionapi.PageUpdateRequest{Properties: properties})
}

func (n *NotionClient) ArchivePage(ctx context.Context, pageID string) error {
	return n.update(ctx, "ArchivePage", pageID, &notionapi.PageUpdateRequest{Archived: true})
}

func (n *NotionClient) update(ctx context.Context, op, pageID string, req *notionapi.PageUpdateRequest) error {
	if _, err := n.pages.Update(ctx, notionapi.PageID(pageID), req); err != nil {
		return fmt.Errorf("%s %s: %w", op, pageID, err)
	}
	return nil
}
