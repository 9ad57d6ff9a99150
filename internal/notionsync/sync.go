// Package notionsync mirrors the ledger into a Notion database.
package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/smart-accountant/internal/domain"
	"github.com/dvloznov/smart-accountant/internal/logger"
)

// BatchSize is the page size used when reading the database.
const BatchSize = 100

// SyncResult counts what a sync did (or would do, in dry-run mode).
type SyncResult struct {
	Created  int  `json:"created"`
	Updated  int  `json:"updated"`
	Archived int  `json:"archived"`
	Failed   int  `json:"failed"`
	DryRun   bool `json:"dry_run"`
}

// SyncLedger makes the Notion database mirror snap:
//  1. pages whose Transaction ID is missing or no longer in the ledger are archived
//  2. pages for ledger transactions are updated in place
//  3. transactions without a page get one
//
// Individual page failures are logged and counted; only a failed database
// query aborts the sync.
func SyncLedger(ctx context.Context, notionClient NotionService, notionDBID string, snap domain.Snapshot, dryRun bool) (*SyncResult, error) {
	log := logger.FromContext(ctx)
	result := &SyncResult{DryRun: dryRun}

	log.Info().
		Int("transactions", len(snap.Transactions)).
		Bool("dry_run", dryRun).
		Msg("Starting ledger sync to Notion")

	inLedger := make(map[string]bool, len(snap.Transactions))
	for _, tx := range snap.Transactions {
		inLedger[tx.ID] = true
	}

	pages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return nil, fmt.Errorf("failed to query Notion pages: %w", err)
	}
	log.Info().Int("notion_page_count", len(pages)).Msg("Retrieved existing Notion pages")

	pageByTxID := make(map[string]string)
	for _, page := range pages {
		txID := extractTransactionID(page)
		if txID != "" && inLedger[txID] {
			if _, dup := pageByTxID[txID]; !dup {
				pageByTxID[txID] = string(page.ID)
				continue
			}
		}

		if dryRun {
			log.Info().Str("transaction_id", txID).Str("page_id", string(page.ID)).
				Msg("[DRY RUN] Would archive stale Notion page")
			result.Archived++
			continue
		}
		if err := notionClient.ArchivePage(ctx, string(page.ID)); err != nil {
			log.Warn().Err(err).Str("page_id", string(page.ID)).Msg("Failed to archive stale Notion page")
			result.Failed++
			continue
		}
		result.Archived++
	}

	for i, tx := range snap.Transactions {
		props := TransactionToNotionProperties(tx, i, snap.ExchangeRates)

		if pageID, ok := pageByTxID[tx.ID]; ok {
			if !dryRun {
				if err := notionClient.UpdatePage(ctx, pageID, props); err != nil {
					log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Failed to update Notion page")
					result.Failed++
					continue
				}
			}
			result.Updated++
			continue
		}

		if !dryRun {
			if err := notionClient.CreatePage(ctx, notionDBID, props); err != nil {
				log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Failed to create Notion page")
				result.Failed++
				continue
			}
		}
		result.Created++
	}

	log.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("archived", result.Archived).
		Int("failed", result.Failed).
		Msg("Ledger sync to Notion finished")

	return result, nil
}

// queryAllNotionPages queries all pages from a Notion database.
// Handles pagination automatically.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: BatchSize}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}
		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
