package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/smart-accountant/internal/app"
	"github.com/dvloznov/smart-accountant/internal/auth"
	"github.com/dvloznov/smart-accountant/internal/config"
	"github.com/dvloznov/smart-accountant/internal/domain"
	"github.com/dvloznov/smart-accountant/internal/logger"
	"github.com/dvloznov/smart-accountant/internal/notionsync"
	"github.com/dvloznov/smart-accountant/internal/store"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "ingest":
		runIngest(log)
	case "summary":
		runSummary(log)
	case "share":
		runShare(log)
	case "backup":
		runBackup(log)
	case "restore":
		runRestore(log)
	case "export-sheets":
		runExportSheets(log)
	case "export-notion":
		runExportNotion(log)
	case "users":
		runUsers(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Smart Accountant CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  ingest         Extract transactions from text and append them to the ledger")
	fmt.Println("  summary        Print per-currency balances")
	fmt.Println("  share          Print the plain-text statement")
	fmt.Println("  backup         Write the ledger to a JSON backup file")
	fmt.Println("  restore        Replace the ledger with a JSON backup file")
	fmt.Println("  export-sheets  Export the ledger to Google Sheets")
	fmt.Println("  export-notion  Sync the ledger into a Notion database")
	fmt.Println("  users          List or add application users")
	fmt.Println("  help           Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// setup loads configuration and builds the services.
func setup(log zerolog.Logger) (context.Context, *app.App) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.SetLevel(cfg.LogLevel)

	ctx := logger.WithContext(context.Background(), log)
	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	return ctx, a
}

func readInput(text, file string) (string, error) {
	switch {
	case text != "":
		return text, nil
	case file == "-":
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	case file != "":
		b, err := os.ReadFile(file)
		return string(b), err
	}
	return "", fmt.Errorf("one of -text or -file is required")
}

func runIngest(log zerolog.Logger) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	text := fs.String("text", "", "Message text to extract transactions from")
	file := fs.String("file", "", "Path to a text file with messages ('-' for stdin)")
	fs.Parse(os.Args[2:])

	input, err := readInput(*text, *file)
	if err != nil {
		log.Fatal().Err(err).Msg("Usage: cli ingest -text TEXT | -file PATH")
	}

	ctx, a := setup(log)
	defer a.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	txs, err := a.Ledger.Ingest(ctx, input)
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	fmt.Printf("Appended %d transaction(s).\n", len(txs))
	printTransactions(os.Stdout, txs)
}

func runSummary(log zerolog.Logger) {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	_, a := setup(log)
	defer a.Close()

	summaries, total := a.Ledger.Summary()
	printSummary(os.Stdout, summaries, total)
}

func runShare(log zerolog.Logger) {
	fs := flag.NewFlagSet("share", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	_, a := setup(log)
	defer a.Close()

	text, err := a.Ledger.Share()
	if err != nil {
		log.Fatal().Err(err).Msg("Nothing to share")
	}
	fmt.Print(text)
}

func runBackup(log zerolog.Logger) {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	out := fs.String("out", "", "Backup file path ('-' for stdout)")
	fs.Parse(os.Args[2:])

	if *out == "" {
		*out = fmt.Sprintf("ledger-backup-%s.json", time.Now().Format("2006-01-02"))
	}

	_, a := setup(log)
	defer a.Close()

	w := io.Writer(os.Stdout)
	if *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create backup file")
		}
		defer f.Close()
		w = f
	}

	snap := a.Ledger.Snapshot()
	if err := store.Encode(w, snap); err != nil {
		log.Fatal().Err(err).Msg("Failed to write backup")
	}
	if *out != "-" {
		log.Info().Str("file", *out).Int("transactions", len(snap.Transactions)).Msg("Backup written")
	}
}

func runRestore(log zerolog.Logger) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	in := fs.String("in", "", "Backup file path")
	fs.Parse(os.Args[2:])

	if *in == "" {
		log.Fatal().Msg("Usage: cli restore -in PATH")
	}

	f, err := os.Open(*in)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open backup file")
	}
	defer f.Close()

	snap, err := store.Decode(f)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid backup file")
	}

	ctx, a := setup(log)
	defer a.Close()

	if err := a.Ledger.Restore(ctx, snap); err != nil {
		log.Fatal().Err(err).Msg("Restore failed")
	}
	fmt.Printf("Restored %d transaction(s) and %d rate(s).\n", len(snap.Transactions), len(snap.ExchangeRates))
}

func runExportSheets(log zerolog.Logger) {
	fs := flag.NewFlagSet("export-sheets", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	ctx, a := setup(log)
	defer a.Close()

	if a.Sheets == nil {
		log.Fatal().Msg("GOOGLE_SPREADSHEET_ID is not set")
	}

	res, err := a.Sheets.Export(ctx, a.Ledger.Snapshot())
	if err != nil {
		log.Fatal().Err(err).Msg("Sheets export failed")
	}
	fmt.Printf("Exported %d transaction(s) and %d currency summaries to spreadsheet %s.\n",
		res.Transactions, res.Currencies, res.SpreadsheetID)
}

func runExportNotion(log zerolog.Logger) {
	fs := flag.NewFlagSet("export-notion", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "Show what would change without writing to Notion")
	fs.Parse(os.Args[2:])

	ctx, a := setup(log)
	defer a.Close()

	if a.Notion == nil {
		log.Fatal().Msg("NOTION_TOKEN and NOTION_DATABASE_ID must be set")
	}

	res, err := notionsync.SyncLedger(ctx, a.Notion, a.Config.NotionDatabaseID, a.Ledger.Snapshot(), *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Notion sync failed")
	}

	prefix := ""
	if res.DryRun {
		prefix = "[DRY RUN] "
	}
	fmt.Printf("%sCreated: %d, updated: %d, archived: %d, failed: %d\n",
		prefix, res.Created, res.Updated, res.Archived, res.Failed)
}

func runUsers(log zerolog.Logger) {
	if len(os.Args) < 3 {
		log.Fatal().Msg("Usage: cli users list | cli users add -username NAME -password PASS [-role admin|user]")
	}

	switch os.Args[2] {
	case "list":
		ctx, a := setup(log)
		defer a.Close()

		users, err := a.Users.ListUsers(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list users")
		}
		printUsers(os.Stdout, users)

	case "add":
		fs := flag.NewFlagSet("users add", flag.ExitOnError)
		username := fs.String("username", "", "Login name")
		password := fs.String("password", "", "Initial password")
		fullName := fs.String("full-name", "", "Display name")
		role := fs.String("role", domain.RoleUser, "Role: admin or user")
		fs.Parse(os.Args[3:])

		ctx, a := setup(log)
		defer a.Close()

		svc := auth.NewService(a.Users, a.Config.SessionTTL)
		u, err := svc.CreateUser(ctx, auth.UserInput{
			Username: *username,
			Password: *password,
			FullName: *fullName,
			Role:     *role,
			IsActive: true,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create user")
		}
		fmt.Printf("Created user %s (%s) with id %s\n", u.Username, u.Role, u.ID)

	default:
		log.Fatal().Str("subcommand", os.Args[2]).Msg("Unknown users subcommand")
	}
}
