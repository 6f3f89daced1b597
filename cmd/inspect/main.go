// Command inspect dumps a node's badger database, as a table or through the debug web inspector.
// The database is opened read-only, so a running node can be inspected.
package main

import (
	"context"
	"cryptochat/repositories"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
)

func main() {
	_ = godotenv.Load()
	defaultPath := os.Getenv("BADGER_FILEPATH")
	if defaultPath == "" {
		defaultPath = database.DefaultPath
	}

	dbPath := flag.String("db", defaultPath, "Path to badger DB")
	// msg: user: room: kv: or nothing for every entry
	prefix := flag.String("prefix", "", "Prefix to scan")
	port := flag.Int("http", 0, "Serve the web inspector on this port instead of printing a table")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	if *port != 0 {
		serve(db, *port)
		return
	}

	rows, err := repositories.Inspect(db, *prefix)
	if err != nil {
		log.Fatal(err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Timestamp", "Entity ID", "Room", "Detail", "Extra"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, row := range rows {
		table.Append([]string{row.Key, row.Type, row.Timestamp, row.EntityID, row.Namespace, row.Detail, row.Scores})
	}
	table.Render()
}

// serve blocks until interrupted
func serve(db *badger.DB, port int) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	endpoint := "/inspect"
	database.StartDebugServer(db, port, endpoint, repositories.InspectRow)
	fmt.Printf("Inspector started at http://localhost:%d%s?prefix=msg:\n", port, endpoint)
	<-ctx.Done()
}

// openDB bypasses the directory lock held by a running node.
// A value log left untruncated by a crash is repaired by one read-write open first.
func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err == nil {
		return db, nil
	}
	if !strings.Contains(err.Error(), "Log truncate required") {
		return nil, err
	}

	fmt.Println("Value log needs truncation, repairing before inspection")
	repaired, err := badger.Open(badger.DefaultOptions(path).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, fmt.Errorf("repair failed: %w", err)
	}
	if err := repaired.Close(); err != nil {
		return nil, fmt.Errorf("repair failed: %w", err)
	}
	return badger.Open(opts)
}
