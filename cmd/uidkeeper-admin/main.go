// ABOUTME: Admin CLI for inspecting a uidkeeper database offline
// ABOUTME: Lists rooms, records, stats, and the audit trail; exports CSV

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/ndhuy/uidkeeper/internal/export"
	"github.com/ndhuy/uidkeeper/internal/store"
)

const usage = `uidkeeper-admin - inspect a uidkeeper database

Usage:
  uidkeeper-admin [-db path] <command> [args]

Commands:
  rooms                    list rooms with saved records
  list <room>              list every record in a room
  search <room> <text>     search a room's records
  export <room> [file]     write a room's records as CSV (stdout by default)
  stats <room>             show count and last save time
  audit <room> [limit]     show recent privileged operations

The database path defaults to UIDKEEPER_DB, then uidkeeper.db.
`

func main() {
	dbPath := flag.String("db", getEnv("UIDKEEPER_DB", "uidkeeper.db"), "Path to the uidkeeper database")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*dbPath, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(dbPath, command string, args []string) error {
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("database not found at %s", dbPath)
	}

	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	ctx := context.Background()

	switch command {
	case "rooms":
		return cmdRooms(ctx, st)
	case "list":
		return withRoom(args, func(room string) error { return cmdList(ctx, st, room) })
	case "search":
		if len(args) < 2 {
			return fmt.Errorf("usage: search <room> <text>")
		}
		return cmdSearch(ctx, st, args[0], strings.Join(args[1:], " "))
	case "export":
		if len(args) < 1 {
			return fmt.Errorf("usage: export <room> [file]")
		}
		file := ""
		if len(args) > 1 {
			file = args[1]
		}
		return cmdExport(ctx, st, args[0], file)
	case "stats":
		return withRoom(args, func(room string) error { return cmdStats(ctx, st, room) })
	case "audit":
		if len(args) < 1 {
			return fmt.Errorf("usage: audit <room> [limit]")
		}
		limit := 0
		if len(args) > 1 {
			if _, err := fmt.Sscanf(args[1], "%d", &limit); err != nil {
				return fmt.Errorf("invalid limit %q", args[1])
			}
		}
		return cmdAudit(ctx, st, args[0], limit)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func withRoom(args []string, fn func(room string) error) error {
	if len(args) < 1 {
		return fmt.Errorf("room argument required")
	}
	return fn(args[0])
}

func cmdRooms(ctx context.Context, st *store.SQLiteStore) error {
	rooms, err := st.Rooms(ctx)
	if err != nil {
		return err
	}
	if len(rooms) == 0 {
		fmt.Println("No rooms with saved records.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ROOM\tCOUNT\tLAST SAVED")
	for _, room := range rooms {
		summary, err := st.Stats(ctx, room)
		if err != nil {
			return err
		}
		last := "-"
		if !summary.LastSaved.IsZero() {
			last = summary.LastSaved.UTC().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", room, summary.Count, last)
	}
	return w.Flush()
}

func cmdList(ctx context.Context, st *store.SQLiteStore, room string) error {
	records, err := st.ExportAll(ctx, room)
	if err != nil {
		return err
	}
	printRecords(records)
	return nil
}

func cmdSearch(ctx context.Context, st *store.SQLiteStore, room, query string) error {
	records, err := st.Search(ctx, room, query)
	if err != nil {
		return err
	}
	printRecords(records)
	return nil
}

func printRecords(records []*store.Record) {
	if len(records) == 0 {
		fmt.Println("No records.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUID\tNOTE\tSAVED AT")
	for _, r := range records {
		note := r.Note
		if note == "" {
			note = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.ID, r.UID, note, r.SavedAt.UTC().Format("2006-01-02 15:04:05"))
	}
	w.Flush()
}

func cmdExport(ctx context.Context, st *store.SQLiteStore, room, file string) error {
	records, err := st.ExportAll(ctx, room)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no records in %s", room)
	}

	out := os.Stdout
	if file != "" {
		f, err := os.Create(file)
		if err != nil {
			return fmt.Errorf("creating %s: %w", file, err)
		}
		defer f.Close()
		out = f
	}

	if err := export.Records(out, records); err != nil {
		return err
	}
	if file != "" {
		green := color.New(color.FgGreen)
		green.Fprintf(os.Stderr, "Wrote %d records to %s\n", len(records), file)
	}
	return nil
}

func cmdStats(ctx context.Context, st *store.SQLiteStore, room string) error {
	summary, err := st.Stats(ctx, room)
	if err != nil {
		return err
	}
	fmt.Println(export.StatsText(summary))
	return nil
}

func cmdAudit(ctx context.Context, st *store.SQLiteStore, room string, limit int) error {
	entries, err := st.ListAudit(ctx, room, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No audit entries.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTOR\tACTION\tDETAIL")
	for _, e := range entries {
		var parts []string
		for k, v := range e.Detail {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
		detail := strings.Join(parts, " ")
		if detail == "" {
			detail = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Timestamp.UTC().Format("2006-01-02 15:04:05"), e.Actor, e.Action, detail)
	}
	return w.Flush()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
