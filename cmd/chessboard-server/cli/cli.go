package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"chessboard/internal/storage"
)

// Run is the entry point for the database mini-app
func Run(args []string) error {
	return run(args, os.Stdout)
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: init, delete, query")
	}

	switch args[0] {
	case "init":
		return runInit(args[1:], out)
	case "delete":
		return runDelete(args[1:], out)
	case "query":
		return runQuery(args[1:], out)
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func openStore(name string, args []string, extra func(*flag.FlagSet)) (*storage.Store, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *path == "" {
		return nil, fmt.Errorf("database path required")
	}

	store, err := storage.NewStore(*path, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

func runInit(args []string, out io.Writer) error {
	store, err := openStore("init", args, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	fmt.Fprintln(out, "Database initialized")
	return nil
}

func runDelete(args []string, out io.Writer) error {
	store, err := openStore("delete", args, nil)
	if err != nil {
		return err
	}

	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}
	fmt.Fprintln(out, "Database deleted")
	return nil
}

func runQuery(args []string, out io.Writer) error {
	var sessionID *string
	var moves *bool
	store, err := openStore("query", args, func(fs *flag.FlagSet) {
		sessionID = fs.String("sessionId", "", "Session ID to filter (optional, * for all)")
		moves = fs.Bool("moves", false, "List the move log of the selected session")
	})
	if err != nil {
		return err
	}
	defer store.Close()

	if *moves {
		if *sessionID == "" || *sessionID == "*" {
			return fmt.Errorf("-moves requires a single -sessionId")
		}
		return printMoves(store, *sessionID, out)
	}
	return printSessions(store, *sessionID, out)
}

func printSessions(store *storage.Store, sessionID string, out io.Writer) error {
	sessions, err := store.QuerySessions(sessionID)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Session ID\tCreated\tInitial FEN")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			s.SessionID,
			s.CreatedUTC.Format("2006-01-02 15:04:05"),
			s.InitialFEN,
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nFound %d session(s)\n", len(sessions))
	return nil
}

func printMoves(store *storage.Store, sessionID string, out io.Writer) error {
	moves, err := store.QueryMoves(sessionID)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if len(moves) == 0 {
		fmt.Fprintln(out, "No moves found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Ply\tColor\tMove\tSAN\tFEN after move")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, m := range moves {
		fmt.Fprintf(w, "%d\t%s\t%s%s\t%s\t%s\n", m.Ply, m.PlayerColor, m.MoveFrom, m.MoveTo, m.SAN, m.FENAfterMove)
	}
	w.Flush()

	fmt.Fprintf(out, "\n%d move(s)\n", len(moves))
	return nil
}
