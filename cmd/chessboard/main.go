// Package main runs the terminal chessboard: one in-process session driven by
// square clicks typed at a readline prompt.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"chessboard/internal/cli"
	"chessboard/internal/engine"
	"chessboard/internal/game"
	"chessboard/internal/prefs"

	"github.com/chzyer/readline"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func main() {
	var (
		fen      = flag.String("fen", "", "Start from this FEN instead of the standard position")
		prefsDir = flag.String("prefs", "", "Preferences directory (default: user config dir)")
		theme    = flag.String("theme", "", "Board color theme: off, brown, green, gray (overrides saved)")
		flip     = flag.Bool("flip", false, "Show the board from Black's side (overrides saved)")
		debug    = flag.Bool("debug", false, "Write debug logs to stderr")
	)
	flag.Parse()

	logger := zap.NewNop()
	if *debug {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start logger: %v\n", err)
			os.Exit(1)
		}
		logger = l
	}
	defer logger.Sync()

	if err := run(*fen, *prefsDir, *theme, *flip, logger); err != nil {
		fmt.Fprintf(os.Stderr, "%s%v%s\n", cli.Red, err, cli.Reset)
		os.Exit(1)
	}
}

func run(fen, prefsDir, theme string, flip bool, logger *zap.Logger) error {
	if prefsDir == "" {
		dir, err := prefs.DefaultDir()
		if err != nil {
			return fmt.Errorf("locate preferences: %w", err)
		}
		prefsDir = dir
	}

	store, err := prefs.Open(prefsDir)
	if err != nil {
		return err
	}
	defer store.Close()

	p, err := store.Load()
	if err != nil {
		logger.Warn("load preferences, using defaults", zap.Error(err))
		p = prefs.Defaults()
	}
	if theme != "" {
		if _, err := cli.ParseTheme(theme); err != nil {
			return err
		}
		p.Theme = theme
	}
	if flip {
		p.Flipped = true
	}
	// Piped output gets the plain board and leaves saved preferences alone
	var saver cli.PrefStore = store
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		p.Theme = string(cli.ThemeOff)
		saver = nil
	}

	oracle := engine.New()
	if fen != "" {
		if oracle, err = engine.NewFromFEN(fen); err != nil {
			return err
		}
	}
	session := game.New(oracle, game.WithLogger(logger.Named("game")))

	historyFile := filepath.Join(filepath.Dir(prefsDir), "history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "chessboard > ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	view := cli.New(rl, rl.Stdout())
	handler := cli.NewHandler(session, view, saver, p, logger.Named("cli"))
	return handler.Run()
}
