package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amalg/go-tetris/internal/discovery"
	"github.com/amalg/go-tetris/internal/game"
	"github.com/amalg/go-tetris/internal/network"
	"github.com/amalg/go-tetris/internal/scores"
	"github.com/amalg/go-tetris/internal/ui"
)

func main() {
	defaults := game.DefaultConfig()
	width := flag.Int("width", defaults.Width, "Board width")
	height := flag.Int("height", defaults.Height, "Board height")
	interval := flag.Int("interval", defaults.StepInterval, "Frames between forced descents")
	hardDropLocks := flag.Bool("hard-drop-locks", false, "Lock the piece immediately on hard drop")
	seed := flag.Int64("seed", 0, "Random seed (default: time based)")
	fps := flag.Int("fps", 60, "Frames per second")
	name := flag.String("name", defaultName(), "Your player name for the high score table")
	scoresPath := flag.String("scores", "scores.db", "High score database path (empty: disabled)")
	logFile := flag.String("log", "", "Log file path (default: discard logs)")
	spectate := flag.String("spectate", "", "Serve a read-only spectator feed on this address (e.g. :9999)")
	advertise := flag.Bool("advertise", true, "Advertise the spectator feed on the local network")
	bind := flag.String("bind", "", "Extra key bindings, e.g. j=left,l=right,k=rotate_right")
	flag.Parse()

	// Redirect log output before anything logs: stderr output corrupts
	// Bubbletea's terminal rendering.
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
	} else {
		log.SetOutput(io.Discard)
	}

	if *fps <= 0 {
		fmt.Fprintln(os.Stderr, "fps must be positive")
		os.Exit(1)
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	config := game.Config{
		Width:          *width,
		Height:         *height,
		StepInterval:   *interval,
		LockOnHardDrop: *hardDropLocks,
	}
	engine, err := game.NewEngine(config, rand.New(rand.NewSource(*seed)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create game: %v\n", err)
		os.Exit(1)
	}
	log.Printf("[GAME] Started %dx%d board, seed %d", config.Width, config.Height, *seed)
	engine.OnGameOver(func(final game.Stats) {
		log.Printf("[GAME] Game over after %d lines (%d/%d/%d/%d)",
			final.Cleared, final.OneLine, final.TwoLine, final.ThreeLine, final.FourLine)
	})

	opts := ui.DefaultOptions()
	opts.Player = *name
	opts.FrameTime = time.Second / time.Duration(*fps)
	if opts.Bindings, err = ui.ParseBindings(*bind); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -bind: %v\n", err)
		os.Exit(1)
	}

	if *scoresPath != "" {
		store, err := scores.Open(context.Background(), *scoresPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open high scores: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		opts.Scores = store
	}

	var server *network.Server
	var advertiser *discovery.Broadcaster
	if *spectate != "" {
		server = network.NewServer(*spectate, *name, engine)
		if err := server.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start spectator feed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Spectators can watch on %s\n", server.Addr())

		if *advertise {
			advertiser = discovery.NewBroadcaster(discovery.FeedInfo{
				Host:  *name,
				Board: fmt.Sprintf("%dx%d", config.Width, config.Height),
				Addr:  server.Addr().String(),
			}, discovery.DefaultPort)
			server.OnWatchersChanged(advertiser.UpdateWatchers)
			if err := advertiser.Start(); err != nil {
				log.Printf("[DISCOVERY] Not advertising: %v", err)
				advertiser = nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	stop := func() {
		if advertiser != nil {
			advertiser.Stop()
		}
		if server != nil {
			server.Stop()
		}
	}

	p := tea.NewProgram(ui.NewModel(engine, opts), tea.WithAltScreen())

	// Handle OS signals for clean shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		p.Send(ui.Shutdown())
	}()

	if _, err := p.Run(); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
	stop()
}

func defaultName() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "player"
}
