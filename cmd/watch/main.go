package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amalg/go-tetris/internal/discovery"
	"github.com/amalg/go-tetris/internal/network"
	"github.com/amalg/go-tetris/internal/ui"
)

func main() {
	addr := flag.String("addr", "", "Spectator feed address (default: browse the local network)")
	name := flag.String("name", "watcher", "Name shown to the host")
	port := flag.Int("discovery-port", discovery.DefaultPort, "UDP port feeds are advertised on")
	flag.Parse()

	log.SetOutput(io.Discard)

	if *addr == "" {
		feed, ok := browse(*port)
		if !ok {
			return
		}
		*addr = feed.Addr
	}

	client, err := network.Dial(*addr, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	config := client.Config()
	fmt.Printf("Watching %s on a %dx%d board (session %s)\n",
		client.Host(), config.Width, config.Height, client.SessionID())

	p := tea.NewProgram(ui.NewWatchModel(client), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

// browse lists advertised feeds until the user picks one or quits.
func browse(port int) (discovery.FeedInfo, bool) {
	listener := discovery.NewListener(port)
	if err := listener.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to browse feeds: %v\n", err)
		os.Exit(1)
	}
	defer listener.Stop()

	final, err := tea.NewProgram(ui.NewBrowseModel(listener), tea.WithAltScreen()).Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
	model, ok := final.(ui.BrowseModel)
	if !ok {
		return discovery.FeedInfo{}, false
	}
	return model.Selected()
}
