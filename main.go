package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"go-vizmix/app"
	"go-vizmix/config"
	"go-vizmix/tui"
	"go-vizmix/video"
)

func main() {
	logrus.SetLevel(logrus.WarnLevel)
	logrus.SetOutput(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	a, err := app.New(cfg, video.HeadlessDecoder{})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Device grants are asynchronous: refusal leaves audio/MIDI inactive
	// and the rest keeps running.
	a.StartDevices(ctx)

	// Videos named on the command line seed the playlist.
	for _, path := range os.Args[1:] {
		if _, err := a.Videos.AddVideo(path); err != nil {
			fmt.Printf("Skipping %s: %v\n", path, err)
		}
	}

	m := tui.NewModel(a)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
