// Package main provides an interactive viewer for particlefx presets.
//
// Usage:
//
//	go run ./cmd/particles [flags]
//
// Flags:
//
//	--presets <file>      Load presets from a YAML file instead of the built-in library
//	--preset <name>       Start with a specific preset (e.g., --preset=fireworks)
//	--filter <keyword>    Initial filter by name (e.g., --filter=fire)
//	--auto-play           Automatically cycle through presets every 3 seconds
//	--seed <n>            Fixed random seed (0 = random)
//	--debug-addr <addr>   Serve stats, /metrics and /ws/stats on addr (e.g., 127.0.0.1:6060)
//	--verbose             Enable verbose logging
//
// Controls:
//
//	Mouse Click       - Spawn preset at cursor position
//	Mouse Drag        - Move the newest emitter
//	Left/Right Arrow  - Switch to previous/next preset
//	Page Up/Down      - Jump 10 presets forward/backward
//	Home/End          - Jump to first/last preset
//	1-9, 0            - Quick jump to preset by index (0 = 10th)
//	Space             - Spawn preset at screen center
//	P                 - Toggle pause
//	[ / ]             - Slow down / speed up time
//	\                 - Reset time scale to 1.0
//	S                 - Toggle stats overlay
//	F or /            - Enter search mode
//	R                 - Clear all instances
//	Q/Escape          - Quit
//
// Search Mode (press F or /):
//
//	Type letters      - Filter presets by name
//	Backspace         - Delete last character
//	Enter/Escape      - Exit search mode
//
// Settings (last preset, time scale, overlay, background) are persisted
// between runs. Flags override the stored values.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/particlefx/internal/particle"
	"github.com/decker502/particlefx/pkg/config"
	"github.com/decker502/particlefx/pkg/debugserver"
	"github.com/decker502/particlefx/pkg/metrics"
	"github.com/decker502/particlefx/pkg/settings"
)

const (
	screenWidth  = 1024
	screenHeight = 768
)

var (
	presetsFlag   = flag.String("presets", "", "Preset YAML file (default: built-in library)")
	presetFlag    = flag.String("preset", "", "Start with specific preset name")
	filterFlag    = flag.String("filter", "", "Initial filter by name keyword")
	autoPlayFlag  = flag.Bool("auto-play", false, "Auto cycle through presets every 3 seconds")
	seedFlag      = flag.Uint64("seed", 0, "Random seed (0 = random)")
	debugAddrFlag = flag.String("debug-addr", "", "Debug server listen address (empty = disabled)")
	verboseFlag   = flag.Bool("verbose", false, "Enable verbose logging (default off)")
)

var errQuit = errors.New("quit requested")

func main() {
	flag.Parse()

	// 默认静音运行；如需详细调试，传入 --verbose
	if !*verboseFlag {
		log.SetOutput(io.Discard)
	}

	log.Println("=== particlefx viewer ===")

	store := settings.NewManager(settings.Open("particlefx"))
	if err := store.Load(); err != nil {
		log.Printf("Warning: %v (using defaults)", err)
	}
	applyFlags(store)
	cfg := store.Settings()

	lib, err := loadLibrary(cfg.PresetFile)
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("Failed to load presets: %v", err)
	}

	board := metrics.NewBoard()
	m := metrics.New(board)

	game, err := NewParticleViewerGame(lib, store, board, m)
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("Failed to initialize viewer: %v", err)
	}

	var srv *debugserver.Server
	if cfg.DebugAddr != "" {
		srv, err = debugserver.Listen(cfg.DebugAddr, debugserver.RouterConfig{
			Source:         board,
			Metrics:        m,
			DisableLogging: !*verboseFlag,
		})
		if err != nil {
			log.SetOutput(os.Stderr)
			log.Fatalf("Failed to start debug server: %v", err)
		}
		srv.Start()
	}

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("particlefx viewer")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetFullscreen(cfg.Fullscreen)

	runErr := ebiten.RunGame(game)
	game.Close()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("[debugserver] shutdown: %v", err)
		}
		cancel()
	}

	if err := store.Save(); err != nil {
		log.Printf("Warning: %v", err)
	}

	if runErr != nil && !errors.Is(runErr, errQuit) {
		log.SetOutput(os.Stderr)
		log.Fatal(runErr)
	}
	log.Println("Viewer closed")
}

// applyFlags 命令行显式给出的参数覆盖已保存的设置
func applyFlags(store *settings.Manager) {
	cfg := store.Settings()
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "presets":
			cfg.PresetFile = *presetsFlag
		case "preset":
			store.SetPreset(*presetFlag)
		case "debug-addr":
			cfg.DebugAddr = *debugAddrFlag
		}
	})
}

func loadLibrary(path string) (*particle.Library, error) {
	if path == "" {
		return config.LoadDefaultPresets()
	}
	return config.LoadPresets(path)
}
