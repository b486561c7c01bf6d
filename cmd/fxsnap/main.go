// Package main renders particlefx presets to PNG files without a window.
//
// Usage:
//
//	go run ./cmd/fxsnap [flags]
//
// Flags:
//
//	--presets <file>    Load presets from a YAML file instead of the built-in library
//	--preset <name>     Preset to render at the canvas center (default: sparks)
//	--cue <spec>        Timeline cue preset@at[/every][:x,y]; repeatable, replaces --preset
//	--frames <n>        Number of simulation steps before the final snapshot
//	--dt <seconds>      Simulation step
//	--every <n>         Also write a numbered snapshot every n frames
//	--out <file>        Output PNG path
//	--width, --height   Canvas size
//	--bg <color>        Background "#rrggbb[aa]"
//	--seed <n>          Random seed (default 1, snapshots are reproducible)
//	--stats             Print the final pool stats as JSON on stdout
//	--verbose           Enable verbose logging
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/decker502/particlefx/internal/particle"
	"github.com/decker502/particlefx/pkg/config"
	"github.com/decker502/particlefx/pkg/metrics"
	"github.com/decker502/particlefx/pkg/render"
	"github.com/decker502/particlefx/pkg/render/rastersurface"
	"github.com/decker502/particlefx/pkg/scenes"
	"github.com/decker502/particlefx/pkg/types"
	"github.com/decker502/particlefx/pkg/utils"
)

// cueList 可重复的 --cue 参数
type cueList []string

func (c *cueList) String() string { return strings.Join(*c, ",") }

func (c *cueList) Set(v string) error {
	*c = append(*c, v)
	return nil
}

type options struct {
	presets string
	preset  string
	cues    cueList
	frames  int
	dt      float64
	every   int
	out     string
	width   int
	height  int
	bg      string
	seed    uint64
	stats   bool
	verbose bool
}

func parseFlags(args []string) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("fxsnap", flag.ContinueOnError)
	fs.StringVar(&o.presets, "presets", "", "Preset YAML file (default: built-in library)")
	fs.StringVar(&o.preset, "preset", "sparks", "Preset to render")
	fs.Var(&o.cues, "cue", "Timeline cue preset@at[/every][:x,y] (repeatable)")
	fs.IntVar(&o.frames, "frames", 60, "Simulation steps before the snapshot")
	fs.Float64Var(&o.dt, "dt", 1.0/60.0, "Simulation step in seconds")
	fs.IntVar(&o.every, "every", 0, "Write a numbered snapshot every n frames (0 = off)")
	fs.StringVar(&o.out, "out", "snapshot.png", "Output PNG path")
	fs.IntVar(&o.width, "width", 640, "Canvas width")
	fs.IntVar(&o.height, "height", 480, "Canvas height")
	fs.StringVar(&o.bg, "bg", "#101018", "Background color")
	fs.Uint64Var(&o.seed, "seed", 1, "Random seed")
	fs.BoolVar(&o.stats, "stats", false, "Print final pool stats as JSON")
	fs.BoolVar(&o.verbose, "verbose", false, "Enable verbose logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if o.frames < 0 || o.dt <= 0 {
		return nil, fmt.Errorf("frames must be >= 0 and dt > 0")
	}
	if o.width <= 0 || o.height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", o.width, o.height)
	}
	return o, nil
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if !o.verbose {
		log.SetOutput(io.Discard)
	}

	if err := run(o, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "fxsnap: %v\n", err)
		os.Exit(1)
	}
}

func run(o *options, stdout io.Writer) error {
	var lib *particle.Library
	var err error
	if o.presets != "" {
		lib, err = config.LoadPresets(o.presets)
	} else {
		lib, err = config.LoadDefaultPresets()
	}
	if err != nil {
		return err
	}

	bg, err := particle.ParseColor(o.bg)
	if err != nil {
		return fmt.Errorf("background: %w", err)
	}

	board := metrics.NewBoard()
	opts := config.BuildOptions{Rand: utils.NewRand(o.seed), LoadTexture: loadTexture}
	scene := scenes.NewPresetScene(lib, opts, board)
	scene.MaxInstances = 0
	center := types.Vec2{X: float32(o.width) / 2, Y: float32(o.height) / 2}

	if len(o.cues) > 0 {
		coord, err := scenes.BuildTimeline("timeline", lib, o.cues, opts, center)
		if err != nil {
			return err
		}
		scene.Add("timeline", coord)
	} else if _, err := scene.SpawnPreset(o.preset, center); err != nil {
		return err
	}
	defer scene.Clear()

	surface := rastersurface.New(o.width, o.height)
	snapshot := func(path string) error {
		surface.Clear(bg)
		scene.Draw(surface)
		if err := surface.SavePNG(path); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Printf("[fxsnap] wrote %s (%d particles)", path, scene.ActiveParticles())
		return nil
	}

	dt := float32(o.dt)
	for frame := 1; frame <= o.frames; frame++ {
		scene.Update(dt)
		if o.every > 0 && frame%o.every == 0 {
			if err := snapshot(numbered(o.out, frame)); err != nil {
				return err
			}
		}
	}
	if err := snapshot(o.out); err != nil {
		return err
	}

	if o.stats {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(board.Snapshot())
	}
	fmt.Fprintf(stdout, "%s: %d particles after %d frames\n", o.out, scene.ActiveParticles(), o.frames)
	return nil
}

// numbered 在扩展名前插入帧号：out.png -> out-0030.png
func numbered(path string, frame int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%04d%s", strings.TrimSuffix(path, ext), frame, ext)
}

func loadTexture(path string) (render.Texture, error) {
	tex, err := rastersurface.LoadTexture(path)
	if err != nil {
		return nil, err
	}
	return tex, nil
}
