// Package main previews particlefx presets in a terminal.
//
// Usage:
//
//	go run ./cmd/fxterm [flags]
//
// Flags:
//
//	--presets <file>    Load presets from a YAML file instead of the built-in library
//	--preset <name>     Start with a specific preset
//	--cue <spec>        Play a timeline cue preset@at[/every][:x,y]; repeatable
//	--seed <n>          Random seed (0 = random)
//	--verbose           Log to fxterm.log
//
// Controls:
//
//	Left/Right   - Previous/next preset (spawns it at the center)
//	Space        - Spawn preset at the center
//	Mouse click  - Spawn preset at the clicked cell
//	p            - Toggle pause
//	+ / -        - Speed up / slow down time
//	r            - Clear all instances
//	q/Escape     - Quit
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/decker502/particlefx/internal/particle"
	"github.com/decker502/particlefx/pkg/config"
	"github.com/decker502/particlefx/pkg/render"
	"github.com/decker502/particlefx/pkg/render/rastersurface"
	"github.com/decker502/particlefx/pkg/render/termsurface"
	"github.com/decker502/particlefx/pkg/scenes"
	"github.com/decker502/particlefx/pkg/settings"
	"github.com/decker502/particlefx/pkg/types"
	"github.com/decker502/particlefx/pkg/utils"
)

const frameInterval = 33 * time.Millisecond

// Terminal 终端预览：场景 + 字符缓冲 + 状态栏
type Terminal struct {
	screen  tcell.Screen
	scene   *scenes.PresetScene
	surface *termsurface.Surface

	paused    bool
	timeScale float64
	status    string
}

// NewTerminal binds a scene to an initialized screen. The bottom row is the
// status line.
func NewTerminal(screen tcell.Screen, scene *scenes.PresetScene) *Terminal {
	w, h := screen.Size()
	t := &Terminal{
		screen:    screen,
		scene:     scene,
		surface:   termsurface.New(w, max(h-1, 0)),
		timeScale: 1,
	}
	t.status = "Selected: " + scene.Selected()
	return t
}

// center 字符网格中心的世界坐标
func (t *Terminal) center() types.Vec2 {
	return t.surface.WorldSize().Scale(0.5)
}

// cellCenter 字符单元中心的世界坐标
func (t *Terminal) cellCenter(x, y int) types.Vec2 {
	cs := t.surface.CellSize
	return types.Vec2{X: (float32(x) + 0.5) * cs.X, Y: (float32(y) + 0.5) * cs.Y}
}

func (t *Terminal) spawn(pos types.Vec2) {
	inst, err := t.scene.Spawn(pos)
	if err != nil {
		t.status = "Error: " + err.Error()
		return
	}
	t.status = "Spawned: " + inst.Name()
}

// handleInput returns false when the user quits.
func (t *Terminal) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyLeft:
			t.scene.Step(-1)
			t.spawn(t.center())
		case tcell.KeyRight:
			t.scene.Step(1)
			t.spawn(t.center())
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				t.spawn(t.center())
			case 'p':
				t.paused = !t.paused
			case 'r':
				t.scene.Clear()
				t.status = "Cleared all instances"
			case '+', '=':
				t.timeScale = min(t.timeScale*1.25, settings.MaxTimeScale)
			case '-':
				t.timeScale = max(t.timeScale/1.25, settings.MinTimeScale)
			}
		}

	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 != 0 {
			x, y := ev.Position()
			if w, h := t.surface.Size(); x < w && y < h {
				t.spawn(t.cellCenter(x, y))
			}
		}

	case *tcell.EventResize:
		w, h := t.screen.Size()
		t.surface.Resize(w, max(h-1, 0))
		t.screen.Sync()
	}
	return true
}

// tick advances the scene by dt seconds of wall time and redraws.
func (t *Terminal) tick(dt float32) {
	if !t.paused {
		t.scene.Update(dt * float32(t.timeScale))
	}
	t.draw()
}

func (t *Terminal) draw() {
	t.drawStatus()
	t.surface.Clear()
	t.scene.Draw(t.surface)
	t.surface.Present(t.screen)
}

func (t *Terminal) drawStatus() {
	w, h := t.screen.Size()
	if h == 0 {
		return
	}
	state := ""
	if t.paused {
		state = " PAUSED"
	}
	line := fmt.Sprintf(" %s | particles %d | %.2fx%s | %s",
		t.scene.Selected(), t.scene.ActiveParticles(), t.timeScale, state, t.status)

	style := tcell.StyleDefault.Reverse(true)
	runes := []rune(line)
	for x := 0; x < w; x++ {
		r := ' '
		if x < len(runes) {
			r = runes[x]
		}
		t.screen.SetContent(x, h-1, r, nil, style)
	}
}

func (t *Terminal) run() {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	last := time.Now()
	for {
		select {
		case ev := <-eventChan:
			if !t.handleInput(ev) {
				return
			}
		case now := <-ticker.C:
			dt := float32(now.Sub(last).Seconds())
			last = now
			t.tick(dt)
		}
	}
}

// cueList 可重复的 --cue 参数
type cueList []string

func (c *cueList) String() string { return strings.Join(*c, ",") }

func (c *cueList) Set(v string) error {
	*c = append(*c, v)
	return nil
}

func main() {
	presetsFlag := flag.String("presets", "", "Preset YAML file (default: built-in library)")
	presetFlag := flag.String("preset", "", "Start with specific preset name")
	seedFlag := flag.Uint64("seed", 0, "Random seed (0 = random)")
	verboseFlag := flag.Bool("verbose", false, "Log to fxterm.log")
	var cues cueList
	flag.Var(&cues, "cue", "Timeline cue preset@at[/every][:x,y] (repeatable)")
	flag.Parse()

	// 终端被占用，日志只能写入文件
	log.SetOutput(io.Discard)
	if *verboseFlag {
		f, err := os.Create("fxterm.log")
		if err == nil {
			defer f.Close()
			log.SetOutput(f)
		}
	}

	var lib *particle.Library
	var err error
	if *presetsFlag != "" {
		lib, err = config.LoadPresets(*presetsFlag)
	} else {
		lib, err = config.LoadDefaultPresets()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "fxterm: %v\n", err)
		os.Exit(1)
	}

	opts := config.BuildOptions{LoadTexture: loadTexture}
	if *seedFlag != 0 {
		opts.Rand = utils.NewRand(*seedFlag)
	}
	scene := scenes.NewPresetScene(lib, opts, nil)
	if *presetFlag != "" && !scene.Select(*presetFlag) {
		fmt.Fprintf(os.Stderr, "fxterm: unknown preset %q\n", *presetFlag)
		os.Exit(1)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fxterm: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "fxterm: %v\n", err)
		os.Exit(1)
	}
	screen.EnableMouse()

	term := NewTerminal(screen, scene)
	if len(cues) > 0 {
		coord, err := scenes.BuildTimeline("timeline", lib, cues, opts, term.center())
		if err != nil {
			screen.Fini()
			fmt.Fprintf(os.Stderr, "fxterm: %v\n", err)
			os.Exit(1)
		}
		scene.Add("timeline", coord)
	} else {
		term.spawn(term.center())
	}

	term.run()
	scene.Clear()
	screen.Fini()
}

// loadTexture 终端只使用纹理的尺寸
func loadTexture(path string) (render.Texture, error) {
	tex, err := rastersurface.LoadTexture(path)
	if err != nil {
		return nil, err
	}
	return tex, nil
}
