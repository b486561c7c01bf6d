package main

import (
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/decker502/particlefx/internal/particle"
	"github.com/decker502/particlefx/pkg/config"
	"github.com/decker502/particlefx/pkg/embedded"
	"github.com/decker502/particlefx/pkg/metrics"
	"github.com/decker502/particlefx/pkg/render"
	"github.com/decker502/particlefx/pkg/render/ebitensurface"
	"github.com/decker502/particlefx/pkg/scenes"
	"github.com/decker502/particlefx/pkg/settings"
	"github.com/decker502/particlefx/pkg/types"
	"github.com/decker502/particlefx/pkg/utils"
)

const (
	autoPlayPeriod = 3 * time.Second
	timeScaleStep  = 1.25
)

// ParticleViewerGame implements ebiten.Game for the preset viewer
type ParticleViewerGame struct {
	scene   *scenes.PresetScene
	surface *ebitensurface.Surface
	store   *settings.Manager
	board   *metrics.Board
	metrics *metrics.Metrics

	background color.NRGBA
	drag       utils.DragTracker

	// Search mode
	searchMode bool

	// Auto-play mode
	autoPlay      bool
	lastSpawnTime time.Time

	// UI state
	statusMessage string
	lastUpdate    time.Duration
	lastDraw      time.Duration
}

// NewParticleViewerGame creates the viewer and spawns the selected preset at
// the screen center.
func NewParticleViewerGame(lib *particle.Library, store *settings.Manager, board *metrics.Board, m *metrics.Metrics) (*ParticleViewerGame, error) {
	if len(lib.Presets) == 0 {
		return nil, fmt.Errorf("no presets found")
	}
	cfg := store.Settings()

	opts := config.BuildOptions{LoadTexture: loadTexture}
	if *seedFlag != 0 {
		opts.Rand = utils.NewRand(*seedFlag)
	}
	scene := scenes.NewPresetScene(lib, opts, board)

	if *filterFlag != "" {
		scene.SetFilter(*filterFlag)
		if len(scene.Filtered()) == 0 {
			log.Printf("Warning: No presets match initial filter %q, showing all", *filterFlag)
			scene.SetFilter("")
		}
	}
	if cfg.Preset != "" && !scene.Select(cfg.Preset) {
		log.Printf("Warning: preset %q not found, starting with %s", cfg.Preset, scene.Selected())
	}

	bg, err := particle.ParseColor(cfg.Background)
	if err != nil {
		log.Printf("Warning: background: %v", err)
		bg = color.NRGBA{R: 16, G: 16, B: 24, A: 255}
	}

	g := &ParticleViewerGame{
		scene:         scene,
		surface:       ebitensurface.New(nil),
		store:         store,
		board:         board,
		metrics:       m,
		background:    bg,
		autoPlay:      *autoPlayFlag,
		lastSpawnTime: time.Now(),
	}

	g.updateStatusMessage()
	log.Printf("Viewer initialized: %d presets, %d after filter", len(scene.Names()), len(scene.Filtered()))

	// 启动时自动在屏幕中心生成当前预设，避免空白屏幕
	g.spawnCurrent(center())
	return g, nil
}

func center() types.Vec2 {
	return types.Vec2{X: screenWidth / 2, Y: screenHeight / 2}
}

// loadTexture 优先从内置资源加载，否则从磁盘加载
func loadTexture(path string) (render.Texture, error) {
	if embedded.Exists(path) {
		f, err := embedded.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return ebitensurface.NewTexture(ebiten.NewImageFromImage(img)), nil
	}

	img, _, err := ebitenutil.NewImageFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load texture %s: %w", path, err)
	}
	return ebitensurface.NewTexture(img), nil
}

// Update handles input and advances the scene
func (g *ParticleViewerGame) Update() error {
	if g.searchMode {
		g.updateSearchMode()
	} else if err := g.updateNormalMode(); err != nil {
		return err
	}

	cfg := g.store.Settings()
	if cfg.Paused {
		return nil
	}

	start := time.Now()
	dt := float32(cfg.TimeScale) / float32(ebiten.TPS())
	g.scene.Update(dt)
	g.lastUpdate = time.Since(start)
	g.metrics.ObserveUpdate(g.lastUpdate)
	return nil
}

// updateSearchMode handles input when in search mode
func (g *ParticleViewerGame) updateSearchMode() {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.searchMode = false
		g.statusMessage = fmt.Sprintf("Search: %q (%d results)", g.scene.Filter(), len(g.scene.Filtered()))
		return
	}

	query := g.scene.Filter()
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) && len(query) > 0 {
		g.scene.SetFilter(query[:len(query)-1])
		return
	}

	runes := ebiten.AppendInputChars(nil)
	if len(runes) == 0 {
		return
	}
	for _, r := range runes {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			query += string(r)
		}
	}
	g.scene.SetFilter(query)
	log.Printf("Search query: %q, Results: %d", query, len(g.scene.Filtered()))
}

// updateNormalMode handles input when in normal mode
func (g *ParticleViewerGame) updateNormalMode() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return errQuit
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF) || inpututil.IsKeyJustPressed(ebiten.KeySlash) {
		g.searchMode = true
		g.statusMessage = "Search mode: Type to filter presets..."
		return nil
	}

	cfg := g.store.Settings()

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.store.SetPaused(!cfg.Paused)
		if cfg.Paused {
			g.statusMessage = "PAUSED - Press P to resume"
		} else {
			g.statusMessage = "Resumed"
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.store.SetShowStats(!cfg.ShowStats)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyBracketLeft) {
		g.setTimeScale(cfg.TimeScale / timeScaleStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketRight) {
		g.setTimeScale(cfg.TimeScale * timeScaleStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackslash) {
		g.setTimeScale(1)
	}

	// Quick jump with number keys: 1..9 then 0 = 10th
	for i := 0; i <= 9; i++ {
		if inpututil.IsKeyJustPressed(ebiten.Key0 + ebiten.Key(i)) {
			target := i - 1
			if i == 0 {
				target = 9
			}
			if target < len(g.scene.Filtered()) {
				g.scene.Jump(target)
				g.selectionChanged()
			}
			return nil
		}
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft):
		g.scene.Step(-1)
		g.selectionChanged()
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowRight):
		g.scene.Step(1)
		g.selectionChanged()
	case inpututil.IsKeyJustPressed(ebiten.KeyPageUp):
		g.scene.Step(-10)
		g.selectionChanged()
	case inpututil.IsKeyJustPressed(ebiten.KeyPageDown):
		g.scene.Step(10)
		g.selectionChanged()
	case inpututil.IsKeyJustPressed(ebiten.KeyHome):
		g.scene.Jump(0)
		g.selectionChanged()
	case inpututil.IsKeyJustPressed(ebiten.KeyEnd):
		g.scene.Jump(len(g.scene.Filtered()) - 1)
		g.selectionChanged()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.scene.Clear()
		g.statusMessage = "Cleared all instances"
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.spawnCurrent(center())
	}

	// 按下生成，拖动时移动最新的发射器
	sample := samplePointer()
	switch g.drag.Step(sample) {
	case utils.DragStateStarted:
		g.spawnCurrent(types.Vec2{X: float32(sample.X), Y: float32(sample.Y)})
	case utils.DragStateDragging:
		if g.drag.Moved() {
			g.scene.MoveLast(types.Vec2{X: float32(g.drag.CurrentX), Y: float32(g.drag.CurrentY)})
		}
	}

	if g.autoPlay && !cfg.Paused && time.Since(g.lastSpawnTime) > autoPlayPeriod {
		g.scene.Step(1)
		g.selectionChanged()
		g.lastSpawnTime = time.Now()
	}
	return nil
}

func (g *ParticleViewerGame) setTimeScale(scale float64) {
	g.store.SetTimeScale(scale)
	g.statusMessage = fmt.Sprintf("Time scale: %.2fx", g.store.Settings().TimeScale)
}

// selectionChanged 切换预设后记录并在中心生成
func (g *ParticleViewerGame) selectionChanged() {
	g.store.SetPreset(g.scene.Selected())
	g.updateStatusMessage()
	g.spawnCurrent(center())
}

func (g *ParticleViewerGame) spawnCurrent(pos types.Vec2) {
	inst, err := g.scene.Spawn(pos)
	if err != nil {
		log.Printf("Failed to spawn: %v", err)
		g.statusMessage = fmt.Sprintf("Error: %v", err)
		return
	}
	log.Printf("Spawned %s at (%.0f, %.0f)", inst.Name(), pos.X, pos.Y)
	g.statusMessage = fmt.Sprintf("Spawned: %s", inst.Name())
}

func (g *ParticleViewerGame) updateStatusMessage() {
	name := g.scene.Selected()
	if name == "" {
		g.statusMessage = "No presets available"
		return
	}
	g.statusMessage = fmt.Sprintf("Selected: %s", name)
	log.Printf("Current preset: %s (%d/%d)", name, g.scene.SelectedIndex()+1, len(g.scene.Filtered()))
}

// Draw renders the scene and the overlay
func (g *ParticleViewerGame) Draw(screen *ebiten.Image) {
	screen.Fill(g.background)

	start := time.Now()
	g.surface.SetTarget(screen)
	g.surface.ResetStats()
	g.scene.Draw(g.surface)
	g.surface.Flush()
	g.lastDraw = time.Since(start)
	g.metrics.ObserveDraw(g.lastDraw)

	g.drawUI(screen)
}

// drawUI draws the preset info, stats and controls
func (g *ParticleViewerGame) drawUI(screen *ebiten.Image) {
	filtered := g.scene.Filtered()
	if len(filtered) == 0 {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("No presets match filter %q", g.scene.Filter()), 10, 10)
	} else {
		title := fmt.Sprintf("particlefx - Preset %d/%d: %s", g.scene.SelectedIndex()+1, len(filtered), g.scene.Selected())
		ebitenutil.DebugPrintAt(screen, title, 10, 10)
	}

	if g.scene.Filter() != "" {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Filter: %q (%d/%d presets)", g.scene.Filter(), len(filtered), len(g.scene.Names())), 10, 30)
	}

	cfg := g.store.Settings()
	info := fmt.Sprintf("Instances: %d  Particles: %d  Time: %.2fx  TPS: %.0f",
		len(g.scene.Instances()), g.scene.ActiveParticles(), cfg.TimeScale, ebiten.ActualTPS())
	ebitenutil.DebugPrintAt(screen, info, 10, 50)

	if g.searchMode {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("SEARCH: %s_", g.scene.Filter()), 10, 70)
		ebitenutil.DebugPrintAt(screen, "(Type to filter, Backspace to delete, Enter/Esc to exit)", 10, 90)
	} else if g.statusMessage != "" {
		ebitenutil.DebugPrintAt(screen, g.statusMessage, 10, 70)
	}

	if cfg.ShowStats {
		g.drawStats(screen, 10, 120)
	}

	controls := []string{
		"Navigation: <-/-> = Prev/Next  PgUp/PgDn = Jump 10  Home/End = First/Last  1-9 = Quick Jump",
		"Actions:    Click/Space = Spawn  Drag = Move  R = Clear  P = Pause  S = Stats  F/Slash = Search  Q = Quit",
		"Time:       [ = Slower  ] = Faster  \\ = Reset",
	}
	y := screenHeight - len(controls)*20 - 10
	for i, line := range controls {
		ebitenutil.DebugPrintAt(screen, line, 10, y+i*20)
	}

	if cfg.Paused {
		ebitenutil.DebugPrintAt(screen, "PAUSED (Press P to resume)", screenWidth-220, 10)
	} else if g.autoPlay {
		ebitenutil.DebugPrintAt(screen, "AUTO-PLAY MODE", screenWidth-150, 10)
	}
}

// drawStats 显示每个实例每层粒子池的统计
func (g *ParticleViewerGame) drawStats(screen *ebiten.Image, x, y int) {
	line := fmt.Sprintf("update %.2fms  draw %.2fms  draw calls %d  frame %d",
		float64(g.lastUpdate.Microseconds())/1000, float64(g.lastDraw.Microseconds())/1000, g.surface.DrawCalls, g.board.Frame())
	ebitenutil.DebugPrintAt(screen, line, x, y)
	y += 20

	for _, sys := range g.board.Snapshot() {
		for _, tier := range sys.Tiers {
			text := fmt.Sprintf("%-16s %-22s %5d/%-5d dropped %d",
				sys.Name, tier.Tier, tier.Active, tier.Capacity, tier.Dropped)
			ebitenutil.DebugPrintAt(screen, text, x, y)
			y += 16
		}
	}
}

// Layout returns the logical screen size
func (g *ParticleViewerGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

// Close disposes every instance
func (g *ParticleViewerGame) Close() {
	g.scene.Clear()
}
