package main

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/decker502/particlefx/pkg/config"
	"github.com/decker502/particlefx/pkg/scenes"
	"github.com/decker502/particlefx/pkg/utils"
)

func newTestTerminal(t *testing.T) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(60, 21)

	lib, err := config.LoadDefaultPresets()
	if err != nil {
		t.Fatalf("LoadDefaultPresets failed: %v", err)
	}
	scene := scenes.NewPresetScene(lib, config.BuildOptions{Rand: utils.NewRand(1)}, nil)
	return NewTerminal(screen, scene), screen
}

func statusLine(screen tcell.SimulationScreen) string {
	w, h := screen.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := screen.GetContent(x, h-1)
		b.WriteRune(r)
	}
	return b.String()
}

func TestTerminal_SpawnAndDraw(t *testing.T) {
	term, screen := newTestTerminal(t)

	if w, h := term.surface.Size(); w != 60 || h != 20 {
		t.Fatalf("surface size = %dx%d, want 60x20 (status row reserved)", w, h)
	}

	term.spawn(term.center())
	for range 10 {
		term.tick(1.0 / 30)
	}

	if term.scene.ActiveParticles() == 0 {
		t.Fatal("no particles after 10 ticks")
	}
	if status := statusLine(screen); !strings.Contains(status, "sparks") || !strings.Contains(status, "Spawned: sparks#1") {
		t.Errorf("status line = %q", status)
	}

	lit := 0
	for y := 0; y < 20; y++ {
		for x := 0; x < 60; x++ {
			if r, _, _, _ := screen.GetContent(x, y); r != ' ' {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("no lit cells after drawing sparks")
	}
}

func TestTerminal_Keys(t *testing.T) {
	term, _ := newTestTerminal(t)

	if !term.handleInput(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone)) {
		t.Fatal("right arrow should not quit")
	}
	if got := term.scene.Selected(); got != "smoke" {
		t.Errorf("selected after right = %q, want smoke", got)
	}
	if n := len(term.scene.Instances()); n != 1 {
		t.Errorf("instances after right = %d, want 1", n)
	}

	term.handleInput(tcell.NewEventKey(tcell.KeyRune, '+', tcell.ModNone))
	if term.timeScale != 1.25 {
		t.Errorf("timeScale = %v, want 1.25", term.timeScale)
	}
	for range 20 {
		term.handleInput(tcell.NewEventKey(tcell.KeyRune, '-', tcell.ModNone))
	}
	if term.timeScale != 0.1 {
		t.Errorf("timeScale = %v, want clamped 0.1", term.timeScale)
	}

	term.handleInput(tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModNone))
	term.tick(0.5)
	if n := term.scene.ActiveParticles(); n != 0 {
		t.Errorf("paused scene spawned %d particles", n)
	}

	term.handleInput(tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone))
	if n := len(term.scene.Instances()); n != 0 {
		t.Errorf("instances after clear = %d, want 0", n)
	}

	if term.handleInput(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Error("q should quit")
	}
	if term.handleInput(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("Escape should quit")
	}
}

func TestTerminal_MouseSpawn(t *testing.T) {
	term, _ := newTestTerminal(t)

	term.handleInput(tcell.NewEventMouse(3, 2, tcell.Button1, tcell.ModNone))
	insts := term.scene.Instances()
	if len(insts) != 1 {
		t.Fatalf("instances = %d, want 1", len(insts))
	}
	if got := insts[0].Origin; got.X != 28 || got.Y != 40 {
		t.Errorf("origin = %v, want (28, 40)", got)
	}

	// 状态栏所在行不生成
	term.handleInput(tcell.NewEventMouse(3, 20, tcell.Button1, tcell.ModNone))
	if n := len(term.scene.Instances()); n != 1 {
		t.Errorf("click on status row spawned, instances = %d", n)
	}
}
