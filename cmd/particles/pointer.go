package main

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/particlefx/pkg/utils"
)

// samplePointer 读取当前帧的指针状态，触摸优先
func samplePointer() utils.PointerSample {
	if ids := ebiten.AppendTouchIDs(nil); len(ids) > 0 {
		x, y := ebiten.TouchPosition(ids[0])
		return utils.PointerSample{Pressed: true, X: x, Y: y}
	}
	x, y := ebiten.CursorPosition()
	return utils.PointerSample{Pressed: ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft), X: x, Y: y}
}
