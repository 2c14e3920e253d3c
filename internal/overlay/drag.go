package overlay

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// dragger moves the window by the pointer's travel since the press:
// position = start + (pointer - pointerStart), in screen coordinates.
type dragger struct {
	active         bool
	startX, startY int
	downX, downY   int
}

func (d *dragger) press(winX, winY, pointerX, pointerY int) {
	d.active = true
	d.startX, d.startY = winX, winY
	d.downX, d.downY = pointerX, pointerY
}

func (d *dragger) move(pointerX, pointerY int) (int, int) {
	return d.startX + pointerX - d.downX, d.startY + pointerY - d.downY
}

func (d *dragger) release() {
	d.active = false
}

// input reports the pointer in window coordinates.
type input interface {
	JustPressed() (x, y int, ok bool)
	Pressed() (x, y int, ok bool)
}

// ebitenInput reads the left mouse button and the first touch.
type ebitenInput struct{}

func (ebitenInput) JustPressed() (int, int, bool) {
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		return x, y, true
	}
	if ids := inpututil.AppendJustPressedTouchIDs(nil); len(ids) > 0 {
		x, y := ebiten.TouchPosition(ids[0])
		return x, y, true
	}
	return 0, 0, false
}

func (ebitenInput) Pressed() (int, int, bool) {
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		return x, y, true
	}
	if ids := ebiten.AppendTouchIDs(nil); len(ids) > 0 {
		x, y := ebiten.TouchPosition(ids[0])
		return x, y, true
	}
	return 0, 0, false
}

// window positions the overlay window on screen.
type window interface {
	Position() (x, y int)
	SetPosition(x, y int)
}

type ebitenWindow struct{}

func (ebitenWindow) Position() (int, int) { return ebiten.WindowPosition() }
func (ebitenWindow) SetPosition(x, y int) { ebiten.SetWindowPosition(x, y) }
