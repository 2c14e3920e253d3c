package overlay

import (
	"bytes"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/gomonobold"
)

const defaultFontSize = 14.0

// TextRenderer draws text in the embedded Go Mono Bold face.
type TextRenderer struct {
	mu     sync.RWMutex
	source *text.GoTextFaceSource
	size   float64
}

// NewTextRenderer loads the embedded font. It panics only if the embedded
// font data is corrupt.
func NewTextRenderer() *TextRenderer {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(gomonobold.TTF))
	if err != nil {
		panic("overlay: loading embedded font: " + err.Error())
	}
	return &TextRenderer{source: src, size: defaultFontSize}
}

func (tr *TextRenderer) SetFontSize(size float64) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.size = size
}

func (tr *TextRenderer) face() *text.GoTextFace {
	return &text.GoTextFace{Source: tr.source, Size: tr.size}
}

// DrawText draws s with its top-left corner at (x, y).
func (tr *TextRenderer) DrawText(screen *ebiten.Image, s string, x, y float64, clr color.RGBA) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, s, tr.face(), op)
}

// MeasureText returns the size of s with LineHeight line spacing.
func (tr *TextRenderer) MeasureText(s string) (width, height float64) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return text.Measure(s, tr.face(), tr.size*1.2)
}

func (tr *TextRenderer) LineHeight() float64 {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.size * 1.2
}
