// Package overlay shows a small always-on-top window with CPU, RAM and
// battery percentages. The window has no decorations and can be dragged
// with the mouse or a touch.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/opd-ai/go-devinfo/internal/notify"
	"github.com/opd-ai/go-devinfo/pkg/devinfo"
)

// ErrOverlayClosed is returned by Update when the overlay's context ends.
var ErrOverlayClosed = errors.New("overlay closed")

const notificationID = "floating-overlay"

// Config holds the window geometry and refresh settings.
type Config struct {
	Width  int
	Height int
	// X and Y are the initial window position.
	X               int
	Y               int
	RefreshInterval time.Duration
	FontSize        float64
	Background      color.RGBA
	Foreground      color.RGBA
}

// DefaultConfig places a 150x72 window at (0, 100) refreshed every second.
func DefaultConfig() Config {
	return Config{
		Width:           150,
		Height:          72,
		X:               0,
		Y:               100,
		RefreshInterval: time.Second,
		FontSize:        14,
		Background:      color.RGBA{R: 0, G: 0, B: 0, A: 170},
		Foreground:      color.RGBA{R: 255, G: 255, B: 255, A: 255},
	}
}

// Stats are the values shown by the overlay. Battery is -1 when unknown.
type Stats struct {
	CPU     int
	RAM     int
	Battery int
}

// Lines renders Stats as the overlay text.
func (s Stats) Lines() []string {
	bat := "N/A"
	if s.Battery >= 0 {
		bat = strconv.Itoa(s.Battery) + "%"
	}
	return []string{
		"CPU: " + strconv.Itoa(s.CPU) + "%",
		"RAM: " + strconv.Itoa(s.RAM) + "%",
		"BAT: " + bat,
	}
}

// StatsSource produces overlay values. Stats may block for a CPU sample
// window and is called off the render loop.
type StatsSource interface {
	Stats(ctx context.Context) (Stats, error)
}

// textDrawer draws one line of text; TextRenderer implements it.
type textDrawer interface {
	DrawText(screen *ebiten.Image, s string, x, y float64, clr color.RGBA)
	LineHeight() float64
}

// Overlay implements ebiten.Game.
type Overlay struct {
	cfg      Config
	source   StatsSource
	notifier notify.Notifier
	logger   devinfo.Logger
	text     textDrawer
	input    input
	window   window
	hints    func() error

	mu           sync.RWMutex
	stats        Stats
	drag         dragger
	ctx          context.Context
	hintsApplied bool
}

// New creates an Overlay reading from source. A nil notifier disables the
// ongoing notification.
func New(cfg Config, source StatsSource, notifier notify.Notifier, logger devinfo.Logger) *Overlay {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = time.Second
	}
	tr := NewTextRenderer()
	if cfg.FontSize > 0 {
		tr.SetFontSize(cfg.FontSize)
	}
	return &Overlay{
		cfg:      cfg,
		source:   source,
		notifier: notifier,
		logger:   devinfo.OrNop(logger),
		text:     tr,
		input:    ebitenInput{},
		window:   ebitenWindow{},
		hints:    applyWindowHints,
		stats:    Stats{Battery: -1},
	}
}

// Stats returns the values currently displayed.
func (o *Overlay) Stats() Stats {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.stats
}

// refresh polls the source every RefreshInterval until ctx is done.
func (o *Overlay) refresh(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.RefreshInterval)
	defer ticker.Stop()
	for {
		stats, err := o.source.Stats(ctx)
		if err != nil && ctx.Err() == nil {
			o.logger.Debug("overlay stats incomplete", "error", err)
		}
		o.mu.Lock()
		o.stats = stats
		o.mu.Unlock()

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// Update implements ebiten.Game. It moves the window while a drag is in
// progress and applies the X11 hints once the window exists.
func (o *Overlay) Update() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ctx != nil && o.ctx.Err() != nil {
		return ErrOverlayClosed
	}

	if !o.hintsApplied && o.hints != nil {
		if err := o.hints(); err != nil {
			o.logger.Debug("window hints not applied", "error", err)
		}
		o.hintsApplied = true
	}

	wx, wy := o.window.Position()
	if px, py, ok := o.input.JustPressed(); ok {
		o.drag.press(wx, wy, wx+px, wy+py)
	}
	if px, py, ok := o.input.Pressed(); ok && o.drag.active {
		nx, ny := o.drag.move(wx+px, wy+py)
		if nx != wx || ny != wy {
			o.window.SetPosition(nx, ny)
		}
	} else {
		o.drag.release()
	}
	return nil
}

// Draw implements ebiten.Game.
func (o *Overlay) Draw(screen *ebiten.Image) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	screen.Fill(o.cfg.Background)
	lh := o.text.LineHeight()
	for i, line := range o.stats.Lines() {
		o.text.DrawText(screen, line, 8, 4+float64(i)*lh, o.cfg.Foreground)
	}
}

// Layout implements ebiten.Game.
func (o *Overlay) Layout(_, _ int) (int, int) {
	return o.cfg.Width, o.cfg.Height
}

// Run opens the window and blocks until it is closed or ctx is done.
// The ongoing notification is posted for the lifetime of the window.
func (o *Overlay) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	o.mu.Lock()
	o.ctx = ctx
	o.mu.Unlock()

	o.notify(ctx, notify.Notification{
		ID:       notificationID,
		Channel:  notify.ChannelOverlay,
		Title:    "Floating Overlay Active",
		Body:     "System monitor is running",
		Ongoing:  true,
		Progress: notify.NoProgress,
	})
	defer o.withdraw()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		o.refresh(ctx)
	}()
	defer wg.Wait()
	defer cancel()

	ebiten.SetWindowSize(o.cfg.Width, o.cfg.Height)
	ebiten.SetWindowTitle("DevInfo Overlay")
	ebiten.SetWindowDecorated(false)
	ebiten.SetWindowFloating(true)
	ebiten.SetWindowPosition(o.cfg.X, o.cfg.Y)
	ebiten.SetTPS(30)

	err := ebiten.RunGameWithOptions(o, &ebiten.RunGameOptions{ScreenTransparent: true})
	closeWindowHints()
	if err != nil && !errors.Is(err, ErrOverlayClosed) {
		return fmt.Errorf("running overlay: %w", err)
	}
	return nil
}

func (o *Overlay) notify(ctx context.Context, n notify.Notification) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.Notify(ctx, n); err != nil {
		o.logger.Warn("overlay notification failed", "error", err)
	}
}

func (o *Overlay) withdraw() {
	if o.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.notifier.Withdraw(ctx, notificationID); err != nil {
		o.logger.Warn("withdrawing overlay notification failed", "error", err)
	}
}
