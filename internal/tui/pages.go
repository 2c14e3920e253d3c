package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/opd-ai/go-devinfo/internal/sensors"
)

// Page is one tab of the UI.
type Page interface {
	SetSize(w, h int)
	SetStyles(s Styles)
	Update(msg tea.Msg) tea.Cmd
	View() string
}

// InfoPage shows sections of label/value rows in a scrollable viewport.
type InfoPage struct {
	viewport viewport.Model
	styles   Styles
	sections []Section
	loaded   bool
}

func NewInfoPage(styles Styles) *InfoPage {
	p := &InfoPage{viewport: viewport.New(80, 20), styles: styles}
	p.viewport.SetContent(styles.Muted.Render("Loading..."))
	return p
}

func (p *InfoPage) SetSize(w, h int) {
	p.viewport.Width = w
	p.viewport.Height = h
	if p.loaded {
		p.render()
	}
}

func (p *InfoPage) SetStyles(s Styles) {
	p.styles = s
	if p.loaded {
		p.render()
	} else {
		p.viewport.SetContent(s.Muted.Render("Loading..."))
	}
}

// UpdateContent replaces the sections. The scroll position is kept.
func (p *InfoPage) UpdateContent(sections []Section) {
	p.sections = sections
	p.loaded = true
	p.render()
}

// Sections returns the displayed sections.
func (p *InfoPage) Sections() []Section {
	return p.sections
}

func (p *InfoPage) render() {
	p.viewport.SetContent(renderSections(p.styles, p.sections))
}

func (p *InfoPage) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return cmd
}

func (p *InfoPage) View() string {
	return p.viewport.View()
}

// SensorsPage keeps the latest reading of each sensor in discovery order
// and merges throttled updates into it.
type SensorsPage struct {
	*InfoPage
	order    []string
	readings map[string]sensors.Reading
}

func NewSensorsPage(styles Styles) *SensorsPage {
	return &SensorsPage{
		InfoPage: NewInfoPage(styles),
		readings: make(map[string]sensors.Reading),
	}
}

// Reset replaces every reading.
func (p *SensorsPage) Reset(readings []sensors.Reading) {
	p.order = p.order[:0]
	clear(p.readings)
	p.Merge(readings)
	if len(readings) == 0 {
		p.UpdateContent(sensorSections(nil))
	}
}

// Merge applies changed readings. Unknown sensors are appended.
func (p *SensorsPage) Merge(changed []sensors.Reading) {
	if len(changed) == 0 {
		return
	}
	for _, r := range changed {
		if _, ok := p.readings[r.Sensor.ID]; !ok {
			p.order = append(p.order, r.Sensor.ID)
		}
		p.readings[r.Sensor.ID] = r
	}
	all := make([]sensors.Reading, 0, len(p.order))
	for _, id := range p.order {
		all = append(all, p.readings[id])
	}
	p.UpdateContent(sensorSections(all))
}
