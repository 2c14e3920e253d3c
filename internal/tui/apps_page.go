package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/opd-ai/go-devinfo/internal/apps"
	"github.com/opd-ai/go-devinfo/internal/format"
)

// appDetailsRequest asks the root model to load the details of an app.
type appDetailsRequest struct {
	app apps.AppInfo
}

// AppsPage lists installed apps with a kind filter and a search box.
// Enter opens the details of the selected app.
type AppsPage struct {
	viewport viewport.Model
	input    textinput.Model
	styles   Styles
	keys     keyMap
	width    int

	all     []apps.AppInfo
	visible []apps.AppInfo
	filter  apps.Filter
	cursor  int
	err     error
	loaded  bool

	searching bool
	detail    *apps.AppInfo
}

func NewAppsPage(styles Styles) *AppsPage {
	in := textinput.New()
	in.Placeholder = "Search apps"
	in.Prompt = "/ "
	in.CharLimit = 64
	return &AppsPage{
		viewport: viewport.New(80, 18),
		input:    in,
		styles:   styles,
		keys:     defaultKeyMap(),
		width:    80,
	}
}

// headerLines is the number of lines View renders above the viewport.
const headerLines = 2

func (p *AppsPage) SetSize(w, h int) {
	p.width = w
	p.viewport.Width = w
	p.viewport.Height = max(h-headerLines, 1)
	p.input.Width = max(w-4, 10)
	p.render()
}

// SetApps replaces the app list.
func (p *AppsPage) SetApps(list []apps.AppInfo, err error) {
	p.all = list
	p.err = err
	p.loaded = true
	p.refilter()
}

// SetFilter changes the kind filter.
func (p *AppsPage) SetFilter(f apps.Filter) {
	p.filter = f
	p.refilter()
}

func (p *AppsPage) Filter() apps.Filter { return p.filter }

// Visible returns the apps passing the filter and search query.
func (p *AppsPage) Visible() []apps.AppInfo { return p.visible }

// Searching reports whether the search box has focus. Key presses then
// go to the search box.
func (p *AppsPage) Searching() bool { return p.searching }

// Selected returns the app under the cursor.
func (p *AppsPage) Selected() (apps.AppInfo, bool) {
	if p.cursor < 0 || p.cursor >= len(p.visible) {
		return apps.AppInfo{}, false
	}
	return p.visible[p.cursor], true
}

// ShowDetails switches to the detail view of app.
func (p *AppsPage) ShowDetails(app apps.AppInfo) {
	p.detail = &app
	p.viewport.GotoTop()
	p.render()
}

func (p *AppsPage) refilter() {
	p.visible = apps.Select(p.all, p.filter, p.input.Value())
	if p.cursor >= len(p.visible) {
		p.cursor = max(len(p.visible)-1, 0)
	}
	p.render()
}

func (p *AppsPage) Update(msg tea.Msg) tea.Cmd {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		p.viewport, cmd = p.viewport.Update(msg)
		return cmd
	}

	if p.searching {
		switch km.Type {
		case tea.KeyEsc:
			p.input.SetValue("")
			fallthrough
		case tea.KeyEnter:
			p.searching = false
			p.input.Blur()
			p.refilter()
			return nil
		}
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		p.cursor = 0
		p.refilter()
		return cmd
	}

	if p.detail != nil {
		if key.Matches(km, p.keys.Back) {
			p.detail = nil
			p.render()
			return nil
		}
		var cmd tea.Cmd
		p.viewport, cmd = p.viewport.Update(msg)
		return cmd
	}

	switch {
	case key.Matches(km, p.keys.Search):
		p.searching = true
		return p.input.Focus()
	case key.Matches(km, p.keys.All):
		p.SetFilter(apps.FilterAll)
	case key.Matches(km, p.keys.User):
		p.SetFilter(apps.FilterUser)
	case key.Matches(km, p.keys.System):
		p.SetFilter(apps.FilterSystem)
	case key.Matches(km, p.keys.Up):
		if p.cursor > 0 {
			p.cursor--
			p.render()
		}
	case key.Matches(km, p.keys.Down):
		if p.cursor < len(p.visible)-1 {
			p.cursor++
			p.render()
		}
	case key.Matches(km, p.keys.Open):
		if app, ok := p.Selected(); ok {
			return func() tea.Msg { return appDetailsRequest{app: app} }
		}
	default:
		var cmd tea.Cmd
		p.viewport, cmd = p.viewport.Update(msg)
		return cmd
	}
	return nil
}

func (p *AppsPage) SetStyles(s Styles) {
	p.styles = s
	p.render()
}

func (p *AppsPage) render() {
	switch {
	case p.detail != nil:
		p.viewport.SetContent(p.renderDetail(*p.detail))
		return
	case p.err != nil:
		p.viewport.SetContent(p.styles.Error.Render("Unable to list apps: " + p.err.Error()))
		return
	case !p.loaded:
		p.viewport.SetContent(p.styles.Muted.Render("Loading..."))
		return
	case len(p.visible) == 0:
		p.viewport.SetContent(p.styles.Muted.Render("No apps found"))
		return
	}

	var sb strings.Builder
	for i, a := range p.visible {
		name := format.Truncate(a.Name, max(p.width/2, 16))
		if i == p.cursor {
			name = p.styles.Selected.Render("> " + name)
		} else {
			name = "  " + name
		}
		sb.WriteString(name + "  " + p.styles.Muted.Render(a.Summary()) + "\n")
	}
	p.viewport.SetContent(sb.String())

	if p.cursor < p.viewport.YOffset {
		p.viewport.SetYOffset(p.cursor)
	} else if p.viewport.Height > 0 && p.cursor >= p.viewport.YOffset+p.viewport.Height {
		p.viewport.SetYOffset(p.cursor - p.viewport.Height + 1)
	}
}

func (p *AppsPage) renderDetail(a apps.AppInfo) string {
	var sb strings.Builder
	sb.WriteString(p.styles.Section.Render(a.Name))
	sb.WriteString("\n")
	for _, line := range a.Details() {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if len(a.Permissions) > 0 {
		sb.WriteString("\n")
		sb.WriteString(p.styles.Section.Render(fmt.Sprintf("Permissions (%d)", len(a.Permissions))))
		sb.WriteString("\n")
		for _, perm := range a.Permissions {
			sb.WriteString("  " + perm + "\n")
		}
	}
	return sb.String()
}

func (p *AppsPage) header() string {
	stats := apps.Count(p.all)
	filter := fmt.Sprintf("Filter: %s  %s", strings.ToUpper(p.filter.String()), stats.String())
	search := p.styles.Muted.Render("/ search  a all  u user  s system  enter details")
	if p.searching || p.input.Value() != "" {
		search = p.input.View()
	}
	if p.detail != nil {
		search = p.styles.Muted.Render("esc back")
	}
	return filter + "\n" + search
}

func (p *AppsPage) View() string {
	return p.header() + "\n" + p.viewport.View()
}
