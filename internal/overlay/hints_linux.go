//go:build linux

package overlay

import (
	"errors"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// x11Hints adds _NET_WM_STATE_SKIP_TASKBAR and _NET_WM_STATE_SKIP_PAGER to
// the active window so the overlay stays out of task switchers.
type x11Hints struct {
	mu    sync.Mutex
	conn  *xgb.Conn
	atoms map[string]xproto.Atom
}

var hintsConn = &x11Hints{atoms: make(map[string]xproto.Atom)}

func applyWindowHints() error {
	return hintsConn.apply()
}

func closeWindowHints() {
	hintsConn.close()
}

func (h *x11Hints) apply() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conn == nil {
		conn, err := xgb.NewConn()
		if err != nil {
			return err
		}
		h.conn = conn
	}

	win, err := h.activeWindow()
	if err != nil {
		return err
	}
	if win == xproto.WindowNone {
		return errors.New("no active window")
	}

	state, err := h.atom("_NET_WM_STATE")
	if err != nil {
		return err
	}
	atomType, err := h.atom("ATOM")
	if err != nil {
		return err
	}

	current := h.windowState(win, state, atomType)
	have := make(map[xproto.Atom]bool, len(current))
	for _, a := range current {
		have[a] = true
	}
	for _, name := range []string{"_NET_WM_STATE_SKIP_TASKBAR", "_NET_WM_STATE_SKIP_PAGER", "_NET_WM_STATE_ABOVE"} {
		a, err := h.atom(name)
		if err != nil {
			return err
		}
		if !have[a] {
			have[a] = true
			current = append(current, a)
		}
	}

	data := make([]byte, len(current)*4)
	for i, a := range current {
		xgb.Put32(data[i*4:], uint32(a))
	}
	return xproto.ChangePropertyChecked(h.conn, xproto.PropModeReplace, win,
		state, atomType, 32, uint32(len(current)), data).Check()
}

func (h *x11Hints) atom(name string) (xproto.Atom, error) {
	if a, ok := h.atoms[name]; ok {
		return a, nil
	}
	reply, err := xproto.InternAtom(h.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	h.atoms[name] = reply.Atom
	return reply.Atom, nil
}

// activeWindow reads _NET_ACTIVE_WINDOW from the root window and falls
// back to the input focus.
func (h *x11Hints) activeWindow() (xproto.Window, error) {
	setup := xproto.Setup(h.conn)
	if len(setup.Roots) == 0 {
		return xproto.WindowNone, nil
	}
	root := setup.Roots[0].Root

	if active, err := h.atom("_NET_ACTIVE_WINDOW"); err == nil {
		reply, err := xproto.GetProperty(h.conn, false, root, active, xproto.AtomWindow, 0, 1).Reply()
		if err == nil && reply != nil && len(reply.Value) >= 4 {
			return xproto.Window(xgb.Get32(reply.Value)), nil
		}
	}

	focus, err := xproto.GetInputFocus(h.conn).Reply()
	if err != nil {
		return xproto.WindowNone, err
	}
	return focus.Focus, nil
}

func (h *x11Hints) windowState(win xproto.Window, state, atomType xproto.Atom) []xproto.Atom {
	reply, err := xproto.GetProperty(h.conn, false, win, state, atomType, 0, 256).Reply()
	if err != nil || reply == nil {
		return nil
	}
	atoms := make([]xproto.Atom, 0, len(reply.Value)/4)
	for i := 0; i+4 <= len(reply.Value); i += 4 {
		atoms = append(atoms, xproto.Atom(xgb.Get32(reply.Value[i:])))
	}
	return atoms
}

func (h *x11Hints) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn != nil {
		h.conn.Close()
		h.conn = nil
	}
	h.atoms = make(map[string]xproto.Atom)
}
