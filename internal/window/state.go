package window

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/emberline/xwinhost/internal/x11"
)

// _NET_WM_STATE client message actions, per EWMH.
const (
	netWMStateRemove = 0
	netWMStateAdd    = 1
	netWMStateToggle = 2
)

// Source indication: normal application.
const netWMStateSourceApplication = 1

// Event mask for client messages addressed to the root window, per the EWMH
// convention.
const rootMessageMask = xproto.EventMaskStructureNotify | xproto.EventMaskSubstructureRedirect

// Longest _NET_WM_STATE property read, in 32-bit units.
const wmStateMaxLength = 1024

// RefreshWMStates queries the _NET_WM_STATE property and recomputes the
// fullscreen/maximized flags from the returned atom list. On a malformed or
// failed reply the flags are left untouched; the window manager owns this
// state and a later query can reconcile.
func (w *Window) RefreshWMStates() {
	reply, err := w.conn.GetProperty(w.id, w.atoms.netWMState, xproto.AtomAtom, wmStateMaxLength)
	if err != nil || reply == nil || reply.Format != 32 || reply.Type != xproto.AtomAtom {
		w.logger.Warn("acquiring _NET_WM_STATE from the WM failed", "error", err)
		return
	}

	w.fullscreen = false
	w.maximizedHorz = false
	w.maximizedVert = false

	for v := reply.Value; len(v) >= 4; v = v[4:] {
		switch x11.DecodeAtom(v) {
		case w.atoms.netFullscreen:
			w.fullscreen = true
		case w.atoms.netMaxHorz:
			w.maximizedHorz = true
		case w.atoms.netMaxVert:
			w.maximizedVert = true
		}
	}
}

// FullScreenState reports the locally tracked fullscreen flag.
func (w *Window) FullScreenState() bool {
	return w.fullscreen
}

// SetFullScreenState asks the window manager to add or remove the
// fullscreen state. The local flag is updated as soon as the message is
// sent; the messages are advisory and the WM remains the source of truth,
// so a later RefreshWMStates can reconcile.
func (w *Window) SetFullScreenState(fullscreen bool) error {
	w.RefreshWMStates()

	action := uint32(netWMStateRemove)
	if fullscreen {
		action = netWMStateAdd
	}
	ev := x11.NewClientMessage(w.id, w.atoms.netWMState, [5]uint32{
		action,
		uint32(w.atoms.netFullscreen),
		0,
		netWMStateSourceApplication,
		0,
	})
	if err := w.conn.SendClientMessage(true, w.screen.Root, rootMessageMask, ev); err != nil {
		return fmt.Errorf("failed to request _NET_WM_STATE_FULLSCREEN: %w", err)
	}

	// Hint the compositor off while fullscreen. Best effort; some
	// compositors ignore it.
	bypass := []byte{0, 0, 0, 0}
	if w.fullscreen {
		bypass[0] = 1
	}
	if err := w.conn.ChangeProperty(w.id, w.atoms.netBypassCompositor, xproto.AtomCardinal, 32, bypass); err != nil {
		w.logger.Warn("unable to set _NET_WM_BYPASS_COMPOSITOR", "error", err)
	}

	if !fullscreen && (w.maximizedHorz || w.maximizedVert) {
		w.logger.Info("removing maximized state on fullscreen exit")
		ev := x11.NewClientMessage(w.id, w.atoms.netWMState, [5]uint32{
			netWMStateRemove,
			uint32(w.atoms.netMaxVert),
			uint32(w.atoms.netMaxHorz),
			netWMStateSourceApplication,
			0,
		})
		if err := w.conn.SendClientMessage(true, w.screen.Root, rootMessageMask, ev); err != nil {
			return fmt.Errorf("failed to remove maximized state: %w", err)
		}
	}

	w.conn.Flush()
	w.fullscreen = fullscreen
	return nil
}

// HandleEvent dispatches one display-server event. It consumes structure
// changes and WM client messages; everything else belongs to other
// collaborators and is ignored here. Must be called from a single polling
// goroutine, once per received event. Events are dropped while the window
// is not subscribed (between Deactivate and the next Activate).
func (w *Window) HandleEvent(ev xgb.Event) {
	if !w.subscribed {
		return
	}
	switch e := ev.(type) {
	case xproto.ConfigureNotifyEvent:
		if uint32(e.Width) != w.width || uint32(e.Height) != w.height {
			w.WindowSizeChanged(uint32(e.Width), uint32(e.Height))
		}
	case xproto.ClientMessageEvent:
		w.handleClientMessage(e)
	}
}

func (w *Window) handleClientMessage(e xproto.ClientMessageEvent) {
	if e.Type != w.atoms.wmProtocols || e.Format != 32 {
		return
	}
	switch xproto.Atom(e.Data.Data32[0]) {
	case w.atoms.wmDeleteWindow:
		w.Deactivate()
		w.exit()
	case w.atoms.netWMPing:
		if e.Window == w.screen.Root {
			return
		}
		// ICCCM pong: echo the message back to the root with the
		// destination rewritten.
		reply := e
		reply.Window = w.screen.Root
		if err := w.conn.SendClientMessage(false, w.screen.Root, rootMessageMask, reply); err != nil {
			w.logger.Warn("unable to answer _NET_WM_PING", "error", err)
		}
		w.conn.Flush()
	}
}
