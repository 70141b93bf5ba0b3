package x11

import (
	"log/slog"

	"github.com/BurntSushi/xgb/xproto"
)

// Names of the atoms the window host negotiates with the window manager.
// They are interned once per window, right after window creation, so that
// event handling never needs a server round trip.
const (
	AtomNameWMProtocols            = "WM_PROTOCOLS"
	AtomNameWMDeleteWindow         = "WM_DELETE_WINDOW"
	AtomNameNetWMPing              = "_NET_WM_PING"
	AtomNameNetActiveWindow        = "_NET_ACTIVE_WINDOW"
	AtomNameNetWMBypassCompositor  = "_NET_WM_BYPASS_COMPOSITOR"
	AtomNameNetWMState             = "_NET_WM_STATE"
	AtomNameNetWMStateFullscreen   = "_NET_WM_STATE_FULLSCREEN"
	AtomNameNetWMStateMaxVert      = "_NET_WM_STATE_MAXIMIZED_VERT"
	AtomNameNetWMStateMaxHorz      = "_NET_WM_STATE_MAXIMIZED_HORZ"
	AtomNameNetMoveresizeWindow    = "_NET_MOVERESIZE_WINDOW"
	AtomNameNetRequestFrameExtents = "_NET_REQUEST_FRAME_EXTENTS"
	AtomNameNetFrameExtents        = "_NET_FRAME_EXTENTS"
	AtomNameNetWMPid               = "_NET_WM_PID"
)

// Registry resolves protocol atom names to server tokens. Each name is
// resolved with a single synchronous round trip and cached for the life of
// the registry; failed resolutions are soft (logged, cached as AtomNone) so
// a flaky name never fails the caller.
type Registry struct {
	conn   Conn
	logger *slog.Logger
	cache  map[string]xproto.Atom
}

// NewRegistry creates an empty atom registry over conn.
func NewRegistry(conn Conn, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		conn:   conn,
		logger: logger,
		cache:  map[string]xproto.Atom{},
	}
}

// Atom returns the server token for name, interning it on first use.
func (r *Registry) Atom(name string) xproto.Atom {
	if atom, ok := r.cache[name]; ok {
		return atom
	}
	atom, err := r.conn.InternAtom(name)
	if err != nil {
		r.logger.Error("unable to resolve atom", "atom", name, "error", err)
		atom = xproto.AtomNone
	}
	r.cache[name] = atom
	return atom
}
