// Package window owns a top-level X11 window for a render engine: its
// creation and teardown, the WM protocol handshake (ICCCM/EWMH), and the
// translation of asynchronous X events into synchronous lifecycle
// notifications.
package window

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/emberline/xwinhost/internal/x11"
)

// StyleMask holds the creation-time style flags. They are fixed for the
// window's lifetime.
type StyleMask uint32

const (
	StyleBordered StyleMask = 1 << iota
	StyleResizeable
)

// Border width in pixels when a bordered or resizeable style is requested.
const defaultBorderWidth = 4

// Geometry is the requested window placement and size. Width and height are
// always greater than zero after creation.
type Geometry struct {
	X, Y          int32
	Width, Height uint32
}

// SplashPresenter presents a one-shot splash image into the window between
// mapping and the start of the render loop. Implementations must be
// best-effort: a failed presentation never fails activation.
type SplashPresenter interface {
	Present(conn x11.Conn, win xproto.Window, gc xproto.Gcontext, width, height uint32)
}

// Options configures a Window. Conn is required; everything else has a
// usable zero value.
type Options struct {
	Conn   x11.Conn
	Logger *slog.Logger

	// Notifications receives resize/close/resolution callbacks. Nil means
	// discard.
	Notifications Notifications
	// OnExitRequested is broadcast once when the window manager asks to
	// delete the window. Nil means ignore.
	OnExitRequested func()

	// Splash, when non-nil, is run once on first activation.
	Splash SplashPresenter

	// CustomResolution suppresses resolution-changed notifications when
	// the engine drives the render resolution independently of the window
	// size.
	CustomResolution bool
}

// Window is a native X11 window. It borrows the connection for its lifetime
// and must only be used from the goroutine that polls events.
type Window struct {
	conn   x11.Conn
	screen x11.Screen
	logger *slog.Logger

	notify Notifications
	exit   func()
	splash SplashPresenter

	id xproto.Window
	gc xproto.Gcontext

	x, y          int32
	width, height uint32
	borderWidth   uint16

	activated  bool
	subscribed bool

	fullscreen       bool
	maximizedHorz    bool
	maximizedVert    bool
	customResolution bool

	atoms wmAtoms
}

type wmAtoms struct {
	wmProtocols            xproto.Atom
	wmDeleteWindow         xproto.Atom
	netWMPing              xproto.Atom
	netActiveWindow        xproto.Atom
	netBypassCompositor    xproto.Atom
	netWMState             xproto.Atom
	netFullscreen          xproto.Atom
	netMaxVert             xproto.Atom
	netMaxHorz             xproto.Atom
	netMoveresize          xproto.Atom
	netRequestFrameExtents xproto.Atom
	netFrameExtents        xproto.Atom
	netWMPid               xproto.Atom
}

// New builds an unrealized Window; Create must be called before any other
// operation.
func New(opts Options) *Window {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notify := opts.Notifications
	if notify == nil {
		notify = noNotifications{}
	}
	exit := opts.OnExitRequested
	if exit == nil {
		exit = func() {}
	}
	return &Window{
		conn:             opts.Conn,
		screen:           opts.Conn.Screen(),
		logger:           logger,
		notify:           notify,
		exit:             exit,
		splash:           opts.Splash,
		customResolution: opts.CustomResolution,
	}
}

// Create allocates the window and graphics context, writes the title and
// protocol properties, resolves the WM atoms, and asks the window manager
// for frame extents. Every server request here is checked; an error means a
// broken host environment, not a recoverable runtime condition.
func (w *Window) Create(title string, geometry Geometry, style StyleMask) error {
	gc, err := w.conn.NewGContextID()
	if err != nil {
		return fmt.Errorf("failed to allocate gcontext id: %w", err)
	}
	w.gc = gc

	// mask/values order is defined by the protocol
	gcMask := uint32(xproto.GcForeground | xproto.GcGraphicsExposures)
	gcValues := []uint32{w.screen.BlackPixel, 0}
	if err := w.conn.CreateGC(gc, gcMask, gcValues); err != nil {
		return fmt.Errorf("failed to create gcontext: %w", err)
	}

	id, err := w.conn.NewWindowID()
	if err != nil {
		return fmt.Errorf("failed to allocate window id: %w", err)
	}

	w.borderWidth = 0
	if style&(StyleBordered|StyleResizeable) != 0 {
		w.borderWidth = defaultBorderWidth
	}

	const interestedEvents = xproto.EventMaskStructureNotify |
		xproto.EventMaskKeyPress |
		xproto.EventMaskKeyRelease |
		xproto.EventMaskFocusChange |
		xproto.EventMaskPropertyChange |
		xproto.EventMaskExposure

	mask := uint32(xproto.CwBackPixel | xproto.CwEventMask)
	values := []uint32{w.screen.BlackPixel, interestedEvents}

	if err := w.conn.CreateWindow(
		id,
		int16(geometry.X), int16(geometry.Y),
		uint16(geometry.Width), uint16(geometry.Height),
		w.borderWidth,
		mask, values,
	); err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	w.id = id

	if err := w.SetTitle(title); err != nil {
		return err
	}

	w.x = geometry.X
	w.y = geometry.Y
	w.width = geometry.Width
	w.height = geometry.Height

	reg := x11.NewRegistry(w.conn, w.logger)
	w.initializeAtoms(reg)

	// Ask the WM for decoration extents up front so the engine can account
	// for them before the first frame.
	ev := x11.NewClientMessage(w.id, w.atoms.netRequestFrameExtents, [5]uint32{})
	if err := w.conn.SendClientMessage(true, w.screen.Root, rootMessageMask, ev); err != nil {
		return fmt.Errorf("failed to request frame extents: %w", err)
	}

	// The WM can kill the application if it stops answering pings.
	pid := make([]byte, 4)
	binary.LittleEndian.PutUint32(pid, uint32(os.Getpid()))
	if err := w.conn.ChangeProperty(w.id, w.atoms.netWMPid, xproto.AtomCardinal, 32, pid); err != nil {
		return fmt.Errorf("failed to set _NET_WM_PID: %w", err)
	}

	w.conn.Flush()
	return nil
}

// initializeAtoms resolves the fixed atom set and advertises the supported
// WM protocols. Resolution failures are soft; the registry logs them and
// hands back AtomNone.
func (w *Window) initializeAtoms(reg *x11.Registry) {
	w.atoms.netActiveWindow = reg.Atom(x11.AtomNameNetActiveWindow)
	w.atoms.netBypassCompositor = reg.Atom(x11.AtomNameNetWMBypassCompositor)

	w.atoms.wmProtocols = reg.Atom(x11.AtomNameWMProtocols)
	w.atoms.wmDeleteWindow = reg.Atom(x11.AtomNameWMDeleteWindow)
	w.atoms.netWMPing = reg.Atom(x11.AtomNameNetWMPing)

	protocols := make([]byte, 8)
	binary.LittleEndian.PutUint32(protocols[0:], uint32(w.atoms.wmDeleteWindow))
	binary.LittleEndian.PutUint32(protocols[4:], uint32(w.atoms.netWMPing))
	if err := w.conn.ChangeProperty(w.id, w.atoms.wmProtocols, xproto.AtomAtom, 32, protocols); err != nil {
		w.logger.Error("unable to advertise WM_PROTOCOLS", "error", err)
	}
	w.conn.Flush()

	w.atoms.netWMState = reg.Atom(x11.AtomNameNetWMState)
	w.atoms.netFullscreen = reg.Atom(x11.AtomNameNetWMStateFullscreen)
	w.atoms.netMaxVert = reg.Atom(x11.AtomNameNetWMStateMaxVert)
	w.atoms.netMaxHorz = reg.Atom(x11.AtomNameNetWMStateMaxHorz)
	w.atoms.netMoveresize = reg.Atom(x11.AtomNameNetMoveresizeWindow)
	w.atoms.netRequestFrameExtents = reg.Atom(x11.AtomNameNetRequestFrameExtents)
	w.atoms.netFrameExtents = reg.Atom(x11.AtomNameNetFrameExtents)
	w.atoms.netWMPid = reg.Atom(x11.AtomNameNetWMPid)
}

// Destroy releases the native window. Destroying the window also releases
// the graphics context server-side. Safe to call more than once.
func (w *Window) Destroy() {
	if w.id == xproto.WindowNone {
		return
	}
	w.conn.DestroyWindow(w.id)
	w.id = xproto.WindowNone
}

// Handle returns the native window id.
func (w *Window) Handle() xproto.Window {
	return w.id
}

// SetTitle writes the window's WM_CLASS property. The value is the title
// twice with a null separator, which sets the window title and the
// taskbar/group identifier in one property write.
func (w *Window) SetTitle(title string) error {
	doubled := make([]byte, 0, 2*(len(title)+1))
	doubled = append(doubled, title...)
	doubled = append(doubled, 0)
	doubled = append(doubled, title...)
	doubled = append(doubled, 0)

	if err := w.conn.ChangeProperty(w.id, xproto.AtomWmClass, xproto.AtomString, 8, doubled); err != nil {
		return fmt.Errorf("failed to set window title: %w", err)
	}
	return nil
}

// ResizeClientArea resizes the client area. An activated window is unmapped
// around the configure request and remapped afterwards: resizing while
// mapped races the WM on some window managers and flickers.
func (w *Window) ResizeClientArea(width, height uint32) {
	if w.activated {
		w.conn.UnmapWindow(w.id)
	}

	values := []uint32{width, height}
	w.conn.ConfigureWindow(w.id, xproto.ConfigWindowWidth|xproto.ConfigWindowHeight, values)

	if w.activated {
		w.conn.MapWindow(w.id)
		w.conn.Flush()
	}

	// The render side rebuilds its swapchain off this notification.
	w.WindowSizeChanged(width, height)
}

// SupportsClientAreaResize reports whether the host can resize the client
// area directly. Always true on X11.
func (w *Window) SupportsClientAreaResize() bool {
	return true
}

// DisplayRefreshRate returns the refresh rate of the display in Hz.
// TODO detect via RandR instead of assuming 60.
func (w *Window) DisplayRefreshRate() uint32 {
	return 60
}

// FrameExtents returns the WM-reported decoration thickness. Zeros when the
// window manager has not published extents yet.
func (w *Window) FrameExtents() x11.FrameExtents {
	extents, err := w.conn.FrameExtents(w.id)
	if err != nil {
		w.logger.Warn("unable to read _NET_FRAME_EXTENTS", "error", err)
		return x11.FrameExtents{}
	}
	return extents
}

// Activate maps the window, presents the splash once, and subscribes to
// event dispatch. Activating an already active window only refreshes the
// subscription.
func (w *Window) Activate() {
	w.subscribed = true

	if w.activated {
		return
	}
	w.conn.MapWindow(w.id)
	w.conn.Flush()
	if w.splash != nil {
		w.splash.Present(w.conn, w.id, w.gc, w.width, w.height)
	}
	w.activated = true
}

// Deactivate unmaps the window, emits the closed notification, and stops
// event dispatch. A no-op beyond unsubscribing if already deactivated.
func (w *Window) Deactivate() {
	if w.activated {
		w.activated = false

		w.notify.WindowClosed()

		w.conn.UnmapWindow(w.id)
		w.conn.Flush()
	}
	w.subscribed = false
}

// Activated reports whether the window is currently active.
func (w *Window) Activated() bool {
	return w.activated
}

// Size returns the stored client-area size.
func (w *Window) Size() (width, height uint32) {
	return w.width, w.height
}
