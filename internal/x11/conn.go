package x11

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// Screen is a read-only snapshot of the root screen, taken once when the
// connection wrapper is built.
type Screen struct {
	Root       xproto.Window
	RootVisual xproto.Visualid
	RootDepth  byte
	BlackPixel uint32
}

// FrameExtents holds the window manager's reported decoration thickness
// around a window's client area, in pixels.
type FrameExtents struct {
	Left, Right, Top, Bottom int
}

// Conn is the slice of the display-server connection that the window and
// splash packages issue requests through. The connection itself is owned by
// the caller; implementations must never close it.
//
// Methods returning an error are checked: they round-trip an error check and
// block until the server has validated the request. The rest are fire and
// forget.
type Conn interface {
	Screen() Screen

	NewWindowID() (xproto.Window, error)
	NewGContextID() (xproto.Gcontext, error)
	NewPixmapID() (xproto.Pixmap, error)

	// CreateWindow creates an InputOutput window parented to the root,
	// with depth and visual copied from the root screen.
	CreateWindow(id xproto.Window, x, y int16, width, height, borderWidth uint16, valueMask uint32, values []uint32) error
	DestroyWindow(id xproto.Window)
	MapWindow(id xproto.Window)
	UnmapWindow(id xproto.Window)
	ConfigureWindow(id xproto.Window, valueMask uint16, values []uint32)

	// CreateGC creates a graphics context against the root drawable.
	CreateGC(gc xproto.Gcontext, valueMask uint32, values []uint32) error

	InternAtom(name string) (xproto.Atom, error)
	// ChangeProperty replaces a window property. The element count is
	// derived from len(data) and the format.
	ChangeProperty(window xproto.Window, property, typ xproto.Atom, format byte, data []byte) error
	GetProperty(window xproto.Window, property, typ xproto.Atom, longLength uint32) (*xproto.GetPropertyReply, error)
	FrameExtents(window xproto.Window) (FrameExtents, error)

	SendClientMessage(propagate bool, destination xproto.Window, eventMask uint32, ev xproto.ClientMessageEvent) error

	// CreatePixmap creates a pixmap at the root depth.
	CreatePixmap(id xproto.Pixmap, drawable xproto.Drawable, width, height uint16) error
	FreePixmap(id xproto.Pixmap)
	PutImage(drawable xproto.Drawable, gc xproto.Gcontext, width, height uint16, dstX, dstY int16, data []byte)
	CopyArea(src, dst xproto.Drawable, gc xproto.Gcontext, srcX, srcY, dstX, dstY int16, width, height uint16)

	// WaitForEvent blocks until the next event arrives. A (nil, nil)
	// return means the connection is gone.
	WaitForEvent() (xgb.Event, error)
	Flush()
}

// NewClientMessage builds a 32-bit format client message with the standard
// five data words.
func NewClientMessage(window xproto.Window, typ xproto.Atom, data [5]uint32) xproto.ClientMessageEvent {
	return xproto.ClientMessageEvent{
		Format: 32,
		Window: window,
		Type:   typ,
		Data:   xproto.ClientMessageDataUnionData32New(data[:]),
	}
}

// DecodeAtom decodes an xproto.Atom from a property value (expressed as
// bytes). v has to be at least 4 bytes long.
func DecodeAtom(v []byte) xproto.Atom {
	return xproto.Atom(uint32(v[0]) | uint32(v[1])<<8 |
		uint32(v[2])<<16 | uint32(v[3])<<24)
}
