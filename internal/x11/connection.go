package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Connection implements Conn over a borrowed X11 connection. The underlying
// connection is owned by the caller for the whole lifetime of this wrapper;
// Close is deliberately not provided here.
type Connection struct {
	xu     *xgbutil.XUtil
	conn   *xgb.Conn
	screen Screen
}

var _ Conn = (*Connection)(nil)

// NewConnection wraps an established X11 connection and snapshots the root
// screen descriptor.
func NewConnection(xu *xgbutil.XUtil) *Connection {
	s := xu.Screen()
	return &Connection{
		xu:   xu,
		conn: xu.Conn(),
		screen: Screen{
			Root:       s.Root,
			RootVisual: s.RootVisual,
			RootDepth:  s.RootDepth,
			BlackPixel: s.BlackPixel,
		},
	}
}

// Connect opens a fresh connection to the given display (empty means
// $DISPLAY) and wraps it. The caller owns the returned XUtil and is
// responsible for closing it.
func Connect(display string) (*xgbutil.XUtil, *Connection, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return xu, NewConnection(xu), nil
}

func (c *Connection) Screen() Screen {
	return c.screen
}

func (c *Connection) NewWindowID() (xproto.Window, error) {
	return xproto.NewWindowId(c.conn)
}

func (c *Connection) NewGContextID() (xproto.Gcontext, error) {
	return xproto.NewGcontextId(c.conn)
}

func (c *Connection) NewPixmapID() (xproto.Pixmap, error) {
	return xproto.NewPixmapId(c.conn)
}

func (c *Connection) CreateWindow(id xproto.Window, x, y int16, width, height, borderWidth uint16, valueMask uint32, values []uint32) error {
	return xproto.CreateWindowChecked(
		c.conn,
		c.screen.RootDepth,
		id,
		c.screen.Root,
		x, y,
		width, height,
		borderWidth,
		xproto.WindowClassInputOutput,
		c.screen.RootVisual,
		valueMask,
		values,
	).Check()
}

func (c *Connection) DestroyWindow(id xproto.Window) {
	xproto.DestroyWindow(c.conn, id)
}

func (c *Connection) MapWindow(id xproto.Window) {
	xproto.MapWindow(c.conn, id)
}

func (c *Connection) UnmapWindow(id xproto.Window) {
	xproto.UnmapWindow(c.conn, id)
}

func (c *Connection) ConfigureWindow(id xproto.Window, valueMask uint16, values []uint32) {
	xproto.ConfigureWindow(c.conn, id, valueMask, values)
}

func (c *Connection) CreateGC(gc xproto.Gcontext, valueMask uint32, values []uint32) error {
	return xproto.CreateGCChecked(c.conn, gc, xproto.Drawable(c.screen.Root), valueMask, values).Check()
}

func (c *Connection) InternAtom(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(c.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return xproto.AtomNone, fmt.Errorf("failed to intern %s: %w", name, err)
	}
	if reply == nil {
		return xproto.AtomNone, fmt.Errorf("no reply interning %s", name)
	}
	return reply.Atom, nil
}

func (c *Connection) ChangeProperty(window xproto.Window, property, typ xproto.Atom, format byte, data []byte) error {
	return xproto.ChangePropertyChecked(
		c.conn,
		xproto.PropModeReplace,
		window,
		property,
		typ,
		format,
		uint32(len(data))/uint32(format/8),
		data,
	).Check()
}

func (c *Connection) GetProperty(window xproto.Window, property, typ xproto.Atom, longLength uint32) (*xproto.GetPropertyReply, error) {
	return xproto.GetProperty(c.conn, false, window, property, typ, 0, longLength).Reply()
}

func (c *Connection) FrameExtents(window xproto.Window) (FrameExtents, error) {
	extents, err := ewmh.FrameExtentsGet(c.xu, window)
	if err != nil {
		return FrameExtents{}, err
	}
	return FrameExtents{
		Left:   int(extents.Left),
		Right:  int(extents.Right),
		Top:    int(extents.Top),
		Bottom: int(extents.Bottom),
	}, nil
}

func (c *Connection) SendClientMessage(propagate bool, destination xproto.Window, eventMask uint32, ev xproto.ClientMessageEvent) error {
	return xproto.SendEventChecked(
		c.conn,
		propagate,
		destination,
		eventMask,
		string(ev.Bytes()),
	).Check()
}

func (c *Connection) CreatePixmap(id xproto.Pixmap, drawable xproto.Drawable, width, height uint16) error {
	return xproto.CreatePixmapChecked(c.conn, c.screen.RootDepth, id, drawable, width, height).Check()
}

func (c *Connection) FreePixmap(id xproto.Pixmap) {
	xproto.FreePixmap(c.conn, id)
}

func (c *Connection) PutImage(drawable xproto.Drawable, gc xproto.Gcontext, width, height uint16, dstX, dstY int16, data []byte) {
	xproto.PutImage(
		c.conn,
		xproto.ImageFormatZPixmap,
		drawable,
		gc,
		width, height,
		dstX, dstY,
		0, // left pad, must be 0 for ZPixmap
		c.screen.RootDepth,
		data,
	)
}

func (c *Connection) CopyArea(src, dst xproto.Drawable, gc xproto.Gcontext, srcX, srcY, dstX, dstY int16, width, height uint16) {
	xproto.CopyArea(c.conn, src, dst, gc, srcX, srcY, dstX, dstY, width, height)
}

func (c *Connection) WaitForEvent() (xgb.Event, error) {
	ev, xerr := c.conn.WaitForEvent()
	if xerr != nil {
		return nil, xerr
	}
	return ev, nil
}

// Flush forces delivery of all buffered requests. xgb writes requests
// eagerly, so a round trip is the reliable way to know the server has seen
// everything queued so far.
func (c *Connection) Flush() {
	c.conn.Sync()
}
