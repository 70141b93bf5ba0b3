// Package x11test provides an in-memory Conn implementation for tests.
// It records every request in order and lets tests inject replies, queued
// events, and per-request failures.
package x11test

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/emberline/xwinhost/internal/x11"
)

// CreateWindowCall records one CreateWindow request.
type CreateWindowCall struct {
	ID            xproto.Window
	X, Y          int16
	Width, Height uint16
	BorderWidth   uint16
	ValueMask     uint32
	Values        []uint32
}

// PropertyWrite records one ChangeProperty request.
type PropertyWrite struct {
	Window   xproto.Window
	Property xproto.Atom
	Type     xproto.Atom
	Format   byte
	Data     []byte
}

// Message records one SendClientMessage request.
type Message struct {
	Propagate   bool
	Destination xproto.Window
	EventMask   uint32
	Event       xproto.ClientMessageEvent
}

// PutImageCall records one PutImage request.
type PutImageCall struct {
	Drawable      xproto.Drawable
	Width, Height uint16
	DstX, DstY    int16
	Data          []byte
}

// CopyAreaCall records one CopyArea request.
type CopyAreaCall struct {
	Src, Dst      xproto.Drawable
	SrcX, SrcY    int16
	DstX, DstY    int16
	Width, Height uint16
}

// Conn is a fake x11.Conn. The zero value is usable; Atoms assigns tokens
// sequentially starting at 100 unless pre-seeded.
type Conn struct {
	ScreenInfo x11.Screen

	// Ops is the ordered trace of request names.
	Ops []string

	CreatedWindows []CreateWindowCall

	Properties  []PropertyWrite
	Messages    []Message
	Configures  [][]uint32
	PutImages   []PutImageCall
	CopyAreas   []CopyAreaCall
	FreedPixmap []xproto.Pixmap

	// Atoms maps names to tokens handed out by InternAtom. Populated on
	// demand for names not pre-seeded.
	Atoms       map[string]xproto.Atom
	InternCalls []string
	InternErr   map[string]error

	PropertyReply *xproto.GetPropertyReply
	PropertyErr   error
	Extents       x11.FrameExtents
	ExtentsErr    error

	CreateWindowErr   error
	CreateGCErr       error
	CreatePixmapErr   error
	ChangePropertyErr error
	SendMessageErr    error

	// Events is consumed front to back by WaitForEvent; when drained,
	// WaitForEvent returns (nil, nil) as a closed connection does.
	Events []xgb.Event

	nextAtom uint32
	nextID   uint32
}

var _ x11.Conn = (*Conn)(nil)

func (c *Conn) record(op string) {
	c.Ops = append(c.Ops, op)
}

func (c *Conn) Screen() x11.Screen {
	return c.ScreenInfo
}

func (c *Conn) NewWindowID() (xproto.Window, error) {
	c.nextID++
	return xproto.Window(c.nextID), nil
}

func (c *Conn) NewGContextID() (xproto.Gcontext, error) {
	c.nextID++
	return xproto.Gcontext(c.nextID), nil
}

func (c *Conn) NewPixmapID() (xproto.Pixmap, error) {
	c.nextID++
	return xproto.Pixmap(c.nextID), nil
}

func (c *Conn) CreateWindow(id xproto.Window, x, y int16, width, height, borderWidth uint16, valueMask uint32, values []uint32) error {
	c.record("CreateWindow")
	c.CreatedWindows = append(c.CreatedWindows, CreateWindowCall{
		ID: id,
		X:  x, Y: y,
		Width: width, Height: height,
		BorderWidth: borderWidth,
		ValueMask:   valueMask,
		Values:      append([]uint32(nil), values...),
	})
	return c.CreateWindowErr
}

func (c *Conn) DestroyWindow(id xproto.Window) {
	c.record("DestroyWindow")
}

func (c *Conn) MapWindow(id xproto.Window) {
	c.record("MapWindow")
}

func (c *Conn) UnmapWindow(id xproto.Window) {
	c.record("UnmapWindow")
}

func (c *Conn) ConfigureWindow(id xproto.Window, valueMask uint16, values []uint32) {
	c.record("ConfigureWindow")
	c.Configures = append(c.Configures, values)
}

func (c *Conn) CreateGC(gc xproto.Gcontext, valueMask uint32, values []uint32) error {
	c.record("CreateGC")
	return c.CreateGCErr
}

func (c *Conn) InternAtom(name string) (xproto.Atom, error) {
	c.record("InternAtom")
	c.InternCalls = append(c.InternCalls, name)
	if err, ok := c.InternErr[name]; ok {
		return xproto.AtomNone, err
	}
	if c.Atoms == nil {
		c.Atoms = map[string]xproto.Atom{}
	}
	if atom, ok := c.Atoms[name]; ok {
		return atom, nil
	}
	c.nextAtom++
	atom := xproto.Atom(99 + c.nextAtom)
	c.Atoms[name] = atom
	return atom, nil
}

func (c *Conn) ChangeProperty(window xproto.Window, property, typ xproto.Atom, format byte, data []byte) error {
	c.record("ChangeProperty")
	c.Properties = append(c.Properties, PropertyWrite{
		Window:   window,
		Property: property,
		Type:     typ,
		Format:   format,
		Data:     append([]byte(nil), data...),
	})
	return c.ChangePropertyErr
}

func (c *Conn) GetProperty(window xproto.Window, property, typ xproto.Atom, longLength uint32) (*xproto.GetPropertyReply, error) {
	c.record("GetProperty")
	return c.PropertyReply, c.PropertyErr
}

func (c *Conn) FrameExtents(window xproto.Window) (x11.FrameExtents, error) {
	c.record("FrameExtents")
	return c.Extents, c.ExtentsErr
}

func (c *Conn) SendClientMessage(propagate bool, destination xproto.Window, eventMask uint32, ev xproto.ClientMessageEvent) error {
	c.record("SendClientMessage")
	c.Messages = append(c.Messages, Message{
		Propagate:   propagate,
		Destination: destination,
		EventMask:   eventMask,
		Event:       ev,
	})
	return c.SendMessageErr
}

func (c *Conn) CreatePixmap(id xproto.Pixmap, drawable xproto.Drawable, width, height uint16) error {
	c.record("CreatePixmap")
	return c.CreatePixmapErr
}

func (c *Conn) FreePixmap(id xproto.Pixmap) {
	c.record("FreePixmap")
	c.FreedPixmap = append(c.FreedPixmap, id)
}

func (c *Conn) PutImage(drawable xproto.Drawable, gc xproto.Gcontext, width, height uint16, dstX, dstY int16, data []byte) {
	c.record("PutImage")
	c.PutImages = append(c.PutImages, PutImageCall{
		Drawable: drawable,
		Width:    width,
		Height:   height,
		DstX:     dstX,
		DstY:     dstY,
		Data:     append([]byte(nil), data...),
	})
}

func (c *Conn) CopyArea(src, dst xproto.Drawable, gc xproto.Gcontext, srcX, srcY, dstX, dstY int16, width, height uint16) {
	c.record("CopyArea")
	c.CopyAreas = append(c.CopyAreas, CopyAreaCall{
		Src: src, Dst: dst,
		SrcX: srcX, SrcY: srcY,
		DstX: dstX, DstY: dstY,
		Width: width, Height: height,
	})
}

func (c *Conn) WaitForEvent() (xgb.Event, error) {
	c.record("WaitForEvent")
	if len(c.Events) == 0 {
		return nil, nil
	}
	ev := c.Events[0]
	c.Events = c.Events[1:]
	return ev, nil
}

func (c *Conn) Flush() {
	c.record("Flush")
}

// OpCount returns how many times the named request was recorded.
func (c *Conn) OpCount(name string) int {
	n := 0
	for _, op := range c.Ops {
		if op == name {
			n++
		}
	}
	return n
}

// AtomFor returns the token the fake handed out for name, failing the
// caller loudly if it was never interned.
func (c *Conn) AtomFor(name string) xproto.Atom {
	atom, ok := c.Atoms[name]
	if !ok {
		panic(fmt.Sprintf("x11test: atom %s was never interned", name))
	}
	return atom
}
