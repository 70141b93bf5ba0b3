package window_test

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/emberline/xwinhost/internal/window"
	"github.com/emberline/xwinhost/internal/x11"
	"github.com/emberline/xwinhost/internal/x11/x11test"
)

const testRoot = xproto.Window(999)

// recorder captures notifications and the exit broadcast in arrival order.
type recorder struct {
	calls []string
}

func (r *recorder) add(s string) { r.calls = append(r.calls, s) }

func (r *recorder) WindowResized(width, height uint32) {
	r.add(fmt.Sprintf("resized %dx%d", width, height))
}

func (r *recorder) WindowClosed() { r.add("closed") }

func (r *recorder) ResolutionChanged(width, height uint32) {
	r.add(fmt.Sprintf("resolution %dx%d", width, height))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConn() *x11test.Conn {
	return &x11test.Conn{
		ScreenInfo: x11.Screen{
			Root:       testRoot,
			RootVisual: 32,
			RootDepth:  24,
			BlackPixel: 0,
		},
	}
}

func newTestWindow(t *testing.T, conn *x11test.Conn, opts window.Options) (*window.Window, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts.Conn = conn
	opts.Logger = discardLogger()
	if opts.Notifications == nil {
		opts.Notifications = rec
	}
	if opts.OnExitRequested == nil {
		opts.OnExitRequested = func() { rec.add("exit") }
	}
	w := window.New(opts)
	if err := w.Create("engine", window.Geometry{X: 0, Y: 0, Width: 1280, Height: 720}, 0); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return w, rec
}

func TestCreateStoresGeometry(t *testing.T) {
	conn := newTestConn()
	w, _ := newTestWindow(t, conn, window.Options{})

	width, height := w.Size()
	if width != 1280 || height != 720 {
		t.Fatalf("expected stored geometry 1280x720, got %dx%d", width, height)
	}
	if len(conn.CreatedWindows) != 1 {
		t.Fatalf("expected 1 CreateWindow request, got %d", len(conn.CreatedWindows))
	}
	cw := conn.CreatedWindows[0]
	if cw.X != 0 || cw.Y != 0 || cw.Width != 1280 || cw.Height != 720 {
		t.Fatalf("unexpected creation geometry: %#v", cw)
	}
	if cw.BorderWidth != 0 {
		t.Fatalf("expected border width 0 without style flags, got %d", cw.BorderWidth)
	}
	if w.Handle() == xproto.WindowNone {
		t.Fatalf("expected a window handle after Create")
	}
}

func TestCreateBorderWidth(t *testing.T) {
	tests := []struct {
		name  string
		style window.StyleMask
		want  uint16
	}{
		{name: "plain", style: 0, want: 0},
		{name: "bordered", style: window.StyleBordered, want: 4},
		{name: "resizeable", style: window.StyleResizeable, want: 4},
		{name: "both", style: window.StyleBordered | window.StyleResizeable, want: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := newTestConn()
			w := window.New(window.Options{Conn: conn, Logger: discardLogger()})
			if err := w.Create("engine", window.Geometry{Width: 640, Height: 480}, tt.style); err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			if got := conn.CreatedWindows[0].BorderWidth; got != tt.want {
				t.Fatalf("border width = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSetTitleDoubleNull(t *testing.T) {
	conn := newTestConn()
	newTestWindow(t, conn, window.Options{})

	var classWrite *x11test.PropertyWrite
	for i := range conn.Properties {
		if conn.Properties[i].Property == xproto.AtomWmClass {
			classWrite = &conn.Properties[i]
		}
	}
	if classWrite == nil {
		t.Fatalf("no WM_CLASS property write recorded")
	}
	want := "engine\x00engine\x00"
	if string(classWrite.Data) != want {
		t.Fatalf("WM_CLASS data = %q, want %q", classWrite.Data, want)
	}
	if classWrite.Format != 8 || classWrite.Type != xproto.AtomString {
		t.Fatalf("unexpected WM_CLASS write: %#v", classWrite)
	}
}

func TestCreateAdvertisesProtocols(t *testing.T) {
	conn := newTestConn()
	newTestWindow(t, conn, window.Options{})

	protocols := conn.AtomFor(x11.AtomNameWMProtocols)
	var write *x11test.PropertyWrite
	for i := range conn.Properties {
		if conn.Properties[i].Property == protocols {
			write = &conn.Properties[i]
		}
	}
	if write == nil {
		t.Fatalf("no WM_PROTOCOLS property write recorded")
	}
	if write.Type != xproto.AtomAtom || write.Format != 32 || len(write.Data) != 8 {
		t.Fatalf("unexpected WM_PROTOCOLS write: %#v", write)
	}
	first := xproto.Atom(binary.LittleEndian.Uint32(write.Data[0:]))
	second := xproto.Atom(binary.LittleEndian.Uint32(write.Data[4:]))
	if first != conn.AtomFor(x11.AtomNameWMDeleteWindow) {
		t.Fatalf("first protocol atom = %d, want WM_DELETE_WINDOW", first)
	}
	if second != conn.AtomFor(x11.AtomNameNetWMPing) {
		t.Fatalf("second protocol atom = %d, want _NET_WM_PING", second)
	}
}

func TestCreateRequestsFrameExtents(t *testing.T) {
	conn := newTestConn()
	newTestWindow(t, conn, window.Options{})

	if len(conn.Messages) != 1 {
		t.Fatalf("expected 1 client message during creation, got %d", len(conn.Messages))
	}
	msg := conn.Messages[0]
	if msg.Event.Type != conn.AtomFor(x11.AtomNameNetRequestFrameExtents) {
		t.Fatalf("message type = %d, want _NET_REQUEST_FRAME_EXTENTS", msg.Event.Type)
	}
	if msg.Destination != testRoot || !msg.Propagate {
		t.Fatalf("frame extents request not propagated to root: %#v", msg)
	}
	wantMask := uint32(xproto.EventMaskStructureNotify | xproto.EventMaskSubstructureRedirect)
	if msg.EventMask != wantMask {
		t.Fatalf("event mask = %#x, want %#x", msg.EventMask, wantMask)
	}
}

func TestCreateTagsProcessID(t *testing.T) {
	conn := newTestConn()
	newTestWindow(t, conn, window.Options{})

	pidAtom := conn.AtomFor(x11.AtomNameNetWMPid)
	var write *x11test.PropertyWrite
	for i := range conn.Properties {
		if conn.Properties[i].Property == pidAtom {
			write = &conn.Properties[i]
		}
	}
	if write == nil {
		t.Fatalf("no _NET_WM_PID property write recorded")
	}
	if write.Type != xproto.AtomCardinal || write.Format != 32 || len(write.Data) != 4 {
		t.Fatalf("unexpected _NET_WM_PID write: %#v", write)
	}
	if got := binary.LittleEndian.Uint32(write.Data); got != uint32(os.Getpid()) {
		t.Fatalf("pid = %d, want %d", got, os.Getpid())
	}
}

func TestDestroyIdempotent(t *testing.T) {
	conn := newTestConn()
	w, _ := newTestWindow(t, conn, window.Options{})

	w.Destroy()
	w.Destroy()

	if got := conn.OpCount("DestroyWindow"); got != 1 {
		t.Fatalf("expected 1 DestroyWindow request, got %d", got)
	}
	if w.Handle() != xproto.WindowNone {
		t.Fatalf("expected handle to be None after Destroy, got %d", w.Handle())
	}
}

func TestResizeWhileActive(t *testing.T) {
	conn := newTestConn()
	w, rec := newTestWindow(t, conn, window.Options{})
	w.Activate()

	conn.Ops = nil
	w.ResizeClientArea(800, 600)

	want := []string{"UnmapWindow", "ConfigureWindow", "MapWindow", "Flush"}
	if len(conn.Ops) != len(want) {
		t.Fatalf("ops = %v, want %v", conn.Ops, want)
	}
	for i := range want {
		if conn.Ops[i] != want[i] {
			t.Fatalf("ops = %v, want %v", conn.Ops, want)
		}
	}
	if got := conn.Configures[len(conn.Configures)-1]; len(got) != 2 || got[0] != 800 || got[1] != 600 {
		t.Fatalf("configure values = %v, want [800 600]", got)
	}
	wantCalls := []string{"resized 800x600", "resolution 800x600"}
	if len(rec.calls) != 2 || rec.calls[0] != wantCalls[0] || rec.calls[1] != wantCalls[1] {
		t.Fatalf("notifications = %v, want %v", rec.calls, wantCalls)
	}
}

func TestResizeWhileInactive(t *testing.T) {
	conn := newTestConn()
	w, rec := newTestWindow(t, conn, window.Options{})

	conn.Ops = nil
	w.ResizeClientArea(800, 600)

	if conn.OpCount("UnmapWindow") != 0 || conn.OpCount("MapWindow") != 0 {
		t.Fatalf("expected no map/unmap while inactive, ops = %v", conn.Ops)
	}
	width, height := w.Size()
	if width != 800 || height != 600 {
		t.Fatalf("stored geometry = %dx%d, want 800x600", width, height)
	}
	if len(rec.calls) != 0 {
		t.Fatalf("expected no notifications while inactive, got %v", rec.calls)
	}
}

func TestActivateIdempotent(t *testing.T) {
	conn := newTestConn()
	w, _ := newTestWindow(t, conn, window.Options{})

	w.Activate()
	w.Activate()

	if got := conn.OpCount("MapWindow"); got != 1 {
		t.Fatalf("expected 1 MapWindow request, got %d", got)
	}
	if !w.Activated() {
		t.Fatalf("expected window to be activated")
	}
}

func TestDeactivateIdempotent(t *testing.T) {
	conn := newTestConn()
	w, rec := newTestWindow(t, conn, window.Options{})
	w.Activate()

	w.Deactivate()
	w.Deactivate()

	closed := 0
	for _, c := range rec.calls {
		if c == "closed" {
			closed++
		}
	}
	if closed != 1 {
		t.Fatalf("expected exactly 1 closed notification, got %d (%v)", closed, rec.calls)
	}
	if got := conn.OpCount("UnmapWindow"); got != 1 {
		t.Fatalf("expected 1 UnmapWindow request, got %d", got)
	}
	if w.Activated() {
		t.Fatalf("expected window to be deactivated")
	}
}

func TestFixedCapabilities(t *testing.T) {
	conn := newTestConn()
	w, _ := newTestWindow(t, conn, window.Options{})

	if !w.SupportsClientAreaResize() {
		t.Fatalf("expected client area resize support")
	}
	if got := w.DisplayRefreshRate(); got != 60 {
		t.Fatalf("refresh rate = %d, want 60", got)
	}
}

func TestFrameExtentsSoftFailure(t *testing.T) {
	conn := newTestConn()
	conn.ExtentsErr = fmt.Errorf("no such property")
	w, _ := newTestWindow(t, conn, window.Options{})

	if got := w.FrameExtents(); got != (x11.FrameExtents{}) {
		t.Fatalf("expected zero extents on failure, got %#v", got)
	}

	conn.ExtentsErr = nil
	conn.Extents = x11.FrameExtents{Left: 1, Right: 1, Top: 24, Bottom: 1}
	if got := w.FrameExtents(); got != conn.Extents {
		t.Fatalf("extents = %#v, want %#v", got, conn.Extents)
	}
}
