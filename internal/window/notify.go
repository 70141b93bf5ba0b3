package window

// Notifications receives lifecycle callbacks for one window. Calls are fire
// and forget from the window's polling goroutine; implementations that need
// to block should hand off to their own goroutine.
type Notifications interface {
	// WindowResized reports the new client-area size.
	WindowResized(width, height uint32)
	// WindowClosed reports that the window was deactivated.
	WindowClosed()
	// ResolutionChanged reports the new render resolution. Not emitted
	// when a custom resolution override is active.
	ResolutionChanged(width, height uint32)
}

type noNotifications struct{}

func (noNotifications) WindowResized(width, height uint32)     {}
func (noNotifications) WindowClosed()                          {}
func (noNotifications) ResolutionChanged(width, height uint32) {}

// WindowSizeChanged updates the stored geometry and, if the window is
// active, publishes the resize notifications. A call with the current size
// is a no-op.
func (w *Window) WindowSizeChanged(width, height uint32) {
	if w.width == width && w.height == height {
		return
	}
	w.width = width
	w.height = height

	if !w.activated {
		return
	}
	w.notify.WindowResized(width, height)
	if !w.customResolution {
		w.notify.ResolutionChanged(width, height)
	}
}
