// Command xwinhost opens a native X11 window the way a render engine host
// would: it creates the window, negotiates the WM protocols, shows the
// configured splash image, and then polls events until the window manager
// asks it to quit.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/emberline/xwinhost/internal/config"
	"github.com/emberline/xwinhost/internal/splash"
	"github.com/emberline/xwinhost/internal/window"
	"github.com/emberline/xwinhost/internal/x11"
)

// logNotifications prints lifecycle notifications. A real engine would
// rebuild its swapchain here.
type logNotifications struct {
	logger *slog.Logger
}

func (n *logNotifications) WindowResized(width, height uint32) {
	n.logger.Info("window resized", "width", width, "height", height)
}

func (n *logNotifications) WindowClosed() {
	n.logger.Info("window closed")
}

func (n *logNotifications) ResolutionChanged(width, height uint32) {
	n.logger.Info("resolution changed", "width", width, "height", height)
}

func main() {
	display := flag.String("display", "", "X11 display to connect to (defaults to $DISPLAY)")
	configPath := flag.String("config", "", "path to config file (defaults to ~/.config/xwinhost/config.yaml)")
	fullscreen := flag.Bool("fullscreen", false, "request fullscreen after activation")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromPath(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	xu, conn, err := x11.Connect(*display)
	if err != nil {
		log.Fatalf("Failed to connect to X11: %v", err)
	}
	defer xu.Conn().Close()

	quit := false
	win := window.New(window.Options{
		Conn:            conn,
		Logger:          logger,
		Notifications:   &logNotifications{logger: logger},
		OnExitRequested: func() { quit = true },
		Splash:          splash.New(cfg.Splash.ImagePath, cfg.Splash.CacheRoot, logger),
	})

	var style window.StyleMask
	if cfg.Window.Bordered {
		style |= window.StyleBordered
	}
	if cfg.Window.Resizeable {
		style |= window.StyleResizeable
	}

	geometry := window.Geometry{
		X:      cfg.Window.PosX,
		Y:      cfg.Window.PosY,
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
	}
	if err := win.Create(cfg.Window.Title, geometry, style); err != nil {
		log.Fatalf("Failed to create window: %v", err)
	}
	defer win.Destroy()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		os.Exit(0)
	}()

	win.Activate()

	if *fullscreen {
		if err := win.SetFullScreenState(true); err != nil {
			logger.Error("fullscreen request failed", "error", err)
		}
	}

	logger.Info("entering event loop", "window", win.Handle())
	for !quit {
		ev, err := conn.WaitForEvent()
		if ev == nil && err == nil {
			logger.Info("connection closed")
			break
		}
		if err != nil {
			logger.Warn("event error", "error", err)
			continue
		}
		win.HandleEvent(ev)
	}
}
