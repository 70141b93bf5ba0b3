// Package splash presents a one-shot splash image into a freshly mapped
// window, before the render loop owns the surface. Presentation is strictly
// best effort: any failure is logged and activation proceeds without a
// splash.
package splash

import (
	"image"
	"image/draw"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/xgb/xproto"
	xdraw "golang.org/x/image/draw"

	"github.com/emberline/xwinhost/internal/x11"
)

// Platform subdirectory of the asset cache the splash image lives under.
const platformDir = "linux"

// Largest PutImage payload per request. The X11 maximum request length is
// 2^16 4-byte units; larger rasters are sent in row chunks.
const (
	putImageHeader = 28
	maxRequestSize = (1 << 16) * 4
)

// Presenter draws a configured splash image once. The zero value (no paths)
// skips presentation entirely.
type Presenter struct {
	imagePath string
	cacheRoot string
	logger    *slog.Logger
}

// New creates a presenter for the image at cacheRoot/linux/imagePath.
// Either path being empty disables the splash.
func New(imagePath, cacheRoot string, logger *slog.Logger) *Presenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Presenter{
		imagePath: imagePath,
		cacheRoot: cacheRoot,
		logger:    logger,
	}
}

// Present decodes the splash image, blits it into a server-side pixmap, and
// blocks on the event stream until the first expose to copy it into the
// window, centered. The pixmap and decoded raster are released before
// returning on every path.
//
// The private receive loop discards all other events, so Present must run
// before the main event poll starts; it has no timeout and relies on the WM
// delivering an expose for the newly mapped window.
func (p *Presenter) Present(conn x11.Conn, win xproto.Window, gc xproto.Gcontext, width, height uint32) {
	if p.imagePath == "" {
		p.logger.Info("splash image path not configured, skipping splash")
		return
	}
	if p.cacheRoot == "" {
		p.logger.Info("asset cache root not configured, skipping splash")
		return
	}

	path := filepath.Join(p.cacheRoot, platformDir, p.imagePath)
	f, err := os.Open(path)
	if err != nil {
		p.logger.Warn("unable to open splash image", "path", path, "error", err)
		return
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		p.logger.Warn("unable to decode splash image", "path", path, "error", err)
		return
	}

	data, imgW, imgH := rasterize(img, width, height)

	pixmap, err := conn.NewPixmapID()
	if err != nil {
		p.logger.Warn("unable to allocate pixmap id", "error", err)
		return
	}
	if err := conn.CreatePixmap(pixmap, xproto.Drawable(win), uint16(imgW), uint16(imgH)); err != nil {
		p.logger.Warn("unable to create splash pixmap", "error", err)
		return
	}
	defer conn.FreePixmap(pixmap)

	putRaster(conn, pixmap, gc, imgW, imgH, data)
	conn.Flush()

	// Wait for the first expose of the newly mapped window, then copy the
	// pixmap in, centered. Everything else is discarded; the main
	// dispatch loop is not running yet.
	for {
		ev, err := conn.WaitForEvent()
		if ev == nil && err == nil {
			p.logger.Warn("connection lost while waiting for first expose")
			return
		}
		if err != nil {
			p.logger.Warn("error while waiting for first expose", "error", err)
			continue
		}
		e, ok := ev.(xproto.ExposeEvent)
		if !ok {
			continue
		}
		dstX := (int(width) - imgW) / 2
		dstY := (int(height) - imgH) / 2
		conn.CopyArea(
			xproto.Drawable(pixmap), xproto.Drawable(win), gc,
			int16(e.X), int16(e.Y),
			int16(dstX), int16(dstY),
			e.Width, e.Height,
		)
		conn.Flush()
		return
	}
}

// putRaster uploads the raster into the pixmap in chunks that fit the
// protocol's maximum request length.
func putRaster(conn x11.Conn, pixmap xproto.Pixmap, gc xproto.Gcontext, width, height int, data []byte) {
	stride := width * 4
	rowsPerChunk := (maxRequestSize - putImageHeader) / stride
	if rowsPerChunk < 1 {
		rowsPerChunk = 1
	}
	for y := 0; y < height; y += rowsPerChunk {
		rows := rowsPerChunk
		if y+rows > height {
			rows = height - y
		}
		conn.PutImage(
			xproto.Drawable(pixmap), gc,
			uint16(width), uint16(rows),
			0, int16(y),
			data[y*stride:(y+rows)*stride],
		)
	}
}

// rasterize converts the decoded image into a 32-bit ZPixmap raster in the
// native B,G,R,pad byte order, scaling down to fit maxWidth x maxHeight
// when the source is larger. The pad byte stays zero; the output format
// carries no alpha.
func rasterize(img image.Image, maxWidth, maxHeight uint32) (data []byte, width, height int) {
	img = scaleToFit(img, int(maxWidth), int(maxHeight))

	bounds := img.Bounds()
	width = bounds.Dx()
	height = bounds.Dy()

	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Bounds() != bounds {
		rgba = image.NewRGBA(image.Rect(0, 0, width, height))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}

	data = make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+width*4]
		dst := data[y*width*4:]
		for x := 0; x < width; x++ {
			px := src[x*4 : x*4+4]
			dst[x*4+0] = px[2]
			dst[x*4+1] = px[1]
			dst[x*4+2] = px[0]
		}
	}
	return data, width, height
}

// scaleToFit shrinks img to fit within maxWidth x maxHeight, preserving
// aspect ratio. Images that already fit are returned unchanged; no
// upscaling.
func scaleToFit(img image.Image, maxWidth, maxHeight int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxWidth <= 0 || maxHeight <= 0 || (w <= maxWidth && h <= maxHeight) {
		return img
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	tw := int(float64(w) * scale)
	th := int(float64(h) * scale)
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}
