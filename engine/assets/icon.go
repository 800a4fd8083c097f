// Package assets loads image assets from disk into engine formats.
package assets

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"

	"github.com/mirador-engine/mirador/engine/ui"
)

// maxIconSide caps decoded icons; window systems reject huge icon bitmaps.
const maxIconSide = 256

// LoadIcon reads a PNG from disk and returns it as a window icon, downscaled
// if either side exceeds the platform-safe maximum.
func LoadIcon(path string) (*ui.Icon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("assets: open icon: %w", err)
	}
	defer f.Close()

	src, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("assets: decode icon %q: %w", path, err)
	}

	icon := FromImage(src)
	if icon.Width > maxIconSide || icon.Height > maxIconSide {
		icon = ScaleIcon(icon, maxIconSide, maxIconSide)
	}
	return icon, nil
}

// FromImage converts any decoded image into tightly packed RGBA8.
func FromImage(src image.Image) *ui.Icon {
	b := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(rgba, image.Point{}, src, b, draw.Src, nil)
	return &ui.Icon{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pixels: rgba.Pix,
	}
}

// ScaleIcon resamples an icon to fit within width x height, preserving the
// aspect ratio.
func ScaleIcon(icon *ui.Icon, width, height int) *ui.Icon {
	if icon.Width <= 0 || icon.Height <= 0 {
		return icon
	}
	dw, dh := icon.Width, icon.Height
	if dw > width {
		dh = dh * width / dw
		dw = width
	}
	if dh > height {
		dw = dw * height / dh
		dh = height
	}
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	src := image.NewRGBA(image.Rect(0, 0, icon.Width, icon.Height))
	copy(src.Pix, icon.Pixels)
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	return &ui.Icon{Width: dw, Height: dh, Pixels: dst.Pix}
}
