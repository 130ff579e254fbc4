package render

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	background = color.RGBA{0, 0, 0, 255}
	boxFill    = color.RGBA{0, 0, 0, 160}
)

// Rasterize draws the subtitle boxes of f onto an opaque canvas. Video layers
// are not decoded, so the background stays black.
func Rasterize(f Frame, opts Options) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	for _, b := range []*Box{f.Bottom, f.Top} {
		if b == nil {
			continue
		}
		rect := image.Rect(int(b.X), int(b.Y), int(b.X+b.W), int(b.Y+b.H))
		draw.Draw(img, rect, image.NewUniform(boxFill), image.Point{}, draw.Over)

		d := &font.Drawer{Dst: img, Src: image.NewUniform(parseHex(b.Color)), Face: face}
		lineH := face.Metrics().Height.Ceil()
		y := int(b.Y+opts.Padding) + face.Metrics().Ascent.Ceil()
		for _, ln := range b.Lines {
			adv := d.MeasureString(ln).Ceil()
			x := int(b.X + (b.W-float64(adv))/2)
			d.Dot = fixed.P(x, y)
			d.DrawString(ln)
			y += lineH
		}
	}
	return img
}

// parseHex accepts #RRGGBB and falls back to white.
func parseHex(s string) color.RGBA {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{255, 255, 255, 255}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{255, 255, 255, 255}
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}
}
