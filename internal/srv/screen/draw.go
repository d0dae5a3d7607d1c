package screen

import (
	"github.com/hajimehoshi/bitmapfont/v2"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"image"
	"image/color"
)

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// AddCaption writes a small label with the bitmap font, y is the top edge.
// The bitmap glyphs stay sharp on panels where a scaled outline font would
// be too small to read.
func AddCaption(img *image.RGBA, x, y int, label string, align Align, col color.Color) {
	AddText(img, bitmapfont.Face, x, y, label, align, col)
}

// AddText writes text with its top at y. The x margin is taken from the left
// edge, or from the right edge when right aligned; it is ignored when centered.
func AddText(img *image.RGBA, face font.Face, x, y int, text string, align Align, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
	}
	width := d.MeasureString(text).Round()
	bounds := img.Bounds()
	switch align {
	case AlignCenter:
		x = bounds.Min.X + (bounds.Dx()-width)/2
	case AlignRight:
		x = bounds.Max.X - width - x
	default:
		x = bounds.Min.X + x
	}
	d.Dot = fixed.P(x, y+face.Metrics().Ascent.Round())
	d.DrawString(text)
}

// AddTextAt writes text centered on column cx with its top at y
func AddTextAt(img *image.RGBA, face font.Face, cx, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
	}
	width := d.MeasureString(text).Round()
	d.Dot = fixed.P(cx-width/2, y+face.Metrics().Ascent.Round())
	d.DrawString(text)
}

// FitFace returns the largest face not wider than maxWidth for text, starting
// from size and shrinking by steps of 10%
func (l *Layout) FitFace(text string, size float64, bold bool, maxWidth int) font.Face {
	face := l.Face(size, bold)
	for size > 8 && font.MeasureString(face, text).Round() > maxWidth {
		size = size * 0.9
		face = l.Face(size, bold)
	}
	return face
}

func Fill(img *image.RGBA, col color.Color) {
	draw.Draw(img, img.Bounds(), &image.Uniform{col}, image.Point{}, draw.Src)
}

// FillGradient paints a vertical gradient from top to bottom
func FillGradient(img *image.RGBA, top, bottom color.RGBA) {
	bounds := img.Bounds()
	h := bounds.Dy()
	for y := 0; y < h; y++ {
		c := color.RGBA{
			R: lerp(top.R, bottom.R, y, h),
			G: lerp(top.G, bottom.G, y, h),
			B: lerp(top.B, bottom.B, y, h),
			A: 255,
		}
		draw.Draw(img, image.Rect(bounds.Min.X, bounds.Min.Y+y, bounds.Max.X, bounds.Min.Y+y+1), &image.Uniform{c}, image.Point{}, draw.Src)
	}
}

func lerp(from, to uint8, step, steps int) uint8 {
	if steps <= 1 {
		return from
	}
	return uint8(int(from) + (int(to)-int(from))*step/(steps-1))
}

// AddProgressBar draws an outlined bar inside rect filled up to ratio (0..1)
func AddProgressBar(img *image.RGBA, rect image.Rectangle, ratio float64, col color.Color) {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	outline := &image.Uniform{white}
	draw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+1), outline, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Max.Y-1, rect.Max.X, rect.Max.Y), outline, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+1, rect.Max.Y), outline, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Max.X-1, rect.Min.Y, rect.Max.X, rect.Max.Y), outline, image.Point{}, draw.Src)

	inner := rect.Inset(2)
	if inner.Empty() {
		return
	}
	filled := int(float64(inner.Dx()) * ratio)
	draw.Draw(img, image.Rect(inner.Min.X, inner.Min.Y, inner.Min.X+filled, inner.Max.Y), &image.Uniform{col}, image.Point{}, draw.Src)
}

// DrawScaled scales src onto dst. With keepRatio the image is fitted inside
// dst and centered, otherwise it is stretched to cover dst.
func DrawScaled(dst *image.RGBA, src image.Image, keepRatio bool) {
	target := dst.Bounds()
	if keepRatio {
		sb := src.Bounds()
		if sb.Dx() > 0 && sb.Dy() > 0 {
			w := target.Dx()
			h := sb.Dy() * w / sb.Dx()
			if h > target.Dy() {
				h = target.Dy()
				w = sb.Dx() * h / sb.Dy()
			}
			x := target.Min.X + (target.Dx()-w)/2
			y := target.Min.Y + (target.Dy()-h)/2
			target = image.Rect(x, y, x+w, y+h)
		}
	}
	draw.CatmullRom.Scale(dst, target, src, src.Bounds(), draw.Over, nil)
}
