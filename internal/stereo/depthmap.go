// Package stereo turns a frame and its depth map into a side-by-side stereo
// frame. It is a pure transform: no resident state, no device handles.
package stereo

import (
	"image"
	"image/color"
)

const uniformEps = 1e-10

// DepthMap is a single-channel depth buffer in arbitrary relative scale.
type DepthMap struct {
	W, H int
	Pix  []float32
}

// NewDepthMap allocates a zeroed w×h depth map.
func NewDepthMap(w, h int) *DepthMap {
	return &DepthMap{W: w, H: h, Pix: make([]float32, w*h)}
}

// DepthMapFromImage reads a decoded depth image into a DepthMap using the
// gray value of each pixel.
func DepthMapFromImage(img image.Image) *DepthMap {
	b := img.Bounds()
	d := NewDepthMap(b.Dx(), b.Dy())
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
			d.Pix[i] = float32(g.Y)
			i++
		}
	}
	return d
}

// At returns the raw depth value at (x, y).
func (d *DepthMap) At(x, y int) float32 { return d.Pix[y*d.W+x] }

// Normalized rescales the map into [0,1]. A perfectly uniform map has no
// usable range and normalizes to a constant mid value.
func (d *DepthMap) Normalized() *DepthMap {
	min, max := d.Pix[0], d.Pix[0]
	for _, v := range d.Pix {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	out := NewDepthMap(d.W, d.H)
	if float64(max-min) < uniformEps {
		for i := range out.Pix {
			out.Pix[i] = 0.5
		}
		return out
	}
	scale := 1 / (max - min)
	for i, v := range d.Pix {
		out.Pix[i] = (v - min) * scale
	}
	return out
}

// ToGray renders the map as an 8-bit grayscale image, rescaled to the full
// 0-255 range. A uniform map renders as constant mid-gray.
func (d *DepthMap) ToGray() *image.Gray {
	n := d.Normalized()
	img := image.NewGray(image.Rect(0, 0, d.W, d.H))
	for i, v := range n.Pix {
		img.Pix[i] = uint8(v*255 + 0.5)
	}
	return img
}

// Resize scales the map to w×h with bilinear interpolation. Used when the
// estimator emits a different resolution than the source frame.
func (d *DepthMap) Resize(w, h int) *DepthMap {
	if w == d.W && h == d.H {
		return d
	}
	out := NewDepthMap(w, h)
	xr := float64(d.W) / float64(w)
	yr := float64(d.H) / float64(h)
	for y := 0; y < h; y++ {
		sy := (float64(y)+0.5)*yr - 0.5
		y0 := clampInt(int(sy), 0, d.H-1)
		y1 := clampInt(y0+1, 0, d.H-1)
		fy := float32(sy - float64(y0))
		if fy < 0 {
			fy = 0
		}
		for x := 0; x < w; x++ {
			sx := (float64(x)+0.5)*xr - 0.5
			x0 := clampInt(int(sx), 0, d.W-1)
			x1 := clampInt(x0+1, 0, d.W-1)
			fx := float32(sx - float64(x0))
			if fx < 0 {
				fx = 0
			}
			top := d.At(x0, y0)*(1-fx) + d.At(x1, y0)*fx
			bot := d.At(x0, y1)*(1-fx) + d.At(x1, y1)*fx
			out.Pix[y*w+x] = top*(1-fy) + bot*fy
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
