package stereo

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
)

// Format selects the side-by-side layout.
type Format string

const (
	// FormatFull concatenates both eyes at native resolution (double width).
	FormatFull Format = "full"
	// FormatHalf downsamples each eye to half width before concatenation
	// (output width equals input width).
	FormatHalf Format = "half"
)

// ParseFormat maps a request string to a Format, defaulting to full.
// The legacy spellings SBS_FULL/SBS_HALF are accepted.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "full", "FULL", "sbs_full", "SBS_FULL":
		return FormatFull, nil
	case "half", "HALF", "sbs_half", "SBS_HALF":
		return FormatHalf, nil
	}
	return "", fmt.Errorf("unknown sbs format: %q", s)
}

// GeneratePair produces left and right eye views of a frame. depth must have
// the frame's dimensions. Displacement is (1 - normalizedDepth) * divergence,
// so nearer (darker) pixels shift further. The left eye samples at
// x + displacement, the right at x - displacement; rows are unchanged.
// Sampling is linear with reflected borders, so displaced reads past the
// frame edge mirror the border instead of wrapping.
func GeneratePair(frame *image.NRGBA, depth *DepthMap, divergence float64) (left, right *image.NRGBA) {
	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	norm := depth.Normalized()
	left = image.NewNRGBA(image.Rect(0, 0, w, h))
	right = image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			disp := (1 - float64(norm.At(x, y))) * divergence
			samplePixel(left, frame, x, y, float64(x)+disp)
			samplePixel(right, frame, x, y, float64(x)-disp)
		}
	}
	return left, right
}

// ComposeSBS joins the two eye views into one frame per the requested layout.
func ComposeSBS(left, right *image.NRGBA, format Format) *image.NRGBA {
	w := left.Bounds().Dx()
	h := left.Bounds().Dy()
	if format == FormatHalf {
		half := w / 2
		left = imaging.Resize(left, half, h, imaging.Linear)
		right = imaging.Resize(right, half, h, imaging.Linear)
		w = half
	}
	out := image.NewNRGBA(image.Rect(0, 0, 2*w, h))
	draw.Draw(out, image.Rect(0, 0, w, h), left, left.Bounds().Min, draw.Src)
	draw.Draw(out, image.Rect(w, 0, 2*w, h), right, right.Bounds().Min, draw.Src)
	return out
}

// samplePixel writes src sampled at (sx, y) into dst at (x, y), interpolating
// linearly between the two nearest columns.
func samplePixel(dst, src *image.NRGBA, x, y int, sx float64) {
	w := src.Bounds().Dx()
	x0f := float64(int(fastFloor(sx)))
	frac := sx - x0f
	x0 := reflect101(int(x0f), w)
	x1 := reflect101(int(x0f)+1, w)
	i0 := src.PixOffset(x0, y)
	i1 := src.PixOffset(x1, y)
	o := dst.PixOffset(x, y)
	for c := 0; c < 4; c++ {
		v := float64(src.Pix[i0+c])*(1-frac) + float64(src.Pix[i1+c])*frac
		dst.Pix[o+c] = uint8(v + 0.5)
	}
}

// reflect101 mirrors an out-of-range index about the edges without repeating
// the border pixel (…cba|abcd|cba…).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i = i % period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}

func fastFloor(v float64) float64 {
	f := float64(int(v))
	if v < 0 && f != v {
		f--
	}
	return f
}
