package preprocess

import (
	"image"
	"math"
)

// Non-local-means parameters. Patch radius 1 (3x3 patches) and search radius 3
// (7x7 window) keep the filter fast enough for per-request use while still
// suppressing sensor and print noise around character strokes.
const (
	nlmPatchRadius  = 1
	nlmSearchRadius = 3
	nlmFilterSigma  = 10.0
)

// Denoise applies a simplified non-local-means filter to a grayscale raster.
// Each pixel is replaced by a weighted average of pixels in its search window,
// weighted by patch similarity, which preserves character edges far better
// than a plain Gaussian blur.
func Denoise(img *image.Gray) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	// Precompute the exponential falloff denominator.
	h2 := nlmFilterSigma * nlmFilterSigma

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var weightSum, valueSum, maxWeight float64

			for dy := -nlmSearchRadius; dy <= nlmSearchRadius; dy++ {
				for dx := -nlmSearchRadius; dx <= nlmSearchRadius; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					d2 := patchDistance(img, x, y, nx, ny, w, h)
					wgt := math.Exp(-d2 / h2)
					if wgt > maxWeight {
						maxWeight = wgt
					}
					weightSum += wgt
					valueSum += wgt * float64(img.GrayAt(b.Min.X+nx, b.Min.Y+ny).Y)
				}
			}

			// The center pixel joins with the largest neighbor weight, so
			// an isolated impulse value cannot dominate its own average.
			self := float64(img.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			weightSum += maxWeight
			valueSum += maxWeight * self

			if weightSum > 0 {
				out.Pix[y*out.Stride+x] = uint8(valueSum/weightSum + 0.5)
			} else {
				out.Pix[y*out.Stride+x] = uint8(self)
			}
		}
	}
	return out
}

// patchDistance computes the mean squared difference between the patches
// centered at (x1,y1) and (x2,y2). Out-of-bounds samples are clamped.
func patchDistance(img *image.Gray, x1, y1, x2, y2, w, h int) float64 {
	b := img.Bounds()
	var sum float64
	var count int

	for py := -nlmPatchRadius; py <= nlmPatchRadius; py++ {
		for px := -nlmPatchRadius; px <= nlmPatchRadius; px++ {
			ax, ay := clamp(x1+px, 0, w-1), clamp(y1+py, 0, h-1)
			bx, by := clamp(x2+px, 0, w-1), clamp(y2+py, 0, h-1)
			d := float64(img.GrayAt(b.Min.X+ax, b.Min.Y+ay).Y) - float64(img.GrayAt(b.Min.X+bx, b.Min.Y+by).Y)
			sum += d * d
			count++
		}
	}
	return sum / float64(count)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
