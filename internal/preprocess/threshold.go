package preprocess

import "image"

// Adaptive threshold parameters matching the tuning the extraction regexes
// were calibrated against: an 11x11 neighborhood with a constant offset of 2.
const (
	defaultBlockSize = 11
	defaultOffset    = 2
)

// Binarize applies locally-thresholded binarization to a grayscale raster.
// A pixel becomes white (255) when its value exceeds the mean of its
// blockSize x blockSize neighborhood minus offset, black (0) otherwise.
// Local thresholding keeps text legible under the uneven lighting typical of
// handheld photographs, where a single global threshold fails.
func Binarize(img *image.Gray, blockSize, offset int) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	if blockSize < 3 {
		blockSize = defaultBlockSize
	}
	if blockSize%2 == 0 {
		blockSize++
	}
	if offset < 0 {
		offset = defaultOffset
	}
	radius := blockSize / 2

	integral := integralImage(img)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x1, y1 := clamp(x-radius, 0, w-1), clamp(y-radius, 0, h-1)
			x2, y2 := clamp(x+radius, 0, w-1), clamp(y+radius, 0, h-1)

			area := uint64((x2 - x1 + 1) * (y2 - y1 + 1))
			sum := boxSum(integral, w, x1, y1, x2, y2)
			mean := sum / area

			v := img.GrayAt(b.Min.X+x, b.Min.Y+y).Y
			if uint64(v)+uint64(offset) > mean {
				out.Pix[y*out.Stride+x] = 255
			} else {
				out.Pix[y*out.Stride+x] = 0
			}
		}
	}
	return out
}

// integralImage builds a summed-area table with one row/column of zero
// padding so boxSum needs no edge special-casing.
func integralImage(img *image.Gray) []uint64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	integral := make([]uint64, (w+1)*(h+1))

	for y := 0; y < h; y++ {
		var rowSum uint64
		for x := 0; x < w; x++ {
			rowSum += uint64(img.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			integral[(y+1)*(w+1)+(x+1)] = integral[y*(w+1)+(x+1)] + rowSum
		}
	}
	return integral
}

// boxSum returns the pixel sum over the inclusive box [x1,x2]x[y1,y2].
func boxSum(integral []uint64, w, x1, y1, x2, y2 int) uint64 {
	stride := w + 1
	a := integral[y1*stride+x1]
	b := integral[y1*stride+(x2+1)]
	c := integral[(y2+1)*stride+x1]
	d := integral[(y2+1)*stride+(x2+1)]
	return d + a - b - c
}
