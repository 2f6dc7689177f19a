package scene

import (
	"image"

	"github.com/disintegration/imaging"
)

// grayToNCHW converts a grayscale raster into a [1,1,H,W] float32 buffer with
// pixel values normalized to [-1,1], the scaling both models were exported
// with.
func grayToNCHW(img *image.Gray) []float32 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	data := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float32(img.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			data[y*w+x] = (v/255.0 - 0.5) / 0.5
		}
	}
	return data
}

// detectionInput scales the raster for the detection model: the longer side
// is clamped to maxSide and both sides are floored to multiples of 32. It
// returns the prepared raster plus the x/y factors mapping detection
// coordinates back onto the original raster.
func detectionInput(img *image.Gray, maxSide int) (*image.Gray, float64, float64) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	scale := 1.0
	longSide := w
	if h > longSide {
		longSide = h
	}
	if longSide > maxSide {
		scale = float64(maxSide) / float64(longSide)
	}

	dw := roundDown32(int(float64(w) * scale))
	dh := roundDown32(int(float64(h) * scale))

	resized := imaging.Resize(img, dw, dh, imaging.Lanczos)
	gray := toGray(resized)
	return gray, float64(w) / float64(dw), float64(h) / float64(dh)
}

// recognitionInput resizes a region crop to the model's fixed input height,
// preserving aspect ratio and right-padding the width to a multiple of 8 with
// white pixels.
func recognitionInput(crop *image.Gray, targetHeight int) *image.Gray {
	b := crop.Bounds()
	w, h := b.Dx(), b.Dy()

	scaledW := w * targetHeight / h
	if scaledW < 8 {
		scaledW = 8
	}
	resized := toGray(imaging.Resize(crop, scaledW, targetHeight, imaging.Lanczos))

	paddedW := (scaledW + 7) / 8 * 8
	if paddedW == scaledW {
		return resized
	}

	padded := image.NewGray(image.Rect(0, 0, paddedW, targetHeight))
	for i := range padded.Pix {
		padded.Pix[i] = 255
	}
	for y := 0; y < targetHeight; y++ {
		copy(padded.Pix[y*padded.Stride:y*padded.Stride+scaledW],
			resized.Pix[y*resized.Stride:y*resized.Stride+scaledW])
	}
	return padded
}

func roundDown32(v int) int {
	v = (v / 32) * 32
	if v < 32 {
		v = 32
	}
	return v
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			lum := (299*r + 587*g + 114*bl) / 1000
			out.Pix[(y-b.Min.Y)*out.Stride+(x-b.Min.X)] = uint8(lum >> 8)
		}
	}
	return out
}
