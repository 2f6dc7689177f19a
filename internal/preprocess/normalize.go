// Package preprocess prepares photographed packaging for text recognition.
// The normalization chain is resize -> grayscale -> denoise -> binarize; each
// stage returns a fresh raster so intermediates can be inspected in isolation.
package preprocess

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// InvalidImageError reports input that cannot be processed at all:
// nil rasters, zero-area rasters, or undecodable uploads surfaced by callers.
type InvalidImageError struct {
	Reason string
}

func (e *InvalidImageError) Error() string {
	return fmt.Sprintf("invalid image: %s", e.Reason)
}

// Normalize runs the full preprocessing chain on a decoded raster.
// Images whose longer side exceeds maxDimension are scaled down so the longer
// side equals maxDimension (aspect ratio preserved); smaller images keep
// their dimensions. The result is a single-channel, binarized raster.
func Normalize(img image.Image, maxDimension int) (*image.Gray, error) {
	if err := validate(img); err != nil {
		return nil, err
	}
	if maxDimension <= 0 {
		return nil, &InvalidImageError{Reason: fmt.Sprintf("max dimension must be positive, got %d", maxDimension)}
	}

	resized := Resize(img, maxDimension)
	gray := Grayscale(resized)
	denoised := Denoise(gray)
	return Binarize(denoised, defaultBlockSize, defaultOffset), nil
}

func validate(img image.Image) error {
	if img == nil {
		return &InvalidImageError{Reason: "nil image"}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return &InvalidImageError{Reason: fmt.Sprintf("zero-area image %dx%d", b.Dx(), b.Dy())}
	}
	return nil
}

// Resize scales img down so its longer side equals maxDimension, preserving
// aspect ratio with Lanczos resampling. Images that already fit are returned
// as a copy with unchanged dimensions. Upscaling never happens.
func Resize(img image.Image, maxDimension int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	longSide := w
	if h > longSide {
		longSide = h
	}
	if longSide <= maxDimension {
		return imaging.Clone(img)
	}

	if w >= h {
		return imaging.Resize(img, maxDimension, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, maxDimension, imaging.Lanczos)
}

// Grayscale converts a raster to single-channel using the ITU-R BT.601
// luminance weighting Y = 0.299 R + 0.587 G + 0.114 B.
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			// RGBA returns 16-bit channels; weights sum to 1 so the
			// result stays within 8 bits after the shift.
			lum := (299*r + 587*g + 114*bl) / 1000
			out.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: uint8(lum >> 8)})
		}
	}
	return out
}
