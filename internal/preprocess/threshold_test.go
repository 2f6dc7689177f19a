package preprocess

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func grayImage(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func TestBinarize_UniformBright(t *testing.T) {
	// A bright uniform image sits above its local mean minus offset everywhere.
	out := Binarize(grayImage(32, 32, 200), defaultBlockSize, defaultOffset)
	for _, p := range out.Pix {
		assert.Equal(t, uint8(255), p)
	}
}

func TestBinarize_DarkTextOnLight(t *testing.T) {
	img := grayImage(32, 32, 220)
	// Dark stroke down the middle.
	for y := 0; y < 32; y++ {
		img.Pix[y*img.Stride+16] = 20
	}
	out := Binarize(img, defaultBlockSize, defaultOffset)

	assert.Equal(t, uint8(0), out.Pix[15*out.Stride+16], "stroke pixel should be black")
	assert.Equal(t, uint8(255), out.Pix[15*out.Stride+2], "background should stay white")
}

func TestBinarize_OutputIsBinary(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 40, 40))
	for i := range img.Pix {
		img.Pix[i] = uint8((i * 37) % 256)
	}
	out := Binarize(img, defaultBlockSize, defaultOffset)
	for _, p := range out.Pix {
		assert.Contains(t, []uint8{0, 255}, p)
	}
}

func TestBinarize_EvenBlockSizeRoundsUp(t *testing.T) {
	// Even neighborhoods have no center pixel; the implementation widens by one.
	out := Binarize(grayImage(16, 16, 128), 10, 2)
	assert.Equal(t, 16, out.Bounds().Dx())
}

func TestIntegralImage_BoxSum(t *testing.T) {
	img := grayImage(4, 4, 10)
	integral := integralImage(img)

	assert.Equal(t, uint64(160), boxSum(integral, 4, 0, 0, 3, 3))
	assert.Equal(t, uint64(10), boxSum(integral, 4, 2, 2, 2, 2))
	assert.Equal(t, uint64(40), boxSum(integral, 4, 1, 1, 2, 2))
}

func TestBinarize_NegativeOffsetFallsBack(t *testing.T) {
	img := grayImage(32, 32, 220)
	for y := 0; y < 32; y++ {
		img.Pix[y*img.Stride+16] = 20
	}
	out := Binarize(img, defaultBlockSize, -5)

	assert.Equal(t, uint8(0), out.Pix[15*out.Stride+16], "stroke pixel should still be black")
	assert.Equal(t, uint8(255), out.Pix[15*out.Stride+2], "background should stay white")
}
