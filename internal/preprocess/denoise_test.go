package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDenoise_PreservesDimensionsAndUniformValue(t *testing.T) {
	out := Denoise(grayImage(24, 18, 77))
	assert.Equal(t, 24, out.Bounds().Dx())
	assert.Equal(t, 18, out.Bounds().Dy())
	for _, p := range out.Pix {
		assert.Equal(t, uint8(77), p)
	}
}

func TestDenoise_SmoothsMildNoise(t *testing.T) {
	img := grayImage(21, 21, 200)
	img.Pix[10*img.Stride+10] = 180 // mildly perturbed pixel

	out := Denoise(img)
	assert.Greater(t, out.Pix[10*out.Stride+10], uint8(190),
		"perturbed pixel should be pulled toward its neighborhood")
}

func TestDenoise_AttenuatesImpulseNoise(t *testing.T) {
	img := grayImage(21, 21, 255)
	img.Pix[10*img.Stride+10] = 0 // isolated pepper pixel

	out := Denoise(img)
	assert.Greater(t, out.Pix[10*out.Stride+10], uint8(200),
		"isolated impulse should be pulled toward the surrounding white")
	assert.Equal(t, uint8(255), out.Pix[2*out.Stride+2],
		"pixels far from the impulse stay untouched")
}

func TestDenoise_TinyRasters(t *testing.T) {
	one := Denoise(grayImage(1, 1, 93))
	assert.Equal(t, 1, one.Bounds().Dx())
	assert.Equal(t, 1, one.Bounds().Dy())
	assert.Equal(t, uint8(93), one.Pix[0])

	row := Denoise(grayImage(5, 1, 120))
	assert.Equal(t, 5, row.Bounds().Dx())
	assert.Equal(t, 1, row.Bounds().Dy())
	for _, p := range row.Pix {
		assert.Equal(t, uint8(120), p)
	}
}
