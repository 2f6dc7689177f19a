package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLabelImage(t *testing.T) {
	img := GenerateLabelImage(DefaultLabelConfig())
	require.NotNil(t, img)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 480, img.Bounds().Dy())

	// The render must contain both background and ink.
	white, black := 0, 0
	for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
		for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			switch {
			case r == 0xffff && g == 0xffff && b == 0xffff:
				white++
			case r == 0 && g == 0 && b == 0:
				black++
			}
		}
	}
	assert.Positive(t, white)
	assert.Positive(t, black)
}

func TestGenerateLabelImage_Rotation(t *testing.T) {
	cfg := DefaultLabelConfig()
	cfg.Rotation = 90
	img := GenerateLabelImage(cfg)
	require.NotNil(t, img)
	assert.Equal(t, 480, img.Bounds().Dx())
	assert.Equal(t, 640, img.Bounds().Dy())
}

func TestGenerateNoise_Deterministic(t *testing.T) {
	a := GenerateNoise(32, 32)
	b := GenerateNoise(32, 32)
	assert.Equal(t, a.Pix, b.Pix)

	uniform := true
	first := a.Pix[0]
	for _, p := range a.Pix {
		if p != first {
			uniform = false
			break
		}
	}
	assert.False(t, uniform)
}
