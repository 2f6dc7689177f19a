package preprocess

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestNormalize_RejectsDegenerate(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
	}{
		{"nil image", nil},
		{"zero width", image.NewNRGBA(image.Rect(0, 0, 0, 10))},
		{"zero height", image.NewNRGBA(image.Rect(0, 0, 10, 0))},
		{"empty bounds", image.NewNRGBA(image.Rectangle{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.img, 4096)
			require.Error(t, err)
			var invalidErr *InvalidImageError
			require.ErrorAs(t, err, &invalidErr)
		})
	}
}

func TestNormalize_RejectsBadMaxDimension(t *testing.T) {
	_, err := Normalize(solidImage(10, 10, color.White), 0)
	var invalidErr *InvalidImageError
	require.ErrorAs(t, err, &invalidErr)
}

func TestNormalize_ProducesBinaryGray(t *testing.T) {
	out, err := Normalize(solidImage(64, 48, color.White), 4096)
	require.NoError(t, err)
	assert.Equal(t, 64, out.Bounds().Dx())
	assert.Equal(t, 48, out.Bounds().Dy())
	for _, p := range out.Pix {
		assert.Contains(t, []uint8{0, 255}, p)
	}
}

func TestResize_PreservesSmallImages(t *testing.T) {
	img := solidImage(200, 100, color.White)
	out := Resize(img, 4096)
	assert.Equal(t, 200, out.Bounds().Dx())
	assert.Equal(t, 100, out.Bounds().Dy())
}

func TestResize_LimitsLongSide(t *testing.T) {
	tests := []struct {
		name         string
		w, h, maxDim int
		wantW, wantH int
	}{
		{"wide image", 800, 400, 400, 400, 200},
		{"tall image", 400, 800, 400, 200, 400},
		{"square image", 500, 500, 100, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Resize(solidImage(tt.w, tt.h, color.White), tt.maxDim)
			assert.Equal(t, tt.wantW, out.Bounds().Dx())
			// Aspect ratio preserved within one pixel.
			assert.InDelta(t, tt.wantH, out.Bounds().Dy(), 1)
		})
	}
}

func TestGrayscale_LuminanceWeighting(t *testing.T) {
	tests := []struct {
		name string
		c    color.NRGBA
		want uint8
	}{
		{"pure red", color.NRGBA{R: 255, A: 255}, 76},
		{"pure green", color.NRGBA{G: 255, A: 255}, 149},
		{"pure blue", color.NRGBA{B: 255, A: 255}, 29},
		{"white", color.NRGBA{R: 255, G: 255, B: 255, A: 255}, 255},
		{"black", color.NRGBA{A: 255}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Grayscale(solidImage(4, 4, tt.c))
			assert.InDelta(t, tt.want, out.GrayAt(1, 1).Y, 1)
		})
	}
}

func TestGrayscale_HandlesNonZeroOrigin(t *testing.T) {
	img := image.NewNRGBA(image.Rect(5, 7, 15, 17))
	for y := 7; y < 17; y++ {
		for x := 5; x < 15; x++ {
			img.Set(x, y, color.White)
		}
	}
	out := Grayscale(img)
	assert.Equal(t, image.Rect(0, 0, 10, 10), out.Bounds())
	assert.Equal(t, uint8(255), out.GrayAt(0, 0).Y)
}
