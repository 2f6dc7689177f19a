package scene

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// probMap builds a w*h probability map with the given boxes set to p.
func probMap(w, h int, p float32, boxes ...[4]int) []float32 {
	m := make([]float32, w*h)
	for _, b := range boxes {
		for y := b[1]; y <= b[3]; y++ {
			for x := b[0]; x <= b[2]; x++ {
				m[y*w+x] = p
			}
		}
	}
	return m
}

func TestFindRegions_SingleComponent(t *testing.T) {
	m := probMap(20, 10, 0.8, [4]int{2, 3, 7, 5})

	regions := findRegions(m, 20, 10, 0.3)
	require.Len(t, regions, 1)
	assert.Equal(t, 2, regions[0].MinX)
	assert.Equal(t, 3, regions[0].MinY)
	assert.Equal(t, 7, regions[0].MaxX)
	assert.Equal(t, 5, regions[0].MaxY)
	assert.InDelta(t, 0.8, regions[0].Confidence, 1e-6)
}

func TestFindRegions_SeparateComponents(t *testing.T) {
	m := probMap(30, 10, 0.9, [4]int{0, 0, 4, 2}, [4]int{10, 5, 14, 8})

	regions := findRegions(m, 30, 10, 0.5)
	assert.Len(t, regions, 2)
}

func TestFindRegions_BelowThresholdIgnored(t *testing.T) {
	m := probMap(10, 10, 0.2, [4]int{0, 0, 9, 9})
	assert.Empty(t, findRegions(m, 10, 10, 0.3))
}

func TestFindRegions_BadInput(t *testing.T) {
	assert.Nil(t, findRegions(nil, 10, 10, 0.3))
	assert.Nil(t, findRegions(make([]float32, 5), 10, 10, 0.3))
}

func TestFilterRegions_MinSize(t *testing.T) {
	regions := []Region{
		{MinX: 0, MinY: 0, MaxX: 30, MaxY: 20},
		{MinX: 0, MinY: 0, MaxX: 30, MaxY: 3}, // 4px tall, below the glyph floor
	}

	kept := filterRegions(regions, 10, 1, 1)
	require.Len(t, kept, 1)
	assert.Equal(t, 20, kept[0].MaxY)
}

func TestFilterRegions_ScaleAware(t *testing.T) {
	// 4px tall on the map, but the map is half resolution: 8px on the image.
	regions := []Region{{MinX: 0, MinY: 0, MaxX: 30, MaxY: 3}}
	assert.Len(t, filterRegions(regions, 8, 2, 2), 1)
	regions = []Region{{MinX: 0, MinY: 0, MaxX: 30, MaxY: 3}}
	assert.Empty(t, filterRegions(regions, 10, 2, 2))
}

func TestGroupRegions_MergesCloseWords(t *testing.T) {
	regions := []Region{
		{MinX: 0, MinY: 0, MaxX: 10, MaxY: 9, Confidence: 0.8},
		{MinX: 14, MinY: 0, MaxX: 24, MaxY: 9, Confidence: 0.6}, // 4px gap, height 10
	}

	merged := groupRegions(regions, 0.7)
	require.Len(t, merged, 1)
	assert.Equal(t, 0, merged[0].MinX)
	assert.Equal(t, 24, merged[0].MaxX)
	assert.InDelta(t, 0.7, merged[0].Confidence, 1e-6)
}

func TestGroupRegions_KeepsDistantWords(t *testing.T) {
	regions := []Region{
		{MinX: 0, MinY: 0, MaxX: 10, MaxY: 9},
		{MinX: 30, MinY: 0, MaxX: 40, MaxY: 9}, // 20px gap, far beyond 0.7*height
	}
	assert.Len(t, groupRegions(regions, 0.7), 2)
}

func TestGroupRegions_DifferentLinesNeverMerge(t *testing.T) {
	regions := []Region{
		{MinX: 0, MinY: 0, MaxX: 10, MaxY: 9},
		{MinX: 0, MinY: 20, MaxX: 10, MaxY: 29},
	}
	assert.Len(t, groupRegions(regions, 0.7), 2)
}

func TestSortRegions_ReadingOrder(t *testing.T) {
	regions := []Region{
		{MinX: 50, MinY: 40, MaxX: 60, MaxY: 49},
		{MinX: 0, MinY: 42, MaxX: 10, MaxY: 51}, // same row, further left
		{MinX: 10, MinY: 0, MaxX: 20, MaxY: 9},
	}

	sortRegions(regions)
	assert.Equal(t, 0, regions[0].MinY)
	assert.Equal(t, 0, regions[1].MinX)
	assert.Equal(t, 50, regions[2].MinX)
}

func TestCropRegion_MapsCoordinates(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 40, 40))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	// Region covering map pixels (5..9, 5..9) at scale 2 maps to image (10..19).
	crop := cropRegion(img, Region{MinX: 5, MinY: 5, MaxX: 9, MaxY: 9}, 2, 2)
	require.NotNil(t, crop)
	// 10px box plus 2px padding on each side.
	assert.Equal(t, 14, crop.Bounds().Dx())
	assert.Equal(t, uint8(200), crop.GrayAt(0, 0).Y)
}

func TestContrastAndStretch(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 1))
	copy(img.Pix, []uint8{120, 124, 128, 132})

	low := contrast(img)
	assert.InDelta(t, 12.0/255.0, low, 1e-6)

	stretched := stretchContrast(img, 0.5)
	assert.Greater(t, contrast(stretched), low)

	// Already-contrasty crops pass through untouched.
	sharp := image.NewGray(image.Rect(0, 0, 2, 1))
	copy(sharp.Pix, []uint8{0, 255})
	assert.Equal(t, sharp, stretchContrast(sharp, 0.5))
}
