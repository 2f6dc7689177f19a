package scene

import (
	"image"
	"sort"
)

// Region is an axis-aligned text region in detection-map coordinates with the
// mean probability of its pixels.
type Region struct {
	MinX, MinY, MaxX, MaxY int
	Confidence             float64
}

// Width returns the region width in pixels.
func (r Region) Width() int { return r.MaxX - r.MinX + 1 }

// Height returns the region height in pixels.
func (r Region) Height() int { return r.MaxY - r.MinY + 1 }

// findRegions binarizes the probability map at threshold and extracts the
// bounding box of every 4-connected component.
func findRegions(prob []float32, w, h int, threshold float32) []Region {
	if len(prob) != w*h || len(prob) == 0 {
		return nil
	}

	visited := make([]bool, w*h)
	var regions []Region
	queue := make([]int, 0, 256)

	for start := range prob {
		if visited[start] || prob[start] < threshold {
			continue
		}

		reg := Region{MinX: start % w, MinY: start / w, MaxX: start % w, MaxY: start / w}
		var sum float64
		var count int

		queue = queue[:0]
		queue = append(queue, start)
		visited[start] = true

		for len(queue) > 0 {
			idx := queue[0]
			queue = queue[1:]
			x, y := idx%w, idx/w

			sum += float64(prob[idx])
			count++
			if x < reg.MinX {
				reg.MinX = x
			}
			if x > reg.MaxX {
				reg.MaxX = x
			}
			if y < reg.MinY {
				reg.MinY = y
			}
			if y > reg.MaxY {
				reg.MaxY = y
			}

			for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				nidx := ny*w + nx
				if !visited[nidx] && prob[nidx] >= threshold {
					visited[nidx] = true
					queue = append(queue, nidx)
				}
			}
		}

		reg.Confidence = sum / float64(count)
		regions = append(regions, reg)
	}
	return regions
}

// filterRegions drops regions whose shorter side, mapped back to original
// image coordinates, is below minSize.
func filterRegions(regions []Region, minSize int, scaleX, scaleY float64) []Region {
	out := regions[:0]
	for _, r := range regions {
		w := float64(r.Width()) * scaleX
		h := float64(r.Height()) * scaleY
		short := w
		if h < short {
			short = h
		}
		if int(short) >= minSize {
			out = append(out, r)
		}
	}
	return out
}

// groupRegions merges regions that sit on the same text line and are
// separated horizontally by less than widthRatio times the line height.
// This mirrors how word boxes on one label line are read as a unit.
func groupRegions(regions []Region, widthRatio float64) []Region {
	if len(regions) < 2 {
		return regions
	}

	sorted := append([]Region(nil), regions...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].MinY != sorted[j].MinY {
			return sorted[i].MinY < sorted[j].MinY
		}
		return sorted[i].MinX < sorted[j].MinX
	})

	merged := []Region{sorted[0]}
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if sameLine(*last, r) && horizontalGap(*last, r) <= widthRatio*float64(maxInt(last.Height(), r.Height())) {
			mergeInto(last, r)
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// sameLine reports whether two regions overlap vertically by at least half of
// the smaller height.
func sameLine(a, b Region) bool {
	top := maxInt(a.MinY, b.MinY)
	bottom := minInt(a.MaxY, b.MaxY)
	overlap := bottom - top + 1
	return overlap*2 >= minInt(a.Height(), b.Height())
}

func horizontalGap(a, b Region) float64 {
	if b.MinX > a.MaxX {
		return float64(b.MinX - a.MaxX)
	}
	if a.MinX > b.MaxX {
		return float64(a.MinX - b.MaxX)
	}
	return 0
}

func mergeInto(dst *Region, src Region) {
	total := float64(dst.Width()*dst.Height() + src.Width()*src.Height())
	dst.Confidence = (dst.Confidence*float64(dst.Width()*dst.Height()) +
		src.Confidence*float64(src.Width()*src.Height())) / total
	dst.MinX = minInt(dst.MinX, src.MinX)
	dst.MinY = minInt(dst.MinY, src.MinY)
	dst.MaxX = maxInt(dst.MaxX, src.MaxX)
	dst.MaxY = maxInt(dst.MaxY, src.MaxY)
}

// cropRegion cuts the region out of the original raster, mapping detection
// coordinates through the scale factors and padding the box slightly so
// ascenders and descenders survive.
func cropRegion(img *image.Gray, r Region, scaleX, scaleY float64) *image.Gray {
	b := img.Bounds()
	pad := 2

	x1 := clampInt(int(float64(r.MinX)*scaleX)-pad, 0, b.Dx()-1)
	y1 := clampInt(int(float64(r.MinY)*scaleY)-pad, 0, b.Dy()-1)
	x2 := clampInt(int(float64(r.MaxX+1)*scaleX)+pad, 0, b.Dx())
	y2 := clampInt(int(float64(r.MaxY+1)*scaleY)+pad, 0, b.Dy())
	if x2 <= x1 || y2 <= y1 {
		return nil
	}

	out := image.NewGray(image.Rect(0, 0, x2-x1, y2-y1))
	for y := y1; y < y2; y++ {
		off := img.PixOffset(b.Min.X+x1, b.Min.Y+y)
		copy(out.Pix[(y-y1)*out.Stride:(y-y1)*out.Stride+(x2-x1)], img.Pix[off:off+(x2-x1)])
	}
	return out
}

// contrast returns the normalized dynamic range of a crop in [0,1].
func contrast(img *image.Gray) float64 {
	if len(img.Pix) == 0 {
		return 0
	}
	minV, maxV := img.Pix[0], img.Pix[0]
	for _, p := range img.Pix {
		if p < minV {
			minV = p
		}
		if p > maxV {
			maxV = p
		}
	}
	return float64(maxV-minV) / 255.0
}

// stretchContrast linearly rescales pixel values so the crop spans at least
// the given fraction of the full range, centered on the crop mean.
func stretchContrast(img *image.Gray, target float64) *image.Gray {
	cur := contrast(img)
	if cur <= 0 || cur >= target {
		return img
	}

	var sum int
	for _, p := range img.Pix {
		sum += int(p)
	}
	mean := float64(sum) / float64(len(img.Pix))
	gain := target / cur

	out := image.NewGray(img.Bounds())
	for i, p := range img.Pix {
		v := mean + (float64(p)-mean)*gain
		out.Pix[i] = uint8(clampFloat(v, 0, 255))
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
