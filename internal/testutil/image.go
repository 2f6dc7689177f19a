// Package testutil generates synthetic packaging label images for tests.
package testutil

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// LabelConfig holds configuration for generating synthetic label images.
type LabelConfig struct {
	Lines      []string
	Width      int
	Height     int
	Background color.Color
	Foreground color.Color
	FontFace   font.Face
	Rotation   float64 // degrees
}

// DefaultLabelConfig returns a configuration resembling a simple packaging
// front panel.
func DefaultLabelConfig() LabelConfig {
	return LabelConfig{
		Lines: []string{
			"Panadol",
			"500mg tablets",
			"EXP 12/08/2026",
		},
		Width:      640,
		Height:     480,
		Background: color.White,
		Foreground: color.Black,
		FontFace:   basicfont.Face7x13,
	}
}

// GenerateLabelImage renders the configured text lines centered on a solid
// background, optionally rotated.
func GenerateLabelImage(config LabelConfig) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, config.Width, config.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{config.Background}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{config.Foreground},
		Face: config.FontFace,
	}

	lineHeight := config.FontFace.Metrics().Height.Ceil() * 2
	startY := (config.Height - len(config.Lines)*lineHeight) / 2
	for i, line := range config.Lines {
		textWidth := font.MeasureString(config.FontFace, line).Ceil()
		x := (config.Width - textWidth) / 2
		y := startY + (i+1)*lineHeight
		drawer.Dot = fixed.P(x, y)
		drawer.DrawString(line)
	}

	if config.Rotation != 0 {
		rotated := imaging.Rotate(img, config.Rotation, config.Background)
		rgba := image.NewRGBA(rotated.Bounds())
		draw.Draw(rgba, rgba.Bounds(), rotated, rotated.Bounds().Min, draw.Src)
		return rgba
	}

	return img
}

// GenerateNoise fills an image with a deterministic pseudo-random pattern,
// useful for exercising code paths that must not find text.
func GenerateNoise(width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	seed := uint32(2463534242)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			seed ^= seed << 13
			seed ^= seed >> 17
			seed ^= seed << 5
			img.SetGray(x, y, color.Gray{Y: uint8(seed)})
		}
	}
	return img
}
