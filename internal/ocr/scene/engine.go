// Package scene implements the confidence-bearing scene-text engine on top of
// ONNX Runtime: a detection model locates text regions on the normalized
// raster and a CTC recognition model reads each region.
package scene

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sort"

	"github.com/rxscan/rxscan/internal/models"
	"github.com/rxscan/rxscan/internal/ocr"
	onnxrt "github.com/yalue/onnxruntime_go"
)

// Config holds tuning for the scene-text engine.
type Config struct {
	DetectionModelPath   string
	RecognitionModelPath string
	DictPath             string

	// MinRegionSize drops detected regions whose shorter side is below
	// this many pixels; glyphs that small do not recognize reliably.
	MinRegionSize int

	// ContrastThreshold marks a region crop as low-contrast when its
	// normalized dynamic range falls below this value.
	ContrastThreshold float64

	// ContrastAdjust is the target range applied when re-stretching a
	// low-contrast crop before recognition.
	ContrastAdjust float64

	// WidthRatio is the horizontal grouping tolerance: neighboring regions
	// on the same line merge when the gap between them is below
	// WidthRatio times the line height.
	WidthRatio float64

	// MaskThreshold binarizes the detection probability map.
	MaskThreshold float32

	// ImageHeight is the fixed input height of the recognition model.
	ImageHeight int

	// MaxDetectionSide clamps the detection input; larger rasters are
	// scaled down for detection and boxes mapped back.
	MaxDetectionSide int

	NumThreads int
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		DetectionModelPath:   models.GetDetectionModelPath(""),
		RecognitionModelPath: models.GetRecognitionModelPath(""),
		DictPath:             models.GetDictionaryPath(""),
		MinRegionSize:        10,
		ContrastThreshold:    0.1,
		ContrastAdjust:       0.5,
		WidthRatio:           0.7,
		MaskThreshold:        0.3,
		ImageHeight:          48,
		MaxDetectionSide:     960,
		NumThreads:           0,
	}
}

// UpdateModelPaths re-resolves the model and dictionary paths against the
// given models directory. Explicit per-path overrides should be applied
// afterwards.
func (c *Config) UpdateModelPaths(modelsDir string) {
	c.DetectionModelPath = models.GetDetectionModelPath(modelsDir)
	c.RecognitionModelPath = models.GetRecognitionModelPath(modelsDir)
	c.DictPath = models.GetDictionaryPath(modelsDir)
}

// Engine is the ONNX-backed scene-text engine. Model sessions are created
// once and are safe for concurrent Recognize calls.
type Engine struct {
	config     Config
	detSession *onnxrt.DynamicAdvancedSession
	recSession *onnxrt.DynamicAdvancedSession
	charset    *Charset
}

// NewEngine loads both models and the character dictionary. Model weights are
// expensive to load; construct one engine per process and share it.
func NewEngine(config Config) (*Engine, error) {
	if config.DetectionModelPath == "" || config.RecognitionModelPath == "" {
		return nil, errors.New("model paths cannot be empty")
	}
	for _, p := range []string{config.DetectionModelPath, config.RecognitionModelPath, config.DictPath} {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return nil, fmt.Errorf("model file not found: %s", p)
		}
	}

	charset, err := LoadCharset(config.DictPath)
	if err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}

	if err := setupEnvironment(); err != nil {
		return nil, err
	}

	detSession, err := createSession(config.DetectionModelPath, config.NumThreads)
	if err != nil {
		return nil, fmt.Errorf("detection session: %w", err)
	}
	recSession, err := createSession(config.RecognitionModelPath, config.NumThreads)
	if err != nil {
		_ = detSession.Destroy()
		return nil, fmt.Errorf("recognition session: %w", err)
	}

	return &Engine{
		config:     config,
		detSession: detSession,
		recSession: recSession,
		charset:    charset,
	}, nil
}

// Source implements ocr.Engine.
func (e *Engine) Source() ocr.Source { return ocr.SourceScene }

// Recognize detects text regions on the raster and reads each one. Fragments
// are emitted top-to-bottom, then left-to-right, so output order is
// deterministic for identical input.
func (e *Engine) Recognize(img *image.Gray) ([]ocr.Fragment, error) {
	if img == nil {
		return nil, ocr.NewEngineError(ocr.SourceScene, errors.New("nil image"))
	}

	probMap, mapW, mapH, scaleX, scaleY, err := e.runDetection(img)
	if err != nil {
		return nil, ocr.NewEngineError(ocr.SourceScene, err)
	}

	regions := findRegions(probMap, mapW, mapH, e.config.MaskThreshold)
	regions = filterRegions(regions, e.config.MinRegionSize, scaleX, scaleY)
	regions = groupRegions(regions, e.config.WidthRatio)
	sortRegions(regions)

	fragments := make([]ocr.Fragment, 0, len(regions))
	for _, reg := range regions {
		crop := cropRegion(img, reg, scaleX, scaleY)
		if crop == nil {
			continue
		}
		if contrast(crop) < e.config.ContrastThreshold {
			crop = stretchContrast(crop, e.config.ContrastAdjust)
		}

		text, conf, err := e.runRecognition(crop)
		if err != nil {
			return nil, ocr.NewEngineError(ocr.SourceScene, err)
		}
		if text == "" {
			continue
		}
		fragments = append(fragments, ocr.Fragment{
			Text:       text,
			Confidence: conf,
			Source:     ocr.SourceScene,
		})
	}
	return fragments, nil
}

// Close releases both model sessions.
func (e *Engine) Close() error {
	var first error
	if e.detSession != nil {
		if err := e.detSession.Destroy(); err != nil && first == nil {
			first = err
		}
		e.detSession = nil
	}
	if e.recSession != nil {
		if err := e.recSession.Destroy(); err != nil && first == nil {
			first = err
		}
		e.recSession = nil
	}
	return first
}

// sortRegions orders regions top-to-bottom with a small row tolerance, then
// left-to-right within a row.
func sortRegions(regions []Region) {
	sort.SliceStable(regions, func(i, j int) bool {
		ri, rj := regions[i], regions[j]
		rowTol := (ri.Height() + rj.Height()) / 4
		if diff := ri.MinY - rj.MinY; diff > rowTol || diff < -rowTol {
			return ri.MinY < rj.MinY
		}
		return ri.MinX < rj.MinX
	})
}
