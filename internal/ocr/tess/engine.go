// Package tess implements the dense OCR engine on top of the Tesseract
// C bindings. It runs in sparse-text mode (no layout assumption) and emits a
// single unsegmented text block without a confidence score.
package tess

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/rxscan/rxscan/internal/ocr"
)

// Config holds Tesseract settings.
type Config struct {
	// Language is the traineddata language code.
	Language string

	// TessdataPrefix overrides the traineddata directory when non-empty.
	TessdataPrefix string
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{Language: "eng"}
}

// Engine recognizes text with Tesseract. A fresh client is constructed per
// call because gosseract clients are not safe for concurrent use; client
// construction is cheap next to recognition itself.
type Engine struct {
	config Config
}

// NewEngine creates a Tesseract engine.
func NewEngine(config Config) *Engine {
	if config.Language == "" {
		config.Language = "eng"
	}
	return &Engine{config: config}
}

// Source implements ocr.Engine.
func (e *Engine) Source() ocr.Source { return ocr.SourceTesseract }

// Recognize runs Tesseract over the whole raster in sparse-text page
// segmentation mode and returns the full text block as one fragment.
// Tesseract's plain text output has no usable confidence, so the fragment is
// marked with confidence 1 and is never filtered by the confidence floor.
func (e *Engine) Recognize(img *image.Gray) ([]ocr.Fragment, error) {
	if img == nil {
		return nil, ocr.NewEngineError(ocr.SourceTesseract, fmt.Errorf("nil image"))
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, ocr.NewEngineError(ocr.SourceTesseract, fmt.Errorf("encode image: %w", err))
	}

	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	if e.config.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.config.TessdataPrefix); err != nil {
			return nil, ocr.NewEngineError(ocr.SourceTesseract, fmt.Errorf("set tessdata prefix: %w", err))
		}
	}
	if err := client.SetLanguage(e.config.Language); err != nil {
		return nil, ocr.NewEngineError(ocr.SourceTesseract, fmt.Errorf("set language: %w", err))
	}
	if err := client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		return nil, ocr.NewEngineError(ocr.SourceTesseract, fmt.Errorf("set page segmentation mode: %w", err))
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, ocr.NewEngineError(ocr.SourceTesseract, fmt.Errorf("set image: %w", err))
	}

	text, err := client.Text()
	if err != nil {
		return nil, ocr.NewEngineError(ocr.SourceTesseract, fmt.Errorf("recognition: %w", err))
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	return []ocr.Fragment{{
		Text:       text,
		Confidence: 1,
		Source:     ocr.SourceTesseract,
	}}, nil
}

// Close implements ocr.Engine; the per-call client model leaves nothing to
// release.
func (e *Engine) Close() error { return nil }
