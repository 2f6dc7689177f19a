// Package pipeline composes image normalization, the two recognition engines
// and field extraction into a single processing unit. A Pipeline is built
// once, is safe for concurrent Process calls, and owns its engines until
// Close.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/rxscan/rxscan/internal/extract"
	"github.com/rxscan/rxscan/internal/models"
	"github.com/rxscan/rxscan/internal/ocr"
	"github.com/rxscan/rxscan/internal/ocr/scene"
	"github.com/rxscan/rxscan/internal/ocr/tess"
)

// Config holds configuration for the pipeline and its components.
type Config struct {
	ModelsDir string

	// MaxDimension clamps the longer input side during normalization.
	MaxDimension int

	// ConfidenceFloor drops scored fragments below this confidence when
	// merging engine outputs.
	ConfidenceFloor float64

	Scene     scene.Config
	Tesseract tess.Config
	Extract   extract.Config
}

// DefaultConfig returns a default pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		ModelsDir:       models.GetModelsDir(""),
		MaxDimension:    4096,
		ConfidenceFloor: 0.5,
		Scene:           scene.DefaultConfig(),
		Tesseract:       tess.DefaultConfig(),
		Extract:         extract.DefaultConfig(),
	}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg Config
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithModelsDir sets the models directory and re-resolves model paths.
func (b *Builder) WithModelsDir(dir string) *Builder {
	if dir != "" {
		b.cfg.ModelsDir = dir
	}
	b.cfg.Scene.UpdateModelPaths(b.cfg.ModelsDir)
	return b
}

// WithDetectionModelPath overrides the detection model path directly.
func (b *Builder) WithDetectionModelPath(path string) *Builder {
	if path != "" {
		b.cfg.Scene.DetectionModelPath = path
	}
	return b
}

// WithRecognitionModelPath overrides the recognition model path directly.
func (b *Builder) WithRecognitionModelPath(path string) *Builder {
	if path != "" {
		b.cfg.Scene.RecognitionModelPath = path
	}
	return b
}

// WithDictionaryPath overrides the character dictionary path directly.
func (b *Builder) WithDictionaryPath(path string) *Builder {
	if path != "" {
		b.cfg.Scene.DictPath = path
	}
	return b
}

// WithMaxDimension sets the normalization size limit (if >0).
func (b *Builder) WithMaxDimension(px int) *Builder {
	if px > 0 {
		b.cfg.MaxDimension = px
	}
	return b
}

// WithConfidenceFloor sets the merge confidence floor.
func (b *Builder) WithConfidenceFloor(floor float64) *Builder {
	b.cfg.ConfidenceFloor = floor
	return b
}

// WithThreads sets the intra-op thread count for the scene engine (if >0).
func (b *Builder) WithThreads(n int) *Builder {
	if n > 0 {
		b.cfg.Scene.NumThreads = n
	}
	return b
}

// WithTesseractLanguage sets the Tesseract traineddata language.
func (b *Builder) WithTesseractLanguage(lang string) *Builder {
	if lang != "" {
		b.cfg.Tesseract.Language = lang
	}
	return b
}

// WithTessdataPrefix overrides the Tesseract traineddata directory.
func (b *Builder) WithTessdataPrefix(dir string) *Builder {
	if dir != "" {
		b.cfg.Tesseract.TessdataPrefix = dir
	}
	return b
}

// WithVocabularies replaces the extraction vocabularies. Empty lists keep
// the defaults.
func (b *Builder) WithVocabularies(cfg extract.Config) *Builder {
	if len(cfg.DosageForms) > 0 {
		b.cfg.Extract.DosageForms = cfg.DosageForms
	}
	if len(cfg.Countries) > 0 {
		b.cfg.Extract.Countries = cfg.Countries
	}
	return b
}

// Validate checks the builder configuration for obvious mistakes.
func (b *Builder) Validate() error {
	if b.cfg.MaxDimension <= 0 {
		return fmt.Errorf("max dimension must be positive, got %d", b.cfg.MaxDimension)
	}
	if b.cfg.ConfidenceFloor < 0 || b.cfg.ConfidenceFloor > 1 {
		return fmt.Errorf("confidence floor must be in [0,1], got %g", b.cfg.ConfidenceFloor)
	}
	if b.cfg.Scene.MaskThreshold <= 0 || b.cfg.Scene.MaskThreshold >= 1 {
		return fmt.Errorf("mask threshold must be in (0,1), got %g", b.cfg.Scene.MaskThreshold)
	}
	return nil
}

// Build validates the configuration and constructs the pipeline. The scene
// engine loads its models here; a failure leaves nothing to clean up on the
// caller's side.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	sceneEngine, err := scene.NewEngine(b.cfg.Scene)
	if err != nil {
		return nil, fmt.Errorf("init scene engine: %w", err)
	}
	tessEngine := tess.NewEngine(b.cfg.Tesseract)

	return newPipeline(b.cfg, []ocr.Engine{sceneEngine, tessEngine}), nil
}

// Pipeline runs the full image-to-record flow. Engines run in a fixed order
// so merged text is deterministic.
type Pipeline struct {
	cfg       Config
	engines   []ocr.Engine
	extractor *extract.Extractor
}

func newPipeline(cfg Config, engines []ocr.Engine) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		engines:   engines,
		extractor: extract.NewExtractor(cfg.Extract),
	}
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() Config { return p.cfg }

// Close releases all engine resources. Safe to call more than once.
func (p *Pipeline) Close() error {
	var errs []error
	for _, eng := range p.engines {
		if err := eng.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	p.engines = nil
	return errors.Join(errs...)
}
