// Package ocr defines the recognition engine contract and the policy for
// merging the output of multiple engines into a single text blob.
package ocr

import "image"

// Source identifies which engine produced a fragment.
type Source string

const (
	// SourceScene is the ONNX scene-text engine; its fragments carry a
	// usable confidence score and are subject to the confidence floor.
	SourceScene Source = "scene"

	// SourceTesseract is the dense sparse-text engine; Tesseract's plain
	// text output has no per-blob confidence, so its fragments are always
	// retained.
	SourceTesseract Source = "tesseract"
)

// Scored reports whether fragments from this source carry a meaningful
// confidence and must pass the confidence floor to survive the merge.
func (s Source) Scored() bool { return s == SourceScene }

// Fragment is one recognized span of text. Fragments are never mutated after
// creation; Confidence is always within [0,1].
type Fragment struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
}

// Engine recognizes text on a normalized (binarized, single-channel) raster.
// Implementations hold any expensive model state themselves and must be safe
// for concurrent Recognize calls, or serialize internally.
type Engine interface {
	// Source identifies the engine in fragments and errors.
	Source() Source

	// Recognize returns recognized fragments in emission order. The input
	// raster is read-only; implementations must not retain it.
	Recognize(img *image.Gray) ([]Fragment, error)

	// Close releases model resources. The engine is unusable afterwards.
	Close() error
}
