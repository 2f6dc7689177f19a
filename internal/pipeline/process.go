package pipeline

import (
	"context"
	"image"
	"log/slog"

	"github.com/rxscan/rxscan/internal/extract"
	"github.com/rxscan/rxscan/internal/ocr"
	"github.com/rxscan/rxscan/internal/preprocess"
)

// Result is the outcome of processing one image.
type Result struct {
	// Text is the merged recognition text after confidence filtering.
	Text string

	// Fragments are the raw engine outputs before merging, in engine
	// order.
	Fragments []ocr.Fragment

	// Fields is the assembled product record. Never nil on success, but
	// possibly empty when no pattern matched.
	Fields *extract.ProductFields
}

// Process normalizes the image, runs both engines in order, merges their
// fragments and assembles the product record. Any engine failure aborts the
// whole run; partial results are never returned.
func (p *Pipeline) Process(ctx context.Context, img image.Image) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gray, err := preprocess.Normalize(img, p.cfg.MaxDimension)
	if err != nil {
		return nil, err
	}

	var fragments []ocr.Fragment
	for _, eng := range p.engines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frags, err := eng.Recognize(gray)
		if err != nil {
			return nil, err
		}
		slog.Debug("engine finished",
			"engine", eng.Source(),
			"fragments", len(frags))
		fragments = append(fragments, frags...)
	}

	text := ocr.MergeFragments(fragments, p.cfg.ConfidenceFloor)
	fields := extract.Assemble(text, p.extractor)

	return &Result{Text: text, Fragments: fragments, Fields: fields}, nil
}

// ExtractProductInfo is the single-call form of Process: one image in, one
// product record out.
func (p *Pipeline) ExtractProductInfo(ctx context.Context, img image.Image) (*extract.ProductFields, error) {
	res, err := p.Process(ctx, img)
	if err != nil {
		return nil, err
	}
	return res.Fields, nil
}
