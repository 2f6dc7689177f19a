package ocr

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MergeFragments combines surviving fragments into the single text blob the
// field extractors run over.
//
// Fragments from scored engines are dropped when their confidence falls below
// confidenceFloor; unscored fragments are always retained. Surviving texts
// are joined with single spaces in the order given, so identical fragment
// lists always produce byte-identical output. The caller fixes engine order
// (scene first, then tesseract); there is no reordering by confidence.
func MergeFragments(fragments []Fragment, confidenceFloor float64) string {
	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f.Source.Scored() && f.Confidence < confidenceFloor {
			continue
		}
		if f.Text == "" {
			continue
		}
		parts = append(parts, f.Text)
	}

	// NFC keeps composed glyphs (®, ™, accented names) in a single stable
	// representation regardless of which engine emitted them.
	return norm.NFC.String(strings.Join(parts, " "))
}
