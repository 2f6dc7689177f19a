package extract

import (
	"regexp"
	"time"
)

// Structurally regular fields matched directly by the assembler rather than a
// dedicated extractor. All are case-insensitive and first-match-wins.
var (
	certificateRe = regexp.MustCompile(`(?i)certificate.*?([A-Z0-9-]+)`)
	batchRe       = regexp.MustCompile(`(?i)batch.*?([A-Z0-9-]+)`)
	expiryRe      = regexp.MustCompile(`(?i)exp.*?(\d{2}[-/]\d{2}[-/]\d{4})`)
	packRe        = regexp.MustCompile(`(?i)pack.*?(\d+)`)
)

// expiryLayout is the uniform day/month/year assumption. Source images using
// month/day ordering parse to wrong-but-valid dates; this matches the
// reference behavior and is deliberately not second-guessed here. Dash-
// separated captures fail the parse and the field stays absent.
const expiryLayout = "02/01/2006"

// Assemble runs the fixed-pattern scans and the extractor over the merged
// text and produces the final record. Malformed expiry dates are swallowed,
// not surfaced: the record carries an absent field instead. There is no
// cross-field validation; correctness here is best-effort pattern matching.
func Assemble(text string, extractor *Extractor) *ProductFields {
	fields := &ProductFields{}

	if v, ok := firstGroup(certificateRe, text); ok {
		fields.CertificateNumber = &v
	}
	if v, ok := firstGroup(batchRe, text); ok {
		fields.BatchNumber = &v
	}
	if v, ok := firstGroup(packRe, text); ok {
		fields.PackSize = &v
	}
	if raw, ok := firstGroup(expiryRe, text); ok {
		if t, err := time.Parse(expiryLayout, raw); err == nil {
			d := Date{Time: t}
			fields.ExpiryDate = &d
		}
	}

	if v, ok := extractor.BrandName(text); ok {
		fields.BrandName = &v
	}
	if v, ok := extractor.GenericName(text); ok {
		fields.GenericName = &v
	}
	if v, ok := extractor.DosageForm(text); ok {
		fields.DosageForm = &v
	}
	if v, ok := extractor.ManufacturerCountry(text); ok {
		fields.ManufacturerCountry = &v
	}
	if v, ok := extractor.Strength(text); ok {
		fields.Strength = &v
	}
	if v, ok := extractor.Description(text); ok {
		fields.Description = &v
	}
	if v, ok := extractor.Precaution(text); ok {
		fields.Precaution = &v
	}

	// Classification, manufacturer, self_administered, display_name and
	// image_url are collaborator-owned and stay absent here.
	return fields
}
