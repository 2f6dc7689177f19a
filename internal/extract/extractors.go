package extract

import (
	"regexp"
	"strings"
)

// Config holds the closed vocabularies used by the dosage form and country
// extractors. They are configuration data, not logic; deployments covering
// more markets extend the lists.
type Config struct {
	DosageForms []string `mapstructure:"dosage_forms" yaml:"dosage_forms" json:"dosage_forms"`
	Countries   []string `mapstructure:"countries" yaml:"countries" json:"countries"`
}

// DefaultConfig returns the default vocabularies.
func DefaultConfig() Config {
	return Config{
		DosageForms: []string{"tablet", "capsule", "syrup", "injection", "cream", "ointment"},
		Countries:   []string{"USA", "UK", "India", "Germany", "Switzerland", "France"},
	}
}

var (
	// A run of capitalized words directly followed by a registered or
	// trademark glyph; the glyph itself is not captured.
	brandRe = regexp.MustCompile(`([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)*)[®™]`)

	// First parenthesized word/hyphen sequence.
	genericRe = regexp.MustCompile(`\(([\w\s-]+)\)`)

	// Numeric value with a dosage unit, optionally a ratio like "5 mg/5 ml".
	strengthRe = regexp.MustCompile(`(\d+(?:\.\d+)?\s*(?:mg|ml|g|mcg)/?(?:\d+(?:\.\d+)?\s*(?:mg|ml|g|mcg))?)`)

	// Labelled free-text sections, captured up to the next period.
	descriptionRe = regexp.MustCompile(`(?i)description:?\s*([^.]+)`)
	precautionRe  = regexp.MustCompile(`(?i)(?:precaution|warning):?\s*([^.]+)`)
)

// Extractor pulls individual semantic fields out of the merged text. Every
// method is pure and independent: first match wins, no scoring across
// candidates, and a miss returns ok=false rather than an error.
type Extractor struct {
	config Config
}

// NewExtractor creates an extractor with the given vocabularies. Empty lists
// fall back to the defaults.
func NewExtractor(config Config) *Extractor {
	def := DefaultConfig()
	if len(config.DosageForms) == 0 {
		config.DosageForms = def.DosageForms
	}
	if len(config.Countries) == 0 {
		config.Countries = def.Countries
	}
	return &Extractor{config: config}
}

// BrandName returns the first capitalized word run marked with ® or ™.
func (e *Extractor) BrandName(text string) (string, bool) {
	return firstGroup(brandRe, text)
}

// GenericName returns the first parenthesized token sequence.
func (e *Extractor) GenericName(text string) (string, bool) {
	return firstGroup(genericRe, text)
}

// DosageForm returns the first dosage form vocabulary entry contained in the
// text, case-insensitive. Vocabulary order decides ties.
func (e *Extractor) DosageForm(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, form := range e.config.DosageForms {
		if strings.Contains(lower, form) {
			return form, true
		}
	}
	return "", false
}

// ManufacturerCountry matches "MADE IN <country>" or "MANUFACTURED IN
// <country>" against the country vocabulary, case-insensitive.
func (e *Extractor) ManufacturerCountry(text string) (string, bool) {
	upper := strings.ToUpper(text)
	for _, country := range e.config.Countries {
		c := strings.ToUpper(country)
		if strings.Contains(upper, "MADE IN "+c) || strings.Contains(upper, "MANUFACTURED IN "+c) {
			return country, true
		}
	}
	return "", false
}

// Strength returns the first numeric value with a recognized dosage unit.
func (e *Extractor) Strength(text string) (string, bool) {
	return firstGroup(strengthRe, text)
}

// Description returns the text following a "description:" label up to the
// next period.
func (e *Extractor) Description(text string) (string, bool) {
	return firstGroup(descriptionRe, text)
}

// Precaution returns the text following a "precaution:" or "warning:" label
// up to the next period.
func (e *Extractor) Precaution(text string) (string, bool) {
	return firstGroup(precautionRe, text)
}

func firstGroup(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}
