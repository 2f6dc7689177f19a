package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrandName(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"registered glyph", "Panadol® Extra", "Panadol", true},
		{"trademark glyph", "take Aspirin™ daily", "Aspirin", true},
		{"preceding capitals join the run", "Take Aspirin™ daily", "Take Aspirin", true},
		{"multi-word brand", "Tylenol Extra Strength® 500mg", "Tylenol Extra Strength", true},
		{"first match wins", "Amoxil® then Augmentin®", "Amoxil", true},
		{"no glyph", "Paracetamol 500mg", "", false},
		{"lowercase before glyph", "panadol®", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.BrandName(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenericName(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	got, ok := e.GenericName("Panadol® (paracetamol) 500mg")
	require.True(t, ok)
	assert.Equal(t, "paracetamol", got)

	got, ok = e.GenericName("Co-Amoxiclav (amoxicillin-clavulanate) tablets")
	require.True(t, ok)
	assert.Equal(t, "amoxicillin-clavulanate", got)

	_, ok = e.GenericName("no parentheses here")
	assert.False(t, ok)
}

func TestDosageForm(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"plural form substring", "100 tablets of paracetamol", "tablet", true},
		{"case-insensitive", "ORAL SYRUP 60ML", "syrup", true},
		{"vocabulary order decides", "capsule or tablet", "tablet", true},
		{"unknown form", "suppository", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.DosageForm(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDosageForm_CustomVocabulary(t *testing.T) {
	e := NewExtractor(Config{DosageForms: []string{"lozenge"}})

	got, ok := e.DosageForm("honey lozenges")
	require.True(t, ok)
	assert.Equal(t, "lozenge", got)

	_, ok = e.DosageForm("100 tablets")
	assert.False(t, ok, "default vocabulary should be replaced, not appended")
}

func TestManufacturerCountry(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"made in", "MADE IN GERMANY", "Germany", true},
		{"manufactured in", "Manufactured in India", "India", true},
		{"mixed case", "made in switzerland", "Switzerland", true},
		{"country alone is not enough", "Germany GmbH", "", false},
		{"unknown country", "MADE IN ATLANTIS", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.ManufacturerCountry(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStrength(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"plain mg", "Paracetamol 500mg tablets", "500mg", true},
		{"spaced unit", "Dose: 10 ml twice daily", "10 ml", true},
		{"decimal", "0.5 mg per tablet", "0.5 mg", true},
		{"ratio", "Suspension 125mg/5ml", "125mg/5ml", true},
		{"mcg", "Folic acid 400mcg", "400mcg", true},
		{"no unit", "take 2 daily", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.Strength(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDescriptionAndPrecaution(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	got, ok := e.Description("Description: white film-coated tablets. Store below 25C")
	require.True(t, ok)
	assert.Equal(t, "white film-coated tablets", got)

	got, ok = e.Precaution("PRECAUTION: keep out of reach of children. More text")
	require.True(t, ok)
	assert.Equal(t, "keep out of reach of children", got)

	got, ok = e.Precaution("Warning: do not exceed stated dose.")
	require.True(t, ok)
	assert.Equal(t, "do not exceed stated dose", got)

	_, ok = e.Description("nothing labelled here")
	assert.False(t, ok)
}

func TestNewExtractor_EmptyConfigFallsBack(t *testing.T) {
	e := NewExtractor(Config{})
	_, ok := e.DosageForm("tablet")
	assert.True(t, ok)
	_, ok = e.ManufacturerCountry("MADE IN UK")
	assert.True(t, ok)
}
