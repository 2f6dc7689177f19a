package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble_FullLabel(t *testing.T) {
	text := "Panadol® (paracetamol) 500mg tablets\n" +
		"MADE IN UK\n" +
		"BATCH B4521\n" +
		"EXP 12/08/2026\n" +
		"Pack of 24\n" +
		"Description: white round tablets. PRECAUTION: keep dry."

	fields := Assemble(text, NewExtractor(DefaultConfig()))

	require.NotNil(t, fields.BrandName)
	assert.Equal(t, "Panadol", *fields.BrandName)
	require.NotNil(t, fields.GenericName)
	assert.Equal(t, "paracetamol", *fields.GenericName)
	require.NotNil(t, fields.DosageForm)
	assert.Equal(t, "tablet", *fields.DosageForm)
	require.NotNil(t, fields.ManufacturerCountry)
	assert.Equal(t, "UK", *fields.ManufacturerCountry)
	require.NotNil(t, fields.Strength)
	assert.Equal(t, "500mg", *fields.Strength)
	require.NotNil(t, fields.BatchNumber)
	assert.Equal(t, "B4521", *fields.BatchNumber)
	require.NotNil(t, fields.PackSize)
	assert.Equal(t, "24", *fields.PackSize)
	require.NotNil(t, fields.Description)
	assert.Equal(t, "white round tablets", *fields.Description)
	require.NotNil(t, fields.Precaution)
	assert.Equal(t, "keep dry", *fields.Precaution)

	require.NotNil(t, fields.ExpiryDate)
	assert.Equal(t, NewDate(2026, time.August, 12).Time, fields.ExpiryDate.Time)

	assert.Nil(t, fields.CertificateNumber)
	assert.False(t, fields.IsEmpty())
}

func TestAssemble_ExpiryDayMonthYearOrder(t *testing.T) {
	fields := Assemble("EXP 01/02/2026", NewExtractor(DefaultConfig()))
	require.NotNil(t, fields.ExpiryDate)
	assert.Equal(t, NewDate(2026, time.February, 1).Time, fields.ExpiryDate.Time)
}

func TestAssemble_MalformedExpiryStaysAbsent(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"dash separators fail the parse", "EXP 12-08-2026"},
		{"no digits after label", "EXP ABCDE"},
		{"impossible day", "EXP 99/01/2026"},
		{"two-digit year", "EXP 12/08/26"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := Assemble(tt.text, NewExtractor(DefaultConfig()))
			assert.Nil(t, fields.ExpiryDate)
		})
	}
}

func TestAssemble_PatternFreeTextIsEmpty(t *testing.T) {
	fields := Assemble("nothing recognizable on this label", NewExtractor(DefaultConfig()))
	assert.True(t, fields.IsEmpty())
}

func TestAssemble_CollaboratorFieldsStayAbsent(t *testing.T) {
	text := "Panadol® 500mg tablets MADE IN UK BATCH B1 EXP 12/08/2026"
	fields := Assemble(text, NewExtractor(DefaultConfig()))

	assert.Nil(t, fields.Classification)
	assert.Nil(t, fields.Manufacturer)
	assert.Nil(t, fields.SelfAdministered)
	assert.Nil(t, fields.DisplayName)
	assert.Nil(t, fields.ImageURL)
}

// The lazy gap in the certificate and batch patterns stops at the first
// word-character run, so an intervening label word is captured instead of
// the number that follows it.
func TestAssemble_LazyGapCapturesFirstToken(t *testing.T) {
	fields := Assemble("Certificate No: ABC-123", NewExtractor(DefaultConfig()))
	require.NotNil(t, fields.CertificateNumber)
	assert.Equal(t, "No", *fields.CertificateNumber)

	fields = Assemble("CERTIFICATE ABC-123", NewExtractor(DefaultConfig()))
	require.NotNil(t, fields.CertificateNumber)
	assert.Equal(t, "ABC-123", *fields.CertificateNumber)
}
