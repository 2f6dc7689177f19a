// Package extract turns the merged recognition text into a structured product
// record using first-match-wins pattern matching. Extraction is best-effort:
// a field with no match is absent, never an error.
package extract

import (
	"fmt"
	"time"
)

// Date is a day-precision date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// MarshalJSON renders the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", d.Format("2006-01-02"))), nil
}

// UnmarshalJSON parses "YYYY-MM-DD".
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	t, err := time.Parse("2006-01-02", s[1:len(s)-1])
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ProductFields is the structured record assembled from one packaging image.
// Every field is optional; nil means "not found". The record is assembled
// once and never mutated afterwards. Classification, manufacturer,
// self_administered, display_name and image_url are populated by
// collaborators outside this package and always start absent.
type ProductFields struct {
	CertificateNumber   *string `json:"certificate_number,omitempty"`
	Classification      *string `json:"classification,omitempty"`
	BrandName           *string `json:"brand_name,omitempty"`
	GenericName         *string `json:"generic_name,omitempty"`
	DosageForm          *string `json:"dosage_form,omitempty"`
	ManufacturerCountry *string `json:"manufacturer_country,omitempty"`
	Strength            *string `json:"strength,omitempty"`
	Manufacturer        *string `json:"manufacturer,omitempty"`
	SelfAdministered    *bool   `json:"self_administered,omitempty"`
	Description         *string `json:"description,omitempty"`
	Precaution          *string `json:"precaution,omitempty"`
	DisplayName         *string `json:"display_name,omitempty"`
	PackSize            *string `json:"pack_size,omitempty"`
	ImageURL            *string `json:"image_url,omitempty"`
	ExpiryDate          *Date   `json:"expiry_date,omitempty"`
	BatchNumber         *string `json:"batch_number,omitempty"`
}

// IsEmpty reports whether every field is absent.
func (p *ProductFields) IsEmpty() bool {
	return p.CertificateNumber == nil &&
		p.Classification == nil &&
		p.BrandName == nil &&
		p.GenericName == nil &&
		p.DosageForm == nil &&
		p.ManufacturerCountry == nil &&
		p.Strength == nil &&
		p.Manufacturer == nil &&
		p.SelfAdministered == nil &&
		p.Description == nil &&
		p.Precaution == nil &&
		p.DisplayName == nil &&
		p.PackSize == nil &&
		p.ImageURL == nil &&
		p.ExpiryDate == nil &&
		p.BatchNumber == nil
}
