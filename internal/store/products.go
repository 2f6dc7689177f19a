package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rxscan/rxscan/internal/extract"
)

// Product is a stored record with its identity and timestamps.
type Product struct {
	ID        string                `json:"id"`
	Fields    extract.ProductFields `json:"fields"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

const productColumns = `id, certificate_number, classification, brand_name, generic_name,
	dosage_form, manufacturer_country, strength, manufacturer, self_administered,
	description, precaution, display_name, pack_size, image_url, expiry_date,
	batch_number, created_at, updated_at`

// SaveProduct inserts a new record and returns it with a fresh identity.
func (s *Store) SaveProduct(ctx context.Context, fields *extract.ProductFields) (*Product, error) {
	p := &Product{
		ID:        uuid.NewString(),
		Fields:    *fields,
		CreatedAt: now(),
	}
	p.UpdatedAt = p.CreatedAt

	_, err := s.db.ExecContext(ctx, `INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		fields.CertificateNumber,
		fields.Classification,
		fields.BrandName,
		fields.GenericName,
		fields.DosageForm,
		fields.ManufacturerCountry,
		fields.Strength,
		fields.Manufacturer,
		fields.SelfAdministered,
		fields.Description,
		fields.Precaution,
		fields.DisplayName,
		fields.PackSize,
		fields.ImageURL,
		expiryToColumn(fields.ExpiryDate),
		fields.BatchNumber,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}

	s.logger.Debug("product saved", "id", p.ID)
	return p, nil
}

// UpdateProduct replaces the stored fields of an existing record.
func (s *Store) UpdateProduct(ctx context.Context, id string, fields *extract.ProductFields) (*Product, error) {
	updatedAt := now()
	res, err := s.db.ExecContext(ctx, `UPDATE products SET
		certificate_number = ?, classification = ?, brand_name = ?, generic_name = ?,
		dosage_form = ?, manufacturer_country = ?, strength = ?, manufacturer = ?,
		self_administered = ?, description = ?, precaution = ?, display_name = ?,
		pack_size = ?, image_url = ?, expiry_date = ?, batch_number = ?, updated_at = ?
		WHERE id = ?`,
		fields.CertificateNumber,
		fields.Classification,
		fields.BrandName,
		fields.GenericName,
		fields.DosageForm,
		fields.ManufacturerCountry,
		fields.Strength,
		fields.Manufacturer,
		fields.SelfAdministered,
		fields.Description,
		fields.Precaution,
		fields.DisplayName,
		fields.PackSize,
		fields.ImageURL,
		expiryToColumn(fields.ExpiryDate),
		fields.BatchNumber,
		updatedAt,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return s.GetProduct(ctx, id)
}

// GetProduct fetches one record by id.
func (s *Store) GetProduct(ctx context.Context, id string) (*Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// ListProducts returns records newest first. A non-positive limit means no
// limit.
func (s *Store) ListProducts(ctx context.Context, limit, offset int) ([]*Product, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products
		 ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteProduct removes one record by id.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountProducts returns the number of stored records.
func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var (
		p      Product
		expiry sql.NullString
	)
	err := row.Scan(
		&p.ID,
		&p.Fields.CertificateNumber,
		&p.Fields.Classification,
		&p.Fields.BrandName,
		&p.Fields.GenericName,
		&p.Fields.DosageForm,
		&p.Fields.ManufacturerCountry,
		&p.Fields.Strength,
		&p.Fields.Manufacturer,
		&p.Fields.SelfAdministered,
		&p.Fields.Description,
		&p.Fields.Precaution,
		&p.Fields.DisplayName,
		&p.Fields.PackSize,
		&p.Fields.ImageURL,
		&expiry,
		&p.Fields.BatchNumber,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if expiry.Valid {
		t, err := time.Parse("2006-01-02", expiry.String)
		if err != nil {
			return nil, fmt.Errorf("stored expiry date %q: %w", expiry.String, err)
		}
		d := extract.Date{Time: t}
		p.Fields.ExpiryDate = &d
	}
	return &p, nil
}

func expiryToColumn(d *extract.Date) any {
	if d == nil {
		return nil
	}
	return d.Format("2006-01-02")
}
