package store

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxscan/rxscan/internal/extract"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:", slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleFields() *extract.ProductFields {
	brand := "Panadol"
	strength := "500mg"
	form := "tablet"
	d := extract.NewDate(2026, time.August, 12)
	return &extract.ProductFields{
		BrandName:  &brand,
		Strength:   &strength,
		DosageForm: &form,
		ExpiryDate: &d,
	}
}

func TestSaveAndGetProduct(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveProduct(ctx, sampleFields())
	require.NoError(t, err)
	require.NoError(t, uuid.Validate(saved.ID))
	assert.Equal(t, saved.CreatedAt, saved.UpdatedAt)

	got, err := s.GetProduct(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	require.NotNil(t, got.Fields.BrandName)
	assert.Equal(t, "Panadol", *got.Fields.BrandName)
	require.NotNil(t, got.Fields.ExpiryDate)
	assert.Equal(t, extract.NewDate(2026, time.August, 12).Time, got.Fields.ExpiryDate.Time)
	assert.Nil(t, got.Fields.GenericName)
	assert.Nil(t, got.Fields.SelfAdministered)
}

func TestSaveProduct_AllFieldsAbsent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveProduct(ctx, &extract.ProductFields{})
	require.NoError(t, err)

	got, err := s.GetProduct(ctx, saved.ID)
	require.NoError(t, err)
	assert.True(t, got.Fields.IsEmpty())
}

func TestGetProduct_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetProduct(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProduct(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveProduct(ctx, sampleFields())
	require.NoError(t, err)

	fields := sampleFields()
	generic := "paracetamol"
	fields.GenericName = &generic

	updated, err := s.UpdateProduct(ctx, saved.ID, fields)
	require.NoError(t, err)
	require.NotNil(t, updated.Fields.GenericName)
	assert.Equal(t, "paracetamol", *updated.Fields.GenericName)
	assert.True(t, saved.CreatedAt.Equal(updated.CreatedAt))

	_, err = s.UpdateProduct(ctx, uuid.NewString(), fields)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListProducts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var ids []string
	for range 3 {
		p, err := s.SaveProduct(ctx, sampleFields())
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	all, err := s.ListProducts(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := s.ListProducts(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := s.ListProducts(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	seen := map[string]bool{}
	for _, p := range append(page, rest...) {
		seen[p.ID] = true
	}
	for _, id := range ids {
		assert.True(t, seen[id], "pagination must cover every record exactly once")
	}
}

func TestDeleteProduct(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveProduct(ctx, sampleFields())
	require.NoError(t, err)

	require.NoError(t, s.DeleteProduct(ctx, saved.ID))
	_, err = s.GetProduct(ctx, saved.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteProduct(ctx, saved.ID), ErrNotFound)
}

func TestCountProducts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	n, err := s.CountProducts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = s.SaveProduct(ctx, sampleFields())
	require.NoError(t, err)

	n, err = s.CountProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
