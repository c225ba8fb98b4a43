package catalog_test

import (
	"context"
	"testing"

	"github.com/Rmontilla83/saldobirras-pro/internal/application/apptest"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/catalog"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestService_Products(t *testing.T) {
	ctx := context.Background()
	e := apptest.New(t)
	tenantID := uuid.New()
	userID := uuid.New()

	ipa, err := e.Catalog.CreateProduct(ctx, tenantID, &userID, catalog.ProductInput{
		Name:      ptr("IPA"),
		Price:     ptr(decimal.RequireFromString("4.50")),
		SortOrder: ptr(2),
	})
	require.NoError(t, err)
	assert.Equal(t, catalog.DefaultCategory, ipa.Category)
	assert.True(t, ipa.IsAvailable)

	_, err = e.Catalog.CreateProduct(ctx, tenantID, &userID, catalog.ProductInput{
		Name:        ptr("Nachos"),
		Category:    ptr("food"),
		Price:       ptr(decimal.RequireFromString("7")),
		IsAvailable: ptr(false),
		SortOrder:   ptr(1),
	})
	require.NoError(t, err)

	_, err = e.Catalog.CreateProduct(ctx, tenantID, nil, catalog.ProductInput{Name: ptr("No price")})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = e.Catalog.CreateProduct(ctx, tenantID, nil, catalog.ProductInput{Name: ptr("Bad"), Price: ptr(decimal.NewFromInt(-1))})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	all, err := e.Catalog.ListProducts(ctx, tenantID, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Nachos", all[0].Name, "ordered by sort order")

	available, err := e.Catalog.ListProducts(ctx, tenantID, true)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, ipa.ID, available[0].ID)

	updated, err := e.Catalog.UpdateProduct(ctx, tenantID, ipa.ID, &userID, catalog.ProductInput{Price: ptr(decimal.RequireFromString("5"))})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5).Equal(updated.Price))
	assert.Equal(t, "IPA", updated.Name)

	_, err = e.Catalog.UpdateProduct(ctx, uuid.New(), ipa.ID, nil, catalog.ProductInput{Price: ptr(decimal.NewFromInt(1))})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestService_Zones(t *testing.T) {
	ctx := context.Background()
	e := apptest.New(t)
	tenantID := uuid.New()

	bar, err := e.Catalog.CreateZone(ctx, tenantID, nil, catalog.ZoneInput{Name: ptr("Barra")})
	require.NoError(t, err)
	assert.True(t, bar.IsActive)

	_, err = e.Catalog.CreateZone(ctx, tenantID, nil, catalog.ZoneInput{})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = e.Catalog.UpdateZone(ctx, tenantID, bar.ID, nil, catalog.ZoneInput{IsActive: ptr(false), Color: ptr("#00AAFF")})
	require.NoError(t, err)

	active, err := e.Catalog.ListZones(ctx, tenantID, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := e.Catalog.ListZones(ctx, tenantID, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "#00AAFF", all[0].Color)
	assert.False(t, all[0].IsActive)
}
