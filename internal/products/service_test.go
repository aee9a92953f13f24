package product

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workoutbrothers/storefront-backend/pkg/auth"
	"github.com/workoutbrothers/storefront-backend/pkg/db/dbtest"
	"github.com/workoutbrothers/storefront-backend/pkg/db/models"
	"github.com/workoutbrothers/storefront-backend/pkg/enums"
	pkgerrors "github.com/workoutbrothers/storefront-backend/pkg/errors"
	"github.com/workoutbrothers/storefront-backend/pkg/pagination"
	"github.com/workoutbrothers/storefront-backend/pkg/types"
)

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	client := dbtest.Client(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(repo, client)
	require.NoError(t, err)
	return svc, repo
}

func mustCreate(t *testing.T, svc Service, name, category, price string, stock types.Stock) *ProductDTO {
	t.Helper()
	dto, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:        name,
		Description: name + " for serious training",
		Price:       decimal.RequireFromString(price),
		Category:    category,
		Stock:       stock,
	})
	require.NoError(t, err)
	return dto
}

func TestCreateAndGetProduct(t *testing.T) {
	svc, _ := newTestService(t)

	created := mustCreate(t, svc, "Kettlebell 16kg", "strength", "49.99", types.Tracked(12))
	got, err := svc.GetProduct(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, "Kettlebell 16kg", got.Name)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("49.99")))
	qty, tracked := got.Stock.Quantity()
	assert.True(t, tracked)
	assert.Equal(t, 12, qty)

	_, err = svc.GetProduct(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCreateProductValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, CreateProductInput{Name: " ", Category: "strength"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.CreateProduct(ctx, CreateProductInput{Name: "Rope", Category: "cardio", Price: decimal.NewFromInt(-1)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListProductsFiltersSortsAndPages(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, "Plate Carrier", "tactical", "189.00", types.Tracked(4))
	mustCreate(t, svc, "Jump Rope", "cardio", "15.00", types.Untracked())
	mustCreate(t, svc, "Tactical Gloves", "tactical", "35.50", types.Tracked(40))

	res, err := svc.ListProducts(ctx, ListProductsInput{Category: "tactical", SortBy: string(enums.ProductSortPriceLow)})
	require.NoError(t, err)
	require.Len(t, res.Products, 2)
	assert.Equal(t, "Tactical Gloves", res.Products[0].Name)
	assert.Equal(t, "Plate Carrier", res.Products[1].Name)
	assert.Equal(t, int64(2), res.Pagination.Total)
	assert.Equal(t, pagination.DefaultLimit, res.Pagination.Limit)

	res, err = svc.ListProducts(ctx, ListProductsInput{Search: "ROPE"})
	require.NoError(t, err)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "Jump Rope", res.Products[0].Name)

	res, err = svc.ListProducts(ctx, ListProductsInput{SortBy: "price_high", Pagination: pagination.Params{Page: 2, Limit: 2}})
	require.NoError(t, err)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "Jump Rope", res.Products[0].Name)
	assert.Equal(t, 2, res.Pagination.Pages)
	assert.Equal(t, 2, res.Pagination.CurrentPage)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created := mustCreate(t, svc, "Sandbag", "strength", "59.00", types.Tracked(3))

	price := decimal.RequireFromString("64.5")
	updated, err := svc.UpdateProduct(ctx, created.ID, UpdateProductInput{Price: &price, ClearStock: true})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("64.50")))
	assert.False(t, updated.Stock.IsTracked())

	blank := ""
	_, err = svc.UpdateProduct(ctx, created.ID, UpdateProductInput{Name: &blank})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	require.NoError(t, svc.DeleteProduct(ctx, created.ID))
	err = svc.DeleteProduct(ctx, created.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestAddReviewRecomputesRating(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	created := mustCreate(t, svc, "Foam Roller", "recovery", "25.00", types.Tracked(20))

	author := auth.Identity{UserID: uuid.New(), Username: "ironmike", Role: enums.UserRoleCustomer}
	_, err := svc.AddReview(ctx, author, created.ID, ReviewInput{Rating: 5, Comment: "great"})
	require.NoError(t, err)
	_, err = svc.AddReview(ctx, author, created.ID, ReviewInput{Rating: 4})
	require.NoError(t, err)
	got, err := svc.AddReview(ctx, author, created.ID, ReviewInput{Rating: 4})
	require.NoError(t, err)

	assert.Equal(t, 3, got.ReviewCount)
	assert.True(t, got.Rating.Equal(decimal.RequireFromString("4.33")), "rating %s", got.Rating)
	require.Len(t, got.Reviews, 3)
	assert.Equal(t, "great", got.Reviews[0].Comment)

	var stored models.Product
	require.NoError(t, repo.db.First(&stored, "id = ?", created.ID).Error)
	assert.Equal(t, 3, stored.ReviewCount)

	_, err = svc.AddReview(ctx, author, created.ID, ReviewInput{Rating: 6})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.AddReview(ctx, author, uuid.New(), ReviewInput{Rating: 3})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCategoriesAndLowStock(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	cats, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)

	mustCreate(t, svc, "Plate Carrier", "tactical", "189.00", types.Tracked(4))
	mustCreate(t, svc, "Jump Rope", "cardio", "15.00", types.Untracked())
	mustCreate(t, svc, "Chalk", "strength", "5.00", types.Tracked(0))
	mustCreate(t, svc, "Belt", "strength", "45.00", types.Tracked(9))
	mustCreate(t, svc, "Straps", "strength", "12.00", types.Tracked(10))

	cats, err = svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cardio", "strength", "tactical"}, cats)

	low, err := repo.ListLowStock(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "Plate Carrier", low[0].Name)
	assert.Equal(t, "Belt", low[1].Name)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}
