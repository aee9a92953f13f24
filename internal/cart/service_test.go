package cart

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	product "github.com/workoutbrothers/storefront-backend/internal/products"
	"github.com/workoutbrothers/storefront-backend/pkg/db/dbtest"
	"github.com/workoutbrothers/storefront-backend/pkg/db/models"
	pkgerrors "github.com/workoutbrothers/storefront-backend/pkg/errors"
	"github.com/workoutbrothers/storefront-backend/pkg/types"
)

type fixture struct {
	svc  Service
	conn *gorm.DB
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Client(t)
	svc, err := NewService(NewRepository(client.DB()), product.NewRepository(client.DB()), client, nil)
	require.NoError(t, err)
	return fixture{svc: svc, conn: client.DB()}
}

func (f fixture) product(t *testing.T, name, price string, stock types.Stock) models.Product {
	t.Helper()
	p := models.Product{Name: name, Description: name, Price: decimal.RequireFromString(price), Category: "strength"}
	p.SetStock(stock)
	require.NoError(t, f.conn.Create(&p).Error)
	return p
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	first, err := f.svc.GetOrCreate(context.Background(), userID)
	require.NoError(t, err)
	second, err := f.svc.GetOrCreate(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Empty(t, second.Items)
	assert.True(t, second.Total.IsZero())

	var count int64
	require.NoError(t, f.conn.Model(&models.Cart{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAddItemMergesQuantities(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	p := f.product(t, "Kettlebell", "29.99", types.Tracked(10))

	_, err := f.svc.AddItem(context.Background(), userID, p.ID, 2)
	require.NoError(t, err)
	view, err := f.svc.AddItem(context.Background(), userID, p.ID, 3)
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
	assert.Equal(t, 5, view.ItemCount)
	assert.True(t, view.Total.Equal(decimal.RequireFromString("149.95")), "total %s", view.Total)
}

// The test database serializes connections, so this only checks the merged
// total. Atomicity under real concurrency comes from the single ON CONFLICT
// DO UPDATE statement pinned by TestUpsertItemIsSingleStatement.
func TestAddItemConcurrentIncrementsAreNotLost(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	p := f.product(t, "Jump Rope", "10.00", types.Untracked())

	_, err := f.svc.GetOrCreate(context.Background(), userID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AddItem(context.Background(), userID, p.ID, 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	view, err := f.svc.GetOrCreate(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 8, view.Items[0].Quantity)
}

func TestUpsertItemIsSingleStatement(t *testing.T) {
	conn := dbtest.Open(t)
	var statements []string
	capture := func(db *gorm.DB) { statements = append(statements, db.Statement.SQL.String()) }
	require.NoError(t, conn.Callback().Create().After("gorm:create").Register("test:capture_create", capture))
	require.NoError(t, conn.Callback().Query().After("gorm:query").Register("test:capture_query", capture))
	require.NoError(t, conn.Callback().Update().After("gorm:update").Register("test:capture_update", capture))

	dry := conn.Session(&gorm.Session{DryRun: true})
	require.NoError(t, NewRepository(dry).UpsertItem(context.Background(), uuid.New(), uuid.New(), 2))

	require.Len(t, statements, 1, "merge must not read before writing")
	sql := statements[0]
	assert.True(t, strings.HasPrefix(sql, "INSERT INTO"), sql)
	assert.Contains(t, sql, "ON CONFLICT")
	assert.Contains(t, sql, "DO UPDATE SET")
	assert.Contains(t, sql, "cart_items.quantity + excluded.quantity")
}

func TestRemoveCheckedOutKeepsLaterAdditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	bell := f.product(t, "Kettlebell", "40.00", types.Untracked())
	rope := f.product(t, "Jump Rope", "10.00", types.Untracked())
	chalk := f.product(t, "Chalk", "8.00", types.Untracked())
	repo := NewRepository(f.conn)

	_, err := f.svc.AddItem(ctx, userID, bell.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, userID, rope.ID, 2)
	require.NoError(t, err)
	snapshot, err := repo.LoadByUser(ctx, userID)
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, userID, bell.ID, 4)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, userID, chalk.ID, 1)
	require.NoError(t, err)

	require.NoError(t, repo.RemoveCheckedOut(ctx, snapshot.ID, snapshot.Items))

	view, err := f.svc.GetOrCreate(ctx, userID)
	require.NoError(t, err)
	left := map[uuid.UUID]int{}
	for _, item := range view.Items {
		left[item.Product.ID] = item.Quantity
	}
	assert.Equal(t, map[uuid.UUID]int{bell.ID: 4, chalk.ID: 1}, left)
}

func TestAddItemValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	tracked := f.product(t, "Plate Carrier", "189.00", types.Tracked(2))
	untracked := f.product(t, "E-Book", "9.00", types.Untracked())

	_, err := f.svc.AddItem(ctx, userID, tracked.ID, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.AddItem(ctx, userID, uuid.New(), 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.AddItem(ctx, userID, tracked.ID, 3)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))

	view, err := f.svc.AddItem(ctx, userID, untracked.ID, 500)
	require.NoError(t, err)
	assert.Equal(t, 500, view.Items[0].Quantity)
}

func TestUpdateAndRemoveItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	p := f.product(t, "Sandbag", "50.00", types.Tracked(3))

	_, err := f.svc.UpdateItemQuantity(ctx, userID, uuid.New(), 2)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "no cart yet")

	view, err := f.svc.AddItem(ctx, userID, p.ID, 1)
	require.NoError(t, err)
	itemID := view.Items[0].ID

	// stock is only checked when adding
	view, err = f.svc.UpdateItemQuantity(ctx, userID, itemID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, view.Items[0].Quantity)
	assert.True(t, view.Total.Equal(decimal.NewFromInt(350)))

	_, err = f.svc.UpdateItemQuantity(ctx, userID, itemID, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.UpdateItemQuantity(ctx, userID, uuid.New(), 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	view, err = f.svc.RemoveItem(ctx, userID, itemID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	_, err = f.svc.RemoveItem(ctx, userID, itemID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestItemsOfAnotherCartAreInvisible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, intruder := uuid.New(), uuid.New()
	p := f.product(t, "Gloves", "20.00", types.Tracked(5))

	view, err := f.svc.AddItem(ctx, owner, p.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.GetOrCreate(ctx, intruder)
	require.NoError(t, err)

	_, err = f.svc.RemoveItem(ctx, intruder, view.Items[0].ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestTotalFollowsLivePrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	p := f.product(t, "Foam Roller", "25.00", types.Tracked(10))

	_, err := f.svc.AddItem(ctx, userID, p.ID, 2)
	require.NoError(t, err)

	require.NoError(t, f.conn.Model(&models.Product{}).Where("id = ?", p.ID).
		Update("price", decimal.RequireFromString("30.00")).Error)

	view, err := f.svc.GetOrCreate(ctx, userID)
	require.NoError(t, err)
	assert.True(t, view.Total.Equal(decimal.NewFromInt(60)))
}

func TestClearKeepsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	p := f.product(t, "Belt", "45.00", types.Tracked(10))

	before, err := f.svc.AddItem(ctx, userID, p.ID, 1)
	require.NoError(t, err)
	after, err := f.svc.Clear(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, before.ID, after.ID)
	assert.Empty(t, after.Items)
	assert.True(t, after.Total.IsZero())
}
