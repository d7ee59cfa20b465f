package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/config"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/db/models"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/enums"
	pkgerrors "github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/errors"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/pagination"
)

func buildService(t *testing.T, dbConn *testDeps, maxRetries int) Service {
	t.Helper()
	svc, err := NewService(dbConn.repo, dbConn.tx, nil, config.InventoryConfig{
		AdjustMaxRetries: maxRetries,
		AdjustRetryDelay: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestAdjustIncreaseDecreaseSet(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	deps := &testDeps{repo: NewRepository(db), tx: gormTxRunner{db: db}}
	svc := buildService(t, deps, 3)
	ctx := context.Background()
	product := mustCreateTestProduct(t, db, 10, 3, true)
	actor := uuid.New()

	res, err := svc.Adjust(ctx, AdjustStockInput{
		ProductID: product.ID,
		Type:      enums.AdjustmentTypeIncrease,
		Quantity:  5,
		Reason:    "restock",
		ActorID:   actor,
	})
	if err != nil {
		t.Fatalf("increase failed: %v", err)
	}
	if res.NewQuantity != 15 {
		t.Fatalf("expected 15 after increase, got %d", res.NewQuantity)
	}
	if res.Adjustment.ResultingQuantity != 15 {
		t.Fatalf("ledger snapshot mismatch: %d", res.Adjustment.ResultingQuantity)
	}

	res, err = svc.Adjust(ctx, AdjustStockInput{
		ProductID: product.ID,
		Type:      enums.AdjustmentTypeDecrease,
		Quantity:  4,
		Reason:    "order",
		ActorID:   actor,
	})
	if err != nil {
		t.Fatalf("decrease failed: %v", err)
	}
	if res.NewQuantity != 11 {
		t.Fatalf("expected 11 after decrease, got %d", res.NewQuantity)
	}

	res, err = svc.Adjust(ctx, AdjustStockInput{
		ProductID: product.ID,
		Type:      enums.AdjustmentTypeSet,
		Quantity:  0,
		Reason:    "stocktake",
		ActorID:   actor,
	})
	if err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if res.NewQuantity != 0 {
		t.Fatalf("expected 0 after set, got %d", res.NewQuantity)
	}

	var count int64
	if err := db.Model(&models.StockAdjustment{}).Where("product_id = ?", product.ID).Count(&count).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 ledger entries, got %d", count)
	}
}

func TestAdjustInsufficientStockLeavesQuantityUnchanged(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	deps := &testDeps{repo: NewRepository(db), tx: gormTxRunner{db: db}}
	svc := buildService(t, deps, 3)
	ctx := context.Background()
	product := mustCreateTestProduct(t, db, 2, 3, true)

	_, err := svc.Adjust(ctx, AdjustStockInput{
		ProductID: product.ID,
		Type:      enums.AdjustmentTypeDecrease,
		Quantity:  3,
		Reason:    "order",
		ActorID:   uuid.New(),
	})
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict code, got %v", err)
	}

	var stored models.Product
	if err := db.First(&stored, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if stored.StockQuantity != 2 {
		t.Fatalf("expected quantity untouched at 2, got %d", stored.StockQuantity)
	}

	var count int64
	if err := db.Model(&models.StockAdjustment{}).Where("product_id = ?", product.ID).Count(&count).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no ledger entry on failure, got %d", count)
	}
}

func TestAdjustUntrackedProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	deps := &testDeps{repo: NewRepository(db), tx: gormTxRunner{db: db}}
	svc := buildService(t, deps, 3)
	product := mustCreateTestProduct(t, db, 5, 3, false)

	_, err := svc.Adjust(context.Background(), AdjustStockInput{
		ProductID: product.ID,
		Type:      enums.AdjustmentTypeIncrease,
		Quantity:  1,
		Reason:    "restock",
		ActorID:   uuid.New(),
	})
	if err == nil {
		t.Fatal("expected untracked product error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict code, got %v", err)
	}
}

func TestAdjustUnknownProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	deps := &testDeps{repo: NewRepository(db), tx: gormTxRunner{db: db}}
	svc := buildService(t, deps, 3)

	_, err := svc.Adjust(context.Background(), AdjustStockInput{
		ProductID: uuid.New(),
		Type:      enums.AdjustmentTypeIncrease,
		Quantity:  1,
		Reason:    "restock",
		ActorID:   uuid.New(),
	})
	if err == nil {
		t.Fatal("expected not found error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found code, got %v", err)
	}
}

func TestAdjustValidation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	deps := &testDeps{repo: NewRepository(db), tx: gormTxRunner{db: db}}
	svc := buildService(t, deps, 3)
	ctx := context.Background()

	cases := []struct {
		name  string
		input AdjustStockInput
	}{
		{"missingProduct", AdjustStockInput{Type: enums.AdjustmentTypeIncrease, Quantity: 1, Reason: "x", ActorID: uuid.New()}},
		{"badType", AdjustStockInput{ProductID: uuid.New(), Type: "double", Quantity: 1, Reason: "x", ActorID: uuid.New()}},
		{"negativeQuantity", AdjustStockInput{ProductID: uuid.New(), Type: enums.AdjustmentTypeIncrease, Quantity: -1, Reason: "x", ActorID: uuid.New()}},
		{"blankReason", AdjustStockInput{ProductID: uuid.New(), Type: enums.AdjustmentTypeIncrease, Quantity: 1, Reason: "  ", ActorID: uuid.New()}},
		{"missingActor", AdjustStockInput{ProductID: uuid.New(), Type: enums.AdjustmentTypeIncrease, Quantity: 1, Reason: "x"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Adjust(ctx, tc.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation code, got %v", err)
			}
		})
	}
}

func TestAdjustConcurrentDecreasesNeverGoNegative(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	deps := &testDeps{repo: NewRepository(db), tx: gormTxRunner{db: db}}
	svc := buildService(t, deps, 50)
	ctx := context.Background()
	product := mustCreateTestProduct(t, db, 6, 2, true)

	const workers = 10
	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, err := svc.Adjust(ctx, AdjustStockInput{
				ProductID: product.ID,
				Type:      enums.AdjustmentTypeDecrease,
				Quantity:  1,
				Reason:    "order",
				ActorID:   uuid.New(),
			})
			results[idx] = err
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		typed := pkgerrors.As(err)
		if typed == nil {
			t.Fatalf("unexpected untyped error: %v", err)
		}
		switch typed.Code() {
		case pkgerrors.CodeConflict, pkgerrors.CodeTransientConflict:
			// insufficient stock, or retry budget exhausted under contention
		default:
			t.Fatalf("unexpected error code %s", typed.Code())
		}
	}
	if succeeded > 6 {
		t.Fatalf("more successes than available stock: %d", succeeded)
	}

	var stored models.Product
	if err := db.First(&stored, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if stored.StockQuantity < 0 {
		t.Fatalf("stock went negative: %d", stored.StockQuantity)
	}
	if stored.StockQuantity != 6-succeeded {
		t.Fatalf("final quantity %d does not match %d successful decrements", stored.StockQuantity, succeeded)
	}

	var count int64
	if err := db.Model(&models.StockAdjustment{}).Where("product_id = ?", product.ID).Count(&count).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if int(count) != succeeded {
		t.Fatalf("ledger entries (%d) should match successful adjustments (%d)", count, succeeded)
	}
}

func TestQueryDerivesStatuses(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	deps := &testDeps{repo: NewRepository(db), tx: gormTxRunner{db: db}}
	svc := buildService(t, deps, 3)
	ctx := context.Background()

	mustCreateTestProduct(t, db, 10, 3, true)
	mustCreateTestProduct(t, db, 2, 3, true)
	mustCreateTestProduct(t, db, 0, 3, true)
	mustCreateTestProduct(t, db, 9, 3, false)

	all, err := svc.Query(ctx, enums.StockFilterAll)
	if err != nil {
		t.Fatalf("query all: %v", err)
	}
	statuses := map[enums.StockStatus]int{}
	for _, p := range all {
		statuses[p.Status]++
	}
	if statuses[enums.StockStatusInStock] != 1 ||
		statuses[enums.StockStatusLowStock] != 1 ||
		statuses[enums.StockStatusOutOfStock] != 1 ||
		statuses[enums.StockStatusUntracked] != 1 {
		t.Fatalf("unexpected status distribution: %v", statuses)
	}

	if _, err := svc.Query(ctx, "bogus"); err == nil {
		t.Fatal("expected invalid filter error")
	}
}

func TestQueryCapsFilteredViews(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	deps := &testDeps{repo: NewRepository(db), tx: gormTxRunner{db: db}}
	svc, err := NewService(deps.repo, deps.tx, nil, config.InventoryConfig{
		AdjustMaxRetries:  3,
		AdjustRetryDelay:  time.Millisecond,
		LowStockPageLimit: 2,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		mustCreateTestProduct(t, db, 1, 3, true)
	}

	low, err := svc.Query(ctx, enums.StockFilterLowStock)
	if err != nil {
		t.Fatalf("query low stock: %v", err)
	}
	if len(low) != 2 {
		t.Fatalf("expected low stock view capped at 2, got %d", len(low))
	}

	all, err := svc.Query(ctx, enums.StockFilterAll)
	if err != nil {
		t.Fatalf("query all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected the full listing uncapped, got %d", len(all))
	}
}

func TestLowStockEndToEnd(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	deps := &testDeps{repo: NewRepository(db), tx: gormTxRunner{db: db}}
	svc := buildService(t, deps, 3)
	ctx := context.Background()
	product := mustCreateTestProduct(t, db, 10, 3, true)
	actor := uuid.New()

	res, err := svc.Adjust(ctx, AdjustStockInput{
		ProductID: product.ID,
		Type:      enums.AdjustmentTypeDecrease,
		Quantity:  8,
		Reason:    "order",
		ActorID:   actor,
	})
	if err != nil {
		t.Fatalf("decrease failed: %v", err)
	}
	if res.NewQuantity != 2 {
		t.Fatalf("expected quantity 2, got %d", res.NewQuantity)
	}

	low, err := svc.Query(ctx, enums.StockFilterLowStock)
	if err != nil {
		t.Fatalf("query low stock: %v", err)
	}
	if len(low) != 1 || low[0].Product.ID != product.ID || low[0].Status != enums.StockStatusLowStock {
		t.Fatalf("expected product to report low stock, got %+v", low)
	}

	_, err = svc.Adjust(ctx, AdjustStockInput{
		ProductID: product.ID,
		Type:      enums.AdjustmentTypeDecrease,
		Quantity:  3,
		Reason:    "order",
		ActorID:   actor,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	var stored models.Product
	if err := db.First(&stored, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if stored.StockQuantity != 2 {
		t.Fatalf("expected quantity to stay 2, got %d", stored.StockQuantity)
	}
}

func TestListAdjustmentsUnknownProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	deps := &testDeps{repo: NewRepository(db), tx: gormTxRunner{db: db}}
	svc := buildService(t, deps, 3)

	_, err := svc.ListAdjustments(context.Background(), uuid.New(), pagination.Params{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

type testDeps struct {
	repo Repository
	tx   gormTxRunner
}
