package cart

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

	"github.com/akseline/store-backend-go/internal/catalog"
)

type fakeRepository struct {
	// held from the locked read until the save, like the cart row lock
	mu sync.Mutex

	carts   map[string]*Cart
	saveErr error
	saveCnt int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{carts: make(map[string]*Cart)}
}

func copyCart(c *Cart) *Cart {
	cp := *c
	cp.Lines = append([]Line(nil), c.Lines...)
	return &cp
}

func (f *fakeRepository) GetCart(ctx context.Context, userID string) (*Cart, error) {
	c, ok := f.carts[userID]
	if !ok {
		return nil, nil
	}
	return copyCart(c), nil
}

func (f *fakeRepository) GetOrCreateCartForUpdate(ctx context.Context, tx *sql.Tx, userID string) (*Cart, error) {
	f.mu.Lock()
	c, ok := f.carts[userID]
	if !ok {
		c = &Cart{ID: "cart-" + userID, UserID: userID}
		f.carts[userID] = c
	}
	return copyCart(c), nil
}

func (f *fakeRepository) SaveCartTx(ctx context.Context, tx *sql.Tx, c *Cart) error {
	defer f.mu.Unlock()
	f.saveCnt++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.carts[c.UserID] = copyCart(c)
	return nil
}

func (f *fakeRepository) ClearCart(ctx context.Context, userID string) error {
	if c, ok := f.carts[userID]; ok {
		c.Lines = nil
		c.Total = decimal.Zero
	}
	return nil
}

func (f *fakeRepository) GetCartForUpdate(ctx context.Context, tx *sql.Tx, userID string) (*Cart, error) {
	return f.GetCart(ctx, userID)
}

func (f *fakeRepository) ClearCartTx(ctx context.Context, tx *sql.Tx, cartID string) error {
	for _, c := range f.carts {
		if c.ID == cartID {
			c.Lines = nil
			c.Total = decimal.Zero
		}
	}
	return nil
}

type fakeCatalog struct {
	prices map[string]string
}

func (f *fakeCatalog) Lookup(ctx context.Context, productID string) (catalog.PriceInfo, error) {
	p, ok := f.prices[productID]
	if !ok {
		return catalog.PriceInfo{}, catalog.ErrProductNotFound
	}
	return catalog.PriceInfo{UnitPrice: decimal.RequireFromString(p), Available: true}, nil
}

// newTxDB hands out transactions without caring how many the test uses or in
// which order goroutines grab them.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 32; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}
	return db
}

func newTestService(t *testing.T, prices map[string]string) (*Service, *fakeRepository) {
	repo := newFakeRepository()
	svc := NewService(newTxDB(t), repo, &fakeCatalog{prices: prices}, nil, log.New(io.Discard, "", 0))
	return svc, repo
}

func TestServiceAddItem(t *testing.T) {
	tests := map[string]struct {
		prices    map[string]string
		setup     []func(ctx context.Context, s *Service) error
		productID string
		quantity  int
		wantErr   error
		wantLines int
		wantQty   int
		wantTotal string
	}{
		"new line": {
			prices:    map[string]string{"p1": "10.00"},
			productID: "p1",
			quantity:  2,
			wantLines: 1,
			wantQty:   2,
			wantTotal: "20.00",
		},
		"existing product increments quantity": {
			prices: map[string]string{"p1": "10.00"},
			setup: []func(ctx context.Context, s *Service) error{
				func(ctx context.Context, s *Service) error {
					_, err := s.AddItem(ctx, "user-1", "p1", 2)
					return err
				},
			},
			productID: "p1",
			quantity:  1,
			wantLines: 1,
			wantQty:   3,
			wantTotal: "30.00",
		},
		"zero quantity rejected": {
			prices:    map[string]string{"p1": "10.00"},
			productID: "p1",
			quantity:  0,
			wantErr:   ErrInvalidQuantity,
		},
		"negative quantity rejected": {
			prices:    map[string]string{"p1": "10.00"},
			productID: "p1",
			quantity:  -3,
			wantErr:   ErrInvalidQuantity,
		},
		"unknown product": {
			prices:    map[string]string{"p1": "10.00"},
			productID: "missing",
			quantity:  1,
			wantErr:   catalog.ErrProductNotFound,
		},
		"exact decimal arithmetic": {
			prices: map[string]string{"p1": "0.10"},
			setup: []func(ctx context.Context, s *Service) error{
				func(ctx context.Context, s *Service) error {
					_, err := s.AddItem(ctx, "user-1", "p1", 1)
					return err
				},
			},
			productID: "p1",
			quantity:  2,
			wantLines: 1,
			wantQty:   3,
			wantTotal: "0.30",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			svc, _ := newTestService(t, tt.prices)
			ctx := context.Background()

			for _, step := range tt.setup {
				if err := step(ctx, svc); err != nil {
					t.Fatalf("setup: %v", err)
				}
			}

			c, err := svc.AddItem(ctx, "user-1", tt.productID, tt.quantity)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got error %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(c.Lines) != tt.wantLines {
				t.Fatalf("got %d lines, want %d", len(c.Lines), tt.wantLines)
			}
			if c.Lines[0].Quantity != tt.wantQty {
				t.Fatalf("got quantity %d, want %d", c.Lines[0].Quantity, tt.wantQty)
			}
			want := decimal.RequireFromString(tt.wantTotal)
			if !c.Total.Equal(want) {
				t.Fatalf("got total %s, want %s", c.Total, want)
			}
		})
	}
}

func TestServiceAddItemFailedLookupLeavesCartUntouched(t *testing.T) {
	svc, repo := newTestService(t, map[string]string{"p1": "5.00"})
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "user-1", "p1", 1); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	writes := repo.saveCnt

	if _, err := svc.AddItem(ctx, "user-1", "missing", 1); !errors.Is(err, catalog.ErrProductNotFound) {
		t.Fatalf("got error %v, want ErrProductNotFound", err)
	}
	if repo.saveCnt != writes {
		t.Fatalf("cart was written on failed lookup")
	}
}

func TestServiceAddItemSaveFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := newFakeRepository()
	repo.saveErr = errors.New("disk full")
	svc := NewService(db, repo, &fakeCatalog{prices: map[string]string{"p1": "5.00"}}, nil, log.New(io.Discard, "", 0))

	mock.ExpectBegin()
	mock.ExpectRollback()

	if _, err := svc.AddItem(context.Background(), "user-1", "p1", 1); err == nil {
		t.Fatal("want error from failed save")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("tx not rolled back: %v", err)
	}
}

// Two writers for the same owner must serialize on the cart row: neither
// mutation may overwrite the other's lines.
func TestServiceConcurrentAddsKeepBothLines(t *testing.T) {
	svc, _ := newTestService(t, map[string]string{"p1": "5.00", "p2": "5.00"})
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, pid := range []string{"p1", "p2"} {
		wg.Add(1)
		go func(pid string) {
			defer wg.Done()
			_, err := svc.AddItem(ctx, "user-1", pid, 1)
			errs <- err
		}(pid)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent add: %v", err)
		}
	}

	c, err := svc.GetCart(ctx, "user-1")
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(c.Lines) != 2 {
		t.Fatalf("got %d line(s) after two concurrent adds, want 2 (lost update): %+v", len(c.Lines), c.Lines)
	}
	if want := decimal.RequireFromString("10.00"); !c.Total.Equal(want) {
		t.Fatalf("got total %s, want %s", c.Total, want)
	}
}

func TestServiceConcurrentAddsSameProductAccumulate(t *testing.T) {
	svc, _ := newTestService(t, map[string]string{"p1": "10.00"})
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(ctx, "user-1", "p1", 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent add: %v", err)
		}
	}

	c, err := svc.GetCart(ctx, "user-1")
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(c.Lines) != 1 || c.Lines[0].Quantity != 2 {
		t.Fatalf("got lines %+v, want one line with quantity 2", c.Lines)
	}
	if want := decimal.RequireFromString("20.00"); !c.Total.Equal(want) {
		t.Fatalf("got total %s, want %s", c.Total, want)
	}
}

func TestServiceRemoveItem(t *testing.T) {
	svc, _ := newTestService(t, map[string]string{"p1": "10.00", "p2": "4.50"})
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "user-1", "p1", 2); err != nil {
		t.Fatalf("add p1: %v", err)
	}
	if _, err := svc.AddItem(ctx, "user-1", "p2", 1); err != nil {
		t.Fatalf("add p2: %v", err)
	}

	c, err := svc.RemoveItem(ctx, "user-1", "p1")
	if err != nil {
		t.Fatalf("remove p1: %v", err)
	}
	if len(c.Lines) != 1 || c.Lines[0].ProductID != "p2" {
		t.Fatalf("unexpected lines after remove: %+v", c.Lines)
	}
	if want := decimal.RequireFromString("4.50"); !c.Total.Equal(want) {
		t.Fatalf("got total %s, want %s", c.Total, want)
	}

	// Removing an absent product is a no-op, not an error.
	c, err = svc.RemoveItem(ctx, "user-1", "nope")
	if err != nil {
		t.Fatalf("remove absent: %v", err)
	}
	if len(c.Lines) != 1 {
		t.Fatalf("remove of absent product changed lines: %+v", c.Lines)
	}
}

func TestServiceTotalTracksLines(t *testing.T) {
	svc, _ := newTestService(t, map[string]string{"a": "1.25", "b": "2.00", "c": "0.99"})
	ctx := context.Background()

	ops := []struct {
		add       bool
		productID string
		qty       int
	}{
		{true, "a", 3},
		{true, "b", 1},
		{true, "c", 5},
		{false, "b", 0},
		{true, "a", 1},
		{false, "c", 0},
	}

	var c *Cart
	var err error
	for _, op := range ops {
		if op.add {
			c, err = svc.AddItem(ctx, "user-1", op.productID, op.qty)
		} else {
			c, err = svc.RemoveItem(ctx, "user-1", op.productID)
		}
		if err != nil {
			t.Fatalf("op on %s: %v", op.productID, err)
		}

		want := decimal.Zero
		for _, ln := range c.Lines {
			want = want.Add(ln.UnitPrice.Mul(decimal.NewFromInt(int64(ln.Quantity))))
		}
		if !c.Total.Equal(want) {
			t.Fatalf("total %s does not match lines sum %s", c.Total, want)
		}
	}

	// Final state: a x4, c removed, b removed.
	if len(c.Lines) != 1 || c.Lines[0].ProductID != "a" || c.Lines[0].Quantity != 4 {
		t.Fatalf("unexpected final cart: %+v", c.Lines)
	}
	if want := decimal.RequireFromString("5.00"); !c.Total.Equal(want) {
		t.Fatalf("got total %s, want %s", c.Total, want)
	}
}

func TestServiceGetCartCreatesLazily(t *testing.T) {
	svc, _ := newTestService(t, nil)

	c, err := svc.GetCart(context.Background(), "fresh-user")
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if c.UserID != "fresh-user" || len(c.Lines) != 0 {
		t.Fatalf("unexpected fresh cart: %+v", c)
	}
	if !c.Total.Equal(decimal.Zero) {
		t.Fatalf("fresh cart total %s, want 0", c.Total)
	}
}
