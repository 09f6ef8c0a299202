package cart

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

func testProduct(id string, price int64, stock int) ProductInfo {
	return ProductInfo{
		ID:        id,
		Name:      "product " + id,
		UnitPrice: decimal.NewFromInt(price),
		Stock:     stock,
	}
}

func TestCartAddItem(t *testing.T) {
	t.Run("adds with quantity 1", func(t *testing.T) {
		c := New()
		c.AddItem(testProduct("p1", 100, 5))

		if got := c.ItemQuantity("p1"); got != 1 {
			t.Fatalf("expected quantity 1, got %d", got)
		}
	})

	t.Run("adding an existing product is a no-op", func(t *testing.T) {
		c := New()
		c.AddItem(testProduct("p1", 100, 5))
		if err := c.UpdateQuantity("p1", 3); err != nil {
			t.Fatal(err)
		}
		c.AddItem(testProduct("p1", 100, 5))

		if got := c.ItemQuantity("p1"); got != 3 {
			t.Fatalf("expected quantity 3 preserved, got %d", got)
		}
	})

	t.Run("out of stock product is ignored", func(t *testing.T) {
		c := New()
		c.AddItem(testProduct("p1", 100, 0))

		if !c.Empty() {
			t.Fatal("expected cart to stay empty")
		}
	})
}

func TestCartUpdateQuantity(t *testing.T) {
	t.Run("beyond stock ceiling rejected, line unchanged", func(t *testing.T) {
		c := New()
		c.AddItem(testProduct("p1", 100, 2))

		err := c.UpdateQuantity("p1", 3)
		if !errors.Is(err, ErrInsufficientStock) {
			t.Fatalf("expected ErrInsufficientStock, got %v", err)
		}
		if got := c.ItemQuantity("p1"); got != 1 {
			t.Fatalf("expected quantity left at 1, got %d", got)
		}
	})

	t.Run("quantity zero removes the line", func(t *testing.T) {
		c := New()
		c.AddItem(testProduct("p1", 100, 5))

		if err := c.UpdateQuantity("p1", 0); err != nil {
			t.Fatal(err)
		}
		if !c.Empty() {
			t.Fatal("expected line removed")
		}
	})

	t.Run("unknown product is a no-op", func(t *testing.T) {
		c := New()
		if err := c.UpdateQuantity("ghost", 4); err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
	})
}

func TestCartTotals(t *testing.T) {
	c := New()
	c.AddItem(testProduct("p1", 100, 5))
	c.AddItem(testProduct("p2", 50, 5))
	if err := c.UpdateQuantity("p1", 3); err != nil {
		t.Fatal(err)
	}
	if err := c.UpdateQuantity("p2", 2); err != nil {
		t.Fatal(err)
	}

	if got := c.TotalItems(); got != 5 {
		t.Fatalf("expected 5 total items, got %d", got)
	}
	want := decimal.NewFromInt(400)
	if got := c.TotalAmount(); !got.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, got)
	}

	c.RemoveItem("p1")
	want = decimal.NewFromInt(100)
	if got := c.TotalAmount(); !got.Equal(want) {
		t.Fatalf("expected total %s after removal, got %s", want, got)
	}
}

func TestCartClear(t *testing.T) {
	c := New()
	c.AddItem(testProduct("p1", 100, 5))
	c.Clear()

	if !c.Empty() {
		t.Fatal("expected empty cart")
	}
	if got := c.TotalAmount(); !got.IsZero() {
		t.Fatalf("expected zero total, got %s", got)
	}
}

func TestCartLinesReturnsCopy(t *testing.T) {
	c := New()
	c.AddItem(testProduct("p1", 100, 5))

	lines := c.Lines()
	lines[0].Quantity = 99

	if got := c.ItemQuantity("p1"); got != 1 {
		t.Fatalf("mutating the returned slice leaked into the cart: %d", got)
	}
}

func TestCartConcurrentAccess(t *testing.T) {
	c := New()
	c.AddItem(testProduct("p1", 100, 1000))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(q int) {
			defer wg.Done()
			_ = c.UpdateQuantity("p1", q+1)
		}(i)
		go func() {
			defer wg.Done()
			_ = c.TotalAmount()
		}()
	}
	wg.Wait()

	q := c.ItemQuantity("p1")
	if q < 1 || q > 50 {
		t.Fatalf("quantity out of range after concurrent updates: %d", q)
	}
}
