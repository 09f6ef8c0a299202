package cart

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

var ErrInsufficientStock = errors.New("requested quantity exceeds available stock")

// ProductInfo is the slice of a product the cart needs at add time.
type ProductInfo struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	Stock     int
}

// Line is one selected product. Name, UnitPrice and Stock are denormalized
// snapshots taken when the product was added; Stock is the quantity ceiling
// re-validated again at checkout.
type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Stock     int             `json:"stock"`
}

// Cart holds one session's selection. Totals are always derived from the
// current lines, never stored.
type Cart struct {
	mu    sync.Mutex
	lines []Line
}

func New() *Cart {
	return &Cart{}
}

// AddItem inserts a new line with quantity 1. Products already in the cart
// and products with no stock are ignored.
func (c *Cart) AddItem(p ProductInfo) {
	if p.Stock <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.find(p.ID) >= 0 {
		return
	}
	c.lines = append(c.lines, Line{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		Quantity:  1,
		Stock:     p.Stock,
	})
}

// UpdateQuantity sets the line's quantity. A quantity of zero or less
// removes the line. Quantities above the line's stock ceiling are rejected
// and the line is left unchanged.
func (c *Cart) UpdateQuantity(productID string, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.find(productID)
	if i < 0 {
		return nil
	}
	if quantity <= 0 {
		c.remove(i)
		return nil
	}
	if quantity > c.lines[i].Stock {
		return ErrInsufficientStock
	}
	c.lines[i].Quantity = quantity
	return nil
}

func (c *Cart) RemoveItem(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.find(productID); i >= 0 {
		c.remove(i)
	}
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

func (c *Cart) ItemQuantity(productID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.find(productID); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, l := range c.lines {
		total += l.Quantity
	}
	return total
}

func (c *Cart) TotalAmount() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

func (c *Cart) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

// Lines returns a copy of the current lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) find(productID string) int {
	for i, l := range c.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) remove(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}
