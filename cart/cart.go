// cart/cart.go

package cart

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CartLine is one product in the cart. Product metadata is copied from the
// catalog when the line is first added and is not refreshed afterwards.
type CartLine struct {
	ID     int             `json:"id"`
	Title  string          `json:"title"`
	Price  decimal.Decimal `json:"price"`
	Image  string          `json:"image"`
	Amount int             `json:"amount"`
}

// Subtotal is Price × Amount.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Amount)))
}

// Product is catalog metadata for a product.
type Product struct {
	ID    int             `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}

// StockRecord is the available quantity the stock service reports for a product.
type StockRecord struct {
	ID     int `json:"id"`
	Amount int `json:"amount"`
}

// Cart is an immutable snapshot of the cart: lines unique by product ID, in
// the order products were first added. The zero value is the empty cart.
type Cart struct {
	lines []CartLine
}

// NewCart builds a snapshot from lines, rejecting non-positive IDs or
// amounts and duplicate product IDs.
func NewCart(lines ...CartLine) (Cart, error) {
	seen := make(map[int]struct{}, len(lines))
	for _, l := range lines {
		if l.ID < 1 {
			return Cart{}, fmt.Errorf("cart line has invalid product id %d", l.ID)
		}
		if l.Amount < 1 {
			return Cart{}, fmt.Errorf("cart line %d has invalid amount %d", l.ID, l.Amount)
		}
		if _, dup := seen[l.ID]; dup {
			return Cart{}, fmt.Errorf("cart has duplicate lines for product %d", l.ID)
		}
		seen[l.ID] = struct{}{}
	}
	return Cart{lines: append([]CartLine(nil), lines...)}, nil
}

// Lines returns a copy of the lines in insertion order.
func (c Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len is the number of distinct products.
func (c Cart) Len() int { return len(c.lines) }

// Find returns the line for productID; ok is false when the product is not in the cart.
func (c Cart) Find(productID int) (line CartLine, ok bool) {
	if i := c.index(productID); i >= 0 {
		return c.lines[i], true
	}
	return CartLine{}, false
}

// ItemCount is the sum of all amounts.
func (c Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Amount
	}
	return n
}

// AmountByProduct maps each product ID to its amount.
func (c Cart) AmountByProduct() map[int]int {
	out := make(map[int]int, len(c.lines))
	for _, l := range c.lines {
		out[l.ID] = l.Amount
	}
	return out
}

// Total is the sum of line subtotals.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Equal reports whether both snapshots hold the same lines in the same order.
func (c Cart) Equal(o Cart) bool {
	if len(c.lines) != len(o.lines) {
		return false
	}
	for i := range c.lines {
		a, b := c.lines[i], o.lines[i]
		if a.ID != b.ID || a.Title != b.Title || a.Image != b.Image || a.Amount != b.Amount || !a.Price.Equal(b.Price) {
			return false
		}
	}
	return true
}

func (c Cart) index(productID int) int {
	for i := range c.lines {
		if c.lines[i].ID == productID {
			return i
		}
	}
	return -1
}

func (c Cart) withLine(l CartLine) Cart {
	lines := make([]CartLine, 0, len(c.lines)+1)
	lines = append(lines, c.lines...)
	return Cart{lines: append(lines, l)}
}

func (c Cart) withAmount(productID, amount int) Cart {
	lines := c.Lines()
	if i := c.index(productID); i >= 0 {
		lines[i].Amount = amount
	}
	return Cart{lines: lines}
}

func (c Cart) without(productID int) Cart {
	lines := make([]CartLine, 0, len(c.lines))
	for _, l := range c.lines {
		if l.ID != productID {
			lines = append(lines, l)
		}
	}
	return Cart{lines: lines}
}
