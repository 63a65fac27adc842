package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type LineItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	ImageRef  string          `json:"imageRef"`
}

// Subtotal is UnitPrice × Quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	OwnerID   string     `json:"ownerId"`
	Items     []LineItem `json:"items"`
	Revision  uint64     `json:"revision"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// IndexOf returns the position of productID in the cart, or -1.
func (c Cart) IndexOf(productID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func CopyItems(items []LineItem) []LineItem {
	copied := make([]LineItem, len(items))
	copy(copied, items)
	return copied
}

func Total(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
