package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageRef    string          `json:"imageRef"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// LineItem snapshots the product as a cart entry with the given quantity.
func (p Product) LineItem(quantity int) LineItem {
	return LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  quantity,
		ImageRef:  p.ImageRef,
	}
}
