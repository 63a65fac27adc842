package response

import (
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/internal/model"
)

type Cart struct {
	OwnerID string           `json:"ownerId"`
	Items   []model.LineItem `json:"items"`
	Total   decimal.Decimal  `json:"total"`
}

func NewCart(ownerID string, items []model.LineItem) Cart {
	if items == nil {
		items = []model.LineItem{}
	}
	return Cart{OwnerID: ownerID, Items: items, Total: model.Total(items)}
}
