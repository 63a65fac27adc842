package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is immutable once appended to the ledger.
type Invoice struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"ownerId"`
	Items       []LineItem      `json:"items"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"createdAt"`
	CheckoutKey string          `json:"checkoutKey,omitempty"`
}

type InvoiceCreated struct {
	InvoiceID string          `json:"invoiceId"`
	OwnerID   string          `json:"ownerId"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (i Invoice) Created() InvoiceCreated {
	count := 0
	for _, item := range i.Items {
		count += item.Quantity
	}
	return InvoiceCreated{
		InvoiceID: i.ID,
		OwnerID:   i.OwnerID,
		Total:     i.Total,
		ItemCount: count,
		CreatedAt: i.CreatedAt,
	}
}
