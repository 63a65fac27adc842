package request

import (
	"fmt"

	"github.com/shopspring/decimal"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

type Product struct {
	Name        string          `validate:"required,max=200" json:"name"`
	Description string          `validate:"max=2000"         json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageRef    string          `validate:"max=500"          json:"imageRef"`
}

// Validate checks what struct tags cannot express.
func (p Product) Validate() error {
	if p.Price.IsNegative() {
		return fmt.Errorf("price=%s must not be negative with error=%w", p.Price, inErrors.ErrBadRequest)
	}
	return nil
}
