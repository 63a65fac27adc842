package request

type AddItem struct {
	ProductID string `validate:"required,max=100" json:"productId"`
}

// SetQuantity carries a pointer so that an explicit zero, which removes the item, passes validation.
type SetQuantity struct {
	Quantity *int `validate:"required" json:"quantity"`
}
