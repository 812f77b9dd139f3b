package cart

import (
	"errors"
	"fmt"
)

// Error kinds reported by cart operations. Use errors.Is against an
// *OperationError to classify a failure.
var (
	ErrStockExceeded           = errors.New("requested amount exceeds available stock")
	ErrProductNotFound         = errors.New("product is not in the cart")
	ErrCatalogLookupFailed     = errors.New("product metadata lookup failed")
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
)

// Operation names a cart mutation.
type Operation string

const (
	OpAdd    Operation = "add"
	OpRemove Operation = "remove"
	OpUpdate Operation = "update"
)

const msgOutOfStock = "Requested quantity is out of stock"

var genericMessages = map[Operation]string{
	OpAdd:    "Error adding product",
	OpRemove: "Error removing product",
	OpUpdate: "Error changing product quantity",
}

// OperationError is the result of a rejected mutation. The cart is left
// unchanged whenever one is returned.
type OperationError struct {
	Op        Operation
	Kind      error
	ProductID int
	Err       error
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("cart: %s product %d: %v", e.Op, e.ProductID, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OperationError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Message is the text shown to the user.
func (e *OperationError) Message() string {
	if errors.Is(e.Kind, ErrStockExceeded) {
		return msgOutOfStock
	}
	return genericMessages[e.Op]
}
