package service

import "errors"

var (
	ErrNoPath            = errors.New("a path to the product page is required")
	ErrInvalidQuantity   = errors.New("quantity must be greater than 0")
	ErrItemNotFound      = errors.New("item not found in cart")
	ErrNoEmail           = errors.New("an email is required to order")
	ErrNoShippingAddress = errors.New("a shipping address or shipping address id is required")
	ErrNoOrderID         = errors.New("an order id is required")
	ErrNoAmount          = errors.New("a payment amount is required")
	ErrNoPaymentID       = errors.New("a paypal payment id is required")
	ErrNoPaymentProvider = errors.New("either a stripe token or paypal payment id and user id are required")
)
