package services

import "errors"

var (
	ErrProductNotFound         = errors.New("product not found")
	ErrPersonalizationNotFound = errors.New("personalization not found")
	ErrOptionChoiceNotFound    = errors.New("option choice not found")
	ErrOrderNotFound           = errors.New("order not found")
	ErrOrderNotEditable        = errors.New("order can no longer be changed")
	ErrLineItemNotFound        = errors.New("line item not found")
)

// ErrOrderEmpty is returned when completing an order without line items
var ErrOrderEmpty = errors.New("order has no line items")

// Profile errors
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("a user with this Auth0 ID or email already exists")
	ErrEmailTaken      = errors.New("a user with this email already exists")
	ErrIncompleteEmail = errors.New("email not provided by Auth0")
	ErrIncompleteName  = errors.New("name not provided by Auth0")
)
