package order

import (
	"strings"

	"github.com/google/uuid"
)

const (
	// taxRateBasisPoints is the flat sales tax applied to the subtotal,
	// expressed in basis points (800 = 8%).
	taxRateBasisPoints = 800

	// shippingFlatCents is the flat shipping charge per order.
	shippingFlatCents = 1000
)

// taxCents computes the tax on a subtotal with half-up rounding.
func taxCents(subtotalCents int64) int64 {
	return (subtotalCents*taxRateBasisPoints + 5000) / 10000
}

// newOrderNumber generates an order number like ORD-3F2A9C01. The first
// eight hex characters of a random UUID give enough spread for the unique
// constraint on the column to almost never trip.
func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}
