package enums

import "fmt"

// OrderStatus tracks the lifecycle of a catering order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusExpired   OrderStatus = "expired"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusConfirmed,
	OrderStatusFailed,
	OrderStatusExpired,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsSettled reports whether payment already completed for the order.
// Settled orders are never downgraded by incoming gateway notifications.
func (o OrderStatus) IsSettled() bool {
	return o == OrderStatusPaid || o == OrderStatusConfirmed
}

// CanApply is the central transition table for gateway-driven status
// updates: a settled order accepts only a redundant paid re-application,
// every other current status accepts any mapped incoming status.
func (o OrderStatus) CanApply(next OrderStatus) bool {
	if o.IsSettled() {
		return next == OrderStatusPaid
	}
	return true
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
