package integration

import (
	"fmt"
	"strings"
)

// OrderStatus is the marketplace order lifecycle state.
//
// The lifecycle is a forward chain Unpaid → Pending → ReadyToShip → Shipping →
// Delivered, with Cancelled reachable from any non-terminal state.
type OrderStatus string

const (
	OrderStatusUnpaid      OrderStatus = "Unpaid"
	OrderStatusPending     OrderStatus = "Pending"
	OrderStatusReadyToShip OrderStatus = "Ready To Ship"
	OrderStatusShipping    OrderStatus = "Shipping"
	OrderStatusDelivered   OrderStatus = "Delivered"
	OrderStatusCancelled   OrderStatus = "Cancelled"
)

// orderStatusRank orders the forward chain; Cancelled sits outside it
var orderStatusRank = map[OrderStatus]int{
	OrderStatusUnpaid:      1,
	OrderStatusPending:     2,
	OrderStatusReadyToShip: 3,
	OrderStatusShipping:    4,
	OrderStatusDelivered:   5,
}

// marketplaceStatusAliases maps reported order_status strings to states
var marketplaceStatusAliases = map[string]OrderStatus{
	"unpaid":        OrderStatusUnpaid,
	"pending":       OrderStatusPending,
	"packed":        OrderStatusReadyToShip,
	"ready_to_ship": OrderStatusReadyToShip,
	"repacked":      OrderStatusReadyToShip,
	"shipping":      OrderStatusShipping,
	"shipped":       OrderStatusShipping,
	"delivered":     OrderStatusDelivered,
	"canceled":      OrderStatusCancelled,
	"cancelled":     OrderStatusCancelled,
}

// ParseOrderStatus maps a marketplace reported status to an OrderStatus.
// Matching is case-insensitive; spaces and dashes are treated as underscores.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if status, ok := marketplaceStatusAliases[key]; ok {
		return status, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOrderStatus, raw)
}

// IsValid returns true for a known state
func (s OrderStatus) IsValid() bool {
	_, ranked := orderStatusRank[s]
	return ranked || s == OrderStatusCancelled
}

// IsTerminal returns true for Delivered and Cancelled
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether next may follow s. Replaying the current
// state is allowed. Forward moves may skip states because notifications can
// be missed; moving backwards is never allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	if s == next {
		return true
	}
	if s.IsTerminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	return orderStatusRank[next] > orderStatusRank[s]
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}
