package service

import "storefront/internal/models"

// statusNext is the forward-only order flow. It is only enforced when
// strict transitions are enabled.
var statusNext = map[models.OrderStatus]models.OrderStatus{
	models.OrderStatusReceived:  models.OrderStatusPreparing,
	models.OrderStatusPreparing: models.OrderStatusPrepared,
	models.OrderStatusPrepared:  models.OrderStatusAssigned,
	models.OrderStatusAssigned:  models.OrderStatusDelivered,
}

// CanTransition reports whether from -> to follows the order flow. Setting
// the same status again is always allowed, a terminal status never moves,
// and any other status may be cancelled.
func CanTransition(from, to models.OrderStatus) bool {
	switch {
	case from == to:
		return true
	case from.Terminal():
		return false
	case to == models.OrderStatusCancelled:
		return true
	}
	next, ok := statusNext[from]
	return ok && next == to
}
