package order

import "github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"

// Status is the lifecycle state of an order
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// transitions lists the allowed next states. Delivered and cancelled are
// reachable from every non-terminal state; forward steps are one at a time.
var transitions = map[Status][]Status{
	StatusPending:   {StatusPreparing, StatusDelivered, StatusCancelled},
	StatusPreparing: {StatusReady, StatusDelivered, StatusCancelled},
	StatusReady:     {StatusDelivered, StatusCancelled},
}

// IsValid returns true if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true for delivered and cancelled
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// HoldsFunds returns true while the order has an outstanding hold
func (s Status) HoldsFunds() bool {
	return s.IsValid() && !s.IsTerminal()
}

// CanTransitionTo reports whether target is an allowed next state
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// ParseTargetStatus validates a requested transition target. Pending is
// never a valid target.
func ParseTargetStatus(raw string) (Status, error) {
	s := Status(raw)
	switch s {
	case StatusPreparing, StatusReady, StatusDelivered, StatusCancelled:
		return s, nil
	}
	return "", shared.NewDomainError(shared.CodeInvalidInput, "Status must be one of: preparing, ready, delivered, cancelled")
}

// ParseStatus validates a status filter value
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", shared.NewDomainError(shared.CodeInvalidInput, "Unknown order status: "+raw)
	}
	return s, nil
}
