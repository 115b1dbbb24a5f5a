package domain

import "errors"

// Sentinel errors returned by the dispatch core. Every rejected mutation
// surfaces one of these before any state is touched; the API layer maps them
// to HTTP status codes centrally.
var (
	// ErrInvalidAssignment is returned when an agent cannot legally take the
	// assignment (wrong city, wrong role, wrong delivery type).
	ErrInvalidAssignment = errors.New("invalid assignment")

	// ErrCityMismatch is a specialisation of ErrInvalidAssignment for an agent
	// whose city does not match the packet's.
	ErrCityMismatch = errors.New("agent city does not match packet city")

	// ErrCapacityExceeded is returned when loading a packet would push a
	// vehicle past its weight capacity.
	ErrCapacityExceeded = errors.New("vehicle capacity exceeded")

	// ErrDestinationMismatch is returned when a packet's resolved destination
	// differs from a non-empty vehicle's destination city.
	ErrDestinationMismatch = errors.New("vehicle destination mismatch")

	// ErrUnresolvableDestination is returned when a packet's destination
	// cannot be resolved to a known city.
	ErrUnresolvableDestination = errors.New("packet destination cannot be resolved")

	// ErrPreconditionFailed is returned for any illegal state transition
	// attempt. The packet is left untouched.
	ErrPreconditionFailed = errors.New("illegal status transition")

	// ErrAlreadyDispatched is returned when unassigning a packet from a
	// vehicle after the vehicle has departed.
	ErrAlreadyDispatched = errors.New("vehicle already dispatched")

	// ErrRouteUnavailable is returned when the external routing collaborator
	// cannot produce a route. Non-fatal: never blocks a state transition.
	ErrRouteUnavailable = errors.New("route unavailable")

	// ErrNotificationFailed is returned by notification collaborators.
	// Non-fatal: logged, retried externally, never rolls back a transition.
	ErrNotificationFailed = errors.New("notification delivery failed")

	// ErrConcurrentModification is returned when a guarded conditional write
	// loses a race; callers retry or surface the conflict.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// Not-found errors, one per aggregate.
var (
	ErrPacketNotFound        = errors.New("packet not found")
	ErrVehicleNotFound       = errors.New("vehicle not found")
	ErrAgentNotFound         = errors.New("agent not found")
	ErrPickupRequestNotFound = errors.New("pickup request not found")
)
