package domain

import "fmt"

// Vehicle is a dispatch resource owned by a hub city. It cycles between
// "available for assignment" and "dispatched": departure clears the assigned
// set, resets the load and releases the destination constraint.
type Vehicle struct {
	ID              string  `json:"id" bson:"_id,omitempty"`
	Registration    string  `json:"registration" bson:"registration"`
	CapacityKg      float64 `json:"capacity_kg" bson:"capacity_kg"`
	CurrentLoadKg   float64 `json:"current_load_kg" bson:"current_load_kg"`
	CurrentCity     string  `json:"current_city" bson:"current_city"`
	DestinationCity string  `json:"destination_city,omitempty" bson:"destination_city,omitempty"`
	IsActive        bool    `json:"is_active" bson:"is_active"`
	IsInMaintenance bool    `json:"is_in_maintenance" bson:"is_in_maintenance"`

	// AssignedPacketIDs is the set of undispatched packets currently loaded.
	// Invariant: sum of their weights == CurrentLoadKg <= CapacityKg.
	AssignedPacketIDs []string `json:"assigned_packet_ids" bson:"assigned_packet_ids"`
}

// Available reports whether the vehicle may take new assignments at all.
func (v *Vehicle) Available() bool {
	return v.IsActive && !v.IsInMaintenance
}

// CanAccept validates loading totalWeight kilograms bound for destination
// without mutating the vehicle. The returned error wraps the specific
// rejection reason, including the overflow amount on capacity violations.
func (v *Vehicle) CanAccept(totalWeightKg float64, destination string) error {
	if !v.Available() {
		return fmt.Errorf("%w: vehicle %s is not available", ErrInvalidAssignment, v.ID)
	}
	if v.CurrentLoadKg+totalWeightKg > v.CapacityKg {
		over := v.CurrentLoadKg + totalWeightKg - v.CapacityKg
		return fmt.Errorf("%w: exceeds vehicle capacity by %.1f kg", ErrCapacityExceeded, over)
	}
	if v.DestinationCity != "" && v.DestinationCity != destination {
		return fmt.Errorf("%w: vehicle is loaded for %s, packet resolves to %s",
			ErrDestinationMismatch, v.DestinationCity, destination)
	}
	return nil
}

// HasPacket reports whether packetID is currently assigned to the vehicle.
func (v *Vehicle) HasPacket(packetID string) bool {
	for _, id := range v.AssignedPacketIDs {
		if id == packetID {
			return true
		}
	}
	return false
}
