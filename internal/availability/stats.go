// Package availability derives per-location occupancy statistics from zone
// records. The computation is a pure full recompute over the current zone
// set rather than an incremental delta, so a missed or reordered change
// notification never leaves the snapshot permanently wrong.
package availability

// ZoneSlots is the slice of a zone the aggregation needs.
type ZoneSlots struct {
	TotalSlots     uint32
	AvailableSlots uint32
}

// Stats is the derived occupancy summary for one location.
type Stats struct {
	TotalSlots          uint64  `json:"total_slots"`
	AvailableSlots      uint64  `json:"available_slots"`
	OccupancyPercentage float64 `json:"occupancy_percentage"`
}

// Compute aggregates the zones of a location. Occupancy is 0 when the
// location has no slots at all.
func Compute(zones []ZoneSlots) Stats {
	var s Stats
	for _, z := range zones {
		s.TotalSlots += uint64(z.TotalSlots)
		s.AvailableSlots += uint64(z.AvailableSlots)
	}
	if s.TotalSlots > 0 {
		s.OccupancyPercentage = float64(s.TotalSlots-s.AvailableSlots) / float64(s.TotalSlots) * 100
	}
	return s
}
