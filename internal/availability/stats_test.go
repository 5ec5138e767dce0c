package availability

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name  string
		zones []ZoneSlots
		want  Stats
	}{
		{
			name:  "no zones",
			zones: nil,
			want:  Stats{},
		},
		{
			name:  "single empty zone",
			zones: []ZoneSlots{{TotalSlots: 0, AvailableSlots: 0}},
			want:  Stats{},
		},
		{
			name:  "fully available",
			zones: []ZoneSlots{{TotalSlots: 50, AvailableSlots: 50}},
			want:  Stats{TotalSlots: 50, AvailableSlots: 50, OccupancyPercentage: 0},
		},
		{
			name:  "fully occupied",
			zones: []ZoneSlots{{TotalSlots: 20, AvailableSlots: 0}},
			want:  Stats{TotalSlots: 20, AvailableSlots: 0, OccupancyPercentage: 100},
		},
		{
			name: "sums across zones",
			zones: []ZoneSlots{
				{TotalSlots: 100, AvailableSlots: 40},
				{TotalSlots: 50, AvailableSlots: 35},
				{TotalSlots: 50, AvailableSlots: 25},
			},
			want: Stats{TotalSlots: 200, AvailableSlots: 100, OccupancyPercentage: 50},
		},
		{
			name: "fractional occupancy",
			zones: []ZoneSlots{
				{TotalSlots: 3, AvailableSlots: 2},
			},
			want: Stats{TotalSlots: 3, AvailableSlots: 2, OccupancyPercentage: 100.0 / 3.0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.zones)
			require.Equal(t, tt.want.TotalSlots, got.TotalSlots)
			require.Equal(t, tt.want.AvailableSlots, got.AvailableSlots)
			require.InDelta(t, tt.want.OccupancyPercentage, got.OccupancyPercentage, 1e-9)
		})
	}
}
