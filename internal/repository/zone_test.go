package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validZone() *Zone {
	return &Zone{
		LocationID:       1,
		Name:             "Level 1",
		TotalSlots:       50,
		AvailableSlots:   50,
		CostPerHourCents: 250,
		Lat:              52.52,
		Lng:              13.405,
	}
}

func TestValidateZone(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(z *Zone)
		wantField string
	}{
		{"valid zone", func(z *Zone) {}, ""},
		{"empty name", func(z *Zone) { z.Name = "  " }, "name"},
		{"zero total slots", func(z *Zone) { z.TotalSlots = 0; z.AvailableSlots = 0 }, "total_slots"},
		{"available exceeds total", func(z *Zone) { z.TotalSlots = 50; z.AvailableSlots = 60 }, "available_slots"},
		{"available equals total is fine", func(z *Zone) { z.AvailableSlots = z.TotalSlots }, ""},
		{"zero available is fine", func(z *Zone) { z.AvailableSlots = 0 }, ""},
		{"lat above range", func(z *Zone) { z.Lat = 90.5 }, "lat"},
		{"lat below range", func(z *Zone) { z.Lat = -91 }, "lat"},
		{"lng above range", func(z *Zone) { z.Lng = 181 }, "lng"},
		{"lng below range", func(z *Zone) { z.Lng = -180.1 }, "lng"},
		{"boundary coordinates are fine", func(z *Zone) { z.Lat = -90; z.Lng = 180 }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := validZone()
			tt.mutate(z)
			err := ValidateZone(z)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestValidateLocation(t *testing.T) {
	require.NoError(t, ValidateLocation("Main garage", 52.52, 13.405))

	err := ValidateLocation("", 52.52, 13.405)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "name", verr.Field)

	require.Error(t, ValidateLocation("Main garage", 95, 0))
	require.Error(t, ValidateLocation("Main garage", 0, -200))
}
