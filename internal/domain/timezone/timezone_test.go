package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestLocalTimeFor covers positive and negative offsets around midnight.
func TestLocalTimeFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		base   TimeOfDay
		offset int
		want   TimeOfDay
	}{
		{"rolls past midnight", TimeOfDay{23, 50, 0}, 9, TimeOfDay{8, 50, 0}},
		{"zero offset", TimeOfDay{12, 1, 2}, 0, TimeOfDay{12, 1, 2}},
		{"negative wraps backwards", TimeOfDay{2, 15, 30}, -5, TimeOfDay{21, 15, 30}},
		{"exactly midnight", TimeOfDay{13, 0, 0}, 11, TimeOfDay{0, 0, 0}},
		{"large negative", TimeOfDay{0, 0, 59}, -25, TimeOfDay{23, 0, 59}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, LocalTimeFor(tc.base, tc.offset))
		})
	}
}

// TestDefaults checks the seed zones and their order.
func TestDefaults(t *testing.T) {
	t.Parallel()

	zones := Defaults()
	require.Len(t, zones, 7)

	names := make([]string, 0, len(zones))
	for _, z := range zones {
		names = append(names, z.Name)
	}

	require.Equal(t, []string{"UTC", "New York", "London", "Tokyo", "Bogota", "Paris", "Sydney"}, names)
	require.Equal(t, 11, zones[6].Offset)
}

// TestFromTime verifies extraction and formatting.
func TestFromTime(t *testing.T) {
	t.Parallel()

	tod := FromTime(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.Equal(t, TimeOfDay{Hour: 3, Minute: 4, Second: 5}, tod)
	require.Equal(t, "03:04:05", tod.String())
}
