package timezones

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/sleep-clock/internal/domain/timezone"
)

// TestRegistry_Defaults checks a fresh registry lists the seven seed zones in order.
func TestRegistry_Defaults(t *testing.T) {
	t.Parallel()

	require.Equal(t, timezone.Defaults(), New().List())
}

// TestRegistry_AddRemove covers duplicates, first-match removal and missing names.
func TestRegistry_AddRemove(t *testing.T) {
	t.Parallel()

	r := New()
	r.Add("Lima", -5)
	r.Add("Lima", -4)

	zones := r.List()
	require.Len(t, zones, 9)
	require.Equal(t, timezone.Timezone{Name: "Lima", Offset: -5}, zones[7])
	require.Equal(t, timezone.Timezone{Name: "Lima", Offset: -4}, zones[8])

	require.True(t, r.Remove("Lima"))

	zones = r.List()
	require.Len(t, zones, 8)
	require.Equal(t, timezone.Timezone{Name: "Lima", Offset: -4}, zones[7])

	require.False(t, r.Remove("Atlantis"))
	require.Len(t, r.List(), 8)

	// Removing the anchor keeps the remaining order.
	require.True(t, r.Remove("UTC"))
	require.Equal(t, "New York", r.List()[0].Name)
}
