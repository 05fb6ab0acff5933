package desk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTabSetNextWraps(t *testing.T) {
	set := NewTabSet("a", "b", "c")
	require.Equal(t, Tab("a"), set.Active())
	require.Equal(t, Tab("b"), set.Next(1))
	require.Equal(t, Tab("c"), set.Next(-1))
	require.Equal(t, Tab("a"), set.Next(3))

	require.NoError(t, set.Activate("c"))
	require.Equal(t, Tab("a"), set.Next(1))
	require.NoError(t, set.Activate("c"), "re-activating is idempotent")
	require.True(t, set.IsActive("c"))
}

func TestTabSetRejectsUnknown(t *testing.T) {
	set := NewTabSet(DefaultTabs...)
	err := set.Activate("settings")
	require.ErrorIs(t, err, ErrUnknownTab)
	require.Equal(t, TabSubmit, set.Active())
	require.False(t, set.Has("settings"))
}

func TestNewTabSetPanics(t *testing.T) {
	require.Panics(t, func() { NewTabSet() })
	require.Panics(t, func() { NewTabSet("a", "a") })
}

func TestTabsReturnsCopy(t *testing.T) {
	set := NewTabSet(DefaultTabs...)
	tabs := set.Tabs()
	tabs[0] = "mutated"
	require.Equal(t, DefaultTabs, set.Tabs())
}
