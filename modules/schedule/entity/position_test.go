package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionKey_RoundTrip(t *testing.T) {
	for day := 0; day < DaysPerWeek; day++ {
		for slot := 0; slot <= MaxSlotIndex(); slot++ {
			key := PositionKey(day, slot)
			gotDay, gotSlot, err := ParsePositionKey(key)
			require.NoError(t, err)
			assert.Equal(t, day, gotDay)
			assert.Equal(t, slot, gotSlot)
		}
	}
}

func TestPositionKey_Format(t *testing.T) {
	assert.Equal(t, "1-2", PositionKey(1, 2))
	assert.Equal(t, "6-12", PositionKey(6, 12))
}

func TestParsePositionKey_Malformed(t *testing.T) {
	for _, key := range []string{"", "3", "a-b", "3-x"} {
		_, _, err := ParsePositionKey(key)
		assert.Error(t, err, "key %q should not parse", key)
	}
}

func TestSlotCatalog(t *testing.T) {
	slots := SlotCatalog()
	require.Len(t, slots, 13)
	assert.Equal(t, "08:00", slots[0].Start)
	assert.Equal(t, "21:00", slots[len(slots)-1].End)
	for i, s := range slots {
		assert.Equal(t, i, s.Index)
	}
	assert.Equal(t, 12, MaxSlotIndex())
}

func TestValidDay(t *testing.T) {
	assert.True(t, ValidDay(0))
	assert.True(t, ValidDay(6))
	assert.False(t, ValidDay(-1))
	assert.False(t, ValidDay(7))
}

func TestNormalizeWeekStart(t *testing.T) {
	week, err := NormalizeWeekStart("2026-01-05")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-05", week)

	_, err = NormalizeWeekStart("2026-01-06")
	assert.Error(t, err, "Tuesday is not a valid week start")

	_, err = NormalizeWeekStart("not-a-date")
	assert.Error(t, err)
}

func TestSlotRangeDescription(t *testing.T) {
	assert.Equal(t, "slots 0-6 (08:00 to 15:00)", SlotRangeDescription(6))
}
