package sync

import (
	"testing"

	"schedule-board/modules/schedule/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryAt(id string, day, slot int) entity.ScheduleEntry {
	return entity.ScheduleEntry{
		ID:            id,
		WeekStartDate: "2026-01-05",
		DayOfWeek:     day,
		TimeSlotIndex: slot,
		DurationSlots: 1,
		CourseTitle:   "Course " + id,
		Version:       1,
	}
}

func TestStore_UpsertGetRemove(t *testing.T) {
	s := NewStore()

	assert.False(t, s.Has(1, 2))
	s.Upsert(entryAt("a", 1, 2))
	require.True(t, s.Has(1, 2))

	got, ok := s.Get(1, 2)
	require.True(t, ok)
	assert.Equal(t, "a", got.ID)
	assert.Equal(t, 1, s.Len())

	s.Remove(1, 2)
	assert.False(t, s.Has(1, 2))
	assert.Equal(t, 0, s.Len())
}

func TestStore_UpsertOverwritesPosition(t *testing.T) {
	s := NewStore()
	s.Upsert(entryAt("a", 1, 2))
	s.Upsert(entryAt("b", 1, 2))

	got, ok := s.Get(1, 2)
	require.True(t, ok)
	assert.Equal(t, "b", got.ID)
	assert.Equal(t, 1, s.Len(), "same position must never hold two entries")
}

func TestStore_GetForDay(t *testing.T) {
	s := NewStore()
	s.Upsert(entryAt("a", 1, 2))
	s.Upsert(entryAt("b", 1, 5))
	s.Upsert(entryAt("c", 3, 2))

	day := s.GetForDay(1)
	require.Len(t, day, 2)
	assert.Equal(t, "a", day[2].ID)
	assert.Equal(t, "b", day[5].ID)
}

func TestStore_FindByID(t *testing.T) {
	s := NewStore()
	s.Upsert(entryAt("a", 1, 2))

	got, ok := s.FindByID("a")
	require.True(t, ok)
	assert.Equal(t, 1, got.DayOfWeek)

	_, ok = s.FindByID("missing")
	assert.False(t, ok)
}

func TestStore_ReplaceAll(t *testing.T) {
	s := NewStore()
	s.Upsert(entryAt("old", 0, 0))

	s.ReplaceAll([]entity.ScheduleEntry{entryAt("a", 1, 2), entryAt("b", 2, 3)})
	assert.Equal(t, 2, s.Len())
	assert.False(t, s.Has(0, 0))
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := NewStore()
	s.Upsert(entryAt("a", 1, 2))

	snap := s.Snapshot()
	delete(snap, entity.PositionKey(1, 2))
	assert.True(t, s.Has(1, 2), "mutating a snapshot must not touch the store")
}
