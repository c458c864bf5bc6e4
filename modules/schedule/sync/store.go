package sync

import (
	"schedule-board/modules/schedule/entity"
)

// Store is the in-memory week grid, keyed by position. It holds entry values
// (not pointers) so snapshots and rollbacks are exact copies. Callers
// serialize access; Session guards it with its own mutex.
type Store struct {
	entries map[string]entity.ScheduleEntry
}

func NewStore() *Store {
	return &Store{entries: make(map[string]entity.ScheduleEntry)}
}

func (s *Store) Get(dayOfWeek, timeSlotIndex int) (entity.ScheduleEntry, bool) {
	e, ok := s.entries[entity.PositionKey(dayOfWeek, timeSlotIndex)]
	return e, ok
}

func (s *Store) Has(dayOfWeek, timeSlotIndex int) bool {
	_, ok := s.entries[entity.PositionKey(dayOfWeek, timeSlotIndex)]
	return ok
}

// GetForDay returns the occupied slots of one day, keyed by slot index.
func (s *Store) GetForDay(dayOfWeek int) map[int]entity.ScheduleEntry {
	out := make(map[int]entity.ScheduleEntry)
	for _, e := range s.entries {
		if e.DayOfWeek == dayOfWeek {
			out[e.TimeSlotIndex] = e
		}
	}
	return out
}

// FindByID scans for an entry by id; callers of delete may only know the id.
func (s *Store) FindByID(id string) (entity.ScheduleEntry, bool) {
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return entity.ScheduleEntry{}, false
}

func (s *Store) ReplaceAll(entries []entity.ScheduleEntry) {
	s.entries = make(map[string]entity.ScheduleEntry, len(entries))
	for _, e := range entries {
		s.entries[e.Position()] = e
	}
}

func (s *Store) Upsert(e entity.ScheduleEntry) {
	s.entries[e.Position()] = e
}

func (s *Store) Remove(dayOfWeek, timeSlotIndex int) {
	delete(s.entries, entity.PositionKey(dayOfWeek, timeSlotIndex))
}

func (s *Store) Len() int {
	return len(s.entries)
}

// Snapshot returns a copy of the full grid keyed by position.
func (s *Store) Snapshot() map[string]entity.ScheduleEntry {
	out := make(map[string]entity.ScheduleEntry, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}
