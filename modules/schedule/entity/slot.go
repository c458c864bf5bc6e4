package entity

import (
	"fmt"
	"time"
)

// TimeSlot is one fixed-width bucket of the day grid.
type TimeSlot struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// DaysPerWeek is fixed; the grid always renders Monday=0 through Sunday=6.
const DaysPerWeek = 7

var slotCatalog = buildSlotCatalog()

func buildSlotCatalog() []TimeSlot {
	// Hourly buckets from 08:00 to 21:00.
	slots := make([]TimeSlot, 0, 13)
	for i := 0; i < 13; i++ {
		start := fmt.Sprintf("%02d:00", 8+i)
		end := fmt.Sprintf("%02d:00", 9+i)
		slots = append(slots, TimeSlot{
			Index: i,
			Label: fmt.Sprintf("%s - %s", start, end),
			Start: start,
			End:   end,
		})
	}
	return slots
}

// SlotCatalog returns the static ordered slot list. Callers must not mutate
// the returned slice.
func SlotCatalog() []TimeSlot {
	return slotCatalog
}

// MaxSlotIndex is the last index of the full catalog.
func MaxSlotIndex() int {
	return len(slotCatalog) - 1
}

// ValidDay reports whether day is within the fixed Monday=0..Sunday=6 range.
func ValidDay(day int) bool {
	return day >= 0 && day < DaysPerWeek
}

// SlotRangeDescription renders a human-readable description of the accepted
// slot range, e.g. for validation error messages.
func SlotRangeDescription(maxIndex int) string {
	if maxIndex < 0 || maxIndex > MaxSlotIndex() {
		maxIndex = MaxSlotIndex()
	}
	return fmt.Sprintf("slots 0-%d (%s to %s)", maxIndex, slotCatalog[0].Start, slotCatalog[maxIndex].End)
}

// NormalizeWeekStart validates an ISO week start date and checks it falls on
// a Monday, returning the canonical YYYY-MM-DD form.
func NormalizeWeekStart(date string) (string, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", fmt.Errorf("invalid week start date %q: %w", date, err)
	}
	if t.Weekday() != time.Monday {
		return "", fmt.Errorf("week start date %s is not a Monday", date)
	}
	return t.Format("2006-01-02"), nil
}
