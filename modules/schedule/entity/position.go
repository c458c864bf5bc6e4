package entity

import (
	"fmt"
	"strconv"
	"strings"
)

// PositionKey derives the grid key for a (day, slot) pair. At most one entry
// may occupy a key within one (organization, week).
func PositionKey(dayOfWeek, timeSlotIndex int) string {
	return fmt.Sprintf("%d-%d", dayOfWeek, timeSlotIndex)
}

// ParsePositionKey is the inverse of PositionKey. Keys are only ever produced
// by PositionKey, so malformed input is a caller bug.
func ParsePositionKey(key string) (dayOfWeek, timeSlotIndex int, err error) {
	parts := strings.SplitN(key, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed position key %q", key)
	}
	dayOfWeek, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed position key %q", key)
	}
	timeSlotIndex, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed position key %q", key)
	}
	return dayOfWeek, timeSlotIndex, nil
}
