package sync

import (
	"schedule-board/modules/schedule/entity"
)

// ledgerEntry records the pre-mutation state for one in-flight write.
// original is nil when the position did not exist before the optimistic
// apply; wasInsert records the operation kind chosen by the pipeline.
type ledgerEntry struct {
	original  *entity.ScheduleEntry
	wasInsert bool
}

// ledger is the optimistic-update side table, keyed by the temporary or
// durable id used during the in-flight mutation.
type ledger struct {
	entries map[string]ledgerEntry
}

func newLedger() *ledger {
	return &ledger{entries: make(map[string]ledgerEntry)}
}

func (l *ledger) record(id string, original *entity.ScheduleEntry, wasInsert bool) {
	if original != nil {
		copied := *original
		original = &copied
	}
	l.entries[id] = ledgerEntry{original: original, wasInsert: wasInsert}
}

// take removes and returns the ledger entry for id.
func (l *ledger) take(id string) (ledgerEntry, bool) {
	e, ok := l.entries[id]
	if ok {
		delete(l.entries, id)
	}
	return e, ok
}

// clear drops all pending entries. Any confirmed server event supersedes all
// pending optimism; clearing wholesale keeps catch-up after reconnects
// strictly correct.
func (l *ledger) clear() {
	l.entries = make(map[string]ledgerEntry)
}

func (l *ledger) len() int {
	return len(l.entries)
}
